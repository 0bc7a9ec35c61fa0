package sink

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Event is one collected analytics event.
type Event struct {
	Type       string         `json:"type"`
	VisitorID  string         `json:"visitorId"`
	SessionID  string         `json:"sessionId"`
	ReceivedAt time.Time      `json:"receivedAt"`
	Payload    map[string]any `json:"payload"`
}

// EventLog keeps recently collected events per visitor, expiring whole
// visitor histories after the retention window.
type EventLog struct {
	mu      sync.Mutex
	entries *cache.Cache
}

func NewEventLog(retention time.Duration) *EventLog {
	return &EventLog{
		entries: cache.New(retention, retention),
	}
}

// Append records an event under its visitor ID. Appending resets the
// visitor's retention window.
func (l *EventLog) Append(evt Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var events []Event
	if existing, ok := l.entries.Get(evt.VisitorID); ok {
		events = existing.([]Event)
	}
	l.entries.SetDefault(evt.VisitorID, append(events, evt))
}

// Recent returns the retained events for a visitor in arrival order.
func (l *EventLog) Recent(visitorID string) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, ok := l.entries.Get(visitorID)
	if !ok {
		return nil
	}
	events := existing.([]Event)
	out := make([]Event, len(events))
	copy(out, events)
	return out
}
