package agent

import "time"

// Config selects which sub-behaviors the agent arms on construction.
type Config struct {
	// AutoPage arms automatic page events on navigation, including one
	// for the initial page.
	AutoPage bool

	// AutoIdentify arms input monitoring and third-party email capture.
	AutoIdentify bool

	// InputRescanInterval is how often the monitored input set is
	// refreshed while auto-identify is armed. Zero means the default of
	// two seconds.
	InputRescanInterval time.Duration

	// AutoTrack configures click and third-party widget tracking.
	AutoTrack AutoTrackOptions
}

// AutoTrackOptions describes which automatic track events are enabled.
type AutoTrackOptions struct {
	// ClickTrackingSelectors are additional CSS selectors whose
	// matching elements are click-tracked, each optionally carrying its
	// own event name.
	ClickTrackingSelectors []ClickSelector

	// NavatticProductDemos enables auto-tracking of embedded Navattic
	// product demo events. Nil disables the integration's tracking
	// entirely.
	NavatticProductDemos *EventFilter

	// DefaultForms enables auto-tracking of embedded Default form and
	// scheduler events. Nil disables the integration's tracking
	// entirely.
	DefaultForms *EventFilter
}

// ClickSelector is one configured click-tracking selector. An empty
// EventName falls back to the standard "Element Clicked" name, subject
// to the duplicate-suppression rule against the default selectors.
type ClickSelector struct {
	Selector  string
	EventName string
}

// EventFilter selects which of an integration's event names fire. The
// zero value selects nothing; use AllEvents or SelectEvents.
type EventFilter struct {
	all    bool
	events map[string]bool
}

// AllEvents enables every eligible event for an integration.
func AllEvents() *EventFilter {
	return &EventFilter{all: true}
}

// SelectEvents enables only the named events.
func SelectEvents(names ...string) *EventFilter {
	events := make(map[string]bool, len(names))
	for _, name := range names {
		events[name] = true
	}
	return &EventFilter{events: events}
}

// Enabled reports whether the named event should fire. A nil filter
// means the integration is disabled.
func (f *EventFilter) Enabled(name string) bool {
	if f == nil {
		return false
	}
	if f.all {
		return true
	}
	return f.events[name]
}

// Active reports whether the integration is enabled at all.
func (f *EventFilter) Active() bool {
	return f != nil && (f.all || len(f.events) > 0)
}
