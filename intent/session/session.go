// Package session manages the sliding-expiration visitor session.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unifygtm/intent-go/intent/page"
	"github.com/unifygtm/intent-go/intent/storage"
)

// DefaultDuration is how long a session persists with no activity.
const DefaultDuration = 30 * time.Minute

// SessionKey is the storage key holding the full session object.
const SessionKey = "unify_session"

// LegacySessionKey is the key old client versions wrote under.
const LegacySessionKey = "clientSession"

// SessionIDKey is the durable-store key holding just the session ID, so
// same-site subdomains can see which session is current.
const SessionIDKey = "unify_session_id"

// Session is a bounded-duration grouping of visitor activity. The page
// and user-agent snapshots are captured once, when the session begins.
type Session struct {
	SessionID     string          `json:"sessionId"`
	StartTime     time.Time       `json:"startTime"`
	Expiration    int64           `json:"expiration"` // milliseconds since epoch
	Initial       page.Properties `json:"initial"`
	UserAgent     string          `json:"userAgent"`
	UserAgentData map[string]any  `json:"userAgentData,omitempty"`
}

// Manager owns the read-modify-write lifecycle of the current session.
// Concurrent tabs sharing a store race on these writes; last-write-wins
// is accepted, no locking across processes is attempted.
type Manager struct {
	store    *storage.Store
	durable  *storage.Store
	view     page.View
	duration time.Duration
	now      func() time.Time

	mu      sync.Mutex
	current *Session
}

// Options configures a session Manager.
type Options struct {
	// Duration is the sliding expiration window. Zero means
	// DefaultDuration.
	Duration time.Duration

	// Durable, when set, receives a side-write of the current session ID
	// under SessionIDKey (typically the cookie-backed store so the ID is
	// visible across subdomains).
	Durable *storage.Store
}

// NewManager returns a Manager persisting sessions in store and reading
// page/user-agent snapshots from view.
func NewManager(store *storage.Store, view page.View, opts Options) *Manager {
	duration := opts.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Manager{
		store:    store,
		durable:  opts.Durable,
		view:     view,
		duration: duration,
		now:      time.Now,
	}
}

// GetOrCreateSession returns the current live session with its
// expiration extended, or a brand new session when none is live. Every
// call is a side-effecting read-modify-write against storage.
func (m *Manager) GetOrCreateSession() Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.liveSession(); ok {
		s.Expiration = m.expirationFromNow()
		m.persist(s)
		return *s
	}

	now := m.now()
	s := &Session{
		SessionID:     uuid.NewString(),
		StartTime:     now,
		Expiration:    m.expirationFromNow(),
		Initial:       page.Snapshot(m.view, ""),
		UserAgent:     m.view.UserAgent(),
		UserAgentData: m.view.UserAgentData(),
	}
	m.persist(s)
	return *s
}

// liveSession returns the in-memory or stored session if it has not
// passed its expiration.
func (m *Manager) liveSession() (*Session, bool) {
	s := m.current
	if s == nil {
		var stored Session
		if !m.store.GetWithLegacy(SessionKey, LegacySessionKey, &stored) {
			return nil, false
		}
		s = &stored
	}

	if s.Expiration <= m.now().UnixMilli() {
		return nil, false
	}
	return s, true
}

func (m *Manager) expirationFromNow() int64 {
	return m.now().Add(m.duration).UnixMilli()
}

func (m *Manager) persist(s *Session) {
	m.current = s
	m.store.Set(SessionKey, s)
	if m.durable != nil {
		m.durable.Set(SessionIDKey, s.SessionID)
	}
}
