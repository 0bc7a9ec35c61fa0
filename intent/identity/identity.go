// Package identity manages the durable pseudonymous visitor ID.
package identity

import (
	"sync"

	"github.com/google/uuid"

	"github.com/unifygtm/intent-go/intent/storage"
)

// VisitorIDKey is the storage key holding the visitor ID.
const VisitorIDKey = "unify_user_id"

// LegacyVisitorIDKey is the key old client versions wrote under.
const LegacyVisitorIDKey = "anonymousUserId"

// Manager resolves the per-visitor identifier. The ID is created lazily
// on first access, persisted durably, and cached for the lifetime of the
// manager. If storage is unavailable the manager degrades to a fresh ID
// per instance.
type Manager struct {
	store *storage.Store

	mu        sync.Mutex
	visitorID string
}

// NewManager returns a Manager backed by the given durable store.
func NewManager(store *storage.Store) *Manager {
	return &Manager{store: store}
}

// GetOrCreateVisitorID returns the visitor ID for this storage scope,
// creating and persisting one if none exists. Once established the same
// value is returned for every subsequent call on this instance.
func (m *Manager) GetOrCreateVisitorID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.visitorID != "" {
		return m.visitorID
	}

	var stored string
	if m.store.GetWithLegacy(VisitorIDKey, LegacyVisitorIDKey, &stored) && stored != "" {
		m.visitorID = stored
		return stored
	}

	created := uuid.NewString()
	m.store.Set(VisitorIDKey, created)
	m.visitorID = created

	return created
}
