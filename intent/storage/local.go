package storage

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const availabilityProbeKey = "unify_storage_test"

// Medium is the raw string medium a LocalBackend writes through,
// mirroring a localStorage-style API. Implementations may fail on any
// operation; the backend probes once and degrades to a no-op.
type Medium interface {
	GetItem(key string) (string, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// LocalBackend stores values in a single-origin local medium. If the
// medium rejects the availability probe, every operation becomes a no-op
// rather than surfacing an error.
type LocalBackend struct {
	medium    Medium
	available bool
}

// NewLocalBackend probes medium once and returns a backend bound to it.
// A nil medium gets an in-process cache medium which never fails.
func NewLocalBackend(medium Medium) *LocalBackend {
	if medium == nil {
		medium = NewCacheMedium(cache.NoExpiration)
	}
	return &LocalBackend{medium: medium, available: probeMedium(medium)}
}

func probeMedium(medium Medium) bool {
	if err := medium.SetItem(availabilityProbeKey, availabilityProbeKey); err != nil {
		return false
	}
	_ = medium.RemoveItem(availabilityProbeKey)
	return true
}

func (b *LocalBackend) Retrieve(key string) (string, bool) {
	if !b.available {
		return "", false
	}
	value, err := b.medium.GetItem(key)
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}

func (b *LocalBackend) Store(key, value string) {
	if !b.available {
		return
	}
	_ = b.medium.SetItem(key, value)
}

// CacheMedium is a Medium backed by an in-process TTL cache.
type CacheMedium struct {
	c *cache.Cache
}

// NewCacheMedium returns a medium whose entries live for ttl
// (cache.NoExpiration keeps them for the process lifetime).
func NewCacheMedium(ttl time.Duration) *CacheMedium {
	return &CacheMedium{c: cache.New(ttl, 10*time.Minute)}
}

func (m *CacheMedium) GetItem(key string) (string, error) {
	value, ok := m.c.Get(key)
	if !ok {
		return "", nil
	}
	s, _ := value.(string)
	return s, nil
}

func (m *CacheMedium) SetItem(key, value string) error {
	m.c.SetDefault(key, value)
	return nil
}

func (m *CacheMedium) RemoveItem(key string) error {
	m.c.Delete(key)
	return nil
}
