package storage

import (
	"sync"
	"time"
)

// DefaultCookieTTL matches the longest-lived expiration browsers honor
// for client-set cookies.
const DefaultCookieTTL = 400 * 24 * time.Hour

// CookieJar is the collaborator a CookieBackend writes through. Browser
// bridges back it with document cookies scoped to the top-level domain;
// server embedders can use a MemoryJar.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(name, value string, ttl time.Duration)
}

// CookieBackend stores values in a cookie jar. Reads refresh the cookie
// TTL so active visitors never expire out.
type CookieBackend struct {
	jar CookieJar
	ttl time.Duration
}

// NewCookieBackend wraps jar. A zero ttl means DefaultCookieTTL.
func NewCookieBackend(jar CookieJar, ttl time.Duration) *CookieBackend {
	if ttl <= 0 {
		ttl = DefaultCookieTTL
	}
	return &CookieBackend{jar: jar, ttl: ttl}
}

func (b *CookieBackend) Retrieve(key string) (string, bool) {
	value, ok := b.jar.Get(key)
	if !ok {
		return "", false
	}

	// Reset the cookie expiration
	b.jar.Set(key, value, b.ttl)

	return value, true
}

func (b *CookieBackend) Store(key, value string) {
	b.jar.Set(key, value, b.ttl)
}

// MemoryJar is an in-process CookieJar with real expirations. It is the
// default jar for embedders which do not bridge to browser cookies.
type MemoryJar struct {
	mu      sync.Mutex
	entries map[string]memoryCookie
	now     func() time.Time
}

type memoryCookie struct {
	value   string
	expires time.Time
}

// NewMemoryJar returns an empty jar.
func NewMemoryJar() *MemoryJar {
	return &MemoryJar{entries: map[string]memoryCookie{}, now: time.Now}
}

func (j *MemoryJar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entry, ok := j.entries[name]
	if !ok {
		return "", false
	}
	if j.now().After(entry.expires) {
		delete(j.entries, name)
		return "", false
	}
	return entry.value, true
}

func (j *MemoryJar) Set(name, value string, ttl time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries[name] = memoryCookie{value: value, expires: j.now().Add(ttl)}
}
