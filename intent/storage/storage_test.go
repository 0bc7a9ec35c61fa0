package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store := New("wk_test", NewLocalBackend(nil))

	store.Set("session", map[string]string{"id": "abc"})

	var got map[string]string
	require.True(t, store.Get("session", &got))
	assert.Equal(t, "abc", got["id"])
}

func TestStoreNamespacedByWriteKey(t *testing.T) {
	backend := NewLocalBackend(nil)
	first := New("wk_one", backend)
	second := New("wk_two", backend)

	first.Set("user_id", "visitor-1")

	var got string
	assert.False(t, second.Get("user_id", &got), "stores with different write keys must not alias")
	require.True(t, first.Get("user_id", &got))
	assert.Equal(t, "visitor-1", got)
}

func TestStoreMissingKey(t *testing.T) {
	store := New("wk_test", NewLocalBackend(nil))

	var got string
	assert.False(t, store.Get("absent", &got))
}

func TestLegacyKeyMigration(t *testing.T) {
	backend := NewLocalBackend(nil)

	// An old client version wrote under the legacy key only.
	old := New("wk_test", backend)
	old.Set("anonymousUserId", "legacy-visitor")

	store := New("wk_test", backend)
	var got string
	require.True(t, store.GetWithLegacy("unify_user_id", "anonymousUserId", &got))
	assert.Equal(t, "legacy-visitor", got)

	// Migration re-writes under the primary key.
	var migrated string
	require.True(t, store.Get("unify_user_id", &migrated))
	assert.Equal(t, "legacy-visitor", migrated)

	// Idempotent on repeat.
	var again string
	require.True(t, store.GetWithLegacy("unify_user_id", "anonymousUserId", &again))
	assert.Equal(t, "legacy-visitor", again)
}

type failingMedium struct{}

func (failingMedium) GetItem(string) (string, error) { return "", errors.New("quota exceeded") }
func (failingMedium) SetItem(string, string) error { return errors.New("quota exceeded") }
func (failingMedium) RemoveItem(string) error { return errors.New("quota exceeded") }

func TestLocalBackendUnavailableDegradesToNoop(t *testing.T) {
	store := New("wk_test", NewLocalBackend(failingMedium{}))

	// Must not panic or error, just silently miss.
	store.Set("key", "value")
	var got string
	assert.False(t, store.Get("key", &got))
}

func TestCookieBackendRefreshesTTLOnRead(t *testing.T) {
	jar := NewMemoryJar()
	now := time.Now()
	jar.now = func() time.Time { return now }

	backend := NewCookieBackend(jar, time.Hour)
	backend.Store("visitor", "abc")

	// Just before expiry a read must push the deadline out again.
	now = now.Add(59 * time.Minute)
	_, ok := backend.Retrieve("visitor")
	require.True(t, ok)

	now = now.Add(59 * time.Minute)
	_, ok = backend.Retrieve("visitor")
	assert.True(t, ok, "read should have refreshed the cookie TTL")

	// With no reads the cookie does expire.
	now = now.Add(2 * time.Hour)
	_, ok = backend.Retrieve("visitor")
	assert.False(t, ok)
}

func TestRedisBackend(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := New("wk_test", NewRedisBackend(client, time.Hour))

	store.Set("unify_user_id", "visitor-redis")

	var got string
	require.True(t, store.Get("unify_user_id", &got))
	assert.Equal(t, "visitor-redis", got)
}

func TestRedisBackendDownDegradesToNoop(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	client := redis.NewClient(&redis.Options{Addr: addr})
	store := New("wk_test", NewRedisBackend(client, time.Hour))

	store.Set("key", "value")
	var got string
	assert.False(t, store.Get("key", &got))
}
