// Package storage provides the key/value persistence used for visitor
// identity and session state. Values survive page loads only as far as
// the chosen backend does; every backend degrades to a no-op rather than
// returning errors to callers.
package storage

import (
	"encoding/base64"
	"encoding/json"
)

// Backend is the physical medium a Store reads and writes. Keys and
// values arrive already encoded. Implementations never return errors;
// an unavailable medium reports misses and swallows writes.
type Backend interface {
	Retrieve(key string) (string, bool)
	Store(key, value string)
}

// Store namespaces and encodes values on top of a Backend. Each client
// instance owns a Store keyed by its write key so multiple clients in
// one process do not collide.
type Store struct {
	writeKey string
	backend  Backend
}

// New returns a Store scoped to the given write key.
func New(writeKey string, backend Backend) *Store {
	return &Store{writeKey: writeKey, backend: backend}
}

// Get reads the value under key into out. Returns false when the key is
// absent or the stored value cannot be decoded.
func (s *Store) Get(key string, out any) bool {
	encoded, ok := s.backend.Retrieve(s.buildKey(key))
	if !ok {
		return false
	}
	return decodeValue(encoded, out)
}

// GetWithLegacy reads key, falling back to legacyKey for values written
// by old client versions. A legacy hit is re-written under the primary
// key so the fallback only happens once per storage scope.
func (s *Store) GetWithLegacy(key, legacyKey string, out any) bool {
	if s.Get(key, out) {
		return true
	}
	if !s.Get(legacyKey, out) {
		return false
	}
	// out is a pointer, so marshaling it re-writes the same value.
	s.Set(key, out)
	return true
}

// Set stores value under key.
func (s *Store) Set(key string, value any) {
	s.backend.Store(s.buildKey(key), encodeValue(value))
}

// buildKey prefixes the logical key with the write key so stores for
// distinct clients never alias, then encodes the result so the physical
// key is a single cookie-safe token.
func (s *Store) buildKey(key string) string {
	return base64.StdEncoding.EncodeToString([]byte(s.writeKey + "_" + key))
}

func encodeValue(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

func decodeValue(encoded string, out any) bool {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}
