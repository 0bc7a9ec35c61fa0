package sink

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRequest(t *testing.T, eventType, writeKey string, payload map[string]any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/analytics/v1/"+eventType, bytes.NewReader(body))
	if writeKey != "" {
		req.Header.Set(WriteKeyHeader, writeKey)
	}
	return req
}

func TestCollectStoresEvent(t *testing.T) {
	events := NewEventLog(time.Minute)
	h := NewHandler([]string{"wk_test"}, events, 1<<20)
	router := h.Routes()

	payload := map[string]any{
		"type":      "track",
		"visitorId": "v-1",
		"sessionId": "s-1",
		"name":      "Element Clicked",
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, collectRequest(t, "track", "wk_test", payload))

	assert.Equal(t, http.StatusNoContent, rec.Code)

	stored := events.Recent("v-1")
	require.Len(t, stored, 1)
	assert.Equal(t, "track", stored[0].Type)
	assert.Equal(t, "s-1", stored[0].SessionID)
	assert.Equal(t, "Element Clicked", stored[0].Payload["name"])
}

func TestCollectRejectsBadWriteKey(t *testing.T) {
	h := NewHandler([]string{"wk_test"}, NewEventLog(time.Minute), 1<<20)
	router := h.Routes()

	cases := []struct {
		name string
		key  string
	}{
		{"missing key", ""},
		{"wrong key", "wk_other"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			payload := map[string]any{"type": "page", "visitorId": "v-1"}
			router.ServeHTTP(rec, collectRequest(t, "page", tc.key, payload))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestCollectAcceptsAnyKeyWithoutAllowlist(t *testing.T) {
	h := NewHandler(nil, NewEventLog(time.Minute), 1<<20)
	router := h.Routes()

	rec := httptest.NewRecorder()
	payload := map[string]any{"type": "page", "visitorId": "v-1"}
	router.ServeHTTP(rec, collectRequest(t, "page", "wk_anything", payload))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCollectValidatesPayload(t *testing.T) {
	h := NewHandler(nil, NewEventLog(time.Minute), 1<<20)
	router := h.Routes()

	t.Run("type mismatch", func(t *testing.T) {
		rec := httptest.NewRecorder()
		payload := map[string]any{"type": "track", "visitorId": "v-1"}
		router.ServeHTTP(rec, collectRequest(t, "page", "wk", payload))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing visitor", func(t *testing.T) {
		rec := httptest.NewRecorder()
		payload := map[string]any{"type": "page"}
		router.ServeHTTP(rec, collectRequest(t, "page", "wk", payload))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown endpoint", func(t *testing.T) {
		rec := httptest.NewRecorder()
		payload := map[string]any{"type": "bogus", "visitorId": "v-1"}
		router.ServeHTTP(rec, collectRequest(t, "bogus", "wk", payload))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/analytics/v1/page", bytes.NewReader([]byte("{")))
		req.Header.Set(WriteKeyHeader, "wk")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestVisitorEventsEndpoint(t *testing.T) {
	events := NewEventLog(time.Minute)
	h := NewHandler(nil, events, 1<<20)
	router := h.Routes()

	for _, name := range []string{"First", "Second"} {
		rec := httptest.NewRecorder()
		payload := map[string]any{"type": "track", "visitorId": "v-1", "name": name}
		router.ServeHTTP(rec, collectRequest(t, "track", "wk", payload))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/analytics/v1/visitors/v-1/events", nil)
	req.Header.Set(WriteKeyHeader, "wk")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Events []Event `json:"events"`
		Count  int     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "First", resp.Events[0].Payload["name"])
}

func TestEventLogRetention(t *testing.T) {
	events := NewEventLog(50 * time.Millisecond)
	events.Append(Event{Type: "page", VisitorID: "v-1"})

	require.Len(t, events.Recent("v-1"), 1)
	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, events.Recent("v-1"))
}

func TestHealthEndpoint(t *testing.T) {
	h := NewHandler(nil, NewEventLog(time.Minute), 1<<20)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
