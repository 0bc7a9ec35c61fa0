// Package sink is a development collector for intent events: it accepts
// the client's /page, /identify and /track posts, checks the write key,
// and keeps recent events queryable per visitor.
package sink

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/unifygtm/intent-go/internal/pkg/logger"
)

// WriteKeyHeader is the header the client sends its write key in.
const WriteKeyHeader = "X-Write-Key"

var eventTypes = map[string]bool{
	"page":     true,
	"identify": true,
	"track":    true,
}

type Handler struct {
	keys    map[string]struct{}
	events  *EventLog
	maxBody int64
	log     *logger.Logger
}

// NewHandler accepts events authenticated by one of writeKeys. An empty
// writeKeys list accepts any non-empty key.
func NewHandler(writeKeys []string, events *EventLog, maxBody int64) *Handler {
	keys := make(map[string]struct{}, len(writeKeys))
	for _, key := range writeKeys {
		keys[key] = struct{}{}
	}
	return &Handler{
		keys:    keys,
		events:  events,
		maxBody: maxBody,
		log:     logger.Component("sink"),
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/analytics/v1/{eventType}", h.HandleCollect)
	r.Get("/analytics/v1/visitors/{visitorID}/events", h.HandleVisitorEvents)
	r.Get("/health", h.HandleHealth)
	return r
}

func (h *Handler) HandleCollect(w http.ResponseWriter, r *http.Request) {
	eventType := chi.URLParam(r, "eventType")
	if !eventTypes[eventType] {
		http.Error(w, "unknown event type", http.StatusNotFound)
		return
	}

	if !h.authorized(r) {
		http.Error(w, "invalid write key", http.StatusUnauthorized)
		return
	}

	var payload map[string]any
	body := http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	if typ, _ := payload["type"].(string); typ != eventType {
		http.Error(w, "payload type does not match endpoint", http.StatusBadRequest)
		return
	}

	evt := Event{
		Type:       eventType,
		ReceivedAt: time.Now().UTC(),
		Payload:    payload,
	}
	evt.VisitorID, _ = payload["visitorId"].(string)
	evt.SessionID, _ = payload["sessionId"].(string)
	if evt.VisitorID == "" {
		http.Error(w, "missing visitorId", http.StatusBadRequest)
		return
	}

	h.events.Append(evt)
	h.log.Debug("collected event", "type", eventType, "visitor", evt.VisitorID)

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleVisitorEvents(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "invalid write key", http.StatusUnauthorized)
		return
	}

	events := h.events.Recent(chi.URLParam(r, "visitorID"))
	if events == nil {
		events = []Event{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"events": events,
		"count":  len(events),
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *Handler) authorized(r *http.Request) bool {
	key := r.Header.Get(WriteKeyHeader)
	if key == "" {
		return false
	}
	if len(h.keys) == 0 {
		return true
	}
	_, ok := h.keys[key]
	return ok
}
