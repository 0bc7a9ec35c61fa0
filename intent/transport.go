package intent

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/unifygtm/intent-go/internal/pkg/logger"
)

// WriteKeyHeader carries the workspace write key on every collection
// request.
const WriteKeyHeader = "X-Write-Key"

// HTTPTransport posts events over HTTPS, fire-and-forget. Sends happen
// on their own goroutine and failures are dropped after a debug log;
// callers never block on the network and never observe an error.
type HTTPTransport struct {
	writeKey string
	client   *http.Client
	log      *logger.Logger
}

func NewHTTPTransport(writeKey string) *HTTPTransport {
	return &HTTPTransport{
		writeKey: writeKey,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      logger.Component("transport"),
	}
}

func (t *HTTPTransport) Post(url string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		t.log.Debug("dropping unserializable payload", "url", url, "error", err.Error())
		return
	}

	go func() {
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			t.log.Debug("dropping event", "url", url, "error", err.Error())
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(WriteKeyHeader, t.writeKey)

		resp, err := t.client.Do(req)
		if err != nil {
			t.log.Debug("dropping event", "url", url, "error", err.Error())
			return
		}
		resp.Body.Close()
	}()
}
