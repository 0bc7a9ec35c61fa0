package intent

import (
	"errors"
	"time"

	"github.com/unifygtm/intent-go/intent/activity"
	"github.com/unifygtm/intent-go/intent/agent"
	"github.com/unifygtm/intent-go/intent/storage"
)

// DefaultSessionDuration is how long a session stays live without
// activity.
const DefaultSessionDuration = 30 * time.Minute

// Config is the client configuration. WriteKey is the only required
// field.
type Config struct {
	// WriteKey authenticates the workspace events are collected for.
	WriteKey string

	// APIBase overrides the collection endpoint base URL.
	APIBase string

	// AutoPage arms automatic page tracking on navigation. Defaults to
	// on; set to a false pointer value to disable.
	AutoPage *bool

	// AutoIdentify arms automatic email-input monitoring. Off by
	// default.
	AutoIdentify bool

	// AutoTrack configures click and third-party widget tracking.
	AutoTrack agent.AutoTrackOptions

	// SessionDuration is the sliding session window. Zero means
	// DefaultSessionDuration.
	SessionDuration time.Duration

	// Transport overrides event delivery, for embedders that proxy
	// events server-side. Nil means direct HTTPS posts.
	Transport activity.Transport

	// CookieJar is the durable cross-subdomain store for identity and
	// session state. Nil means an in-process jar, which keeps state
	// only for the client's lifetime.
	CookieJar storage.CookieJar

	// LocalStore is the page-local medium that mirrors the live session
	// ID. Nil means an in-process medium.
	LocalStore storage.Medium
}

func (c *Config) validate() error {
	if c.WriteKey == "" {
		return errors.New("write key is required")
	}
	return nil
}

func (c *Config) autoPage() bool {
	if c.AutoPage == nil {
		return true
	}
	return *c.AutoPage
}

func (c *Config) apiBase() string {
	if c.APIBase == "" {
		return activity.DefaultAPIBase
	}
	return c.APIBase
}

func (c *Config) sessionDuration() time.Duration {
	if c.SessionDuration <= 0 {
		return DefaultSessionDuration
	}
	return c.SessionDuration
}

// Bool returns a pointer to b, for the AutoPage field.
func Bool(b bool) *bool { return &b }
