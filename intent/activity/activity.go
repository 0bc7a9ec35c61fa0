// Package activity builds and dispatches analytics events. Each event
// variant supplies its type, endpoint and variant payload; the shared
// composition adds identity, session, context and timestamp at dispatch
// time so every event carries live, extended session state.
package activity

import (
	"net/url"
	"time"

	"github.com/unifygtm/intent-go/intent/identity"
	"github.com/unifygtm/intent-go/intent/page"
	"github.com/unifygtm/intent-go/intent/session"
)

// DefaultAPIBase is the production collection endpoint base path.
const DefaultAPIBase = "https://api.unifyintent.com/analytics/v1"

// EventType discriminates the event variants.
type EventType string

const (
	EventTypePage     EventType = "page"
	EventTypeIdentify EventType = "identify"
	EventTypeTrack    EventType = "track"
)

// Transport posts a payload to the collection endpoint. Implementations
// are fire-and-forget: no retries, no acknowledgment, failures dropped.
type Transport interface {
	Post(url string, payload any)
}

// Context bundles the collaborators every activity needs to compose and
// send itself. One Context is shared by the client facade and the agent.
type Context struct {
	WriteKey  string
	APIBase   string
	Transport Transport
	Identity  *identity.Manager
	Session   *session.Manager
	View      page.View
}

// Activity is one reportable occurrence. The closed set of variants is
// Page, Identify and Track.
type Activity interface {
	Type() EventType
	// Endpoint is the path under the API base this activity posts to.
	Endpoint() string
	// Data returns the variant-specific payload fields.
	Data(ctx *Context) map[string]any
}

// Send composes the full payload for a and posts it. Exactly one
// outbound send per call; it never retries and never blocks on the
// network.
func Send(ctx *Context, a Activity) {
	ctx.Transport.Post(ctx.APIBase+a.Endpoint(), Payload(ctx, a))
}

// Payload returns the composed wire payload for a without sending it,
// for callers that proxy dispatch server-side. Visitor and session IDs
// are resolved now, which extends the live session.
func Payload(ctx *Context, a Activity) map[string]any {
	payload := map[string]any{
		"type":      a.Type(),
		"visitorId": ctx.Identity.GetOrCreateVisitorID(),
		"sessionId": ctx.Session.GetOrCreateSession().SessionID,
		"context":   BuildEventContext(ctx.View),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for key, value := range a.Data(ctx) {
		payload[key] = value
	}
	return payload
}

// EventContext is the contextual metadata included with every event,
// derived fresh from the host environment and never persisted.
type EventContext struct {
	Locale        string         `json:"locale,omitempty"`
	UserAgent     string         `json:"userAgent,omitempty"`
	UserAgentData map[string]any `json:"userAgentData,omitempty"`
	UTM           CampaignParams `json:"utm"`
}

// CampaignParams carries the UTM query parameters of the current URL.
// Absent parameters are omitted from the wire payload, not nulled.
type CampaignParams struct {
	Source   string `json:"source,omitempty"`
	Medium   string `json:"medium,omitempty"`
	Campaign string `json:"campaign,omitempty"`
	Term     string `json:"term,omitempty"`
	Content  string `json:"content,omitempty"`
}

// BuildEventContext captures the event context from the view's current
// state.
func BuildEventContext(view page.View) EventContext {
	eventCtx := EventContext{
		Locale:        view.Locale(),
		UserAgent:     view.UserAgent(),
		UserAgentData: view.UserAgentData(),
	}

	if u, err := url.Parse(view.CurrentURL()); err == nil {
		q := u.Query()
		eventCtx.UTM = CampaignParams{
			Source:   q.Get("utm_source"),
			Medium:   q.Get("utm_medium"),
			Campaign: q.Get("utm_campaign"),
			Term:     q.Get("utm_term"),
			Content:  q.Get("utm_content"),
		}
	}

	return eventCtx
}
