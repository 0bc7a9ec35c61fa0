// Package page models the host page environment the intent SDK observes.
// The SDK never touches a real browser; embedders supply a View which
// reports the current location, document metadata and user agent.
package page

import (
	"net/url"
	"strings"
)

// Properties is the snapshot of a page location included with page and
// track events and captured when a session begins.
type Properties struct {
	Path     string            `json:"path"`
	Query    map[string]string `json:"query"`
	Referrer string            `json:"referrer"`
	Title    string            `json:"title"`
	URL      string            `json:"url"`
}

// View reports the live state of the host page. Implementations must be
// safe for concurrent reads; every value is fetched fresh at event time.
type View interface {
	// CurrentURL returns the absolute URL of the current page.
	CurrentURL() string
	Title() string
	Referrer() string
	// Locale is the host environment's language tag, e.g. "en-US".
	Locale() string
	UserAgent() string
	// UserAgentData returns structured user agent hints, or nil when the
	// host does not expose them.
	UserAgentData() map[string]any
}

// Snapshot captures the current page properties from a view, optionally
// substituting the given pathname for the real one.
func Snapshot(v View, pathOverride string) Properties {
	raw := v.CurrentURL()
	props := Properties{
		Referrer: v.Referrer(),
		Title:    v.Title(),
		URL:      raw,
		Query:    map[string]string{},
	}

	if u, err := url.Parse(raw); err == nil {
		props.Path = u.Path
		props.Query = QueryParams(u)
	}
	if pathOverride != "" {
		props.Path = pathOverride
	}

	return props
}

// QueryParams flattens a URL's query string to single-valued pairs.
func QueryParams(u *url.URL) map[string]string {
	params := map[string]string{}
	for key, values := range u.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

// SamePage reports whether two URLs refer to the same logical page.
// Query string and fragment changes do not constitute a new page; only a
// hostname or pathname change does.
func SamePage(oldURL, newURL string) bool {
	a, errA := url.Parse(oldURL)
	b, errB := url.Parse(newURL)
	if errA != nil || errB != nil {
		return oldURL == newURL
	}
	return a.Hostname() == b.Hostname() && a.Path == b.Path
}

// TopLevelDomain reduces a hostname to its final two labels, e.g.
// "app.unifygtm.com" → "unifygtm.com". Used by cookie jars to scope
// values across same-site subdomains.
func TopLevelDomain(hostname string) string {
	labels := strings.Split(hostname, ".")
	if len(labels) <= 2 {
		return hostname
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// StaticView is a View with fixed field values. It serves server-side
// embedders which know the page state from a request, and tests.
type StaticView struct {
	PageURL      string
	PageTitle    string
	PageReferrer string
	Language     string
	Agent        string
	AgentData    map[string]any
}

func (v *StaticView) CurrentURL() string { return v.PageURL }
func (v *StaticView) Title() string { return v.PageTitle }
func (v *StaticView) Referrer() string { return v.PageReferrer }
func (v *StaticView) Locale() string { return v.Language }
func (v *StaticView) UserAgent() string { return v.Agent }
func (v *StaticView) UserAgentData() map[string]any { return v.AgentData }
