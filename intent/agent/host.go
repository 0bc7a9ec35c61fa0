package agent

import "github.com/unifygtm/intent-go/intent/page"

// Host is the observation surface the agent monitors. Embedders bridge
// it to a real page environment (webview, extension, headless browser);
// tests drive it directly. The agent registers callbacks and never polls
// except for the input rescan.
//
// Implementations invoke callbacks from at most one goroutine at a time
// per the host page's event-loop semantics; the agent still guards its
// own state because the rescan timer runs on a separate goroutine.
type Host interface {
	page.View

	// WrapHistory installs cb to run after every programmatic history
	// mutation (the pushState/replaceState analogs), once the host's
	// own mutation has been applied. A host accepts at most one wrap
	// per agent lifetime; it is never removed.
	WrapHistory(cb func())

	// AddPopStateListener registers cb for user-driven back/forward
	// navigation. The returned func removes the listener.
	AddPopStateListener(cb func()) (remove func())

	// Inputs returns the input elements currently attached to the page.
	Inputs() []Input

	// AddClickListener registers a delegated click callback receiving
	// the click target. The returned func removes the listener.
	AddClickListener(cb func(target Element)) (remove func())

	// AddMessageListener registers a callback for cross-document
	// messages from embedded third-party frames. The returned func
	// removes the listener.
	AddMessageListener(cb func(msg Message)) (remove func())
}

// Input is a text-entry element observed for self-identification.
type Input interface {
	// Kind is the input type, e.g. "email" or "text".
	Kind() string
	Value() string
	// Connected reports whether the element is still attached to the
	// page.
	Connected() bool
	AddBlurListener(cb func()) (remove func())
	// AddKeyListener registers cb for keydown events; cb receives the
	// key name (e.g. "Enter").
	AddKeyListener(cb func(key string)) (remove func())
}

// Element is a page element reached from a click. Selector matching is
// delegated to the host, which owns the document structure.
type Element interface {
	// Closest returns the nearest ancestor (or the element itself)
	// matching any of the given selectors.
	Closest(selectors []string) (Element, bool)
	Matches(selector string) bool
	// Attr returns an HTML attribute value, including aria-*.
	Attr(name string) (string, bool)
	// Dataset returns data-* attributes keyed camel-case, mirroring the
	// DOM dataset: data-unify-label → "unifyLabel".
	Dataset() map[string]string
	// Text is the element's visible text content.
	Text() string
	// LabelledByText resolves the text of the elements referenced by
	// aria-labelledby, or "".
	LabelledByText() string
	// ImageAlt is the alt text of the first nested image carrying one,
	// or "".
	ImageAlt() string
	// StyleHidden reports computed-style invisibility (display:none or
	// visibility:hidden).
	StyleHidden() bool
	// Disabled reports whether the element matches :disabled.
	Disabled() bool
	HasClass(name string) bool
}

// Message is one cross-document message received from an embedded
// third-party frame. Data is the raw JSON payload; handlers tolerate
// any shape.
type Message struct {
	Origin string
	Data   []byte
}
