// Package intenttest provides in-memory fakes for the host-environment
// and transport boundaries, for tests that drive the agent and client
// without a real page or network.
package intenttest

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/unifygtm/intent-go/intent/activity"
	"github.com/unifygtm/intent-go/intent/agent"
	"github.com/unifygtm/intent-go/intent/identity"
	"github.com/unifygtm/intent-go/intent/page"
	"github.com/unifygtm/intent-go/intent/session"
	"github.com/unifygtm/intent-go/intent/storage"
)

// Transport records posted payloads instead of sending them.
type Transport struct {
	mu   sync.Mutex
	urls []string
	sent []map[string]any
}

func (t *Transport) Post(url string, payload any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.urls = append(t.urls, url)
	t.sent = append(t.sent, payload.(map[string]any))
}

// Sent returns a copy of all recorded payloads in post order.
func (t *Transport) Sent() []map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]map[string]any, len(t.sent))
	copy(out, t.sent)
	return out
}

// URLs returns a copy of all posted URLs in post order.
func (t *Transport) URLs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.urls))
	copy(out, t.urls)
	return out
}

// OfType returns the recorded payloads whose type field equals typ.
func (t *Transport) OfType(typ activity.EventType) []map[string]any {
	var out []map[string]any
	for _, payload := range t.Sent() {
		if payload["type"] == typ {
			out = append(out, payload)
		}
	}
	return out
}

// Host is an in-memory agent.Host. Tests mutate its View and call the
// Navigate, PopState, Click and Deliver methods to simulate page
// activity.
type Host struct {
	View *page.StaticView

	mu        sync.Mutex
	historyCB func()
	nextID    int
	popCBs    map[int]func()
	clickCBs  map[int]func(agent.Element)
	msgCBs    map[int]func(agent.Message)
	inputs    []agent.Input
}

func NewHost(pageURL string) *Host {
	return &Host{
		View: &page.StaticView{
			PageURL:   pageURL,
			PageTitle: "Test Page",
			Language:  "en-US",
			Agent:     "test-agent/1.0",
		},
		popCBs:   map[int]func(){},
		clickCBs: map[int]func(agent.Element){},
		msgCBs:   map[int]func(agent.Message){},
	}
}

func (h *Host) CurrentURL() string { return h.View.CurrentURL() }
func (h *Host) Title() string { return h.View.Title() }
func (h *Host) Referrer() string { return h.View.Referrer() }
func (h *Host) Locale() string { return h.View.Locale() }
func (h *Host) UserAgent() string { return h.View.UserAgent() }
func (h *Host) UserAgentData() map[string]any { return h.View.UserAgentData() }

func (h *Host) WrapHistory(cb func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.historyCB == nil {
		h.historyCB = cb
	}
}

func (h *Host) AddPopStateListener(cb func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.popCBs[id] = cb
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.popCBs, id)
	}
}

func (h *Host) Inputs() []agent.Input {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]agent.Input, len(h.inputs))
	copy(out, h.inputs)
	return out
}

func (h *Host) AddClickListener(cb func(agent.Element)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.clickCBs[id] = cb
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.clickCBs, id)
	}
}

func (h *Host) AddMessageListener(cb func(agent.Message)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.msgCBs[id] = cb
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.msgCBs, id)
	}
}

// HistoryWrapped reports whether an agent installed the history wrap.
func (h *Host) HistoryWrapped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.historyCB != nil
}

// PopStateListenerCount reports how many back/forward listeners are
// currently registered.
func (h *Host) PopStateListenerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.popCBs)
}

// ClickListenerCount reports how many click listeners are currently
// registered.
func (h *Host) ClickListenerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clickCBs)
}

// Navigate simulates a programmatic history mutation to url.
func (h *Host) Navigate(url string) {
	h.mu.Lock()
	h.View.PageURL = url
	cb := h.historyCB
	h.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// PopState simulates user back/forward navigation to url.
func (h *Host) PopState(url string) {
	h.mu.Lock()
	h.View.PageURL = url
	cbs := make([]func(), 0, len(h.popCBs))
	for _, cb := range h.popCBs {
		cbs = append(cbs, cb)
	}
	h.mu.Unlock()
	for _, cb := range cbs {
		cb()
	}
}

// Click dispatches a click on target to the registered listeners.
func (h *Host) Click(target agent.Element) {
	h.mu.Lock()
	cbs := make([]func(agent.Element), 0, len(h.clickCBs))
	for _, cb := range h.clickCBs {
		cbs = append(cbs, cb)
	}
	h.mu.Unlock()
	for _, cb := range cbs {
		cb(target)
	}
}

// Deliver marshals payload and dispatches it as a message from origin.
func (h *Host) Deliver(t *testing.T, origin string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal message payload: %v", err)
	}
	h.mu.Lock()
	cbs := make([]func(agent.Message), 0, len(h.msgCBs))
	for _, cb := range h.msgCBs {
		cbs = append(cbs, cb)
	}
	h.mu.Unlock()
	for _, cb := range cbs {
		cb(agent.Message{Origin: origin, Data: data})
	}
}

// AttachInput adds an input to the page. The agent only notices it on
// its next rescan or StartAutoIdentify.
func (h *Host) AttachInput(in agent.Input) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inputs = append(h.inputs, in)
}

// DetachInput removes an input from the page.
func (h *Host) DetachInput(in agent.Input) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.inputs {
		if existing == in {
			h.inputs = append(h.inputs[:i], h.inputs[i+1:]...)
			break
		}
	}
	if fake, ok := in.(*Input); ok {
		fake.mu.Lock()
		fake.detached = true
		fake.mu.Unlock()
	}
}

// NewContext builds an activity context over host with in-memory
// storage and a recording transport.
func NewContext(host *Host) (*activity.Context, *Transport) {
	backend := storage.NewLocalBackend(nil)
	transport := &Transport{}
	store := storage.New("wk_test", backend)
	return &activity.Context{
		WriteKey:  "wk_test",
		APIBase:   activity.DefaultAPIBase,
		Transport: transport,
		Identity:  identity.NewManager(store),
		Session:   session.NewManager(store, host, session.Options{}),
		View:      host,
	}, transport
}

// Input is an in-memory agent.Input.
type Input struct {
	mu       sync.Mutex
	kind     string
	value    string
	detached bool
	nextID   int
	blurCBs  map[int]func()
	keyCBs   map[int]func(string)
}

func NewInput(kind, value string) *Input {
	return &Input{
		kind:    kind,
		value:   value,
		blurCBs: map[int]func(){},
		keyCBs:  map[int]func(string){},
	}
}

func (i *Input) Kind() string { return i.kind }

func (i *Input) Value() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.value
}

func (i *Input) Connected() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return !i.detached
}

// SetValue simulates the user editing the input.
func (i *Input) SetValue(value string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.value = value
}

func (i *Input) AddBlurListener(cb func()) func() {
	i.mu.Lock()
	defer i.mu.Unlock()
	id := i.nextID
	i.nextID++
	i.blurCBs[id] = cb
	return func() {
		i.mu.Lock()
		defer i.mu.Unlock()
		delete(i.blurCBs, id)
	}
}

func (i *Input) AddKeyListener(cb func(string)) func() {
	i.mu.Lock()
	defer i.mu.Unlock()
	id := i.nextID
	i.nextID++
	i.keyCBs[id] = cb
	return func() {
		i.mu.Lock()
		defer i.mu.Unlock()
		delete(i.keyCBs, id)
	}
}

// Blur fires the input's blur listeners.
func (i *Input) Blur() {
	for _, cb := range i.listeners() {
		cb()
	}
}

// PressKey fires the input's keydown listeners with key.
func (i *Input) PressKey(key string) {
	i.mu.Lock()
	cbs := make([]func(string), 0, len(i.keyCBs))
	for _, cb := range i.keyCBs {
		cbs = append(cbs, cb)
	}
	i.mu.Unlock()
	for _, cb := range cbs {
		cb(key)
	}
}

// ListenerCount reports the number of registered blur and keydown
// listeners.
func (i *Input) ListenerCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.blurCBs) + len(i.keyCBs)
}

func (i *Input) listeners() []func() {
	i.mu.Lock()
	defer i.mu.Unlock()
	cbs := make([]func(), 0, len(i.blurCBs))
	for _, cb := range i.blurCBs {
		cbs = append(cbs, cb)
	}
	return cbs
}

// Element is an in-memory agent.Element. Selector matching is explicit:
// an element matches the selectors listed in Selectors, plus the
// attribute selectors implied by its Data keys.
type Element struct {
	Selectors   []string
	Attrs       map[string]string
	Data        map[string]string
	TextContent string
	LabelledBy  string
	Alt         string
	Hidden      bool
	IsDisabled  bool
	Classes     []string
	Parent      *Element
}

func (e *Element) Closest(selectors []string) (agent.Element, bool) {
	for el := e; el != nil; el = el.Parent {
		for _, sel := range selectors {
			if el.Matches(sel) {
				return el, true
			}
		}
	}
	return nil, false
}

func (e *Element) Matches(selector string) bool {
	for _, sel := range e.Selectors {
		if sel == selector {
			return true
		}
	}
	switch selector {
	case "[data-unify-track-clicks]":
		_, ok := e.Data["unifyTrackClicks"]
		return ok
	case "[data-unify-click-event-name]":
		_, ok := e.Data["unifyClickEventName"]
		return ok
	}
	return false
}

func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

func (e *Element) Dataset() map[string]string {
	if e.Data == nil {
		return map[string]string{}
	}
	return e.Data
}

func (e *Element) Text() string { return e.TextContent }
func (e *Element) LabelledByText() string { return e.LabelledBy }
func (e *Element) ImageAlt() string { return e.Alt }
func (e *Element) StyleHidden() bool { return e.Hidden }
func (e *Element) Disabled() bool { return e.IsDisabled }

func (e *Element) HasClass(name string) bool {
	for _, class := range e.Classes {
		if class == name {
			return true
		}
	}
	return false
}
