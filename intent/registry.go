package intent

import "sync"

// Call is one deferred client invocation queued before mount: a method
// name plus the raw arguments it was called with. Argument shapes are
// not validated at enqueue time; the client coerces them tolerantly on
// drain and drops what it cannot interpret.
type Call struct {
	Method string
	Args   []any
}

// liveClient is the method surface a registry occupant must present to
// count as a mounted client. Presence of these methods, not mere
// occupancy, is the liveness test, so an unrelated value parked in the
// slot does not block mounting.
type liveClient interface {
	Page(pathname string)
	Identify(email string, opts *IdentifyOptions) bool
	Track(name string, properties map[string]any)
	Unmount()
}

// Registry is the single-instance rendezvous point for one page. At
// most one live client occupies it; calls made before any client
// mounts queue up and are drained by the client that does.
//
// The check-then-set in publish is atomic under the registry lock, but
// two clients mounting concurrently is still a configuration mistake;
// the loser logs a warning and stays unmounted.
type Registry struct {
	mu    sync.Mutex
	slot  any
	queue []Call
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Enqueue defers a call until a client mounts. Calls enqueued after a
// client is live are dispatched to it immediately instead.
func (r *Registry) Enqueue(call Call) {
	r.mu.Lock()
	live, _ := r.slot.(liveClient)
	if live == nil {
		r.queue = append(r.queue, call)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	dispatch(live, call)
}

// Live returns the mounted client occupying the registry, or nil.
func (r *Registry) Live() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slot.(liveClient); !ok {
		return nil
	}
	return r.slot
}

// publish installs c as the live client and hands back the deferred
// call queue. It refuses when a live client already occupies the slot.
func (r *Registry) publish(c liveClient) ([]Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, occupied := r.slot.(liveClient); occupied {
		return nil, false
	}
	r.slot = c
	queued := r.queue
	r.queue = nil
	return queued, true
}

// clear vacates the slot if c still occupies it.
func (r *Registry) clear(c liveClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slot == c {
		r.slot = nil
	}
}

// dispatch applies one deferred call to a live client, coercing
// arguments where their runtime types allow and ignoring the call
// otherwise.
func dispatch(c liveClient, call Call) {
	str := func(i int) string {
		if i >= len(call.Args) {
			return ""
		}
		s, _ := call.Args[i].(string)
		return s
	}

	switch call.Method {
	case "page":
		c.Page(str(0))
	case "identify":
		c.Identify(str(0), nil)
	case "track":
		var properties map[string]any
		if len(call.Args) > 1 {
			properties, _ = call.Args[1].(map[string]any)
		}
		if name := str(0); name != "" {
			c.Track(name, properties)
		}
	case "startAutoPage", "stopAutoPage", "startAutoIdentify", "stopAutoIdentify", "startAutoTrack", "stopAutoTrack":
		if controls, ok := c.(autoControls); ok {
			dispatchAutoControl(controls, call.Method)
		}
	}
}

// autoControls is the optional start/stop surface deferred calls can
// reach.
type autoControls interface {
	StartAutoPage()
	StopAutoPage()
	StartAutoIdentify()
	StopAutoIdentify()
	StartAutoTrack()
	StopAutoTrack()
}

func dispatchAutoControl(c autoControls, method string) {
	switch method {
	case "startAutoPage":
		c.StartAutoPage()
	case "stopAutoPage":
		c.StopAutoPage()
	case "startAutoIdentify":
		c.StartAutoIdentify()
	case "stopAutoIdentify":
		c.StopAutoIdentify()
	case "startAutoTrack":
		c.StartAutoTrack()
	case "stopAutoTrack":
		c.StopAutoTrack()
	}
}
