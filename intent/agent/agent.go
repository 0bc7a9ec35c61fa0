// Package agent observes the host page and converts qualifying visitor
// behavior into analytics events: page navigation, self-identification
// through inputs, clicks, and messages from embedded third-party
// widgets. The agent runs inside pages it does not control, so every
// externally-triggered handler swallows its own panics; the worst
// outcome of any failure is a single unrecorded event.
package agent

import (
	"sync"
	"time"

	"github.com/unifygtm/intent-go/intent/activity"
	"github.com/unifygtm/intent-go/intent/page"
	"github.com/unifygtm/intent-go/internal/pkg/logger"
)

// inputRescanInterval is the default refresh cadence for the monitored
// input set while auto-identify is armed.
const inputRescanInterval = 2 * time.Second

// Agent owns the auto-instrumentation sub-machines. Each sub-behavior
// has an explicit start/stop pair gated by an armed flag, so repeated
// starts are idempotent and stops fully reverse them, except for the
// one-shot navigation hooks which are disarmed but never uninstalled.
type Agent struct {
	ctx  *activity.Context
	host Host
	log  *logger.Logger

	mu sync.Mutex

	autoPage     bool
	autoIdentify bool
	trackOptions AutoTrackOptions

	navigationHooked bool
	removePopState   func()
	lastPageURL      string

	monitored map[Input][]func()
	submitted map[string]struct{}
	rescan    *periodicTask

	trackingClicks bool
	removeClick    func()

	subscribed    bool
	removeMessage func()

	// lastDefaultEvent tracks when each Default widget event kind last
	// fired, for the double-emit suppression window.
	lastDefaultEvent map[defaultEventType]time.Time

	now func() time.Time
}

// New constructs an agent over host and arms the sub-behaviors selected
// by cfg. Click tracking and the third-party message subscription are
// always armed; an armed auto-page additionally reports the initial
// page.
func New(ctx *activity.Context, host Host, cfg Config) *Agent {
	a := &Agent{
		ctx:              ctx,
		host:             host,
		log:              logger.Component("agent"),
		trackOptions:     cfg.AutoTrack,
		monitored:        map[Input][]func(){},
		submitted:        map[string]struct{}{},
		lastDefaultEvent: map[defaultEventType]time.Time{},
		now:              time.Now,
	}
	interval := cfg.InputRescanInterval
	if interval <= 0 {
		interval = inputRescanInterval
	}
	a.rescan = newPeriodicTask(interval, func() {
		a.guard("refreshMonitoredInputs", a.refreshMonitoredInputs)
	})

	if cfg.AutoPage {
		a.StartAutoPage()
		// Make sure to track the initial page.
		a.guard("maybeTrackPage", a.maybeTrackPage)
	}
	if cfg.AutoIdentify {
		a.StartAutoIdentify()
	}
	a.StartAutoTrack(nil)
	a.subscribeToMessages()

	return a
}

// Unmount stops all monitoring done by the agent.
func (a *Agent) Unmount() {
	a.StopAutoIdentify()
	a.StopAutoPage()
	a.StopAutoTrack()
	a.unsubscribeFromMessages()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.removePopState != nil {
		a.removePopState()
		a.removePopState = nil
	}
}

// StartAutoPage arms page events for navigation changes. The first call
// installs the navigation hooks on the host; later calls only flip the
// armed flag.
func (a *Agent) StartAutoPage() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.navigationHooked {
		a.monitorNavigation()
	}
	a.autoPage = true
}

// StopAutoPage disarms page events. The navigation hooks stay installed
// but become no-ops; they are installed once per agent lifetime.
func (a *Agent) StopAutoPage() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.autoPage = false
}

// monitorNavigation installs the history wrap and the back/forward
// listener. Callers hold a.mu.
func (a *Agent) monitorNavigation() {
	onNavigate := func() { a.guard("maybeTrackPage", a.maybeTrackPage) }
	a.host.WrapHistory(onNavigate)
	a.removePopState = a.host.AddPopStateListener(onNavigate)
	a.navigationHooked = true
}

// maybeTrackPage logs a page event when auto-page is armed and the page
// genuinely changed. History calls that only mutate query parameters do
// not qualify.
func (a *Agent) maybeTrackPage() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.autoPage {
		return
	}

	current := a.host.CurrentURL()
	if a.lastPageURL != "" && page.SamePage(a.lastPageURL, current) {
		return
	}

	activity.Send(a.ctx, activity.PageView{})
	a.lastPageURL = current
}

// StartAutoIdentify arms input monitoring: an immediate scan plus a
// recurring rescan that prunes detached inputs and picks up inputs
// added after page load.
func (a *Agent) StartAutoIdentify() {
	a.mu.Lock()
	a.autoIdentify = true
	a.refreshMonitoredInputsLocked()
	a.mu.Unlock()

	a.rescan.Start()
}

// StopAutoIdentify detaches all input listeners and clears the
// monitored set.
func (a *Agent) StopAutoIdentify() {
	a.rescan.Stop()

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, removals := range a.monitored {
		for _, remove := range removals {
			remove()
		}
	}
	a.monitored = map[Input][]func(){}
	a.autoIdentify = false
}

func (a *Agent) refreshMonitoredInputs() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refreshMonitoredInputsLocked()
}

// refreshMonitoredInputsLocked discards inputs no longer attached and
// starts monitoring new candidates. Callers hold a.mu.
func (a *Agent) refreshMonitoredInputsLocked() {
	if !a.autoIdentify {
		return
	}

	for input, removals := range a.monitored {
		if !input.Connected() {
			for _, remove := range removals {
				remove()
			}
			delete(a.monitored, input)
		}
	}

	for _, input := range a.host.Inputs() {
		if _, ok := a.monitored[input]; ok {
			continue
		}
		if !isCandidateIdentityInput(input) {
			continue
		}

		input := input
		removeBlur := input.AddBlurListener(func() {
			a.guard("handleInputBlur", func() { a.handleInputValue(input) })
		})
		removeKey := input.AddKeyListener(func(key string) {
			if key != "Enter" {
				return
			}
			a.guard("handleInputKeydown", func() { a.handleInputValue(input) })
		})
		a.monitored[input] = []func(){removeBlur, removeKey}
	}
}

func (a *Agent) handleInputValue(input Input) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.autoIdentify {
		return
	}
	a.maybeIdentifyEmailLocked(input.Value(), nil, nil)
}

// maybeIdentifyEmailLocked validates email and, when it has not already
// been reported by this agent instance, logs an identify event and
// records it. Invalid emails are a silent no-op. Callers hold a.mu.
func (a *Agent) maybeIdentifyEmailLocked(email string, person *activity.Person, company *activity.Company) {
	if !a.autoIdentify || email == "" {
		return
	}
	if !activity.ValidateEmail(email) {
		return
	}
	if _, done := a.submitted[email]; done {
		return
	}

	activity.Send(a.ctx, activity.Identify{Email: email, Person: person, Company: company})
	a.submitted[email] = struct{}{}
}

// StartAutoTrack arms click tracking. A non-nil options replaces the
// agent's auto-track options; nil re-uses the previous ones.
func (a *Agent) StartAutoTrack(options *AutoTrackOptions) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if options != nil {
		a.trackOptions = *options
	}

	if a.trackingClicks {
		return
	}
	a.removeClick = a.host.AddClickListener(func(target Element) {
		a.guard("handleClick", func() { a.handleClick(target) })
	})
	a.trackingClicks = true
}

// StopAutoTrack removes the delegated click listener.
func (a *Agent) StopAutoTrack() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.trackingClicks {
		return
	}
	a.removeClick()
	a.removeClick = nil
	a.trackingClicks = false
}

func (a *Agent) subscribeToMessages() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.subscribed {
		return
	}
	a.removeMessage = a.host.AddMessageListener(func(msg Message) {
		a.guard("handleThirdPartyMessage", func() { a.handleMessage(msg) })
	})
	a.subscribed = true
}

func (a *Agent) unsubscribeFromMessages() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.subscribed {
		return
	}
	a.removeMessage()
	a.removeMessage = nil
	a.subscribed = false
}

// handleMessage dispatches a third-party message by origin. Unknown
// origins are ignored.
func (a *Agent) handleMessage(msg Message) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch msg.Origin {
	case DefaultFormsOrigin, DefaultSchedulerOrigin:
		a.handleDefaultMessageLocked(msg)
	case NavatticOrigin:
		a.handleNavatticMessageLocked(msg)
	}
}

// guard runs fn, converting any panic into a logged, swallowed error.
// The host page must never observe a failure of this agent.
func (a *Agent) guard(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("recovered from handler failure", "handler", name, "error", r)
		}
	}()
	fn()
}

func isCandidateIdentityInput(input Input) bool {
	kind := input.Kind()
	return kind == "email" || kind == "text"
}
