// Package intent is the embeddable analytics client: visitor identity,
// sliding sessions, page/identify/track events and the
// auto-instrumentation agent, behind one mountable facade.
package intent

import (
	"sync"

	"github.com/unifygtm/intent-go/intent/activity"
	"github.com/unifygtm/intent-go/intent/agent"
	"github.com/unifygtm/intent-go/intent/identity"
	"github.com/unifygtm/intent-go/intent/session"
	"github.com/unifygtm/intent-go/intent/storage"
	"github.com/unifygtm/intent-go/internal/pkg/logger"
)

// Person and Company re-export the identify attribute types so callers
// only import this package.
type (
	Person  = activity.Person
	Company = activity.Company
)

// IdentifyOptions carries optional attributes alongside an identified
// email.
type IdentifyOptions struct {
	Person  *Person
	Company *Company
}

// Client is the top-level facade. Its lifecycle is one-way: unmounted,
// mounted via Mount, then terminally unmounted via Unmount; a new
// instance is needed to mount again. Every event method is a no-op
// while not mounted.
type Client struct {
	cfg      Config
	host     agent.Host
	registry *Registry
	log      *logger.Logger

	mu        sync.Mutex
	mounted   bool
	unmounted bool
	ctx       *activity.Context
	agent     *agent.Agent
}

// NewClient builds an unmounted client over host. A nil registry gets a
// private one, which opts out of single-instance coordination and call
// deferral.
func NewClient(host agent.Host, registry *Registry, cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Client{
		cfg:      cfg,
		host:     host,
		registry: registry,
		log:      logger.Component("client"),
	}, nil
}

// Mount initializes storage, session and identity, arms the configured
// agent behaviors, publishes the client to the registry and drains any
// calls deferred before mount. Mounting while another client is live on
// the same registry is a logged no-op.
func (c *Client) Mount() {
	c.mu.Lock()

	if c.mounted || c.unmounted {
		c.mu.Unlock()
		c.log.Warn("mount ignored", "reason", "client already mounted or retired")
		return
	}

	queued, ok := c.registry.publish(c)
	if !ok {
		c.mu.Unlock()
		c.log.Warn("mount ignored", "reason", "another client is live on this page")
		return
	}

	jar := c.cfg.CookieJar
	if jar == nil {
		jar = storage.NewMemoryJar()
	}
	cookieStore := storage.New(c.cfg.WriteKey, storage.NewCookieBackend(jar, storage.DefaultCookieTTL))
	localStore := storage.New(c.cfg.WriteKey, storage.NewLocalBackend(c.cfg.LocalStore))

	transport := c.cfg.Transport
	if transport == nil {
		transport = NewHTTPTransport(c.cfg.WriteKey)
	}

	c.ctx = &activity.Context{
		WriteKey:  c.cfg.WriteKey,
		APIBase:   c.cfg.apiBase(),
		Transport: transport,
		Identity:  identity.NewManager(cookieStore),
		Session: session.NewManager(localStore, c.host, session.Options{
			Duration: c.cfg.sessionDuration(),
			Durable:  cookieStore,
		}),
		View: c.host,
	}

	c.agent = agent.New(c.ctx, c.host, agent.Config{
		AutoPage:     c.cfg.autoPage(),
		AutoIdentify: c.cfg.AutoIdentify,
		AutoTrack:    c.cfg.AutoTrack,
	})

	c.mounted = true
	c.mu.Unlock()

	for _, call := range queued {
		dispatch(c, call)
	}
}

// Unmount stops the agent and vacates the registry. The client cannot
// be mounted again.
func (c *Client) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mounted {
		c.agent.Unmount()
		c.registry.clear(c)
	}
	c.mounted = false
	c.unmounted = true
}

// Page logs a page event for the current page. A non-empty pathname
// replaces the current pathname in the logged properties.
func (c *Client) Page(pathname string) {
	if ctx := c.liveContext(); ctx != nil {
		activity.Send(ctx, activity.PageView{Pathname: pathname})
	}
}

// PagePayload returns the composed page payload without sending it, or
// nil when not mounted.
func (c *Client) PagePayload(pathname string) map[string]any {
	ctx := c.liveContext()
	if ctx == nil {
		return nil
	}
	return activity.Payload(ctx, activity.PageView{Pathname: pathname})
}

// Identify logs an identify event for email. It reports false, with no
// event, when email fails validation or the client is not mounted.
func (c *Client) Identify(email string, opts *IdentifyOptions) bool {
	ctx := c.liveContext()
	if ctx == nil || !activity.ValidateEmail(email) {
		return false
	}
	activity.Send(ctx, identifyActivity(email, opts))
	return true
}

// IdentifyPayload returns the composed identify payload without sending
// it, or nil when the email is invalid or the client is not mounted.
func (c *Client) IdentifyPayload(email string, opts *IdentifyOptions) map[string]any {
	ctx := c.liveContext()
	if ctx == nil || !activity.ValidateEmail(email) {
		return nil
	}
	return activity.Payload(ctx, identifyActivity(email, opts))
}

// Track logs a named custom event.
func (c *Client) Track(name string, properties map[string]any) {
	if ctx := c.liveContext(); ctx != nil {
		activity.Send(ctx, activity.Track{Name: name, Properties: properties})
	}
}

// TrackPayload returns the composed track payload without sending it,
// or nil when not mounted.
func (c *Client) TrackPayload(name string, properties map[string]any) map[string]any {
	ctx := c.liveContext()
	if ctx == nil {
		return nil
	}
	return activity.Payload(ctx, activity.Track{Name: name, Properties: properties})
}

// StartAutoPage arms automatic page tracking.
func (c *Client) StartAutoPage() {
	if a := c.liveAgent(); a != nil {
		a.StartAutoPage()
	}
}

// StopAutoPage disarms automatic page tracking.
func (c *Client) StopAutoPage() {
	if a := c.liveAgent(); a != nil {
		a.StopAutoPage()
	}
}

// StartAutoIdentify arms automatic email-input monitoring.
func (c *Client) StartAutoIdentify() {
	if a := c.liveAgent(); a != nil {
		a.StartAutoIdentify()
	}
}

// StopAutoIdentify disarms automatic email-input monitoring.
func (c *Client) StopAutoIdentify() {
	if a := c.liveAgent(); a != nil {
		a.StopAutoIdentify()
	}
}

// StartAutoTrack arms click tracking with the configured options.
func (c *Client) StartAutoTrack() {
	if a := c.liveAgent(); a != nil {
		a.StartAutoTrack(nil)
	}
}

// StopAutoTrack disarms click tracking.
func (c *Client) StopAutoTrack() {
	if a := c.liveAgent(); a != nil {
		a.StopAutoTrack()
	}
}

func (c *Client) liveContext() *activity.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return nil
	}
	return c.ctx
}

func (c *Client) liveAgent() *agent.Agent {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		return nil
	}
	return c.agent
}

func identifyActivity(email string, opts *IdentifyOptions) activity.Identify {
	a := activity.Identify{Email: email}
	if opts != nil {
		a.Person = opts.Person
		a.Company = opts.Company
	}
	return a
}
