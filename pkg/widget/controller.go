// Package widget implements the client-side glue around the hosted chat widget:
// it requests a session secret from the broker, watches for the widget script to
// signal readiness, and tracks three independent error slots so that one failure
// never masks or clears another.
package widget

import (
	"context"
	"sync"
	"time"
)

// DefaultScriptTimeout bounds how long the controller waits for the widget script
// to acknowledge loading before the script error slot fires.
const DefaultScriptTimeout = 5 * time.Second

// SessionFunc requests a fresh client secret from the session broker.
type SessionFunc func(ctx context.Context) (string, error)

// State is a snapshot of the controller. An empty string means the slot is clear;
// the three error slots are independent and each is cleared only by its own
// recovery path or by Reset.
type State struct {
	ClientSecret     string
	ScriptError      string
	SessionError     string
	IntegrationError string
}

// Controller drives the widget lifecycle. All methods are safe for concurrent use.
type Controller struct {
	mu          sync.Mutex
	source      SessionFunc
	timeout     time.Duration
	state       State
	subs        map[int]func(State)
	nextSub     int
	epoch       int
	watchdog    *time.Timer
	scriptReady bool
}

// Option adjusts controller construction.
type Option func(*Controller)

// WithScriptTimeout overrides the script readiness window.
func WithScriptTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

// New creates a controller that obtains secrets through source.
func New(source SessionFunc, opts ...Option) *Controller {
	c := &Controller{
		source:  source,
		timeout: DefaultScriptTimeout,
		subs:    make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start arms the script watchdog and requests a session. The session request runs
// in the background; subscribers observe the result.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	epoch := c.epoch
	c.armWatchdogLocked(epoch)
	c.mu.Unlock()

	go c.requestSession(ctx, epoch)
}

// Reset discards all three error slots and the current secret, remounts the
// watchdog, and requests a new session. Results from requests issued before the
// reset are discarded when they arrive; the requests themselves are not cancelled.
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.state = State{}
	c.scriptReady = false
	c.armWatchdogLocked(epoch)
	subs, state := c.snapshotLocked()
	c.mu.Unlock()

	notify(subs, state)
	go c.requestSession(ctx, epoch)
}

// ScriptReady records that the widget script signalled load. Clears the script
// error slot if the signal arrived after the watchdog fired.
func (c *Controller) ScriptReady() {
	c.mu.Lock()
	c.scriptReady = true
	if c.watchdog != nil {
		c.watchdog.Stop()
		c.watchdog = nil
	}
	changed := c.state.ScriptError != ""
	c.state.ScriptError = ""
	subs, state := c.snapshotLocked()
	c.mu.Unlock()

	if changed {
		notify(subs, state)
	}
}

// ReportIntegrationError records a runtime error reported by the widget itself.
func (c *Controller) ReportIntegrationError(msg string) {
	c.mu.Lock()
	c.state.IntegrationError = msg
	subs, state := c.snapshotLocked()
	c.mu.Unlock()

	notify(subs, state)
}

// Subscribe registers fn for state snapshots; the returned function unsubscribes.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) armWatchdogLocked(epoch int) {
	if c.watchdog != nil {
		c.watchdog.Stop()
	}
	c.watchdog = time.AfterFunc(c.timeout, func() {
		c.scriptTimedOut(epoch)
	})
}

func (c *Controller) scriptTimedOut(epoch int) {
	c.mu.Lock()
	if epoch != c.epoch || c.scriptReady || c.state.ScriptError != "" {
		c.mu.Unlock()
		return
	}
	c.state.ScriptError = "widget script did not load in time"
	subs, state := c.snapshotLocked()
	c.mu.Unlock()

	notify(subs, state)
}

func (c *Controller) requestSession(ctx context.Context, epoch int) {
	secret, err := c.source(ctx)

	c.mu.Lock()
	if epoch != c.epoch {
		// A reset happened while this request was in flight.
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.state.SessionError = err.Error()
	} else {
		c.state.ClientSecret = secret
		c.state.SessionError = ""
	}
	subs, state := c.snapshotLocked()
	c.mu.Unlock()

	notify(subs, state)
}

func (c *Controller) snapshotLocked() ([]func(State), State) {
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return subs, c.state
}

// notify runs outside the controller lock so subscribers may call back in.
func notify(subs []func(State), state State) {
	for _, fn := range subs {
		fn(state)
	}
}
