// Package session owns the listening loop: it feeds recognizer utterances to
// the router one at a time and serves IPC commands for the running owner.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/hark/internal/contextstate"
	"github.com/rbright/hark/internal/events"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/router"
)

var (
	// ErrAlreadyRunning is returned when Run is called on an active controller.
	ErrAlreadyRunning = errors.New("session already running")
	// ErrNotRunning is returned when stopping a controller that never started.
	ErrNotRunning = errors.New("session not running")
	// ErrStopTimeout reports that the loop did not exit inside the stop bound.
	ErrStopTimeout = errors.New("session stop timed out")
)

const defaultStopTimeout = 2 * time.Second

// State is the listening lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateStopping  State = "stopping"
	StateStopped   State = "stopped"
)

// Router is the session-facing subset of the command router.
type Router interface {
	Process(ctx context.Context, utterance string) router.Outcome
	SetTyping(on bool)
	SetCommandMode(on bool)
	Mode() router.Mode
}

// ContextSource supplies the current application context.
type ContextSource interface {
	Snapshot() contextstate.Context
}

// Suggester completes partial utterances.
type Suggester interface {
	Suggest(partial string, c contextstate.Context, limit int) []string
}

// AliasStore resolves and records user aliases.
type AliasStore interface {
	Resolve(name string) string
	Add(alias string, target string) error
}

// CacheClearer drops cached application inventory.
type CacheClearer interface {
	ClearCache()
}

// Publisher receives partial and recognizer-state events.
type Publisher interface {
	Publish(events.Event)
}

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowListening(context.Context)
	ShowStopped(context.Context)
	ShowError(context.Context, string)
}

// noopIndicator preserves session flow when no indicator is wired.
type noopIndicator struct{}

func (noopIndicator) ShowListening(context.Context)     {}
func (noopIndicator) ShowStopped(context.Context)       {}
func (noopIndicator) ShowError(context.Context, string) {}

// Deps are the controller's collaborators. Router and Context are required.
type Deps struct {
	Router      Router
	Context     ContextSource
	Suggester   Suggester
	Aliases     AliasStore
	Cache       CacheClearer
	Publisher   Publisher
	Indicator   Indicator
	StopTimeout time.Duration
}

type processRequest struct {
	text  string
	reply chan router.Outcome
}

// Summary describes one completed Run.
type Summary struct {
	Processed int
	StartedAt time.Time
	StoppedAt time.Time
	Err       error
}

// Controller serializes utterance routing onto a single loop goroutine.
type Controller struct {
	logger *slog.Logger
	deps   Deps

	mu        sync.RWMutex
	state     State
	lastLevel float64
	recState  string

	requests chan processRequest
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(logger *slog.Logger, deps Deps) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if deps.Indicator == nil {
		deps.Indicator = noopIndicator{}
	}
	if deps.StopTimeout <= 0 {
		deps.StopTimeout = defaultStopTimeout
	}
	return &Controller{
		logger:   logger,
		deps:     deps,
		state:    StateIdle,
		requests: make(chan processRequest),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run consumes rec until its channel closes, ctx ends, or Stop is called.
// A controller runs at most once.
func (c *Controller) Run(ctx context.Context, rec Recognizer) Summary {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return Summary{Err: ErrAlreadyRunning}
	}
	c.state = StateListening
	c.mu.Unlock()

	summary := Summary{StartedAt: time.Now()}
	defer func() {
		c.setState(StateStopped)
		close(c.done)
		summary.StoppedAt = time.Now()

		cleanupCtx, cancel := context.WithTimeout(context.Background(), c.deps.StopTimeout)
		defer cancel()
		c.deps.Indicator.ShowStopped(cleanupCtx)
	}()

	c.logger.Info("session listening")
	c.deps.Indicator.ShowListening(ctx)
	c.publishState(string(StateListening))

	utterances := rec.Utterances()
	for {
		select {
		case <-ctx.Done():
			summary.Err = ctx.Err()
			c.logger.Info("session cancelled", "processed", summary.Processed)
			return summary
		case <-c.stopCh:
			c.logger.Info("session stopped", "processed", summary.Processed)
			return summary
		case req := <-c.requests:
			req.reply <- c.route(ctx, req.text)
			summary.Processed++
		case u, ok := <-utterances:
			if !ok {
				if f, isFailer := rec.(failer); isFailer && f.Err() != nil {
					summary.Err = f.Err()
					c.logger.Error("recognizer failed", "processed", summary.Processed, "error", summary.Err.Error())
					return summary
				}
				c.logger.Info("recognizer closed", "processed", summary.Processed)
				return summary
			}
			if c.consume(ctx, u) {
				summary.Processed++
			}
		}
	}
}

// consume handles one recognizer event and reports whether it was routed.
func (c *Controller) consume(ctx context.Context, u Utterance) bool {
	switch u.Kind {
	case UtteranceFinal:
		if strings.TrimSpace(u.Text) == "" {
			return false
		}
		c.route(ctx, u.Text)
		return true
	case UtterancePartial:
		c.publish(events.Event{Type: events.TypePartial, At: time.Now(), Partial: u.Text})
	case UtteranceLevel:
		c.mu.Lock()
		c.lastLevel = u.Level
		c.mu.Unlock()
	case UtteranceState:
		c.mu.Lock()
		c.recState = u.State
		c.mu.Unlock()
		c.publishState(u.State)
	default:
		c.logger.Warn("unknown utterance kind", "kind", string(u.Kind))
	}
	return false
}

func (c *Controller) route(ctx context.Context, text string) router.Outcome {
	return c.deps.Router.Process(ctx, text)
}

// Stop ends the loop and waits a bounded time for it to exit. Repeated calls
// are safe.
func (c *Controller) Stop() error {
	state := c.State()
	if state == StateIdle {
		return ErrNotRunning
	}
	c.signalStop()

	select {
	case <-c.done:
		return nil
	case <-time.After(c.deps.StopTimeout):
		return ErrStopTimeout
	}
}

func (c *Controller) signalStop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		if c.state == StateListening {
			c.state = StateStopping
		}
		c.mu.Unlock()
		close(c.stopCh)
	})
}

// Done closes when Run returns.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Process routes text on the loop goroutine, so it is ordered with
// recognizer utterances.
func (c *Controller) Process(ctx context.Context, text string) (router.Outcome, error) {
	if c.State() != StateListening {
		return router.Outcome{}, ErrNotRunning
	}
	req := processRequest{text: text, reply: make(chan router.Outcome, 1)}
	select {
	case c.requests <- req:
	case <-c.done:
		return router.Outcome{}, ErrNotRunning
	case <-ctx.Done():
		return router.Outcome{}, ctx.Err()
	}
	select {
	case out := <-req.reply:
		return out, nil
	case <-ctx.Done():
		return router.Outcome{}, ctx.Err()
	}
}

// Handle serves IPC commands for the active owner session.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	state := string(c.State())
	switch req.Command {
	case ipc.CommandPing:
		return ipc.Response{OK: true, State: state}
	case ipc.CommandStatus:
		mode := c.deps.Router.Mode()
		snap := c.deps.Context.Snapshot()
		return ipc.Response{OK: true, State: state, Message: c.statusMessage(), Mode: &mode, Context: &snap}
	case ipc.CommandContext:
		snap := c.deps.Context.Snapshot()
		return ipc.Response{OK: true, State: state, Message: snap.String(), Context: &snap}
	case ipc.CommandProcess:
		out, err := c.Process(ctx, req.Text)
		if err != nil {
			return ipc.Response{OK: false, State: state, Error: fmt.Sprintf("process: %v", err)}
		}
		resp := ipc.Response{OK: true, State: state, Message: out.Message, Outcome: &out}
		if out.Kind == router.KindFailed {
			resp.OK = false
			resp.Error = out.Message
		}
		return resp
	case ipc.CommandSuggest:
		if c.deps.Suggester == nil {
			return ipc.Response{OK: false, State: state, Error: "suggestions unavailable"}
		}
		list := c.deps.Suggester.Suggest(req.Text, c.deps.Context.Snapshot(), req.Limit)
		return ipc.Response{OK: true, State: state, Suggestions: list}
	case ipc.CommandTyping:
		return c.toggle(state, req.Enabled, c.deps.Router.Mode().Typing, c.deps.Router.SetTyping, "typing")
	case ipc.CommandMode:
		return c.toggle(state, req.Enabled, c.deps.Router.Mode().Command, c.deps.Router.SetCommandMode, "command mode")
	case ipc.CommandAlias:
		return c.handleAlias(state, req)
	case ipc.CommandClearCache:
		if c.deps.Cache != nil {
			c.deps.Cache.ClearCache()
		}
		return ipc.Response{OK: true, State: state, Message: "Cache cleared"}
	case ipc.CommandStop:
		if state == string(StateIdle) {
			return ipc.Response{OK: false, State: state, Error: ErrNotRunning.Error()}
		}
		c.signalStop()
		return ipc.Response{OK: true, State: string(c.State()), Message: "stop requested"}
	default:
		return ipc.Response{OK: false, State: state, Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

func (c *Controller) toggle(state string, enabled *bool, current bool, set func(bool), label string) ipc.Response {
	next := !current
	if enabled != nil {
		next = *enabled
	}
	set(next)
	mode := c.deps.Router.Mode()
	word := "off"
	if next {
		word = "on"
	}
	c.logger.Info("mode changed", "mode", label, "enabled", next)
	return ipc.Response{OK: true, State: state, Message: fmt.Sprintf("%s %s", label, word), Mode: &mode}
}

func (c *Controller) handleAlias(state string, req ipc.Request) ipc.Response {
	if c.deps.Aliases == nil {
		return ipc.Response{OK: false, State: state, Error: "aliases unavailable"}
	}
	name := strings.TrimSpace(req.Alias)
	if name == "" {
		return ipc.Response{OK: false, State: state, Error: "alias name is required"}
	}
	if strings.TrimSpace(req.Target) == "" {
		return ipc.Response{OK: true, State: state, Message: c.deps.Aliases.Resolve(name)}
	}
	if err := c.deps.Aliases.Add(name, req.Target); err != nil {
		return ipc.Response{OK: false, State: state, Error: fmt.Sprintf("add alias: %v", err)}
	}
	return ipc.Response{OK: true, State: state, Message: fmt.Sprintf("Added alias %s → %s", name, strings.TrimSpace(req.Target))}
}

func (c *Controller) statusMessage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.recState == "" {
		return string(c.state)
	}
	return fmt.Sprintf("%s (recognizer %s, level %.2f)", c.state, c.recState, c.lastLevel)
}

func (c *Controller) publishState(s string) {
	c.publish(events.Event{Type: events.TypeState, At: time.Now(), State: s})
}

func (c *Controller) publish(ev events.Event) {
	if c.deps.Publisher != nil {
		c.deps.Publisher.Publish(ev)
	}
}
