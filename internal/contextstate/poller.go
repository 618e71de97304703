package contextstate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rbright/hark/internal/automation"
	"github.com/rbright/hark/internal/fsm"
)

// ErrStopTimeout reports pollers that did not exit inside the stop budget.
var ErrStopTimeout = errors.New("context pollers did not stop in time")

// ErrUnsupportedBrowser is returned by URL observers for browsers without a tab dictionary.
var ErrUnsupportedBrowser = errors.New("browser does not expose the current URL")

// WindowObserver reports the frontmost application.
type WindowObserver interface {
	FrontmostApp(ctx context.Context) (string, error)
}

// URLObserver reports the focused tab URL of browser.
type URLObserver interface {
	CurrentURL(ctx context.Context, browser string) (string, error)
}

// PollerOptions tunes poll cadence and budgets.
type PollerOptions struct {
	WindowInterval time.Duration
	URLInterval    time.Duration
	ProbeTimeout   time.Duration
	StopTimeout    time.Duration
	ErrorInterval  time.Duration
}

func (o PollerOptions) withDefaults() PollerOptions {
	if o.WindowInterval <= 0 {
		o.WindowInterval = 500 * time.Millisecond
	}
	if o.URLInterval <= 0 {
		o.URLInterval = time.Second
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = time.Second
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = 2 * time.Second
	}
	if o.ErrorInterval <= 0 {
		o.ErrorInterval = 30 * time.Second
	}
	return o
}

// Poller drives a Tracker from the window and URL observers.
type Poller struct {
	logger  *slog.Logger
	tracker *Tracker
	window  WindowObserver
	url     URLObserver
	opts    PollerOptions

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
	err     error
}

// NewPoller wires observers to tracker. A nil observer disables its loop.
func NewPoller(logger *slog.Logger, tracker *Tracker, window WindowObserver, url URLObserver, opts PollerOptions) *Poller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Poller{
		logger:  logger,
		tracker: tracker,
		window:  window,
		url:     url,
		opts:    opts.withDefaults(),
	}
}

// Start launches both loops. Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) error {
	if p.tracker == nil {
		return errors.New("context poller requires a tracker")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)
	if p.window != nil {
		group.Go(func() error { return p.windowLoop(groupCtx) })
	}
	if p.url != nil {
		group.Go(func() error { return p.urlLoop(groupCtx) })
	}

	done := make(chan struct{})
	go func() {
		err := group.Wait()
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		close(done)
	}()

	p.cancel = cancel
	p.done = done
	p.running = true
	return nil
}

// Stop cancels both loops and waits at most StopTimeout for in-flight probes.
// It is safe to call repeatedly.
func (p *Poller) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	cancel()
	timer := time.NewTimer(p.opts.StopTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		p.logger.Warn("context pollers did not stop in time", "timeout_ms", p.opts.StopTimeout.Milliseconds())
		return ErrStopTimeout
	}
}

// Done is closed once both loops have exited.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

func (p *Poller) windowLoop(ctx context.Context) error {
	errLog := &rate.Sometimes{First: 1, Interval: p.opts.ErrorInterval}

	ticker := time.NewTicker(p.opts.WindowInterval)
	defer ticker.Stop()
	for {
		if stop := p.pollWindow(ctx, errLog); stop {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// pollWindow runs one probe; it reports true when polling should stop.
func (p *Poller) pollWindow(ctx context.Context, errLog *rate.Sometimes) bool {
	probeCtx, cancel := context.WithTimeout(ctx, p.opts.ProbeTimeout)
	defer cancel()

	app, err := p.window.FrontmostApp(probeCtx)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		if automation.IsPermissionDenied(err) {
			p.logger.Error("accessibility permission needed; window polling stopped",
				"hint", "System Settings > Privacy & Security > Accessibility",
				"error", err.Error(),
			)
			return true
		}
		errLog.Do(func() {
			p.logger.Warn("frontmost app probe failed", "error", err.Error())
		})
		return false
	}
	p.tracker.ObserveApp(app)
	return false
}

func (p *Poller) urlLoop(ctx context.Context) error {
	errLog := &rate.Sometimes{First: 1, Interval: p.opts.ErrorInterval}

	ticker := time.NewTicker(p.opts.URLInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		p.pollURL(ctx, errLog)
	}
}

func (p *Poller) pollURL(ctx context.Context, errLog *rate.Sometimes) {
	snap := p.tracker.Snapshot()
	if snap.Kind == fsm.StateGeneral || snap.Browser == "" {
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.opts.ProbeTimeout)
	defer cancel()

	rawURL, err := p.url.CurrentURL(probeCtx, snap.Browser)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, ErrUnsupportedBrowser) {
			return
		}
		errLog.Do(func() {
			p.logger.Warn("current url probe failed", "browser", snap.Browser, "error", err.Error())
		})
		return
	}
	if current := p.tracker.Snapshot(); current.Browser != snap.Browser {
		return
	}
	p.tracker.ObserveURL(rawURL)
}
