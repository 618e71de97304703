package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rbright/hark/internal/alias"
	"github.com/rbright/hark/internal/cli"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/contextstate"
	"github.com/rbright/hark/internal/events"
	"github.com/rbright/hark/internal/indicator"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/router"
	"github.com/rbright/hark/internal/session"
)

// commandListen owns the session: it binds the IPC socket, starts the context
// pollers, and routes utterances until the recognizer ends or stop arrives.
func (r Runner) commandListen(ctx context.Context, parsed cli.Parsed, loaded config.Loaded, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	lease, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{ProbeTimeout: 180 * time.Millisecond, Retries: 8})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		if closeErr := lease.Close(); closeErr != nil {
			logger.Warn("release socket", "path", lease.Path(), "error", closeErr.Error())
		}
	}()

	input, closeInput, err := r.listenInput(parsed.Input)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer closeInput()

	cfg := loaded.Config
	rt, err := buildRuntime(loaded, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer rt.Close()
	rt.router.SetTyping(parsed.Typing)
	rt.router.SetCommandMode(parsed.CommandMode)

	bus := events.NewBus()
	defer bus.Close()
	detach := events.Attach(bus, rt.router, rt.tracker)
	defer detach()

	notifier := indicator.New(cfg.Indicator, rt.exec, logger)
	controller := session.NewController(logger, session.Deps{
		Router:      rt.router,
		Context:     rt.tracker,
		Suggester:   rt.suggest,
		Aliases:     persistentAliases{path: rt.aliasPath, resolver: rt.resolver},
		Cache:       rt.launcher,
		Publisher:   bus,
		Indicator:   notifier,
		StopTimeout: millis(cfg.Context.StopTimeoutMS),
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, groupCtx := errgroup.WithContext(runCtx)

	poller := contextstate.NewPoller(logger, rt.tracker, rt.observer, rt.observer, rt.pollerOptions())
	if err := poller.Start(groupCtx); err != nil {
		fmt.Fprintf(r.Stderr, "error: start context poller: %v\n", err)
		return 1
	}
	defer func() {
		if stopErr := poller.Stop(); stopErr != nil {
			logger.Warn("context poller stop", "error", stopErr.Error())
		}
	}()

	if cfg.Aliases.Watch {
		watcher := alias.NewWatcher(rt.aliasPath, logger, rt.reloadAliases)
		if err := watcher.Start(groupCtx); err != nil {
			logger.Warn("alias watcher disabled", "path", rt.aliasPath, "error", err.Error())
		} else {
			defer watcher.Stop()
		}
	}

	group.Go(func() error {
		if err := ipc.Serve(groupCtx, lease, controller); err != nil {
			return fmt.Errorf("ipc server: %w", err)
		}
		return nil
	})

	if addr := strings.TrimSpace(cfg.Events.Listen); addr != "" && !parsed.NoEvents {
		hub := events.NewHub(logger, bus, events.HubOptions{})
		group.Go(func() error { return events.Serve(groupCtx, addr, hub) })
		logger.Info("event feed listening", "addr", addr)
	}

	stopOutcomes := r.watchOutcomes(groupCtx, bus, notifier)

	summary := controller.Run(groupCtx, session.NewLineReader(groupCtx, input))
	cancel()
	stopOutcomes()
	groupErr := group.Wait()

	if dropped := bus.Dropped(); dropped > 0 {
		logger.Warn("event subscribers fell behind", "dropped", dropped)
	}
	logSessionSummary(logger, summary)

	if groupErr != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", groupErr)
		return 1
	}
	if summary.Err != nil && !errors.Is(summary.Err, context.Canceled) {
		fmt.Fprintf(r.Stderr, "error: %v\n", summary.Err)
		return 1
	}
	fmt.Fprintf(r.Stdout, "processed %d utterances\n", summary.Processed)
	return 0
}

func (r Runner) listenInput(path string) (io.Reader, func(), error) {
	if strings.TrimSpace(path) != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open input: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	}
	if r.Stdin != nil {
		return r.Stdin, func() {}, nil
	}
	return os.Stdin, func() {}, nil
}

// watchOutcomes prints outcomes and forwards them to the notifier from two
// subscriptions, so a slow notification never holds up the printed feed. The
// returned stop closes both and waits until everything queued was handled.
func (r Runner) watchOutcomes(ctx context.Context, bus *events.Bus, notifier indicator.Controller) (stop func()) {
	printed, unsubscribePrinted := bus.Subscribe(0)
	notified, unsubscribeNotified := bus.Subscribe(0)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		rn := newRenderer(r.Stdout)
		for ev := range printed {
			if out, ok := outcomeOf(ev); ok {
				rn.outcome(r.Stdout, out)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for ev := range notified {
			if out, ok := outcomeOf(ev); ok {
				notifier.ShowOutcome(ctx, out)
			}
		}
	}()

	return func() {
		unsubscribePrinted()
		unsubscribeNotified()
		wg.Wait()
	}
}

func outcomeOf(ev events.Event) (router.Outcome, bool) {
	if ev.Type != events.TypeOutcome || ev.Outcome == nil {
		return router.Outcome{}, false
	}
	return *ev.Outcome, true
}

func logSessionSummary(logger *slog.Logger, summary session.Summary) {
	if logger == nil {
		return
	}
	fields := []any{
		"processed", summary.Processed,
		"started_at", summary.StartedAt.Format(time.RFC3339Nano),
		"stopped_at", summary.StoppedAt.Format(time.RFC3339Nano),
		"duration_ms", summary.StoppedAt.Sub(summary.StartedAt).Milliseconds(),
	}

	if summary.Err != nil {
		logger.Error("session failed", append(fields, "error", summary.Err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}
