// Package indicator surfaces routing outcomes and session state as macOS notifications.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/hark/internal/automation"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/router"
)

const defaultRunTimeout = 1000 * time.Millisecond

// notice is the fixed notification text.
var notice = struct {
	listening, stopped, genericError, try string
}{
	listening:    "Listening…",
	stopped:      "Stopped listening",
	genericError: "Voice control error",
	try:          "Try:",
}

// Controller is the session-facing indicator contract.
type Controller interface {
	ShowOutcome(context.Context, router.Outcome)
	ShowListening(context.Context)
	ShowStopped(context.Context)
	ShowError(context.Context, string)
}

// Notifier posts `display notification` scripts through an automation executor.
type Notifier struct {
	cfg    config.IndicatorConfig
	exec   automation.Executor
	logger *slog.Logger

	// mu keeps notifications in arrival order.
	mu sync.Mutex
}

// New creates a notifier from config.
func New(cfg config.IndicatorConfig, exec automation.Executor, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Notifier{cfg: cfg, exec: exec, logger: logger}
}

// ShowOutcome notifies failed outcomes, and unmatched ones when enabled.
// Executed outcomes stay silent.
func (n *Notifier) ShowOutcome(ctx context.Context, out router.Outcome) {
	switch out.Kind {
	case router.KindFailed:
		n.post(ctx, out.Message, n.cfg.Sound)
	case router.KindUnmatched:
		if !n.cfg.OnUnmatched {
			return
		}
		text := out.Message
		if len(out.Suggestions) > 0 {
			text += "\n" + notice.try + " " + out.Suggestions[0]
		}
		n.post(ctx, text, "")
	}
}

// ShowListening signals that the session started consuming utterances.
func (n *Notifier) ShowListening(ctx context.Context) {
	n.post(ctx, notice.listening, "")
}

// ShowStopped signals that the session stopped.
func (n *Notifier) ShowStopped(ctx context.Context) {
	n.post(ctx, notice.stopped, "")
}

// ShowError displays an error message, falling back to a generic text.
func (n *Notifier) ShowError(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		text = notice.genericError
	}
	n.post(ctx, text, n.cfg.Sound)
}

func (n *Notifier) post(ctx context.Context, text string, sound string) {
	if !n.cfg.Enable || n.exec == nil || strings.TrimSpace(text) == "" {
		return
	}
	title := strings.TrimSpace(n.cfg.Title)
	if title == "" {
		title = "hark"
	}
	n.run(ctx, func(ctx context.Context) error {
		_, err := n.exec.Execute(ctx, automation.Notification(title, text, sound))
		return err
	})
}

// run executes an indicator operation with a bounded timeout.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	timeout := defaultRunTimeout
	if n.cfg.TimeoutMS > 0 {
		timeout = time.Duration(n.cfg.TimeoutMS) * time.Millisecond
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.logger.Debug("indicator dispatch failed", "error", err.Error())
	}
}
