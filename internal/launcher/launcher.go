// Package launcher opens, closes, and switches applications by spoken name.
package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/rbright/hark/internal/alias"
	"github.com/rbright/hark/internal/automation"
)

// Result is the outcome of one launcher action.
type Result struct {
	OK          bool
	Target      string
	Message     string
	Suggestions []string
}

// Options tunes fuzzy matching.
type Options struct {
	Threshold      float64
	MaxSuggestions int
}

// Launcher resolves spoken names and drives the opener/executor.
type Launcher struct {
	logger    *slog.Logger
	resolver  *alias.Resolver
	opener    automation.Opener
	executor  automation.Executor
	inventory Inventory
	opts      Options

	mu     sync.Mutex
	cache  []string
	cached bool
	gen    uint64
	group  singleflight.Group
}

// New constructs a launcher with safe fallbacks for nil collaborators.
func New(
	logger *slog.Logger,
	resolver *alias.Resolver,
	opener automation.Opener,
	executor automation.Executor,
	inventory Inventory,
	opts Options,
) *Launcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if resolver == nil {
		resolver = alias.Default()
	}
	if inventory == nil {
		inventory = InventoryFunc(func(context.Context) ([]string, error) { return nil, nil })
	}
	if opts.Threshold <= 0 {
		opts.Threshold = alias.DefaultThreshold
	}
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = 3
	}
	return &Launcher{
		logger:    logger,
		resolver:  resolver,
		opener:    opener,
		executor:  executor,
		inventory: inventory,
		opts:      opts,
	}
}

// Open resolves raw and launches it, retrying once with the best installed
// fuzzy match before reporting suggestions.
func (l *Launcher) Open(ctx context.Context, raw string) Result {
	name := alias.Normalize(raw)
	if name == "" {
		return Result{Message: "No application name provided"}
	}
	if l.opener == nil {
		return Result{Message: "Application launching is not available"}
	}

	resolved := l.resolver.Resolve(name)
	err := l.opener.OpenApplication(ctx, resolved)
	if err == nil {
		return Result{OK: true, Target: resolved, Message: "Opened " + resolved}
	}
	l.logger.Debug("open failed", "name", name, "resolved", resolved, "error", err.Error())

	installed, invErr := l.Installed(ctx)
	if invErr != nil {
		l.logger.Warn("list installed applications failed", "error", invErr.Error())
	}
	if match, ok := alias.BestMatch(name, installed, l.opts.Threshold); ok && match != resolved {
		if retryErr := l.opener.OpenApplication(ctx, match); retryErr == nil {
			return Result{OK: true, Target: match, Message: "Opened " + match}
		}
	}

	return Result{
		Target:      resolved,
		Message:     "Could not find application: " + name,
		Suggestions: l.suggestionsFrom(name, installed),
	}
}

// Close asks the resolved application to quit.
func (l *Launcher) Close(ctx context.Context, raw string) Result {
	return l.tell(ctx, raw, "quit", "Closed", "close")
}

// Switch activates the resolved application.
func (l *Launcher) Switch(ctx context.Context, raw string) Result {
	return l.tell(ctx, raw, "activate", "Switched to", "switch to")
}

func (l *Launcher) tell(ctx context.Context, raw string, verb string, done string, action string) Result {
	name := alias.Normalize(raw)
	if name == "" {
		return Result{Message: "No application name provided"}
	}
	if l.executor == nil {
		return Result{Message: "Automation is not available"}
	}

	resolved := l.resolver.Resolve(name)
	if _, err := l.executor.Execute(ctx, automation.Tell(resolved, verb)); err != nil {
		return Result{Target: resolved, Message: fmt.Sprintf("Failed to %s %s: %v", action, resolved, err)}
	}
	return Result{OK: true, Target: resolved, Message: done + " " + resolved}
}

// Suggestions returns up to MaxSuggestions "did you mean" names for raw.
func (l *Launcher) Suggestions(ctx context.Context, raw string) []string {
	name := alias.Normalize(raw)
	if name == "" {
		return nil
	}
	installed, _ := l.Installed(ctx)
	return l.suggestionsFrom(name, installed)
}

// suggestionsFrom prefers alias partial matches, then installed substring matches.
func (l *Launcher) suggestionsFrom(name string, installed []string) []string {
	out := l.resolver.PartialMatches(name)
	if len(out) == 0 {
		for _, app := range installed {
			if strings.Contains(strings.ToLower(app), name) {
				out = append(out, app)
				if len(out) >= l.opts.MaxSuggestions {
					break
				}
			}
		}
	}
	if len(out) > l.opts.MaxSuggestions {
		out = out[:l.opts.MaxSuggestions]
	}
	return out
}

// Installed returns the cached inventory, filling it once on demand.
func (l *Launcher) Installed(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	if l.cached {
		apps := l.cache
		l.mu.Unlock()
		return apps, nil
	}
	gen := l.gen
	l.mu.Unlock()

	v, err, _ := l.group.Do("inventory", func() (any, error) {
		apps, err := l.inventory.List(ctx)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		if l.gen == gen {
			l.cache = apps
			l.cached = true
		}
		l.mu.Unlock()
		return apps, nil
	})
	if err != nil {
		return nil, err
	}
	apps, _ := v.([]string)
	return apps, nil
}

// ClearCache drops the cached inventory so the next lookup rescans.
func (l *Launcher) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = nil
	l.cached = false
	l.gen++
}

// Resolver exposes the alias resolver used by the launcher.
func (l *Launcher) Resolver() *alias.Resolver {
	return l.resolver
}
