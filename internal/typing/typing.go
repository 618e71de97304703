// Package typing delivers dictated text to the focused application.
package typing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rbright/hark/internal/automation"
)

// Backend selects how text reaches the focused application.
type Backend string

const (
	BackendKeystroke Backend = "keystroke"
	BackendPaste     Backend = "paste"
)

// keyReturn is the virtual key code for Return.
const keyReturn = 36

// Sink types text and undoes the last edit.
type Sink interface {
	Type(ctx context.Context, text string) error
	Undo(ctx context.Context) error
}

// Config selects and tunes the backend.
type Config struct {
	Backend       Backend
	ClipboardArgv []string
	PasteShortcut string
}

// New returns the configured backend.
func New(cfg Config, exec automation.Executor, logger *slog.Logger) (Sink, error) {
	if exec == nil {
		return nil, fmt.Errorf("typing requires an automation executor")
	}
	switch cfg.Backend {
	case "", BackendKeystroke:
		return &Keystroke{exec: exec}, nil
	case BackendPaste:
		return NewPaste(exec, cfg.ClipboardArgv, cfg.PasteShortcut, logger)
	default:
		return nil, fmt.Errorf("unknown typing backend %q", cfg.Backend)
	}
}

// Keystroke types through System Events, one keystroke statement per line.
type Keystroke struct {
	exec automation.Executor
}

func NewKeystroke(exec automation.Executor) *Keystroke {
	return &Keystroke{exec: exec}
}

func (k *Keystroke) Type(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if _, err := k.exec.Execute(ctx, KeystrokeScript(text)); err != nil {
		return fmt.Errorf("type text: %w", err)
	}
	return nil
}

func (k *Keystroke) Undo(ctx context.Context) error {
	return undo(ctx, k.exec)
}

// KeystrokeScript renders text as keystrokes, pressing Return for each newline.
func KeystrokeScript(text string) string {
	lines := strings.Split(text, "\n")
	body := make([]string, 0, len(lines)*2)
	for i, line := range lines {
		if i > 0 {
			body = append(body, fmt.Sprintf("key code %d", keyReturn))
		}
		if line != "" {
			body = append(body, automation.KeystrokeLine(automation.Quote(line)))
		}
	}
	return automation.Tell("System Events", body...)
}

func undo(ctx context.Context, exec automation.Executor) error {
	script := automation.Tell("System Events", automation.KeystrokeLine(automation.Quote("z"), automation.Command))
	if _, err := exec.Execute(ctx, script); err != nil {
		return fmt.Errorf("undo: %w", err)
	}
	return nil
}
