package typing

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/hark/internal/automation"
)

// DefaultPasteShortcut is the macOS paste chord.
const DefaultPasteShortcut = "cmd+v"

var modifierNames = map[string]automation.Modifier{
	"cmd":     automation.Command,
	"command": automation.Command,
	"shift":   automation.Shift,
	"opt":     automation.Option,
	"option":  automation.Option,
	"alt":     automation.Option,
	"ctrl":    automation.Control,
	"control": automation.Control,
}

// Paste sets the clipboard and sends the paste shortcut. Long dictation
// lands at once instead of character by character.
type Paste struct {
	exec      automation.Executor
	clipboard []string
	key       string
	mods      []automation.Modifier
	logger    *slog.Logger
}

// NewPaste validates the shortcut; an empty clipboard argv uses pbcopy.
func NewPaste(exec automation.Executor, clipboardArgv []string, shortcut string, logger *slog.Logger) (*Paste, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(clipboardArgv) == 0 {
		clipboardArgv = []string{"pbcopy"}
	}
	if strings.TrimSpace(shortcut) == "" {
		shortcut = DefaultPasteShortcut
	}
	key, mods, err := ParseShortcut(shortcut)
	if err != nil {
		return nil, err
	}
	return &Paste{exec: exec, clipboard: clipboardArgv, key: key, mods: mods, logger: logger}, nil
}

func (p *Paste) Type(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	clipboardCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := runCommandWithInput(clipboardCtx, p.clipboard, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	script := automation.Tell("System Events", automation.KeystrokeLine(automation.Quote(p.key), p.mods...))
	if _, err := p.exec.Execute(ctx, script); err != nil {
		p.logger.Error("paste dispatch failed; clipboard remains set", "error", err.Error())
		return fmt.Errorf("paste text: %w", err)
	}
	return nil
}

func (p *Paste) Undo(ctx context.Context) error {
	return undo(ctx, p.exec)
}

// ParseShortcut splits "cmd+shift+v" into the key and its modifiers.
func ParseShortcut(shortcut string) (string, []automation.Modifier, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(shortcut)), "+")
	key := strings.TrimSpace(parts[len(parts)-1])
	if key == "" {
		return "", nil, fmt.Errorf("paste shortcut %q has no key", shortcut)
	}

	mods := make([]automation.Modifier, 0, len(parts)-1)
	for _, raw := range parts[:len(parts)-1] {
		mod, ok := modifierNames[strings.TrimSpace(raw)]
		if !ok {
			return "", nil, fmt.Errorf("paste shortcut %q: unknown modifier %q", shortcut, raw)
		}
		mods = append(mods, mod)
	}
	return key, mods, nil
}

// runCommandWithInput executes argv and writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if _, err := stdin.Write([]byte(input)); err != nil {
		_ = stdin.Close()
		_ = cmd.Wait()
		return fmt.Errorf("write stdin for %s: %w", argv[0], err)
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
