// Package automation runs AppleScript bodies and application launches through macOS tooling.
package automation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrTimedOut reports a script that did not finish inside its deadline.
var ErrTimedOut = errors.New("command timed out")

const (
	defaultScriptTimeout = 5 * time.Second
	defaultOpenTimeout   = 3 * time.Second
)

// Executor runs one script body and returns its trimmed stdout.
type Executor interface {
	Execute(ctx context.Context, script string) (string, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(context.Context, string) (string, error)

func (f ExecutorFunc) Execute(ctx context.Context, script string) (string, error) {
	return f(ctx, script)
}

// Opener launches an application by name.
type Opener interface {
	OpenApplication(ctx context.Context, name string) error
}

// OSAScript executes scripts with osascript and launches apps with open -a.
type OSAScript struct {
	Binary        string
	OpenBinary    string
	ScriptTimeout time.Duration
	OpenTimeout   time.Duration
}

// Execute runs script via `osascript -e` under a hard timeout.
func (o OSAScript) Execute(ctx context.Context, script string) (string, error) {
	if strings.TrimSpace(script) == "" {
		return "", errors.New("script body must not be empty")
	}
	out, err := runOutput(ctx, timeoutOr(o.ScriptTimeout, defaultScriptTimeout), binaryOr(o.Binary, "osascript"), "-e", script)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// OpenApplication runs `open -a name` under the launch timeout.
func (o OSAScript) OpenApplication(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("application name must not be empty")
	}
	_, err := runOutput(ctx, timeoutOr(o.OpenTimeout, defaultOpenTimeout), binaryOr(o.OpenBinary, "open"), "-a", name)
	return err
}

func runOutput(ctx context.Context, timeout time.Duration, bin string, args ...string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, bin, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = 200 * time.Millisecond
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimedOut
		}
		trimmed := strings.TrimSpace(stderr.String())
		if trimmed == "" {
			trimmed = strings.TrimSpace(string(out))
		}
		if trimmed == "" {
			return nil, fmt.Errorf("%s failed: %w", bin, err)
		}
		return nil, fmt.Errorf("%s failed: %w (%s)", bin, err, trimmed)
	}
	return out, nil
}

func timeoutOr(v time.Duration, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}

func binaryOr(v string, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// IsPermissionDenied reports an Apple Events / accessibility authorization failure.
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not allowed") ||
		strings.Contains(msg, "permission") ||
		strings.Contains(msg, "-1743") ||
		strings.Contains(msg, "-1719")
}
