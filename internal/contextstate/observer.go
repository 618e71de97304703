package contextstate

import (
	"context"
	"errors"

	"github.com/rbright/hark/internal/automation"
)

// ScriptObserver implements both observers through an automation executor.
type ScriptObserver struct {
	Executor automation.Executor
}

// FrontmostApp asks System Events for the frontmost process name.
func (o ScriptObserver) FrontmostApp(ctx context.Context) (string, error) {
	if o.Executor == nil {
		return "", errors.New("no automation executor configured")
	}
	return o.Executor.Execute(ctx, automation.FrontmostAppScript)
}

// CurrentURL reads the focused tab URL from browser's scripting dictionary.
func (o ScriptObserver) CurrentURL(ctx context.Context, browser string) (string, error) {
	if o.Executor == nil {
		return "", errors.New("no automation executor configured")
	}
	script, ok := automation.CurrentURLScript(browser)
	if !ok {
		return "", ErrUnsupportedBrowser
	}
	return o.Executor.Execute(ctx, script)
}
