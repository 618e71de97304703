package commands

import (
	"context"
	"fmt"

	"github.com/rbright/hark/internal/automation"
)

// scripted builds a handler that runs one script through the executor.
// A failure reads "Failed to <what>: <raw error>".
func scripted(exec automation.Executor, build func(Request) string, done func(Request) string, what string) Handler {
	return func(ctx context.Context, req Request) Result {
		return run(ctx, exec, build(req), done(req), what)
	}
}

func run(ctx context.Context, exec automation.Executor, script string, done string, what string) Result {
	if exec == nil {
		return Result{Message: "Automation is not available"}
	}
	if _, err := exec.Execute(ctx, script); err != nil {
		return Failed(what, err)
	}
	return Result{OK: true, Message: done}
}

// Failed renders the standard failure message.
func Failed(what string, err error) Result {
	return Result{Message: fmt.Sprintf("Failed to %s: %v", what, err)}
}

func fixed(s string) func(Request) string {
	return func(Request) string { return s }
}
