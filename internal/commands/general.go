package commands

import (
	"context"

	"github.com/rbright/hark/internal/automation"
	"github.com/rbright/hark/internal/launcher"
)

// AppController opens, closes, and switches applications.
type AppController interface {
	Open(ctx context.Context, name string) launcher.Result
	Close(ctx context.Context, name string) launcher.Result
	Switch(ctx context.Context, name string) launcher.Result
}

// HelpFunc renders help text for the current context.
type HelpFunc func(Env) string

// General builds the OS-level table. Extra entries (user custom commands)
// are appended after the built-ins.
func General(apps AppController, exec automation.Executor, help HelpFunc, extra ...Entry) *Table {
	open := appHandler(apps, AppController.Open)
	closeApp := appHandler(apps, AppController.Close)
	switchApp := appHandler(apps, AppController.Switch)

	minimize := scripted(exec,
		fixed(automation.Tell("System Events", automation.KeystrokeLine(automation.Quote("m"), automation.Command))),
		fixed("Minimized window"), "minimize window")
	maximize := scripted(exec,
		fixed(automation.Tell("System Events", automation.KeystrokeLine(automation.Quote("f"), automation.Command, automation.Control))),
		fixed("Maximized window"), "maximize window")

	showHelp := func(_ context.Context, req Request) Result {
		if help == nil {
			return Result{OK: true, Message: "Say a command like 'open Safari'"}
		}
		return Result{OK: true, Message: help(req.Env)}
	}

	entries := []Entry{
		{Trigger: "open", Mode: Prefix, Handler: open, Category: "apps", Example: "open [app name]"},
		{Trigger: "launch", Mode: Prefix, Handler: open, Category: "apps", Example: "launch [app name]"},
		{Trigger: "start", Mode: Prefix, Handler: open, Category: "apps", Example: "start [app name]"},
		{Trigger: "close", Mode: Prefix, Handler: closeApp, Category: "apps", Example: "close [app name]"},
		{Trigger: "quit", Mode: Prefix, Handler: closeApp, Category: "apps", Example: "quit [app name]"},
		{Trigger: "switch to", Mode: Prefix, Handler: switchApp, Category: "apps", Example: "switch to [app name]"},
		{Trigger: "go to app", Mode: Prefix, Handler: switchApp, Category: "apps", Example: "go to app [app name]"},
		{Trigger: "minimize window", Mode: Exact, Handler: minimize, Category: "window"},
		{Trigger: "minimize", Mode: Exact, Handler: minimize, Category: "window"},
		{Trigger: "maximize window", Mode: Exact, Handler: maximize, Category: "window"},
		{Trigger: "maximize", Mode: Exact, Handler: maximize, Category: "window"},
		{Trigger: "full screen", Mode: Exact, Handler: maximize, Category: "window"},
		{Trigger: "help", Mode: Exact, Handler: showHelp, Category: "help", Example: "show help"},
		{Trigger: "show help", Mode: Exact, Handler: showHelp, Category: "help"},
		{Trigger: "what can i say", Mode: Exact, Handler: showHelp, Category: "help"},
	}
	entries = append(entries, extra...)
	return NewTable("general", ScopeGeneral, entries...)
}

func appHandler(apps AppController, action func(AppController, context.Context, string) launcher.Result) Handler {
	return func(ctx context.Context, req Request) Result {
		if apps == nil {
			return Result{Message: "Application control is not available"}
		}
		res := action(apps, ctx, req.Param)
		return Result{OK: res.OK, Message: res.Message, Suggestions: res.Suggestions}
	}
}
