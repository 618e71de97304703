// Package app wires the hark command tree to the router, session, and IPC layers.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/rbright/hark/internal/alias"
	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/cli"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/doctor"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/logging"
	"github.com/rbright/hark/internal/router"
	"github.com/rbright/hark/internal/version"
)

const (
	forwardTimeout = 220 * time.Millisecond
	// process waits on the session loop and the automation it triggers.
	processForwardTimeout = 15 * time.Second
)

// Runner executes one CLI invocation against injectable streams.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	// Stdin feeds listen and repl; nil means os.Stdin.
	Stdin  io.Reader
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr, Stdin: os.Stdin}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText())
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, parsed.Help)
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	loaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logRuntime, err := logging.New(loaded.Config.Log)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range loaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", loaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandListen:
		return r.commandListen(ctx, parsed, loaded, logger)
	case cli.CommandProcess:
		return r.commandProcess(ctx, parsed.Text(), loaded, logger)
	case cli.CommandREPL:
		return r.commandREPL(ctx, loaded, logger)
	case cli.CommandSuggest:
		return r.commandSuggest(ctx, parsed, loaded, logger)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandContext:
		return r.commandContext(ctx, loaded, logger)
	case cli.CommandTyping:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandTyping, Enabled: parsed.Enabled})
	case cli.CommandCommandMode:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandMode, Enabled: parsed.Enabled})
	case cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandStop})
	case cli.CommandClearCache:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandClearCache})
	case cli.CommandAliasList:
		return r.commandAliasList(loaded)
	case cli.CommandAliasAdd:
		return r.commandAliasAdd(ctx, parsed.Args, loaded, logger)
	case cli.CommandAliasResolve:
		return r.commandAliasResolve(parsed.Text(), loaded)
	case cli.CommandApps:
		return r.commandApps(ctx, loaded, logger)
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandDoctor:
		report := doctor.Run(ctx, loaded, doctor.Deps{AliasPath: loaded.AliasPath})
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// commandProcess routes one utterance, preferring a running session so the
// tracked context and modes apply.
func (r Runner) commandProcess(ctx context.Context, text string, loaded config.Loaded, logger *slog.Logger) int {
	if socketPath, err := ipc.RuntimeSocketPath(); err == nil {
		resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: ipc.CommandProcess, Text: text})
		if handled {
			if resp.Outcome == nil {
				if err != nil {
					fmt.Fprintf(r.Stderr, "error: %v\n", err)
				}
				return 1
			}
			return r.printOutcome(*resp.Outcome)
		}
	}

	rt, err := buildRuntime(loaded, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer rt.Close()

	rt.observeOnce(ctx)
	return r.printOutcome(rt.router.Process(ctx, text))
}

func (r Runner) printOutcome(out router.Outcome) int {
	newRenderer(r.Stdout).outcome(r.Stdout, out)
	if out.Kind == router.KindFailed {
		return 1
	}
	return 0
}

func (r Runner) commandSuggest(ctx context.Context, parsed cli.Parsed, loaded config.Loaded, logger *slog.Logger) int {
	var suggestions []string
	forwarded := false
	if socketPath, err := ipc.RuntimeSocketPath(); err == nil {
		resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: ipc.CommandSuggest, Text: parsed.Text(), Limit: parsed.Limit})
		if handled {
			if err != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", err)
				return 1
			}
			suggestions = resp.Suggestions
			forwarded = true
		}
	}

	if !forwarded {
		rt, err := buildRuntime(loaded, logger)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		defer rt.Close()
		rt.observeOnce(ctx)
		suggestions = rt.suggest.Suggest(parsed.Text(), rt.tracker.Snapshot(), parsed.Limit)
	}

	for _, s := range suggestions {
		fmt.Fprintln(r.Stdout, s)
	}
	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: ipc.CommandStatus})
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		line := resp.State
		if resp.Message != "" && resp.Message != resp.State {
			line = resp.Message
		}
		if resp.Context != nil {
			line = fmt.Sprintf("%s | context=%s", line, resp.Context.String())
		}
		if resp.Mode != nil {
			line = fmt.Sprintf("%s | typing=%t | command=%t", line, resp.Mode.Typing, resp.Mode.Command)
		}
		fmt.Fprintln(r.Stdout, line)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) commandContext(ctx context.Context, loaded config.Loaded, logger *slog.Logger) int {
	if socketPath, err := ipc.RuntimeSocketPath(); err == nil {
		resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: ipc.CommandContext})
		if handled {
			if err != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", err)
				return 1
			}
			if resp.Context != nil {
				fmt.Fprintln(r.Stdout, resp.Context.String())
				return 0
			}
			fmt.Fprintln(r.Stdout, resp.Message)
			return 0
		}
	}

	rt, err := buildRuntime(loaded, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer rt.Close()
	rt.observeOnce(ctx)
	fmt.Fprintln(r.Stdout, rt.tracker.Snapshot().String())
	return 0
}

func (r Runner) commandAliasList(loaded config.Loaded) int {
	resolver, err := loadResolver(loaded.AliasPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	for _, entry := range resolver.Entries() {
		fmt.Fprintf(r.Stdout, "%-20s %s\n", entry.Alias, entry.Target)
	}
	return 0
}

func (r Runner) commandAliasAdd(ctx context.Context, args []string, loaded config.Loaded, logger *slog.Logger) int {
	name := args[0]
	target := strings.TrimSpace(strings.Join(args[1:], " "))

	path := loaded.AliasPath
	if err := alias.SaveAlias(path, alias.Entry{Alias: name, Target: target}); err != nil {
		fmt.Fprintf(r.Stderr, "error: save alias: %v\n", err)
		return 1
	}
	logger.Info("alias saved", "alias", name, "target", target, "path", path)

	// A watching session reloads the file on its own; this only covers
	// sessions started with aliases.watch off.
	if socketPath, err := ipc.RuntimeSocketPath(); err == nil && !loaded.Config.Aliases.Watch {
		if _, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: ipc.CommandAlias, Alias: name, Target: target}); handled && err != nil {
			fmt.Fprintf(r.Stderr, "warning: running session did not accept alias: %v\n", err)
		}
	}

	fmt.Fprintf(r.Stdout, "Added alias %s → %s\n", alias.Normalize(name), target)
	return 0
}

func (r Runner) commandAliasResolve(name string, loaded config.Loaded) int {
	resolver, err := loadResolver(loaded.AliasPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, resolver.Resolve(name))
	return 0
}

func (r Runner) commandApps(ctx context.Context, loaded config.Loaded, logger *slog.Logger) int {
	rt, err := buildRuntime(loaded, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer rt.Close()

	apps, err := rt.launcher.Installed(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(apps) == 0 {
		fmt.Fprintln(r.Stdout, "no applications found")
		return 1
	}
	for _, app := range apps {
		fmt.Fprintln(r.Stdout, app)
	}
	return 0
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}
	for _, device := range devices {
		fmt.Fprintln(r.Stdout, device.String())
	}
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, req)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active hark session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func loadResolver(path string) (*alias.Resolver, error) {
	f, err := alias.LoadFile(path)
	if err != nil {
		return nil, err
	}
	resolver := alias.Default()
	resolver.SetUser(f.Aliases)
	return resolver, nil
}

func tryForward(ctx context.Context, socketPath string, req ipc.Request) (ipc.Response, bool, error) {
	timeout := forwardTimeout
	if req.Command == ipc.CommandProcess {
		timeout = processForwardTimeout
	}
	resp, err := ipc.Send(ctx, socketPath, req, timeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
