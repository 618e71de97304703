package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/rbright/hark/internal/contextstate"
	"github.com/rbright/hark/internal/events"
	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/router"
	"github.com/rbright/hark/internal/session"
	"github.com/stretchr/testify/require"
)

func TestExecuteHelp(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"--help"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "Usage:")
	require.Empty(t, stderr.String())
}

func TestExecuteVersion(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"version"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "hark")
	require.Empty(t, stderr.String())
}

func TestExecuteUnknownCommand(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"definitely-not-a-command"}, &stdout, &stderr)
	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "unknown command")
	require.Contains(t, stderr.String(), "Usage:")
}

func TestExecuteConfigErrorFails(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")
	require.NoError(t, os.WriteFile(paths.configPath, []byte(`{"nope": true}`), 0o600))

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "status"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "parse config")
}

func TestRunnerStatusIdleWhenSocketUnavailable(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "status"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "idle\n", stdout.String())
	require.Empty(t, stderr.String())
}

func TestRunnerStopReturnsNoActiveSession(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "stop"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "no active hark session")
}

func TestRunnerForwardsCommandsToActiveSession(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")
	requests := make(chan ipc.Request, 8)

	shutdown := startIPCServerForRunnerTest(t, paths.socketPath(), func(_ context.Context, req ipc.Request) ipc.Response {
		requests <- req
		switch req.Command {
		case "status", "stop", "typing", "command", "clear_cache":
			return ipc.Response{OK: true, State: "listening", Message: req.Command + " handled"}
		default:
			return ipc.Response{OK: false, Error: "unsupported"}
		}
	})
	defer shutdown()

	cases := []struct {
		args    []string
		command string
		enabled *bool
	}{
		{args: []string{"status"}, command: "status"},
		{args: []string{"stop"}, command: "stop"},
		{args: []string{"typing", "on"}, command: "typing", enabled: boolPtr(true)},
		{args: []string{"command", "off"}, command: "command", enabled: boolPtr(false)},
		{args: []string{"typing"}, command: "typing"},
		{args: []string{"clear-cache"}, command: "clear_cache"},
	}

	for _, tc := range cases {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		runner := Runner{Stdout: stdout, Stderr: stderr}

		exitCode := runner.Execute(context.Background(), append([]string{"--config", paths.configPath}, tc.args...))
		require.Equal(t, 0, exitCode, tc.args)
		require.Empty(t, stderr.String(), tc.args)
		require.Contains(t, stdout.String(), tc.command+" handled", tc.args)

		req := <-requests
		require.Equal(t, tc.command, req.Command)
		require.Equal(t, tc.enabled, req.Enabled)
	}
}

func TestRunnerStatusRendersContextAndMode(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")

	shutdown := startIPCServerForRunnerTest(t, paths.socketPath(), func(_ context.Context, req ipc.Request) ipc.Response {
		return ipc.Response{
			OK:      true,
			State:   "listening",
			Context: &contextstate.Context{Kind: fsm.StateBrowser, Browser: "Safari"},
			Mode:    &router.Mode{Typing: true},
		}
	})
	defer shutdown()

	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "status"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "listening | context=browser(Safari) | typing=true | command=false\n", stdout.String())
}

func TestRunnerStatusFallsBackToIdleWhenServerStateEmpty(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")

	shutdown := startIPCServerForRunnerTest(t, paths.socketPath(), func(_ context.Context, req ipc.Request) ipc.Response {
		require.Equal(t, "status", req.Command)
		return ipc.Response{OK: true, State: ""}
	})
	defer shutdown()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "status"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "idle\n", stdout.String())
	require.Empty(t, stderr.String())
}

func TestRunnerProcessInProcess(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "process", "open", "safari"})
	require.Equal(t, 0, exitCode, stderr.String())
	require.Contains(t, stdout.String(), "✓ Opened Safari")

	opened, err := os.ReadFile(paths.openLog)
	require.NoError(t, err)
	require.Equal(t, "-a Safari\n", string(opened))
}

func TestRunnerProcessUnknownApplicationFails(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")

	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "process", "open", "qwertyapp"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stdout.String(), "✗ Could not find application: qwertyapp")
}

func TestRunnerProcessGeneralDictationIsUnmatched(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")

	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "process",
		"I", "think", "we", "should", "meet", "again", "next", "week"})
	require.Equal(t, 0, exitCode)
	require.True(t, strings.HasPrefix(stdout.String(), "? "), stdout.String())
}

func TestRunnerProcessForwardsToSession(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")

	shutdown := startIPCServerForRunnerTest(t, paths.socketPath(), func(_ context.Context, req ipc.Request) ipc.Response {
		require.Equal(t, "process", req.Command)
		require.Equal(t, "new tab", req.Text)
		out := router.Outcome{Kind: router.KindExecuted, Message: "Opened new tab", Text: req.Text}
		return ipc.Response{OK: true, State: "listening", Outcome: &out}
	})
	defer shutdown()

	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "process", "new", "tab"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "✓ Opened new tab\n", stdout.String())

	_, err := os.Stat(paths.openLog)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunnerProcessForwardedFailureExitsNonZero(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")

	shutdown := startIPCServerForRunnerTest(t, paths.socketPath(), func(_ context.Context, req ipc.Request) ipc.Response {
		out := router.Outcome{Kind: router.KindFailed, Message: "Could not find application: qwertyapp", Suggestions: []string{"Safari"}}
		return ipc.Response{OK: false, Error: out.Message, Outcome: &out}
	})
	defer shutdown()

	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "process", "open", "qwertyapp"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stdout.String(), "✗ Could not find application: qwertyapp")
	require.Contains(t, stdout.String(), "try: Safari")
}

func TestRunnerSuggestInProcess(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "suggest", "--limit", "2", "open"})
	require.Equal(t, 0, exitCode, stderr.String())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.NotEmpty(t, lines)
	require.LessOrEqual(t, len(lines), 2)
	for _, line := range lines {
		require.Contains(t, line, "open")
	}
}

func TestRunnerContextProbesFrontmostApp(t *testing.T) {
	paths := setupRunnerEnv(t, "Safari")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "context"})
	require.Equal(t, 0, exitCode, stderr.String())
	require.Equal(t, "browser(Safari)\n", stdout.String())
}

func TestRunnerAliasAddResolveAndList(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")

	run := func(args ...string) (int, string) {
		var stdout bytes.Buffer
		runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}
		code := runner.Execute(context.Background(), append([]string{"--config", paths.configPath}, args...))
		return code, stdout.String()
	}

	code, out := run("alias", "add", "Mail", "Mimestream")
	require.Equal(t, 0, code)
	require.Equal(t, "Added alias mail → Mimestream\n", out)

	code, out = run("alias", "resolve", "mail")
	require.Equal(t, 0, code)
	require.Equal(t, "Mimestream\n", out)

	code, out = run("alias", "list")
	require.Equal(t, 0, code)
	require.Contains(t, out, "Mimestream")

	data, err := os.ReadFile(filepath.Join(paths.configHome, "hark", "aliases.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "target: Mimestream")
}

func TestRunnerAppsListsInventory(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "apps"})
	require.Equal(t, 0, exitCode, stderr.String())
	require.Equal(t, "Notes\nSafari\n", stdout.String())
}

func TestRunnerREPLRoutesLinesUntilExit(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{
		Stdout: &stdout,
		Stderr: &stderr,
		Stdin:  strings.NewReader("open safari\n\nexit\nopen notes\n"),
	}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "repl"})
	require.Equal(t, 0, exitCode, stderr.String())
	require.Contains(t, stdout.String(), "hark> ")
	require.Contains(t, stdout.String(), "✓ Opened Safari")
	require.NotContains(t, stdout.String(), "Opened Notes")
}

func TestRunnerListenRoutesInputFileAndCleansUpSocket(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")
	inputPath := filepath.Join(t.TempDir(), "utterances.txt")
	require.NoError(t, os.WriteFile(inputPath, []byte("state: ready\npartial: open\nopen safari\n"), 0o600))

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "listen", "--input", inputPath, "--no-events"})
	require.Equal(t, 0, exitCode, stderr.String())
	require.Contains(t, stdout.String(), "✓ Opened Safari")
	require.Contains(t, stdout.String(), "processed 1 utterances")

	_, statErr := os.Stat(paths.socketPath())
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestRunnerListenRefusesSecondOwner(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")

	shutdown := startIPCServerForRunnerTest(t, paths.socketPath(), func(_ context.Context, req ipc.Request) ipc.Response {
		return ipc.Response{OK: true, State: "listening"}
	})
	defer shutdown()

	var stderr bytes.Buffer
	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &stderr, Stdin: strings.NewReader("")}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "listen", "--no-events"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), ipc.ErrAlreadyRunning.Error())
}

func TestRunnerListenInputMissing(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")

	var stderr bytes.Buffer
	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "listen", "--input", filepath.Join(t.TempDir(), "missing.txt")})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "open input")

	_, statErr := os.Stat(paths.socketPath())
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestRunnerDoctorCommandDispatchesAndPrintsReport(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "doctor"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stdout.String(), "config: loaded")
	require.Contains(t, stdout.String(), `[OK] accessibility: frontmost app is "Finder"`)
	require.Contains(t, stdout.String(), "[FAIL] audio.device")
}

func TestRunnerDevicesCommandDispatches(t *testing.T) {
	paths := setupRunnerEnv(t, "Finder")
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "devices"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "error:")
}

func TestTryForwardSuccessAndFailureResponses(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "hark.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	serverCtx, cancelServer := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- ipc.Serve(serverCtx, listener, ipc.HandlerFunc(func(_ context.Context, req ipc.Request) ipc.Response {
			switch req.Command {
			case "status":
				return ipc.Response{OK: true, State: "listening"}
			default:
				return ipc.Response{OK: false, Error: "unsupported"}
			}
		}))
	}()

	resp, handled, err := tryForward(context.Background(), socketPath, ipc.Request{Command: "status"})
	require.True(t, handled)
	require.NoError(t, err)
	require.Equal(t, "listening", resp.State)

	_, handled, err = tryForward(context.Background(), socketPath, ipc.Request{Command: "bogus"})
	require.True(t, handled)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported")

	cancelServer()
	require.NoError(t, <-serverDone)
}

func TestTryForwardDoesNotRemoveSocketPathOnForwardFailure(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "hark.sock")
	require.NoError(t, os.WriteFile(socketPath, []byte("stale"), 0o600))

	_, handled, err := tryForward(context.Background(), socketPath, ipc.Request{Command: "status"})
	require.False(t, handled)
	require.NoError(t, err)

	_, statErr := os.Stat(socketPath)
	require.NoError(t, statErr)
}

func TestTryForwardTreatsReadFailuresAsHandledErrors(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "hark.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, acceptErr := listener.Accept()
		if acceptErr == nil {
			_ = conn.Close()
		}
	}()

	_, handled, err := tryForward(context.Background(), socketPath, ipc.Request{Command: "status"})
	require.True(t, handled)
	require.Error(t, err)
	require.Contains(t, err.Error(), "forward command \"status\":")

	<-done
	_, statErr := os.Stat(socketPath)
	require.NoError(t, statErr)
	require.NoError(t, listener.Close())
}

func TestSocketErrorHelpers(t *testing.T) {
	require.False(t, isSocketMissing(nil))
	require.False(t, isConnectionRefused(nil))

	require.True(t, isSocketMissing(os.ErrNotExist))
	require.True(t, isSocketMissing(errors.New("dial unix /tmp/hark.sock: no such file or directory")))
	require.False(t, isSocketMissing(errors.New("other error")))

	require.True(t, isConnectionRefused(syscall.ECONNREFUSED))
	require.False(t, isConnectionRefused(errors.New("other error")))
}

func TestLogSessionSummaryWritesFailureAndSuccess(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	started := time.Now()
	stopped := started.Add(1500 * time.Millisecond)

	logSessionSummary(logger, session.Summary{Processed: 3, StartedAt: started, StoppedAt: stopped})
	require.Contains(t, logBuf.String(), "session complete")
	require.Contains(t, logBuf.String(), "\"processed\":3")
	require.Contains(t, logBuf.String(), "\"duration_ms\":1500")

	logBuf.Reset()
	logSessionSummary(logger, session.Summary{StartedAt: started, StoppedAt: stopped, Err: errors.New("boom")})
	require.Contains(t, logBuf.String(), "session failed")
	require.Contains(t, logBuf.String(), "boom")
}

func TestRenderOutcomePlainForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	newRenderer(&buf).outcome(&buf, router.Outcome{
		Kind:        router.KindUnmatched,
		Message:     "Not a command",
		Suggestions: []string{"open Safari", "new tab"},
		Tip:         "Say help",
	})
	require.Equal(t, "? Not a command\n  try: open Safari, new tab\n  tip: Say help\n", buf.String())

	buf.Reset()
	newRenderer(&buf).outcome(&buf, router.Outcome{Kind: router.KindExecuted, Typed: "hello"})
	require.Equal(t, "✓ Typed \"hello\"\n", buf.String())
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// blockingNotifier holds every ShowOutcome until release is closed.
type blockingNotifier struct {
	release chan struct{}
	mu      sync.Mutex
	shown   []string
}

func (n *blockingNotifier) ShowOutcome(_ context.Context, out router.Outcome) {
	<-n.release
	n.mu.Lock()
	n.shown = append(n.shown, out.Message)
	n.mu.Unlock()
}

func (n *blockingNotifier) ShowListening(context.Context)     {}
func (n *blockingNotifier) ShowStopped(context.Context)       {}
func (n *blockingNotifier) ShowError(context.Context, string) {}

func TestWatchOutcomesPrintsPastSlowNotifier(t *testing.T) {
	var stdout lockedBuffer
	runner := Runner{Stdout: &stdout, Stderr: io.Discard}
	bus := events.NewBus()
	defer bus.Close()
	notifier := &blockingNotifier{release: make(chan struct{})}

	stop := runner.watchOutcomes(context.Background(), bus, notifier)

	// More outcomes than one subscription buffers, published one at a time.
	total := events.DefaultBuffer + 16
	for i := 0; i < total; i++ {
		message := fmt.Sprintf("Opened tab %d", i)
		bus.Publish(events.Event{Type: events.TypeOutcome, Outcome: &router.Outcome{Kind: router.KindExecuted, Message: message}})
		bus.Publish(events.Event{Type: events.TypePartial, Partial: "ignored"})
		require.Eventually(t, func() bool {
			return strings.Contains(stdout.String(), message+"\n")
		}, time.Second, time.Millisecond)
	}

	close(notifier.release)
	stop()

	require.Equal(t, total, strings.Count(stdout.String(), "Opened tab"))
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.NotEmpty(t, notifier.shown)
	require.Equal(t, "Opened tab 0", notifier.shown[0])
}

type runnerPaths struct {
	configPath string
	configHome string
	runtimeDir string
	openLog    string
}

func (p runnerPaths) socketPath() string {
	return filepath.Join(p.runtimeDir, "hark.sock")
}

// setupRunnerEnv isolates state/runtime/config dirs and stubs osascript and
// open. The osascript stub answers every script with frontmost; the open stub
// only knows Safari and Notes.
func setupRunnerEnv(t *testing.T, frontmost string) runnerPaths {
	t.Helper()

	runtimeDir := t.TempDir()
	configHome := t.TempDir()
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)
	t.Setenv("XDG_CONFIG_HOME", configHome)

	binDir := t.TempDir()
	openLog := filepath.Join(t.TempDir(), "open.log")
	writeStub(t, filepath.Join(binDir, "osascript"), fmt.Sprintf("echo %q\n", frontmost))
	writeStub(t, filepath.Join(binDir, "open"), fmt.Sprintf(`case "$2" in
  Safari|Notes) echo "$@" >> %q ;;
  *) echo "Unable to find application named '$2'" >&2; exit 1 ;;
esac
`, openLog))

	appsDir := t.TempDir()
	for _, name := range []string{"Safari.app", "Notes.app", ".Hidden.app", "README.txt"} {
		require.NoError(t, os.MkdirAll(filepath.Join(appsDir, name), 0o755))
	}

	configPath := filepath.Join(t.TempDir(), "config.jsonc")
	content := fmt.Sprintf(`{
  // stubbed automation for tests
  "automation": {"osascript": %q, "open": %q},
  "launcher": {"app_dirs": [%q]},
  "indicator": {"enable": false}
}
`, filepath.Join(binDir, "osascript"), filepath.Join(binDir, "open"), appsDir)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return runnerPaths{configPath: configPath, configHome: configHome, runtimeDir: runtimeDir, openLog: openLog}
}

func writeStub(t *testing.T, path string, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("#!/usr/bin/env bash\n"+body), 0o755))
}

func startIPCServerForRunnerTest(t *testing.T, socketPath string, handler func(context.Context, ipc.Request) ipc.Response) func() {
	t.Helper()

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ipc.Serve(ctx, listener, ipc.HandlerFunc(handler))
	}()

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func boolPtr(v bool) *bool { return &v }
