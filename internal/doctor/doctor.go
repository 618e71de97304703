// Package doctor runs runtime readiness diagnostics for config, automation
// permissions, aliases, audio, and the punctuation restorer.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/rbright/hark/internal/alias"
	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/automation"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/punctuate"
)

const probeTimeout = 3 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// HealthChecker probes the punctuation restorer.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// Deps overrides the live probes; nil fields use the real implementations.
type Deps struct {
	Executor  automation.Executor
	Devices   audio.Lister
	Restorer  HealthChecker
	AliasPath string
	GOOS      string
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded, deps Deps) Report {
	cfg := loaded.Config
	if deps.Executor == nil {
		deps.Executor = automation.OSAScript{
			Binary:        cfg.Automation.OSAScript,
			OpenBinary:    cfg.Automation.Open,
			ScriptTimeout: probeTimeout,
		}
	}
	if deps.Devices == nil {
		deps.Devices = audio.ListDevices
	}
	if deps.GOOS == "" {
		deps.GOOS = runtime.GOOS
	}

	configMsg := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		configMsg = fmt.Sprintf("%q not found; using defaults", loaded.Path)
	}
	checks := []Check{{Name: "config", Pass: true, Message: configMsg}}

	checks = append(checks, checkPlatform(deps.GOOS))
	checks = append(checks, checkBinary(cfg.Automation.OSAScript, "runs AppleScript"))
	checks = append(checks, checkBinary(cfg.Automation.Open, "launches applications"))
	if cfg.Typing.Backend == "paste" {
		checks = append(checks, checkCommand(cfg.Typing.Clipboard.Argv, "typing.clipboard_cmd"))
	}
	checks = append(checks, checkAccessibility(ctx, deps.Executor))
	if deps.AliasPath != "" {
		checks = append(checks, checkAliases(deps.AliasPath))
	}
	checks = append(checks, checkAudioSelection(ctx, deps.Devices, cfg))
	checks = append(checks, checkRestorer(ctx, deps.Restorer, cfg))

	return Report{Checks: checks}
}

// checkPlatform reports whether automation can work on this OS at all.
func checkPlatform(goos string) Check {
	if goos == "darwin" {
		return Check{Name: "platform", Pass: true, Message: "macOS detected"}
	}
	return Check{Name: "platform", Pass: false, Message: fmt.Sprintf("%s is unsupported; AppleScript automation requires macOS", goos)}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAccessibility runs the frontmost-app probe, which needs both
// Automation and Accessibility grants.
func checkAccessibility(ctx context.Context, exec automation.Executor) Check {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	app, err := exec.Execute(probeCtx, automation.FrontmostAppScript)
	switch {
	case err == nil:
		return Check{Name: "accessibility", Pass: true, Message: fmt.Sprintf("frontmost app is %q", app)}
	case automation.IsPermissionDenied(err):
		return Check{Name: "accessibility", Pass: false, Message: "permission denied; grant access in System Settings > Privacy & Security > Accessibility and Automation"}
	default:
		return Check{Name: "accessibility", Pass: false, Message: err.Error()}
	}
}

// checkAliases loads and validates the user alias file.
func checkAliases(path string) Check {
	f, err := alias.LoadFile(path)
	if err != nil {
		return Check{Name: "aliases", Pass: false, Message: err.Error()}
	}
	return Check{Name: "aliases", Pass: true, Message: fmt.Sprintf("%d aliases, %d custom commands from %q", len(f.Aliases), len(f.Commands), path)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, list audio.Lister, cfg config.Config) Check {
	selection, err := audio.Resolve(ctx, list, audio.Preference{Input: cfg.Audio.Input, Fallback: cfg.Audio.Fallback})
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkRestorer probes the gRPC health service of the punctuation restorer.
// An unset endpoint passes because restoration is optional.
func checkRestorer(ctx context.Context, checker HealthChecker, cfg config.Config) Check {
	endpoint := strings.TrimSpace(cfg.Dictation.RestorerGRPC)
	if endpoint == "" {
		return Check{Name: "dictation.restorer", Pass: true, Message: "disabled (dictation.restorer_grpc is empty)"}
	}
	if checker == nil {
		client := punctuate.New(punctuate.Config{
			Endpoint:    endpoint,
			Method:      cfg.Dictation.RestorerMethod,
			DialTimeout: probeTimeout,
		})
		defer client.Close()
		checker = client
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := checker.Check(probeCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Check{Name: "dictation.restorer", Pass: false, Message: fmt.Sprintf("%s did not answer within %s", endpoint, probeTimeout)}
		}
		return Check{Name: "dictation.restorer", Pass: false, Message: err.Error()}
	}
	return Check{Name: "dictation.restorer", Pass: true, Message: fmt.Sprintf("serving at %s", endpoint)}
}
