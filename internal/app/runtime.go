package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/hark/internal/alias"
	"github.com/rbright/hark/internal/automation"
	"github.com/rbright/hark/internal/commands"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/contextstate"
	"github.com/rbright/hark/internal/dictation"
	"github.com/rbright/hark/internal/launcher"
	"github.com/rbright/hark/internal/punctuate"
	"github.com/rbright/hark/internal/router"
	"github.com/rbright/hark/internal/suggest"
	"github.com/rbright/hark/internal/typing"
)

// routerRuntime is the fully wired routing stack shared by listen, process,
// repl, and the one-shot query commands.
type routerRuntime struct {
	cfg       config.Config
	logger    *slog.Logger
	exec      automation.OSAScript
	aliasPath string
	resolver  *alias.Resolver
	launcher  *launcher.Launcher
	tracker   *contextstate.Tracker
	observer  contextstate.ScriptObserver
	restorer  *punctuate.Client
	router    *router.Router
	suggest   *suggest.Engine
}

func buildRuntime(loaded config.Loaded, logger *slog.Logger) (*routerRuntime, error) {
	cfg := loaded.Config
	aliasPath := loaded.AliasPath
	userFile, err := alias.LoadFile(aliasPath)
	if err != nil {
		logger.Warn("alias file ignored", "path", aliasPath, "error", err.Error())
		userFile = alias.File{}
	}

	resolver := alias.Default()
	resolver.SetUser(userFile.Aliases)

	exec := automation.OSAScript{
		Binary:        cfg.Automation.OSAScript,
		OpenBinary:    cfg.Automation.Open,
		ScriptTimeout: millis(cfg.Automation.TimeoutMS),
		OpenTimeout:   millis(cfg.Automation.OpenTimeoutMS),
	}

	apps := launcher.New(logger, resolver, exec, exec, launcher.DirInventory{Dirs: cfg.Launcher.AppDirs}, launcher.Options{
		Threshold:      cfg.Launcher.Threshold,
		MaxSuggestions: cfg.Launcher.MaxSuggestions,
	})

	editors := make([]contextstate.EditorPattern, 0, len(cfg.Context.Editors))
	for _, host := range cfg.Context.Editors {
		editors = append(editors, contextstate.EditorPattern{Fragment: host.Fragment, Kind: host.Kind})
	}
	tracker := contextstate.NewTracker(logger, contextstate.Options{
		Browsers: cfg.Context.Browsers,
		Editors:  editors,
	})
	observer := contextstate.ScriptObserver{Executor: automation.OSAScript{
		Binary:        cfg.Automation.OSAScript,
		ScriptTimeout: millis(cfg.Automation.ObserverTimeoutMS),
	}}

	rt := &routerRuntime{
		cfg:       cfg,
		logger:    logger,
		exec:      exec,
		aliasPath: aliasPath,
		resolver:  resolver,
		launcher:  apps,
		tracker:   tracker,
		observer:  observer,
	}

	// A typed nil client must not reach the processor as a non-nil Restorer.
	var restorer dictation.Restorer
	if endpoint := strings.TrimSpace(cfg.Dictation.RestorerGRPC); endpoint != "" {
		rt.restorer = punctuate.New(punctuate.Config{
			Endpoint: endpoint,
			Method:   cfg.Dictation.RestorerMethod,
		})
		restorer = rt.restorer
	}
	dict := dictation.New(logger, restorer, dictation.Options{
		AutoPunctuate:       cfg.Dictation.AutoPunctuate,
		CapitalizeSentences: cfg.Dictation.CapitalizeSentences,
		RestoreTimeout:      millis(cfg.Dictation.RestoreTimeoutMS),
	})

	sink, err := typing.New(typing.Config{
		Backend:       typing.Backend(cfg.Typing.Backend),
		ClipboardArgv: cfg.Typing.Clipboard.Argv,
		PasteShortcut: cfg.Typing.PasteShortcut,
	}, exec, logger)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("build typing sink: %w", err)
	}

	rt.router = router.New(logger, tracker, rt.commandSet(userFile.Commands), dict, sink, router.Options{
		Classifier:            router.NewClassifier(cfg.Router.Verbs, cfg.Router.ShortMaxWords, cfg.Router.DictationMinWords),
		EditorAutoTyping:      cfg.Router.EditorAutoTyping,
		GeneralImplicitTyping: cfg.Router.GeneralImplicitTyping,
	})
	rt.suggest = suggest.New(rt.router, resolver)
	return rt, nil
}

func (rt *routerRuntime) commandSet(custom []alias.CustomCommand) *commands.Set {
	return commands.Build(commands.Deps{
		Apps:     rt.launcher,
		Executor: rt.exec,
		Help:     router.HelpForEnv,
	}, custom)
}

// reloadAliases applies a changed alias file to the live resolver, tables,
// and application cache.
func (rt *routerRuntime) reloadAliases(f alias.File) {
	rt.resolver.SetUser(f.Aliases)
	rt.router.SetCommands(rt.commandSet(f.Commands))
	rt.launcher.ClearCache()
	rt.logger.Info("aliases reloaded", "aliases", len(f.Aliases), "commands", len(f.Commands))
}

// observeOnce seeds the tracker with a single frontmost-app and URL probe for
// commands that run without the pollers.
func (rt *routerRuntime) observeOnce(ctx context.Context) {
	app, err := rt.observer.FrontmostApp(ctx)
	if err != nil {
		rt.logger.Debug("frontmost app probe failed", "error", err.Error())
		return
	}
	rt.tracker.ObserveApp(app)

	snap := rt.tracker.Snapshot()
	if snap.Browser == "" {
		return
	}
	url, err := rt.observer.CurrentURL(ctx, snap.Browser)
	if err != nil {
		rt.logger.Debug("current url probe failed", "browser", snap.Browser, "error", err.Error())
		return
	}
	rt.tracker.ObserveURL(url)
}

func (rt *routerRuntime) pollerOptions() contextstate.PollerOptions {
	return contextstate.PollerOptions{
		WindowInterval: millis(rt.cfg.Context.WindowPollMS),
		URLInterval:    millis(rt.cfg.Context.URLPollMS),
		ProbeTimeout:   millis(rt.cfg.Automation.ObserverTimeoutMS),
		StopTimeout:    millis(rt.cfg.Context.StopTimeoutMS),
	}
}

func (rt *routerRuntime) Close() {
	if rt.restorer != nil {
		_ = rt.restorer.Close()
	}
}

// persistentAliases saves added aliases to the user file before applying
// them to the live resolver.
type persistentAliases struct {
	path     string
	resolver *alias.Resolver
}

func (p persistentAliases) Resolve(name string) string {
	return p.resolver.Resolve(name)
}

func (p persistentAliases) Add(name string, target string) error {
	if err := alias.SaveAlias(p.path, alias.Entry{Alias: name, Target: target}); err != nil {
		return err
	}
	return p.resolver.Add(name, target)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
