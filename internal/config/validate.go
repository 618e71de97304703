package config

import (
	"fmt"
	"net"
	"sort"
	"strings"
)

var (
	typingBackends = map[string]struct{}{"keystroke": {}, "paste": {}}
	logLevels      = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "error": {}}
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Automation.OSAScript) == "" {
		return nil, fmt.Errorf("automation.osascript must not be empty")
	}
	if strings.TrimSpace(cfg.Automation.Open) == "" {
		return nil, fmt.Errorf("automation.open must not be empty")
	}
	for name, v := range map[string]int{
		"automation.timeout_ms":          cfg.Automation.TimeoutMS,
		"automation.open_timeout_ms":     cfg.Automation.OpenTimeoutMS,
		"automation.observer_timeout_ms": cfg.Automation.ObserverTimeoutMS,
		"context.window_poll_ms":         cfg.Context.WindowPollMS,
		"context.url_poll_ms":            cfg.Context.URLPollMS,
		"context.stop_timeout_ms":        cfg.Context.StopTimeoutMS,
		"router.short_max_words":         cfg.Router.ShortMaxWords,
		"router.dictation_min_words":     cfg.Router.DictationMinWords,
		"launcher.max_suggestions":       cfg.Launcher.MaxSuggestions,
	} {
		if v <= 0 {
			return nil, fmt.Errorf("%s must be > 0", name)
		}
	}

	if cfg.Launcher.Threshold <= 0 || cfg.Launcher.Threshold >= 1 {
		return nil, fmt.Errorf("launcher.similarity_threshold must be between 0 and 1")
	}
	if cfg.Launcher.Threshold < 0.5 {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("launcher.similarity_threshold %.2f is low; fuzzy retries may open the wrong application", cfg.Launcher.Threshold),
			field:   "launcher.similarity_threshold",
		})
	}
	if len(cfg.Launcher.AppDirs) == 0 {
		return nil, fmt.Errorf("launcher.app_dirs must not be empty")
	}

	if len(cfg.Router.Verbs) == 0 {
		return nil, fmt.Errorf("router.command_verbs must not be empty")
	}
	if cfg.Router.ShortMaxWords > cfg.Router.DictationMinWords {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("router.short_max_words (%d) exceeds router.dictation_min_words (%d)", cfg.Router.ShortMaxWords, cfg.Router.DictationMinWords),
			field:   "router.short_max_words",
		})
	}

	if len(cfg.Context.Browsers) == 0 {
		return nil, fmt.Errorf("context.browsers must not be empty")
	}
	for _, e := range cfg.Context.Editors {
		if strings.TrimSpace(e.Kind) == "" {
			return nil, fmt.Errorf("context.editors[%q] must name an editor kind", e.Fragment)
		}
	}

	if cfg.Dictation.RestoreTimeoutMS <= 0 {
		return nil, fmt.Errorf("dictation.restore_timeout_ms must be > 0")
	}
	if cfg.Dictation.AutoPunctuate && strings.TrimSpace(cfg.Dictation.RestorerGRPC) == "" {
		warnings = append(warnings, Warning{
			Message: "dictation.auto_punctuate is on but dictation.restorer_grpc is empty; restoration disabled",
			field:   "dictation.auto_punctuate",
		})
	}
	if method := strings.TrimSpace(cfg.Dictation.RestorerMethod); method != "" && !strings.HasPrefix(method, "/") {
		return nil, fmt.Errorf("dictation.restorer_method must start with '/'")
	}

	if _, ok := typingBackends[cfg.Typing.Backend]; !ok {
		return nil, fmt.Errorf("typing.backend must be one of: keystroke, paste")
	}
	if cfg.Typing.Backend == "paste" {
		if len(cfg.Typing.Clipboard.Argv) == 0 {
			return nil, fmt.Errorf("typing.clipboard_cmd must not be empty when typing.backend=paste")
		}
		if strings.TrimSpace(cfg.Typing.PasteShortcut) == "" {
			return nil, fmt.Errorf("typing.paste_shortcut must not be empty when typing.backend=paste")
		}
	}

	if listen := strings.TrimSpace(cfg.Events.Listen); listen != "" {
		host, _, err := net.SplitHostPort(listen)
		if err != nil {
			return nil, fmt.Errorf("events.listen %q: %w", listen, err)
		}
		if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
			warnings = append(warnings, Warning{
				Message: fmt.Sprintf("events.listen %q is not a loopback address; outcomes will be visible to the network", listen),
				field:   "events.listen",
			})
		}
	}

	if cfg.Indicator.TimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.timeout_ms must be >= 0")
	}

	if _, ok := logLevels[cfg.Log.Level]; !ok {
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	if cfg.Log.MaxSizeMB <= 0 {
		return nil, fmt.Errorf("log.max_size_mb must be > 0")
	}
	if cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0 {
		return nil, fmt.Errorf("log.max_backups and log.max_age_days must be >= 0")
	}

	return warnings, nil
}

func sortEditors(editors []EditorHost) {
	sort.Slice(editors, func(i, j int) bool { return editors[i].Fragment < editors[j].Fragment })
}
