package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "pbcopy"

	return Config{
		Automation: AutomationConfig{
			OSAScript:         "osascript",
			Open:              "open",
			TimeoutMS:         5000,
			OpenTimeoutMS:     3000,
			ObserverTimeoutMS: 1000,
		},
		Launcher: LauncherConfig{
			AppDirs:        []string{"/Applications", "~/Applications"},
			Threshold:      0.6,
			MaxSuggestions: 3,
		},
		Router: RouterConfig{
			Verbs: []string{
				"open", "close", "switch", "go", "search", "find", "new", "refresh",
				"scroll", "zoom", "bookmark", "make", "add", "remove", "change",
				"increase", "decrease", "set", "align", "clear", "apply", "insert",
			},
			ShortMaxWords:     3,
			DictationMinWords: 5,
			EditorAutoTyping:  true,
		},
		Context: ContextConfig{
			Browsers: []string{
				"Safari", "Google Chrome", "Chrome", "Firefox", "Arc", "Brave Browser", "Microsoft Edge",
			},
			Editors:       []EditorHost{{Fragment: "docs.google.com", Kind: "google_docs"}},
			WindowPollMS:  500,
			URLPollMS:     1000,
			StopTimeoutMS: 2000,
		},
		Dictation: DictationConfig{
			RestoreTimeoutMS: 2000,
		},
		Typing: TypingConfig{
			Backend:       "keystroke",
			Clipboard:     CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
			PasteShortcut: "cmd+v",
		},
		Aliases: AliasesConfig{Watch: true},
		Indicator: IndicatorConfig{
			Enable:      true,
			OnUnmatched: true,
			Title:       "hark",
			TimeoutMS:   1000,
		},
		Audio: AudioConfig{Input: "default", Fallback: "default"},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}
