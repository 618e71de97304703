// Package config resolves, parses, validates, and defaults hark configuration.
package config

import "strings"

// Config is the fully materialized runtime configuration used by hark.
type Config struct {
	Automation AutomationConfig
	Launcher   LauncherConfig
	Router     RouterConfig
	Context    ContextConfig
	Dictation  DictationConfig
	Typing     TypingConfig
	Aliases    AliasesConfig
	Events     EventsConfig
	Indicator  IndicatorConfig
	Audio      AudioConfig
	Log        LogConfig
}

// AutomationConfig controls the osascript/open executor.
type AutomationConfig struct {
	OSAScript         string
	Open              string
	TimeoutMS         int
	OpenTimeoutMS     int
	ObserverTimeoutMS int
}

// LauncherConfig controls application lookup and fuzzy retry.
type LauncherConfig struct {
	AppDirs        []string
	Threshold      float64
	MaxSuggestions int
}

// RouterConfig controls dictation-vs-command classification and fallbacks.
type RouterConfig struct {
	Verbs                 []string
	ShortMaxWords         int
	DictationMinWords     int
	EditorAutoTyping      bool
	GeneralImplicitTyping bool
}

// ContextConfig controls browser/editor detection and polling cadence.
type ContextConfig struct {
	Browsers      []string
	Editors       []EditorHost
	WindowPollMS  int
	URLPollMS     int
	StopTimeoutMS int
}

// EditorHost maps a URL fragment to an editor kind.
type EditorHost struct {
	Fragment string
	Kind     string
}

// DictationConfig controls dictation post-processing.
type DictationConfig struct {
	AutoPunctuate       bool
	CapitalizeSentences bool
	RestorerGRPC        string
	RestorerMethod      string
	RestoreTimeoutMS    int
}

// TypingConfig selects the typing sink backend.
type TypingConfig struct {
	Backend       string
	Clipboard     CommandConfig
	PasteShortcut string
}

// AliasesConfig locates the user alias file.
type AliasesConfig struct {
	File  string
	Watch bool
}

// EventsConfig controls the websocket event feed; an empty Listen disables it.
type EventsConfig struct {
	Listen string
}

// IndicatorConfig controls macOS notifications for outcomes.
type IndicatorConfig struct {
	Enable      bool
	OnUnmatched bool
	Title       string
	Sound       string
	TimeoutMS   int
}

// AudioConfig names the preferred and fallback input devices.
type AudioConfig struct {
	Input    string
	Fallback string
}

// LogConfig controls log level and rotation.
type LogConfig struct {
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
	// field is the dotted config key the warning refers to, used to find Line.
	field string
}

func (w Warning) key() string {
	if i := strings.LastIndex(w.field, "."); i >= 0 {
		return w.field[i+1:]
	}
	return w.field
}
