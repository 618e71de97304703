package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type jsoncConfig struct {
	Automation *jsoncAutomation `json:"automation"`
	Launcher   *jsoncLauncher   `json:"launcher"`
	Router     *jsoncRouter     `json:"router"`
	Context    *jsoncContext    `json:"context"`
	Dictation  *jsoncDictation  `json:"dictation"`
	Typing     *jsoncTyping     `json:"typing"`
	Aliases    *jsoncAliases    `json:"aliases"`
	Events     *jsoncEvents     `json:"events"`
	Indicator  *jsoncIndicator  `json:"indicator"`
	Audio      *jsoncAudio      `json:"audio"`
	Log        *jsoncLog        `json:"log"`
}

type jsoncAutomation struct {
	OSAScript         *string `json:"osascript"`
	Open              *string `json:"open"`
	TimeoutMS         *int    `json:"timeout_ms"`
	OpenTimeoutMS     *int    `json:"open_timeout_ms"`
	ObserverTimeoutMS *int    `json:"observer_timeout_ms"`
}

type jsoncLauncher struct {
	AppDirs        *jsoncStringList `json:"app_dirs"`
	Threshold      *float64         `json:"similarity_threshold"`
	MaxSuggestions *int             `json:"max_suggestions"`
}

type jsoncRouter struct {
	Verbs                 *jsoncStringList `json:"command_verbs"`
	ShortMaxWords         *int             `json:"short_max_words"`
	DictationMinWords     *int             `json:"dictation_min_words"`
	EditorAutoTyping      *bool            `json:"editor_auto_typing"`
	GeneralImplicitTyping *bool            `json:"general_implicit_typing"`
}

type jsoncContext struct {
	Browsers      *jsoncStringList  `json:"browsers"`
	Editors       map[string]string `json:"editors"`
	WindowPollMS  *int              `json:"window_poll_ms"`
	URLPollMS     *int              `json:"url_poll_ms"`
	StopTimeoutMS *int              `json:"stop_timeout_ms"`
}

type jsoncDictation struct {
	AutoPunctuate       *bool   `json:"auto_punctuate"`
	CapitalizeSentences *bool   `json:"capitalize_sentences"`
	RestorerGRPC        *string `json:"restorer_grpc"`
	RestorerMethod      *string `json:"restorer_method"`
	RestoreTimeoutMS    *int    `json:"restore_timeout_ms"`
}

type jsoncTyping struct {
	Backend       *string `json:"backend"`
	ClipboardCmd  *string `json:"clipboard_cmd"`
	PasteShortcut *string `json:"paste_shortcut"`
}

type jsoncAliases struct {
	File  *string `json:"file"`
	Watch *bool   `json:"watch"`
}

type jsoncEvents struct {
	Listen *string `json:"listen"`
}

type jsoncIndicator struct {
	Enable      *bool   `json:"enable"`
	OnUnmatched *bool   `json:"on_unmatched"`
	Title       *string `json:"title"`
	Sound       *string `json:"sound"`
	TimeoutMS   *int    `json:"timeout_ms"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncLog struct {
	Level      *string `json:"level"`
	MaxSizeMB  *int    `json:"max_size_mb"`
	MaxBackups *int    `json:"max_backups"`
	MaxAgeDays *int    `json:"max_age_days"`
}

// jsoncStringList accepts an array or a comma-delimited string.
type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = trimList(list)
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = trimList(strings.Split(single, ","))
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Parse applies a JSONC document on top of base. A document holding only
// whitespace and comments leaves base unchanged.
func Parse(content string, base Config) (Config, []Warning, error) {
	return parseJSONC(content, base)
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}
	switch body := strings.TrimSpace(normalized); {
	case body == "":
		warnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, warnings, nil
	case body[0] != '{':
		return Config{}, nil, errors.New("config must be a JSONC object")
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	for i := range validatedWarnings {
		if validatedWarnings[i].Line == 0 {
			validatedWarnings[i].Line = lineOfKey(normalized, validatedWarnings[i].key())
		}
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if a := payload.Automation; a != nil {
		setString(&cfg.Automation.OSAScript, a.OSAScript)
		setString(&cfg.Automation.Open, a.Open)
		setInt(&cfg.Automation.TimeoutMS, a.TimeoutMS)
		setInt(&cfg.Automation.OpenTimeoutMS, a.OpenTimeoutMS)
		setInt(&cfg.Automation.ObserverTimeoutMS, a.ObserverTimeoutMS)
	}

	if l := payload.Launcher; l != nil {
		if l.AppDirs != nil {
			cfg.Launcher.AppDirs = []string(*l.AppDirs)
		}
		if l.Threshold != nil {
			cfg.Launcher.Threshold = *l.Threshold
		}
		setInt(&cfg.Launcher.MaxSuggestions, l.MaxSuggestions)
	}

	if r := payload.Router; r != nil {
		if r.Verbs != nil {
			verbs := make([]string, 0, len(*r.Verbs))
			for _, v := range *r.Verbs {
				verbs = append(verbs, strings.ToLower(v))
			}
			cfg.Router.Verbs = verbs
		}
		setInt(&cfg.Router.ShortMaxWords, r.ShortMaxWords)
		setInt(&cfg.Router.DictationMinWords, r.DictationMinWords)
		setBool(&cfg.Router.EditorAutoTyping, r.EditorAutoTyping)
		setBool(&cfg.Router.GeneralImplicitTyping, r.GeneralImplicitTyping)
	}

	if c := payload.Context; c != nil {
		if c.Browsers != nil {
			cfg.Context.Browsers = []string(*c.Browsers)
		}
		if c.Editors != nil {
			editors := make([]EditorHost, 0, len(c.Editors))
			for fragment, kind := range c.Editors {
				fragment = strings.ToLower(strings.TrimSpace(fragment))
				if fragment == "" {
					return nil, fmt.Errorf("context.editors contains an empty host fragment")
				}
				editors = append(editors, EditorHost{Fragment: fragment, Kind: strings.TrimSpace(kind)})
			}
			sortEditors(editors)
			cfg.Context.Editors = editors
		}
		setInt(&cfg.Context.WindowPollMS, c.WindowPollMS)
		setInt(&cfg.Context.URLPollMS, c.URLPollMS)
		setInt(&cfg.Context.StopTimeoutMS, c.StopTimeoutMS)
	}

	if d := payload.Dictation; d != nil {
		setBool(&cfg.Dictation.AutoPunctuate, d.AutoPunctuate)
		setBool(&cfg.Dictation.CapitalizeSentences, d.CapitalizeSentences)
		setString(&cfg.Dictation.RestorerGRPC, d.RestorerGRPC)
		setString(&cfg.Dictation.RestorerMethod, d.RestorerMethod)
		setInt(&cfg.Dictation.RestoreTimeoutMS, d.RestoreTimeoutMS)
	}

	if t := payload.Typing; t != nil {
		if t.Backend != nil {
			cfg.Typing.Backend = strings.ToLower(strings.TrimSpace(*t.Backend))
		}
		if t.ClipboardCmd != nil {
			raw := *t.ClipboardCmd
			argv, err := parseArgv(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid typing.clipboard_cmd: %w", err)
			}
			cfg.Typing.Clipboard = CommandConfig{Raw: raw, Argv: argv}
		}
		setString(&cfg.Typing.PasteShortcut, t.PasteShortcut)
	}

	if a := payload.Aliases; a != nil {
		setString(&cfg.Aliases.File, a.File)
		setBool(&cfg.Aliases.Watch, a.Watch)
	}

	if e := payload.Events; e != nil {
		setString(&cfg.Events.Listen, e.Listen)
	}

	if i := payload.Indicator; i != nil {
		setBool(&cfg.Indicator.Enable, i.Enable)
		setBool(&cfg.Indicator.OnUnmatched, i.OnUnmatched)
		setString(&cfg.Indicator.Title, i.Title)
		setString(&cfg.Indicator.Sound, i.Sound)
		setInt(&cfg.Indicator.TimeoutMS, i.TimeoutMS)
	}

	if a := payload.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
	}

	if l := payload.Log; l != nil {
		if l.Level != nil {
			cfg.Log.Level = strings.ToLower(strings.TrimSpace(*l.Level))
		}
		setInt(&cfg.Log.MaxSizeMB, l.MaxSizeMB)
		setInt(&cfg.Log.MaxBackups, l.MaxBackups)
		setInt(&cfg.Log.MaxAgeDays, l.MaxAgeDays)
	}

	return warnings, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// lineOfKey returns the 1-based line of the first `"key"` occurrence, or 0.
func lineOfKey(content string, key string) int {
	if key == "" {
		return 0
	}
	idx := strings.Index(content, `"`+key+`"`)
	if idx < 0 {
		return 0
	}
	return strings.Count(content[:idx], "\n") + 1
}
