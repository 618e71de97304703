// Package cli declares the hark command tree and parses argv into one invocation.
package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
)

type Command string

const (
	CommandListen       Command = "listen"
	CommandProcess      Command = "process"
	CommandREPL         Command = "repl"
	CommandSuggest      Command = "suggest"
	CommandStatus       Command = "status"
	CommandContext      Command = "context"
	CommandTyping       Command = "typing"
	CommandCommandMode  Command = "command"
	CommandStop         Command = "stop"
	CommandAliasList    Command = "alias list"
	CommandAliasAdd     Command = "alias add"
	CommandAliasResolve Command = "alias resolve"
	CommandApps         Command = "apps"
	CommandClearCache   Command = "clear-cache"
	CommandDevices      Command = "devices"
	CommandDoctor       Command = "doctor"
	CommandVersion      Command = "version"
	CommandHelp         Command = "help"
)

// Parsed is one resolved invocation.
type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	ShowHelp   bool
	// Help is the rendered help for the command help was requested on.
	Help string

	// listen
	Typing      bool
	CommandMode bool
	Input       string
	NoEvents    bool

	// suggest
	Limit int

	// typing/command toggles; nil means flip the current value.
	Enabled *bool
}

// Text joins positional args into one utterance or name.
func (p Parsed) Text() string {
	return strings.TrimSpace(strings.Join(p.Args, " "))
}

// Parse resolves args against the command tree without running anything.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{}
	root := newRoot(&parsed)
	// cobra falls back to os.Args when given nil.
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return Parsed{}, err
	}
	return parsed, nil
}

// HelpText renders top-level usage.
func HelpText() string {
	return renderHelp(newRoot(&Parsed{}))
}

func newRoot(parsed *Parsed) *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   "hark",
		Short: "Voice control router for macOS",
		Long: `hark routes recognized utterances to application, browser, and document
commands, or types them as dictation when no command applies.

Utterances arrive one per line on stdin (or --input) for "hark listen".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				parsed.Command = CommandVersion
				return nil
			}
			parsed.Command = CommandHelp
			parsed.ShowHelp = true
			parsed.Help = renderHelp(cmd)
			return nil
		},
	}
	root.SilenceErrors = true
	root.SilenceUsage = true
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		parsed.Command = CommandHelp
		parsed.ShowHelp = true
		parsed.Help = renderHelp(cmd)
	})

	root.PersistentFlags().StringVar(&parsed.ConfigPath, "config", "", "config file path (default: $XDG_CONFIG_HOME/hark/config.jsonc)")
	root.Flags().BoolVar(&showVersion, "version", false, "show version")

	set := func(c Command) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, args []string) error {
			parsed.Command = c
			parsed.Args = positional(args)
			return nil
		}
	}

	listen := &cobra.Command{
		Use:   "listen",
		Short: "Own the session: read utterances, route them, serve IPC",
		Args:  cobra.NoArgs,
		RunE:  set(CommandListen),
	}
	listen.Flags().BoolVar(&parsed.Typing, "typing", false, "start in typing mode")
	listen.Flags().BoolVar(&parsed.CommandMode, "command-mode", false, "start in command mode")
	listen.Flags().StringVar(&parsed.Input, "input", "", "read utterances from FILE instead of stdin")
	listen.Flags().BoolVar(&parsed.NoEvents, "no-events", false, "do not serve the websocket event feed")

	var limit int
	suggest := &cobra.Command{
		Use:   "suggest [partial...]",
		Short: "Suggest commands for a partial utterance",
		RunE: func(_ *cobra.Command, args []string) error {
			parsed.Command = CommandSuggest
			parsed.Args = positional(args)
			parsed.Limit = limit
			return nil
		},
	}
	suggest.Flags().IntVar(&limit, "limit", 5, "maximum suggestions")

	alias := &cobra.Command{
		Use:   "alias",
		Short: "Manage spoken application aliases",
	}
	alias.AddCommand(
		&cobra.Command{Use: "list", Short: "List built-in and user aliases", Args: cobra.NoArgs, RunE: set(CommandAliasList)},
		&cobra.Command{Use: "add <alias> <target...>", Short: "Add a user alias", Args: cobra.MinimumNArgs(2), RunE: set(CommandAliasAdd)},
		&cobra.Command{Use: "resolve <name...>", Short: "Show what a spoken name resolves to", Args: cobra.MinimumNArgs(1), RunE: set(CommandAliasResolve)},
	)

	root.AddCommand(
		listen,
		&cobra.Command{
			Use:   "process <utterance...>",
			Short: "Route one utterance (forwarded to a running session when present)",
			Args:  cobra.MinimumNArgs(1),
			RunE:  set(CommandProcess),
		},
		&cobra.Command{Use: "repl", Short: "Type utterances interactively", Args: cobra.NoArgs, RunE: set(CommandREPL)},
		suggest,
		&cobra.Command{Use: "status", Short: "Print session state", Args: cobra.NoArgs, RunE: set(CommandStatus)},
		&cobra.Command{Use: "context", Short: "Print the current application context", Args: cobra.NoArgs, RunE: set(CommandContext)},
		toggleCommand("typing", "Turn typing mode on or off", CommandTyping, parsed),
		toggleCommand("command", "Turn command mode on or off", CommandCommandMode, parsed),
		&cobra.Command{Use: "stop", Short: "Stop the running session", Args: cobra.NoArgs, RunE: set(CommandStop)},
		alias,
		&cobra.Command{Use: "apps", Short: "List installed applications", Args: cobra.NoArgs, RunE: set(CommandApps)},
		&cobra.Command{Use: "clear-cache", Short: "Drop the running session's application cache", Args: cobra.NoArgs, RunE: set(CommandClearCache)},
		&cobra.Command{Use: "devices", Short: "List available input devices", Args: cobra.NoArgs, RunE: set(CommandDevices)},
		&cobra.Command{Use: "doctor", Short: "Run configuration and environment checks", Args: cobra.NoArgs, RunE: set(CommandDoctor)},
		&cobra.Command{Use: "version", Short: "Print version information", Args: cobra.NoArgs, RunE: set(CommandVersion)},
	)
	return root
}

func toggleCommand(use string, short string, c Command, parsed *Parsed) *cobra.Command {
	return &cobra.Command{
		Use:       use + " [on|off|toggle]",
		Short:     short,
		ValidArgs: []string{"on", "off", "toggle"},
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		RunE: func(_ *cobra.Command, args []string) error {
			parsed.Command = c
			parsed.Args = positional(args)
			if len(args) == 1 && args[0] != "toggle" {
				on := args[0] == "on"
				parsed.Enabled = &on
			}
			return nil
		},
	}
}

func positional(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	return args
}

func renderHelp(cmd *cobra.Command) string {
	var b strings.Builder
	if desc := strings.TrimSpace(cmd.Long); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n\n")
	} else if desc := strings.TrimSpace(cmd.Short); desc != "" {
		b.WriteString(desc)
		b.WriteString("\n\n")
	}
	b.WriteString(cmd.UsageString())
	return b.String()
}
