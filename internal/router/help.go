package router

import (
	"strings"

	"github.com/rbright/hark/internal/commands"
)

var scopeHints = map[commands.Scope][]string{
	commands.ScopeGeneral: {
		"open Safari",
		"switch to Mail",
		"close Music",
		"minimize window",
		"help",
	},
	commands.ScopeBrowser: {
		"go to github.com",
		"search for weather today",
		"new tab",
		"scroll down",
		"find pricing on page",
	},
	commands.ScopeEditor: {
		"make bold",
		"heading one",
		"bullet list",
		"text color red",
		"align center",
	},
}

var helpSections = []struct {
	scope commands.Scope
	lines []string
}{
	{commands.ScopeGeneral, []string{
		"open [app name]: opens an application",
		"close [app name]: closes an application",
		"switch to [app name]: switches to an open application",
		"minimize window: minimizes the current window",
		"maximize window: maximizes the current window",
		"help: shows this help message",
	}},
	{commands.ScopeBrowser, []string{
		"go to [website]: opens a website in the current tab",
		"search for [words]: searches Google",
		"new tab, close tab, back, forward, refresh",
		"scroll up, scroll down, zoom in, zoom out",
		"find [text] on page",
	}},
	{commands.ScopeEditor, []string{
		"bold, italic, underline, strikethrough",
		"heading one/two/three, normal text",
		"bullet list, numbered list, align left/center/right",
		"text color [color], highlight",
		"anything else you say is typed",
	}},
}

// Hints lists example commands for scope, most specific first.
func Hints(scope commands.Scope) []string {
	var out []string
	switch scope {
	case commands.ScopeEditor:
		out = append(out, scopeHints[commands.ScopeEditor]...)
		out = append(out, scopeHints[commands.ScopeBrowser][:2]...)
	case commands.ScopeBrowser:
		out = append(out, scopeHints[commands.ScopeBrowser]...)
		out = append(out, scopeHints[commands.ScopeGeneral][0])
	default:
		out = append(out, scopeHints[commands.ScopeGeneral]...)
	}
	return out
}

// HelpText renders the commands available in scope.
func HelpText(scope commands.Scope) string {
	include := map[commands.Scope]bool{commands.ScopeGeneral: true}
	switch scope {
	case commands.ScopeEditor:
		include[commands.ScopeEditor] = true
		include[commands.ScopeBrowser] = true
	case commands.ScopeBrowser:
		include[commands.ScopeBrowser] = true
	}

	var b strings.Builder
	b.WriteString("Available commands:")
	for i := len(helpSections) - 1; i >= 0; i-- {
		section := helpSections[i]
		if !include[section.scope] {
			continue
		}
		for _, line := range section.lines {
			b.WriteString("\n- ")
			b.WriteString(line)
		}
	}
	return b.String()
}

// HelpForEnv adapts HelpText to the general table's help handler.
func HelpForEnv(env commands.Env) string {
	return HelpText(scopeForEnv(env))
}

// QuickTip returns a one-line tip for utterance, or "".
func QuickTip(utterance string) string {
	u := commands.Normalize(utterance)
	switch {
	case strings.Contains(u, "help"):
		return "Try saying 'what can I say' for a full list"
	case strings.Contains(u, "not working"), strings.Contains(u, "doesn't work"):
		return "Try speaking more clearly and a bit louder"
	case strings.Contains(u, "type"), strings.Contains(u, "write"):
		return "Turn on typing mode, then use 'period' and 'comma' for punctuation"
	case strings.Contains(u, "open"), strings.Contains(u, "close"):
		return "Specify the app name, like 'open Safari' or 'close Mail'"
	default:
		return ""
	}
}

func scopeForEnv(env commands.Env) commands.Scope {
	switch {
	case env.Editor != "":
		return commands.ScopeEditor
	case env.Browser != "":
		return commands.ScopeBrowser
	default:
		return commands.ScopeGeneral
	}
}
