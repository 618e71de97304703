package commands

import (
	"strings"

	"github.com/rbright/hark/internal/alias"
	"github.com/rbright/hark/internal/automation"
)

// ParamPlaceholder in a custom script is replaced by the quoted parameter.
const ParamPlaceholder = "{{param}}"

// Custom converts user-defined commands into general-table entries.
func Custom(defs []alias.CustomCommand, exec automation.Executor) []Entry {
	entries := make([]Entry, 0, len(defs))
	for _, def := range defs {
		mode := Exact
		if def.Match == "prefix" {
			mode = Prefix
		}
		done := strings.TrimSpace(def.Message)
		if done == "" {
			done = "Ran " + def.Phrase
		}
		example := def.Phrase
		if mode == Prefix && strings.Contains(def.Script, ParamPlaceholder) {
			example += " [text]"
		}
		entries = append(entries, Entry{
			Trigger:  def.Phrase,
			Mode:     mode,
			Category: "custom",
			Example:  example,
			Handler: scripted(exec, func(req Request) string {
				return strings.ReplaceAll(def.Script, ParamPlaceholder, automation.Quote(req.Param))
			}, fixed(done), def.Phrase),
		})
	}
	return entries
}
