package commands

import (
	"github.com/rbright/hark/internal/alias"
	"github.com/rbright/hark/internal/automation"
)

// Deps are the collaborators every table handler may call.
type Deps struct {
	Apps     AppController
	Executor automation.Executor
	Help     HelpFunc
}

// Set is the full group of tables the router dispatches over.
type Set struct {
	General        *Table
	BrowserSpecial *Table
	Browser        *Table
	Editor         *Table
}

// Build constructs all tables, appending custom commands to the general table.
func Build(deps Deps, custom []alias.CustomCommand) *Set {
	return &Set{
		General:        General(deps.Apps, deps.Executor, deps.Help, Custom(custom, deps.Executor)...),
		BrowserSpecial: BrowserSpecial(deps.Executor),
		Browser:        Browser(deps.Executor),
		Editor:         Editor(deps.Executor),
	}
}

// Chain returns the tables consulted for scope, in priority order.
func (s *Set) Chain(scope Scope) []*Table {
	switch scope {
	case ScopeEditor:
		return []*Table{s.Editor, s.BrowserSpecial, s.Browser, s.General}
	case ScopeBrowser:
		return []*Table{s.BrowserSpecial, s.Browser, s.General}
	default:
		return []*Table{s.General}
	}
}

// Match walks the chain for scope and returns the first match.
func (s *Set) Match(scope Scope, utterance string) (Match, bool) {
	for _, t := range s.Chain(scope) {
		if m, ok := t.Match(utterance); ok {
			return m, true
		}
	}
	return Match{}, false
}
