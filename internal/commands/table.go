// Package commands holds the phrase tables that map utterances to actions.
package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Mode controls how a trigger matches an utterance.
type Mode int

const (
	// Prefix matches the trigger alone or followed by a parameter suffix.
	Prefix Mode = iota
	// Exact matches whole-utterance equality only.
	Exact
	// Contains matches the trigger as whole words anywhere in the utterance.
	Contains
)

func (m Mode) String() string {
	switch m {
	case Prefix:
		return "prefix"
	case Exact:
		return "exact"
	case Contains:
		return "contains"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Scope names the context a table belongs to.
type Scope string

const (
	ScopeGeneral Scope = "general"
	ScopeBrowser Scope = "browser"
	ScopeEditor  Scope = "document_editor"
)

// Env carries the identity of the currently tracked browser/editor.
type Env struct {
	Browser string
	Editor  string
}

// Request is one matched invocation.
type Request struct {
	Utterance string
	Param     string
	Env       Env
}

// Result is what a handler reports back to the router.
type Result struct {
	OK          bool
	Message     string
	Suggestions []string
}

// Handler executes a matched entry.
type Handler func(ctx context.Context, req Request) Result

// Entry is one trigger phrase.
type Entry struct {
	Trigger  string
	Mode     Mode
	Handler  Handler
	Category string
	// Example is the phrase shown in help and suggestions; defaults to Trigger.
	Example string
	// Accept optionally rejects a parameter so matching continues with
	// shorter triggers or later tables.
	Accept func(param string) bool
}

// Phrase returns the display phrase for catalogues.
func (e Entry) Phrase() string {
	if e.Example != "" {
		return e.Example
	}
	return e.Trigger
}

// Match is a matched entry plus the parameter suffix.
type Match struct {
	Entry Entry
	Param string
	Table string
}

// Table is an immutable, ordered set of entries.
type Table struct {
	name     string
	scope    Scope
	entries  []Entry
	exact    map[string]Entry
	prefix   []Entry
	contains []Entry
}

// NewTable indexes entries. Triggers are normalized; prefix and contains
// triggers are tried longest first, ties keep declaration order.
func NewTable(name string, scope Scope, entries ...Entry) *Table {
	t := &Table{
		name:    name,
		scope:   scope,
		entries: make([]Entry, 0, len(entries)),
		exact:   make(map[string]Entry),
	}
	for _, e := range entries {
		e.Trigger = Normalize(e.Trigger)
		if e.Trigger == "" || e.Handler == nil {
			continue
		}
		t.entries = append(t.entries, e)
		switch e.Mode {
		case Exact:
			if _, dup := t.exact[e.Trigger]; !dup {
				t.exact[e.Trigger] = e
			}
		case Contains:
			t.contains = append(t.contains, e)
		default:
			t.prefix = append(t.prefix, e)
		}
	}
	byLength := func(list []Entry) func(i, j int) bool {
		return func(i, j int) bool { return len(list[i].Trigger) > len(list[j].Trigger) }
	}
	sort.SliceStable(t.prefix, byLength(t.prefix))
	sort.SliceStable(t.contains, byLength(t.contains))
	return t
}

func (t *Table) Name() string { return t.name }

func (t *Table) Scope() Scope { return t.scope }

// Entries returns entries in declaration order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Match finds the entry for utterance: exact entries first, then prefix, then contains.
func (t *Table) Match(utterance string) (Match, bool) {
	if t == nil {
		return Match{}, false
	}
	u := Normalize(utterance)
	if u == "" {
		return Match{}, false
	}

	if e, ok := t.exact[u]; ok && accepts(e, "") {
		return Match{Entry: e, Table: t.name}, true
	}
	for _, e := range t.prefix {
		if param, ok := matchPrefix(u, e.Trigger); ok && accepts(e, param) {
			return Match{Entry: e, Param: param, Table: t.name}, true
		}
	}
	for _, e := range t.contains {
		if param, ok := matchContains(u, e.Trigger); ok && accepts(e, param) {
			return Match{Entry: e, Param: param, Table: t.name}, true
		}
	}
	return Match{}, false
}

func accepts(e Entry, param string) bool {
	return e.Accept == nil || e.Accept(param)
}

func matchPrefix(u string, trigger string) (string, bool) {
	if u == trigger {
		return "", true
	}
	if strings.HasPrefix(u, trigger+" ") {
		return strings.TrimSpace(u[len(trigger)+1:]), true
	}
	return "", false
}

// matchContains requires whole-word containment; the parameter is whatever
// follows the trigger.
func matchContains(u string, trigger string) (string, bool) {
	padded := " " + u + " "
	idx := strings.Index(padded, " "+trigger+" ")
	if idx < 0 {
		return "", false
	}
	rest := padded[idx+len(trigger)+2:]
	return strings.TrimSpace(rest), true
}

// Normalize lower-cases and collapses whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
