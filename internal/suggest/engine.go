// Package suggest ranks candidate commands for partial input.
package suggest

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/rbright/hark/internal/commands"
	"github.com/rbright/hark/internal/contextstate"
	"github.com/rbright/hark/internal/router"
)

const DefaultLimit = 5

// TableSource returns the current command tables.
type TableSource interface {
	Commands() *commands.Set
}

// TargetSource lists canonical application names for "open" expansions.
type TargetSource interface {
	Targets() []string
}

// Engine is read-only and safe for concurrent use.
type Engine struct {
	tables  TableSource
	targets TargetSource
}

func New(tables TableSource, targets TargetSource) *Engine {
	return &Engine{tables: tables, targets: targets}
}

// Suggest returns at most limit phrases for partial in context c. An empty
// partial yields the context's example commands.
func (e *Engine) Suggest(partial string, c contextstate.Context, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	scope := router.ScopeFor(c)
	p := commands.Normalize(partial)
	if p == "" {
		return capped(router.Hints(scope), limit)
	}

	out := make([]string, 0, limit)
	seen := make(map[string]struct{})
	add := func(s string) {
		if _, ok := seen[s]; ok || len(out) >= limit {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if rest, ok := cutOpen(p); ok && e.targets != nil {
		for _, name := range rankTargets(rest, e.targets.Targets()) {
			add("open " + name)
		}
	}

	var phrases []string
	if e.tables != nil {
		if set := e.tables.Commands(); set != nil {
			phrases = set.Phrases(scope)
		}
	}
	for _, m := range fuzzy.Find(p, phrases) {
		add(m.Str)
	}
	return out
}

func cutOpen(p string) (string, bool) {
	if p == "open" {
		return "", true
	}
	if strings.HasPrefix(p, "open ") {
		return strings.TrimSpace(p[len("open "):]), true
	}
	return "", false
}

// rankTargets keeps catalogue order for an empty query.
func rankTargets(query string, targets []string) []string {
	if query == "" {
		return targets
	}
	matches := fuzzy.Find(query, targets)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return out
}

func capped(list []string, limit int) []string {
	if len(list) > limit {
		list = list[:limit]
	}
	return append([]string(nil), list...)
}
