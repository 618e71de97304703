// Package alias maps loose spoken application names to canonical targets.
package alias

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entry is one spoken alias and the canonical target it resolves to.
type Entry struct {
	Alias  string `yaml:"alias" validate:"required,max=64"`
	Target string `yaml:"target" validate:"required,max=128"`
}

// Resolver resolves spoken names against the built-in table plus a user overlay.
//
// User entries override built-in targets in place; new user aliases are
// appended after the built-in table.
type Resolver struct {
	mu      sync.RWMutex
	base    []Entry
	user    []Entry
	order   []string
	targets map[string]string
}

// NewResolver builds a resolver over base entries.
func NewResolver(base []Entry) *Resolver {
	r := &Resolver{
		base: normalizeEntries(base),
	}
	r.rebuild()
	return r
}

// Default builds a resolver over the shipped alias table.
func Default() *Resolver {
	return NewResolver(builtin)
}

// Resolve maps name to a canonical target. It never fails: unknown names fall
// back to title case, and names with nothing to normalize come back as given,
// so a non-empty input never yields an empty result.
func (r *Resolver) Resolve(name string) string {
	key := Normalize(name)
	if key == "" {
		return name
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if target, ok := r.targets[key]; ok {
		return target
	}
	for _, a := range r.order {
		if strings.Contains(a, key) || strings.Contains(key, a) {
			return r.targets[a]
		}
	}
	return titleCase(key)
}

// titleCase builds a fresh Caser per call; a Caser is not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// Lookup reports the exact-match target for name.
func (r *Resolver) Lookup(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	target, ok := r.targets[Normalize(name)]
	return target, ok
}

// PartialMatches returns distinct targets whose alias partially matches name,
// in table order.
func (r *Resolver) PartialMatches(name string) []string {
	key := Normalize(name)
	if key == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, a := range r.order {
		if !strings.Contains(a, key) && !strings.Contains(key, a) {
			continue
		}
		target := r.targets[a]
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// Add registers or overrides one user alias.
func (r *Resolver) Add(aliasName string, target string) error {
	key := Normalize(aliasName)
	target = strings.TrimSpace(target)
	if key == "" {
		return errors.New("alias must not be empty")
	}
	if target == "" {
		return errors.New("alias target must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.user {
		if r.user[i].Alias == key {
			r.user[i].Target = target
			r.rebuild()
			return nil
		}
	}
	r.user = append(r.user, Entry{Alias: key, Target: target})
	r.rebuild()
	return nil
}

// SetUser replaces the whole user overlay, e.g. after the alias file changed.
func (r *Resolver) SetUser(entries []Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = normalizeEntries(entries)
	r.rebuild()
}

// Entries returns the effective alias table in match order.
func (r *Resolver) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.order))
	for _, a := range r.order {
		out = append(out, Entry{Alias: a, Target: r.targets[a]})
	}
	return out
}

// Targets returns distinct canonical names in match order.
func (r *Resolver) Targets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.order))
	out := make([]string, 0, len(r.order))
	for _, a := range r.order {
		target := r.targets[a]
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// rebuild recomputes the effective order; caller holds the write lock.
func (r *Resolver) rebuild() {
	targets := make(map[string]string, len(r.base)+len(r.user))
	order := make([]string, 0, len(r.base)+len(r.user))
	for _, e := range r.base {
		if _, ok := targets[e.Alias]; !ok {
			order = append(order, e.Alias)
		}
		targets[e.Alias] = e.Target
	}
	for _, e := range r.user {
		if _, ok := targets[e.Alias]; !ok {
			order = append(order, e.Alias)
		}
		targets[e.Alias] = e.Target
	}
	r.order = order
	r.targets = targets
}

// Normalize lower-cases name and collapses internal whitespace.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func normalizeEntries(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		key := Normalize(e.Alias)
		target := strings.TrimSpace(e.Target)
		if key == "" || target == "" {
			continue
		}
		out = append(out, Entry{Alias: key, Target: target})
	}
	return out
}
