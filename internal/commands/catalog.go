package commands

// CatalogEntry describes one speakable phrase for help and suggestions.
type CatalogEntry struct {
	Phrase   string
	Category string
	Scope    Scope
	Table    string
}

// Catalog lists the phrases reachable from scope, most specific table first.
// Duplicate phrases keep their first occurrence.
func (s *Set) Catalog(scope Scope) []CatalogEntry {
	seen := make(map[string]struct{})
	out := make([]CatalogEntry, 0, 128)
	for _, t := range s.Chain(scope) {
		if t == nil {
			continue
		}
		for _, e := range t.entries {
			phrase := e.Phrase()
			if _, ok := seen[phrase]; ok {
				continue
			}
			seen[phrase] = struct{}{}
			out = append(out, CatalogEntry{
				Phrase:   phrase,
				Category: e.Category,
				Scope:    t.scope,
				Table:    t.name,
			})
		}
	}
	return out
}

// Phrases is Catalog reduced to the phrase strings.
func (s *Set) Phrases(scope Scope) []string {
	entries := s.Catalog(scope)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Phrase)
	}
	return out
}
