package alias

import (
	"sort"
	"strings"
)

// DefaultThreshold is the minimum similarity a fuzzy candidate must exceed.
const DefaultThreshold = 0.6

// Ratio returns the Ratcliff/Obershelp similarity of a and b in [0,1]:
// twice the number of matched runes over the total rune count, where matches
// are found by recursively taking the longest common block.
func Ratio(a string, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(ra, rb)) / float64(total)
}

func matchingRunes(a []rune, b []rune) int {
	type span struct{ alo, ahi, blo, bhi int }

	matched := 0
	queue := []span{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b, s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		matched += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return matched
}

// longestMatch finds the longest common block in a[alo:ahi] and b[blo:bhi],
// preferring the earliest start in a, then in b.
func longestMatch(a []rune, b []rune, alo, ahi, blo, bhi int) (int, int, int) {
	bestI, bestJ, bestK := alo, blo, 0
	prev := make([]int, bhi-blo+1)
	curr := make([]int, bhi-blo+1)
	for i := alo; i < ahi; i++ {
		for j := blo; j < bhi; j++ {
			col := j - blo + 1
			if a[i] != b[j] {
				curr[col] = 0
				continue
			}
			curr[col] = prev[col-1] + 1
			if curr[col] > bestK {
				bestK = curr[col]
				bestI = i - bestK + 1
				bestJ = j - bestK + 1
			}
		}
		prev, curr = curr, prev
	}
	return bestI, bestJ, bestK
}

// Suggest returns up to max candidates whose similarity to name exceeds
// threshold, best first. Equal scores keep candidate order.
func Suggest(name string, candidates []string, max int, threshold float64) []string {
	if max <= 0 {
		return nil
	}
	query := Normalize(name)
	if query == "" {
		return nil
	}

	type scored struct {
		name  string
		score float64
	}
	seen := make(map[string]struct{}, len(candidates))
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		score := Ratio(query, strings.ToLower(c))
		if score > threshold {
			ranked = append(ranked, scored{name: c, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > max {
		ranked = ranked[:max]
	}
	out := make([]string, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, s.name)
	}
	return out
}

// BestMatch returns the single best candidate above threshold.
func BestMatch(name string, candidates []string, threshold float64) (string, bool) {
	best := Suggest(name, candidates, 1, threshold)
	if len(best) == 0 {
		return "", false
	}
	return best[0], true
}
