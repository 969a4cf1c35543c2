// Package grouping orders and groups Source records by canonical-level and
// comparison-term adjacency, the same merge/dedupe/normalize discipline as
// the teacher's internal/aggregate.MergeAndNormalize and internal/select.Select,
// applied here to corpus refs instead of search-result URLs: dedupe by
// canonical ref, then stable-sort deterministically.
package grouping

import (
	"sort"
	"strings"

	"github.com/hyperifyio/sugyasearch/internal/types"
)

// Dedupe merges sources, keeping the first occurrence of each canonical
// ref and dropping later duplicates.
func Dedupe(sources []types.Source) []types.Source {
	seen := map[string]struct{}{}
	out := make([]types.Source, 0, len(sources))
	for _, s := range sources {
		if s.Ref == "" {
			continue
		}
		if _, ok := seen[s.Ref]; ok {
			continue
		}
		seen[s.Ref] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SortDeterministic orders sources by source level in canonical total
// order, then by ref, so two identical requests over warm caches produce
// byte-identical ordering. Hit counts play no part in the order.
func SortDeterministic(sources []types.Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].Level != sources[j].Level {
			return types.LevelLess(sources[i].Level, sources[j].Level)
		}
		return sources[i].Ref < sources[j].Ref
	})
}

// ByLevel buckets sources under their SourceLevel, omitting levels with no
// sources (level totality: every level present in the input appears in the
// output, and only those). The map carries no order; LevelsPresent gives
// the canonical level order.
func ByLevel(sources []types.Source) map[types.SourceLevel][]types.Source {
	out := make(map[types.SourceLevel][]types.Source)
	for _, s := range sources {
		out[s.Level] = append(out[s.Level], s)
	}
	return out
}

// LevelsPresent returns the distinct levels present in sources, in
// canonical total order.
func LevelsPresent(sources []types.Source) []types.SourceLevel {
	present := map[types.SourceLevel]bool{}
	for _, s := range sources {
		present[s.Level] = true
	}
	var out []types.SourceLevel
	for _, lvl := range types.AllLevels {
		if present[lvl] {
			out = append(out, lvl)
		}
	}
	return out
}

// GroupByComparisonTerm partitions sources by which comparison term (from
// Strategy.ComparisonTerms) is mentioned most often in their combined
// Hebrew+English text. A source is assigned to the term with the highest
// term-frequency in its body, ties breaking to the first term in terms
// order; a source that mentions none of the terms goes to "" (unassigned)
// -- buckets are therefore disjoint by construction.
func GroupByComparisonTerm(sources []types.Source, terms []string) map[string][]types.Source {
	out := make(map[string][]types.Source)
	for _, s := range sources {
		body := strings.ToLower(s.English + " " + s.Hebrew)
		assigned := ""
		bestCount := 0
		for _, term := range terms {
			n := termFrequency(body, term)
			if n > bestCount {
				bestCount = n
				assigned = term
			}
		}
		out[assigned] = append(out[assigned], s)
	}
	return out
}

// termFrequency counts non-overlapping occurrences of term within body
// (both already lowercased).
func termFrequency(body, term string) int {
	term = strings.ToLower(term)
	if term == "" || body == "" {
		return 0
	}
	count := 0
	for {
		idx := strings.Index(body, term)
		if idx < 0 {
			break
		}
		count++
		body = body[idx+len(term):]
	}
	return count
}
