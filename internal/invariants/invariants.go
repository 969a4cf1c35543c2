// Package invariants holds runtime checks for the cross-cutting properties
// the rest of the pipeline promises: Strategy's enum-dependent field
// requirements and SearchResult's level-grouping totality. These are
// assertions used in tests and as defensive checks at pipeline
// boundaries, not user-facing validation.
package invariants

import (
	"errors"

	"github.com/hyperifyio/sugyasearch/internal/types"
)

// CheckStrategy reports the first violated Strategy invariant, or nil if
// strategy is internally consistent.
func CheckStrategy(s types.Strategy) error {
	if s.QueryType == types.QueryTypeComparison && len(s.ComparisonTerms) < 2 {
		return errors.New("invariants: comparison query_type requires >=2 comparison_terms")
	}
	if s.FetchStrategy == types.FetchStrategyDirectRef && len(s.PrimarySources) == 0 {
		return errors.New("invariants: direct-ref fetch_strategy requires non-empty primary_sources")
	}
	if s.Confidence == types.ConfidenceLow && s.ClarificationPrompt == "" {
		return errors.New("invariants: low confidence requires a clarification_prompt")
	}
	return nil
}

// CheckSearchResultLevelTotality reports an error if SourcesByLevel and
// LevelsPresent disagree with Sources, or if any level bucket contains a
// source whose Level field doesn't match its bucket key.
func CheckSearchResultLevelTotality(r types.SearchResult) error {
	bucketed := 0
	for level, sources := range r.SourcesByLevel {
		for _, s := range sources {
			if s.Level != level {
				return errors.New("invariants: source placed under the wrong level bucket")
			}
		}
		bucketed += len(sources)
	}
	if bucketed != len(r.Sources) {
		return errors.New("invariants: SourcesByLevel does not account for every source")
	}
	presentSet := map[types.SourceLevel]bool{}
	for _, lvl := range r.LevelsPresent {
		presentSet[lvl] = true
	}
	for level, sources := range r.SourcesByLevel {
		if len(sources) > 0 && !presentSet[level] {
			return errors.New("invariants: LevelsPresent missing a level that has sources")
		}
	}
	return nil
}

// CheckComparisonGroupingDisjoint reports an error if any source ref
// appears in more than one comparison-term bucket.
func CheckComparisonGroupingDisjoint(byTerm map[string][]types.Source) error {
	seen := map[string]string{}
	for term, sources := range byTerm {
		for _, s := range sources {
			if owner, ok := seen[s.Ref]; ok && owner != term {
				return errors.New("invariants: ref assigned to more than one comparison-term bucket")
			}
			seen[s.Ref] = term
		}
	}
	return nil
}
