package invariants

import (
	"testing"

	"github.com/hyperifyio/sugyasearch/internal/types"
)

func TestCheckStrategyComparisonRequiresTwoTerms(t *testing.T) {
	s := types.Strategy{QueryType: types.QueryTypeComparison, ComparisonTerms: []string{"only-one"}}
	if err := CheckStrategy(s); err == nil {
		t.Error("expected violation for comparison with <2 terms")
	}
}

func TestCheckStrategyDirectRefRequiresSources(t *testing.T) {
	s := types.Strategy{FetchStrategy: types.FetchStrategyDirectRef}
	if err := CheckStrategy(s); err == nil {
		t.Error("expected violation for direct-ref with no primary sources")
	}
}

func TestCheckStrategyLowConfidenceRequiresPrompt(t *testing.T) {
	s := types.Strategy{Confidence: types.ConfidenceLow}
	if err := CheckStrategy(s); err == nil {
		t.Error("expected violation for low confidence with no clarification prompt")
	}
}

func TestCheckStrategyValidPasses(t *testing.T) {
	s := types.Strategy{
		QueryType:      types.QueryTypeConcept,
		FetchStrategy:  types.FetchStrategyDirectRef,
		PrimarySources: []string{"Pesachim 2a"},
		Confidence:     types.ConfidenceHigh,
	}
	if err := CheckStrategy(s); err != nil {
		t.Errorf("unexpected violation: %v", err)
	}
}

func TestCheckSearchResultLevelTotality(t *testing.T) {
	sources := []types.Source{{Ref: "a", Level: types.LevelGemara}}
	r := types.SearchResult{
		Sources:        sources,
		SourcesByLevel: map[types.SourceLevel][]types.Source{types.LevelGemara: sources},
		LevelsPresent:  []types.SourceLevel{types.LevelGemara},
	}
	if err := CheckSearchResultLevelTotality(r); err != nil {
		t.Errorf("unexpected violation: %v", err)
	}
}

func TestCheckSearchResultLevelTotalityDetectsMismatch(t *testing.T) {
	sources := []types.Source{{Ref: "a", Level: types.LevelGemara}}
	r := types.SearchResult{
		Sources:        sources,
		SourcesByLevel: map[types.SourceLevel][]types.Source{types.LevelRashi: sources},
		LevelsPresent:  []types.SourceLevel{types.LevelRashi},
	}
	if err := CheckSearchResultLevelTotality(r); err == nil {
		t.Error("expected violation for mismatched level bucket")
	}
}

func TestCheckComparisonGroupingDisjointDetectsOverlap(t *testing.T) {
	byTerm := map[string][]types.Source{
		"a": {{Ref: "shared"}},
		"b": {{Ref: "shared"}},
	}
	if err := CheckComparisonGroupingDisjoint(byTerm); err == nil {
		t.Error("expected violation for overlapping comparison-term buckets")
	}
}
