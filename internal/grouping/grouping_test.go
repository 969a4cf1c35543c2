package grouping

import (
	"testing"

	"github.com/hyperifyio/sugyasearch/internal/types"
)

func TestDedupeDropsLaterDuplicates(t *testing.T) {
	in := []types.Source{
		{Ref: "Pesachim 4b", English: "first"},
		{Ref: "Pesachim 4b", English: "second"},
		{Ref: "Shabbat 44a", English: "third"},
	}
	out := Dedupe(in)
	if len(out) != 2 {
		t.Fatalf("Dedupe = %d entries, want 2", len(out))
	}
	if out[0].English != "first" {
		t.Errorf("Dedupe kept %q, want first occurrence kept", out[0].English)
	}
}

func TestSortDeterministicIsStableAcrossRuns(t *testing.T) {
	in := []types.Source{
		{Ref: "Z", Level: types.LevelAcharonim},
		{Ref: "A", Level: types.LevelGemara},
		{Ref: "B", Level: types.LevelGemara},
	}
	a := append([]types.Source(nil), in...)
	b := append([]types.Source(nil), in...)
	SortDeterministic(a)
	SortDeterministic(b)
	for i := range a {
		if a[i].Ref != b[i].Ref {
			t.Fatalf("non-deterministic ordering at %d: %v vs %v", i, a, b)
		}
	}
	if a[0].Level != types.LevelGemara {
		t.Errorf("expected gemara level to sort before acharonim, got %v first", a[0].Level)
	}
}

func TestLevelsPresentOnlyIncludesUsedLevels(t *testing.T) {
	in := []types.Source{
		{Ref: "A", Level: types.LevelRashi},
		{Ref: "B", Level: types.LevelRashi},
	}
	levels := LevelsPresent(in)
	if len(levels) != 1 || levels[0] != types.LevelRashi {
		t.Errorf("LevelsPresent = %v, want [rashi]", levels)
	}
}

func TestGroupByComparisonTermIsDisjoint(t *testing.T) {
	in := []types.Source{
		{Ref: "A", English: "discusses chametz at length"},
		{Ref: "B", English: "discusses matzah instead"},
		{Ref: "C", English: "unrelated topic entirely"},
	}
	groups := GroupByComparisonTerm(in, []string{"chametz", "matzah"})
	seen := map[string]bool{}
	for _, bucket := range groups {
		for _, s := range bucket {
			if seen[s.Ref] {
				t.Errorf("ref %q assigned to more than one bucket", s.Ref)
			}
			seen[s.Ref] = true
		}
	}
	if len(groups["chametz"]) != 1 || len(groups["matzah"]) != 1 || len(groups[""]) != 1 {
		t.Errorf("GroupByComparisonTerm = %v, want one each in chametz/matzah/unassigned", groups)
	}
}

func TestGroupByComparisonTermPicksHighestFrequencyNotFirstMatch(t *testing.T) {
	// "matzah" appears once but "chametz" appears three times; the source
	// must land in the chametz bucket even though matzah is mentioned too
	// and even though chametz is listed second in terms.
	in := []types.Source{
		{Ref: "A", English: "chametz chametz chametz and a little matzah"},
	}
	groups := GroupByComparisonTerm(in, []string{"matzah", "chametz"})
	if len(groups["chametz"]) != 1 || len(groups["matzah"]) != 0 {
		t.Errorf("GroupByComparisonTerm = %v, want source in chametz bucket by frequency", groups)
	}
}

func TestGroupByComparisonTermTiesBreakToFirstTerm(t *testing.T) {
	in := []types.Source{
		{Ref: "A", English: "chametz once and matzah once"},
	}
	groups := GroupByComparisonTerm(in, []string{"matzah", "chametz"})
	if len(groups["matzah"]) != 1 || len(groups["chametz"]) != 0 {
		t.Errorf("GroupByComparisonTerm = %v, want tie broken to first term (matzah)", groups)
	}
}
