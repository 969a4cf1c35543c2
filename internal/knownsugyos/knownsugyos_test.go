package knownsugyos

import "testing"

func TestMatchKnownPhrase(t *testing.T) {
	e, ok := Match("what's the halacha for bedikas chometz this year")
	if !ok || e.Ref != "Pesachim 2a" {
		t.Errorf("Match(bedikas chometz) = (%+v, %v), want Pesachim 2a", e, ok)
	}
}

func TestMatchDoesNotFireOnSubstringWithinOtherWord(t *testing.T) {
	// "mukas etz" must not match "bedikas chometz" or any other phrase via
	// substring containment; these are unrelated topics that merely share
	// letters.
	if _, ok := Match("the laws of mukas etz and damages"); ok {
		t.Error("Match(mukas etz) matched, want no match (word-boundary safety regression)")
	}
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	if _, ok := Match("MUKTZEH on shabbat"); !ok {
		t.Error("Match should be case-insensitive")
	}
}

func TestMatchNoHit(t *testing.T) {
	if _, ok := Match("something entirely unrelated"); ok {
		t.Error("Match found a hit for unrelated text, want none")
	}
}

func TestMatchHebrewTermsExactHit(t *testing.T) {
	e, ok := MatchHebrewTerms([]string{"חזקה"})
	if !ok || e.Ref != "Bava Batra 28a" {
		t.Errorf("MatchHebrewTerms(חזקה) = (%+v, %v), want Bava Batra 28a", e, ok)
	}
}

func TestMatchHebrewTermsRequiresExactMatchNotSubstring(t *testing.T) {
	if _, ok := MatchHebrewTerms([]string{"חזקה גדולה"}); ok {
		t.Error("MatchHebrewTerms matched a superstring, want exact-term match only")
	}
}

func TestMatchHebrewTermsNoHit(t *testing.T) {
	if _, ok := MatchHebrewTerms([]string{"קשקוש"}); ok {
		t.Error("MatchHebrewTerms found a hit for an unrelated term, want none")
	}
}
