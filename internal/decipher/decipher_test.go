package decipher

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperifyio/sugyasearch/internal/corpusclient"
	"github.com/hyperifyio/sugyasearch/internal/dictionary"
	"github.com/hyperifyio/sugyasearch/internal/types"
)

type fakeSearcher struct{ hits map[string]int }

func (f *fakeSearcher) Search(ctx context.Context, hebrewTerm string, size int, filters map[string]any) (corpusclient.SearchResponse, error) {
	return corpusclient.SearchResponse{TotalHits: f.hits[hebrewTerm]}, nil
}

func TestDecipherDoesNotApplyKnownSugyaShortcutItself(t *testing.T) {
	// The known-sugya table maps whole phrases straight to a canonical ref
	// and is UNDERSTAND's shortcut (it reasons over hebrew_terms), not a
	// Word Dictionary hit. DECIPHER must resolve this phrase word-by-word
	// and never mislabel it as a dictionary hit.
	p := NewPipeline(nil, nil)
	res, err := p.Decipher(context.Background(), "what's the halacha on bedikas chometz")
	if err != nil {
		t.Fatalf("Decipher: %v", err)
	}
	if res.Method == types.MethodDictionary {
		t.Errorf("Decipher(known sugya phrase, no dictionary configured) = %+v, want Method != Dictionary", res)
	}
}

func TestDecipherSkipsRetransliteratingAuthorTokens(t *testing.T) {
	p := NewPipeline(nil, nil)
	res, err := p.Decipher(context.Background(), "rashi")
	if err != nil {
		t.Fatalf("Decipher: %v", err)
	}
	if !res.Success || len(res.HebrewTerms) != 1 || res.HebrewTerms[0] != "רש״י" {
		t.Errorf("Decipher(rashi) = %+v, want a single term רש״י from the author anchor, not rule-based translit", res)
	}
}

func TestDecipherBlendsDictionaryRulesAndAuthorAnchors(t *testing.T) {
	dict := dictionary.NewStore(filepath.Join(t.TempDir(), "dict.json"))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := dict.Record("eruv", "עירוב", "manual", now); err != nil {
		t.Fatalf("Record: %v", err)
	}
	p := NewPipeline(dict, nil)
	res, err := p.Decipher(context.Background(), "eruv by rashi חזקה")
	if err != nil {
		t.Fatalf("Decipher: %v", err)
	}
	want := []string{"עירוב", "רש״י", "חזקה"}
	if !res.Success || len(res.HebrewTerms) != len(want) {
		t.Fatalf("Decipher(blended) = %+v, want terms %v", res, want)
	}
	for i, w := range want {
		if res.HebrewTerms[i] != w {
			t.Errorf("HebrewTerms[%d] = %q, want %q", i, res.HebrewTerms[i], w)
		}
	}
	if res.Method != types.MethodMixedExtraction {
		t.Errorf("Method = %v, want MixedExtraction for a dictionary+author+passthrough blend", res.Method)
	}
}

func TestDecipherPureHebrewPassthrough(t *testing.T) {
	p := NewPipeline(nil, nil)
	res, err := p.Decipher(context.Background(), "חזקה")
	if err != nil {
		t.Fatalf("Decipher: %v", err)
	}
	if !res.Success || res.Method != types.MethodPassthrough || res.HebrewTerm != "חזקה" {
		t.Errorf("Decipher(pure Hebrew) = %+v, want passthrough חזקה", res)
	}
}

func TestDecipherDictionaryHit(t *testing.T) {
	dict := dictionary.NewStore(filepath.Join(t.TempDir(), "dict.json"))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := dict.Record("eruv", "עירוב", "manual", now); err != nil {
		t.Fatalf("Record: %v", err)
	}
	p := NewPipeline(dict, nil)
	res, err := p.Decipher(context.Background(), "eruv")
	if err != nil {
		t.Fatalf("Decipher: %v", err)
	}
	if !res.Success || res.HebrewTerm != "עירוב" || res.Method != types.MethodDictionary {
		t.Errorf("Decipher(eruv) = %+v, want dictionary hit עירוב", res)
	}
}

func TestDecipherEmptyQueryFails(t *testing.T) {
	p := NewPipeline(nil, nil)
	res, err := p.Decipher(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Decipher: %v", err)
	}
	if res.Success {
		t.Error("Decipher(empty) succeeded, want failure")
	}
}

func TestDecipherIsIdempotentOnItsOwnOutput(t *testing.T) {
	dict := dictionary.NewStore(filepath.Join(t.TempDir(), "dict.json"))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = dict.Record("eruv", "עירוב", "manual", now)
	p := NewPipeline(dict, nil)

	first, err := p.Decipher(context.Background(), "eruv")
	if err != nil {
		t.Fatalf("Decipher first pass: %v", err)
	}
	second, err := p.Decipher(context.Background(), first.HebrewTerm)
	if err != nil {
		t.Fatalf("Decipher second pass: %v", err)
	}
	if second.HebrewTerm != first.HebrewTerm || second.Method != types.MethodPassthrough {
		t.Errorf("Decipher not idempotent: first=%+v second=%+v", first, second)
	}
}

func TestDecipherRulesPathWithZeroHitsFails(t *testing.T) {
	// A candidate with zero validated corpus hits must not be selected;
	// with nothing else to fall back on, the whole query fails.
	searcher := &fakeSearcher{hits: map[string]int{}}
	p := NewPipeline(nil, searcher)
	res, err := p.Decipher(context.Background(), "chazakas")
	if err != nil {
		t.Fatalf("Decipher: %v", err)
	}
	if res.Success {
		t.Errorf("Decipher(chazakas, zero corpus hits) = %+v, want Success=false", res)
	}
}

func TestDecipherRulesPathWithValidatorSucceedsOnNonZeroHits(t *testing.T) {
	searcher := &fakeSearcher{hits: map[string]int{"ת": 4}}
	p := NewPipeline(nil, searcher)
	res, err := p.Decipher(context.Background(), "chazakas")
	if err != nil {
		t.Fatalf("Decipher: %v", err)
	}
	if !res.Success || len(res.HebrewTerms) == 0 {
		t.Errorf("Decipher(chazakas, validated hits) = %+v, want a successful rules-based result", res)
	}
}
