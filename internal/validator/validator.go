// Package validator scores candidate Hebrew spellings against the live
// corpus, fanning out a bounded number of searches concurrently. The
// bounded fan-out replaces the teacher's internal/fetch.Client hand-rolled
// acquire/release channel semaphore with golang.org/x/sync/errgroup's
// SetLimit, the pack's idiomatic way of capping concurrent work.
package validator

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/sugyasearch/internal/authors"
	"github.com/hyperifyio/sugyasearch/internal/corpusclient"
	"github.com/hyperifyio/sugyasearch/internal/translit"
	"github.com/hyperifyio/sugyasearch/internal/types"
)

// MaxCandidates bounds how many translit candidates are sent to the corpus
// per token; the Cartesian combination in internal/translit can propose
// more than this is worth validating.
const MaxCandidates = 15

// MaxConcurrent bounds simultaneous corpus searches per Validate call.
const MaxConcurrent = 8

// Searcher is the subset of corpusclient.Client the validator needs,
// narrowed for testability.
type Searcher interface {
	Search(ctx context.Context, hebrewTerm string, size int, filters map[string]any) (corpusclient.SearchResponse, error)
}

// scored pairs a translit candidate with its corpus hit count and any
// author-match boost.
type scored struct {
	candidate translit.Candidate
	hits      int
	score     float64
}

// Validate scores up to MaxCandidates Hebrew candidates for token against
// the live corpus and returns a types.WordValidation summarizing the best
// match, alternatives, and overall confidence.
func Validate(ctx context.Context, client Searcher, token string, candidates []translit.Candidate) (types.WordValidation, error) {
	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	if len(candidates) == 0 {
		return types.WordValidation{
			Token:           token,
			Confidence:      types.ValidationLow,
			NeedsValidation: true,
		}, nil
	}

	results := make([]scored, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrent)
	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			resp, err := client.Search(gctx, cand.Hebrew, 5, nil)
			if err != nil {
				results[i] = scored{candidate: cand, hits: 0, score: cand.Confidence}
				return nil // a single failed lookup degrades that candidate, not the whole validation
			}
			boost := 0.0
			if authors.IsAuthor(cand.Hebrew) {
				boost = 1e12 // far above any hits*confidence a generic word reaches
			}
			score := float64(resp.TotalHits)*cand.Confidence + boost
			results[i] = scored{candidate: cand, hits: resp.TotalHits, score: score}
			return nil
		})
	}
	_ = g.Wait()

	// Spec requires filtering out zero-hit entries before picking the best
	// candidate; a zero-hit spelling is never an acceptable answer even if
	// its raw rule confidence was high.
	withHits := results[:0:0]
	for _, r := range results {
		if r.hits > 0 {
			withHits = append(withHits, r)
		}
	}
	if len(withHits) == 0 {
		return types.WordValidation{
			Token:           token,
			Confidence:      types.ValidationLow,
			NeedsValidation: true,
		}, nil
	}

	sort.SliceStable(withHits, func(i, j int) bool {
		return withHits[i].score > withHits[j].score
	})

	best := withHits[0]
	var alternatives []string
	var rulesFired []string
	seenAlt := map[string]bool{best.candidate.Hebrew: true}
	for _, r := range withHits[1:] {
		if !seenAlt[r.candidate.Hebrew] {
			seenAlt[r.candidate.Hebrew] = true
			alternatives = append(alternatives, r.candidate.Hebrew)
		}
	}
	rulesFired = append(rulesFired, best.candidate.RulesFired...)

	confidence := types.ValidationLow
	needsValidation := true
	switch {
	case best.hits >= 3:
		confidence = types.ValidationHigh
		needsValidation = false
	case best.hits >= 1:
		confidence = types.ValidationMedium
		needsValidation = false
	}

	return types.WordValidation{
		Token:           token,
		BestHebrew:      best.candidate.Hebrew,
		Alternatives:    alternatives,
		Confidence:      confidence,
		NeedsValidation: needsValidation,
		RulesFired:      dedupeStrings(rulesFired),
	}, nil
}

func dedupeStrings(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
