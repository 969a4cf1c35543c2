// Package decipher turns a free-text query into a set of Hebrew terms,
// blending the confirmed Word Dictionary (accepted as-is) with
// transliteration-rules-plus-corpus-validation for anything the dictionary
// didn't cover, and treating recognized author names as lexical anchors
// rather than transliteration targets. The known-sugyos shortcut is a
// separate, cheaper check that belongs to UNDERSTAND, not here: DECIPHER
// only ever reasons about word-level Hebrew resolution. The
// blend-then-fallback-per-word shape mirrors the teacher's internal/app
// query planning facade: a fast deterministic path with a documented
// fallback whenever the fast path comes up short.
package decipher

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/hyperifyio/sugyasearch/internal/authors"
	"github.com/hyperifyio/sugyasearch/internal/dictionary"
	"github.com/hyperifyio/sugyasearch/internal/translit"
	"github.com/hyperifyio/sugyasearch/internal/types"
	"github.com/hyperifyio/sugyasearch/internal/validator"
)

// hebrewLetterRe matches any Hebrew-block codepoint, used to classify a
// query as pure-Hebrew, pure-English, or mixed.
var hebrewLetterRe = regexp.MustCompile(`\p{Hebrew}`)

// Pipeline runs DECIPHER: dictionary-span lookup, author-anchor
// recognition, then transliteration-rules-plus-corpus-validation for any
// word none of those resolved.
type Pipeline struct {
	Dictionary *dictionary.Store
	Translit   *translit.Registry
	Validator  validator.Searcher
}

// NewPipeline wires a Pipeline with the default translit registry.
func NewPipeline(dict *dictionary.Store, searcher validator.Searcher) *Pipeline {
	return &Pipeline{Dictionary: dict, Translit: translit.NewRegistry(), Validator: searcher}
}

// Decipher classifies query and resolves it to one or more Hebrew terms.
// Decipher is idempotent: feeding its own HebrewTerm back in as the query
// returns the same HebrewTerm (as a single passthrough term) with
// Method=passthrough.
func (p *Pipeline) Decipher(ctx context.Context, query string) (types.DecipherResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return types.DecipherResult{
			Success:       false,
			OriginalQuery: query,
			Method:        types.MethodFailed,
			Message:       "empty query",
		}, nil
	}

	if isPureHebrew(trimmed) {
		return types.DecipherResult{
			Success:       true,
			HebrewTerm:    trimmed,
			HebrewTerms:   []string{trimmed},
			Confidence:    types.ConfidenceHigh,
			Method:        types.MethodPassthrough,
			OriginalQuery: query,
			PureEnglish:   false,
		}, nil
	}

	words := strings.Fields(trimmed)
	pureEnglish := isPureEnglish(trimmed)

	return p.decipherBlended(ctx, query, trimmed, words, pureEnglish)
}

// decipherBlended implements the DECIPHER extraction chain: Word
// Dictionary spans are accepted as-is, author tokens are treated as
// lexical anchors and never retransliterated, and everything left over
// goes through the transliteration rules plus corpus validation. A word
// that resolves through none of these contributes nothing, so partial
// coverage is normal; only a query that resolves to zero terms overall
// fails.
func (p *Pipeline) decipherBlended(ctx context.Context, original, trimmed string, words []string, pureEnglish bool) (types.DecipherResult, error) {
	spans, err := p.dictionarySpans(trimmed)
	if err != nil {
		return types.DecipherResult{}, err
	}

	var validations []types.WordValidation
	var terms []string
	var usedDictionary, usedRules, usedAuthorAnchor bool
	anyLowConfidence := false
	anyValidated := false

	for _, span := range spans {
		if span.Entry != nil {
			terms = append(terms, span.Entry.Hebrew)
			usedDictionary = true
			continue
		}

		w := span.Words[0]
		if hebrewLetterRe.MatchString(w) {
			terms = append(terms, w)
			continue
		}
		if authors.IsAuthor(w) {
			// Do not try to retransliterate a known author's name (e.g.
			// "rashi"); treat it as a lexical anchor instead.
			usedAuthorAnchor = true
			if a, ok := authors.Matches(w); ok && a.NativeName != "" {
				terms = append(terms, a.NativeName)
			}
			continue
		}

		var candidates []translit.Candidate
		if p.Translit != nil {
			candidates = p.Translit.Candidates(w)
		}
		if len(candidates) == 0 {
			continue
		}
		if p.Validator == nil {
			terms = append(terms, candidates[0].Hebrew)
			usedRules = true
			continue
		}
		v, err := validator.Validate(ctx, p.Validator, w, candidates)
		if err != nil {
			return types.DecipherResult{}, err
		}
		validations = append(validations, v)
		anyValidated = true
		usedRules = true
		if v.NeedsValidation {
			anyLowConfidence = true
		}
		if v.BestHebrew != "" {
			terms = append(terms, v.BestHebrew)
		}
	}

	if len(terms) == 0 {
		return types.DecipherResult{
			Success:             false,
			OriginalQuery:       original,
			Method:              types.MethodFailed,
			Confidence:          types.ConfidenceLow,
			Message:             "could not resolve any term to Hebrew",
			WordValidations:     validations,
			NeedsValidation:     true,
			PureEnglish:         pureEnglish,
			ExtractionConfident: false,
		}, nil
	}

	confidence := types.ConfidenceHigh
	if anyLowConfidence {
		confidence = types.ConfidenceLow
	} else if anyValidated {
		confidence = types.ConfidenceMedium
	}

	// A query is mixed-extraction whenever more than one kind of source
	// (dictionary span, rules-based translit, author anchor) contributed
	// terms, or whenever an author anchor stood alone: a dictionary-only
	// result is reported as Dictionary, a rules-only result as Rules,
	// everything else as mixed.
	method := types.MethodRules
	switch {
	case usedDictionary && !usedRules && !usedAuthorAnchor:
		method = types.MethodDictionary
	case usedDictionary || usedAuthorAnchor:
		method = types.MethodMixedExtraction
	}

	isMixed := !pureEnglish
	return types.DecipherResult{
		Success:             true,
		HebrewTerm:          strings.Join(terms, " "),
		HebrewTerms:         terms,
		Confidence:          confidence,
		Method:              method,
		IsMixedQuery:        isMixed,
		OriginalQuery:       original,
		ExtractionConfident: !anyLowConfidence,
		WordValidations:     validations,
		NeedsValidation:     anyLowConfidence,
		PureEnglish:         pureEnglish,
	}, nil
}

// dictionarySpans runs the Word Dictionary's greedy longest-match scan when
// a dictionary is configured; otherwise every word is its own unmatched
// span so the rest of the pipeline behaves identically either way.
func (p *Pipeline) dictionarySpans(trimmed string) ([]dictionary.Span, error) {
	if p.Dictionary == nil {
		words := strings.Fields(trimmed)
		spans := make([]dictionary.Span, len(words))
		for i, w := range words {
			spans[i] = dictionary.Span{Words: []string{w}}
		}
		return spans, nil
	}
	return p.Dictionary.LookupSpans(trimmed)
}

func isPureHebrew(s string) bool {
	sawHebrew := false
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		if unicode.Is(unicode.Hebrew, r) {
			sawHebrew = true
			continue
		}
		return false
	}
	return sawHebrew
}

func isPureEnglish(s string) bool {
	return !hebrewLetterRe.MatchString(s)
}
