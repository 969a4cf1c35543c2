// Package understand turns a DECIPHER result and corpus statistics into a
// Strategy: which sources to fetch, how deep to go, and whether
// clarification is needed. It calls an LLM for the strategic judgment call
// and falls back to a deterministic strategy when the LLM is unavailable
// or returns unusable output, the same LLM-first-then-deterministic-
// fallback shape as the teacher's internal/planner.LLMPlanner /
// FallbackPlanner pair.
package understand

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"github.com/hyperifyio/sugyasearch/internal/cache"
	"github.com/hyperifyio/sugyasearch/internal/knownsugyos"
	"github.com/hyperifyio/sugyasearch/internal/llm"
	"github.com/hyperifyio/sugyasearch/internal/types"
)

// CorpusProfile summarizes what the corpus returned for the deciphered
// term(s), the input UNDERSTAND reasons over.
type CorpusProfile struct {
	TotalHits  int
	ByCategory map[string]int
	ByTractate map[string]int
	TopRefs    []string
}

// Pipeline runs UNDERSTAND: known-sugya shortcut, then LLM strategy call
// with deterministic fallback.
type Pipeline struct {
	Client llm.Client
	Model  string
	Cache  *cache.Store
}

func NewPipeline(client llm.Client, model string, store *cache.Store) *Pipeline {
	return &Pipeline{Client: client, Model: model, Cache: store}
}

// Understand produces a Strategy for query given its deciphered Hebrew
// term(s) and the corpus profile gathered for them.
func (p *Pipeline) Understand(ctx context.Context, query string, decipherResult types.DecipherResult, profile CorpusProfile) (types.Strategy, error) {
	if entry, ok := knownsugyos.Match(query); ok {
		return knownSugyaStrategy(entry), nil
	}
	if entry, ok := knownsugyos.MatchHebrewTerms(decipherResult.HebrewTerms); ok {
		return knownSugyaStrategy(entry), nil
	}

	strat, err := p.understandViaLLM(ctx, query, decipherResult, profile)
	if err == nil {
		if verr := validateStrategy(strat); verr == nil {
			strat.Finalize()
			return strat, nil
		}
	}
	strat = fallbackStrategy(decipherResult, profile)
	strat.Finalize()
	return strat, nil
}

// knownSugyaStrategy builds the deterministic shortcut Strategy for a
// matched known-sugya table entry.
func knownSugyaStrategy(entry knownsugyos.Entry) types.Strategy {
	strat := types.Strategy{
		QueryType:      types.QueryTypeConcept,
		PrimarySources: []string{entry.Ref},
		FetchStrategy:  types.FetchStrategyDirectRef,
		Depth:          types.DepthStandard,
		Confidence:     types.ConfidenceHigh,
		Reasoning:      "matched known sugya table",
	}
	strat.Finalize()
	return strat
}

func systemPrompt() string {
	return "You are a Talmudic research strategist. Respond with strict JSON only, no narration, no markdown code fences. " +
		"The JSON schema is: {\"query_type\": one of concept|sugya-reference|author-citation|comparison|halachic-practice|unknown, " +
		"\"primary_sources\": string[], \"target_authors\": string[], \"comparison_terms\": string[], " +
		"\"fetch_strategy\": one of trickle-up|trickle-down|direct-ref|broad-scan, " +
		"\"depth\": one of basic|standard|deep, \"confidence\": one of high|medium|low, " +
		"\"reasoning\": string, \"clarification_prompt\": string, \"needs_clarification\": bool}. " +
		"If query_type is comparison, comparison_terms must have at least two entries. " +
		"If confidence is low, clarification_prompt must be set and needs_clarification true."
}

func userPrompt(query string, decipherResult types.DecipherResult, profile CorpusProfile) string {
	var sb strings.Builder
	sb.WriteString("Original query: ")
	sb.WriteString(query)
	sb.WriteString("\nHebrew term(s): ")
	sb.WriteString(strings.Join(decipherResult.HebrewTerms, ", "))
	sb.WriteString(fmt.Sprintf("\nCorpus total hits: %d", profile.TotalHits))
	if len(profile.TopRefs) > 0 {
		sb.WriteString("\nTop refs: " + strings.Join(profile.TopRefs, "; "))
	}
	for cat, n := range profile.ByCategory {
		sb.WriteString(fmt.Sprintf("\nCategory %s: %d", cat, n))
	}
	return sb.String()
}

func (p *Pipeline) understandViaLLM(ctx context.Context, query string, decipherResult types.DecipherResult, profile CorpusProfile) (types.Strategy, error) {
	if p.Client == nil || p.Model == "" {
		return types.Strategy{}, errors.New("understand: llm not configured")
	}
	system := systemPrompt()
	user := userPrompt(query, decipherResult, profile)

	var cacheKey string
	if p.Cache != nil {
		cacheKey = cache.KeyFrom(p.Model, system, user)
		if raw, ok, _ := p.Cache.Get(cacheKey); ok {
			var strat types.Strategy
			if err := json.Unmarshal(raw, &strat); err == nil {
				return strat, nil
			}
		}
	}

	resp, err := p.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.1,
		N:           1,
	})
	if err != nil {
		return types.Strategy{}, fmt.Errorf("understand: llm call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return types.Strategy{}, errors.New("understand: no choices")
	}

	raw := resp.Choices[0].Message.Content
	strat, err := parseStrategyJSON(raw)
	if err != nil {
		return types.Strategy{}, err
	}

	if p.Cache != nil && cacheKey != "" {
		if b, merr := json.Marshal(strat); merr == nil {
			_ = p.Cache.Set(cacheKey, b)
		}
	}
	return strat, nil
}

// parseStrategyJSON strips code fences, parses strict JSON, and falls back
// to a lenient gjson-based field extraction with bracket-balance repair
// when the model wraps or truncates its output.
func parseStrategyJSON(raw string) (types.Strategy, error) {
	cleaned := stripCodeFences(raw)

	var strat types.Strategy
	if err := json.Unmarshal([]byte(cleaned), &strat); err == nil {
		return strat, nil
	}

	repaired := repairBraces(cleaned)
	if err := json.Unmarshal([]byte(repaired), &strat); err == nil {
		return strat, nil
	}

	if !gjson.Valid(repaired) {
		return types.Strategy{}, errors.New("understand: llm response is not valid json after repair")
	}
	parsed := gjson.Parse(repaired)
	strat = types.Strategy{
		QueryType:           types.QueryType(parsed.Get("query_type").String()),
		FetchStrategy:       types.FetchStrategy(parsed.Get("fetch_strategy").String()),
		Depth:               types.Depth(parsed.Get("depth").String()),
		Confidence:          types.Confidence(parsed.Get("confidence").String()),
		Reasoning:           parsed.Get("reasoning").String(),
		ClarificationPrompt: parsed.Get("clarification_prompt").String(),
		NeedsClarification:  parsed.Get("needs_clarification").Bool(),
	}
	for _, r := range parsed.Get("primary_sources").Array() {
		strat.PrimarySources = append(strat.PrimarySources, r.String())
	}
	for _, r := range parsed.Get("target_authors").Array() {
		strat.TargetAuthors = append(strat.TargetAuthors, r.String())
	}
	for _, r := range parsed.Get("comparison_terms").Array() {
		strat.ComparisonTerms = append(strat.ComparisonTerms, r.String())
	}
	return strat, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// repairBraces trims any text before the first '{' and appends missing
// closing braces/brackets if the payload was truncated mid-object.
func repairBraces(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return s
	}
	s = s[start:]
	open := strings.Count(s, "{") - strings.Count(s, "}")
	openBrackets := strings.Count(s, "[") - strings.Count(s, "]")
	for i := 0; i < openBrackets; i++ {
		s += "]"
	}
	for i := 0; i < open; i++ {
		s += "}"
	}
	return s
}

// validateStrategy enforces the Strategy invariants: comparison needs >=2
// comparison terms; direct-ref needs non-empty primary sources; low
// confidence needs a clarification prompt.
func validateStrategy(s types.Strategy) error {
	if s.QueryType == types.QueryTypeComparison && len(s.ComparisonTerms) < 2 {
		return errors.New("understand: comparison query_type requires >=2 comparison_terms")
	}
	if s.FetchStrategy == types.FetchStrategyDirectRef && len(s.PrimarySources) == 0 {
		return errors.New("understand: direct-ref fetch_strategy requires non-empty primary_sources")
	}
	if s.Confidence == types.ConfidenceLow && strings.TrimSpace(s.ClarificationPrompt) == "" {
		return errors.New("understand: low confidence requires a clarification_prompt")
	}
	if s.QueryType == "" || s.FetchStrategy == "" || s.Depth == "" || s.Confidence == "" {
		return errors.New("understand: missing required enum field")
	}
	return nil
}

// fallbackStrategy builds a deterministic strategy directly from corpus
// statistics when the LLM is unavailable or returns invalid output.
func fallbackStrategy(decipherResult types.DecipherResult, profile CorpusProfile) types.Strategy {
	switch {
	case profile.TotalHits == 0:
		return types.Strategy{
			QueryType:           types.QueryTypeUnknown,
			FetchStrategy:       types.FetchStrategyBroadScan,
			Depth:               types.DepthBasic,
			Confidence:          types.ConfidenceLow,
			Reasoning:           "corpus returned no hits for the deciphered term; widening scope",
			ClarificationPrompt: "No sources found for this term. Could you rephrase or provide a known reference?",
			NeedsClarification:  true,
		}
	case len(profile.TopRefs) == 1:
		return types.Strategy{
			QueryType:      types.QueryTypeSugyaReference,
			PrimarySources: profile.TopRefs,
			FetchStrategy:  types.FetchStrategyDirectRef,
			Depth:          types.DepthStandard,
			Confidence:     types.ConfidenceMedium,
			Reasoning:      "single dominant ref in corpus results",
		}
	default:
		return types.Strategy{
			QueryType:      types.QueryTypeConcept,
			PrimarySources: profile.TopRefs,
			FetchStrategy:  types.FetchStrategyTrickleUp,
			Depth:          types.DepthStandard,
			Confidence:     types.ConfidenceMedium,
			Reasoning:      "multiple matching refs; trickling up from the most-cited sources",
		}
	}
}
