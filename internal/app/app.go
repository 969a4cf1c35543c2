package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/sugyasearch/internal/archaeology"
	"github.com/hyperifyio/sugyasearch/internal/cache"
	"github.com/hyperifyio/sugyasearch/internal/clarify"
	"github.com/hyperifyio/sugyasearch/internal/corpusclient"
	"github.com/hyperifyio/sugyasearch/internal/decipher"
	"github.com/hyperifyio/sugyasearch/internal/dictionary"
	"github.com/hyperifyio/sugyasearch/internal/errkind"
	"github.com/hyperifyio/sugyasearch/internal/llm"
	"github.com/hyperifyio/sugyasearch/internal/types"
	"github.com/hyperifyio/sugyasearch/internal/understand"
)

// ErrNoUsableSources is returned when SEARCH ends with zero sources after
// Locate/Validate/Trickle/Fetch.
var ErrNoUsableSources = fmt.Errorf("no usable sources: %w", errkind.NotFound)

// App wires every subsystem together behind the three pipeline facades.
type App struct {
	cfg Config

	corpus     *corpusclient.Client
	httpCache  *cache.Store
	dictionary *dictionary.Store
	clarify    *clarify.Store

	decipher   *decipher.Pipeline
	understand *understand.Pipeline
	search     *archaeology.Pipeline
}

// New builds an App from cfg. It performs a best-effort LLM connectivity
// preflight, the same non-fatal "warn and continue" behavior as the
// teacher's app.New.
func New(ctx context.Context, cfg Config) (*App, error) {
	httpCache := &cache.Store{Dir: cfg.CacheDir, TTL: cfg.CacheTTL}
	if cfg.CacheClear {
		_ = cache.ClearDir(cfg.CacheDir)
	}
	if cfg.CacheMaxAge > 0 {
		_, _ = cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge)
	}

	corpus := corpusclient.New(cfg.CorpusBaseURL, &http.Client{Timeout: 15 * time.Second}, httpCache)
	dict := dictionary.NewStore(cfg.DictionaryPath)
	if err := dict.Watch(ctx); err != nil {
		log.Warn().Err(err).Str("path", cfg.DictionaryPath).Msg("dictionary file watch unavailable; edits require a restart")
	}
	clarifyStore := clarify.NewStore(&cache.Store{Dir: cfg.CacheDir + "/clarify", TTL: clarify.DefaultTTL})

	var llmClient llm.Client
	if cfg.LLMAPIKey != "" || cfg.LLMBaseURL != "" {
		transportCfg := openai.DefaultConfig(cfg.LLMAPIKey)
		if cfg.LLMBaseURL != "" {
			transportCfg.BaseURL = cfg.LLMBaseURL
		}
		raw := openai.NewClientWithConfig(transportCfg)
		llmClient = &llm.OpenAIProvider{Inner: raw}

		preflightCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if _, err := raw.ListModels(preflightCtx); err != nil {
			log.Warn().Err(err).Msg("LLM model list failed; continuing without preflight confirmation")
		}
	}

	a := &App{
		cfg:        cfg,
		corpus:     corpus,
		httpCache:  httpCache,
		dictionary: dict,
		clarify:    clarifyStore,
		decipher:   decipher.NewPipeline(dict, corpus),
		understand: understand.NewPipeline(llmClient, cfg.LLMModel, httpCache),
		search:     archaeology.NewPipeline(corpus, llmClient, cfg.LLMModel, httpCache),
	}
	return a, nil
}

// Decipher runs DECIPHER for a free-text query.
func (a *App) Decipher(ctx context.Context, query string) (types.DecipherResult, error) {
	return a.decipher.Decipher(ctx, query)
}

// ConfirmDecipher records a user-confirmed English-to-Hebrew mapping in
// the dictionary so future identical queries resolve deterministically.
func (a *App) ConfirmDecipher(english, hebrew string, now time.Time) error {
	return a.dictionary.Record(english, hebrew, string(types.ProvenanceUserConfirmed), now)
}

// Search runs UNDERSTAND then SEARCH end to end for query, starting from
// an already-computed DecipherResult.
func (a *App) Search(ctx context.Context, query string, decipherResult types.DecipherResult) (types.SearchResult, error) {
	profile, err := a.gatherCorpusProfile(ctx, decipherResult.HebrewTerms)
	if err != nil {
		return types.SearchResult{}, err
	}

	strategy, err := a.understand.Understand(ctx, query, decipherResult, profile)
	if err != nil {
		return types.SearchResult{}, err
	}

	if strategy.NeedsClarification {
		return a.suspendForClarification(query, strategy)
	}

	result, err := a.search.Run(ctx, query, decipherResult.HebrewTerms, strategy)
	if err != nil {
		return types.SearchResult{}, err
	}
	if result.TotalSources == 0 {
		return result, ErrNoUsableSources
	}
	return result, nil
}

func (a *App) gatherCorpusProfile(ctx context.Context, hebrewTerms []string) (understand.CorpusProfile, error) {
	profile := understand.CorpusProfile{ByCategory: map[string]int{}, ByTractate: map[string]int{}}
	for _, term := range hebrewTerms {
		resp, err := a.corpus.Search(ctx, term, 20, nil)
		if err != nil {
			continue
		}
		profile.TotalHits += resp.TotalHits
		for k, v := range resp.ByCategory {
			profile.ByCategory[k] += v
		}
		for k, v := range resp.ByTractate {
			profile.ByTractate[k] += v
		}
		profile.TopRefs = append(profile.TopRefs, resp.TopRefs...)
	}
	return profile, nil
}

func (a *App) suspendForClarification(query string, strategy types.Strategy) (types.SearchResult, error) {
	var options []types.ClarificationOption
	for i, opt := range strategy.ClarificationOptions {
		options = append(options, types.ClarificationOption{ID: fmt.Sprintf("opt-%d", i+1), Label: opt})
	}
	state, err := a.clarify.Create(clarify.StagePostUnderstand, query, options, time.Now())
	if err != nil {
		return types.SearchResult{}, err
	}
	return types.SearchResult{
		OriginalQuery:         query,
		Confidence:            strategy.Confidence,
		NeedsClarification:    true,
		ClarificationQueryID:  state.QueryID,
		ClarificationPrompt:   strategy.ClarificationPrompt,
		ClarificationOptions:  options,
	}, nil
}

// ResumeClarification resolves a suspended clarification by query_id and
// re-runs DECIPHER and SEARCH with the selected option's label as the
// query (the original query when the option ID matches no stored option).
func (a *App) ResumeClarification(ctx context.Context, queryID, selectedOptionID string) (types.SearchResult, error) {
	state, err := a.clarify.Get(queryID)
	if err != nil {
		return types.SearchResult{}, err
	}
	selectedLabel := state.OriginalQuery
	for _, opt := range state.Options {
		if opt.ID == selectedOptionID {
			selectedLabel = opt.Label
			break
		}
	}
	a.clarify.Resolve(queryID)

	decipherResult, err := a.Decipher(ctx, selectedLabel)
	if err != nil {
		return types.SearchResult{}, err
	}
	return a.Search(ctx, selectedLabel, decipherResult)
}

// Close releases resources held by the App. Currently a no-op; present
// for symmetry with callers that defer it.
func (a *App) Close() {}
