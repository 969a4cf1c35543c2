package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/sugyasearch/internal/app"
	"github.com/hyperifyio/sugyasearch/internal/types"
)

// Exit code policy:
//
//	0   success
//	1   general failure
//	2   missing required configuration (no LLM key/base URL, or no corpus URL)
//	130 interrupted by the user (SIGINT)
const (
	exitOK             = 0
	exitGeneralFailure = 1
	exitConfigMissing  = 2
	exitInterrupted    = 130
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath    string
		corpusBaseURL string
		llmBaseURL    string
		llmModel      string
		llmKey        string
		cacheDir      string
		jsonOutput    bool
		verbose       bool
	)

	flag.StringVar(&configPath, "config", "", "Optional YAML/JSON config file; flags and env still take precedence")
	flag.StringVar(&corpusBaseURL, "corpus.url", os.Getenv("CORPUS_BASE_URL"), "Corpus API base URL")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for OpenAI-compatible server")
	flag.StringVar(&cacheDir, "cache.dir", "", "Cache directory path")
	flag.BoolVar(&jsonOutput, "json", false, "Print the raw SearchResult JSON instead of a summary")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: sugyacli [flags] <query>")
		os.Exit(exitConfigMissing)
	}

	cfg := app.Config{
		CorpusBaseURL: corpusBaseURL,
		LLMBaseURL:    llmBaseURL,
		LLMModel:      llmModel,
		LLMAPIKey:     llmKey,
		CacheDir:      cacheDir,
	}
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config file %s: %v\n", configPath, err)
			os.Exit(exitConfigMissing)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvToConfig(&cfg)
	if cfg.CorpusBaseURL == "" {
		fmt.Fprintln(os.Stderr, "missing corpus base URL (set -corpus.url or CORPUS_BASE_URL)")
		os.Exit(exitConfigMissing)
	}
	if cfg.LLMAPIKey == "" && cfg.LLMBaseURL == "" {
		fmt.Fprintln(os.Stderr, "missing LLM configuration (set -llm.key/LLM_API_KEY or -llm.base/LLM_BASE_URL)")
		os.Exit(exitConfigMissing)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	os.Exit(run(ctx, cfg, query, jsonOutput))
}

func run(ctx context.Context, cfg app.Config, query string, jsonOutput bool) int {
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("init app")
		return exitGeneralFailure
	}
	defer a.Close()

	decipherResult, err := a.Decipher(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return exitInterrupted
		}
		log.Error().Err(err).Msg("decipher failed")
		return exitGeneralFailure
	}

	result, err := a.Search(ctx, query, decipherResult)
	if err != nil && !errors.Is(err, app.ErrNoUsableSources) {
		if ctx.Err() != nil {
			return exitInterrupted
		}
		log.Error().Err(err).Msg("search failed")
		return exitGeneralFailure
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Error().Err(err).Msg("encode result")
			return exitGeneralFailure
		}
		return exitOK
	}

	printSummary(result)
	return exitOK
}

func printSummary(result types.SearchResult) {
	if result.NeedsClarification {
		fmt.Printf("needs clarification: %s\n", result.ClarificationPrompt)
		for _, opt := range result.ClarificationOptions {
			fmt.Printf("  [%s] %s\n", opt.ID, opt.Label)
		}
		return
	}
	fmt.Printf("%d sources across %d levels\n", result.TotalSources, len(result.LevelsPresent))
	for _, src := range result.Sources {
		fmt.Printf("  [%s] %s\n", src.Level, src.Ref)
	}
}
