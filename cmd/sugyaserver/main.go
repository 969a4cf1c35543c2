package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/sugyasearch/internal/app"
	"github.com/hyperifyio/sugyasearch/internal/httpapi"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		addr           string
		configPath     string
		corpusBaseURL  string
		llmBaseURL     string
		llmModel       string
		llmKey         string
		cacheDir       string
		dictionaryPath string
		cacheMaxAge    time.Duration
		cacheTTL       time.Duration
		cacheClear     bool
		verbose        bool
	)

	flag.StringVar(&addr, "addr", ":8080", "HTTP listen address")
	flag.StringVar(&configPath, "config", "", "Optional YAML/JSON config file; flags and env still take precedence")
	flag.StringVar(&corpusBaseURL, "corpus.url", os.Getenv("CORPUS_BASE_URL"), "Corpus API base URL")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for OpenAI-compatible server")
	flag.StringVar(&cacheDir, "cache.dir", "", "Cache directory path")
	flag.StringVar(&dictionaryPath, "dictionary.path", "", "Dictionary JSON file path")
	flag.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge; 0 disables")
	flag.DurationVar(&cacheTTL, "cache.ttl", 0, "Cache entry TTL; 0 uses the default")
	flag.BoolVar(&cacheClear, "cache.clear", false, "Clear cache directory before start")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		CorpusBaseURL:  corpusBaseURL,
		LLMBaseURL:     llmBaseURL,
		LLMModel:       llmModel,
		LLMAPIKey:      llmKey,
		CacheDir:       cacheDir,
		DictionaryPath: dictionaryPath,
		CacheMaxAge:    cacheMaxAge,
		CacheTTL:       cacheTTL,
		CacheClear:     cacheClear,
		Verbose:        verbose,
	}
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config file")
			os.Exit(1)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvToConfig(&cfg)

	if err := run(addr, cfg); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func run(addr string, cfg app.Config) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := httpapi.NewServer(a)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-sigCh:
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
