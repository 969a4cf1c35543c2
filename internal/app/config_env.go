package app

import (
	"os"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment
// variables. Explicit cfg values (already set by flags) take precedence
// over env, matching the teacher's env-never-overrides-flags precedence.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.CorpusBaseURL == "" {
		cfg.CorpusBaseURL = os.Getenv("CORPUS_BASE_URL")
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = os.Getenv("LLM_MODEL")
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = os.Getenv("CACHE_DIR")
	}
	if cfg.DictionaryPath == "" {
		cfg.DictionaryPath = os.Getenv("DICTIONARY_PATH")
	}
	if cfg.CacheTTL == 0 {
		if s := os.Getenv("CACHE_TTL"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.CacheTTL = d
			}
		}
	}
	if cfg.CacheMaxAge == 0 {
		if s := os.Getenv("CACHE_MAX_AGE"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.CacheMaxAge = d
			}
		}
	}
	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey)))
		if s == "1" || s == "true" || s == "yes" || s == "on" {
			*dst = true
		}
	}
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.Verbose, "VERBOSE")

	if cfg.CacheDir == "" {
		cfg.CacheDir = defaultCacheDir()
	}
	if cfg.DictionaryPath == "" {
		cfg.DictionaryPath = cfg.CacheDir + "/dictionary.json"
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
}

func defaultCacheDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home + "/.cache/sugyasearch"
	}
	return ".sugyasearch-cache"
}
