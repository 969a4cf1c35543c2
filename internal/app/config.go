// Package app wires every subsystem (cache, corpus client, LLM client,
// dictionary, authors, decipher, understand, archaeology, clarify) into a
// single orchestrator, the same Config-plus-New(ctx, cfg)-plus-facade-methods
// shape as the teacher's internal/app package.
package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Corpus
	CorpusBaseURL string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Storage
	CacheDir      string
	DictionaryPath string

	// Cache controls
	CacheClear   bool
	CacheMaxAge  time.Duration
	CacheTTL     time.Duration

	// Behavior
	Verbose bool
}

// DefaultCacheTTL is used when Config.CacheTTL is unset.
const DefaultCacheTTL = 24 * time.Hour
