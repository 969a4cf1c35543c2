package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the on-disk configuration schema, loaded from YAML or JSON.
// Nested sections mirror the flag/env groupings in Config.
type FileConfig struct {
	Corpus struct {
		BaseURL string `yaml:"baseURL" json:"baseURL"`
	} `yaml:"corpus" json:"corpus"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Dictionary struct {
		Path string `yaml:"path" json:"path"`
	} `yaml:"dictionary" json:"dictionary"`

	Cache struct {
		Dir    string        `yaml:"dir" json:"dir"`
		MaxAge time.Duration `yaml:"maxAge" json:"maxAge"`
		TTL    time.Duration `yaml:"ttl" json:"ttl"`
		Clear  bool          `yaml:"clear" json:"clear"`
	} `yaml:"cache" json:"cache"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into a FileConfig, guessing the format
// from the file extension and falling back to trying both.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if yerr := yaml.Unmarshal(b, &fc); yerr != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", yerr, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays fc into cfg for any field still at its zero
// value, so flags and environment variables (applied first) always win
// over file config.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.CorpusBaseURL == "" && fc.Corpus.BaseURL != "" {
		cfg.CorpusBaseURL = fc.Corpus.BaseURL
	}
	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if cfg.DictionaryPath == "" && fc.Dictionary.Path != "" {
		cfg.DictionaryPath = fc.Dictionary.Path
	}
	if cfg.CacheDir == "" && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if cfg.CacheTTL == 0 && fc.Cache.TTL > 0 {
		cfg.CacheTTL = fc.Cache.TTL
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}
