// Package config provides configuration loading and structs for the Oshiete server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	LLM     LLMConfig     `yaml:"llm"`
	Review  ReviewConfig  `yaml:"review"`
	Feeds   []FeedConfig  `yaml:"feeds"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// AnswerCacheTTLSeconds is how long chat answers are cached per query.
	// 0 disables the cache.
	AnswerCacheTTLSeconds int `yaml:"answer_cache_ttl_seconds"`
	// AllowedOrigins is the CORS allow-list for the browser front-end.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig holds paths for the article database and indices.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	BleveIndexPath  string `yaml:"bleve_index_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
}

// EmbeddingConfig holds ONNX embedder settings.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	// MaxRelated bounds how many related articles accompany the primary hit.
	MaxRelated int `yaml:"max_related"`
	// CandidatePool is how many hits each index contributes before fusion.
	CandidatePool  int     `yaml:"candidate_pool"`
	KeywordWeight  float64 `yaml:"keyword_weight"`
	SemanticWeight float64 `yaml:"semantic_weight"`
	TitleBoost     float64 `yaml:"title_boost"`
	// EmbeddingLeadChars is how much of the article body joins the title in
	// the embedded text.
	EmbeddingLeadChars int             `yaml:"embedding_lead_chars"`
	Embedding          EmbeddingConfig `yaml:"embedding"`
}

// LLMConfig describes the completion backend used for generation and review.
type LLMConfig struct {
	// Provider is "openai" or "claude". API keys come from the environment
	// (OPENAI_API_KEY / ANTHROPIC_API_KEY), never from this file.
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxTokens      int    `yaml:"max_tokens"`
}

// Timeout returns the request timeout as a duration.
func (l *LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// ReviewConfig holds answer review settings.
type ReviewConfig struct {
	// Threshold is the minimum acceptable quality score in [0,1]; drafts
	// scoring below it get one revision pass.
	Threshold float64 `yaml:"threshold"`
}

// FeedConfig is one RSS/Atom source to ingest articles from.
type FeedConfig struct {
	Name       string   `yaml:"name"`
	URL        string   `yaml:"url"`
	Categories []string `yaml:"categories"`
}

// WatchConfig holds article drop-directory watch settings. JSON article files
// written into these directories are ingested automatically.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	cfg.Search.Embedding.ModelPath = expandPath(cfg.Search.Embedding.ModelPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path. Used for persisting watch directory add/remove.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
