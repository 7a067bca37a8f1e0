package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("unexpected server defaults: %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Search.MaxRelated != 3 {
		t.Errorf("MaxRelated default should be 3, got %d", cfg.Search.MaxRelated)
	}
	if cfg.Review.Threshold != 0.7 {
		t.Errorf("review threshold default should be 0.7, got %f", cfg.Review.Threshold)
	}
	if cfg.Search.KeywordWeight+cfg.Search.SemanticWeight != 1.0 {
		t.Errorf("default weights should sum to 1.0, got %f",
			cfg.Search.KeywordWeight+cfg.Search.SemanticWeight)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("LLM provider default should be openai, got %q", cfg.LLM.Provider)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Search.MaxRelated = 5
	cfg.Review.Threshold = 0.5
	ApplyDefaults(cfg)

	if cfg.Search.MaxRelated != 5 {
		t.Errorf("explicit MaxRelated overwritten: %d", cfg.Search.MaxRelated)
	}
	if cfg.Review.Threshold != 0.5 {
		t.Errorf("explicit threshold overwritten: %f", cfg.Review.Threshold)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 9090
storage:
  database_path: ./data/articles.db
search:
  max_related: 2
llm:
  provider: claude
  model: claude-haiku
review:
  threshold: 0.8
feeds:
  - name: tech
    url: https://example.org/rss
    categories: [technology]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port should be 9090, got %d", cfg.Server.Port)
	}
	if cfg.Search.MaxRelated != 2 {
		t.Errorf("max_related should be 2, got %d", cfg.Search.MaxRelated)
	}
	if cfg.LLM.Provider != "claude" {
		t.Errorf("provider should be claude, got %q", cfg.LLM.Provider)
	}
	if want := filepath.Join(dir, "data/articles.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database path not expanded relative to config dir: %q", cfg.Storage.DatabasePath)
	}
	if len(cfg.Feeds) != 1 || cfg.Feeds[0].URL != "https://example.org/rss" {
		t.Errorf("feeds not parsed: %+v", cfg.Feeds)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("loading a missing file should fail")
	}
}
