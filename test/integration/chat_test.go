// Package integration provides full-pipeline tests (real storage and indices,
// LLM backend served by httptest).
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/oshiete/internal/chatbot"
	"github.com/hyperjump/oshiete/internal/config"
	"github.com/hyperjump/oshiete/internal/embedding"
	"github.com/hyperjump/oshiete/internal/generate"
	"github.com/hyperjump/oshiete/internal/ingest"
	"github.com/hyperjump/oshiete/internal/keyword"
	"github.com/hyperjump/oshiete/internal/llm"
	"github.com/hyperjump/oshiete/internal/models"
	"github.com/hyperjump/oshiete/internal/retrieval"
	"github.com/hyperjump/oshiete/internal/review"
	"github.com/hyperjump/oshiete/internal/storage"
	"github.com/hyperjump/oshiete/internal/vector"
)

// fakeCompletionServer serves OpenAI-shaped completions: the first call (the
// generation step) returns answer, every later call (the review step) returns
// reviewBody.
func fakeCompletionServer(t *testing.T, answer, reviewBody string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		content := answer
		if n > 1 {
			content = reviewBody
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
}

func TestIntegration_ChatPipeline(t *testing.T) {
	dir := t.TempDir()

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "articles.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	embedder := embedding.NewMockEmbedder(8)
	defer embedder.Close()

	vecIndex, err := vector.NewMemoryIndex(8)
	if err != nil {
		t.Fatal(err)
	}
	defer vecIndex.Close()

	kwIndex, err := keyword.NewBleveIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	defer kwIndex.Close()

	searchCfg := &config.SearchConfig{
		MaxRelated:         3,
		CandidatePool:      50,
		KeywordWeight:      0.6,
		SemanticWeight:     0.4,
		TitleBoost:         3.0,
		EmbeddingLeadChars: 600,
		Embedding:          config.EmbeddingConfig{Dimensions: 8, MaxTokens: 64, CacheSize: 100},
	}
	ingestor := ingest.NewIngestor(store, kwIndex, embedder, vecIndex, searchCfg, nil)
	searcher := retrieval.NewSearcher(store, kwIndex, embedder, vecIndex, searchCfg, nil)
	ctx := context.Background()

	published := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	articles := []models.ArticleInput{
		{ID: "budget-1", Title: "Parliament passes budget", Body: "The annual budget passed late on Thursday after a marathon session.", PublishedAt: published, Categories: []string{"politics"}},
		{ID: "budget-2", Title: "Budget plans announced", Body: "The finance ministry outlined the budget plans in May.", PublishedAt: published.AddDate(0, -3, 0), Categories: []string{"politics"}},
		{ID: "ferry-1", Title: "Ferry service resumes", Body: "Harbor boats returned to the commuter crossing after refits.", PublishedAt: published, Categories: []string{"local"}},
	}
	for i := range articles {
		if _, err := ingestor.IngestArticle(ctx, &articles[i]); err != nil {
			t.Fatalf("ingest %q: %v", articles[i].ID, err)
		}
	}

	var calls atomic.Int32
	backend := fakeCompletionServer(t,
		"The budget passed late on Thursday after a marathon session.",
		"SCORE: 0.92",
		&calls,
	)
	defer backend.Close()

	t.Setenv("OPENAI_API_KEY", "test-key")
	client, err := llm.New(&config.LLMConfig{
		Provider: "openai", Model: "gpt-4o-mini", Endpoint: backend.URL, TimeoutSeconds: 5,
	})
	if err != nil {
		t.Fatal(err)
	}

	bot := chatbot.New(
		searcher,
		generate.NewGenerator(client, nil),
		review.NewReviewer(client, 0.7, nil),
		nil,
	)

	result, err := bot.ProcessQuery(ctx, "what happened with the parliament budget vote")
	if err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}
	if result.Answer != "The budget passed late on Thursday after a marathon session." {
		t.Errorf("answer = %q", result.Answer)
	}
	if result.Score != 0.92 {
		t.Errorf("score = %v, want 0.92", result.Score)
	}
	if result.Primary == nil {
		t.Fatal("expected a primary article")
	}
	if result.Primary.ID != "budget-1" && result.Primary.ID != "budget-2" {
		t.Errorf("primary article = %q, want a budget article", result.Primary.ID)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 LLM calls (generate + review), got %d", got)
	}
}

func TestIntegration_ChatPipeline_RevisionPath(t *testing.T) {
	dir := t.TempDir()

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "articles.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	kwIndex, err := keyword.NewBleveIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	defer kwIndex.Close()

	searchCfg := &config.SearchConfig{
		MaxRelated:    3,
		CandidatePool: 50,
		KeywordWeight: 1.0,
		TitleBoost:    3.0,
	}
	ingestor := ingest.NewIngestor(store, kwIndex, nil, nil, searchCfg, nil)
	searcher := retrieval.NewSearcher(store, kwIndex, nil, nil, searchCfg, nil)
	ctx := context.Background()

	if _, err := ingestor.IngestArticle(ctx, &models.ArticleInput{
		ID: "strike-1", Title: "Transit workers begin strike", Body: "Bus and subway service halted as unions walked out over pay.",
	}); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	backend := fakeCompletionServer(t,
		"The strike ended quickly.",
		"SCORE: 0.4\nREVISED ANSWER: Bus and subway service halted as transit unions walked out over pay.\nIMPROVEMENT NOTES:\n- The draft contradicted the article.",
		&calls,
	)
	defer backend.Close()

	t.Setenv("OPENAI_API_KEY", "test-key")
	client, err := llm.New(&config.LLMConfig{
		Provider: "openai", Model: "gpt-4o-mini", Endpoint: backend.URL, TimeoutSeconds: 5,
	})
	if err != nil {
		t.Fatal(err)
	}

	bot := chatbot.New(
		searcher,
		generate.NewGenerator(client, nil),
		review.NewReviewer(client, 0.7, nil),
		nil,
	)

	result, err := bot.ProcessQuery(ctx, "transit workers strike")
	if err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}
	if result.Answer != "Bus and subway service halted as transit unions walked out over pay." {
		t.Errorf("answer should be the revised text, got %q", result.Answer)
	}
	if result.Score != 0.4 {
		t.Errorf("score = %v, want the below-threshold 0.4", result.Score)
	}
}
