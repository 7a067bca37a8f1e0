package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/hyperjump/oshiete/internal/config"
	"github.com/hyperjump/oshiete/internal/embedding"
	"github.com/hyperjump/oshiete/internal/ingest"
	"github.com/hyperjump/oshiete/internal/keyword"
	"github.com/hyperjump/oshiete/internal/models"
	"github.com/hyperjump/oshiete/internal/retrieval"
	"github.com/hyperjump/oshiete/internal/storage"
	"github.com/hyperjump/oshiete/internal/vector"
)

func BenchmarkMemoryIndexSearch(b *testing.B) {
	idx, _ := vector.NewMemoryIndex(384)
	ctx := context.Background()
	vecs := make([][]float32, 1000)
	ids := make([]string, 1000)
	for i := 0; i < 1000; i++ {
		vecs[i] = make([]float32, 384)
		vecs[i][0] = float32(i) / 1000
		ids[i] = fmt.Sprintf("article-%d", i)
	}
	_ = idx.Add(ctx, ids, vecs)
	query := make([]float32, 384)
	query[0] = 1.0
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search(ctx, query, 10)
	}
}

func BenchmarkMockEmbedder_Embed(b *testing.B) {
	e := embedding.NewMockEmbedder(384)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "benchmark query text for embedding")
	}
}

func BenchmarkSearcher_Search(b *testing.B) {
	dir := b.TempDir()
	store, err := storage.NewSQLiteStorage(dir + "/articles.db")
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()

	kwIndex, err := keyword.NewMemoryBleveIndex()
	if err != nil {
		b.Fatal(err)
	}
	defer kwIndex.Close()

	embedder := embedding.NewMockEmbedder(32)
	vecIndex, _ := vector.NewMemoryIndex(32)
	defer vecIndex.Close()

	cfg := &config.SearchConfig{
		MaxRelated:         3,
		CandidatePool:      50,
		KeywordWeight:      0.6,
		SemanticWeight:     0.4,
		TitleBoost:         3.0,
		EmbeddingLeadChars: 600,
		Embedding:          config.EmbeddingConfig{Dimensions: 32},
	}
	ingestor := ingest.NewIngestor(store, kwIndex, embedder, vecIndex, cfg, nil)
	ctx := context.Background()
	topics := []string{"budget vote", "interest rates", "wildfire evacuation", "transit strike", "vaccine trial"}
	for i := 0; i < 200; i++ {
		topic := topics[i%len(topics)]
		_, err := ingestor.IngestArticle(ctx, &models.ArticleInput{
			ID:    fmt.Sprintf("article-%d", i),
			Title: fmt.Sprintf("Report %d on the %s", i, topic),
			Body:  fmt.Sprintf("Details emerged about the %s on day %d. Officials commented at length.", topic, i),
		})
		if err != nil {
			b.Fatal(err)
		}
	}
	searcher := retrieval.NewSearcher(store, kwIndex, embedder, vecIndex, cfg, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = searcher.Search(ctx, "budget vote")
	}
}
