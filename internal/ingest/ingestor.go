// Package ingest brings articles into storage and the search indices, from
// direct input, JSON drop files, and RSS/Atom feeds.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/oshiete/internal/config"
	"github.com/hyperjump/oshiete/internal/embedding"
	"github.com/hyperjump/oshiete/internal/keyword"
	"github.com/hyperjump/oshiete/internal/models"
	"github.com/hyperjump/oshiete/internal/storage"
	"github.com/hyperjump/oshiete/internal/vector"
	"github.com/hyperjump/oshiete/pkg/utils"
)

// Ingestor writes articles into storage, the keyword index, and the vector
// index. The vector side is optional; without an embedder articles are still
// searchable by keyword.
type Ingestor struct {
	storage  storage.ArticleStorage
	keyword  keyword.ArticleIndex
	embedder embedding.Embedder
	vectors  vector.Index
	config   *config.SearchConfig
	logger   *zap.Logger
}

// NewIngestor creates an ingestor with the given dependencies. embedder and
// vectors may both be nil for keyword-only operation.
func NewIngestor(
	store storage.ArticleStorage,
	kwIndex keyword.ArticleIndex,
	embedder embedding.Embedder,
	vectors vector.Index,
	cfg *config.SearchConfig,
	logger *zap.Logger,
) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		storage:  store,
		keyword:  kwIndex,
		embedder: embedder,
		vectors:  vectors,
		config:   cfg,
		logger:   logger,
	}
}

// IngestArticle stores the article and indexes it. Re-ingesting an existing ID
// replaces the previous version everywhere. An embedding failure does not fail
// ingestion; the article stays keyword-searchable.
func (ig *Ingestor) IngestArticle(ctx context.Context, input *models.ArticleInput) (*models.Article, error) {
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	article := &models.Article{
		ID:          input.ID,
		Title:       normalizeText(input.Title),
		Body:        normalizeText(input.Body),
		URL:         input.URL,
		Categories:  input.Categories,
		PublishedAt: input.PublishedAt,
	}
	if article.Title == "" && article.Body == "" {
		return nil, fmt.Errorf("article has no content")
	}

	// Replace any previous version before writing the new one.
	if _, err := ig.storage.GetArticle(ctx, article.ID); err == nil {
		if err := ig.DeleteArticle(ctx, article.ID); err != nil {
			return nil, fmt.Errorf("replace existing article: %w", err)
		}
	}

	if err := ig.storage.CreateArticle(ctx, article); err != nil {
		return nil, fmt.Errorf("store article: %w", err)
	}
	if err := ig.keyword.Index(ctx, article); err != nil {
		return nil, fmt.Errorf("index article keywords: %w", err)
	}
	ig.embedArticle(ctx, article)

	ig.logger.Info("article ingested",
		zap.String("id", article.ID),
		zap.String("title", article.Title),
	)
	return article, nil
}

// embedArticle adds the article's vector to the index. Failures degrade to
// keyword-only search for this article.
func (ig *Ingestor) embedArticle(ctx context.Context, article *models.Article) {
	if ig.embedder == nil || ig.vectors == nil {
		return
	}
	vec, err := ig.embedder.Embed(ctx, embeddingText(article, ig.config.EmbeddingLeadChars))
	if err != nil {
		ig.logger.Warn("article embedding failed, keyword-only",
			zap.String("id", article.ID), zap.Error(err))
		return
	}
	if err := ig.vectors.Add(ctx, []string{article.ID}, [][]float32{vec}); err != nil {
		ig.logger.Warn("vector index add failed, keyword-only",
			zap.String("id", article.ID), zap.Error(err))
	}
}

// embeddingText is the title plus the lead of the body. One vector per
// article; news articles are short enough that the lead carries the topic.
func embeddingText(article *models.Article, leadChars int) string {
	body := utils.CutAtRune(article.Body, leadChars)
	if article.Title == "" {
		return body
	}
	return article.Title + "\n" + body
}

// DeleteArticle removes an article from storage and all indices.
func (ig *Ingestor) DeleteArticle(ctx context.Context, id string) error {
	if err := ig.keyword.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete from keyword index: %w", err)
	}
	if ig.vectors != nil {
		if err := ig.vectors.Remove(ctx, []string{id}); err != nil {
			return fmt.Errorf("delete from vector index: %w", err)
		}
	}
	if err := ig.storage.DeleteArticle(ctx, id); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	ig.logger.Info("article deleted", zap.String("id", id))
	return nil
}

// Has reports whether an article with the given ID is already stored.
func (ig *Ingestor) Has(ctx context.Context, id string) bool {
	_, err := ig.storage.GetArticle(ctx, id)
	return err == nil
}
