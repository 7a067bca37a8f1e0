// Package retrieval ranks the article corpus against a query and picks the
// primary article plus a bounded set of related articles.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/oshiete/internal/config"
	"github.com/hyperjump/oshiete/internal/embedding"
	"github.com/hyperjump/oshiete/internal/keyword"
	"github.com/hyperjump/oshiete/internal/models"
	"github.com/hyperjump/oshiete/internal/storage"
	"github.com/hyperjump/oshiete/internal/vector"
)

// ErrUnavailable is returned when the article store or its indices cannot be
// queried at all. It is distinct from an empty result, which is a valid value.
var ErrUnavailable = errors.New("retrieval unavailable")

// scoreEpsilon is the band within which two fused scores count as tied; ties
// go to the more recently published article.
const scoreEpsilon = 1e-9

// Searcher runs hybrid (keyword + semantic) retrieval over the article corpus.
// The semantic side is optional: with a nil embedder or vector index the
// searcher is keyword-only.
type Searcher struct {
	storage  storage.ArticleStorage
	keyword  keyword.ArticleIndex
	embedder embedding.Embedder
	vectors  vector.Index
	config   *config.SearchConfig
	logger   *zap.Logger
}

// NewSearcher creates a searcher with the given dependencies.
func NewSearcher(
	store storage.ArticleStorage,
	kwIndex keyword.ArticleIndex,
	embedder embedding.Embedder,
	vectors vector.Index,
	cfg *config.SearchConfig,
	logger *zap.Logger,
) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		storage:  store,
		keyword:  kwIndex,
		embedder: embedder,
		vectors:  vectors,
		config:   cfg,
		logger:   logger,
	}
}

// Search ranks the corpus against query and returns the top article as primary
// plus up to MaxRelated further articles ordered by descending relevance, ties
// broken by most recent publish date.
//
// An empty or whitespace-only query yields an empty result, not an error: the
// caller treats that as "no grounding available". A store or index failure
// wraps ErrUnavailable.
func (s *Searcher) Search(ctx context.Context, query string) (*models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &models.SearchResult{}, nil
	}

	keywordHits, err := s.keyword.Search(ctx, query, s.config.CandidatePool, &keyword.SearchOptions{
		TitleBoost:    s.config.TitleBoost,
		FuzzyFallback: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: keyword search: %v", ErrUnavailable, err)
	}

	semantic := s.semanticHits(ctx, query)
	hits := fuse(normalizeKeywordScores(keywordHits), semantic,
		s.config.KeywordWeight, s.config.SemanticWeight)
	if len(hits) == 0 {
		return &models.SearchResult{}, nil
	}

	// Top candidates only; the related set is small.
	limit := s.config.MaxRelated + 1
	if len(hits) > limit*2 {
		hits = hits[:limit*2]
	}

	ids := make([]string, len(hits))
	scores := make(map[string]float64, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
		scores[hit.ID] = hit.Score
	}
	articles, err := s.storage.GetArticles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: load articles: %v", ErrUnavailable, err)
	}
	if len(articles) == 0 {
		return &models.SearchResult{}, nil
	}

	// Re-sort with the recency tie-break now that publish dates are known.
	sort.SliceStable(articles, func(i, j int) bool {
		si, sj := scores[articles[i].ID], scores[articles[j].ID]
		if diff := si - sj; diff > scoreEpsilon || diff < -scoreEpsilon {
			return si > sj
		}
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})

	result := &models.SearchResult{Primary: articles[0]}
	for _, article := range articles[1:] {
		if len(result.Related) >= s.config.MaxRelated {
			break
		}
		result.Related = append(result.Related, *article)
	}
	s.logger.Debug("search complete",
		zap.String("query", query),
		zap.String("primary", result.Primary.ID),
		zap.Int("related", len(result.Related)),
	)
	return result, nil
}

// semanticHits returns vector scores for the query, or nil when the semantic
// side is disabled or degraded. Embedding failures are not fatal: keyword
// results alone still ground an answer.
func (s *Searcher) semanticHits(ctx context.Context, query string) map[string]float64 {
	if s.embedder == nil || s.vectors == nil || s.config.SemanticWeight <= 0 {
		return nil
	}
	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding failed, falling back to keyword-only", zap.Error(err))
		return nil
	}
	hits, err := s.vectors.Search(ctx, queryEmbedding, s.config.CandidatePool)
	if err != nil {
		s.logger.Warn("vector search failed, falling back to keyword-only", zap.Error(err))
		return nil
	}
	return semanticScores(hits)
}
