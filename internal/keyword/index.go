// Package keyword provides keyword (BM25) indexing and search over articles.
package keyword

import (
	"context"

	"github.com/hyperjump/oshiete/internal/models"
)

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// TitleBoost multiplies the score contribution from matches in the title field.
	// Values > 1 make headline matches rank higher (e.g. 3.0). Use 1.0 for no boost.
	TitleBoost float64
	// FuzzyFallback retries the search with fuzzy matching (edit distance 2)
	// when the exact query returns no hits, so typos still find articles.
	FuzzyFallback bool
}

// ArticleIndex defines keyword search operations over the article corpus.
type ArticleIndex interface {
	Index(ctx context.Context, article *models.Article) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error)
	Delete(ctx context.Context, id string) error
	// DocCount returns the total number of indexed articles.
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword search hit.
type Result struct {
	ID    string
	Score float64
}
