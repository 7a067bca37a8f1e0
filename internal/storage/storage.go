// Package storage defines the persistence interface for articles.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/oshiete/internal/models"
)

// ErrNotFound is returned when an article does not exist. Callers use it to
// tell "no such article" apart from a store that cannot be reached at all.
var ErrNotFound = errors.New("article not found")

// ArticleStorage defines article persistence operations. Articles are never
// updated in place; the corpus is append-only from the pipeline's perspective.
type ArticleStorage interface {
	CreateArticle(ctx context.Context, article *models.Article) error
	GetArticle(ctx context.Context, id string) (*models.Article, error)
	GetArticles(ctx context.Context, ids []string) ([]*models.Article, error)
	DeleteArticle(ctx context.Context, id string) error
	ListArticles(ctx context.Context, offset, limit int) ([]*models.Article, error)
	CountArticles(ctx context.Context) (int64, error)

	Close() error
}
