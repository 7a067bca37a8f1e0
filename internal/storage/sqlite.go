// Package storage provides the SQLite implementation of ArticleStorage.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/oshiete/internal/models"
)

// SQLiteStorage implements ArticleStorage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT,
		body TEXT NOT NULL,
		url TEXT,
		categories TEXT,
		published_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at);
	CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateArticle inserts an article.
func (s *SQLiteStorage) CreateArticle(ctx context.Context, article *models.Article) error {
	categoriesJSON, err := json.Marshal(article.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	now := time.Now()
	article.CreatedAt = now
	article.UpdatedAt = now
	if article.PublishedAt.IsZero() {
		article.PublishedAt = now
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO articles (id, title, body, url, categories, published_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		article.ID, article.Title, article.Body, article.URL, string(categoriesJSON),
		article.PublishedAt, article.CreatedAt, article.UpdatedAt,
	)
	return err
}

const articleColumns = `id, title, body, url, categories, published_at, created_at, updated_at`

func scanArticle(row interface{ Scan(...interface{}) error }) (*models.Article, error) {
	var article models.Article
	var categoriesJSON string
	err := row.Scan(&article.ID, &article.Title, &article.Body, &article.URL,
		&categoriesJSON, &article.PublishedAt, &article.CreatedAt, &article.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if categoriesJSON != "" {
		if err := json.Unmarshal([]byte(categoriesJSON), &article.Categories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
		}
	}
	return &article, nil
}

// GetArticle returns an article by ID.
func (s *SQLiteStorage) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return article, nil
}

// GetArticles returns the articles for the given IDs, in the given order.
// Missing IDs are skipped.
func (s *SQLiteStorage) GetArticles(ctx context.Context, ids []string) ([]*models.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*models.Article, len(ids))
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		byID[article.ID] = article
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*models.Article, 0, len(ids))
	for _, id := range ids {
		if article, ok := byID[id]; ok {
			out = append(out, article)
		}
	}
	return out, nil
}

// DeleteArticle removes an article by ID.
func (s *SQLiteStorage) DeleteArticle(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	return err
}

// ListArticles returns articles with offset and limit, most recent first.
func (s *SQLiteStorage) ListArticles(ctx context.Context, offset, limit int) ([]*models.Article, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles ORDER BY published_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

// CountArticles returns the total number of articles.
func (s *SQLiteStorage) CountArticles(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
