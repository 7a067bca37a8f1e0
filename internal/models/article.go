// Package models defines core data structures for articles, drafts, reviews, and chat results.
package models

import "time"

// Article is a stored news article with metadata. Articles are immutable after
// ingestion; the pipeline only ever reads them.
type Article struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Body        string    `json:"body" db:"body"`
	URL         string    `json:"url" db:"url"`
	Categories  []string  `json:"categories" db:"categories"`
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ArticleInput is the input for ingesting an article. ID is optional; a UUID is
// assigned when absent. PublishedAt defaults to ingestion time when zero.
type ArticleInput struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	URL         string    `json:"url,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}
