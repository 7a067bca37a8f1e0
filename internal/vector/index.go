// Package vector provides an in-memory vector index and similarity helpers for
// article embeddings.
package vector

import "context"

// Index defines vector storage and similarity search. IDs are article IDs.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*Result, error)
	Remove(ctx context.Context, ids []string) error
	Save(path string) error
	Load(path string) error
	Size() int
	Close() error
}

// Result is a single vector search hit.
type Result struct {
	ID    string
	Score float64 // Inner product; equals cosine similarity for normalized vectors.
}
