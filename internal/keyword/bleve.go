// Package keyword provides the Bleve implementation of ArticleIndex.
package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/oshiete/internal/models"
)

// indexedArticle is the flat shape stored in Bleve. Categories are joined so a
// query like "technology" also matches on category labels.
type indexedArticle struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	Categories string `json:"categories"`
}

// BleveIndex implements ArticleIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// If the path already exists, the existing index is opened and reused so that
// restarting the server does not re-index the corpus.
// If you change the index mapping in code, remove the index directory to force a full re-index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming): news queries tend to
	// contain proper nouns and product names that stemming mangles.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("body", textFieldMapping)
	docMapping.AddFieldMappingsAt("categories", textFieldMapping)
	im.AddDocumentMapping("article", docMapping)
	im.DefaultType = "article"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemoryBleveIndex creates an in-memory index, used by tests.
func NewMemoryBleveIndex() (*BleveIndex, error) {
	im := bleve.NewIndexMapping()
	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index indexes an article under its ID.
func (b *BleveIndex) Index(ctx context.Context, article *models.Article) error {
	return b.index.Index(article.ID, indexedArticle{
		Title:      article.Title,
		Body:       article.Body,
		Categories: strings.Join(article.Categories, " "),
	})
}

// Search runs a match query over title, body, and categories and returns up to
// limit results. Title matches are boosted per opts.TitleBoost. When
// opts.FuzzyFallback is set and the exact query has no hits, the search is
// retried with fuzzy term matching.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error) {
	titleBoost := 1.0
	fuzzyFallback := false
	if opts != nil {
		if opts.TitleBoost > 0 {
			titleBoost = opts.TitleBoost
		}
		fuzzyFallback = opts.FuzzyFallback
	}

	results, err := b.run(buildMatchQuery(query, titleBoost), limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 && fuzzyFallback {
		return b.run(buildFuzzyQuery(query), limit)
	}
	return results, nil
}

func (b *BleveIndex) run(q blevequery.Query, limit int) ([]*Result, error) {
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	res, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(res.Hits))
	for i, hit := range res.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// buildMatchQuery builds a disjunction of per-field match queries with the
// title field boosted.
func buildMatchQuery(query string, titleBoost float64) blevequery.Query {
	titleQuery := bleve.NewMatchQuery(query)
	titleQuery.SetField("title")
	titleQuery.SetBoost(titleBoost)

	bodyQuery := bleve.NewMatchQuery(query)
	bodyQuery.SetField("body")

	categoriesQuery := bleve.NewMatchQuery(query)
	categoriesQuery.SetField("categories")

	return bleve.NewDisjunctionQuery(titleQuery, bodyQuery, categoriesQuery)
}

// buildFuzzyQuery builds a disjunction of fuzzy term queries, one per query word.
func buildFuzzyQuery(query string) blevequery.Query {
	terms := strings.Fields(strings.ToLower(query))
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(2)
		queries = append(queries, fq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Delete removes an article from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the total number of indexed articles.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the underlying index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
