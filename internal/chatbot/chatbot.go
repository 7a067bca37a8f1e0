// Package chatbot orchestrates the query pipeline: retrieve articles, generate
// a grounded draft, review it, and hand back the final answer.
package chatbot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/oshiete/internal/models"
	"github.com/hyperjump/oshiete/internal/review"
	"github.com/hyperjump/oshiete/pkg/utils"
)

// State names the pipeline stage a query is in. Queries move strictly
// searching -> generating -> reviewing -> done; failed is reachable only from
// searching and generating, review problems degrade instead.
type State string

const (
	StateSearching  State = "searching"
	StateGenerating State = "generating"
	StateReviewing  State = "reviewing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Searcher retrieves the articles a query grounds in.
type Searcher interface {
	Search(ctx context.Context, query string) (*models.SearchResult, error)
}

// Generator drafts an answer from a query and its retrieval result.
type Generator interface {
	Generate(ctx context.Context, query string, retrieved *models.SearchResult) (*models.Draft, error)
}

// Reviewer grades a draft and revises it when it falls short.
type Reviewer interface {
	Review(ctx context.Context, query string, draft *models.Draft) *models.ReviewOutcome
	Threshold() float64
}

// NewsChatbot runs the full answer pipeline for one query at a time. It is
// safe for concurrent use as long as its dependencies are.
type NewsChatbot struct {
	searcher  Searcher
	generator Generator
	reviewer  Reviewer
	logger    *zap.Logger
}

// New creates a chatbot from the three pipeline stages.
func New(searcher Searcher, generator Generator, reviewer Reviewer, logger *zap.Logger) *NewsChatbot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsChatbot{
		searcher:  searcher,
		generator: generator,
		reviewer:  reviewer,
		logger:    logger,
	}
}

// ProcessQuery runs the pipeline for query and returns the final answer
// together with the articles it was grounded in and the review score.
//
// Retrieval and generation failures are fatal and return an error. Review
// failures are not: the draft stands and Score carries the unscored sentinel.
// The returned articles are exactly what retrieval produced; review never
// touches them.
func (c *NewsChatbot) ProcessQuery(ctx context.Context, query string) (*models.ChatResult, error) {
	logger := c.logger.With(zap.String("query", utils.Truncate(query, 200)))
	logger.Info("processing query", zap.String("state", string(StateSearching)))

	retrieved, err := c.searcher.Search(ctx, query)
	if err != nil {
		logger.Error("retrieval failed", zap.String("state", string(StateFailed)), zap.Error(err))
		return nil, fmt.Errorf("search: %w", err)
	}
	if retrieved.Empty() {
		logger.Info("no articles matched")
	}

	logger.Info("generating answer",
		zap.String("state", string(StateGenerating)),
		zap.Bool("grounded", !retrieved.Empty()),
	)
	draft, err := c.generator.Generate(ctx, query, retrieved)
	if err != nil {
		logger.Error("generation failed", zap.String("state", string(StateFailed)), zap.Error(err))
		return nil, fmt.Errorf("generate: %w", err)
	}

	logger.Info("reviewing answer", zap.String("state", string(StateReviewing)))
	outcome := c.reviewer.Review(ctx, query, draft)

	answer := review.StripImprovementNotes(draft.Text)
	switch {
	case outcome.Score == models.UnscoredScore:
		// Review degraded; the draft stands.
	case outcome.Score < c.reviewer.Threshold():
		// A real below-threshold score always carries a revision.
		// One revision pass, no re-review.
		answer = review.StripImprovementNotes(outcome.RevisedText)
		logger.Info("answer revised",
			zap.Float64("score", outcome.Score),
			zap.Int("notes", len(outcome.Notes)),
		)
	}

	logger.Info("query done",
		zap.String("state", string(StateDone)),
		zap.Float64("score", outcome.Score),
	)
	return &models.ChatResult{
		Primary: retrieved.Primary,
		Related: retrieved.Related,
		Score:   outcome.Score,
		Answer:  answer,
	}, nil
}
