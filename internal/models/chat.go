package models

import (
	"fmt"
	"strings"
)

// UnscoredScore is the sentinel score used when review could not complete.
// It is outside the valid [0,1] quality range so callers can tell "review
// degraded" apart from any real score.
const UnscoredScore = -1.0

// SearchResult holds the retrieval outcome for one query: the single best
// matching article plus a bounded set of further matches.
// Primary is nil when nothing in the store matched. Primary never appears in
// Related; Related is ordered by descending relevance.
type SearchResult struct {
	Primary *Article  `json:"primary,omitempty"`
	Related []Article `json:"related"`
}

// Empty reports whether retrieval found nothing at all.
func (r *SearchResult) Empty() bool {
	return r == nil || (r.Primary == nil && len(r.Related) == 0)
}

// Articles returns primary plus related as one slice, primary first.
func (r *SearchResult) Articles() []Article {
	if r == nil {
		return nil
	}
	out := make([]Article, 0, len(r.Related)+1)
	if r.Primary != nil {
		out = append(out, *r.Primary)
	}
	return append(out, r.Related...)
}

// Draft is an unreviewed candidate answer together with the grounding it was
// conditioned on. Grounded is false when the draft was produced without any
// retrieved articles.
type Draft struct {
	Text      string    `json:"text"`
	Grounded  bool      `json:"grounded"`
	Grounding []Article `json:"-"`
}

// ReviewOutcome is the result of scoring a draft. When Score is below the
// acceptance threshold, RevisedText holds the corrected answer and Notes lists
// what changed; the two are never interleaved. Score is UnscoredScore when the
// review call itself failed.
type ReviewOutcome struct {
	Score       float64  `json:"score"`
	RevisedText string   `json:"revised_text,omitempty"`
	Notes       []string `json:"notes,omitempty"`
}

// Revised reports whether the reviewer produced a corrected answer.
func (o *ReviewOutcome) Revised() bool {
	return o != nil && o.RevisedText != ""
}

// ChatResult is the record handed back to the presentation layer for one query.
// Answer is the last accepted or revised draft text and never contains the
// internal improvement-notes marker.
type ChatResult struct {
	Primary *Article  `json:"primary_article,omitempty"`
	Related []Article `json:"related_articles"`
	Score   float64   `json:"score"`
	Answer  string    `json:"answer_text"`
}

// ChatQuery is a chat request at the HTTP boundary.
type ChatQuery struct {
	Query string `json:"query"`
}

// Validate trims the query and rejects empty input. The pipeline itself treats
// an empty query as "no grounding available"; the HTTP boundary rejects it
// earlier so clients get a 400 instead of an ungrounded answer.
func (q *ChatQuery) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	return nil
}
