// Package review scores draft answers against their grounding and produces a
// corrected answer when the draft falls short.
package review

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/oshiete/internal/llm"
	"github.com/hyperjump/oshiete/internal/models"
)

// ImprovementNotesMarker separates the revised answer from the reviewer's
// notes in the raw model output. It is an internal protocol detail: answer
// text handed to callers never contains it.
const ImprovementNotesMarker = "IMPROVEMENT NOTES:"

const scoreMarker = "SCORE:"
const revisedMarker = "REVISED ANSWER:"

const reviewSystemPrompt = `You are a strict editor reviewing a news assistant's answer for factual grounding, completeness, and clarity. Grade only against the provided article excerpts; an answer that admits the excerpts do not cover the question is correct, not a failure.`

// Reviewer grades drafts and revises the ones that score below threshold.
type Reviewer struct {
	client    llm.Client
	threshold float64
	logger    *zap.Logger
}

// NewReviewer creates a reviewer. Drafts scoring below threshold get a revised
// answer in the outcome.
func NewReviewer(client llm.Client, threshold float64, logger *zap.Logger) *Reviewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reviewer{client: client, threshold: threshold, logger: logger}
}

// Threshold returns the acceptance threshold.
func (r *Reviewer) Threshold() float64 {
	return r.threshold
}

// Review grades the draft in a single model call. Review never fails the
// query: when the call or its parsing breaks down, the outcome carries
// UnscoredScore and the draft stands as-is.
//
// A real (non-sentinel) score below threshold always comes with a revised
// answer: a reply that fails the score without providing one has broken the
// response format and is treated as unparseable.
func (r *Reviewer) Review(ctx context.Context, query string, draft *models.Draft) *models.ReviewOutcome {
	prompt := r.buildPrompt(query, draft)
	raw, err := r.client.Complete(ctx, reviewSystemPrompt, prompt)
	if err != nil {
		r.logger.Warn("review call failed, keeping draft unscored", zap.Error(err))
		return &models.ReviewOutcome{Score: models.UnscoredScore}
	}

	outcome := parseReview(raw)
	if outcome.Score == models.UnscoredScore {
		r.logger.Warn("review response unparseable, keeping draft unscored",
			zap.Int("response_chars", len(raw)))
	} else if outcome.Score < r.threshold && !outcome.Revised() {
		r.logger.Warn("review failed the draft without a revision, keeping draft unscored",
			zap.Float64("score", outcome.Score))
		return &models.ReviewOutcome{Score: models.UnscoredScore}
	}
	return outcome
}

func (r *Reviewer) buildPrompt(query string, draft *models.Draft) string {
	var sb strings.Builder
	if len(draft.Grounding) > 0 {
		sb.WriteString("Article excerpts the answer must be grounded in:\n\n")
		for i := range draft.Grounding {
			a := &draft.Grounding[i]
			fmt.Fprintf(&sb, "[%d] %s\n%s\n\n", i+1, a.Title, a.Body)
		}
	} else {
		sb.WriteString("No articles matched the question; a correct answer says so.\n\n")
	}
	fmt.Fprintf(&sb, "Question: %s\n\nAnswer under review:\n%s\n\n", query, draft.Text)
	fmt.Fprintf(&sb, `Grade the answer from 0.0 to 1.0 and respond EXACTLY in this format:

%s <score>
%s
<the corrected answer — only when the score is below %.2f, otherwise omit this section>
%s
- <one note per line on what was wrong — only when you provided a revision>`,
		scoreMarker, revisedMarker, r.threshold, ImprovementNotesMarker)
	return sb.String()
}

// parseReview extracts the structured outcome from the raw model output.
// A response with no parseable score yields UnscoredScore.
func parseReview(raw string) *models.ReviewOutcome {
	outcome := &models.ReviewOutcome{Score: models.UnscoredScore}

	score, ok := parseScore(raw)
	if !ok {
		return outcome
	}
	outcome.Score = score

	revised := sectionBetween(raw, revisedMarker, ImprovementNotesMarker)
	outcome.RevisedText = StripImprovementNotes(revised)

	if idx := strings.Index(raw, ImprovementNotesMarker); idx >= 0 {
		for _, line := range strings.Split(raw[idx+len(ImprovementNotesMarker):], "\n") {
			line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-•*"))
			if line != "" {
				outcome.Notes = append(outcome.Notes, line)
			}
		}
	}
	return outcome
}

func parseScore(raw string) (float64, bool) {
	idx := strings.Index(raw, scoreMarker)
	if idx < 0 {
		return 0, false
	}
	rest := raw[idx+len(scoreMarker):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	var score float64
	if _, err := fmt.Sscanf(strings.TrimSpace(rest), "%f", &score); err != nil {
		return 0, false
	}
	if score < 0 || score > 1 {
		return 0, false
	}
	return score, true
}

// sectionBetween returns the text after the first occurrence of start, cut at
// the first occurrence of end (or the rest of the string).
func sectionBetween(raw, start, end string) string {
	idx := strings.Index(raw, start)
	if idx < 0 {
		return ""
	}
	section := raw[idx+len(start):]
	if endIdx := strings.Index(section, end); endIdx >= 0 {
		section = section[:endIdx]
	}
	return strings.TrimSpace(section)
}

// StripImprovementNotes removes the improvement-notes marker and everything
// after it. Answer text shown to users must never carry the marker, so every
// path that extracts answer text from model output runs through this.
func StripImprovementNotes(text string) string {
	if idx := strings.Index(text, ImprovementNotesMarker); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
