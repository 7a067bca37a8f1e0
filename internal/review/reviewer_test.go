package review

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/oshiete/internal/models"
)

type fakeClient struct {
	response  string
	err       error
	gotPrompt string
}

func (f *fakeClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.gotPrompt = prompt
	return f.response, f.err
}

func TestReviewAcceptedDraft(t *testing.T) {
	client := &fakeClient{response: "SCORE: 0.9\n"}
	r := NewReviewer(client, 0.7, nil)

	outcome := r.Review(context.Background(), "q", &models.Draft{Text: "fine answer"})
	if outcome.Score != 0.9 {
		t.Errorf("expected score 0.9, got %f", outcome.Score)
	}
	if outcome.Revised() {
		t.Error("accepted draft should have no revision")
	}
}

func TestReviewWithRevision(t *testing.T) {
	client := &fakeClient{response: `SCORE: 0.4
REVISED ANSWER:
The corrected answer text.
IMPROVEMENT NOTES:
- missed the date from the primary article
- cited a source not in the excerpts`}
	r := NewReviewer(client, 0.7, nil)

	outcome := r.Review(context.Background(), "q", &models.Draft{Text: "weak answer"})
	if outcome.Score != 0.4 {
		t.Errorf("expected score 0.4, got %f", outcome.Score)
	}
	if outcome.RevisedText != "The corrected answer text." {
		t.Errorf("unexpected revised text: %q", outcome.RevisedText)
	}
	if strings.Contains(outcome.RevisedText, ImprovementNotesMarker) {
		t.Error("revised text must not carry the notes marker")
	}
	if len(outcome.Notes) != 2 {
		t.Fatalf("expected 2 notes, got %d: %v", len(outcome.Notes), outcome.Notes)
	}
	if outcome.Notes[0] != "missed the date from the primary article" {
		t.Errorf("unexpected first note: %q", outcome.Notes[0])
	}
}

func TestReviewCallFailureIsUnscored(t *testing.T) {
	client := &fakeClient{err: errors.New("timeout")}
	r := NewReviewer(client, 0.7, nil)

	outcome := r.Review(context.Background(), "q", &models.Draft{Text: "answer"})
	if outcome.Score != models.UnscoredScore {
		t.Errorf("failed review should be unscored, got %f", outcome.Score)
	}
	if outcome.Revised() {
		t.Error("failed review should not revise")
	}
}

func TestReviewUnparseableResponseIsUnscored(t *testing.T) {
	client := &fakeClient{response: "I think the answer looks good overall."}
	r := NewReviewer(client, 0.7, nil)

	outcome := r.Review(context.Background(), "q", &models.Draft{Text: "answer"})
	if outcome.Score != models.UnscoredScore {
		t.Errorf("unparseable review should be unscored, got %f", outcome.Score)
	}
}

func TestReviewBelowThresholdWithoutRevisionIsUnscored(t *testing.T) {
	// A failing score without a revised answer breaks the response format;
	// the caller must see a degraded review, not a fail-without-fix.
	client := &fakeClient{response: "SCORE: 0.3\n"}
	r := NewReviewer(client, 0.7, nil)

	outcome := r.Review(context.Background(), "q", &models.Draft{Text: "weak answer"})
	if outcome.Score != models.UnscoredScore {
		t.Errorf("below-threshold score without revision should be unscored, got %f", outcome.Score)
	}
	if outcome.Revised() {
		t.Error("degraded review should not carry a revision")
	}
}

func TestReviewOutOfRangeScoreIsUnscored(t *testing.T) {
	client := &fakeClient{response: "SCORE: 7\n"}
	r := NewReviewer(client, 0.7, nil)

	outcome := r.Review(context.Background(), "q", &models.Draft{Text: "answer"})
	if outcome.Score != models.UnscoredScore {
		t.Errorf("out-of-range score should be unscored, got %f", outcome.Score)
	}
}

func TestReviewPromptCarriesGrounding(t *testing.T) {
	client := &fakeClient{response: "SCORE: 1.0\n"}
	r := NewReviewer(client, 0.7, nil)

	draft := &models.Draft{
		Text:      "answer",
		Grounded:  true,
		Grounding: []models.Article{{Title: "Budget passes", Body: "The vote was 61-39."}},
	}
	r.Review(context.Background(), "how did the vote go?", draft)
	if !strings.Contains(client.gotPrompt, "Budget passes") {
		t.Error("review prompt should include the grounding articles")
	}
	if !strings.Contains(client.gotPrompt, "how did the vote go?") {
		t.Error("review prompt should include the query")
	}
}

func TestStripImprovementNotes(t *testing.T) {
	text := "Clean answer.\nIMPROVEMENT NOTES:\n- whatever"
	if got := StripImprovementNotes(text); got != "Clean answer." {
		t.Errorf("expected marker section removed, got %q", got)
	}
	if got := StripImprovementNotes("No marker here."); got != "No marker here." {
		t.Errorf("text without marker should pass through, got %q", got)
	}
}
