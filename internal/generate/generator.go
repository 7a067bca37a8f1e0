// Package generate produces candidate chat answers grounded in retrieved
// articles.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/oshiete/internal/llm"
	"github.com/hyperjump/oshiete/internal/models"
	"github.com/hyperjump/oshiete/pkg/utils"
)

// ErrGenerationFailed is returned when the completion backend could not
// produce a draft. The pipeline treats this as fatal for the query.
var ErrGenerationFailed = errors.New("answer generation failed")

const systemPrompt = `You are a news assistant. You answer questions using only the article excerpts provided to you. When the excerpts do not cover the question, say so plainly instead of inventing facts. Never cite articles, sources, or events that are not in the excerpts.`

const ungroundedSystemPrompt = `You are a news assistant. No articles matched the user's question. Tell the user briefly that nothing in the current news corpus covers their question, and suggest they rephrase or broaden it. Do not invent articles, sources, or events.`

// Generator turns a query and its retrieved articles into a draft answer.
type Generator struct {
	client llm.Client
	logger *zap.Logger
}

// NewGenerator creates a generator backed by the given completion client.
func NewGenerator(client llm.Client, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{client: client, logger: logger}
}

// Generate produces a draft answer for query conditioned on the retrieval
// result. With an empty result the draft is ungrounded: the model is told to
// say the corpus has nothing, not to improvise. A backend failure wraps
// ErrGenerationFailed.
func (g *Generator) Generate(ctx context.Context, query string, retrieved *models.SearchResult) (*models.Draft, error) {
	grounded := !retrieved.Empty()

	var system, prompt string
	if grounded {
		system = systemPrompt
		prompt = groundedPrompt(query, retrieved)
	} else {
		system = ungroundedSystemPrompt
		prompt = fmt.Sprintf("Question: %s", query)
	}

	text, err := g.client.Complete(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: backend returned empty text", ErrGenerationFailed)
	}

	g.logger.Debug("draft generated",
		zap.Bool("grounded", grounded),
		zap.Int("draft_chars", len(text)),
	)
	return &models.Draft{
		Text:      text,
		Grounded:  grounded,
		Grounding: retrieved.Articles(),
	}, nil
}

// groundedPrompt lays the primary article out in full and the related ones as
// shorter excerpts, then asks the question.
func groundedPrompt(query string, retrieved *models.SearchResult) string {
	var sb strings.Builder
	sb.WriteString("Article excerpts:\n\n")
	writeArticle(&sb, retrieved.Primary, 1)
	for i := range retrieved.Related {
		writeArticle(&sb, &retrieved.Related[i], i+2)
	}
	sb.WriteString("Question: ")
	sb.WriteString(query)
	sb.WriteString("\n\nAnswer the question using only the excerpts above.")
	return sb.String()
}

const relatedBodyLimit = 800

func writeArticle(sb *strings.Builder, a *models.Article, n int) {
	if a == nil {
		return
	}
	fmt.Fprintf(sb, "[%d] %s", n, a.Title)
	if !a.PublishedAt.IsZero() {
		fmt.Fprintf(sb, " (%s)", a.PublishedAt.Format("2006-01-02"))
	}
	sb.WriteString("\n")
	body := a.Body
	if n > 1 && len(body) > relatedBodyLimit {
		body = utils.CutAtRune(body, relatedBodyLimit) + "…"
	}
	sb.WriteString(body)
	sb.WriteString("\n\n")
}
