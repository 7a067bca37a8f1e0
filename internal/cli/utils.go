// Package cli provides CLI output utilities for Oshiete.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperjump/oshiete/internal/models"
)

// ChatOutputFormat is the format for chat result output.
type ChatOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText ChatOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON ChatOutputFormat = "json"
)

// Fallbacks for article fields missing at render time.
const (
	fallbackTitle      = "no title"
	fallbackDate       = "no date"
	fallbackCategories = "uncategorized"
)

// WriteChatResult writes a chat result to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteChatResult(w io.Writer, result *models.ChatResult, format ChatOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		writeChatResultText(w, result)
		return nil
	}
}

func writeChatResultText(w io.Writer, result *models.ChatResult) {
	fmt.Fprintf(w, "\n%s\n", result.Answer)
	if result.Score != models.UnscoredScore {
		fmt.Fprintf(w, "\n(quality score: %.2f)\n", result.Score)
	}
	if result.Primary != nil {
		fmt.Fprintln(w, "\n--- Source article ---")
		writeArticleCard(w, result.Primary)
	}
	if len(result.Related) > 0 {
		fmt.Fprintln(w, "--- Related articles ---")
		for i := range result.Related {
			writeArticleCard(w, &result.Related[i])
		}
	}
}

func writeArticleCard(w io.Writer, a *models.Article) {
	title := a.Title
	if title == "" {
		title = fallbackTitle
	}
	date := fallbackDate
	if !a.PublishedAt.IsZero() {
		date = a.PublishedAt.Format("2006-01-02")
	}
	categories := fallbackCategories
	if len(a.Categories) > 0 {
		categories = strings.Join(a.Categories, ", ")
	}
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "%s (%s) [%s]\n", title, date, categories)
	if a.URL != "" {
		fmt.Fprintf(w, "%s\n", a.URL)
	}
	fmt.Fprintf(w, "%s\n\n", Truncate(a.Body, 200))
}

// PrintChatResult prints a chat result to stdout in text format.
func PrintChatResult(result *models.ChatResult) {
	_ = WriteChatResult(os.Stdout, result, OutputText)
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
