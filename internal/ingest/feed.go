package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/hyperjump/oshiete/internal/config"
	"github.com/hyperjump/oshiete/internal/models"
)

// FetchFeed pulls the RSS/Atom feed and ingests every item not already in the
// store. Returns how many new articles were ingested. Item bodies are stripped
// of HTML; a bad item is skipped, not fatal for the feed.
func (ig *Ingestor) FetchFeed(ctx context.Context, feed *config.FeedConfig) (int, error) {
	parser := gofeed.NewParser()
	parsed, err := parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch feed %q: %w", feed.Name, err)
	}

	ingested := 0
	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}
		id := feedArticleID(item.Link)
		if ig.Has(ctx, id) {
			continue
		}
		input := &models.ArticleInput{
			ID:          id,
			Title:       item.Title,
			Body:        feedItemBody(item),
			URL:         item.Link,
			Categories:  feedCategories(feed, item),
			PublishedAt: feedPublishedAt(item),
		}
		if _, err := ig.IngestArticle(ctx, input); err != nil {
			ig.logger.Warn("feed item skipped",
				zap.String("feed", feed.Name),
				zap.String("link", item.Link),
				zap.Error(err),
			)
			continue
		}
		ingested++
	}

	ig.logger.Info("feed fetched",
		zap.String("feed", feed.Name),
		zap.Int("items", len(parsed.Items)),
		zap.Int("ingested", ingested),
	)
	return ingested, nil
}

// FetchFeeds runs FetchFeed for every configured feed. One broken feed does
// not stop the others; the first error is returned after all feeds ran.
func (ig *Ingestor) FetchFeeds(ctx context.Context, feeds []config.FeedConfig) (int, error) {
	total := 0
	var firstErr error
	for i := range feeds {
		n, err := ig.FetchFeed(ctx, &feeds[i])
		total += n
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return total, firstErr
}

// feedItemBody prefers full content over the description; both are usually
// HTML fragments.
func feedItemBody(item *gofeed.Item) string {
	if item.Content != "" {
		return htmlToText(item.Content)
	}
	return htmlToText(item.Description)
}

// feedCategories merges the feed's configured categories with the item's own.
func feedCategories(feed *config.FeedConfig, item *gofeed.Item) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(feed.Categories)+len(item.Categories))
	for _, c := range append(append([]string{}, feed.Categories...), item.Categories...) {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func feedPublishedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}
