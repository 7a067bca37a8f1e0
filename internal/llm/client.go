// Package llm provides completion clients for the chat backends used by
// answer generation and review.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/hyperjump/oshiete/internal/config"
)

// Client sends a single completion request and returns the model's text.
type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// New creates a Client for the configured provider. API keys come from the
// environment: OPENAI_API_KEY for openai, ANTHROPIC_API_KEY for claude.
func New(cfg *config.LLMConfig) (Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm not configured")
	}
	httpClient := &http.Client{Timeout: cfg.Timeout()}

	switch cfg.Provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		return &openaiClient{
			apiKey:    apiKey,
			model:     cfg.Model,
			endpoint:  cfg.Endpoint,
			maxTokens: cfg.MaxTokens,
			client:    httpClient,
		}, nil
	case "claude":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		return &claudeClient{
			apiKey:    apiKey,
			model:     cfg.Model,
			endpoint:  cfg.Endpoint,
			maxTokens: cfg.MaxTokens,
			client:    httpClient,
		}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q (valid: openai, claude)", cfg.Provider)
	}
}
