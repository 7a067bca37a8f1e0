package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperjump/oshiete/internal/config"
)

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(&config.LLMConfig{Provider: "bard"})
	if err == nil {
		t.Fatal("unknown provider should error")
	}
}

func TestNewMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := New(&config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini"})
	if err == nil {
		t.Fatal("missing API key should error")
	}
}

func TestOpenAIComplete(t *testing.T) {
	var gotAuth string
	var gotReq openaiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "the answer"}},
			},
		})
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "sk-test")
	client, err := New(&config.LLMConfig{
		Provider:       "openai",
		Model:          "gpt-4o-mini",
		Endpoint:       srv.URL,
		TimeoutSeconds: 5,
		MaxTokens:      100,
	})
	if err != nil {
		t.Fatal(err)
	}

	text, err := client.Complete(context.Background(), "be helpful", "what happened?")
	if err != nil {
		t.Fatal(err)
	}
	if text != "the answer" {
		t.Errorf("expected 'the answer', got %q", text)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("expected system+user messages, got %+v", gotReq.Messages)
	}
}

func TestClaudeComplete(t *testing.T) {
	var gotKey string
	var gotReq claudeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"text": "claude says"}},
		})
	}))
	defer srv.Close()

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	client, err := New(&config.LLMConfig{
		Provider:       "claude",
		Model:          "claude-haiku-4-5-20251001",
		Endpoint:       srv.URL,
		TimeoutSeconds: 5,
		MaxTokens:      100,
	})
	if err != nil {
		t.Fatal(err)
	}

	text, err := client.Complete(context.Background(), "be helpful", "what happened?")
	if err != nil {
		t.Fatal(err)
	}
	if text != "claude says" {
		t.Errorf("expected 'claude says', got %q", text)
	}
	if gotKey != "sk-ant-test" {
		t.Errorf("unexpected api key header: %q", gotKey)
	}
	if gotReq.System != "be helpful" {
		t.Errorf("system prompt not forwarded: %q", gotReq.System)
	}
}

func TestOpenAICompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "sk-test")
	client, err := New(&config.LLMConfig{
		Provider: "openai", Model: "gpt-4o-mini", Endpoint: srv.URL, TimeoutSeconds: 5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Complete(context.Background(), "", "hi"); err == nil {
		t.Fatal("non-200 response should error")
	}
}
