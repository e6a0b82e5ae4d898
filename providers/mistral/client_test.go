package mistral

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Tanishk053/tanigpt/llm"
)

func TestChatParsesCompletion(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "mistral-large-latest" {
			t.Errorf("model = %q, want mistral-large-latest", req.Model)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "namaste"}},
			},
			"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key")
	res, err := c.Chat(context.Background(), llm.Request{
		Model:    "mistral-large-latest",
		Messages: []llm.Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if res.Text != "namaste" {
		t.Fatalf("Chat() text = %q, want %q", res.Text, "namaste")
	}
	if res.Usage.TotalTokens != 16 {
		t.Fatalf("Chat() total tokens = %d, want 16", res.Usage.TotalTokens)
	}
}

func TestChatSurfacesAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "invalid_api_key", "message": "bad key"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "wrong")
	_, err := c.Chat(context.Background(), llm.Request{Model: "mistral-large-latest"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Chat() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("APIError status = %d, want 401", apiErr.StatusCode)
	}
	if apiErr.Type != "invalid_api_key" {
		t.Fatalf("APIError type = %q, want invalid_api_key", apiErr.Type)
	}
}
