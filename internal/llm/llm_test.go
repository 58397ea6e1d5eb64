package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolve_NamedUsesDefaults(t *testing.T) {
	refs := []ModelRef{Named("grok-4"), Named("ollama:llama3.2"), Named("google")}
	cfg := Config{
		BaseURL:    "https://openrouter.ai/api/v1",
		APIKey:     "key",
		OllamaURL:  "http://localhost:11434",
		SourceLang: "fr",
		TargetLang: "zh",
	}

	resolved, err := Resolve(refs, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved) != 3 {
		t.Fatalf("expected 3 resolved models, got %d", len(resolved))
	}
	if _, ok := resolved[0].Client.(*ChatClient); !ok {
		t.Errorf("expected ChatClient for named ref, got %T", resolved[0].Client)
	}
	if _, ok := resolved[1].Client.(*OllamaClient); !ok {
		t.Errorf("expected OllamaClient for ollama ref, got %T", resolved[1].Client)
	}
	if _, ok := resolved[2].Client.(*GoogleClient); !ok {
		t.Errorf("expected GoogleClient for google ref, got %T", resolved[2].Client)
	}
}

func TestResolve_DuplicateIDsUniquified(t *testing.T) {
	refs := []ModelRef{Named("grok-4"), Named("grok-4"), Named("grok-4")}
	resolved, err := Resolve(refs, Config{BaseURL: "http://example.test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"1_grok-4", "2_grok-4", "3_grok-4"}
	for i, r := range resolved {
		if r.Ref.ID != want[i] {
			t.Errorf("ref %d: expected ID %q, got %q", i, want[i], r.Ref.ID)
		}
		if r.Ref.Model != "grok-4" {
			t.Errorf("ref %d: provider model must stay bare, got %q", i, r.Ref.Model)
		}
	}
}

func TestResolve_CustomEndpoint(t *testing.T) {
	refs := []ModelRef{Custom("doubao-1.5-pro", "https://ark.example/api/v3", "sk-x")}
	resolved, err := Resolve(refs, Config{BaseURL: "https://default.test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, ok := resolved[0].Client.(*ChatClient)
	if !ok {
		t.Fatalf("expected ChatClient, got %T", resolved[0].Client)
	}
	if c.baseURL != "https://ark.example/api/v3" {
		t.Errorf("custom endpoint not honoured: %q", c.baseURL)
	}
	if c.apiKey != "sk-x" {
		t.Errorf("custom credential not honoured: %q", c.apiKey)
	}
}

func TestResolve_NoModels(t *testing.T) {
	if _, err := Resolve(nil, Config{}); err == nil {
		t.Error("expected error for empty model list")
	}
}

func TestResolve_NamedWithoutEndpoint(t *testing.T) {
	if _, err := Resolve([]ModelRef{Named("grok-4")}, Config{}); err == nil {
		t.Error("expected error when no default endpoint is configured")
	}
}

func TestChatClient_Complete(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "grok-4" {
			t.Errorf("expected model grok-4, got %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "译文。"}},
			},
		})
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "secret")
	got, err := c.Complete(context.Background(), "grok-4", "translate", "Bonjour")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "译文。" {
		t.Errorf("expected 译文。, got %q", got)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
}

func TestChatClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "")
	_, err := c.Complete(context.Background(), "m", "s", "u")

	se, ok := err.(*StatusError)
	if !ok {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if se.Status != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", se.Status)
	}
	if !se.Temporary() {
		t.Error("429 must be temporary")
	}
}

func TestStatusError_Temporary(t *testing.T) {
	cases := map[int]bool{401: false, 404: false, 408: true, 429: true, 500: true, 503: true}
	for status, want := range cases {
		e := &StatusError{Status: status}
		if e.Temporary() != want {
			t.Errorf("status %d: Temporary() = %v, want %v", status, e.Temporary(), want)
		}
	}
}

func TestOllamaClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req generateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "llama3.2" {
			t.Errorf("expected bare model name, got %q", req.Model)
		}
		if req.Stream {
			t.Error("streaming must be disabled")
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "译文。"})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL)
	got, err := c.Complete(context.Background(), "ollama:llama3.2", "translate", "Bonjour")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "译文。" {
		t.Errorf("expected 译文。, got %q", got)
	}
}
