// Package llm defines the opaque completion-service contract the pipeline
// talks to, the model reference variant resolved at pipeline start, and the
// concrete backends (OpenAI-compatible endpoints, Ollama, Google Translate).
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Client is one completion backend. Implementations perform the outbound
// network call and nothing else; retries and error classification live in
// the invoker.
type Client interface {
	// Complete sends systemPrompt+userText to model and returns the raw
	// response text.
	Complete(ctx context.Context, model, systemPrompt, userText string) (string, error)
}

// StatusError is a non-2xx HTTP response from a backend. The invoker uses
// Temporary to decide whether the attempt may be retried.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("API returned status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("API returned status %d", e.Status)
}

// Temporary reports whether the status is worth retrying: server errors,
// timeouts, and rate limits. Client errors (bad key, unknown model) are not.
func (e *StatusError) Temporary() bool {
	return e.Status >= 500 || e.Status == 408 || e.Status == 429
}

// ModelRef identifies one model taking part in a run. It is the resolved
// form of the two configuration variants:
//
//	Named(id)                    — default endpoint and credential
//	Custom(id, endpoint, key)    — per-model endpoint override
//
// ID is the unique label used for TranslationSet keys; Model is the
// provider-side model name (equal to ID unless uniquified).
type ModelRef struct {
	ID       string
	Model    string
	Endpoint string
	APIKey   string
	Prompt   string
}

// Named returns a ModelRef served by the run's default endpoint.
func Named(id string) ModelRef {
	return ModelRef{ID: id, Model: id}
}

// Custom returns a ModelRef with its own endpoint and credential.
func Custom(id, endpoint, credential string) ModelRef {
	return ModelRef{ID: id, Model: id, Endpoint: endpoint, APIKey: credential}
}

// Config carries run-wide backend defaults used during resolution.
type Config struct {
	// BaseURL and APIKey serve Named refs through the OpenAI-compatible
	// backend.
	BaseURL string
	APIKey  string
	// OllamaURL serves "ollama:<model>" refs.
	OllamaURL string
	// GoogleCredentials, SourceLang and TargetLang serve the "google" ref.
	GoogleCredentials string
	SourceLang        string
	TargetLang        string
}

// Resolved binds a ModelRef to the client that will serve it.
type Resolved struct {
	Ref    ModelRef
	Client Client
}

// Resolve turns model references into invocation records, once, at pipeline
// start. Duplicate IDs are uniquified with an ordinal prefix so a model may
// be fanned out more than once (the provider still sees the bare model
// name). The prefix scheme matches TranslationSet labels everywhere.
func Resolve(refs []ModelRef, cfg Config) ([]Resolved, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("no models configured")
	}

	seen := make(map[string]int, len(refs))
	for _, r := range refs {
		seen[r.ID]++
	}

	ordinal := make(map[string]int, len(refs))
	out := make([]Resolved, 0, len(refs))
	for _, r := range refs {
		if seen[r.ID] > 1 {
			ordinal[r.ID]++
			r.ID = fmt.Sprintf("%d_%s", ordinal[r.ID], r.ID)
		}
		client, err := clientFor(r, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, Resolved{Ref: r, Client: client})
	}
	return out, nil
}

func clientFor(r ModelRef, cfg Config) (Client, error) {
	switch {
	case r.Model == "google":
		return NewGoogleClient(cfg.GoogleCredentials, cfg.SourceLang, cfg.TargetLang), nil
	case strings.HasPrefix(r.Model, "ollama:"):
		url := r.Endpoint
		if url == "" {
			url = cfg.OllamaURL
		}
		return NewOllamaClient(url), nil
	default:
		base := r.Endpoint
		if base == "" {
			base = cfg.BaseURL
		}
		key := r.APIKey
		if key == "" {
			key = cfg.APIKey
		}
		if base == "" {
			return nil, fmt.Errorf("model %s: no endpoint configured", r.ID)
		}
		return NewChatClient(base, key), nil
	}
}

// BareModel strips the provider prefix from a model name for the wire call.
func BareModel(model string) string {
	if s, ok := strings.CutPrefix(model, "ollama:"); ok {
		return s
	}
	return model
}
