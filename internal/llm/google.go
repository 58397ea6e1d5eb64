package llm

import (
	"context"
	"fmt"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleClient serves the "google" model reference with Google Cloud
// Translate. It is not a prompt-driven model: the system prompt is ignored
// and the user text is machine-translated between the run's configured
// languages, which gives the editor one conventional MT baseline next to
// the LLM candidates.
type GoogleClient struct {
	credentials string
	sourceLang  string
	targetLang  string
}

func NewGoogleClient(credentials, sourceLang, targetLang string) *GoogleClient {
	return &GoogleClient{
		credentials: credentials,
		sourceLang:  sourceLang,
		targetLang:  targetLang,
	}
}

func (c *GoogleClient) Complete(ctx context.Context, _, _ string, userText string) (string, error) {
	targetTag, err := language.Parse(c.targetLang)
	if err != nil {
		return "", fmt.Errorf("invalid target language %q: %w", c.targetLang, err)
	}

	var opts []option.ClientOption
	if c.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(c.credentials))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	// Source falls back to service-side detection when the configured
	// language is not a parseable tag (detected names like "French").
	var translations []translate.Translation
	sourceTag, serr := language.Parse(c.sourceLang)
	if c.sourceLang == "" || c.sourceLang == "auto" || serr != nil {
		translations, err = client.Translate(ctx, []string{userText}, targetTag, nil)
	} else {
		translations, err = client.Translate(ctx, []string{userText}, targetTag, &translate.Options{
			Source: sourceTag,
		})
	}
	if err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}
	if len(translations) == 0 {
		return "", fmt.Errorf("no translation returned")
	}
	return translations[0].Text, nil
}
