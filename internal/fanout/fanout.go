// Package fanout obtains independent machine translations of one paragraph
// from every configured model in parallel. A failing model contributes a
// failure entry instead of aborting its siblings: partial sets are a normal
// outcome when some backends are down.
package fanout

import (
	"context"
	"fmt"
	"sync"

	"github.com/valpere/peredit/internal"
	"github.com/valpere/peredit/internal/invoker"
	"github.com/valpere/peredit/internal/llm"
	"github.com/valpere/peredit/internal/postprocess"
)

// DefaultPrompt returns the translator system prompt used for models without
// a per-model override.
func DefaultPrompt(sourceLang, targetLang string) string {
	if sourceLang == "" || sourceLang == "auto" {
		sourceLang = "the source language"
	}
	return fmt.Sprintf(`You are a professional translator working from %s into %s.
Requirements:
1. Render the text faithfully and fluently, keeping the academic or literary register of the original.
2. Keep the original structure (headings, lists). After an important technical term you may add the original in parentheses.
3. Return only the translation, with no explanations or commentary.`, sourceLang, targetLang)
}

// Translator fans one source paragraph out to a fixed set of resolved
// models. It is safe for concurrent use by multiple pipeline workers.
type Translator struct {
	invoker    *invoker.Invoker
	models     []llm.Resolved
	sourceLang string
	targetLang string
}

// New creates a Translator over the given resolved models.
func New(iv *invoker.Invoker, models []llm.Resolved, sourceLang, targetLang string) *Translator {
	return &Translator{
		invoker:    iv,
		models:     models,
		sourceLang: sourceLang,
		targetLang: targetLang,
	}
}

// Models returns the resolved models in fan-out order.
func (t *Translator) Models() []llm.Resolved { return t.models }

// TranslateForComparison invokes every model concurrently and returns one
// entry per model, in configured model order. Entries for failed models
// carry the error text; successful entries are artifact-cleaned.
func (t *Translator) TranslateForComparison(ctx context.Context, sourceText string) internal.TranslationSet {
	set := make(internal.TranslationSet, len(t.models))

	var wg sync.WaitGroup
	for i, m := range t.models {
		wg.Add(1)
		go func(i int, m llm.Resolved) {
			defer wg.Done()

			prompt := m.Ref.Prompt
			if prompt == "" {
				prompt = DefaultPrompt(t.sourceLang, t.targetLang)
			}

			entry := internal.ModelTranslation{Model: m.Ref.ID}
			text, err := t.invoker.Invoke(ctx, m.Client, m.Ref.Model, prompt, sourceText)
			if err != nil {
				entry.Err = err.Error()
			} else {
				entry.Text = postprocess.Clean(text)
			}
			set[i] = entry
		}(i, m)
	}
	wg.Wait()

	return set
}
