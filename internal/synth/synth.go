// Package synth issues the single editorial model call that reviews a human
// draft against the machine translations and produces the final text. The
// response format is a soft contract: when the section markers drift, the
// whole response is kept as the final text rather than failing the
// paragraph.
package synth

import (
	"context"
	"fmt"
	"strings"

	"github.com/valpere/peredit/internal"
	"github.com/valpere/peredit/internal/invoker"
	"github.com/valpere/peredit/internal/llm"
	"github.com/valpere/peredit/internal/postprocess"
)

// Section markers the editor model is instructed to emit.
const (
	ReviewMarker = "[REVIEW]"
	FinalMarker  = "[FINAL]"
)

// NoDraftReview is the review text recorded when no human draft existed and
// the first successful machine translation was taken as-is.
const NoDraftReview = "No human draft available; first successful machine translation used."

// ErrNoTranslations is returned when synthesis is skipped (no human draft)
// and the translation set holds no usable entry either.
var ErrNoTranslations = fmt.Errorf("no successful translations to fall back on")

// DefaultEditorPrompt returns the editor-persona system prompt.
func DefaultEditorPrompt(sourceLang, targetLang string) string {
	if sourceLang == "" || sourceLang == "auto" {
		sourceLang = "the source language"
	}
	return fmt.Sprintf(`You are a senior translation editor fluent in %s and %s, with publishing experience.

You will receive a source text, a human draft translation (when present), and several machine translations labelled by model.

Your tasks:
1. Judge the accuracy of each version against the source (omissions, mistranslations, overtranslation).
2. Edit to publishing standard: terminology, fluency, consistency of register.
3. Respect the human draft: keep its good phrasing, borrow from machine versions only where they are better.
4. Remove leftover artifacts (watermarks, page numbers, broken line breaks).

Output format (follow exactly):

%s
Short assessment of the draft: strengths, problems, what was borrowed.

%s
The polished final translation.`, sourceLang, targetLang, ReviewMarker, FinalMarker)
}

// Result is a parsed synthesis outcome.
type Result struct {
	Review string
	Final  string
}

// Synthesizer drives the editorial call for one run's editor model.
type Synthesizer struct {
	invoker *invoker.Invoker
	editor  llm.Resolved
	prompt  string
}

// New creates a Synthesizer. prompt may be empty to use
// DefaultEditorPrompt for the given languages.
func New(iv *invoker.Invoker, editor llm.Resolved, sourceLang, targetLang, prompt string) *Synthesizer {
	if prompt == "" {
		prompt = DefaultEditorPrompt(sourceLang, targetLang)
	}
	return &Synthesizer{invoker: iv, editor: editor, prompt: prompt}
}

// Synthesize reviews humanText against the fan-out translations and returns
// the review and final text.
//
// When humanText is empty the model call is skipped entirely: the first
// successful translation becomes the final text and the review is the
// NoDraftReview sentinel; ErrNoTranslations is returned if the set holds no
// success at all.
func (s *Synthesizer) Synthesize(ctx context.Context, sourceText, humanText string, translations internal.TranslationSet) (Result, error) {
	if humanText == "" {
		first, ok := translations.First()
		if !ok {
			return Result{}, ErrNoTranslations
		}
		return Result{Review: NoDraftReview, Final: first.Text}, nil
	}

	raw, err := s.invoker.Invoke(ctx, s.editor.Client, s.editor.Ref.Model, s.prompt, buildRequest(sourceText, humanText, translations))
	if err != nil {
		return Result{}, err
	}

	review, final := ParseSections(raw)
	return Result{Review: review, Final: final}, nil
}

// buildRequest assembles the editor's user message: source, draft, and
// every successful translation labelled by model.
func buildRequest(sourceText, humanText string, translations internal.TranslationSet) string {
	var sb strings.Builder

	sb.WriteString("## Source text\n\n")
	sb.WriteString(sourceText)

	sb.WriteString("\n\n## Human draft (to review)\n\n")
	sb.WriteString(humanText)

	if successes := translations.Successes(); len(successes) > 0 {
		sb.WriteString("\n\n## Machine reference translations\n")
		for _, t := range successes {
			fmt.Fprintf(&sb, "\n### %s\n%s\n", t.Model, t.Text)
		}
	}

	sb.WriteString("\n## Output the review and the final translation in the required format")
	return sb.String()
}

// ParseSections splits a raw editor response on the section markers.
// When both markers appear exactly once and in order, the text between them
// (first marker removed) is the review and everything after the final
// marker is the final text. Any other shape degrades gracefully: the entire
// response becomes the final text with an empty review — formatting drift
// does not invalidate usable synthesis output.
func ParseSections(raw string) (review, final string) {
	if strings.Count(raw, ReviewMarker) == 1 && strings.Count(raw, FinalMarker) == 1 {
		rIdx := strings.Index(raw, ReviewMarker)
		fIdx := strings.Index(raw, FinalMarker)
		if rIdx < fIdx {
			before := strings.Replace(raw[:fIdx], ReviewMarker, "", 1)
			review = strings.TrimSpace(before)
			final = postprocess.Clean(raw[fIdx+len(FinalMarker):])
			return review, final
		}
	}
	return "", postprocess.Clean(raw)
}
