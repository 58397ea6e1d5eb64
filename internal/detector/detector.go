// Package detector resolves "auto" language settings by sniffing document
// text with lingua.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/valpere/peredit/internal"
)

// sampleParagraphs bounds how much of a document Detect inspects.
const sampleParagraphs = 5

type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// Name returns the English language name ("French", "Ukrainian") for use
// in model prompts; "" when detection fails.
func (d *Detector) Name(text string) string {
	lang, ok := d.Detect(text)
	if !ok {
		return ""
	}
	return lang.String()
}

// DocumentLang samples the leading paragraphs of a document and returns
// the detected language name, or fallback when nothing could be detected.
func (d *Detector) DocumentLang(paragraphs []internal.SourceParagraph, fallback string) string {
	n := len(paragraphs)
	if n > sampleParagraphs {
		n = sampleParagraphs
	}

	var sb strings.Builder
	for _, p := range paragraphs[:n] {
		sb.WriteString(p.Text)
		sb.WriteString("\n")
	}

	if name := d.Name(sb.String()); name != "" {
		return name
	}
	return fallback
}
