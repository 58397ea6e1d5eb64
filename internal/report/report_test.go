package report

import (
	"strings"
	"testing"

	"github.com/valpere/peredit/internal"
)

func sampleReport() internal.Report {
	return internal.Report{
		Paragraphs: []internal.ParagraphResult{
			{
				Alignment: internal.AlignmentRecord{
					SourceIndex:   0,
					SourceText:    "Il fait beau.",
					CandidateText: "天气很好。",
					Confidence:    0.82,
					Page:          1,
					Matched:       true,
				},
				Translations: internal.TranslationSet{
					{Model: "A", Text: "天气不错。"},
					{Model: "B", Err: "backend down"},
				},
				Review: "draft kept with minor edits",
				Final:  "天气很好。",
				Edited: true,
			},
			{
				Alignment: internal.AlignmentRecord{
					SourceIndex: 1,
					SourceText:  "Bonjour.",
					Page:        2,
				},
				Translations: internal.TranslationSet{
					{Model: "A", Text: "你好。"},
				},
				Final: "你好。",
			},
		},
		Stats:               internal.ReportStats{Total: 2, Matched: 1, Edited: 1, TranslatedOnly: 1},
		UnmatchedCandidates: []int{3},
	}
}

func TestFinalText(t *testing.T) {
	out := FinalText(sampleReport())

	if !strings.Contains(out, "==== Page 1 ====") || !strings.Contains(out, "==== Page 2 ====") {
		t.Errorf("missing page headings:\n%s", out)
	}
	if !strings.Contains(out, "天气很好。") || !strings.Contains(out, "你好。") {
		t.Errorf("missing final paragraphs:\n%s", out)
	}
	if strings.Count(out, "==== Page 1 ====") != 1 {
		t.Error("page heading repeated for paragraphs on the same page")
	}
	if strings.Contains(out, "draft kept") {
		t.Error("final text must not contain review content")
	}
}

func TestReviewMarkdown(t *testing.T) {
	out := ReviewMarkdown(sampleReport())

	for _, want := range []string{
		"- Paragraphs: 2",
		"- Aligned with draft: 1",
		"- Edited: 1",
		"- Draft paragraphs without a source match: 1",
		"## Paragraph 1 (page 1) — edited",
		"## Paragraph 2 (page 2) — machine translation",
		"draft kept with minor edits",
		"confidence 0.82",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("review missing %q", want)
		}
	}
}

func TestReviewMarkdown_TruncatesLongExcerpts(t *testing.T) {
	r := sampleReport()
	r.Paragraphs[0].Alignment.SourceText = strings.Repeat("a", 300)

	out := ReviewMarkdown(r)
	if strings.Contains(out, strings.Repeat("a", 201)) {
		t.Error("source excerpt not truncated")
	}
	if !strings.Contains(out, strings.Repeat("a", 200)+"…") {
		t.Error("truncation marker missing")
	}
}

func TestComparisonMarkdown(t *testing.T) {
	out := ComparisonMarkdown(sampleReport())

	for _, want := range []string{
		"### Source",
		"### Human draft",
		"### A",
		"天气不错。",
		"### B",
		"*failed: backend down*",
		"### Final",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("comparison missing %q", want)
		}
	}
}

func TestHTML(t *testing.T) {
	out := HTML("# Title\n\nA paragraph with **bold** text.")

	if !strings.Contains(out, "<h1") || !strings.Contains(out, "Title") {
		t.Errorf("heading not rendered:\n%s", out)
	}
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("bold not rendered:\n%s", out)
	}
}
