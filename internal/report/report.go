// Package report renders a finished document run into its three output
// documents: the final edited text, the per-paragraph review report, and
// the full side-by-side comparison. Review and comparison are Markdown so
// they can also be served as HTML.
package report

import (
	"fmt"
	"strings"

	"github.com/valpere/peredit/internal"
)

// snippetLen caps quoted source and draft excerpts in the review report.
const snippetLen = 200

// FinalText renders the continuous edited translation with page headings.
func FinalText(r internal.Report) string {
	var sb strings.Builder

	currentPage := 0
	for _, p := range r.Paragraphs {
		if p.Alignment.Page != currentPage {
			currentPage = p.Alignment.Page
			fmt.Fprintf(&sb, "==== Page %d ====\n\n", currentPage)
		}
		sb.WriteString(p.Final)
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// ReviewMarkdown renders the editorial review report: run statistics
// followed by one section per paragraph with excerpts and the editor's
// assessment.
func ReviewMarkdown(r internal.Report) string {
	var sb strings.Builder

	sb.WriteString("# Editorial review\n\n")
	sb.WriteString("## Statistics\n\n")
	fmt.Fprintf(&sb, "- Paragraphs: %d\n", r.Stats.Total)
	fmt.Fprintf(&sb, "- Aligned with draft: %d\n", r.Stats.Matched)
	fmt.Fprintf(&sb, "- Edited: %d\n", r.Stats.Edited)
	fmt.Fprintf(&sb, "- Machine translation only: %d\n", r.Stats.TranslatedOnly)
	fmt.Fprintf(&sb, "- Failed: %d\n", r.Stats.Failed)
	if len(r.UnmatchedCandidates) > 0 {
		fmt.Fprintf(&sb, "- Draft paragraphs without a source match: %d\n", len(r.UnmatchedCandidates))
	}
	sb.WriteString("\n")

	for i, p := range r.Paragraphs {
		fmt.Fprintf(&sb, "## Paragraph %d (page %d) — %s\n\n", i+1, p.Alignment.Page, statusLabel(p))

		fmt.Fprintf(&sb, "**Source**\n\n> %s\n\n", snippet(p.Alignment.SourceText))
		if p.Alignment.CandidateText != "" {
			fmt.Fprintf(&sb, "**Human draft** (confidence %.2f)\n\n> %s\n\n",
				p.Alignment.Confidence, snippet(p.Alignment.CandidateText))
		}

		review := p.Review
		if review == "" {
			review = "(none)"
		}
		fmt.Fprintf(&sb, "**Review**\n\n%s\n\n", review)

		if p.Err != "" {
			fmt.Fprintf(&sb, "**Error**: %s\n\n", p.Err)
		}
	}

	return sb.String()
}

// ComparisonMarkdown renders every paragraph with its source, draft, all
// model translations, and the final text.
func ComparisonMarkdown(r internal.Report) string {
	var sb strings.Builder

	sb.WriteString("# Full comparison\n\n")

	for i, p := range r.Paragraphs {
		fmt.Fprintf(&sb, "## Paragraph %d (page %d)\n\n", i+1, p.Alignment.Page)

		fmt.Fprintf(&sb, "### Source\n\n%s\n\n", p.Alignment.SourceText)
		if p.Alignment.CandidateText != "" {
			fmt.Fprintf(&sb, "### Human draft\n\n%s\n\n", p.Alignment.CandidateText)
		}

		for _, t := range p.Translations {
			if t.OK() {
				fmt.Fprintf(&sb, "### %s\n\n%s\n\n", t.Model, t.Text)
			} else {
				fmt.Fprintf(&sb, "### %s\n\n*failed: %s*\n\n", t.Model, t.Err)
			}
		}

		fmt.Fprintf(&sb, "### Final\n\n%s\n\n", p.Final)
	}

	return sb.String()
}

func statusLabel(p internal.ParagraphResult) string {
	switch {
	case p.Err != "":
		return "failed"
	case p.Edited:
		return "edited"
	case p.Alignment.Matched:
		return "draft kept"
	default:
		return "machine translation"
	}
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLen {
		return text
	}
	return string(runes[:snippetLen]) + "…"
}
