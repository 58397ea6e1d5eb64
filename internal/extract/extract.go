// Package extract turns plain text dumps of the two documents into the
// ordered paragraph lists the aligner consumes. Source dumps come from a
// page-preserving converter (pdftotext and friends) with form feeds
// between pages; drafts are flat text with blank lines between
// paragraphs.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/valpere/peredit/internal"
)

// MinParagraphLen is the shortest source paragraph kept, in runes.
// Anything at or under this is page furniture, not prose.
const MinParagraphLen = 10

// repeatedLineRatio is the share of pages on which a short line must
// repeat to be treated as a running header or watermark.
const repeatedLineRatio = 0.6

var watermarkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ÉPREUVES`),
	regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}\s+\d{1,2}:\d{2}`),
	regexp.MustCompile(`(?i)\.indd`),
	regexp.MustCompile(`(?i)^TOUS DROITS DE REPRODUCTION`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`(?i)^Page\s+\d+`),
}

// Source splits a page-preserving text dump into source paragraphs.
// Pages are separated by form feeds and numbered from 1. Watermark lines,
// repeated headers, and paragraphs of MinParagraphLen runes or fewer are
// dropped. Extra patterns are matched against whole lines in addition to
// the built-in watermark set.
func Source(text string, extra ...*regexp.Regexp) []internal.SourceParagraph {
	pages := strings.Split(text, "\f")
	repeated := repeatedLines(pages)

	var out []internal.SourceParagraph
	for pageIdx, pageText := range pages {
		var kept []string
		for _, line := range strings.Split(pageText, "\n") {
			if filterLine(line, repeated, extra) {
				continue
			}
			kept = append(kept, line)
		}

		for _, para := range splitParagraphs(strings.Join(kept, "\n")) {
			if utf8.RuneCountInString(para) <= MinParagraphLen {
				continue
			}
			out = append(out, internal.SourceParagraph{
				Index: len(out),
				Text:  para,
				Page:  pageIdx + 1,
			})
		}
	}
	return out
}

// Candidates splits a flat draft text into candidate paragraphs on blank
// lines. No length filtering happens here; the aligner's short-paragraph
// merge owns that concern.
func Candidates(text string) []internal.CandidateParagraph {
	var out []internal.CandidateParagraph
	for _, para := range splitParagraphs(text) {
		out = append(out, internal.CandidateParagraph{
			Index: len(out),
			Text:  para,
		})
	}
	return out
}

var blankLines = regexp.MustCompile(`\n\s*\n`)

func splitParagraphs(text string) []string {
	var out []string
	for _, para := range blankLines.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para != "" {
			out = append(out, para)
		}
	}
	return out
}

func filterLine(line string, repeated map[string]bool, extra []*regexp.Regexp) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if utf8.RuneCountInString(trimmed) < 3 {
		return true
	}
	if repeated[trimmed] {
		return true
	}
	for _, re := range watermarkPatterns {
		if re.MatchString(trimmed) {
			return true
		}
	}
	for _, re := range extra {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// repeatedLines finds short lines that recur on most pages. Proof
// watermarks and running titles repeat verbatim page after page while
// body prose does not.
func repeatedLines(pages []string) map[string]bool {
	if len(pages) < 3 {
		return nil
	}

	counts := make(map[string]int)
	for _, pageText := range pages {
		seen := make(map[string]bool)
		for _, line := range strings.Split(pageText, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || seen[line] {
				continue
			}
			seen[line] = true
			counts[line]++
		}
	}

	threshold := int(float64(len(pages)) * repeatedLineRatio)
	if threshold < 2 {
		threshold = 2
	}

	repeated := make(map[string]bool)
	for line, n := range counts {
		if n >= threshold && utf8.RuneCountInString(line) < 100 {
			repeated[line] = true
		}
	}
	return repeated
}
