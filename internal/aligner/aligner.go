// Package aligner pairs source paragraphs with candidate translation
// paragraphs. Alignment assumes the translation is locally ordered: a
// monotonically advancing cursor walks the candidate list and each source
// paragraph searches a small window around it, which corrects local
// reordering and splits without letting the match drift across the document.
package aligner

import (
	"strings"

	"github.com/valpere/peredit/internal"
	"github.com/valpere/peredit/internal/scorer"
)

const (
	// DefaultThreshold is the minimum confidence for a match.
	DefaultThreshold = 0.3

	// Window bounds relative to the cursor: candidates in
	// [cursor+windowBack, cursor+windowAhead) are considered.
	windowBack  = -2
	windowAhead = 5

	// DefaultMinLength is the merge threshold for over-split paragraphs.
	DefaultMinLength = 50
)

// Result is the outcome of one alignment pass.
type Result struct {
	// Records holds one entry per source paragraph, in source order.
	Records []internal.AlignmentRecord
	// UnmatchedCandidates lists candidate indices no record references,
	// in ascending order. Diagnostic only.
	UnmatchedCandidates []int
}

// Align produces one AlignmentRecord per source paragraph, preserving source
// order. threshold ≤ 0 uses DefaultThreshold. Align is deterministic: equal
// inputs always yield equal output.
func Align(sources []internal.SourceParagraph, candidates []internal.CandidateParagraph, threshold float64) Result {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	records := make([]internal.AlignmentRecord, 0, len(sources))
	used := make(map[int]bool, len(candidates))
	cursor := 0

	for _, src := range sources {
		lo := cursor + windowBack
		if lo < 0 {
			lo = 0
		}
		hi := cursor + windowAhead
		if hi > len(candidates) {
			hi = len(candidates)
		}

		best := internal.NoCandidate
		bestScore := 0.0
		for i := lo; i < hi; i++ {
			if used[i] {
				continue
			}
			// Strictly-greater comparison breaks ties toward the
			// smallest candidate index.
			if s := scorer.Score(src.Text, candidates[i].Text); s > bestScore {
				bestScore = s
				best = i
			}
		}

		if best != internal.NoCandidate && bestScore >= threshold {
			records = append(records, internal.AlignmentRecord{
				SourceIndex:    src.Index,
				CandidateIndex: candidates[best].Index,
				SourceText:     src.Text,
				CandidateText:  candidates[best].Text,
				Confidence:     bestScore,
				Page:           src.Page,
				Matched:        true,
			})
			used[best] = true
			cursor = best + 1
		} else {
			records = append(records, internal.AlignmentRecord{
				SourceIndex:    src.Index,
				CandidateIndex: internal.NoCandidate,
				SourceText:     src.Text,
				Confidence:     0,
				Page:           src.Page,
				Matched:        false,
			})
			// Cursor stays put: the candidate that failed to match
			// here may belong to the next source paragraph.
		}
	}

	var unmatched []int
	for i, c := range candidates {
		if !used[i] {
			unmatched = append(unmatched, c.Index)
		}
	}

	return Result{Records: records, UnmatchedCandidates: unmatched}
}

// MergeShort coalesces adjacent candidate paragraphs shorter than minLength
// runes into a running buffer, flushing the buffer once it holds at least
// minLength characters before the next paragraph arrives. Extractors tend to
// over-split translated documents (soft line breaks, list items); merging
// repairs them before alignment. Indices are renumbered sequentially.
// minLength ≤ 0 uses DefaultMinLength.
func MergeShort(paragraphs []internal.CandidateParagraph, minLength int) []internal.CandidateParagraph {
	if len(paragraphs) == 0 {
		return nil
	}
	if minLength <= 0 {
		minLength = DefaultMinLength
	}

	var merged []internal.CandidateParagraph
	var buffer strings.Builder

	flush := func() {
		if buffer.Len() > 0 {
			merged = append(merged, internal.CandidateParagraph{
				Index: len(merged),
				Text:  buffer.String(),
			})
			buffer.Reset()
		}
	}

	for _, p := range paragraphs {
		if buffer.Len() > 0 && len([]rune(buffer.String())) >= minLength {
			flush()
		}
		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(p.Text)
	}
	flush()

	return merged
}
