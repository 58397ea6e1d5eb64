// Package scorer estimates how likely a candidate translation paragraph
// corresponds to a source paragraph. The score is a weighted blend of cheap,
// language-independent signals; it is pure and deterministic so alignment
// results are reproducible.
package scorer

import (
	"strings"
	"unicode"
)

// Component weights. Length and numeric anchors dominate because they are
// the most reliable cross-script signals; punctuation density is noisy.
const (
	lengthWeight      = 0.4
	numericWeight     = 0.4
	punctuationWeight = 0.2
)

// Score returns a confidence in [0,1] that candidate translates source.
// Either string being empty scores 0.
func Score(source, candidate string) float64 {
	if source == "" || candidate == "" {
		return 0
	}
	return lengthWeight*lengthScore(source, candidate) +
		numericWeight*numericScore(source, candidate) +
		punctuationWeight*punctuationScore(source, candidate)
}

// lengthScore rates the candidate/source rune-length ratio. Translations
// from an alphabetic source into a denser script are systematically shorter,
// so ratios in [0.3, 0.9] are ideal; outside that band the score decays
// smoothly around the 0.6 center rather than cutting off hard.
func lengthScore(source, candidate string) float64 {
	srcLen := len([]rune(source))
	if srcLen == 0 {
		return 0
	}
	ratio := float64(len([]rune(candidate))) / float64(srcLen)
	if ratio >= 0.3 && ratio <= 0.9 {
		return 1.0
	}
	s := 1.0 - abs(ratio-0.6)
	if s < 0 {
		return 0
	}
	return s
}

// numericScore compares the sets of maximal digit runs in both strings.
// Numbers (dates, citations, figures) survive translation unchanged and are
// strong alignment anchors. A source with no digits scores a neutral 1.0.
func numericScore(source, candidate string) float64 {
	srcNums := digitRuns(source)
	if len(srcNums) == 0 {
		return 1.0
	}
	candNums := digitRuns(candidate)
	common := 0
	for n := range srcNums {
		if _, ok := candNums[n]; ok {
			common++
		}
	}
	return float64(common) / float64(len(srcNums))
}

// digitRuns extracts all maximal digit runs from s as a set.
func digitRuns(s string) map[string]struct{} {
	runs := make(map[string]struct{})
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			runs[b.String()] = struct{}{}
			b.Reset()
		}
	}
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return runs
}

// Sentence-terminal and clause punctuation, per script. The source side is
// assumed Latin-script, the candidate side may use fullwidth CJK marks; both
// classes are counted in both strings so the score stays symmetric.
const (
	latinPunct = ".!?;:,"
	cjkPunct   = "。！？；：，、"
)

// punctuationScore compares clause punctuation density. A ratio above 0.3 is
// used directly; anything lower returns a neutral 0.5 so a mismatch in
// punctuation alone never zeroes out the confidence.
func punctuationScore(source, candidate string) float64 {
	a := countPunct(source)
	b := countPunct(candidate)
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi == 0 {
		hi = 1
	}
	ratio := float64(lo) / float64(hi)
	if ratio > 0.3 {
		return ratio
	}
	return 0.5
}

func countPunct(s string) int {
	n := 0
	for _, r := range s {
		if strings.ContainsRune(latinPunct, r) || strings.ContainsRune(cjkPunct, r) {
			n++
		} else if unicode.Is(unicode.Po, r) && r > unicode.MaxASCII {
			// Other non-ASCII clause punctuation (e.g. ellipsis variants).
			n++
		}
	}
	return n
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
