// Package internal holds the data model shared by the alignment and
// editing pipeline: extracted paragraphs, alignment records, per-model
// translation sets, and the final document report.
package internal

import "time"

// SourceParagraph is one paragraph of the reference document as produced by
// an extractor. Index is stable document order; Page is 1-based.
type SourceParagraph struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// CandidateParagraph is one paragraph of the human-authored translation.
type CandidateParagraph struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// NoCandidate marks an AlignmentRecord with no matched candidate paragraph.
const NoCandidate = -1

// AlignmentRecord pairs one source paragraph with at most one candidate
// paragraph. Records are immutable once produced by the aligner.
// Matched is true iff CandidateIndex != NoCandidate and Confidence reached
// the alignment threshold.
type AlignmentRecord struct {
	SourceIndex    int     `json:"source_index"`
	CandidateIndex int     `json:"candidate_index"`
	SourceText     string  `json:"source_text"`
	CandidateText  string  `json:"candidate_text,omitempty"`
	Confidence     float64 `json:"confidence"`
	Page           int     `json:"page"`
	Matched        bool    `json:"matched"`
}

// ModelTranslation is one entry of a TranslationSet: either the text a model
// produced or the error that prevented it.
type ModelTranslation struct {
	Model string `json:"model"`
	Text  string `json:"text,omitempty"`
	Err   string `json:"error,omitempty"`
}

// OK reports whether the entry holds a usable translation.
func (t ModelTranslation) OK() bool {
	return t.Err == "" && t.Text != ""
}

// TranslationSet holds one entry per configured model, in configured model
// order. The set is created by the fan-out translator and never mutated
// afterward.
type TranslationSet []ModelTranslation

// Get returns the entry for the named model.
func (s TranslationSet) Get(model string) (ModelTranslation, bool) {
	for _, t := range s {
		if t.Model == model {
			return t, true
		}
	}
	return ModelTranslation{}, false
}

// First returns the first successful entry in model order.
func (s TranslationSet) First() (ModelTranslation, bool) {
	for _, t := range s {
		if t.OK() {
			return t, true
		}
	}
	return ModelTranslation{}, false
}

// Successes returns all successful entries in model order.
func (s TranslationSet) Successes() []ModelTranslation {
	var out []ModelTranslation
	for _, t := range s {
		if t.OK() {
			out = append(out, t)
		}
	}
	return out
}

// ParagraphResult is the outcome of one orchestration unit. Edited is true
// iff a human candidate text existed and synthesis succeeded.
type ParagraphResult struct {
	Alignment    AlignmentRecord `json:"alignment"`
	Translations TranslationSet  `json:"translations"`
	Review       string          `json:"review"`
	Final        string          `json:"final"`
	Edited       bool            `json:"edited"`
	Err          string          `json:"error,omitempty"`
}

// ReportStats summarises a document run.
type ReportStats struct {
	Total          int `json:"total"`
	Matched        int `json:"matched"`
	Edited         int `json:"edited"`
	TranslatedOnly int `json:"translated_only"`
	Failed         int `json:"failed"`
}

// Report is the final ordered result of a document run. Paragraphs are
// sorted by (page, source index). UnmatchedCandidates lists candidate
// paragraph indices that never became a match target; it is diagnostic only.
type Report struct {
	Paragraphs          []ParagraphResult `json:"paragraphs"`
	Stats               ReportStats       `json:"stats"`
	UnmatchedCandidates []int             `json:"unmatched_candidates,omitempty"`
}

// EditRun identifies one persisted document run.
type EditRun struct {
	ID         string      `json:"id"`
	SourceLang string      `json:"source_lang"`
	TargetLang string      `json:"target_lang"`
	Stats      ReportStats `json:"stats"`
	CreatedAt  time.Time   `json:"created_at"`
}
