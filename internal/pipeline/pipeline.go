// Package pipeline runs a full document edit: align the human draft
// against the source paragraphs once, then process every aligned record
// under a bounded worker pool. A failed paragraph never halts the run;
// its result carries the error and the document completes around it.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/valpere/peredit/internal"
	"github.com/valpere/peredit/internal/aligner"
	"github.com/valpere/peredit/internal/fanout"
	"github.com/valpere/peredit/internal/synth"
)

// DefaultWorkers is the worker pool width when Options.Workers is zero.
const DefaultWorkers = 5

// ErrNoParagraphs is the document-level setup failure: nothing survived
// extraction and page filtering, so there is nothing to align.
var ErrNoParagraphs = fmt.Errorf("no source paragraphs to process")

// Options tune one document run.
type Options struct {
	// Threshold is the alignment confidence threshold; zero means
	// aligner.DefaultThreshold.
	Threshold float64

	// Workers bounds the number of paragraphs in flight; zero means
	// DefaultWorkers.
	Workers int

	// PageFrom and PageTo restrict processing to an inclusive 1-based
	// page range. Zero means unbounded on that side.
	PageFrom int
	PageTo   int

	// MinLength is the merge threshold for short candidate paragraphs;
	// zero means aligner.DefaultMinLength.
	MinLength int

	// Progress, when set, is called once per completed paragraph. Calls
	// come from a single goroutine; the sink needs no locking of its own.
	Progress func(completed, total int)
}

// Pipeline orchestrates alignment, fan-out translation, and editorial
// synthesis for whole documents.
type Pipeline struct {
	translator *fanout.Translator
	synth      *synth.Synthesizer
	opts       Options
	log        zerolog.Logger
}

// New creates a Pipeline. Zero-valued Options fields fall back to package
// defaults.
func New(translator *fanout.Translator, synthesizer *synth.Synthesizer, opts Options, log zerolog.Logger) *Pipeline {
	if opts.Threshold == 0 {
		opts.Threshold = aligner.DefaultThreshold
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.MinLength <= 0 {
		opts.MinLength = aligner.DefaultMinLength
	}
	return &Pipeline{
		translator: translator,
		synth:      synthesizer,
		opts:       opts,
		log:        log,
	}
}

// Run processes one document and returns its ordered report.
//
// Sources are filtered to the configured page range, candidates are merged
// to the minimum paragraph length, and the two lists are aligned exactly
// once. Each alignment record then becomes one unit of work. Cancellation
// is honored between unit dispatches; units already dispatched finish.
func (p *Pipeline) Run(ctx context.Context, sources []internal.SourceParagraph, candidates []internal.CandidateParagraph) (internal.Report, error) {
	sources = filterPages(sources, p.opts.PageFrom, p.opts.PageTo)
	if len(sources) == 0 {
		return internal.Report{}, ErrNoParagraphs
	}

	merged := aligner.MergeShort(candidates, p.opts.MinLength)
	aligned := aligner.Align(sources, merged, p.opts.Threshold)

	total := len(aligned.Records)
	p.log.Info().
		Int("paragraphs", total).
		Int("candidates", len(merged)).
		Int("workers", p.opts.Workers).
		Msg("document run started")

	jobs := make(chan internal.AlignmentRecord)
	events := make(chan internal.ParagraphResult)

	var wg sync.WaitGroup
	for i := 0; i < p.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				events <- p.processUnit(ctx, rec)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(events)
	}()

	go func() {
		defer close(jobs)
		for _, rec := range aligned.Records {
			select {
			case jobs <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Single aggregator: it alone owns the results slice and the
	// progress counter, so completions need no lock.
	results := make([]internal.ParagraphResult, 0, total)
	completed := 0
	for res := range events {
		completed++
		results = append(results, res)
		if p.opts.Progress != nil {
			p.opts.Progress(completed, total)
		}
	}

	if err := ctx.Err(); err != nil {
		return internal.Report{}, err
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i].Alignment, results[j].Alignment
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		return a.SourceIndex < b.SourceIndex
	})

	report := internal.Report{
		Paragraphs:          results,
		Stats:               computeStats(results),
		UnmatchedCandidates: aligned.UnmatchedCandidates,
	}

	p.log.Info().
		Int("total", report.Stats.Total).
		Int("matched", report.Stats.Matched).
		Int("edited", report.Stats.Edited).
		Int("failed", report.Stats.Failed).
		Msg("document run finished")

	return report, nil
}

// processUnit handles one alignment record. Failures stay inside the
// returned result: the final text falls back to the human draft when one
// exists, then to the first machine translation, then to the source text.
func (p *Pipeline) processUnit(ctx context.Context, rec internal.AlignmentRecord) internal.ParagraphResult {
	res := internal.ParagraphResult{Alignment: rec}
	res.Translations = p.translator.TranslateForComparison(ctx, rec.SourceText)

	if rec.Matched {
		out, err := p.synth.Synthesize(ctx, rec.SourceText, rec.CandidateText, res.Translations)
		if err != nil {
			p.log.Warn().
				Int("paragraph", rec.SourceIndex).
				Err(err).
				Msg("synthesis failed, keeping human draft")
			res.Err = err.Error()
			res.Final = rec.CandidateText
			return res
		}
		res.Review = out.Review
		res.Final = out.Final
		res.Edited = true
		return res
	}

	out, err := p.synth.Synthesize(ctx, rec.SourceText, "", res.Translations)
	if err != nil {
		p.log.Warn().
			Int("paragraph", rec.SourceIndex).
			Err(err).
			Msg("all translations failed, keeping source text")
		res.Err = err.Error()
		res.Final = rec.SourceText
		return res
	}
	res.Review = out.Review
	res.Final = out.Final
	return res
}

// filterPages keeps source paragraphs inside the inclusive [from, to]
// page range. Zero bounds are open.
func filterPages(sources []internal.SourceParagraph, from, to int) []internal.SourceParagraph {
	if from <= 0 && to <= 0 {
		return sources
	}
	out := make([]internal.SourceParagraph, 0, len(sources))
	for _, s := range sources {
		if from > 0 && s.Page < from {
			continue
		}
		if to > 0 && s.Page > to {
			continue
		}
		out = append(out, s)
	}
	return out
}

func computeStats(results []internal.ParagraphResult) internal.ReportStats {
	stats := internal.ReportStats{Total: len(results)}
	for _, r := range results {
		if r.Alignment.Matched {
			stats.Matched++
		}
		switch {
		case r.Err != "":
			stats.Failed++
		case r.Edited:
			stats.Edited++
		default:
			stats.TranslatedOnly++
		}
	}
	return stats
}
