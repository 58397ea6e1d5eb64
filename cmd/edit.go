/*
Copyright © 2026 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/valpere/peredit/internal"
	"github.com/valpere/peredit/internal/detector"
	"github.com/valpere/peredit/internal/extract"
	"github.com/valpere/peredit/internal/fanout"
	"github.com/valpere/peredit/internal/invoker"
	"github.com/valpere/peredit/internal/llm"
	"github.com/valpere/peredit/internal/logger"
	"github.com/valpere/peredit/internal/pipeline"
	"github.com/valpere/peredit/internal/report"
	"github.com/valpere/peredit/internal/store"
	"github.com/valpere/peredit/internal/synth"
)

var (
	sourceFile string
	draftFile  string
	outputDir  string
	sourceLang string
	targetLang string

	modelSpecs  []string
	editorModel string

	apiKey      string
	baseURL     string
	ollamaURL   string
	credentials string

	workers    int
	threshold  float64
	minLength  int
	startPage  int
	endPage    int
	maxRetries int

	dbPath string
	noDB   bool
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Align a human draft with its source and edit it with LLMs",
	Long: `Align the paragraphs of a human translation draft against the source
document, translate every source paragraph with several models in
parallel, and have an editor model merge draft and references into a
polished final text.

The source file is a plain-text page dump with form feeds between pages
(pdftotext output works as-is). The draft file is plain text with blank
lines between paragraphs; omit it to get a machine-only translation.

Model specs accept three forms:
  qwen/qwen2.5-72b              model on the shared OpenAI-compatible backend
  ollama:llama3.2               model served by the local Ollama instance
  grok@https://host/v1@key      model on a custom endpoint`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srcBytes, err := os.ReadFile(sourceFile)
		if err != nil {
			return fmt.Errorf("failed to read source file: %w", err)
		}
		sources := extract.Source(string(srcBytes))
		if len(sources) == 0 {
			return fmt.Errorf("no usable paragraphs in %s", sourceFile)
		}

		var candidates []internal.CandidateParagraph
		if draftFile != "" {
			draftBytes, err := os.ReadFile(draftFile)
			if err != nil {
				return fmt.Errorf("failed to read draft file: %w", err)
			}
			candidates = extract.Candidates(string(draftBytes))
		}

		if sourceLang == "auto" {
			det := detector.New()
			if name := det.DocumentLang(sources, ""); name != "" {
				sourceLang = name
				fmt.Fprintf(os.Stderr, "Detected source language: %s\n", sourceLang)
			}
		}

		p, err := buildPipeline(pipeline.Options{
			Threshold: threshold,
			Workers:   workers,
			MinLength: minLength,
			PageFrom:  startPage,
			PageTo:    endPage,
			Progress: func(completed, total int) {
				fmt.Fprintf(os.Stderr, "\rProcessing paragraphs: %d/%d", completed, total)
				if completed == total {
					fmt.Fprintln(os.Stderr)
				}
			},
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Source paragraphs: %d, draft paragraphs: %d\n", len(sources), len(candidates))

		ctx := context.Background()
		rep, err := p.Run(ctx, sources, candidates)
		if err != nil {
			return fmt.Errorf("document run failed: %w", err)
		}

		files, err := writeOutputs(rep)
		if err != nil {
			return err
		}

		if !noDB && dbPath != "" {
			if err := persistRun(ctx, rep); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to persist run: %v\n", err)
			}
		}

		fmt.Printf("Paragraphs: %d total, %d aligned, %d edited, %d machine-only, %d failed\n",
			rep.Stats.Total, rep.Stats.Matched, rep.Stats.Edited,
			rep.Stats.TranslatedOnly, rep.Stats.Failed)
		if n := len(rep.UnmatchedCandidates); n > 0 {
			fmt.Printf("Draft paragraphs without a source match: %d\n", n)
		}
		for kind, path := range files {
			fmt.Printf("Wrote %s: %s\n", kind, path)
		}
		return nil
	},
}

// buildPipeline wires models, invoker, fan-out, and synthesizer from the
// CLI settings. Shared with the serve command.
func buildPipeline(opts pipeline.Options) (*pipeline.Pipeline, error) {
	cfg := llm.Config{
		BaseURL:           fallback(baseURL, "base_url"),
		APIKey:            fallback(apiKey, "api_key"),
		OllamaURL:         fallback(ollamaURL, "ollama_url"),
		GoogleCredentials: fallback(credentials, "google_credentials"),
		SourceLang:        sourceLang,
		TargetLang:        targetLang,
	}

	refs, err := parseModelSpecs(modelSpecs)
	if err != nil {
		return nil, err
	}
	models, err := llm.Resolve(refs, cfg)
	if err != nil {
		return nil, err
	}

	editorRef, err := parseModelSpec(editorModel)
	if err != nil {
		return nil, err
	}
	editors, err := llm.Resolve([]llm.ModelRef{editorRef}, cfg)
	if err != nil {
		return nil, err
	}

	iv := invoker.New(maxRetries)
	tr := fanout.New(iv, models, sourceLang, targetLang)
	sy := synth.New(iv, editors[0], sourceLang, targetLang, "")

	log := logger.New(os.Stderr, logLevel, logFormat)
	return pipeline.New(tr, sy, opts, log), nil
}

// writeOutputs renders the three report documents next to each other in
// the output directory, suffixed with the editor model name.
func writeOutputs(rep internal.Report) (map[string]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	suffix := modelSuffix(editorModel)

	files := map[string]string{
		"final":      filepath.Join(outputDir, fmt.Sprintf("%s_edited_%s.txt", base, suffix)),
		"review":     filepath.Join(outputDir, fmt.Sprintf("%s_review_%s.md", base, suffix)),
		"comparison": filepath.Join(outputDir, fmt.Sprintf("%s_comparison_%s.md", base, suffix)),
	}

	docs := map[string]string{
		"final":      report.FinalText(rep),
		"review":     report.ReviewMarkdown(rep),
		"comparison": report.ComparisonMarkdown(rep),
	}
	for kind, path := range files {
		if err := os.WriteFile(path, []byte(docs[kind]), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", kind, err)
		}
	}
	return files, nil
}

func persistRun(ctx context.Context, rep internal.Report) error {
	db, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	run := internal.EditRun{
		ID:         uuid.NewString()[:8],
		SourceLang: sourceLang,
		TargetLang: targetLang,
		Stats:      rep.Stats,
		CreatedAt:  time.Now(),
	}
	if err := db.SaveRun(ctx, run, rep); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Saved run %s\n", run.ID)
	return nil
}

// modelSuffix shortens a model id into a filename-safe tag.
func modelSuffix(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	model = strings.NewReplacer(".", "-", ":", "-", "@", "-").Replace(model)
	if len(model) > 15 {
		model = model[:15]
	}
	return model
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().StringVarP(&sourceFile, "source", "i", "", "Source document text dump (required)")
	editCmd.Flags().StringVarP(&draftFile, "draft", "d", "", "Human translation draft")
	editCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "./output", "Output directory")
	editCmd.Flags().StringVarP(&sourceLang, "source-lang", "s", "auto", "Source language")
	editCmd.Flags().StringVarP(&targetLang, "target-lang", "t", "", "Target language (required)")

	editCmd.Flags().StringSliceVar(&modelSpecs, "models", nil, "Translation models (comma-separated specs)")
	editCmd.Flags().StringVar(&editorModel, "editor-model", defaultEditorModel, "Editor model spec")

	editCmd.Flags().StringVar(&apiKey, "api-key", "", "API key for the OpenAI-compatible backend")
	editCmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL of the OpenAI-compatible backend")
	editCmd.Flags().StringVar(&ollamaURL, "ollama-url", "http://localhost:11434", "Ollama base URL")
	editCmd.Flags().StringVar(&credentials, "google-credentials", "", "Path to Google Cloud credentials")

	editCmd.Flags().IntVar(&workers, "workers", pipeline.DefaultWorkers, "Parallel paragraphs in flight")
	editCmd.Flags().Float64Var(&threshold, "threshold", 0, "Alignment confidence threshold")
	editCmd.Flags().IntVar(&minLength, "min-length", 0, "Minimum draft paragraph length before merging")
	editCmd.Flags().IntVar(&startPage, "start-page", 0, "First page to process")
	editCmd.Flags().IntVar(&endPage, "end-page", 0, "Last page to process")
	editCmd.Flags().IntVar(&maxRetries, "max-retries", invoker.DefaultMaxAttempts, "Total attempts per model call including the first")

	editCmd.Flags().StringVar(&dbPath, "db", "./data/peredit.db", "Database path for run history")
	editCmd.Flags().BoolVar(&noDB, "no-db", false, "Disable run persistence")

	editCmd.MarkFlagRequired("source")
	editCmd.MarkFlagRequired("target-lang")
}
