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
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/peredit/internal"
	"github.com/valpere/peredit/internal/extract"
	"github.com/valpere/peredit/internal/fanout"
	"github.com/valpere/peredit/internal/invoker"
	"github.com/valpere/peredit/internal/llm"
	"github.com/valpere/peredit/internal/logger"
	"github.com/valpere/peredit/internal/pipeline"
	"github.com/valpere/peredit/internal/server"
	"github.com/valpere/peredit/internal/store"
	"github.com/valpere/peredit/internal/synth"
	"github.com/valpere/peredit/internal/task"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP editing API",
	Long: `Serve the editing pipeline over HTTP. Clients POST a document run to
/api/editor/start, poll /api/editor/task/{id}, then fetch results or
download the rendered final, review, and comparison documents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.New(os.Stderr, logLevel, logFormat)

		var db *store.Store
		if !noDB && dbPath != "" {
			var err error
			db, err = store.New(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
		}

		srv := server.New(task.NewStore(), db, serveRun(), log)

		log.Info().Str("addr", serveAddr).Msg("listening")
		if err := http.ListenAndServe(serveAddr, srv.Handler()); err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	},
}

// serveRun builds the per-request pipeline. Connection settings come from
// flags and config; everything document-specific comes from the request.
func serveRun() server.RunFunc {
	return func(ctx context.Context, req server.StartRequest, progress func(completed, total int)) (internal.Report, error) {
		cfg := llm.Config{
			BaseURL:           fallback(baseURL, "base_url"),
			APIKey:            fallback(apiKey, "api_key"),
			OllamaURL:         fallback(ollamaURL, "ollama_url"),
			GoogleCredentials: fallback(credentials, "google_credentials"),
			SourceLang:        req.SourceLang,
			TargetLang:        req.TargetLang,
		}

		refs, err := parseModelSpecs(req.Models)
		if err != nil {
			return internal.Report{}, err
		}
		models, err := llm.Resolve(refs, cfg)
		if err != nil {
			return internal.Report{}, err
		}

		editorSpec := req.EditorModel
		if editorSpec == "" {
			editorSpec = defaultEditorModel
		}
		editorRef, err := parseModelSpec(editorSpec)
		if err != nil {
			return internal.Report{}, err
		}
		editors, err := llm.Resolve([]llm.ModelRef{editorRef}, cfg)
		if err != nil {
			return internal.Report{}, err
		}

		iv := invoker.New(maxRetries)
		tr := fanout.New(iv, models, req.SourceLang, req.TargetLang)
		sy := synth.New(iv, editors[0], req.SourceLang, req.TargetLang, "")

		log := logger.New(os.Stderr, logLevel, logFormat)
		p := pipeline.New(tr, sy, pipeline.Options{
			Workers:  req.Workers,
			PageFrom: req.StartPage,
			PageTo:   req.EndPage,
			Progress: progress,
		}, log)

		sources := extract.Source(req.SourceText)
		candidates := extract.Candidates(req.DraftText)
		return p.Run(ctx, sources, candidates)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":5000", "Listen address")

	serveCmd.Flags().StringVar(&apiKey, "api-key", "", "API key for the OpenAI-compatible backend")
	serveCmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL of the OpenAI-compatible backend")
	serveCmd.Flags().StringVar(&ollamaURL, "ollama-url", "http://localhost:11434", "Ollama base URL")
	serveCmd.Flags().StringVar(&credentials, "google-credentials", "", "Path to Google Cloud credentials")
	serveCmd.Flags().IntVar(&maxRetries, "max-retries", invoker.DefaultMaxAttempts, "Total attempts per model call including the first")

	serveCmd.Flags().StringVar(&dbPath, "db", "./data/peredit.db", "Database path for run history")
	serveCmd.Flags().BoolVar(&noDB, "no-db", false, "Disable run persistence")
}
