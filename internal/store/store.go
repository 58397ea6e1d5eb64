// Package store persists finished document runs in SQLite so past edits
// can be listed and re-exported without re-running the models.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/peredit/internal"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS edit_runs (
		id TEXT PRIMARY KEY,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		total INTEGER NOT NULL,
		matched INTEGER NOT NULL,
		edited INTEGER NOT NULL,
		translated_only INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS paragraph_results (
		run_id TEXT NOT NULL,
		source_index INTEGER NOT NULL,
		page INTEGER NOT NULL,
		matched BOOLEAN NOT NULL,
		confidence REAL NOT NULL,
		source_text TEXT NOT NULL,
		candidate_text TEXT,
		review TEXT,
		final_text TEXT NOT NULL,
		edited BOOLEAN NOT NULL,
		error TEXT,
		PRIMARY KEY (run_id, source_index),
		FOREIGN KEY (run_id) REFERENCES edit_runs(id)
	);

	CREATE TABLE IF NOT EXISTS model_translations (
		run_id TEXT NOT NULL,
		source_index INTEGER NOT NULL,
		model TEXT NOT NULL,
		translated_text TEXT,
		error TEXT,
		PRIMARY KEY (run_id, source_index, model),
		FOREIGN KEY (run_id, source_index) REFERENCES paragraph_results(run_id, source_index)
	);

	CREATE INDEX IF NOT EXISTS idx_paragraphs_run ON paragraph_results(run_id, page, source_index);
	CREATE INDEX IF NOT EXISTS idx_translations_run ON model_translations(run_id, source_index);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores a completed run with all paragraph results and per-model
// translations in one transaction.
func (s *Store) SaveRun(ctx context.Context, run internal.EditRun, report internal.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO edit_runs (id, source_lang, target_lang, total, matched, edited, translated_only, failed, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SourceLang, run.TargetLang,
		report.Stats.Total, report.Stats.Matched, report.Stats.Edited,
		report.Stats.TranslatedOnly, report.Stats.Failed, run.CreatedAt)
	if err != nil {
		return err
	}

	for _, p := range report.Paragraphs {
		a := p.Alignment
		_, err = tx.ExecContext(ctx,
			`INSERT INTO paragraph_results (run_id, source_index, page, matched, confidence, source_text, candidate_text, review, final_text, edited, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, a.SourceIndex, a.Page, a.Matched, a.Confidence,
			normalizeText(a.SourceText), normalizeText(a.CandidateText),
			p.Review, p.Final, p.Edited, p.Err)
		if err != nil {
			return err
		}

		for _, t := range p.Translations {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO model_translations (run_id, source_index, model, translated_text, error) VALUES (?, ?, ?, ?, ?)`,
				run.ID, a.SourceIndex, t.Model, t.Text, t.Err)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// GetRun returns one run's metadata.
func (s *Store) GetRun(ctx context.Context, id string) (internal.EditRun, error) {
	var run internal.EditRun
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_lang, target_lang, total, matched, edited, translated_only, failed, created_at FROM edit_runs WHERE id = ?`,
		id).Scan(&run.ID, &run.SourceLang, &run.TargetLang,
		&run.Stats.Total, &run.Stats.Matched, &run.Stats.Edited,
		&run.Stats.TranslatedOnly, &run.Stats.Failed, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return internal.EditRun{}, fmt.Errorf("run %s not found", id)
	}
	return run, err
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]internal.EditRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_lang, target_lang, total, matched, edited, translated_only, failed, created_at FROM edit_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []internal.EditRun
	for rows.Next() {
		var run internal.EditRun
		if err := rows.Scan(&run.ID, &run.SourceLang, &run.TargetLang,
			&run.Stats.Total, &run.Stats.Matched, &run.Stats.Edited,
			&run.Stats.TranslatedOnly, &run.Stats.Failed, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetReport reconstructs a run's full report from the paragraph and
// translation tables, ordered by (page, source index).
func (s *Store) GetReport(ctx context.Context, runID string) (internal.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_index, page, matched, confidence, source_text, candidate_text, review, final_text, edited, error FROM paragraph_results WHERE run_id = ? ORDER BY page, source_index`,
		runID)
	if err != nil {
		return internal.Report{}, err
	}
	defer rows.Close()

	var report internal.Report
	byIndex := make(map[int]int)
	for rows.Next() {
		var p internal.ParagraphResult
		var candidate, review, errMsg sql.NullString
		if err := rows.Scan(&p.Alignment.SourceIndex, &p.Alignment.Page,
			&p.Alignment.Matched, &p.Alignment.Confidence,
			&p.Alignment.SourceText, &candidate, &review, &p.Final, &p.Edited, &errMsg); err != nil {
			return internal.Report{}, err
		}
		p.Alignment.CandidateText = candidate.String
		p.Alignment.CandidateIndex = internal.NoCandidate
		p.Review = review.String
		p.Err = errMsg.String

		byIndex[p.Alignment.SourceIndex] = len(report.Paragraphs)
		report.Paragraphs = append(report.Paragraphs, p)
	}
	if err := rows.Err(); err != nil {
		return internal.Report{}, err
	}
	if len(report.Paragraphs) == 0 {
		return internal.Report{}, fmt.Errorf("run %s not found", runID)
	}

	trows, err := s.db.QueryContext(ctx,
		`SELECT source_index, model, translated_text, error FROM model_translations WHERE run_id = ? ORDER BY rowid`,
		runID)
	if err != nil {
		return internal.Report{}, err
	}
	defer trows.Close()

	for trows.Next() {
		var idx int
		var t internal.ModelTranslation
		var text, errMsg sql.NullString
		if err := trows.Scan(&idx, &t.Model, &text, &errMsg); err != nil {
			return internal.Report{}, err
		}
		t.Text = text.String
		t.Err = errMsg.String
		if pos, ok := byIndex[idx]; ok {
			report.Paragraphs[pos].Translations = append(report.Paragraphs[pos].Translations, t)
		}
	}
	if err := trows.Err(); err != nil {
		return internal.Report{}, err
	}

	for _, p := range report.Paragraphs {
		report.Stats.Total++
		if p.Alignment.Matched {
			report.Stats.Matched++
		}
		switch {
		case p.Err != "":
			report.Stats.Failed++
		case p.Edited:
			report.Stats.Edited++
		default:
			report.Stats.TranslatedOnly++
		}
	}

	return report, nil
}

// DeleteRun removes a run and its paragraph rows.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM model_translations WHERE run_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM paragraph_results WHERE run_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM edit_runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", id)
	}

	return tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// so the same paragraph always stores identically.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
