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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/peredit/internal/report"
	"github.com/valpere/peredit/internal/store"
)

var (
	runsDBPath string
	exportKind string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage persisted document runs",
	Long:  `List, export, and delete document runs stored in the SQLite database.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all persisted runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(runsDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		if len(runs) == 0 {
			fmt.Println("No persisted runs.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSOURCE\tTARGET\tTOTAL\tALIGNED\tEDITED\tFAILED\tCREATED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
				r.ID, r.SourceLang, r.TargetLang,
				r.Stats.Total, r.Stats.Matched, r.Stats.Edited, r.Stats.Failed,
				r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var runsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Print one run's final, review, or comparison document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(runsDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		rep, err := db.GetReport(context.Background(), args[0])
		if err != nil {
			return err
		}

		switch exportKind {
		case "final":
			fmt.Print(report.FinalText(rep))
		case "review":
			fmt.Print(report.ReviewMarkdown(rep))
		case "comparison":
			fmt.Print(report.ComparisonMarkdown(rep))
		default:
			return fmt.Errorf("unknown kind %q: want final, review, or comparison", exportKind)
		}
		return nil
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a persisted run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(runsDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.DeleteRun(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted run: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsDeleteCmd)

	runsCmd.PersistentFlags().StringVar(&runsDBPath, "db", "./data/peredit.db", "Database path")
	runsExportCmd.Flags().StringVar(&exportKind, "kind", "final", "Document to export (final, review, comparison)")
}
