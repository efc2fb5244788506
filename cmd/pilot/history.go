package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/helpdesk-pilot/report"
)

var (
	historyLimit       int
	historyRunID       string
	historyTranscripts bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored runs, or show one run with --run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log := newLogger(cfg)

		db, closeDB, err := openDatabase(cfg, log)
		if err != nil {
			return err
		}
		defer closeDB()
		store := report.NewGormStore(db, log)

		out := cmd.OutOrStdout()
		if historyRunID != "" {
			rep, err := store.Get(cmd.Context(), historyRunID)
			if err != nil {
				return fmt.Errorf("failed to get run %s: %w", historyRunID, err)
			}
			report.WriteTable(out, rep)
			if !historyTranscripts {
				return nil
			}
			blobs, err := newBlobStorage(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return writeTranscripts(cmd.Context(), out, report.NewTranscriptStore(blobs), historyRunID)
		}

		runs, err := store.List(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		report.WriteRunsTable(out, runs)
		return nil
	},
}

// writeTranscripts prints every stored transcript of a run in execution order.
func writeTranscripts(ctx context.Context, w io.Writer, store *report.TranscriptStore, runID string) error {
	keys, err := store.Keys(ctx, runID)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintf(w, "\nNo transcripts stored for run %s\n", runID)
		return nil
	}
	for _, key := range keys {
		text, err := store.Read(ctx, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\n=== %s ===\n%s", key, text)
	}
	return nil
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to list")
	historyCmd.Flags().StringVar(&historyRunID, "run", "", "show the cases of one run")
	historyCmd.Flags().BoolVar(&historyTranscripts, "transcripts", false, "with --run, also print the stored transcripts")
	rootCmd.AddCommand(historyCmd)
}
