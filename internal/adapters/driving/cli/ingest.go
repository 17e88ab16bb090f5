package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/connectors/filesystem"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driving"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/logger"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files or directories...]",
	Short: "Chunk, embed and index project documents",
	Long: `Reads documents and wiki pages, splits them into chunks, embeds them when
an embedding provider is configured and stores them in the retrieval index.

Re-ingesting a source replaces its previous chunks. HTML pages and Word
documents are converted to text first. Files under a "wiki" directory are
indexed as wiki pages. Source ids are paths relative to --root.

With --watch, the directory is ingested and then watched: changed files are
re-ingested and deleted files are removed from the index until interrupted.`,
	RunE: runIngest,
}

var (
	ingestRoot   string
	ingestWatch  string
	ingestRemove []string
)

func init() {
	ingestCmd.Flags().StringVar(&ingestRoot, "root", ".", "Directory source ids are relative to")
	ingestCmd.Flags().StringVarP(&ingestWatch, "watch", "w", "", "Ingest this directory and keep it in sync")
	ingestCmd.Flags().StringSliceVar(&ingestRemove, "remove", nil, "Remove a source id from the index (repeatable)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if len(args) == 0 && ingestWatch == "" && len(ingestRemove) == 0 {
		return errors.New("give files or directories to ingest, --watch or --remove")
	}
	ctx := cmd.Context()

	for _, id := range ingestRemove {
		if err := ingestService.Remove(ctx, id); err != nil {
			return fmt.Errorf("failed to remove %s: %w", id, err)
		}
		cmd.Printf("Removed %s from the index.\n", id)
	}

	if len(args) > 0 {
		sources, failures, err := collectSources(ctx, filesystem.New(ingestRoot), args)
		if err != nil {
			return err
		}
		if err := ingestAndReport(ctx, cmd, ingestService, sources, failures); err != nil {
			return err
		}
	}

	if ingestWatch != "" {
		return watchAndIngest(ctx, cmd, filesystem.New(ingestWatch), ingestService)
	}
	return nil
}

// collectSources reads files and scans directories. Unreadable files are
// returned as failures keyed by source id.
func collectSources(ctx context.Context, reader *filesystem.Reader, paths []string) ([]domain.SourceText, map[string]error, error) {
	var sources []domain.SourceText
	failures := make(map[string]error)

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", p, err)
		}

		if !info.IsDir() {
			text, err := reader.Read(p)
			if err != nil {
				failures[reader.SourceID(p)] = err
				continue
			}
			sources = append(sources, text)
			continue
		}

		texts, scanFailures, err := reader.ScanDir(ctx, p)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, texts...)
		for id, ferr := range scanFailures {
			failures[id] = ferr
		}
	}
	return sources, failures, nil
}

func ingestAndReport(
	ctx context.Context,
	cmd *cobra.Command,
	svc driving.IngestService,
	sources []domain.SourceText,
	readFailures map[string]error,
) error {
	report, err := svc.Ingest(ctx, sources)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	if len(readFailures) > 0 && report.Failures == nil {
		report.Failures = make(map[string]string, len(readFailures))
	}
	for id, ferr := range readFailures {
		report.Failures[id] = ferr.Error()
	}

	return printResult(cmd, report, func(w io.Writer) {
		fmt.Fprintf(w, "Sources:\t%d\n", report.Sources)
		fmt.Fprintf(w, "Chunks:\t%d\n", report.Chunks)
		fmt.Fprintf(w, "Embedded:\t%d\n", report.Embedded)
		if len(report.Failures) == 0 {
			return
		}
		fmt.Fprintln(w, "\nFailures:")
		ids := make([]string, 0, len(report.Failures))
		for id := range report.Failures {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(w, "  %s\t%s\n", id, report.Failures[id])
		}
	})
}

// watchAndIngest ingests the directory, then mirrors changes into the
// index until ctx ends.
func watchAndIngest(ctx context.Context, cmd *cobra.Command, reader *filesystem.Reader, svc driving.IngestService) error {
	sources, failures, err := reader.Scan(ctx)
	if err != nil {
		return err
	}
	if err := ingestAndReport(ctx, cmd, svc, sources, failures); err != nil {
		return err
	}

	changes, err := reader.Watch(ctx, filesystem.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", reader.Root(), err)
	}
	logger.SetTimestamps(true)
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", reader.Root())

	for change := range changes {
		switch change.Type {
		case filesystem.ChangeRemoved:
			if err := svc.Remove(ctx, change.SourceID); err != nil {
				logger.Error("remove %s: %v", change.SourceID, err)
				continue
			}
			cmd.Printf("removed  %s\n", change.SourceID)
		default:
			report, err := svc.Ingest(ctx, []domain.SourceText{change.Source})
			if err != nil {
				logger.Error("ingest %s: %v", change.SourceID, err)
				continue
			}
			if msg, failed := report.Failures[change.SourceID]; failed {
				logger.Error("ingest %s: %s", change.SourceID, msg)
				continue
			}
			cmd.Printf("indexed  %s (%d chunks)\n", change.SourceID, report.Chunks)
		}
	}
	return nil
}
