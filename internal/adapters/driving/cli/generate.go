package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driving"
)

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen"},
	Short:   "Manage report generations",
	Long: `Create, run and inspect report generations.

A generation covers one project and one period (YYYY-MM). Running it reads
the period snapshot, extracts and normalizes the report fields, validates
them and renders the review workbook.`,
}

var generateCreateCmd = &cobra.Command{
	Use:   "create [project-id] [period]",
	Short: "Queue a generation for a project period",
	Args:  cobra.ExactArgs(2),
	RunE:  runGenerateCreate,
}

var generateRunCmd = &cobra.Command{
	Use:   "run [generation-id]",
	Short: "Run a generation through the pipeline",
	Long: `Runs a queued generation, or resumes one that stopped part way.

Stages already stored are skipped unless --force is given; validation
always re-runs. Without an id, --project and --period create a new
generation first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerateRun,
}

var generateStatusCmd = &cobra.Command{
	Use:   "status [generation-id]",
	Short: "Show generation progress and validation",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerateStatus,
}

var generateCancelCmd = &cobra.Command{
	Use:   "cancel [generation-id]",
	Short: "Cancel a generation",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerateCancel,
}

var generateReprocessCmd = &cobra.Command{
	Use:   "reprocess [generation-id]",
	Short: "Re-run selected sections of a generation",
	Long: `Re-extracts and re-normalizes the given sections, merges them into the
stored results, re-applies overrides and re-validates.

Sections: dados_projeto, atividades, resultados, situacao.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerateReprocess,
}

var generateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List generations, newest first",
	Args:  cobra.NoArgs,
	RunE:  runGenerateList,
}

var (
	runForce         bool
	runProject       string
	runPeriod        string
	reprocessSection []string
	reprocessReason  string
	listProject      string
	listLimit        int
)

func init() {
	generateRunCmd.Flags().BoolVarP(&runForce, "force", "f", false, "Re-run extraction and normalization")
	generateRunCmd.Flags().StringVar(&runProject, "project", "", "Project id for a new generation")
	generateRunCmd.Flags().StringVar(&runPeriod, "period", "", "Period (YYYY-MM) for a new generation")

	generateReprocessCmd.Flags().StringSliceVarP(&reprocessSection, "section", "s", nil, "Section to re-run (repeatable)")
	generateReprocessCmd.Flags().StringVarP(&reprocessReason, "reason", "r", "", "Why the sections are re-run")
	_ = generateReprocessCmd.MarkFlagRequired("section")

	generateListCmd.Flags().StringVar(&listProject, "project", "", "Only list this project")
	generateListCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum number of generations")

	generateCmd.AddCommand(generateCreateCmd)
	generateCmd.AddCommand(generateRunCmd)
	generateCmd.AddCommand(generateStatusCmd)
	generateCmd.AddCommand(generateCancelCmd)
	generateCmd.AddCommand(generateReprocessCmd)
	generateCmd.AddCommand(generateListCmd)
	rootCmd.AddCommand(generateCmd)
}

var errGenerationNotConfigured = errors.New("generation service not configured")

func runGenerateCreate(cmd *cobra.Command, args []string) error {
	if generationService == nil {
		return errGenerationNotConfigured
	}

	rec, err := generationService.Create(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to create generation: %w", err)
	}

	return printResult(cmd, rec, func(w io.Writer) {
		fmt.Fprintf(w, "Created generation %s (%s %s)\n", rec.ID, rec.ProjectID, rec.PeriodKey)
	})
}

func runGenerateRun(cmd *cobra.Command, args []string) error {
	if generationService == nil {
		return errGenerationNotConfigured
	}
	ctx := cmd.Context()

	var id string
	switch {
	case len(args) == 1:
		id = args[0]
	case runProject != "" && runPeriod != "":
		rec, err := generationService.Create(ctx, runProject, runPeriod)
		if err != nil {
			return fmt.Errorf("failed to create generation: %w", err)
		}
		id = rec.ID
	default:
		return errors.New("give a generation id, or --project and --period")
	}

	rec, err := generationService.Run(ctx, id, driving.RunOptions{Force: runForce})
	if err != nil {
		return fmt.Errorf("generation %s: %w", id, err)
	}
	return printResult(cmd, rec, func(w io.Writer) { writeRecord(w, rec) })
}

func runGenerateStatus(cmd *cobra.Command, args []string) error {
	if generationService == nil {
		return errGenerationNotConfigured
	}

	rec, err := generationService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get generation: %w", err)
	}
	return printResult(cmd, rec, func(w io.Writer) { writeRecord(w, rec) })
}

func runGenerateCancel(cmd *cobra.Command, args []string) error {
	if generationService == nil {
		return errGenerationNotConfigured
	}

	rec, err := generationService.Cancel(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to cancel generation: %w", err)
	}
	return printResult(cmd, rec, func(w io.Writer) {
		fmt.Fprintf(w, "Generation %s is %s.\n", rec.ID, rec.Status)
	})
}

func runGenerateReprocess(cmd *cobra.Command, args []string) error {
	if reprocessService == nil {
		return errors.New("reprocess service not configured")
	}

	sections := make([]domain.SectionName, 0, len(reprocessSection))
	for _, raw := range reprocessSection {
		name, err := domain.ParseSectionName(raw)
		if err != nil {
			return err
		}
		sections = append(sections, name)
	}

	res, err := reprocessService.ReprocessSections(cmd.Context(), args[0], sections, reprocessReason)
	if err != nil {
		return fmt.Errorf("failed to reprocess: %w", err)
	}
	return printResult(cmd, res, func(w io.Writer) {
		fmt.Fprintf(w, "Reprocessed %v of %s\n", res.Sections, res.GenerationID)
		fmt.Fprintf(w, "Validation score:\t%.0f%%\n", res.ValidationScore*100)
	})
}

func runGenerateList(cmd *cobra.Command, _ []string) error {
	if generationService == nil {
		return errGenerationNotConfigured
	}

	recs, err := generationService.List(cmd.Context(), listProject, listLimit)
	if err != nil {
		return fmt.Errorf("failed to list generations: %w", err)
	}
	if recs == nil {
		recs = []domain.GenerationRecord{}
	}

	return printResult(cmd, recs, func(w io.Writer) {
		if len(recs) == 0 {
			fmt.Fprintln(w, "No generations found.")
			return
		}
		fmt.Fprintln(w, "ID\tPROJECT\tPERIOD\tSTATUS\tPROGRESS\tSCORE\tUPDATED")
		for i := range recs {
			r := &recs[i]
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%%\t%s\t%s\n",
				r.ID, r.ProjectID, r.PeriodKey, r.Status, r.Progress, scoreText(r),
				r.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
	})
}

// writeRecord prints a generation as labelled lines.
func writeRecord(w io.Writer, rec *domain.GenerationRecord) {
	fmt.Fprintf(w, "Generation:\t%s\n", rec.ID)
	fmt.Fprintf(w, "Project:\t%s (%s)\n", rec.ProjectID, rec.PeriodKey)
	fmt.Fprintf(w, "Status:\t%s (%d%%)\n", rec.Status, rec.Progress)
	fmt.Fprintf(w, "Step:\t%s\n", rec.CurrentStep)
	if rec.ErrorMessage != "" {
		fmt.Fprintf(w, "Error:\t%s\n", rec.ErrorMessage)
	}
	fmt.Fprintf(w, "Score:\t%s\n", scoreText(rec))
	if name, ok := rec.PartialResults.Metadata[domain.MetaDocumentLocation].(string); ok {
		fmt.Fprintf(w, "Document:\t%s\n", name)
	}
	if len(rec.Overrides) > 0 {
		fmt.Fprintf(w, "Overrides:\t%d\n", len(rec.Overrides))
	}

	report := rec.PartialResults.ValidationReport
	if report == nil || len(report.Issues) == 0 {
		return
	}
	fmt.Fprintln(w, "\nIssues:")
	for _, issue := range report.Issues {
		fmt.Fprintf(w, "  [%s]\t%s\t%s\n", issue.Severity, issue.Field, issue.Message)
	}
	for _, rr := range report.RetryRecommendations {
		fmt.Fprintf(w, "  retry\t%s\t%s\n", rr.Section, rr.Reason)
	}
}

func scoreText(rec *domain.GenerationRecord) string {
	report := rec.PartialResults.ValidationReport
	if report == nil {
		return "-"
	}
	if report.Approved {
		return fmt.Sprintf("%.0f%% approved", report.OverallScore*100)
	}
	return fmt.Sprintf("%.0f%%", report.OverallScore*100)
}
