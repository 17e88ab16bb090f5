package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Manage manual field corrections",
	Long: `Set, remove and list manual corrections for a generation.

Field keys name a top-level field (PROJETO_NOME), a key inside one activity
(NOME_ATIVIDADE[0]) or a key inside one responsible of an activity
(CPF_RESPONSAVEL[0][1]). Indices start at 0. Overrides survive reprocessing.`,
}

var overrideSetCmd = &cobra.Command{
	Use:   "set [generation-id] [field-key] [value]",
	Short: "Set a field override",
	Long: `Stores a replacement value for a field.

The value is parsed as JSON when it is valid JSON (numbers, lists, objects,
quoted strings); anything else is taken as plain text. Use --text to always
store the value as text.`,
	Args: cobra.ExactArgs(3),
	RunE: runOverrideSet,
}

var overrideRmCmd = &cobra.Command{
	Use:     "rm [generation-id] [field-key]",
	Aliases: []string{"remove"},
	Short:   "Remove a field override",
	Args:    cobra.ExactArgs(2),
	RunE:    runOverrideRm,
}

var overrideListCmd = &cobra.Command{
	Use:   "list [generation-id]",
	Short: "List overrides of a generation",
	Args:  cobra.ExactArgs(1),
	RunE:  runOverrideList,
}

var (
	overrideReason string
	overrideAsText bool
)

func init() {
	overrideSetCmd.Flags().StringVarP(&overrideReason, "reason", "r", "", "Why the value was corrected")
	overrideSetCmd.Flags().BoolVar(&overrideAsText, "text", false, "Store the value as text without JSON parsing")

	overrideCmd.AddCommand(overrideSetCmd)
	overrideCmd.AddCommand(overrideRmCmd)
	overrideCmd.AddCommand(overrideListCmd)
	rootCmd.AddCommand(overrideCmd)
}

var errOverridesNotConfigured = errors.New("override service not configured")

func runOverrideSet(cmd *cobra.Command, args []string) error {
	if overrideService == nil {
		return errOverridesNotConfigured
	}

	value := parseOverrideValue(args[2], overrideAsText)
	rec, err := overrideService.SetOverride(cmd.Context(), args[0], args[1], value, overrideReason)
	if err != nil {
		return fmt.Errorf("failed to set override: %w", err)
	}

	key := args[1]
	return printResult(cmd, rec.Overrides[key], func(w io.Writer) {
		fmt.Fprintf(w, "Override set on %s for %s.\n", rec.ID, key)
	})
}

func runOverrideRm(cmd *cobra.Command, args []string) error {
	if overrideService == nil {
		return errOverridesNotConfigured
	}

	rec, err := overrideService.RemoveOverride(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to remove override: %w", err)
	}
	return printResult(cmd, map[string]any{"id": rec.ID, "removed": args[1]}, func(w io.Writer) {
		fmt.Fprintf(w, "Override for %s removed from %s.\n", args[1], rec.ID)
	})
}

func runOverrideList(cmd *cobra.Command, args []string) error {
	if overrideService == nil {
		return errOverridesNotConfigured
	}

	list, err := overrideService.ListOverrides(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list overrides: %w", err)
	}
	if list == nil {
		list = []domain.Override{}
	}

	return printResult(cmd, list, func(w io.Writer) {
		if len(list) == 0 {
			fmt.Fprintln(w, "No overrides.")
			return
		}
		fmt.Fprintln(w, "FIELD\tVALUE\tORIGINAL\tREASON\tEDITED")
		for _, o := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				o.FieldKey,
				truncate(valueText(o.NewValue), 40),
				truncate(valueText(o.OriginalValue), 40),
				truncate(o.Reason, 30),
				o.EditedAt.Local().Format("2006-01-02 15:04"))
		}
	})
}

// parseOverrideValue decodes raw as JSON when possible.
func parseOverrideValue(raw string, asText bool) any {
	if asText {
		return raw
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return raw
	}
	return v
}

// valueText renders a JSON-shaped value on one line.
func valueText(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		return t
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
