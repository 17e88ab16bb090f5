package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Split a file into retrieval chunks",
	Long: `Splits a text file into bounded, overlapping chunks and prints them with
their metadata. Nothing is stored; use 'azurebridge ingest' for that.

Use "-" to read from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

var (
	chunkType string
	chunkName string
)

func init() {
	chunkCmd.Flags().StringVarP(&chunkType, "type", "t", string(domain.SourceTypeDocument), "Source type: document or wiki")
	chunkCmd.Flags().StringVar(&chunkName, "name", "", "Document name recorded in metadata (default: file name)")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	if chunker == nil {
		return errors.New("chunker not configured")
	}

	sourceType := domain.SourceType(chunkType)
	if !sourceType.IsValid() || sourceType == domain.SourceTypeWorkItem || sourceType == domain.SourceTypeSprint {
		return fmt.Errorf("unsupported source type %q (use document or wiki)", chunkType)
	}

	name := chunkName
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
		if name == "" {
			name = "stdin"
		}
	} else {
		data, err = os.ReadFile(args[0])
		if name == "" {
			name = filepath.Base(args[0])
		}
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	chunks := chunker.Chunk(domain.SourceText{
		Text:         string(data),
		SourceType:   sourceType,
		DocumentName: name,
	})
	if chunks == nil {
		chunks = []domain.Chunk{}
	}

	return printResult(cmd, chunks, func(w io.Writer) {
		if len(chunks) == 0 {
			fmt.Fprintln(w, "No chunks (input is empty).")
			return
		}
		fmt.Fprintln(w, "#\tTOKENS\tTYPE\tSECTION\tURLS\tPREVIEW")
		for _, c := range chunks {
			preview := strings.Join(strings.Fields(c.Content), " ")
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\t%s\n",
				c.ChunkIndex, c.TokenCount, c.Metadata.ContentType,
				truncate(c.Metadata.SectionHeading, 24), len(c.Metadata.URLs), truncate(preview, 60))
		}
		fmt.Fprintf(w, "\nTotal: %d chunks\n", len(chunks))
	})
}
