package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driving"
)

// GenerationInput identifies a generation.
type GenerationInput struct {
	ID string `json:"id" jsonschema:"the generation id"`
}

// GenerationOutput summarises a generation record.
type GenerationOutput struct {
	ID            string   `json:"id"`
	ProjectID     string   `json:"project_id"`
	PeriodKey     string   `json:"period_key"`
	Status        string   `json:"status"`
	Progress      int      `json:"progress"`
	CurrentStep   string   `json:"current_step"`
	ErrorMessage  string   `json:"error_message,omitempty"`
	Score         *float64 `json:"score,omitempty"`
	Approved      bool     `json:"approved"`
	MissingFields []string `json:"missing_fields,omitempty"`
	Overrides     int      `json:"overrides"`
	Document      string   `json:"document,omitempty"`
}

// RunInput starts a generation. Either ID or ProjectID and PeriodKey must be set.
type RunInput struct {
	ID        string `json:"id,omitempty" jsonschema:"existing generation id to run or resume"`
	ProjectID string `json:"project_id,omitempty" jsonschema:"project id for a new generation"`
	PeriodKey string `json:"period_key,omitempty" jsonschema:"period as YYYY-MM for a new generation"`
	Force     bool   `json:"force,omitempty" jsonschema:"re-run extraction and normalization even if results exist"`
}

// ReprocessInput selects sections to re-run.
type ReprocessInput struct {
	ID       string   `json:"id" jsonschema:"the generation id"`
	Sections []string `json:"sections" jsonschema:"sections to re-run: dados_projeto, atividades, resultados, situacao"`
	Reason   string   `json:"reason,omitempty" jsonschema:"why the sections are re-run"`
}

// ReprocessOutput reports a reprocessing run.
type ReprocessOutput struct {
	ID       string   `json:"id"`
	Sections []string `json:"sections"`
	Score    float64  `json:"score"`
}

// OverrideInput sets or removes a manual correction.
type OverrideInput struct {
	ID       string `json:"id" jsonschema:"the generation id"`
	FieldKey string `json:"field_key" jsonschema:"field key: NAME, NAME[activity] or NAME[activity][responsible], e.g. NOME_ATIVIDADE[0]"`
	Value    any    `json:"value,omitempty" jsonschema:"replacement value"`
	Reason   string `json:"reason,omitempty" jsonschema:"why the value was corrected"`
	Remove   bool   `json:"remove,omitempty" jsonschema:"drop the override instead of setting it"`
}

// OverrideOutput lists the overrides after the change.
type OverrideOutput struct {
	ID        string            `json:"id"`
	Overrides []domain.Override `json:"overrides"`
}

// ChunkInput is the text to split.
type ChunkInput struct {
	Text         string `json:"text" jsonschema:"the text to chunk"`
	DocumentName string `json:"document_name,omitempty" jsonschema:"name recorded in chunk metadata"`
	SourceType   string `json:"source_type,omitempty" jsonschema:"document or wiki (default document)"`
}

// ChunkOutput is the chunker result.
type ChunkOutput struct {
	Chunks []domain.Chunk `json:"chunks"`
	Count  int            `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generation_status",
		Description: "Show the status, progress and validation score of a report generation",
	}, s.handleGenerationStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "run_generation",
		Description: "Run (or create and run) a report generation through extraction, normalization and validation",
	}, s.handleRunGeneration)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reprocess_sections",
		Description: "Re-run selected sections of a completed generation and re-validate",
	}, s.handleReprocess)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "set_override",
		Description: "Set or remove a manual correction for a report field",
	}, s.handleSetOverride)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "chunk_text",
		Description: "Split text into bounded, overlapping chunks with metadata",
	}, s.handleChunkText)
}

func (s *Server) handleGenerationStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerationInput,
) (*mcp.CallToolResult, GenerationOutput, error) {
	rec, err := s.ports.Generation.Get(ctx, input.ID)
	if err != nil {
		return nil, GenerationOutput{}, err
	}
	return nil, summarize(rec), nil
}

func (s *Server) handleRunGeneration(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunInput,
) (*mcp.CallToolResult, GenerationOutput, error) {
	id := input.ID
	if id == "" {
		if input.ProjectID == "" || input.PeriodKey == "" {
			return nil, GenerationOutput{}, fmt.Errorf("%w: give id, or project_id and period_key", domain.ErrInvalidInput)
		}
		rec, err := s.ports.Generation.Create(ctx, input.ProjectID, input.PeriodKey)
		if err != nil {
			return nil, GenerationOutput{}, err
		}
		id = rec.ID
	}

	rec, err := s.ports.Generation.Run(ctx, id, driving.RunOptions{Force: input.Force})
	if err != nil {
		return nil, GenerationOutput{}, err
	}
	return nil, summarize(rec), nil
}

func (s *Server) handleReprocess(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReprocessInput,
) (*mcp.CallToolResult, ReprocessOutput, error) {
	if s.ports.Reprocess == nil {
		return nil, ReprocessOutput{}, errUnavailable
	}

	sections := make([]domain.SectionName, 0, len(input.Sections))
	for _, raw := range input.Sections {
		name, err := domain.ParseSectionName(raw)
		if err != nil {
			return nil, ReprocessOutput{}, err
		}
		sections = append(sections, name)
	}

	res, err := s.ports.Reprocess.ReprocessSections(ctx, input.ID, sections, input.Reason)
	if err != nil {
		return nil, ReprocessOutput{}, err
	}

	out := ReprocessOutput{ID: res.GenerationID, Score: res.ValidationScore}
	for _, name := range res.Sections {
		out.Sections = append(out.Sections, name.String())
	}
	return nil, out, nil
}

func (s *Server) handleSetOverride(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input OverrideInput,
) (*mcp.CallToolResult, OverrideOutput, error) {
	if s.ports.Overrides == nil {
		return nil, OverrideOutput{}, errUnavailable
	}

	var err error
	if input.Remove {
		_, err = s.ports.Overrides.RemoveOverride(ctx, input.ID, input.FieldKey)
	} else {
		_, err = s.ports.Overrides.SetOverride(ctx, input.ID, input.FieldKey, input.Value, input.Reason)
	}
	if err != nil {
		return nil, OverrideOutput{}, err
	}

	list, err := s.ports.Overrides.ListOverrides(ctx, input.ID)
	if err != nil {
		return nil, OverrideOutput{}, err
	}
	return nil, OverrideOutput{ID: input.ID, Overrides: list}, nil
}

func (s *Server) handleChunkText(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ChunkInput,
) (*mcp.CallToolResult, ChunkOutput, error) {
	if s.ports.Chunker == nil {
		return nil, ChunkOutput{}, errUnavailable
	}

	sourceType := domain.SourceType(input.SourceType)
	if sourceType == "" {
		sourceType = domain.SourceTypeDocument
	}
	if !sourceType.IsValid() {
		return nil, ChunkOutput{}, fmt.Errorf("%w: source type %q", domain.ErrInvalidInput, input.SourceType)
	}

	chunks := s.ports.Chunker.Chunk(domain.SourceText{
		Text:         input.Text,
		SourceType:   sourceType,
		DocumentName: input.DocumentName,
	})
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	return nil, ChunkOutput{Chunks: chunks, Count: len(chunks)}, nil
}

// summarize flattens a record for tool output.
func summarize(rec *domain.GenerationRecord) GenerationOutput {
	out := GenerationOutput{
		ID:           rec.ID,
		ProjectID:    rec.ProjectID,
		PeriodKey:    rec.PeriodKey,
		Status:       string(rec.Status),
		Progress:     rec.Progress,
		CurrentStep:  string(rec.CurrentStep),
		ErrorMessage: rec.ErrorMessage,
		Overrides:    len(rec.Overrides),
	}
	if report := rec.PartialResults.ValidationReport; report != nil {
		score := report.OverallScore
		out.Score = &score
		out.Approved = report.Approved
		for _, issue := range report.Issues {
			if issue.Type == domain.IssueMissing {
				out.MissingFields = append(out.MissingFields, issue.Field)
			}
		}
	}
	if name, ok := rec.PartialResults.Metadata[domain.MetaDocumentName].(string); ok {
		out.Document = name
	}
	return out
}
