package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/logger"
)

// Normalizer cleans extracted values while keeping the originals.
type Normalizer struct {
	enrich *enricher
}

// NormalizerOption configures the normalizer.
type NormalizerOption func(*Normalizer)

// WithNormalizerLLM enables best-effort commentary on normalized sections.
func WithNormalizerLLM(llm driven.TextCompletionProvider, prompts driven.PromptStore) NormalizerOption {
	return func(n *Normalizer) {
		n.enrich = &enricher{llm: llm, prompts: prompts}
	}
}

// NewNormalizer creates a normalizer.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize cleans every section of the extraction.
func (n *Normalizer) Normalize(ctx context.Context, ext *domain.ExtractionOutput, guideText string) (*domain.NormalizationOutput, error) {
	if ext == nil {
		return nil, fmt.Errorf("normalize: %w: extraction is missing", domain.ErrInvalidInput)
	}

	start := time.Now()
	out := &domain.NormalizationOutput{}
	for _, sec := range ext.Sections {
		out.Sections = append(out.Sections, n.section(ctx, sec.SectionName, sec.Fields, guideText))
	}
	for _, sec := range out.Sections {
		out.TotalTokens += sec.TokensUsed
	}
	out.TotalDurationMs = time.Since(start).Milliseconds()
	return out, nil
}

// NormalizeSection cleans only the extraction fields owned by section.
func (n *Normalizer) NormalizeSection(ctx context.Context, ext *domain.ExtractionOutput, guideText string, section domain.SectionName) (*domain.NormalizationOutput, error) {
	if ext == nil {
		return nil, fmt.Errorf("normalize section: %w: extraction is missing", domain.ErrInvalidInput)
	}
	if !section.IsValid() {
		return nil, fmt.Errorf("normalize section: %w: unknown section %q", domain.ErrInvalidInput, section)
	}

	allowed := domain.FieldNamesFor([]domain.SectionName{section})
	var fields []domain.FieldResult
	for _, f := range ext.Fields() {
		if allowed.Has(f.FieldName) {
			fields = append(fields, f)
		}
	}

	start := time.Now()
	sec := n.section(ctx, section, fields, guideText)
	return &domain.NormalizationOutput{
		Sections:        []domain.NormalizationSection{sec},
		TotalTokens:     sec.TokensUsed,
		TotalDurationMs: time.Since(start).Milliseconds(),
	}, nil
}

func (n *Normalizer) section(ctx context.Context, name domain.SectionName, fields []domain.FieldResult, guideText string) domain.NormalizationSection {
	start := time.Now()
	sec := domain.NormalizationSection{
		SectionName: name,
		Fields:      make([]domain.NormalizedFieldResult, 0, len(fields)),
	}
	for _, f := range fields {
		sec.Fields = append(sec.Fields, NormalizeField(f))
	}

	if res, ok := n.enrich.complete(ctx, "normalizer", driven.PromptNormalizationReview,
		firstNonEmpty(guideText, "-"), name, asJSON(sec.Fields)); ok {
		sec.Commentary = strings.TrimSpace(res.Text)
		sec.TokensUsed += res.TokensUsed
	}

	sec.DurationMs = time.Since(start).Milliseconds()
	logger.Debug("normalizer: section %s normalized %d fields", name, len(sec.Fields))
	return sec
}

// NormalizeField cleans one field. The original value is preserved.
func NormalizeField(f domain.FieldResult) domain.NormalizedFieldResult {
	original := domain.CloneValue(f.Value)
	normalized := NormalizeValue(f.Value)

	out := domain.NormalizedFieldResult{
		FieldResult:     f,
		OriginalValue:   original,
		NormalizedValue: domain.CloneValue(normalized),
	}
	out.Value = normalized
	return out
}

// NormalizeValue collapses internal whitespace of strings and recurses into
// lists and records. Other values are returned unchanged.
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case string:
		return strings.Join(strings.Fields(t), " ")
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = NormalizeValue(s)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = NormalizeValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = NormalizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = NormalizeValue(item)
		}
		return out
	default:
		return v
	}
}
