package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/logger"
)

// validationReviewSchema is the answer shape for validation commentary.
const validationReviewSchema = `{
  "type": "object",
  "required": ["summary"],
  "properties": {
    "summary": {"type": "string"},
    "fixes": {"type": "array", "items": {"type": "string"}}
  }
}`

// Validator checks the normalized output for completeness.
// The verdict is rule based; the optional LLM only adds commentary.
type Validator struct {
	enrich *enricher
}

// ValidatorOption configures the validator.
type ValidatorOption func(*Validator)

// WithValidatorLLM enables best-effort commentary on validation reports.
func WithValidatorLLM(llm driven.TextCompletionProvider, prompts driven.PromptStore) ValidatorOption {
	return func(v *Validator) {
		v.enrich = &enricher{llm: llm, prompts: prompts}
	}
}

// NewValidator creates a validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate scores the normalization against the required field spec.
func (v *Validator) Validate(ctx context.Context, norm *domain.NormalizationOutput, spec domain.RequiredFieldSpec) (*domain.ValidationReport, error) {
	if norm == nil {
		return nil, fmt.Errorf("validate: %w: normalization is missing", domain.ErrInvalidInput)
	}

	report := &domain.ValidationReport{Issues: []domain.ValidationIssue{}}
	values := make(map[string]any)
	for _, f := range norm.Fields() {
		values[f.FieldName] = f.Value
		report.TotalFields++
		if domain.IsEmptyValue(f.Value) {
			report.EmptyFields++
		} else {
			report.FilledFields++
		}
		if f.Status == domain.FieldStatusPending {
			report.PendingFields++
		}
	}

	for _, name := range spec.Fields {
		if domain.IsEmptyValue(values[name]) {
			report.Issues = append(report.Issues, domain.ValidationIssue{
				Field:      name,
				Severity:   domain.SeverityError,
				Type:       domain.IssueMissing,
				Message:    fmt.Sprintf("required field %s is empty", name),
				Suggestion: suggestionFor(name),
			})
		}
	}

	if spec.ActivityField != "" {
		items, _ := domain.AsList(values[spec.ActivityField])
		for i, item := range items {
			rec, _ := domain.AsRecord(item)
			if domain.IsEmptyValue(rec[spec.ActivityNameKey]) {
				report.Issues = append(report.Issues, domain.ValidationIssue{
					Field:       fmt.Sprintf("%s[%d]", spec.ActivityField, i),
					Severity:    domain.SeverityWarning,
					Type:        domain.IssueMissing,
					Message:     fmt.Sprintf("activity %d has no %s", i, spec.ActivityNameKey),
					Suggestion:  fmt.Sprintf("set an override for %s[%d]", spec.ActivityNameKey, i),
					AutoFixable: true,
				})
			}
		}
	}

	errorCount := report.ErrorCount()
	report.OverallScore = Score(report.FilledFields, errorCount, report.TotalFields)
	report.Approved = errorCount == 0 && report.OverallScore >= domain.MinApprovalScore
	report.Retryable = errorCount > 0
	if !report.Approved {
		report.RetryRecommendations = recommendations(report, norm)
	}

	if res, ok := v.enrich.completeJSON(ctx, "validator", validationReviewSchema, driven.PromptValidationReview, asJSON(report)); ok {
		report.Commentary, report.ReviewFixes = reviewFromJSON(res.Data)
	}

	logger.Debug("validator: score %.2f, %d issues, approved=%t", report.OverallScore, len(report.Issues), report.Approved)
	return report, nil
}

// reviewFromJSON reads a schema-checked validation review.
func reviewFromJSON(data map[string]any) (string, []string) {
	summary, _ := data["summary"].(string)
	items, _ := data["fixes"].([]any)
	var fixes []string
	for _, item := range items {
		if fix, ok := item.(string); ok && strings.TrimSpace(fix) != "" {
			fixes = append(fixes, strings.TrimSpace(fix))
		}
	}
	return strings.TrimSpace(summary), fixes
}

// Score returns clamp01((filled - errors) / total), or 0 when total is 0.
func Score(filled, errorCount, total int) float64 {
	if total == 0 {
		return 0
	}
	s := float64(filled-errorCount) / float64(total)
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

// recommendations names the sections worth re-running, in report order.
func recommendations(report *domain.ValidationReport, norm *domain.NormalizationOutput) []domain.RetryRecommendation {
	missing := make(map[domain.SectionName][]string)
	for _, issue := range report.Issues {
		if issue.Severity != domain.SeverityError {
			continue
		}
		if sec, ok := domain.SectionOf(issue.Field); ok {
			missing[sec] = append(missing[sec], issue.Field)
		}
	}

	var out []domain.RetryRecommendation
	if len(missing) > 0 {
		for _, sec := range domain.AllSections() {
			fields, ok := missing[sec]
			if !ok {
				continue
			}
			sort.Strings(fields)
			out = append(out, domain.RetryRecommendation{
				Section: sec,
				Reason:  "required fields are empty: " + strings.Join(fields, ", "),
			})
		}
		return out
	}

	// Approval failed on score alone: point at sections with empty fields.
	for _, sec := range norm.Sections {
		var empty []string
		for _, f := range sec.Fields {
			if domain.IsEmptyValue(f.Value) {
				empty = append(empty, f.FieldName)
			}
		}
		if len(empty) > 0 {
			out = append(out, domain.RetryRecommendation{
				Section: sec.SectionName,
				Reason: fmt.Sprintf("score %.2f is below %.2f; empty fields: %s",
					report.OverallScore, domain.MinApprovalScore, strings.Join(empty, ", ")),
			})
		}
	}
	return out
}

func suggestionFor(field string) string {
	if sec, ok := domain.SectionOf(field); ok {
		return fmt.Sprintf("reprocess section %s or set an override for %s", sec, field)
	}
	return "set an override for " + field
}
