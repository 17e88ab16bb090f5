package domain

import (
	"encoding/json"
	"time"
)

// GenerationStatus is the coarse lifecycle state of a generation.
type GenerationStatus string

// Generation statuses.
const (
	StatusQueued     GenerationStatus = "queued"
	StatusProcessing GenerationStatus = "processing"
	StatusCompleted  GenerationStatus = "completed"
	StatusFailed     GenerationStatus = "failed"
	StatusCancelled  GenerationStatus = "cancelled"
)

// IsTerminal reports whether no pipeline stage will run from this status.
func (s GenerationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Step is the fine-grained pipeline position of a generation.
type Step string

// Pipeline steps.
const (
	StepQueued            Step = "queued"
	StepProcessing        Step = "processing"
	StepExtractorRunning  Step = "extractor_running"
	StepExtractorDone     Step = "extractor_done"
	StepNormalizerRunning Step = "normalizer_running"
	StepNormalizerDone    Step = "normalizer_done"
	StepValidatorRunning  Step = "validator_running"
	StepValidatorDone     Step = "validator_done"
	StepValidationFailed  Step = "validation_failed"
	StepDocxRendering     Step = "docx_rendering"
	StepCompleted         Step = "completed"
	StepFailed            Step = "failed"
	StepCancelled         Step = "cancelled"
	StepReviewReprocessed Step = "review_reprocessed"
	StepOverrideApplied   Step = "override_applied"
)

// Checkpoint pairs a step with the progress percentage reached on entering it.
type Checkpoint struct {
	Step     Step
	Progress int
}

// progressCheckpoints is the ordered transition table of the pipeline.
var progressCheckpoints = []Checkpoint{
	{StepQueued, 5},
	{StepProcessing, 5},
	{StepExtractorRunning, 10},
	{StepExtractorDone, 30},
	{StepNormalizerRunning, 35},
	{StepNormalizerDone, 60},
	{StepValidatorRunning, 65},
	{StepValidatorDone, 75},
	{StepDocxRendering, 92},
	{StepCompleted, 100},
}

// ProgressCheckpoints returns the ordered (step, progress) table.
func ProgressCheckpoints() []Checkpoint {
	out := make([]Checkpoint, len(progressCheckpoints))
	copy(out, progressCheckpoints)
	return out
}

// ProgressFor returns the checkpoint percentage of a step.
// Steps outside the table report ok=false.
func ProgressFor(step Step) (int, bool) {
	for _, c := range progressCheckpoints {
		if c.Step == step {
			return c.Progress, true
		}
	}
	return 0, false
}

// ValidationFailedMessage is recorded when the validator rejects a run.
const ValidationFailedMessage = "Validation failed: the report is incomplete. Review the validation issues and reprocess the recommended sections."

// Metadata keys written into PartialResults.Metadata.
const (
	MetaReprocessedAt       = "reprocessedAt"
	MetaReprocessReason     = "reprocessReason"
	MetaReprocessedSections = "reprocessedSections"
	MetaDocumentName        = "documentName"
	MetaDocumentLocation    = "documentLocation"
	MetaDocumentBytes       = "documentBytes"
	MetaStartedAt           = "startedAt"
	MetaCompletedAt         = "completedAt"
)

// PartialResults holds every stage's persisted output.
type PartialResults struct {
	Context          *GenerationContext   `json:"context,omitempty"`
	Extraction       *ExtractionOutput    `json:"extraction,omitempty"`
	Normalization    *NormalizationOutput `json:"normalization,omitempty"`
	ValidationReport *ValidationReport    `json:"validationReport,omitempty"`
	PlaceholderMap   PlaceholderMap       `json:"placeholderMap,omitempty"`
	Metadata         map[string]any       `json:"metadata,omitempty"`
}

// GenerationRecord is the single durable source of truth of one report run.
// Stages receive a copy, apply their update, and hand the copy to the store.
type GenerationRecord struct {
	ID             string           `json:"id"`
	ProjectID      string           `json:"projectId"`
	PeriodKey      string           `json:"periodKey"`
	Status         GenerationStatus `json:"status"`
	Progress       int              `json:"progress"`
	CurrentStep    Step             `json:"currentStep"`
	ErrorMessage   string           `json:"errorMessage,omitempty"`
	PartialResults PartialResults   `json:"partialResults"`
	Overrides      Overrides        `json:"overrides"`
	Version        int              `json:"version"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// NewGenerationRecord creates a queued record.
func NewGenerationRecord(id, projectID, periodKey string, now time.Time) GenerationRecord {
	progress, _ := ProgressFor(StepQueued)
	return GenerationRecord{
		ID:          id,
		ProjectID:   projectID,
		PeriodKey:   periodKey,
		Status:      StatusQueued,
		Progress:    progress,
		CurrentStep: StepQueued,
		Overrides:   make(Overrides),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone returns a deep copy. Values come back JSON-shaped.
func (r GenerationRecord) Clone() (GenerationRecord, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return GenerationRecord{}, err
	}
	var out GenerationRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return GenerationRecord{}, err
	}
	if out.Overrides == nil {
		out.Overrides = make(Overrides)
	}
	return out, nil
}

// Advance moves the record to a step, updating progress when the step is a checkpoint.
func (r *GenerationRecord) Advance(step Step) {
	r.CurrentStep = step
	if p, ok := ProgressFor(step); ok {
		r.Progress = p
	}
	switch step {
	case StepCompleted:
		r.Status = StatusCompleted
	case StepQueued:
		r.Status = StatusQueued
	default:
		r.Status = StatusProcessing
	}
	r.ErrorMessage = ""
}

// Fail marks the record failed with a verbatim message.
func (r *GenerationRecord) Fail(step Step, message string) {
	r.Status = StatusFailed
	r.CurrentStep = step
	r.ErrorMessage = message
}

// SetMeta writes a metadata entry.
func (r *GenerationRecord) SetMeta(key string, value any) {
	if r.PartialResults.Metadata == nil {
		r.PartialResults.Metadata = make(map[string]any)
	}
	r.PartialResults.Metadata[key] = value
}
