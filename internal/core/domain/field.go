package domain

import "time"

// MaxSnippetLength is the maximum length of an evidence snippet in characters.
const MaxSnippetLength = 300

// Evidence points back to the source record backing a field value.
type Evidence struct {
	SourceType SourceType `json:"sourceType"`
	SourceID   string     `json:"sourceId"`
	SourceName string     `json:"sourceName"`
	Location   string     `json:"location"`
	Snippet    string     `json:"snippet"`
	URL        string     `json:"url,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// TruncateSnippet cuts s to MaxSnippetLength runes.
func TruncateSnippet(s string) string {
	r := []rune(s)
	if len(r) <= MaxSnippetLength {
		return s
	}
	return string(r[:MaxSnippetLength])
}

// FieldStatus describes whether a field received a value.
type FieldStatus string

// Field statuses.
const (
	// FieldStatusFilled means a value backed by evidence was derived.
	FieldStatusFilled FieldStatus = "filled"

	// FieldStatusPending means the value needs configuration or manual input.
	FieldStatusPending FieldStatus = "pending"

	// FieldStatusNoData means the snapshot had nothing to derive the value from.
	FieldStatusNoData FieldStatus = "no_data"
)

// FieldResult is one extracted report field.
//
// Value holds JSON-shaped data only: string, float64, bool, nil,
// []any or map[string]any. This keeps results identical before and after
// persistence.
type FieldResult struct {
	FieldName   string      `json:"fieldName"`
	Value       any         `json:"value"`
	Evidence    []Evidence  `json:"evidence"`
	Confidence  float64     `json:"confidence"`
	Status      FieldStatus `json:"status"`
	ContextUsed []string    `json:"contextUsed"`
}

// Name returns the field name. Used by merge helpers.
func (f FieldResult) Name() string {
	return f.FieldName
}

// NormalizedFieldResult is a FieldResult after normalization.
// Value and NormalizedValue hold the cleaned value; OriginalValue keeps the
// extractor's output.
type NormalizedFieldResult struct {
	FieldResult
	OriginalValue   any `json:"originalValue"`
	NormalizedValue any `json:"normalizedValue"`
}

// Named is implemented by every field result type.
type Named interface {
	Name() string
}

// ExtractionSection groups the extracted fields of one section.
type ExtractionSection struct {
	SectionName SectionName   `json:"sectionName"`
	Fields      []FieldResult `json:"fields"`
	TokensUsed  int           `json:"tokensUsed"`
	DurationMs  int64         `json:"durationMs"`
	Commentary  string        `json:"commentary,omitempty"`
}

// NormalizationSection groups the normalized fields of one section.
type NormalizationSection struct {
	SectionName SectionName             `json:"sectionName"`
	Fields      []NormalizedFieldResult `json:"fields"`
	TokensUsed  int                     `json:"tokensUsed"`
	DurationMs  int64                   `json:"durationMs"`
	Commentary  string                  `json:"commentary,omitempty"`
}

// ExtractionOutput is the result of a full or section-scoped extraction.
type ExtractionOutput struct {
	Sections        []ExtractionSection `json:"sections"`
	TotalTokens     int                 `json:"totalTokens"`
	TotalDurationMs int64               `json:"totalDurationMs"`
}

// Section returns the named section, or nil.
func (o *ExtractionOutput) Section(name SectionName) *ExtractionSection {
	for i := range o.Sections {
		if o.Sections[i].SectionName == name {
			return &o.Sections[i]
		}
	}
	return nil
}

// Fields returns every field across all sections in order.
func (o *ExtractionOutput) Fields() []FieldResult {
	var out []FieldResult
	for _, s := range o.Sections {
		out = append(out, s.Fields...)
	}
	return out
}

// NormalizationOutput is the result of a full or section-scoped normalization.
type NormalizationOutput struct {
	Sections        []NormalizationSection `json:"sections"`
	TotalTokens     int                    `json:"totalTokens"`
	TotalDurationMs int64                  `json:"totalDurationMs"`
}

// Section returns the named section, or nil.
func (o *NormalizationOutput) Section(name SectionName) *NormalizationSection {
	for i := range o.Sections {
		if o.Sections[i].SectionName == name {
			return &o.Sections[i]
		}
	}
	return nil
}

// Fields returns every normalized field across all sections in order.
func (o *NormalizationOutput) Fields() []NormalizedFieldResult {
	var out []NormalizedFieldResult
	for _, s := range o.Sections {
		out = append(out, s.Fields...)
	}
	return out
}
