package domain

// Severity ranks a validation issue.
type Severity string

// Issue severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// IssueType classifies a validation issue.
type IssueType string

// Issue types.
const (
	IssueMissing    IssueType = "missing"
	IssueIncomplete IssueType = "incomplete"
)

// MinApprovalScore is the lowest overall score that can be approved.
const MinApprovalScore = 0.6

// ValidationIssue is one finding of the validator.
type ValidationIssue struct {
	Field       string    `json:"field"`
	Severity    Severity  `json:"severity"`
	Type        IssueType `json:"type"`
	Message     string    `json:"message"`
	Suggestion  string    `json:"suggestion"`
	AutoFixable bool      `json:"autoFixable"`
}

// RetryRecommendation names a section worth re-running and why.
type RetryRecommendation struct {
	Section SectionName `json:"section"`
	Reason  string      `json:"reason"`
}

// ValidationReport is the validator's verdict.
type ValidationReport struct {
	OverallScore         float64               `json:"overallScore"`
	TotalFields          int                   `json:"totalFields"`
	FilledFields         int                   `json:"filledFields"`
	PendingFields        int                   `json:"pendingFields"`
	EmptyFields          int                   `json:"emptyFields"`
	Issues               []ValidationIssue     `json:"issues"`
	Approved             bool                  `json:"approved"`
	Retryable            bool                  `json:"retryable"`
	RetryRecommendations []RetryRecommendation `json:"retryRecommendations,omitempty"`
	Commentary           string                `json:"commentary,omitempty"`
	ReviewFixes          []string              `json:"reviewFixes,omitempty"`
}

// ErrorCount returns the number of error-severity issues.
func (r *ValidationReport) ErrorCount() int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			n++
		}
	}
	return n
}

// RequiredFieldSpec tells the validator which fields must be present.
type RequiredFieldSpec struct {
	// Fields are the required top-level field names.
	Fields []string

	// ActivityField is the list-valued field whose items are checked for a name.
	ActivityField string

	// ActivityNameKey is the key each activity item must carry.
	ActivityNameKey string
}

// DefaultRequiredFieldSpec returns the report's required field set.
func DefaultRequiredFieldSpec() RequiredFieldSpec {
	return RequiredFieldSpec{
		Fields: []string{
			FieldProjectName, FieldPeriod, FieldActivities, FieldSummary, FieldResults,
		},
		ActivityField:   FieldActivities,
		ActivityNameKey: FieldActivityName,
	}
}
