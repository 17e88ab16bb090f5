package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptExtractionReview comments on extracted fields.
	// The template expects %s (section name) and %s (fields as JSON).
	PromptExtractionReview = "extraction_review"

	// PromptNormalizationReview comments on normalized fields.
	// The template expects %s (guide text), %s (section name) and %s (fields as JSON).
	PromptNormalizationReview = "normalization_review"

	// PromptValidationReview comments on the validator's findings.
	// The template expects %s (report as JSON).
	PromptValidationReview = "validation_review"

	// PromptSystem is the system prompt for every enrichment call.
	PromptSystem = "system"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	SetPromptStore(store PromptStore)
}
