package driven

import "context"

// TextCompletionProvider is the language model collaborator.
// It is optional and never authoritative: every stage produces a complete
// result without it and treats its failures as a no-op.
//
// Implementations may include:
//   - OpenAI (GPT-4o, GPT-4o-mini)
//   - Anthropic (Claude)
//   - Ollama (local models)
type TextCompletionProvider interface {
	// Complete produces a text completion for the prompt.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (Completion, error)

	// CompleteJSON asks for a JSON object and validates it against schema
	// (a JSON Schema document). An empty schema skips validation.
	CompleteJSON(ctx context.Context, prompt, schema string, opts CompletionOptions) (JSONCompletion, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionOptions configures a completion request.
type CompletionOptions struct {
	// SystemPrompt is sent as the system message when set.
	SystemPrompt string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// Completion is a text completion result.
type Completion struct {
	Text       string
	TokensUsed int
}

// JSONCompletion is a decoded JSON completion result.
type JSONCompletion struct {
	Data       map[string]any
	Raw        string
	TokensUsed int
}
