package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/logger"
)

// enrichmentMaxTokens bounds the commentary produced by one enrichment call.
const enrichmentMaxTokens = 400

// defaultPrompts are used when no PromptStore is configured.
var defaultPrompts = map[string]string{
	driven.PromptSystem: "You review fields of a monthly project status report. " +
		"Answer in Brazilian Portuguese, in at most five short sentences. Never invent data.",
	driven.PromptExtractionReview: "Section %s was extracted with the fields below. " +
		"Point out gaps or inconsistencies a reviewer should check.\n\n%s",
	driven.PromptNormalizationReview: "Guidance: %s\n\nSection %s was normalized to the fields below. " +
		"Point out wording that does not follow the guidance.\n\n%s",
	driven.PromptValidationReview: "The validation report below blocks or approves the document. " +
		"Summarise what the team must fix first in \"summary\" and list concrete fixes in \"fixes\".\n\n%s",
}

// DefaultPrompts returns a copy of the built-in prompt templates, keyed by
// the driven.Prompt* names. File-backed prompt stores seed from it.
func DefaultPrompts() map[string]string {
	out := make(map[string]string, len(defaultPrompts))
	for k, v := range defaultPrompts {
		out[k] = v
	}
	return out
}

// enricher wraps the optional completion provider. Every call is best effort:
// failures are logged and reported as ok=false, never returned as errors.
type enricher struct {
	llm     driven.TextCompletionProvider
	prompts driven.PromptStore
}

func (e *enricher) enabled() bool {
	return e != nil && e.llm != nil
}

// prompt loads a template, falling back to the built-in default.
func (e *enricher) prompt(name string) string {
	if e.prompts != nil {
		if p, err := e.prompts.Load(name); err == nil && strings.TrimSpace(p) != "" {
			return p
		}
	}
	return defaultPrompts[name]
}

// complete renders a template with args and asks for a completion.
func (e *enricher) complete(ctx context.Context, stage, name string, args ...any) (driven.Completion, bool) {
	if !e.enabled() {
		return driven.Completion{}, false
	}
	text := fmt.Sprintf(e.prompt(name), args...)
	res, err := e.llm.Complete(ctx, text, driven.CompletionOptions{
		SystemPrompt: e.prompt(driven.PromptSystem),
		MaxTokens:    enrichmentMaxTokens,
		Temperature:  0.2,
	})
	if err != nil {
		logger.Warn("%s: enrichment skipped: %v", stage, err)
		return driven.Completion{}, false
	}
	return res, true
}

// completeJSON is complete for answers that must match schema. Answers the
// provider cannot decode or validate are dropped like any other failure.
func (e *enricher) completeJSON(ctx context.Context, stage, schema, name string, args ...any) (driven.JSONCompletion, bool) {
	if !e.enabled() {
		return driven.JSONCompletion{}, false
	}
	text := fmt.Sprintf(e.prompt(name), args...)
	res, err := e.llm.CompleteJSON(ctx, text, schema, driven.CompletionOptions{
		SystemPrompt: e.prompt(driven.PromptSystem),
		MaxTokens:    enrichmentMaxTokens,
		Temperature:  0.2,
	})
	if err != nil {
		logger.Warn("%s: enrichment skipped: %v", stage, err)
		return driven.JSONCompletion{}, false
	}
	return res, true
}

// asJSON renders v for prompts. Errors yield an empty object.
func asJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
