// Package ai builds the optional AI collaborators from settings.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/clodoaldo29/AzureBridge-sub002/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/clodoaldo29/AzureBridge-sub002/internal/adapters/driven/embedding/openai"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/adapters/driven/llm"
	anthropicllm "github.com/clodoaldo29/AzureBridge-sub002/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/clodoaldo29/AzureBridge-sub002/internal/adapters/driven/llm/ollama"
	openaillm "github.com/clodoaldo29/AzureBridge-sub002/internal/adapters/driven/llm/openai"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// fixHint is appended to configuration errors.
const fixHint = "Run 'azurebridge settings show' and fix settings.toml"

// InitResult holds the AI collaborators that could be brought up.
// A nil field means the pipeline runs without that collaborator.
type InitResult struct {
	Embedder driven.EmbeddingService
	LLM      driven.TextCompletionProvider
	Warnings []string // Non-fatal issues that caused fallback.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Embedder != nil {
		r.Embedder.Close()
	}
	if r.LLM != nil {
		r.LLM.Close()
	}
}

// Init creates and pings every configured collaborator. Failures are logged
// as warnings and the collaborator is left nil: enrichment and embeddings
// are optional and never block generation.
func Init(ctx context.Context, settings *domain.AppSettings) *InitResult {
	result := &InitResult{}
	if settings == nil {
		return result
	}

	emb, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		logger.Warn("embeddings disabled: %v", err)
	}
	result.Embedder = emb

	provider, err := CreateAndValidateLLM(ctx, &settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		logger.Warn("LLM enrichment disabled: %v", err)
	}
	result.LLM = provider

	return result
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns nil, nil when embeddings are not configured.
func CreateAndValidateEmbeddingService(
	ctx context.Context,
	settings *domain.EmbeddingSettings,
) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	if svc == nil {
		return nil, nil
	}

	if err := ping(ctx, svc.Ping); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	return svc, nil
}

// CreateAndValidateLLM creates a completion provider and validates connectivity.
// Returns nil, nil when no LLM is configured.
func CreateAndValidateLLM(
	ctx context.Context,
	settings *domain.LLMSettings,
) (driven.TextCompletionProvider, error) {
	provider, err := CreateLLM(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, fixHint)
	}
	if provider == nil {
		return nil, nil
	}

	if err := ping(ctx, provider.Ping); err != nil {
		provider.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrLLMUnavailable, err, fixHint)
	}
	return provider, nil
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	return ping(context.Background(), svc.Ping)
}

// ValidateLLMConfig validates an LLM configuration by creating a provider and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	provider, err := CreateLLM(settings)
	if err != nil || provider == nil {
		return err
	}
	defer provider.Close()
	return ping(context.Background(), provider.Ping)
}

// CreateEmbeddingService creates the embedding service for the configured provider.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	dimensions := domain.EmbeddingDimensions()[settings.Model]

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.New(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.New(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLM creates the completion provider for the configured provider,
// wrapped with throttling and retries. Returns nil if not configured.
func CreateLLM(settings *domain.LLMSettings) (driven.TextCompletionProvider, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		provider driven.TextCompletionProvider
		err      error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		provider = ollamallm.New(ollamallm.Config{BaseURL: settings.BaseURL, Model: settings.Model})

	case domain.AIProviderOpenAI:
		provider, err = openaillm.New(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		provider, err = anthropicllm.New(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	return llm.NewRetrying(provider, settings.Retry, settings.RequestsPerSecond), nil
}
