package services

import (
	"fmt"
	"slices"
	"time"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkerTarget    = "chunker.target_size"
	keyChunkerMax       = "chunker.max_size"
	keyChunkerOverlap   = "chunker.overlap"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMRetryAttempts = "llm.retry.max_attempts"
	keyLLMRetryBaseMs   = "llm.retry.base_delay_ms"
	keyLLMRetryMaxMs    = "llm.retry.max_delay_ms"
	keyLLMRate          = "llm.requests_per_second"
	keyMaxActivities    = "pipeline.max_activities"
	keyGuideText        = "pipeline.guide_text"
	keySnapshotDir      = "pipeline.snapshot_dir"
	keyIngestWorkers    = "ingest.concurrency"
	keyRenderOutputDir  = "render.output_dir"
	keyDataDir          = "data.dir"
)

const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings. Missing or invalid keys fall
// back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Chunker: domain.ChunkerSettings{
			TargetSize: s.getInt(keyChunkerTarget, defaults.Chunker.TargetSize),
			MaxSize:    s.getInt(keyChunkerMax, defaults.Chunker.MaxSize),
			Overlap:    s.getInt(keyChunkerOverlap, defaults.Chunker.Overlap),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
			Retry: domain.RetrySettings{
				MaxAttempts: s.getInt(keyLLMRetryAttempts, defaults.LLM.Retry.MaxAttempts),
				BaseDelay:   s.getMillis(keyLLMRetryBaseMs, defaults.LLM.Retry.BaseDelay),
				MaxDelay:    s.getMillis(keyLLMRetryMaxMs, defaults.LLM.Retry.MaxDelay),
			},
			RequestsPerSecond: s.getFloat(keyLLMRate, defaults.LLM.RequestsPerSecond),
		},
		Pipeline: domain.PipelineSettings{
			MaxActivities: s.getInt(keyMaxActivities, defaults.Pipeline.MaxActivities),
			GuideText:     s.configStore.GetString(keyGuideText),
			SnapshotDir:   s.configStore.GetString(keySnapshotDir),
		},
		Ingest: domain.IngestSettings{
			Concurrency: s.getInt(keyIngestWorkers, defaults.Ingest.Concurrency),
		},
		Render: domain.RenderSettings{
			OutputDir: s.getString(keyRenderOutputDir, defaults.Render.OutputDir),
		},
		DataDir: s.getString(keyDataDir, defaults.DataDir),
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyChunkerTarget, settings.Chunker.TargetSize},
		{keyChunkerMax, settings.Chunker.MaxSize},
		{keyChunkerOverlap, settings.Chunker.Overlap},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMRetryAttempts, settings.LLM.Retry.MaxAttempts},
		{keyLLMRetryBaseMs, int(settings.LLM.Retry.BaseDelay / time.Millisecond)},
		{keyLLMRetryMaxMs, int(settings.LLM.Retry.MaxDelay / time.Millisecond)},
		{keyLLMRate, settings.LLM.RequestsPerSecond},
		{keyMaxActivities, settings.Pipeline.MaxActivities},
		{keyGuideText, settings.Pipeline.GuideText},
		{keySnapshotDir, settings.Pipeline.SnapshotDir},
		{keyIngestWorkers, settings.Ingest.Concurrency},
		{keyRenderOutputDir, settings.Render.OutputDir},
		{keyDataDir, settings.DataDir},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// API keys are only written when present so a partial save never wipes them.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyLLMAPIKey, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that the stored settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	c := settings.Chunker
	if c.TargetSize <= 0 || c.MaxSize <= 0 {
		return fmt.Errorf("%w: chunker sizes must be positive", domain.ErrInvalidInput)
	}
	if c.MaxSize < c.TargetSize {
		return fmt.Errorf("%w: chunker.max_size %d is below chunker.target_size %d",
			domain.ErrInvalidInput, c.MaxSize, c.TargetSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.MaxSize {
		return fmt.Errorf("%w: chunker.overlap must be in [0, max_size)", domain.ErrInvalidInput)
	}
	if settings.LLM.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: llm.retry.max_attempts must be at least 1", domain.ErrInvalidInput)
	}
	if settings.LLM.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: llm.requests_per_second must not be negative", domain.ErrInvalidInput)
	}
	if settings.Ingest.Concurrency < 1 {
		return fmt.Errorf("%w: ingest.concurrency must be at least 1", domain.ErrInvalidInput)
	}

	// A provider that is set must be usable; an unset one just disables enrichment.
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %q is not fully configured", settings.LLM.Provider.Description())
	}
	if settings.Embedding.Provider != "" && !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not fully configured", settings.Embedding.Provider.Description())
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

// baseURLFor keeps a custom URL for local providers and clears it for cloud ones.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getMillis(key string, defaultVal time.Duration) time.Duration {
	ms := s.configStore.GetInt(key)
	if ms <= 0 {
		return defaultVal
	}
	return time.Duration(ms) * time.Millisecond
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return defaultVal
	}
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
