// Command azurebridge generates monthly project reports from tracker snapshots.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/adapters/driven/ai"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/adapters/driven/config/file"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/adapters/driven/contextfile"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/adapters/driven/render/xlsx"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/adapters/driven/storage/sqlite"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/adapters/driving/cli"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/services"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/logger"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/postprocessors/chunker"
)

// Set via -ldflags "-X main.version=...".
var version = "dev"

// logLevelEnv sets the initial log level before flags are parsed.
const logLevelEnv = "AZUREBRIDGE_LOG_LEVEL"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if raw, ok := os.LookupEnv(logLevelEnv); ok {
		level, err := logger.ParseLevel(raw)
		if err != nil {
			logger.Warn("%s: %v", logLevelEnv, err)
		}
		logger.SetLevel(level)
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	dataDir, err := resolveDataDir(settings.DataDir)
	if err != nil {
		return err
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.Close() //nolint:errcheck

	collaborators := ai.Init(ctx, settings)
	defer collaborators.Close()

	pipeline, err := buildPipeline(collaborators, settings)
	if err != nil {
		return err
	}

	snapshotDir := settings.Pipeline.SnapshotDir
	if snapshotDir == "" {
		snapshotDir = filepath.Join(dataDir, "snapshots")
	}
	contexts := contextfile.New(snapshotDir)

	renderer, err := xlsx.New(settings.Render.OutputDir)
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}

	guard := services.NewRunGuard()
	generations := store.GenerationStore()
	textChunker := chunker.New(
		chunker.WithTargetSize(settings.Chunker.TargetSize),
		chunker.WithMaxSize(settings.Chunker.MaxSize),
		chunker.WithOverlap(settings.Chunker.Overlap),
	)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Settings:   settingsService,
		Generation: services.NewGenerationService(generations, contexts, renderer, pipeline, guard),
		Reprocess:  services.NewReprocessService(generations, pipeline, guard),
		Overrides:  services.NewOverrideService(generations, guard),
		Ingest:     services.NewIngestService(textChunker, store.ChunkIndex(), collaborators.Embedder, settings.Ingest.Concurrency),
		Chunker:    textChunker,
	})

	return cli.Execute(ctx)
}

// buildPipeline wires the LLM into every stage when one is available.
func buildPipeline(collaborators *ai.InitResult, settings *domain.AppSettings) (services.Pipeline, error) {
	extractorOpts := []services.ExtractorOption{
		services.WithMaxActivities(settings.Pipeline.MaxActivities),
	}
	var (
		normalizerOpts []services.NormalizerOption
		validatorOpts  []services.ValidatorOption
	)

	if collaborators.LLM != nil {
		prompts, err := file.NewPromptStore("", services.DefaultPrompts())
		if err != nil {
			return services.Pipeline{}, fmt.Errorf("prompts: %w", err)
		}
		extractorOpts = append(extractorOpts, services.WithExtractorLLM(collaborators.LLM, prompts))
		normalizerOpts = append(normalizerOpts, services.WithNormalizerLLM(collaborators.LLM, prompts))
		validatorOpts = append(validatorOpts, services.WithValidatorLLM(collaborators.LLM, prompts))
	}

	return services.Pipeline{
		Extractor:  services.NewExtractor(extractorOpts...),
		Normalizer: services.NewNormalizer(normalizerOpts...),
		Validator:  services.NewValidator(validatorOpts...),
		GuideText:  settings.Pipeline.GuideText,
	}, nil
}

func resolveDataDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".azurebridge", "data"), nil
}
