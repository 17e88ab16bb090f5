// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - GenerationStore: Generation record persistence
//   - ContextProvider: Supplies the project snapshot a run works from
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - TextCompletionProvider: Enrichment commentary. Without it, stages stay purely rule based.
//   - EmbeddingService: Chunk embeddings. Without it, chunks are indexed without vectors.
//   - ChunkIndex: Retrieval index rows. Without it, ingestion is disabled.
//   - DocumentRenderer: Final document output. Without it, runs complete after validation.
//   - PromptStore: Custom prompt templates. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
