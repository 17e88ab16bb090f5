// Package domain defines the core business entities for AzureBridge report generation.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A bounded, annotated segment of source text
//   - FieldResult: One extracted report field with evidence and confidence
//   - Section: A named, independently reprocessable group of fields
//   - GenerationRecord: The durable state of one report generation
//   - Override: A manual correction addressed by a FieldKey
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
