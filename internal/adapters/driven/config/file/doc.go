// Package file provides filesystem-backed adapters.
//
// Adapters:
//   - ConfigStore: TOML settings with environment overrides
//   - PromptStore: user-editable prompt templates seeded from built-in defaults
package file
