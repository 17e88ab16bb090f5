// Package llm holds the pieces shared by the text-completion adapters.
//
// The provider packages (openai, anthropic, ollama) speak HTTP to their
// services and report failures through [APIError], which classifies the
// response as rate limited or transient. [Retrying] wraps any provider with
// throttling and bounded exponential backoff on those classes. [DecodeObject]
// turns a model answer into a JSON object validated against a JSON Schema.
package llm
