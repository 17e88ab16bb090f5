// Package mcp provides an MCP (Model Context Protocol) server adapter for AzureBridge.
// It lets AI assistants inspect and drive report generations.
package mcp

import "errors"

// ErrMissingGenerationService is returned when the generation service is not provided.
var ErrMissingGenerationService = errors.New("mcp: generation service is required")

// errUnavailable is returned by tools whose backing service is not wired.
var errUnavailable = errors.New("mcp: service not configured")
