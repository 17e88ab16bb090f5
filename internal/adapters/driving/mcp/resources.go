package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for AzureBridge resources.
	uriScheme = "azurebridge://"

	// recentLimit bounds the generation listing resource.
	recentLimit = 50
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "generations",
		Name:        "generations",
		Description: "Most recent report generations",
		MIMEType:    "application/json",
	}, s.handleGenerationsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "generations/{generationId}",
		Name:        "generation",
		Description: "Full record of a generation, including partial results and overrides",
		MIMEType:    "application/json",
	}, s.handleGenerationResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "generations/{generationId}/placeholders",
		Name:        "generation-placeholders",
		Description: "Final placeholder map of a generation",
		MIMEType:    "application/json",
	}, s.handleGenerationResource)
}

// handleGenerationsResource lists recent generations.
func (s *Server) handleGenerationsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	recs, err := s.ports.Generation.List(ctx, "", recentLimit)
	if err != nil {
		return nil, fmt.Errorf("listing generations: %w", err)
	}

	infos := make([]GenerationOutput, len(recs))
	for i := range recs {
		infos[i] = summarize(&recs[i])
	}
	return jsonResult(req.Params.URI, infos)
}

// handleGenerationResource serves a generation record or its placeholder map.
func (s *Server) handleGenerationResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id, part := parseGenerationURI(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	rec, err := s.ports.Generation.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting generation: %w", err)
	}

	switch part {
	case "":
		return jsonResult(req.Params.URI, rec)
	case "placeholders":
		m := rec.PartialResults.PlaceholderMap
		if m == nil {
			m = domain.PlaceholderMap{}
		}
		return jsonResult(req.Params.URI, m)
	default:
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// parseGenerationURI splits azurebridge://generations/{id}[/{part}].
func parseGenerationURI(uri string) (id, part string) {
	const prefix = uriScheme + "generations/"

	if !strings.HasPrefix(uri, prefix) {
		return "", ""
	}
	rest := strings.TrimPrefix(uri, prefix)
	id, part, _ = strings.Cut(rest, "/")
	return id, part
}
