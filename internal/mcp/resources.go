package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs
const (
	CatalogResourceURI = "prime://catalog/therapies"
	EngineResourceURI  = "prime://engine/parameters"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         CatalogResourceURI,
		Name:        "therapy-catalog",
		Description: "Lipid-lowering therapy classes in canonical potency order.",
		MIMEType:    "application/json",
	}, s.readCatalog)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         EngineResourceURI,
		Name:        "engine-parameters",
		Description: "Risk model coefficients, covariate bounds, LDL model limits and recommendation thresholds.",
		MIMEType:    "application/json",
	}, s.readEngineParameters)
}

func (s *Server) readCatalog(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(CatalogResourceURI, s.engine.Catalog.ListTherapies())
}

func (s *Server) readEngineParameters(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(EngineResourceURI, s.engine.Config)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding resource %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}
