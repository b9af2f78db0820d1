package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fluxid/minilex/internal/application"
	"github.com/fluxid/minilex/internal/infrastructure/history"
)

// handleDebtResource returns rule-coverage debt metrics.
func (s *Server) handleDebtResource(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.ReadResourceParams,
) (*mcp.ReadResourceResult, error) {
	result, err := s.svc.Debt(ctx, application.DebtOptions{
		ConfigPath:  s.config.ConfigPath,
		ProfilePath: s.config.ProfilePath,
		Output:      application.OutputJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to calculate debt: %w", err)
	}

	return jsonResource(params.URI, result)
}

// handleTrendResource returns rule-coverage trend analysis.
func (s *Server) handleTrendResource(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.ReadResourceParams,
) (*mcp.ReadResourceResult, error) {
	store := &history.FileStore{Path: s.config.HistoryPath}

	result, err := s.svc.Trend(ctx, application.TrendOptions{
		ConfigPath:  s.config.ConfigPath,
		ProfilePath: s.config.ProfilePath,
		HistoryPath: s.config.HistoryPath,
		Output:      application.OutputJSON,
	}, store)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate trend: %w", err)
	}

	return jsonResource(params.URI, result)
}

// handleSuggestResource returns threshold recommendations.
func (s *Server) handleSuggestResource(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.ReadResourceParams,
) (*mcp.ReadResourceResult, error) {
	result, err := s.svc.Suggest(ctx, application.SuggestOptions{
		ConfigPath:  s.config.ConfigPath,
		ProfilePath: s.config.ProfilePath,
		Strategy:    application.SuggestCurrent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate suggestions: %w", err)
	}

	return jsonResource(params.URI, result)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
