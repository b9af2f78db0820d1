package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is set at build time.
var Version = "dev"

// Server wraps the application service with MCP protocol handling.
type Server struct {
	svc    Service
	config Config
}

// New creates a new MCP server wrapping the given service.
func New(svc Service, cfg Config) *Server {
	defaults := DefaultConfig()
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = defaults.ConfigPath
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = defaults.HistoryPath
	}
	if cfg.ProfilePath == "" {
		cfg.ProfilePath = defaults.ProfilePath
	}

	return &Server{
		svc:    svc,
		config: cfg,
	}
}

// Run starts the MCP server on stdio and blocks until the context is
// canceled or the session ends.
func (s *Server) Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "minilex",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: "Grammar rule-coverage tools: run 'check' to execute the grammar examples, then 'record' to track coverage over time.",
		},
	)

	s.registerTools(server)
	s.registerResources(server)

	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}

	return nil
}

// registerTools adds all tool handlers to the server.
func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "check",
		Description: "Run the grammar examples and enforce rule-coverage thresholds. Evaluates which grammar rules the examples exercise against configured minimums.",
	}, s.handleCheck)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "tokenize",
		Description: "Lex input files with the configured grammar and return the token streams.",
	}, s.handleTokenize)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate",
		Description: "Statically validate the grammar: undefined references, missing matchers, missing after targets, unreachable rules.",
	}, s.handleValidate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "record",
		Description: "Record current rule coverage to history for trend tracking. Call this after 'check' to save coverage data.",
	}, s.handleRecord)
}

// registerResources adds all resource handlers to the server.
func (s *Server) registerResources(server *mcp.Server) {
	server.AddResource(&mcp.Resource{
		URI:         "minilex://debt",
		Name:        "Coverage Debt",
		Description: "Shows rule-coverage debt - gap between current and required coverage per group",
		MIMEType:    "application/json",
	}, s.handleDebtResource)

	server.AddResource(&mcp.Resource{
		URI:         "minilex://trend",
		Name:        "Coverage Trend",
		Description: "Shows rule-coverage trends over time from recorded history",
		MIMEType:    "application/json",
	}, s.handleTrendResource)

	server.AddResource(&mcp.Resource{
		URI:         "minilex://suggest",
		Name:        "Threshold Suggestions",
		Description: "Suggests group coverage thresholds based on current rule coverage",
		MIMEType:    "application/json",
	}, s.handleSuggestResource)
}
