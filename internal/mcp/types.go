// Package mcp exposes grammar checking over the Model Context Protocol.
package mcp

import (
	"context"

	"github.com/fluxid/minilex/internal/application"
	"github.com/fluxid/minilex/internal/domain"
)

// Service defines the application operations needed by MCP.
// This interface allows for easy mocking in tests.
type Service interface {
	// Tools (actions that may have side effects)
	CheckResult(ctx context.Context, opts application.CheckOptions) (domain.Result, error)
	TokenizeResult(ctx context.Context, opts application.TokenizeOptions) ([]application.FileTokens, error)
	Validate(ctx context.Context, opts application.ValidateOptions) (application.ValidateResult, error)
	Record(ctx context.Context, opts application.RecordOptions, store application.HistoryStore) error

	// Resources (read-only queries)
	Debt(ctx context.Context, opts application.DebtOptions) (application.DebtResult, error)
	Trend(ctx context.Context, opts application.TrendOptions, store application.HistoryStore) (application.TrendResult, error)
	Suggest(ctx context.Context, opts application.SuggestOptions) (application.SuggestResult, error)
}

// Config holds MCP server configuration.
type Config struct {
	ConfigPath  string // path to .minilex.yaml (default: ".minilex.yaml")
	HistoryPath string // path to history file (default: ".minilex/history.json")
	ProfilePath string // path to rule profile (default: ".minilex/rules.json")
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() Config {
	return Config{
		ConfigPath:  ".minilex.yaml",
		HistoryPath: ".minilex/history.json",
		ProfilePath: ".minilex/rules.json",
	}
}

// CheckInput defines the input parameters for the check tool.
type CheckInput struct {
	ConfigPath string   `json:"configPath,omitempty" jsonschema:"Path to .minilex.yaml config file"`
	Grammar    string   `json:"grammar,omitempty" jsonschema:"Grammar file overriding the configured one"`
	Profile    string   `json:"profile,omitempty" jsonschema:"Rule profile output path"`
	Groups     []string `json:"groups,omitempty" jsonschema:"Filter to specific rule groups"`
}

// TokenizeInput defines the input parameters for the tokenize tool.
type TokenizeInput struct {
	ConfigPath string   `json:"configPath,omitempty" jsonschema:"Path to .minilex.yaml config file"`
	Grammar    string   `json:"grammar,omitempty" jsonschema:"Grammar file overriding the configured one"`
	Files      []string `json:"files" jsonschema:"Input files to lex"`
}

// ValidateInput defines the input parameters for the validate tool.
type ValidateInput struct {
	ConfigPath string `json:"configPath,omitempty" jsonschema:"Path to .minilex.yaml config file"`
	Grammar    string `json:"grammar,omitempty" jsonschema:"Grammar file overriding the configured one"`
}

// RecordInput defines the input parameters for the record tool.
type RecordInput struct {
	ConfigPath  string `json:"configPath,omitempty" jsonschema:"Path to .minilex.yaml config file"`
	Profile     string `json:"profile,omitempty" jsonschema:"Path to rule profile"`
	HistoryPath string `json:"historyPath,omitempty" jsonschema:"Path to history file"`
	Commit      string `json:"commit,omitempty" jsonschema:"Git commit SHA"`
	Branch      string `json:"branch,omitempty" jsonschema:"Git branch name"`
}

// ToolOutput represents the common output structure for tools.
type ToolOutput struct {
	Passed   bool                     `json:"passed"`
	Summary  string                   `json:"summary,omitempty"`
	Groups   []domain.GroupResult     `json:"groups,omitempty"`
	Examples []domain.ExampleResult   `json:"examples,omitempty"`
	Files    []application.FileTokens `json:"files,omitempty"`
	Issues   []string                 `json:"issues,omitempty"`
	Warnings []string                 `json:"warnings,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// coalesce returns value if non-empty, otherwise fallback.
func coalesce(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
