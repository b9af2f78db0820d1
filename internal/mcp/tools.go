package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fluxid/minilex/internal/application"
	"github.com/fluxid/minilex/internal/domain"
	"github.com/fluxid/minilex/internal/infrastructure/history"
)

// handleCheck implements the check tool.
func (s *Server) handleCheck(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[CheckInput],
) (*mcp.CallToolResultFor[ToolOutput], error) {
	input := params.Arguments
	opts := application.CheckOptions{
		ConfigPath: coalesce(input.ConfigPath, s.config.ConfigPath),
		Grammar:    input.Grammar,
		Profile:    coalesce(input.Profile, s.config.ProfilePath),
		Output:     application.OutputJSON,
		Groups:     input.Groups,
	}

	result, err := s.svc.CheckResult(ctx, opts)

	output := ToolOutput{
		Passed:   result.Passed,
		Groups:   result.Groups,
		Examples: result.Examples,
		Warnings: result.Warnings,
	}

	if err != nil {
		output.Passed = false
		output.Error = err.Error()
	}

	output.Summary = generateSummary(result)

	return toolResult(output), nil
}

// handleTokenize implements the tokenize tool.
func (s *Server) handleTokenize(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[TokenizeInput],
) (*mcp.CallToolResultFor[ToolOutput], error) {
	input := params.Arguments
	files, err := s.svc.TokenizeResult(ctx, application.TokenizeOptions{
		ConfigPath: coalesce(input.ConfigPath, s.config.ConfigPath),
		Grammar:    input.Grammar,
		Files:      input.Files,
		Output:     application.OutputJSON,
	})

	output := ToolOutput{
		Passed: err == nil,
		Files:  files,
	}

	if err != nil {
		output.Error = err.Error()
		output.Summary = "Tokenization failed"
	} else {
		tokens := 0
		for _, f := range files {
			tokens += len(f.Tokens)
		}
		output.Summary = fmt.Sprintf("%d tokens across %d files", tokens, len(files))
	}

	return toolResult(output), nil
}

// handleValidate implements the validate tool.
func (s *Server) handleValidate(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[ValidateInput],
) (*mcp.CallToolResultFor[ToolOutput], error) {
	input := params.Arguments
	result, err := s.svc.Validate(ctx, application.ValidateOptions{
		ConfigPath: coalesce(input.ConfigPath, s.config.ConfigPath),
		Grammar:    input.Grammar,
	})

	output := ToolOutput{}
	if err != nil {
		output.Error = err.Error()
		output.Summary = "Validation failed"
		return toolResult(output), nil
	}

	for _, issue := range result.Issues {
		if issue.Rule != "" {
			output.Issues = append(output.Issues, fmt.Sprintf("%s: %s", issue.Rule, issue.Message))
		} else {
			output.Issues = append(output.Issues, issue.Message)
		}
	}

	output.Passed = len(result.Issues) == 0
	if output.Passed {
		output.Summary = fmt.Sprintf("Grammar %s is sound", result.Grammar)
	} else {
		output.Summary = fmt.Sprintf("Grammar %s has %d issues", result.Grammar, len(result.Issues))
	}

	return toolResult(output), nil
}

// handleRecord implements the record tool.
func (s *Server) handleRecord(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[RecordInput],
) (*mcp.CallToolResultFor[ToolOutput], error) {
	input := params.Arguments
	opts := application.RecordOptions{
		ConfigPath:  coalesce(input.ConfigPath, s.config.ConfigPath),
		ProfilePath: coalesce(input.Profile, s.config.ProfilePath),
		HistoryPath: coalesce(input.HistoryPath, s.config.HistoryPath),
		Commit:      input.Commit,
		Branch:      input.Branch,
	}

	store := &history.FileStore{Path: opts.HistoryPath}

	err := s.svc.Record(ctx, opts, store)

	output := ToolOutput{
		Passed: err == nil,
	}

	if err != nil {
		output.Error = err.Error()
		output.Summary = "Failed to record coverage"
	} else {
		output.Summary = "Coverage recorded to history"
	}

	return toolResult(output), nil
}

// toolResult wraps the structured output with a text summary. Failures are
// reported inside the result, not as protocol errors, so the caller can see
// them and react.
func toolResult(output ToolOutput) *mcp.CallToolResultFor[ToolOutput] {
	return &mcp.CallToolResultFor[ToolOutput]{
		Content:           []mcp.Content{&mcp.TextContent{Text: output.Summary}},
		StructuredContent: output,
		IsError:           output.Error != "",
	}
}

// generateSummary creates a human-readable summary from the result.
func generateSummary(result domain.Result) string {
	if len(result.Groups) == 0 {
		return "No rule groups found"
	}

	passing := result.PassingGroupCount()
	total := len(result.Groups)
	overall := result.OverallPercent()

	status := "PASS"
	if !result.Passed {
		status = "FAIL"
	}
	summary := fmt.Sprintf("%s | %.1f%% overall | %d/%d groups passing", status, overall, passing, total)
	if failed := result.FailingExampleCount(); failed > 0 {
		summary += fmt.Sprintf(" | %d examples failing", failed)
	}
	return summary
}
