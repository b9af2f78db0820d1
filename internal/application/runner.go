package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/fluxid/minilex/internal/domain"
	"github.com/fluxid/minilex/internal/lexer"
)

// GrammarRunner executes grammar examples in-process with the lexer engine.
type GrammarRunner struct{}

// Run lexes every example and verifies it against its expectations. The
// returned stats merge rule attempts and hits across all examples; the
// results carry one verdict per example. Verification failures are data,
// not errors: the error return is reserved for cancellation.
func (GrammarRunner) Run(ctx context.Context, g *lexer.Grammar, examples []Example) (map[string]domain.RuleStat, []domain.ExampleResult, error) {
	merged := make(map[string]domain.RuleStat)
	results := make([]domain.ExampleResult, 0, len(examples))

	for _, ex := range examples {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		var matched []string
		parser := lexer.NewParser(g, lexer.WithOnToken(func(rule string, m lexer.Match) {
			matched = append(matched, rule)
		}))

		err := parser.ParseLines(strings.Split(ex.Input, "\n"))
		if err == nil {
			err = parser.Finish()
		}

		for name, stat := range parser.Profile() {
			agg := merged[name]
			agg.Attempts += stat.Attempts
			agg.Hits += stat.Hits
			merged[name] = agg
		}

		results = append(results, verifyExample(ex, matched, err))
	}

	return merged, results, nil
}

func verifyExample(ex Example, matched []string, err error) domain.ExampleResult {
	result := domain.ExampleResult{Name: ex.Name, Status: domain.StatusPass}

	if ex.WantError != "" {
		code := lexer.CodeOf(err)
		if code == 0 || code.String() != ex.WantError {
			result.Status = domain.StatusFail
			if err == nil {
				result.Failure = fmt.Sprintf("expected error %q, parse succeeded", ex.WantError)
			} else {
				result.Failure = fmt.Sprintf("expected error %q, got: %v", ex.WantError, err)
			}
		}
		return result
	}

	if err != nil {
		result.Status = domain.StatusFail
		result.Failure = err.Error()
		return result
	}

	if len(ex.Tokens) > 0 && !equalTokens(matched, ex.Tokens) {
		result.Status = domain.StatusFail
		result.Failure = fmt.Sprintf("token mismatch: got [%s], want [%s]",
			strings.Join(matched, " "), strings.Join(ex.Tokens, " "))
	}
	return result
}

func equalTokens(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
