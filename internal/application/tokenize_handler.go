package application

import (
	"context"
	"fmt"
	"os"

	"github.com/fluxid/minilex/internal/lexer"
)

// TokenizeResult lexes the given input files with the grammar and returns
// their token streams. Files are processed in the order passed.
func (s *Service) TokenizeResult(ctx context.Context, opts TokenizeOptions) ([]FileTokens, error) {
	gpath := opts.Grammar
	if gpath == "" {
		cfg, err := s.ConfigLoader.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		gpath, err = grammarPath(cfg, opts.ConfigPath, "")
		if err != nil {
			return nil, err
		}
	}

	grammar, _, err := s.GrammarLoader.Load(gpath)
	if err != nil {
		return nil, err
	}

	out := make([]FileTokens, 0, len(opts.Files))
	for _, file := range opts.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tokens, err := tokenizeFile(grammar, file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		out = append(out, FileTokens{File: file, Tokens: tokens})
	}
	return out, nil
}

// Tokenize is TokenizeResult plus reporting.
func (s *Service) Tokenize(ctx context.Context, opts TokenizeOptions) error {
	files, err := s.TokenizeResult(ctx, opts)
	if err != nil {
		return err
	}
	return s.Reporter.WriteTokens(s.Out, files, opts.Output)
}

func tokenizeFile(g *lexer.Grammar, path string) ([]Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tokens []Token
	var parser *lexer.Parser
	parser = lexer.NewParser(g, lexer.WithOnToken(func(rule string, m lexer.Match) {
		tokens = append(tokens, Token{
			Rule: rule,
			Line: parser.LineNo(),
			Pos:  parser.Pos() + 1,
			Text: m.Text,
		})
	}))

	if err := parser.ParseReader(f); err != nil {
		return nil, err
	}
	if err := parser.Finish(); err != nil {
		return nil, err
	}
	return tokens, nil
}
