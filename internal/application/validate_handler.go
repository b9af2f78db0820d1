package application

import "context"

// Validate checks the grammar for structural problems without lexing any
// input: undefined rule references, rules with neither a matcher nor
// candidates, leaf rules without an after target, and unreachable rules.
func (s *Service) Validate(ctx context.Context, opts ValidateOptions) (ValidateResult, error) {
	gpath := opts.Grammar
	if gpath == "" {
		cfg, err := s.ConfigLoader.Load(opts.ConfigPath)
		if err != nil {
			return ValidateResult{}, err
		}
		gpath, err = grammarPath(cfg, opts.ConfigPath, "")
		if err != nil {
			return ValidateResult{}, err
		}
	}

	grammar, _, err := s.GrammarLoader.Load(gpath)
	if err != nil {
		return ValidateResult{}, err
	}

	return ValidateResult{
		Grammar: gpath,
		Issues:  grammar.Check(),
	}, nil
}
