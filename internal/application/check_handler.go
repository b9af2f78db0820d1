package application

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxid/minilex/internal/domain"
)

// CheckResult runs all grammar examples, aggregates rule coverage, and
// evaluates the policy. Failed examples fail the check.
func (s *Service) CheckResult(ctx context.Context, opts CheckOptions) (domain.Result, error) {
	cfg, err := loadOrDetectConfig(s.ConfigLoader, s.Autodetector, opts.ConfigPath, opts.Grammar)
	if err != nil {
		return domain.Result{}, err
	}

	gpath, err := grammarPath(cfg, opts.ConfigPath, opts.Grammar)
	if err != nil {
		return domain.Result{}, err
	}

	grammar, examples, err := s.GrammarLoader.Load(gpath)
	if err != nil {
		return domain.Result{}, err
	}

	stats, exampleResults, err := s.Runner.Run(ctx, grammar, examples)
	if err != nil {
		return domain.Result{}, err
	}
	stats = fullStats(grammar, stats)

	if err := s.writeProfile(cfg, opts.ConfigPath, opts.Profile, gpath, stats); err != nil {
		return domain.Result{}, err
	}

	groups := filterGroupsByNames(cfg.Policy.Groups, opts.Groups)
	if len(groups) == 0 {
		return domain.Result{}, fmt.Errorf("no matching groups found for: %v", opts.Groups)
	}

	allRules := grammar.LeafRules()
	coverage := domain.AggregateByGroup(stats, allRules, groups, cfg.Exclude)

	policy := cfg.Policy
	policy.Groups = groups
	result := domain.Evaluate(policy, coverage)
	result.Warnings = domain.GroupOverlapWarnings(allRules, groups)
	result.Examples = exampleResults
	if result.FailingExampleCount() > 0 {
		result.Passed = false
	}

	applyDeltas(&result, opts.HistoryStore)
	return result, nil
}

// Check is CheckResult plus reporting; a failed policy or example becomes
// an error so callers can map it to an exit code.
func (s *Service) Check(ctx context.Context, opts CheckOptions) error {
	result, err := s.CheckResult(ctx, opts)
	if err != nil {
		return err
	}
	if err := s.Reporter.Write(s.Out, result, opts.Output); err != nil {
		return err
	}
	if !result.Passed {
		return fmt.Errorf("policy violation")
	}
	return nil
}

// Run executes the examples and writes the rule profile without evaluating
// policy. Example verification failures are still reported as an error.
func (s *Service) Run(ctx context.Context, opts RunOptions) error {
	cfg, err := loadOrDetectConfig(s.ConfigLoader, s.Autodetector, opts.ConfigPath, opts.Grammar)
	if err != nil {
		return err
	}

	gpath, err := grammarPath(cfg, opts.ConfigPath, opts.Grammar)
	if err != nil {
		return err
	}

	grammar, examples, err := s.GrammarLoader.Load(gpath)
	if err != nil {
		return err
	}

	stats, exampleResults, err := s.Runner.Run(ctx, grammar, examples)
	if err != nil {
		return err
	}
	stats = fullStats(grammar, stats)

	if err := s.writeProfile(cfg, opts.ConfigPath, opts.Profile, gpath, stats); err != nil {
		return err
	}

	failed := 0
	for _, res := range exampleResults {
		if res.Status == domain.StatusFail {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d examples failed", failed, len(exampleResults))
	}
	return nil
}

func (s *Service) writeProfile(cfg Config, configPath, override, gpath string, stats map[string]domain.RuleStat) error {
	path := override
	if path == "" {
		path = resolveFrom(configPath, cfg.Profile)
	}
	if path == "" || s.ProfileStore == nil {
		return nil
	}
	return s.ProfileStore.Write(path, Profile{
		Version:     1,
		Grammar:     gpath,
		GeneratedAt: time.Now().UTC(),
		Rules:       stats,
	})
}
