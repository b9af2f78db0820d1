package application

import (
	"context"
	"fmt"

	"github.com/fluxid/minilex/internal/domain"
)

// ReportResult evaluates the policy from an existing rule profile without
// re-running the examples.
func (s *Service) ReportResult(ctx context.Context, opts ReportOptions) (domain.Result, error) {
	cfg, err := loadOrDetectConfig(s.ConfigLoader, s.Autodetector, opts.ConfigPath, "")
	if err != nil {
		return domain.Result{}, err
	}

	profile, err := s.loadProfile(cfg, opts.ConfigPath, opts.Profile)
	if err != nil {
		return domain.Result{}, err
	}

	groups := filterGroupsByNames(cfg.Policy.Groups, opts.Groups)
	if len(groups) == 0 {
		return domain.Result{}, fmt.Errorf("no matching groups found for: %v", opts.Groups)
	}

	allRules := make([]string, 0, len(profile.Rules))
	for name := range profile.Rules {
		allRules = append(allRules, name)
	}
	coverage := domain.AggregateByGroup(profile.Rules, allRules, groups, cfg.Exclude)

	policy := cfg.Policy
	policy.Groups = groups
	result := domain.Evaluate(policy, coverage)
	result.Warnings = domain.GroupOverlapWarnings(allRules, groups)

	applyDeltas(&result, opts.HistoryStore)
	return result, nil
}

// Report is ReportResult plus reporting.
func (s *Service) Report(ctx context.Context, opts ReportOptions) error {
	result, err := s.ReportResult(ctx, opts)
	if err != nil {
		return err
	}
	return s.Reporter.Write(s.Out, result, opts.Output)
}

func (s *Service) loadProfile(cfg Config, configPath, override string) (Profile, error) {
	path := override
	if path == "" {
		path = resolveFrom(configPath, cfg.Profile)
	}
	if path == "" {
		return Profile{}, fmt.Errorf("no profile path configured")
	}
	return s.ProfileStore.Load(path)
}
