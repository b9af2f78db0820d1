package application

import (
	"context"
	"math"
	"sort"

	"github.com/fluxid/minilex/internal/domain"
)

// Suggest analyzes current rule coverage and proposes group thresholds.
// The returned config carries the suggested minimums applied.
func (s *Service) Suggest(ctx context.Context, opts SuggestOptions) (SuggestResult, error) {
	cfg, err := loadOrDetectConfig(s.ConfigLoader, s.Autodetector, opts.ConfigPath, "")
	if err != nil {
		return SuggestResult{}, err
	}

	result, err := s.ReportResult(ctx, ReportOptions{
		ConfigPath: opts.ConfigPath,
		Profile:    opts.ProfilePath,
	})
	if err != nil {
		return SuggestResult{}, err
	}

	suggestions := make([]Suggestion, 0, len(cfg.Policy.Groups))
	for i, g := range cfg.Policy.Groups {
		current := 0.0
		if gr := result.GroupByName(g.Name); gr != nil {
			current = gr.Percent
		}
		currentMin := g.MinThreshold(cfg.Policy.DefaultMin)

		suggestedMin, reason := calculateSuggestion(current, currentMin, opts.Strategy)
		suggestions = append(suggestions, Suggestion{
			Group:          g.Name,
			CurrentPercent: current,
			CurrentMin:     currentMin,
			SuggestedMin:   suggestedMin,
			Reason:         reason,
		})

		min := suggestedMin
		cfg.Policy.Groups[i].Min = &min
	}

	return SuggestResult{Suggestions: suggestions, Config: cfg}, nil
}

// Badge calculates overall rule coverage for badge generation.
func (s *Service) Badge(ctx context.Context, opts BadgeOptions) (BadgeResult, error) {
	result, err := s.ReportResult(ctx, ReportOptions{
		ConfigPath: opts.ConfigPath,
		Profile:    opts.ProfilePath,
	})
	if err != nil {
		return BadgeResult{}, err
	}
	return BadgeResult{Percent: result.OverallPercent()}, nil
}

// Debt reports how far each group falls short of its requirement and an
// overall health score.
func (s *Service) Debt(ctx context.Context, opts DebtOptions) (DebtResult, error) {
	result, err := s.ReportResult(ctx, ReportOptions{
		ConfigPath: opts.ConfigPath,
		Profile:    opts.ProfilePath,
	})
	if err != nil {
		return DebtResult{}, err
	}

	var items []DebtItem
	var totalDebt float64
	var totalRules int
	passCount := 0

	for _, g := range result.Groups {
		if g.IsPassing() {
			passCount++
			continue
		}
		uncovered := g.Stat().Uncovered()
		items = append(items, DebtItem{
			Group:     g.Group,
			Current:   g.Percent,
			Required:  g.Required,
			Shortfall: g.Shortfall(),
			Rules:     uncovered,
		})
		totalDebt += g.Shortfall()
		totalRules += uncovered
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Shortfall > items[j].Shortfall
	})

	healthScore := 100.0
	if len(result.Groups) > 0 {
		healthScore = domain.Round1(float64(passCount) / float64(len(result.Groups)) * 100)
	}

	return DebtResult{
		Items:       items,
		TotalDebt:   domain.Round1(totalDebt),
		TotalRules:  totalRules,
		HealthScore: healthScore,
	}, nil
}

func calculateSuggestion(current, currentMin float64, strategy SuggestStrategy) (float64, string) {
	switch strategy {
	case SuggestAggressive:
		suggested := math.Min(current+5, 95)
		if suggested > currentMin {
			return domain.Round1(suggested), "push for improvement (+5%)"
		}
		return currentMin, "already at or above aggressive target"

	case SuggestConservative:
		suggested := math.Max(current-5, currentMin)
		suggested = math.Max(suggested, 50)
		return domain.Round1(suggested), "gradual improvement target"

	default: // SuggestCurrent
		suggested := current - 2
		if suggested < currentMin {
			return currentMin, "keep current threshold (coverage near minimum)"
		}
		if suggested < 50 {
			suggested = 50
		}
		return domain.Round1(suggested), "based on current coverage (-2% buffer)"
	}
}
