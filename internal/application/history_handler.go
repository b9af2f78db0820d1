package application

import (
	"context"
	"time"

	"github.com/fluxid/minilex/internal/domain"
)

// Record evaluates the current rule profile and appends the outcome to
// coverage history.
func (s *Service) Record(ctx context.Context, opts RecordOptions, store HistoryStore) error {
	result, err := s.ReportResult(ctx, ReportOptions{
		ConfigPath: opts.ConfigPath,
		Profile:    opts.ProfilePath,
	})
	if err != nil {
		return err
	}

	entry := domain.EntryFromResult(result, opts.Commit, opts.Branch, time.Now().UTC())
	return store.Append(entry)
}

// Trend compares the current rule profile against recorded history.
func (s *Service) Trend(ctx context.Context, opts TrendOptions, store HistoryStore) (TrendResult, error) {
	result, err := s.ReportResult(ctx, ReportOptions{
		ConfigPath: opts.ConfigPath,
		Profile:    opts.ProfilePath,
	})
	if err != nil {
		return TrendResult{}, err
	}

	history, err := store.Load()
	if err != nil {
		return TrendResult{}, err
	}

	entries := history.Entries
	if opts.Days > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -opts.Days)
		entries = history.EntriesAfter(cutoff)
	}

	current := result.OverallPercent()
	out := TrendResult{
		Current: current,
		Trend:   domain.Trend{Direction: domain.TrendStable},
		ByGroup: make(map[string]domain.Trend),
		Entries: entries,
	}

	latest := history.LatestEntry()
	if latest == nil {
		return out, nil
	}

	out.Previous = latest.Overall
	out.Trend = domain.CalculateTrend(latest.Overall, current)
	for _, g := range result.Groups {
		prev, ok := latest.Groups[g.Group]
		if !ok {
			continue
		}
		out.ByGroup[g.Group] = domain.CalculateTrend(prev.Percent, g.Percent)
	}
	return out, nil
}
