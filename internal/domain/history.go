package domain

import "time"

// HistoryEntry is a single rule-coverage measurement over time.
type HistoryEntry struct {
	Timestamp time.Time             `json:"timestamp"`
	Commit    string                `json:"commit,omitempty"`
	Branch    string                `json:"branch,omitempty"`
	Overall   float64               `json:"overall"`
	Groups    map[string]GroupEntry `json:"groups"`
}

// GroupEntry is the coverage of one rule group at a point in time.
type GroupEntry struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
	Min     float64 `json:"min"`
	Status  Status  `json:"status"`
}

// Trend is the direction and magnitude of a coverage change.
type Trend struct {
	Direction TrendDirection `json:"direction"`
	Delta     float64        `json:"delta"`
}

// TrendDirection indicates whether coverage is improving, declining, or stable.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// History contains all recorded coverage entries.
type History struct {
	Entries []HistoryEntry `json:"entries"`
}

// LatestEntry returns the most recent entry, or nil if empty.
func (h *History) LatestEntry() *HistoryEntry {
	if len(h.Entries) == 0 {
		return nil
	}
	latest := 0
	for i := 1; i < len(h.Entries); i++ {
		if h.Entries[i].Timestamp.After(h.Entries[latest].Timestamp) {
			latest = i
		}
	}
	return &h.Entries[latest]
}

// EntriesAfter returns all entries recorded after t.
func (h *History) EntriesAfter(t time.Time) []HistoryEntry {
	var out []HistoryEntry
	for _, e := range h.Entries {
		if e.Timestamp.After(t) {
			out = append(out, e)
		}
	}
	return out
}

// CalculateTrend computes the trend between two coverage values. Moves
// within half a percentage point count as stable.
func CalculateTrend(previous, current float64) Trend {
	delta := current - previous
	direction := TrendStable
	switch {
	case delta > 0.5:
		direction = TrendUp
	case delta < -0.5:
		direction = TrendDown
	}
	return Trend{Direction: direction, Delta: Round1(delta)}
}

// EntryFromResult converts an evaluation result into a history entry.
func EntryFromResult(result Result, commit, branch string, now time.Time) HistoryEntry {
	groups := make(map[string]GroupEntry, len(result.Groups))
	for _, g := range result.Groups {
		groups[g.Group] = GroupEntry{
			Name:    g.Group,
			Percent: g.Percent,
			Min:     g.Required,
			Status:  g.Status,
		}
	}
	return HistoryEntry{
		Timestamp: now,
		Commit:    commit,
		Branch:    branch,
		Overall:   result.OverallPercent(),
		Groups:    groups,
	}
}
