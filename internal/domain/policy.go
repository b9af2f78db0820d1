package domain

import "math"

// RuleStat counts matcher activity for one grammar rule across an example
// run. A rule with at least one hit is covered.
type RuleStat struct {
	Attempts int `json:"attempts"`
	Hits     int `json:"hits"`
}

// Covered reports whether the rule matched at least once.
func (r RuleStat) Covered() bool { return r.Hits > 0 }

// CoverageStat summarizes covered vs total rules for a group.
type CoverageStat struct {
	Covered int
	Total   int
}

// Percent returns the coverage percentage as a raw float64.
func (c CoverageStat) Percent() float64 {
	if c.Total == 0 {
		return 0
	}
	return (float64(c.Covered) / float64(c.Total)) * 100
}

// PercentRounded returns the coverage percentage rounded to one decimal place.
func (c CoverageStat) PercentRounded() float64 {
	return Round1(c.Percent())
}

// Uncovered returns the number of rules that never matched.
func (c CoverageStat) Uncovered() int {
	return c.Total - c.Covered
}

// IsEmpty reports whether the group has no rules at all.
func (c CoverageStat) IsEmpty() bool {
	return c.Total == 0
}

// Group defines a named set of grammar rules and its coverage policy.
// Match patterns are globs over rule names.
type Group struct {
	Name  string
	Match []string
	Min   *float64
}

// MinThreshold returns the minimum coverage threshold for this group,
// falling back to the provided default if not explicitly set.
func (g Group) MinThreshold(defaultMin float64) float64 {
	if g.Min != nil {
		return *g.Min
	}
	return defaultMin
}

// Policy defines default and group-specific rule-coverage requirements.
type Policy struct {
	DefaultMin float64
	Groups     []Group
}

type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// GroupResult is the evaluation outcome for one rule group.
type GroupResult struct {
	Group    string   `json:"group"`
	Covered  int      `json:"covered"`
	Total    int      `json:"total"`
	Percent  float64  `json:"percent"`
	Required float64  `json:"required"`
	Status   Status   `json:"status"`
	Delta    *float64 `json:"delta,omitempty"`
}

// IsPassing reports whether this group meets its coverage requirement.
func (g GroupResult) IsPassing() bool { return g.Status == StatusPass }

// Shortfall returns how many percentage points below the requirement this
// group is, or 0 when passing.
func (g GroupResult) Shortfall() float64 {
	if g.Percent >= g.Required {
		return 0
	}
	return Round1(g.Required - g.Percent)
}

// Stat returns the coverage statistics behind this result.
func (g GroupResult) Stat() CoverageStat {
	return CoverageStat{Covered: g.Covered, Total: g.Total}
}

// ExampleResult is the verification outcome of one grammar example.
type ExampleResult struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Failure string `json:"failure,omitempty"`
}

// Result is the combined outcome of an example run: per-group coverage,
// per-example verification, and the overall verdict.
type Result struct {
	Groups   []GroupResult   `json:"groups"`
	Examples []ExampleResult `json:"examples,omitempty"`
	Passed   bool            `json:"passed"`
	Warnings []string        `json:"warnings,omitempty"`
}

// OverallPercent calculates rule coverage across all groups.
func (r Result) OverallPercent() float64 {
	var covered, total int
	for _, g := range r.Groups {
		covered += g.Covered
		total += g.Total
	}
	if total == 0 {
		return 0
	}
	return Round1(float64(covered) / float64(total) * 100)
}

// PassingGroupCount returns the number of groups that are passing.
func (r Result) PassingGroupCount() int {
	count := 0
	for _, g := range r.Groups {
		if g.IsPassing() {
			count++
		}
	}
	return count
}

// FailingGroups returns all groups below their requirement.
func (r Result) FailingGroups() []GroupResult {
	var failing []GroupResult
	for _, g := range r.Groups {
		if !g.IsPassing() {
			failing = append(failing, g)
		}
	}
	return failing
}

// FailingExampleCount returns the number of examples that failed.
func (r Result) FailingExampleCount() int {
	count := 0
	for _, e := range r.Examples {
		if e.Status == StatusFail {
			count++
		}
	}
	return count
}

// GroupByName returns the group result with the given name, or nil.
func (r Result) GroupByName(name string) *GroupResult {
	for i := range r.Groups {
		if r.Groups[i].Group == name {
			return &r.Groups[i]
		}
	}
	return nil
}

// ApplyDeltas sets per-group deltas computed against the latest history
// entry. Modifies the Result in place.
func (r *Result) ApplyDeltas(history History) {
	latest := history.LatestEntry()
	if latest == nil {
		return
	}
	for i := range r.Groups {
		if prev, ok := latest.Groups[r.Groups[i].Group]; ok {
			delta := Round1(r.Groups[i].Percent - prev.Percent)
			r.Groups[i].Delta = &delta
		}
	}
}

// Evaluate checks per-group coverage against the policy. Example failures
// are folded in separately by the caller.
func Evaluate(policy Policy, coverage map[string]CoverageStat) Result {
	results := make([]GroupResult, 0, len(policy.Groups))
	passed := true

	for _, g := range policy.Groups {
		stat := coverage[g.Name]
		required := g.MinThreshold(policy.DefaultMin)
		percent := stat.PercentRounded()
		status := StatusPass
		if percent < required {
			status = StatusFail
			passed = false
		}
		results = append(results, GroupResult{
			Group:    g.Name,
			Covered:  stat.Covered,
			Total:    stat.Total,
			Percent:  percent,
			Required: required,
			Status:   status,
		})
	}

	return Result{Groups: results, Passed: passed}
}

// Round1 rounds a float64 to one decimal place. Standard rounding for
// coverage percentages throughout.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
