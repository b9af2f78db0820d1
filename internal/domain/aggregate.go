package domain

import "path"

// AggregateByGroup buckets leaf rules into policy groups and computes
// per-group coverage. allRules is the full leaf-rule set of the grammar, so
// rules the run never attempted still count toward totals. Rules matching
// an exclude pattern are skipped entirely; a rule may land in several
// groups when patterns overlap.
func AggregateByGroup(stats map[string]RuleStat, allRules []string, groups []Group, exclude []string) map[string]CoverageStat {
	out := make(map[string]CoverageStat, len(groups))
	for _, rule := range allRules {
		if matchesAny(rule, exclude) {
			continue
		}
		covered := stats[rule].Covered()
		for _, g := range groups {
			if !matchesAny(rule, g.Match) {
				continue
			}
			agg := out[g.Name]
			agg.Total++
			if covered {
				agg.Covered++
			}
			out[g.Name] = agg
		}
	}
	return out
}

// GroupOverlapWarnings flags rules claimed by more than one group.
func GroupOverlapWarnings(allRules []string, groups []Group) []string {
	var warnings []string
	for _, rule := range allRules {
		var owners []string
		for _, g := range groups {
			if matchesAny(rule, g.Match) {
				owners = append(owners, g.Name)
			}
		}
		if len(owners) > 1 {
			warnings = append(warnings, "rule "+rule+" belongs to groups "+joinNames(owners))
		}
	}
	return warnings
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
