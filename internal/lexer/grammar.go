package lexer

import "sort"

// Rule is a single grammar entry. Exactly one of Match or Try must be set:
// a Matcher makes a leaf rule, a candidate list makes a group rule whose
// members are tried in order.
type Rule struct {
	// Match recognizes input for a leaf rule.
	Match Matcher
	// Try lists candidate rule names for a group rule.
	Try []string

	// After names the rule to continue with once this leaf matched.
	// AfterFunc, when set, computes the target instead.
	After     string
	AfterFunc func(p *Parser) string

	// OnMatch runs after a successful match, before the parser advances.
	OnMatch func(p *Parser)
	// OnFail runs after a failed attempt, once position is restored.
	OnFail func(p *Parser)
}

// leaf reports whether the rule recognizes input itself.
func (r *Rule) leaf() bool { return r.Match != nil }

// Grammar is a named rule set with a designated start rule.
type Grammar struct {
	Start string
	Rules map[string]*Rule
}

// LeafRules returns the sorted names of all leaf rules. Coverage totals are
// computed over this set.
func (g *Grammar) LeafRules() []string {
	names := make([]string, 0, len(g.Rules))
	for name, rule := range g.Rules {
		if rule != nil && rule.leaf() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Issue describes a structural problem found by Check.
type Issue struct {
	Rule    string
	Message string
}

// Check validates the grammar statically: the start rule and every
// referenced rule must exist, every rule needs a matcher or candidates,
// leaf rules need an after target, and rules unreachable from the start are
// flagged. After targets named only by AfterFunc values cannot be checked.
func (g *Grammar) Check() []Issue {
	var issues []Issue
	if g.Start == "" {
		issues = append(issues, Issue{Message: "grammar has no start rule"})
	} else if _, ok := g.Rules[g.Start]; !ok {
		issues = append(issues, Issue{Rule: g.Start, Message: "start rule not defined"})
	}

	names := make([]string, 0, len(g.Rules))
	for name := range g.Rules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rule := g.Rules[name]
		switch {
		case rule == nil || (rule.Match == nil && rule.Try == nil):
			issues = append(issues, Issue{Rule: name, Message: "no matcher or candidates"})
		case rule.Match != nil && rule.Try != nil:
			issues = append(issues, Issue{Rule: name, Message: "both matcher and candidates set"})
		case rule.leaf() && rule.After == "" && rule.AfterFunc == nil:
			issues = append(issues, Issue{Rule: name, Message: "leaf rule has no after target"})
		}
		if rule == nil {
			continue
		}
		for _, ref := range rule.Try {
			if _, ok := g.Rules[ref]; !ok {
				issues = append(issues, Issue{Rule: name, Message: "candidate " + ref + " not defined"})
			}
		}
		if rule.leaf() && rule.After != "" && rule.AfterFunc == nil {
			if _, ok := g.Rules[rule.After]; !ok {
				issues = append(issues, Issue{Rule: name, Message: "after target " + rule.After + " not defined"})
			}
		}
	}

	for _, name := range g.unreachable() {
		issues = append(issues, Issue{Rule: name, Message: "unreachable from start"})
	}
	return issues
}

// unreachable returns rule names that no chain of candidates or after
// targets reaches from the start rule. Rules reached only through AfterFunc
// results are reported too, since those targets are opaque.
func (g *Grammar) unreachable() []string {
	seen := make(map[string]bool, len(g.Rules))
	queue := []string{g.Start}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		rule := g.Rules[name]
		if rule == nil {
			continue
		}
		queue = append(queue, rule.Try...)
		if rule.After != "" {
			queue = append(queue, rule.After)
		}
	}
	var missing []string
	for name := range g.Rules {
		if !seen[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
