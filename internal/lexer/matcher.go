package lexer

import (
	"regexp"
	"strings"
)

// Match carries the outcome of a successful matcher attempt.
type Match struct {
	// Text is the exact input consumed by the matcher.
	Text string
	// Groups holds submatch texts for regex matchers, nil otherwise.
	// Index 0 is the full match.
	Groups []string
}

// Matcher attempts to recognize input in line starting at byte offset pos.
// Implementations report the position just past the consumed input and the
// match itself, or ok=false when nothing was recognized.
//
// A matcher receives the parser so it can consume additional lines or inspect
// position state. Matchers that advance the parser must leave restoration to
// the caller: the parser checkpoints before every attempt, and Any checkpoints
// around each alternative.
type Matcher interface {
	Match(p *Parser, line string, pos int) (end int, m Match, ok bool)
}

// Lit matches an exact string. With Fold set the comparison is
// case-insensitive (Unicode simple folding).
type Lit struct {
	Text string
	Fold bool
}

func (l Lit) Match(p *Parser, line string, pos int) (int, Match, bool) {
	end := pos + len(l.Text)
	if end > len(line) {
		return 0, Match{}, false
	}
	candidate := line[pos:end]
	if l.Fold {
		if !strings.EqualFold(candidate, l.Text) {
			return 0, Match{}, false
		}
	} else if candidate != l.Text {
		return 0, Match{}, false
	}
	return end, Match{Text: candidate}, true
}

// Regex matches a regular expression anchored at the current position.
// Use NewRegex or MustRegex to construct one.
type Regex struct {
	re *regexp.Regexp
}

// NewRegex compiles expr into an anchored matcher. With fold set the
// expression is compiled case-insensitively.
func NewRegex(expr string, fold bool) (Regex, error) {
	prefix := `\A(?:`
	if fold {
		prefix = `(?i)\A(?:`
	}
	re, err := regexp.Compile(prefix + expr + `)`)
	if err != nil {
		return Regex{}, err
	}
	return Regex{re: re}, nil
}

// MustRegex is NewRegex that panics on a bad expression. Intended for
// grammars built from literals in code.
func MustRegex(expr string, fold bool) Regex {
	re, err := NewRegex(expr, fold)
	if err != nil {
		panic(err)
	}
	return re
}

func (r Regex) Match(p *Parser, line string, pos int) (int, Match, bool) {
	idx := r.re.FindStringSubmatchIndex(line[pos:])
	if idx == nil {
		return 0, Match{}, false
	}
	groups := make([]string, 0, len(idx)/2)
	for i := 0; i < len(idx); i += 2 {
		if idx[i] < 0 {
			groups = append(groups, "")
			continue
		}
		groups = append(groups, line[pos+idx[i]:pos+idx[i+1]])
	}
	return pos + idx[1], Match{Text: groups[0], Groups: groups}, true
}

// Any tries its sub-matchers in order and yields the first success. The
// parser position is checkpointed before every attempt and rolled back on
// failure, so sub-matchers that consume lines before failing do not disturb
// later alternatives. On success the checkpoint stays on the stack; the
// parser purges it once the enclosing rule commits.
type Any []Matcher

func (a Any) Match(p *Parser, line string, pos int) (int, Match, bool) {
	for _, sub := range a {
		p.Checkpoint()
		if end, m, ok := sub.Match(p, line, pos); ok {
			return end, m, true
		}
		p.Rollback()
	}
	return 0, Match{}, false
}
