package lexer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// RuleStat counts matcher activity for one leaf rule during a parse.
type RuleStat struct {
	Attempts int
	Hits     int
}

// Option configures a Parser.
type Option func(*Parser)

// WithKeepNewline re-appends "\n" to every cached line after splitting, so
// grammars can match explicit line endings. Without it a blank input line
// ends the parse, matching the original engine.
func WithKeepNewline() Option {
	return func(p *Parser) { p.keepNewline = true }
}

// WithOnToken installs a callback invoked for every matched leaf rule.
func WithOnToken(fn func(rule string, m Match)) Option {
	return func(p *Parser) { p.onToken = fn }
}

// WithOnBadToken replaces the default unmatched-input handler. The returned
// error (which may be nil to swallow the failure) ends the parse.
func WithOnBadToken(fn func(p *Parser) error) Option {
	return func(p *Parser) { p.onBadToken = fn }
}

// Parser walks input line by line, trying candidate rules from the grammar
// and backtracking over a checkpoint stack. A Parser is single-use: create
// one per input.
type Parser struct {
	grammar     *Grammar
	keepNewline bool

	readline  func() string
	lineCache []string
	nextLine  int
	marks     []mark

	iter   *ruleIter
	line   string
	lineno int
	pos    int

	onToken    func(rule string, m Match)
	onBadToken func(p *Parser) error

	stats map[string]RuleStat
}

type mark struct {
	nextLine int
	lineno   int
	pos      int
	line     string
}

// NewParser creates a parser for the grammar.
func NewParser(g *Grammar, opts ...Option) *Parser {
	p := &Parser{
		grammar: g,
		stats:   make(map[string]RuleStat),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.resetIter(g.Start)
	return p
}

// Line returns the line currently being matched.
func (p *Parser) Line() string { return p.line }

// LineNo returns the 1-based number of the current line.
func (p *Parser) LineNo() int { return p.lineno }

// Pos returns the byte offset of the next unmatched input in the current line.
func (p *Parser) Pos() int { return p.pos }

// Profile returns per-rule attempt and hit counts gathered so far. Leaf
// rules the parse never attempted are absent.
func (p *Parser) Profile() map[string]RuleStat {
	out := make(map[string]RuleStat, len(p.stats))
	for name, stat := range p.stats {
		out[name] = stat
	}
	return out
}

// ParseReader consumes r until EOF.
func (p *Parser) ParseReader(r io.Reader) error {
	br := bufio.NewReader(r)
	return p.parse(func() string {
		chunk, err := br.ReadString('\n')
		if err != nil && chunk == "" {
			return ""
		}
		return chunk
	})
}

// ParseLines consumes the given lines in order.
func (p *Parser) ParseLines(lines []string) error {
	next := 0
	return p.parse(func() string {
		if next >= len(lines) {
			return ""
		}
		line := lines[next]
		next++
		return line
	})
}

// Finish reports whether the parse consumed all buffered input. Call it
// after ParseReader or ParseLines returns nil.
func (p *Parser) Finish() error {
	if p.pos < len(p.line) {
		return fmt.Errorf("unconsumed input at line %d position %d", p.lineno, p.pos+1)
	}
	if p.nextLine < len(p.lineCache) {
		return fmt.Errorf("unconsumed input after line %d", p.lineno)
	}
	return nil
}

// Checkpoint saves the current input position on the backtracking stack.
func (p *Parser) Checkpoint() {
	p.marks = append(p.marks, mark{
		nextLine: p.nextLine,
		lineno:   p.lineno,
		pos:      p.pos,
		line:     p.line,
	})
}

// Rollback restores the most recent checkpoint and removes it.
func (p *Parser) Rollback() {
	if n := len(p.marks); n > 0 {
		m := p.marks[n-1]
		p.marks = p.marks[:n-1]
		p.nextLine = m.nextLine
		p.lineno = m.lineno
		p.pos = m.pos
		p.line = m.line
	}
}

// Discard removes the most recent checkpoint without restoring it.
func (p *Parser) Discard() {
	if n := len(p.marks); n > 0 {
		p.marks = p.marks[:n-1]
	}
}

// purge clears the checkpoint stack and drops cache lines the parse has
// committed past. Runs after every accepted match.
func (p *Parser) purge() {
	p.marks = p.marks[:0]
	if p.nextLine > 0 {
		p.lineCache = p.lineCache[p.nextLine:]
		p.nextLine = 0
	}
}

// advance moves to the next cached line, pulling from the source when the
// cache is exhausted. It returns the new current line; an empty return ends
// the parse (end of input, or a blank line without WithKeepNewline).
func (p *Parser) advance() string {
	if p.nextLine >= len(p.lineCache) && p.readline != nil {
		chunk := p.readline()
		if chunk != "" {
			split := splitLines(chunk)
			if p.keepNewline {
				for i := range split {
					split[i] += "\n"
				}
			}
			p.lineCache = append(p.lineCache, split...)
		} else {
			p.readline = nil
		}
	}
	if p.nextLine < len(p.lineCache) {
		line := p.lineCache[p.nextLine]
		p.nextLine++
		p.lineno++
		p.pos = 0
		p.line = line
		return line
	}
	return ""
}

func splitLines(chunk string) []string {
	chunk = strings.ReplaceAll(chunk, "\r\n", "\n")
	chunk = strings.TrimSuffix(chunk, "\n")
	return strings.Split(chunk, "\n")
}

func (p *Parser) resetIter(start string) {
	p.iter = newRuleIter(p.grammar, start)
}

func (p *Parser) badToken() error {
	if p.onBadToken != nil {
		return p.onBadToken(p)
	}
	return &Error{Code: ErrNoMatch, Line: p.lineno, Pos: p.pos + 1}
}

func (p *Parser) parse(readline func() string) error {
	p.readline = readline
	return p.run()
}

func (p *Parser) run() error {
	for {
		if p.pos >= len(p.line) && p.advance() == "" {
			return nil
		}

		name, rule, ok, err := p.iter.next()
		if err != nil {
			return err
		}
		if !ok {
			return p.badToken()
		}

		p.Checkpoint()

		stat := p.stats[name]
		stat.Attempts++

		end, m, matched := rule.Match.Match(p, p.line, p.pos)
		if !matched {
			p.stats[name] = stat
			p.Rollback()
			if rule.OnFail != nil {
				rule.OnFail(p)
			}
			continue
		}

		stat.Hits++
		p.stats[name] = stat

		if p.onToken != nil {
			p.onToken(name, m)
		}
		if rule.OnMatch != nil {
			rule.OnMatch(p)
		}

		after := rule.After
		if rule.AfterFunc != nil {
			after = rule.AfterFunc(p)
		}

		p.pos = end
		p.resetIter(after)
		p.purge()
	}
}

// ruleIter lazily expands group rules depth-first into a stream of leaf
// rules. Structural errors surface during iteration, so only the parts of
// the grammar a parse actually reaches are checked.
type ruleIter struct {
	g       *Grammar
	names   []string
	idx     int
	stack   []iterFrame
	onpath  map[string]struct{}
	visited map[string]struct{}
}

type iterFrame struct {
	name  string
	names []string
	idx   int
}

func newRuleIter(g *Grammar, start string) *ruleIter {
	return &ruleIter{
		g:       g,
		names:   []string{start},
		onpath:  make(map[string]struct{}),
		visited: make(map[string]struct{}),
	}
}

func (it *ruleIter) next() (string, *Rule, bool, error) {
	for {
		if it.idx >= len(it.names) {
			if len(it.stack) == 0 {
				return "", nil, false, nil
			}
			top := it.stack[len(it.stack)-1]
			it.stack = it.stack[:len(it.stack)-1]
			delete(it.onpath, top.name)
			it.names = top.names
			it.idx = top.idx
			continue
		}

		name := it.names[it.idx]
		it.idx++

		rule, found := it.g.Rules[name]
		if !found || rule == nil {
			return "", nil, false, &Error{Code: ErrRuleNotFound, Rule: name}
		}
		if rule.Match == nil && rule.Try == nil {
			return "", nil, false, &Error{Code: ErrMissingMatch, Rule: name}
		}

		if rule.leaf() {
			if rule.After == "" && rule.AfterFunc == nil {
				return "", nil, false, &Error{Code: ErrMissingAfter, Rule: name}
			}
			return name, rule, true, nil
		}

		// Group rule: expand its candidates in place.
		if _, on := it.onpath[name]; on {
			return "", nil, false, &Error{Code: ErrLoop, Rule: name}
		}
		if _, seen := it.visited[name]; seen {
			// Already expanded elsewhere; redundant, not an error.
			continue
		}
		it.onpath[name] = struct{}{}
		it.visited[name] = struct{}{}
		it.stack = append(it.stack, iterFrame{name: name, names: it.names, idx: it.idx})
		it.names = rule.Try
		it.idx = 0
	}
}
