package lexer

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a class of lexing failure.
type ErrorCode int

const (
	// ErrRuleNotFound means a rule name was referenced but never defined.
	ErrRuleNotFound ErrorCode = iota + 1
	// ErrMissingMatch means a rule defines neither a matcher nor candidates.
	ErrMissingMatch
	// ErrMissingAfter means a leaf rule has no after target.
	ErrMissingAfter
	// ErrLoop means group expansion revisited a rule already on the
	// expansion path.
	ErrLoop
	// ErrNoMatch means no candidate rule matched the input.
	ErrNoMatch
)

// String returns the stable name of the code, as used in grammar example
// expectations.
func (c ErrorCode) String() string {
	switch c {
	case ErrRuleNotFound:
		return "rule_not_found"
	case ErrMissingMatch:
		return "missing_match"
	case ErrMissingAfter:
		return "missing_after"
	case ErrLoop:
		return "loop"
	case ErrNoMatch:
		return "no_match"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Error reports a grammar or lexing failure. Rule is set for structural
// errors; Line and Pos (both 1-based) are set for ErrNoMatch.
type Error struct {
	Code ErrorCode
	Rule string
	Line int
	Pos  int
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrRuleNotFound:
		return fmt.Sprintf("rule %q not found", e.Rule)
	case ErrMissingMatch:
		return fmt.Sprintf("rule %q has no matcher or candidates", e.Rule)
	case ErrMissingAfter:
		return fmt.Sprintf("leaf rule %q has no after target", e.Rule)
	case ErrLoop:
		return fmt.Sprintf("loop detected in grammar at %q", e.Rule)
	case ErrNoMatch:
		return fmt.Sprintf("no rule matched input at line %d position %d", e.Line, e.Pos)
	default:
		return fmt.Sprintf("lexer error %d", int(e.Code))
	}
}

// CodeOf returns the ErrorCode carried by err, or 0 when err is not a
// lexer error.
func CodeOf(err error) ErrorCode {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Code
	}
	return 0
}
