package application

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/fluxid/minilex/internal/domain"
	"github.com/fluxid/minilex/internal/lexer"
)

type OutputFormat string

const (
	OutputText  OutputFormat = "text"
	OutputJSON  OutputFormat = "json"
	OutputBrief OutputFormat = "brief"
)

var ErrConfigNotFound = errors.New("config not found")

// Config represents validated, application-ready configuration.
type Config struct {
	Version int
	Grammar string // grammar file path, relative paths resolve against the config file
	Profile string // default rule-profile artifact path
	Policy  domain.Policy
	Exclude []string // rule-name globs excluded from coverage
}

// Example is a doctest-style input embedded in a grammar file: the input
// is lexed and the outcome verified against the recorded expectations.
type Example struct {
	Name   string
	Input  string
	Tokens []string // expected matched-rule sequence, in order (optional)
	// WantError names the lexer error code the input must produce
	// (for example "no_match"). Empty means the parse must succeed.
	WantError string
}

// Profile is the rule-coverage artifact written by a run and analyzed by
// report. Every leaf rule of the grammar appears, attempted or not.
type Profile struct {
	Version     int                        `json:"version"`
	Grammar     string                     `json:"grammar,omitempty"`
	GeneratedAt time.Time                  `json:"generatedAt"`
	Rules       map[string]domain.RuleStat `json:"rules"`
}

// Token is one matched rule occurrence in a tokenize run.
type Token struct {
	Rule string `json:"rule"`
	Line int    `json:"line"`
	Pos  int    `json:"pos"`
	Text string `json:"text"`
}

// FileTokens is the token stream produced for one input file.
type FileTokens struct {
	File   string  `json:"file"`
	Tokens []Token `json:"tokens"`
}

type ConfigLoader interface {
	Load(path string) (Config, error)
	Exists(path string) (bool, error)
}

// GrammarLoader reads a grammar definition file and compiles it.
type GrammarLoader interface {
	Load(path string) (*lexer.Grammar, []Example, error)
}

// Autodetector derives a starting configuration from a grammar file.
type Autodetector interface {
	Detect(grammarPath string) (Config, error)
}

// ExampleRunner executes grammar examples and gathers rule statistics.
type ExampleRunner interface {
	Run(ctx context.Context, g *lexer.Grammar, examples []Example) (map[string]domain.RuleStat, []domain.ExampleResult, error)
}

// ProfileStore reads and writes rule-profile artifacts.
type ProfileStore interface {
	Load(path string) (Profile, error)
	Write(path string, p Profile) error
}

type Reporter interface {
	Write(w io.Writer, result domain.Result, format OutputFormat) error
	WriteTokens(w io.Writer, files []FileTokens, format OutputFormat) error
}

type HistoryStore interface {
	Load() (domain.History, error)
	Save(h domain.History) error
	Append(entry domain.HistoryEntry) error
}

// FileWatcher provides file change notifications. Paths passed to Ignore
// are excluded from detection.
type FileWatcher interface {
	WatchDir(root string) error
	Ignore(paths ...string)
	Events(ctx context.Context) <-chan struct{}
	Close() error
}

// WatchCallback observes each watch-mode run.
type WatchCallback func(runNumber int, err error)

type CheckOptions struct {
	ConfigPath   string
	Grammar      string // overrides the configured grammar path
	Output       OutputFormat
	Profile      string // write the rule profile here when set
	Groups       []string
	HistoryStore HistoryStore // enables delta display when set
}

type RunOptions struct {
	ConfigPath string
	Grammar    string
	Profile    string
	Groups     []string
}

type ReportOptions struct {
	ConfigPath   string
	Profile      string
	Output       OutputFormat
	Groups       []string
	HistoryStore HistoryStore
}

type TokenizeOptions struct {
	ConfigPath string
	Grammar    string
	// Files are lexed in the order given, exactly as passed on the
	// command line.
	Files  []string
	Output OutputFormat
}

type ValidateOptions struct {
	ConfigPath string
	Grammar    string
}

// ValidateResult lists structural grammar issues; an empty list means the
// grammar is sound.
type ValidateResult struct {
	Grammar string        `json:"grammar"`
	Issues  []lexer.Issue `json:"issues,omitempty"`
}

type RecordOptions struct {
	ConfigPath  string
	ProfilePath string
	HistoryPath string
	Commit      string
	Branch      string
}

type TrendOptions struct {
	ConfigPath  string
	ProfilePath string
	HistoryPath string
	Output      OutputFormat
	Days        int // 0 = all entries
}

// TrendResult summarizes coverage movement against history.
type TrendResult struct {
	Current  float64                 `json:"current"`
	Previous float64                 `json:"previous"`
	Trend    domain.Trend            `json:"trend"`
	ByGroup  map[string]domain.Trend `json:"byGroup"`
	Entries  []domain.HistoryEntry   `json:"entries"`
}

type SuggestOptions struct {
	ConfigPath  string
	ProfilePath string
	Strategy    SuggestStrategy
}

type SuggestStrategy string

const (
	// SuggestCurrent suggests thresholds slightly below current coverage.
	SuggestCurrent SuggestStrategy = "current"
	// SuggestAggressive suggests higher thresholds to push for improvement.
	SuggestAggressive SuggestStrategy = "aggressive"
	// SuggestConservative suggests lower thresholds for gradual adoption.
	SuggestConservative SuggestStrategy = "conservative"
)

type Suggestion struct {
	Group          string
	CurrentPercent float64
	CurrentMin     float64
	SuggestedMin   float64
	Reason         string
}

// SuggestResult carries threshold suggestions and the updated config.
type SuggestResult struct {
	Suggestions []Suggestion
	Config      Config
}

type DebtOptions struct {
	ConfigPath  string
	ProfilePath string
	Output      OutputFormat
}

// DebtItem is one group below its required coverage.
type DebtItem struct {
	Group     string  `json:"group"`
	Current   float64 `json:"current"`
	Required  float64 `json:"required"`
	Shortfall float64 `json:"shortfall"`
	Rules     int     `json:"rules"` // uncovered rules in the group
}

// DebtResult is the overall coverage debt analysis.
type DebtResult struct {
	Items       []DebtItem `json:"items"`
	TotalDebt   float64    `json:"totalDebt"`
	TotalRules  int        `json:"totalRules"`
	HealthScore float64    `json:"healthScore"`
}

// WatchOptions configures watch mode behavior.
type WatchOptions struct {
	ConfigPath string
	Grammar    string
	Profile    string
	Groups     []string
}

type DetectOptions struct {
	Grammar string // explicit grammar path, empty searches the defaults
}

type BadgeOptions struct {
	ConfigPath  string
	ProfilePath string
	Output      string
	Label       string
	Style       string
}

// BadgeResult carries the overall coverage for badge rendering.
type BadgeResult struct {
	Percent float64
}
