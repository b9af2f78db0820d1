package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fluxid/minilex/internal/domain"
	"github.com/fluxid/minilex/internal/lexer"
)

type fakeConfigLoader struct {
	exists    bool
	cfg       Config
	existsErr error
	loadErr   error
}

func (f fakeConfigLoader) Exists(path string) (bool, error) { return f.exists, f.existsErr }
func (f fakeConfigLoader) Load(path string) (Config, error) { return f.cfg, f.loadErr }

type fakeAutodetector struct {
	cfg Config
	err error
}

func (f fakeAutodetector) Detect(grammarPath string) (Config, error) { return f.cfg, f.err }

type fakeGrammarLoader struct {
	grammar  *lexer.Grammar
	examples []Example
	err      error
	path     string
}

func (f *fakeGrammarLoader) Load(path string) (*lexer.Grammar, []Example, error) {
	f.path = path
	return f.grammar, f.examples, f.err
}

type fakeRunner struct {
	stats   map[string]domain.RuleStat
	results []domain.ExampleResult
	err     error
}

func (f fakeRunner) Run(ctx context.Context, g *lexer.Grammar, examples []Example) (map[string]domain.RuleStat, []domain.ExampleResult, error) {
	return f.stats, f.results, f.err
}

type fakeProfileStore struct {
	profile  Profile
	loadErr  error
	written  Profile
	path     string
	writeErr error
}

func (f *fakeProfileStore) Load(path string) (Profile, error) { return f.profile, f.loadErr }
func (f *fakeProfileStore) Write(path string, p Profile) error {
	f.path = path
	f.written = p
	return f.writeErr
}

type fakeReporter struct {
	last      domain.Result
	lastFiles []FileTokens
	err       error
}

func (f *fakeReporter) Write(w io.Writer, result domain.Result, format OutputFormat) error {
	f.last = result
	return f.err
}

func (f *fakeReporter) WriteTokens(w io.Writer, files []FileTokens, format OutputFormat) error {
	f.lastFiles = files
	return f.err
}

type fakeHistoryStore struct {
	history   domain.History
	loadErr   error
	appended  []domain.HistoryEntry
	appendErr error
}

func (f *fakeHistoryStore) Load() (domain.History, error) { return f.history, f.loadErr }
func (f *fakeHistoryStore) Save(h domain.History) error   { return nil }
func (f *fakeHistoryStore) Append(e domain.HistoryEntry) error {
	f.appended = append(f.appended, e)
	return f.appendErr
}

type fakeWatcher struct {
	dirs    []string
	ignored []string
	events  chan struct{}
	err     error
}

func (f *fakeWatcher) WatchDir(root string) error                 { f.dirs = append(f.dirs, root); return f.err }
func (f *fakeWatcher) Ignore(paths ...string)                     { f.ignored = append(f.ignored, paths...) }
func (f *fakeWatcher) Events(ctx context.Context) <-chan struct{} { return f.events }
func (f *fakeWatcher) Close() error                               { return nil }

func testConfig() Config {
	kwMin := 80.0
	return Config{
		Version: 1,
		Grammar: "grammar.yaml",
		Profile: ".minilex/rules.json",
		Policy: domain.Policy{
			DefaultMin: 80,
			Groups: []domain.Group{
				{Name: "keywords", Match: []string{"kw_*"}, Min: &kwMin},
				{Name: "operators", Match: []string{"op_*"}},
			},
		},
	}
}

func testGrammar() *lexer.Grammar {
	return &lexer.Grammar{
		Start: "begin",
		Rules: map[string]*lexer.Rule{
			"begin":   {Try: []string{"kw_if", "op_plus"}},
			"kw_if":   {Match: lexer.Lit{Text: "if"}, After: "begin"},
			"op_plus": {Match: lexer.Lit{Text: "+"}, After: "begin"},
		},
	}
}

func testService(cfg Config) (*Service, *fakeProfileStore, *fakeReporter) {
	store := &fakeProfileStore{}
	reporter := &fakeReporter{}
	svc := &Service{
		ConfigLoader:  fakeConfigLoader{exists: true, cfg: cfg},
		Autodetector:  fakeAutodetector{},
		GrammarLoader: &fakeGrammarLoader{grammar: testGrammar()},
		Runner: fakeRunner{stats: map[string]domain.RuleStat{
			"kw_if":   {Attempts: 2, Hits: 1},
			"op_plus": {Attempts: 1, Hits: 1},
		}},
		ProfileStore: store,
		Reporter:     reporter,
		Out:          io.Discard,
	}
	return svc, store, reporter
}

func TestServiceCheckPass(t *testing.T) {
	svc, store, reporter := testService(testConfig())

	if err := svc.Check(context.Background(), CheckOptions{ConfigPath: ".minilex.yaml", Output: OutputText}); err != nil {
		t.Fatalf("check: %v", err)
	}
	if !reporter.last.Passed {
		t.Fatalf("expected pass, got %+v", reporter.last)
	}
	if store.path != filepath.Join(".minilex", "rules.json") {
		t.Fatalf("profile path = %q", store.path)
	}
}

func TestServiceCheckPolicyViolation(t *testing.T) {
	svc, _, reporter := testService(testConfig())
	svc.Runner = fakeRunner{stats: map[string]domain.RuleStat{
		"kw_if":   {Attempts: 2, Hits: 1},
		"op_plus": {Attempts: 1, Hits: 0},
	}}

	err := svc.Check(context.Background(), CheckOptions{ConfigPath: ".minilex.yaml"})
	if err == nil || !strings.Contains(err.Error(), "policy violation") {
		t.Fatalf("expected policy violation, got %v", err)
	}
	if reporter.last.Passed {
		t.Fatalf("expected fail")
	}
}

func TestServiceCheckFailedExampleFailsCheck(t *testing.T) {
	svc, _, reporter := testService(testConfig())
	svc.Runner = fakeRunner{
		stats: map[string]domain.RuleStat{
			"kw_if":   {Attempts: 1, Hits: 1},
			"op_plus": {Attempts: 1, Hits: 1},
		},
		results: []domain.ExampleResult{
			{Name: "good", Status: domain.StatusPass},
			{Name: "bad", Status: domain.StatusFail, Failure: "token mismatch"},
		},
	}

	if err := svc.Check(context.Background(), CheckOptions{ConfigPath: ".minilex.yaml"}); err == nil {
		t.Fatalf("expected error")
	}
	if reporter.last.Passed {
		t.Fatalf("coverage passes but the failed example must fail the check")
	}
	if got := reporter.last.FailingExampleCount(); got != 1 {
		t.Fatalf("failing examples = %d, want 1", got)
	}
}

func TestServiceCheckZeroFillsUnattemptedRules(t *testing.T) {
	svc, store, _ := testService(testConfig())
	svc.Runner = fakeRunner{stats: map[string]domain.RuleStat{
		"kw_if": {Attempts: 1, Hits: 1},
	}}

	result, err := svc.CheckResult(context.Background(), CheckOptions{ConfigPath: ".minilex.yaml"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	if _, ok := store.written.Rules["op_plus"]; !ok {
		t.Fatalf("profile missing never-attempted rule: %v", store.written.Rules)
	}
	ops := result.GroupByName("operators")
	if ops == nil || ops.Total != 1 || ops.Covered != 0 {
		t.Fatalf("operators = %+v, want 0/1", ops)
	}
	if ops.IsPassing() {
		t.Fatalf("0%% coverage must fail the group")
	}
}

func TestServiceCheckGroupFilter(t *testing.T) {
	svc, _, _ := testService(testConfig())

	result, err := svc.CheckResult(context.Background(), CheckOptions{ConfigPath: ".minilex.yaml", Groups: []string{"keywords"}})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(result.Groups) != 1 || result.Groups[0].Group != "keywords" {
		t.Fatalf("groups = %+v", result.Groups)
	}

	if _, err := svc.CheckResult(context.Background(), CheckOptions{ConfigPath: ".minilex.yaml", Groups: []string{"ghost"}}); err == nil || !strings.Contains(err.Error(), "no matching groups") {
		t.Fatalf("expected no matching groups error, got %v", err)
	}
}

func TestServiceCheckAutodetectsWhenConfigMissing(t *testing.T) {
	svc, _, reporter := testService(testConfig())
	svc.ConfigLoader = fakeConfigLoader{exists: false}
	svc.Autodetector = fakeAutodetector{cfg: testConfig()}

	if err := svc.Check(context.Background(), CheckOptions{ConfigPath: ".minilex.yaml"}); err != nil {
		t.Fatalf("check: %v", err)
	}
	if !reporter.last.Passed {
		t.Fatalf("expected pass with detected config")
	}
}

func TestServiceCheckNoGroupsConfigured(t *testing.T) {
	svc, _, _ := testService(Config{Grammar: "grammar.yaml"})

	_, err := svc.CheckResult(context.Background(), CheckOptions{ConfigPath: ".minilex.yaml"})
	if err == nil || !strings.Contains(err.Error(), "no groups configured") {
		t.Fatalf("expected no groups configured, got %v", err)
	}
}

func TestServiceCheckDeltas(t *testing.T) {
	svc, _, _ := testService(testConfig())
	history := &fakeHistoryStore{history: domain.History{Entries: []domain.HistoryEntry{{
		Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Overall:   75,
		Groups:    map[string]domain.GroupEntry{"keywords": {Name: "keywords", Percent: 75}},
	}}}}

	result, err := svc.CheckResult(context.Background(), CheckOptions{ConfigPath: ".minilex.yaml", HistoryStore: history})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	kw := result.GroupByName("keywords")
	if kw == nil || kw.Delta == nil {
		t.Fatalf("expected delta on keywords, got %+v", kw)
	}
	if *kw.Delta != 25 {
		t.Fatalf("delta = %v, want 25", *kw.Delta)
	}
}

func TestServiceRun(t *testing.T) {
	svc, store, _ := testService(testConfig())

	if err := svc.Run(context.Background(), RunOptions{ConfigPath: ".minilex.yaml"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.written.Rules) != 2 {
		t.Fatalf("profile rules = %v", store.written.Rules)
	}
	if store.written.Version != 1 {
		t.Fatalf("profile version = %d", store.written.Version)
	}
}

func TestServiceRunExampleFailures(t *testing.T) {
	svc, _, _ := testService(testConfig())
	svc.Runner = fakeRunner{
		stats: map[string]domain.RuleStat{},
		results: []domain.ExampleResult{
			{Name: "a", Status: domain.StatusPass},
			{Name: "b", Status: domain.StatusFail},
		},
	}

	err := svc.Run(context.Background(), RunOptions{ConfigPath: ".minilex.yaml"})
	if err == nil || !strings.Contains(err.Error(), "1 of 2 examples failed") {
		t.Fatalf("got %v", err)
	}
}

func TestServiceReportResult(t *testing.T) {
	svc, store, _ := testService(testConfig())
	store.profile = Profile{
		Version: 1,
		Rules: map[string]domain.RuleStat{
			"kw_if":   {Attempts: 2, Hits: 2},
			"op_plus": {Attempts: 1, Hits: 0},
		},
	}

	result, err := svc.ReportResult(context.Background(), ReportOptions{ConfigPath: ".minilex.yaml"})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if result.Passed {
		t.Fatalf("op_plus uncovered, expected fail")
	}
	kw := result.GroupByName("keywords")
	if kw == nil || kw.Percent != 100 {
		t.Fatalf("keywords = %+v", kw)
	}
}

func TestServiceReportNoProfileConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Profile = ""
	svc, _, _ := testService(cfg)

	_, err := svc.ReportResult(context.Background(), ReportOptions{ConfigPath: ".minilex.yaml"})
	if err == nil || !strings.Contains(err.Error(), "no profile path configured") {
		t.Fatalf("got %v", err)
	}
}

func TestServiceTokenize(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(file, []byte("if+"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	svc, _, _ := testService(testConfig())
	files, err := svc.TokenizeResult(context.Background(), TokenizeOptions{ConfigPath: ".minilex.yaml", Files: []string{file}})
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if len(files) != 1 || files[0].File != file {
		t.Fatalf("files = %+v", files)
	}
	tokens := files[0].Tokens
	if len(tokens) != 2 {
		t.Fatalf("tokens = %+v", tokens)
	}
	want := []Token{
		{Rule: "kw_if", Line: 1, Pos: 1, Text: "if"},
		{Rule: "op_plus", Line: 1, Pos: 3, Text: "+"},
	}
	for i, w := range want {
		if tokens[i] != w {
			t.Fatalf("token %d = %+v, want %+v", i, tokens[i], w)
		}
	}
}

func TestServiceTokenizeGrammarOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(file, []byte("if"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	svc, _, _ := testService(testConfig())
	loader := &fakeGrammarLoader{grammar: testGrammar()}
	svc.GrammarLoader = loader
	svc.ConfigLoader = fakeConfigLoader{loadErr: errors.New("config must not be read")}

	if _, err := svc.TokenizeResult(context.Background(), TokenizeOptions{Grammar: "other.yaml", Files: []string{file}}); err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if loader.path != "other.yaml" {
		t.Fatalf("grammar path = %q", loader.path)
	}
}

func TestServiceTokenizeWritesThroughReporter(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(file, []byte("if"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	svc, _, reporter := testService(testConfig())
	if err := svc.Tokenize(context.Background(), TokenizeOptions{ConfigPath: ".minilex.yaml", Files: []string{file}}); err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if len(reporter.lastFiles) != 1 || reporter.lastFiles[0].File != file {
		t.Fatalf("reporter got %+v", reporter.lastFiles)
	}
}

func TestServiceTokenizeReporterError(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(file, []byte("if"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	svc, _, reporter := testService(testConfig())
	reporter.err = errors.New("render failed")
	err := svc.Tokenize(context.Background(), TokenizeOptions{ConfigPath: ".minilex.yaml", Files: []string{file}})
	if err == nil || !strings.Contains(err.Error(), "render failed") {
		t.Fatalf("got %v", err)
	}
}

func TestServiceTokenizeMissingFile(t *testing.T) {
	svc, _, _ := testService(testConfig())

	_, err := svc.TokenizeResult(context.Background(), TokenizeOptions{ConfigPath: ".minilex.yaml", Files: []string{"nope.txt"}})
	if err == nil || !strings.Contains(err.Error(), "nope.txt") {
		t.Fatalf("got %v", err)
	}
}

func TestServiceValidate(t *testing.T) {
	svc, _, _ := testService(testConfig())

	result, err := svc.Validate(context.Background(), ValidateOptions{ConfigPath: ".minilex.yaml"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(result.Issues) != 0 {
		t.Fatalf("sound grammar, got issues %+v", result.Issues)
	}

	g := testGrammar()
	g.Rules["stray"] = &lexer.Rule{Match: lexer.Lit{Text: "x"}, After: "begin"}
	svc.GrammarLoader = &fakeGrammarLoader{grammar: g}

	result, err = svc.Validate(context.Background(), ValidateOptions{Grammar: "grammar.yaml"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(result.Issues) == 0 {
		t.Fatalf("expected unreachable-rule issue")
	}
}

func TestServiceRecord(t *testing.T) {
	svc, store, _ := testService(testConfig())
	store.profile = Profile{Rules: map[string]domain.RuleStat{
		"kw_if":   {Attempts: 1, Hits: 1},
		"op_plus": {Attempts: 1, Hits: 1},
	}}
	history := &fakeHistoryStore{}

	if err := svc.Record(context.Background(), RecordOptions{ConfigPath: ".minilex.yaml", Commit: "abc1234", Branch: "main"}, history); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(history.appended) != 1 {
		t.Fatalf("appended = %d entries", len(history.appended))
	}
	entry := history.appended[0]
	if entry.Overall != 100 || entry.Commit != "abc1234" || entry.Branch != "main" {
		t.Fatalf("entry = %+v", entry)
	}
	if _, ok := entry.Groups["keywords"]; !ok {
		t.Fatalf("entry missing group snapshot: %+v", entry.Groups)
	}
}

func TestServiceTrend(t *testing.T) {
	svc, store, _ := testService(testConfig())
	store.profile = Profile{Rules: map[string]domain.RuleStat{
		"kw_if":   {Attempts: 1, Hits: 1},
		"op_plus": {Attempts: 1, Hits: 1},
	}}
	history := &fakeHistoryStore{history: domain.History{Entries: []domain.HistoryEntry{{
		Timestamp: time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
		Overall:   90,
		Groups:    map[string]domain.GroupEntry{"keywords": {Name: "keywords", Percent: 90}},
	}}}}

	result, err := svc.Trend(context.Background(), TrendOptions{ConfigPath: ".minilex.yaml"}, history)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if result.Current != 100 || result.Previous != 90 {
		t.Fatalf("current/previous = %v/%v", result.Current, result.Previous)
	}
	if result.Trend.Direction != domain.TrendUp || result.Trend.Delta != 10 {
		t.Fatalf("trend = %+v", result.Trend)
	}
	kw, ok := result.ByGroup["keywords"]
	if !ok || kw.Direction != domain.TrendUp {
		t.Fatalf("by group = %+v", result.ByGroup)
	}
}

func TestServiceTrendEmptyHistory(t *testing.T) {
	svc, store, _ := testService(testConfig())
	store.profile = Profile{Rules: map[string]domain.RuleStat{
		"kw_if":   {Attempts: 1, Hits: 1},
		"op_plus": {Attempts: 1, Hits: 1},
	}}

	result, err := svc.Trend(context.Background(), TrendOptions{ConfigPath: ".minilex.yaml"}, &fakeHistoryStore{})
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if result.Trend.Direction != domain.TrendStable {
		t.Fatalf("trend with no history = %+v", result.Trend)
	}
}

func TestServiceTrendDaysFilter(t *testing.T) {
	svc, store, _ := testService(testConfig())
	store.profile = Profile{Rules: map[string]domain.RuleStat{
		"kw_if":   {Attempts: 1, Hits: 1},
		"op_plus": {Attempts: 1, Hits: 1},
	}}
	now := time.Now().UTC()
	history := &fakeHistoryStore{history: domain.History{Entries: []domain.HistoryEntry{
		{Timestamp: now.AddDate(0, 0, -30), Overall: 70},
		{Timestamp: now.Add(-time.Hour), Overall: 95},
	}}}

	result, err := svc.Trend(context.Background(), TrendOptions{ConfigPath: ".minilex.yaml", Days: 7}, history)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("entries = %d, want only the recent one", len(result.Entries))
	}
}

func TestServiceSuggest(t *testing.T) {
	svc, store, _ := testService(testConfig())
	store.profile = Profile{Rules: map[string]domain.RuleStat{
		"kw_if":   {Attempts: 1, Hits: 1},
		"op_plus": {Attempts: 1, Hits: 0},
	}}

	result, err := svc.Suggest(context.Background(), SuggestOptions{ConfigPath: ".minilex.yaml", Strategy: SuggestCurrent})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(result.Suggestions) != 2 {
		t.Fatalf("suggestions = %+v", result.Suggestions)
	}

	kw := result.Suggestions[0]
	if kw.Group != "keywords" || kw.CurrentPercent != 100 || kw.SuggestedMin != 98 {
		t.Fatalf("keywords suggestion = %+v", kw)
	}
	ops := result.Suggestions[1]
	if ops.SuggestedMin != 80 {
		t.Fatalf("operators below minimum must keep the threshold, got %+v", ops)
	}

	for i, g := range result.Config.Policy.Groups {
		if g.Min == nil || *g.Min != result.Suggestions[i].SuggestedMin {
			t.Fatalf("config group %s not updated: %+v", g.Name, g.Min)
		}
	}
}

func TestCalculateSuggestion(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		min      float64
		strategy SuggestStrategy
		want     float64
	}{
		{"current with buffer", 90, 70, SuggestCurrent, 88},
		{"current below min keeps threshold", 60, 80, SuggestCurrent, 80},
		{"current floors at 50", 51, 40, SuggestCurrent, 50},
		{"aggressive adds five", 85, 80, SuggestAggressive, 90},
		{"aggressive caps at 95", 93, 80, SuggestAggressive, 95},
		{"aggressive already above target", 70, 90, SuggestAggressive, 90},
		{"conservative backs off", 90, 70, SuggestConservative, 85},
		{"conservative respects min", 72, 70, SuggestConservative, 70},
		{"conservative floors at 50", 40, 30, SuggestConservative, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := calculateSuggestion(tt.current, tt.min, tt.strategy)
			if got != tt.want {
				t.Fatalf("calculateSuggestion(%v, %v, %s) = %v, want %v", tt.current, tt.min, tt.strategy, got, tt.want)
			}
			if reason == "" {
				t.Fatalf("empty reason")
			}
		})
	}
}

func TestServiceDebt(t *testing.T) {
	svc, store, _ := testService(testConfig())
	store.profile = Profile{Rules: map[string]domain.RuleStat{
		"kw_if":   {Attempts: 1, Hits: 1},
		"op_plus": {Attempts: 1, Hits: 0},
	}}

	result, err := svc.Debt(context.Background(), DebtOptions{ConfigPath: ".minilex.yaml"})
	if err != nil {
		t.Fatalf("debt: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("items = %+v", result.Items)
	}
	item := result.Items[0]
	if item.Group != "operators" || item.Shortfall != 80 || item.Rules != 1 {
		t.Fatalf("item = %+v", item)
	}
	if result.HealthScore != 50 {
		t.Fatalf("health = %v, want 50", result.HealthScore)
	}
	if result.TotalDebt != 80 || result.TotalRules != 1 {
		t.Fatalf("totals = %v/%d", result.TotalDebt, result.TotalRules)
	}
}

func TestServiceDebtAllPassing(t *testing.T) {
	svc, store, _ := testService(testConfig())
	store.profile = Profile{Rules: map[string]domain.RuleStat{
		"kw_if":   {Attempts: 1, Hits: 1},
		"op_plus": {Attempts: 1, Hits: 1},
	}}

	result, err := svc.Debt(context.Background(), DebtOptions{ConfigPath: ".minilex.yaml"})
	if err != nil {
		t.Fatalf("debt: %v", err)
	}
	if len(result.Items) != 0 || result.HealthScore != 100 {
		t.Fatalf("result = %+v", result)
	}
}

func TestServiceBadge(t *testing.T) {
	svc, store, _ := testService(testConfig())
	store.profile = Profile{Rules: map[string]domain.RuleStat{
		"kw_if":   {Attempts: 1, Hits: 1},
		"op_plus": {Attempts: 1, Hits: 0},
	}}

	result, err := svc.Badge(context.Background(), BadgeOptions{ConfigPath: ".minilex.yaml"})
	if err != nil {
		t.Fatalf("badge: %v", err)
	}
	if result.Percent != 50 {
		t.Fatalf("percent = %v, want 50", result.Percent)
	}
}

func TestServiceDetect(t *testing.T) {
	svc, _, _ := testService(testConfig())
	svc.Autodetector = fakeAutodetector{cfg: Config{Grammar: "found.yaml"}}

	cfg, err := svc.Detect(context.Background(), DetectOptions{})
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if cfg.Grammar != "found.yaml" {
		t.Fatalf("cfg = %+v", cfg)
	}

	svc.Autodetector = fakeAutodetector{err: errors.New("no grammar found")}
	if _, err := svc.Detect(context.Background(), DetectOptions{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestServiceWatch(t *testing.T) {
	svc, _, _ := testService(testConfig())
	svc.Out = &bytes.Buffer{}

	watcher := &fakeWatcher{events: make(chan struct{}, 1)}
	watcher.events <- struct{}{}
	close(watcher.events)

	var runs []int
	err := svc.Watch(context.Background(), WatchOptions{ConfigPath: ".minilex.yaml"}, watcher, func(n int, runErr error) {
		runs = append(runs, n)
		if runErr != nil {
			t.Errorf("run %d: %v", n, runErr)
		}
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if len(runs) != 2 || runs[0] != 1 || runs[1] != 2 {
		t.Fatalf("runs = %v, want initial run plus one event", runs)
	}
	if len(watcher.dirs) != 1 {
		t.Fatalf("watched dirs = %v", watcher.dirs)
	}
}

func TestServiceWatchIgnoresProfile(t *testing.T) {
	svc, _, _ := testService(testConfig())
	svc.Out = &bytes.Buffer{}

	watcher := &fakeWatcher{events: make(chan struct{})}
	close(watcher.events)

	err := svc.Watch(context.Background(), WatchOptions{ConfigPath: ".minilex.yaml"}, watcher, nil)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	want := filepath.Join(".minilex", "rules.json")
	if len(watcher.ignored) != 1 || watcher.ignored[0] != want {
		t.Fatalf("ignored = %v, want [%s]", watcher.ignored, want)
	}
}

func TestServiceWatchIgnoresProfileOverride(t *testing.T) {
	svc, _, _ := testService(testConfig())
	svc.Out = &bytes.Buffer{}

	watcher := &fakeWatcher{events: make(chan struct{})}
	close(watcher.events)

	opts := WatchOptions{ConfigPath: ".minilex.yaml", Profile: "/tmp/rules.json"}
	if err := svc.Watch(context.Background(), opts, watcher, nil); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if len(watcher.ignored) != 1 || watcher.ignored[0] != "/tmp/rules.json" {
		t.Fatalf("ignored = %v", watcher.ignored)
	}
}

func TestServiceWatchCancelled(t *testing.T) {
	svc, _, _ := testService(testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	watcher := &fakeWatcher{events: make(chan struct{})}

	started := make(chan struct{})
	go func() {
		<-started
		cancel()
	}()

	first := true
	err := svc.Watch(ctx, WatchOptions{ConfigPath: ".minilex.yaml"}, watcher, func(n int, runErr error) {
		if first {
			first = false
			close(started)
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("watch = %v, want context.Canceled", err)
	}
}
