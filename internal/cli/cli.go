package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fluxid/minilex/internal/application"
	"github.com/fluxid/minilex/internal/domain"
	"github.com/fluxid/minilex/internal/infrastructure/autodetect"
	"github.com/fluxid/minilex/internal/infrastructure/badge"
	"github.com/fluxid/minilex/internal/infrastructure/config"
	"github.com/fluxid/minilex/internal/infrastructure/grammar"
	"github.com/fluxid/minilex/internal/infrastructure/history"
	"github.com/fluxid/minilex/internal/infrastructure/profile"
	"github.com/fluxid/minilex/internal/infrastructure/report"
	"github.com/fluxid/minilex/internal/infrastructure/watcher"
	"github.com/fluxid/minilex/internal/infrastructure/wizard"
	mcpserver "github.com/fluxid/minilex/internal/mcp"
)

type Service interface {
	Check(ctx context.Context, opts application.CheckOptions) error
	Run(ctx context.Context, opts application.RunOptions) error
	Report(ctx context.Context, opts application.ReportOptions) error
	Tokenize(ctx context.Context, opts application.TokenizeOptions) error
	Validate(ctx context.Context, opts application.ValidateOptions) (application.ValidateResult, error)
	Detect(ctx context.Context, opts application.DetectOptions) (application.Config, error)
	Badge(ctx context.Context, opts application.BadgeOptions) (application.BadgeResult, error)
	Trend(ctx context.Context, opts application.TrendOptions, store application.HistoryStore) (application.TrendResult, error)
	Record(ctx context.Context, opts application.RecordOptions, store application.HistoryStore) error
	Suggest(ctx context.Context, opts application.SuggestOptions) (application.SuggestResult, error)
	Watch(ctx context.Context, opts application.WatchOptions, watcher application.FileWatcher, callback application.WatchCallback) error
	Debt(ctx context.Context, opts application.DebtOptions) (application.DebtResult, error)
}

var initWizard = wizard.Run

func Run(args []string, stdout, stderr io.Writer, svc Service) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	ctx := context.Background()

	switch args[1] {
	case "check":
		fs := flag.NewFlagSet("check", flag.ExitOnError)
		configPath := fs.String("config", ".minilex.yaml", "Config file path")
		output := outputFlags(fs)
		grammarPath := fs.String("grammar", "", "Grammar file overriding the configured one")
		profilePath := fs.String("profile", "", "Rule profile output path")
		historyPath := fs.String("history", "", "History file path for delta display")
		showDelta := fs.Bool("show-delta", false, "Show coverage change from previous run")
		var groups groupList
		fs.Var(&groups, "group", "Filter to specific rule group (repeatable)")
		_ = fs.Parse(args[2:])
		opts := application.CheckOptions{
			ConfigPath: *configPath,
			Grammar:    *grammarPath,
			Output:     *output,
			Profile:    *profilePath,
			Groups:     groups,
		}
		if *showDelta {
			histPath := *historyPath
			if histPath == "" {
				histPath = ".minilex/history.json"
			}
			opts.HistoryStore = &history.FileStore{Path: histPath}
		}
		err := svc.Check(ctx, opts)
		return exitCode(err, 1, stderr)
	case "run":
		fs := flag.NewFlagSet("run", flag.ExitOnError)
		configPath := fs.String("config", ".minilex.yaml", "Config file path")
		grammarPath := fs.String("grammar", "", "Grammar file overriding the configured one")
		profilePath := fs.String("profile", "", "Rule profile output path")
		watch := fs.Bool("watch", false, "Watch the grammar for changes and re-run")
		var groups groupList
		fs.Var(&groups, "group", "Filter to specific rule group (repeatable)")
		_ = fs.Parse(args[2:])

		if *watch {
			return runWatch(ctx, stdout, stderr, svc, *configPath, *grammarPath, *profilePath, groups)
		}
		err := svc.Run(ctx, application.RunOptions{
			ConfigPath: *configPath,
			Grammar:    *grammarPath,
			Profile:    *profilePath,
			Groups:     groups,
		})
		return exitCode(err, 3, stderr)
	case "report":
		fs := flag.NewFlagSet("report", flag.ExitOnError)
		configPath := fs.String("config", ".minilex.yaml", "Config file path")
		output := outputFlags(fs)
		profilePath := fs.String("profile", ".minilex/rules.json", "Rule profile path")
		historyPath := fs.String("history", "", "History file path for delta display")
		showDelta := fs.Bool("show-delta", false, "Show coverage change from previous run")
		var groups groupList
		fs.Var(&groups, "group", "Filter to specific rule group (repeatable)")
		_ = fs.Parse(args[2:])
		opts := application.ReportOptions{
			ConfigPath: *configPath,
			Output:     *output,
			Profile:    *profilePath,
			Groups:     groups,
		}
		if *showDelta {
			histPath := *historyPath
			if histPath == "" {
				histPath = ".minilex/history.json"
			}
			opts.HistoryStore = &history.FileStore{Path: histPath}
		}
		err := svc.Report(ctx, opts)
		return exitCode(err, 3, stderr)
	case "tokenize":
		fs := flag.NewFlagSet("tokenize", flag.ExitOnError)
		configPath := fs.String("config", ".minilex.yaml", "Config file path")
		grammarPath := fs.String("grammar", "", "Grammar file overriding the configured one")
		output := outputFlags(fs)
		_ = fs.Parse(args[2:])
		// Positional args are the input files, forwarded in order.
		files := fs.Args()
		if len(files) == 0 {
			fmt.Fprintln(stderr, "tokenize: no input files")
			return 2
		}
		err := svc.Tokenize(ctx, application.TokenizeOptions{
			ConfigPath: *configPath,
			Grammar:    *grammarPath,
			Files:      files,
			Output:     *output,
		})
		if err != nil {
			return exitCode(err, 3, stderr)
		}
		return 0
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ExitOnError)
		configPath := fs.String("config", ".minilex.yaml", "Config file path")
		grammarPath := fs.String("grammar", "", "Grammar file overriding the configured one")
		_ = fs.Parse(args[2:])
		result, err := svc.Validate(ctx, application.ValidateOptions{
			ConfigPath: *configPath,
			Grammar:    *grammarPath,
		})
		if err != nil {
			return exitCode(err, 4, stderr)
		}
		if len(result.Issues) == 0 {
			fmt.Fprintf(stdout, "Grammar %s is sound\n", result.Grammar)
			return 0
		}
		fmt.Fprintf(stdout, "Grammar %s has %d issues:\n", result.Grammar, len(result.Issues))
		for _, issue := range result.Issues {
			if issue.Rule != "" {
				fmt.Fprintf(stdout, "  %s: %s\n", issue.Rule, issue.Message)
			} else {
				fmt.Fprintf(stdout, "  %s\n", issue.Message)
			}
		}
		return 4
	case "init":
		fs := flag.NewFlagSet("init", flag.ExitOnError)
		configPath := fs.String("config", ".minilex.yaml", "Config file path")
		grammarPath := fs.String("grammar", "", "Grammar file to configure")
		force := fs.Bool("force", false, "Overwrite existing config file")
		noInteractive := fs.Bool("no-interactive", false, "Skip the interactive init wizard")
		_ = fs.Parse(args[2:])
		cfg, err := svc.Detect(ctx, application.DetectOptions{Grammar: *grammarPath})
		if err != nil {
			return exitCode(err, 3, stderr)
		}
		if !*noInteractive {
			var confirmed bool
			cfg, confirmed, err = initWizard(cfg, stdout, os.Stdin)
			if err != nil {
				return exitCode(err, 5, stderr)
			}
			if !confirmed {
				fmt.Fprintln(stdout, "Init cancelled; no configuration written.")
				return 0
			}
		}
		if err := writeConfigFile(*configPath, cfg, stdout, *force); err != nil {
			return exitCode(err, 2, stderr)
		}
		return 0
	case "badge":
		fs := flag.NewFlagSet("badge", flag.ExitOnError)
		configPath := fs.String("config", ".minilex.yaml", "Config file path")
		profilePath := fs.String("profile", ".minilex/rules.json", "Rule profile path")
		output := fs.String("output", "coverage.svg", "Output file path")
		label := fs.String("label", "rule coverage", "Badge label text")
		style := fs.String("style", "flat", "Badge style: flat|flat-square")
		_ = fs.Parse(args[2:])
		result, err := svc.Badge(ctx, application.BadgeOptions{
			ConfigPath:  *configPath,
			ProfilePath: *profilePath,
			Output:      *output,
			Label:       *label,
			Style:       *style,
		})
		if err != nil {
			return exitCode(err, 3, stderr)
		}
		if err := writeBadgeFile(*output, result.Percent, *label, *style); err != nil {
			return exitCode(err, 3, stderr)
		}
		fmt.Fprintf(stdout, "Badge written to %s (%.1f%%)\n", *output, result.Percent)
		return 0
	case "trend":
		fs := flag.NewFlagSet("trend", flag.ExitOnError)
		configPath := fs.String("config", ".minilex.yaml", "Config file path")
		profilePath := fs.String("profile", ".minilex/rules.json", "Rule profile path")
		historyPath := fs.String("history", ".minilex/history.json", "History file path")
		days := fs.Int("days", 0, "Limit to entries from the last N days (0 = all)")
		output := outputFlags(fs)
		_ = fs.Parse(args[2:])
		store := history.FileStore{Path: *historyPath}
		result, err := svc.Trend(ctx, application.TrendOptions{
			ConfigPath:  *configPath,
			ProfilePath: *profilePath,
			HistoryPath: *historyPath,
			Output:      *output,
			Days:        *days,
		}, &store)
		if err != nil {
			return exitCode(err, 3, stderr)
		}
		printTrendResult(result, stdout)
		return 0
	case "record":
		fs := flag.NewFlagSet("record", flag.ExitOnError)
		configPath := fs.String("config", ".minilex.yaml", "Config file path")
		profilePath := fs.String("profile", ".minilex/rules.json", "Rule profile path")
		historyPath := fs.String("history", ".minilex/history.json", "History file path")
		commit := fs.String("commit", "", "Git commit SHA (optional)")
		branch := fs.String("branch", "", "Git branch name (optional)")
		_ = fs.Parse(args[2:])
		store := history.FileStore{Path: *historyPath}
		err := svc.Record(ctx, application.RecordOptions{
			ConfigPath:  *configPath,
			ProfilePath: *profilePath,
			HistoryPath: *historyPath,
			Commit:      *commit,
			Branch:      *branch,
		}, &store)
		if err != nil {
			return exitCode(err, 3, stderr)
		}
		fmt.Fprintln(stdout, "Coverage recorded to history")
		return 0
	case "suggest":
		fs := flag.NewFlagSet("suggest", flag.ExitOnError)
		configPath := fs.String("config", ".minilex.yaml", "Config file path")
		profilePath := fs.String("profile", ".minilex/rules.json", "Rule profile path")
		strategy := fs.String("strategy", "current", "Suggestion strategy: current|aggressive|conservative")
		writeConfig := fs.Bool("write-config", false, "Update config with suggested thresholds")
		force := fs.Bool("force", false, "Overwrite config if it exists")
		_ = fs.Parse(args[2:])

		var strat application.SuggestStrategy
		switch *strategy {
		case "aggressive":
			strat = application.SuggestAggressive
		case "conservative":
			strat = application.SuggestConservative
		default:
			strat = application.SuggestCurrent
		}

		result, err := svc.Suggest(ctx, application.SuggestOptions{
			ConfigPath:  *configPath,
			ProfilePath: *profilePath,
			Strategy:    strat,
		})
		if err != nil {
			return exitCode(err, 3, stderr)
		}
		printSuggestResult(result, stdout)
		if *writeConfig {
			if err := writeConfigFile(*configPath, result.Config, stdout, *force); err != nil {
				return exitCode(err, 2, stderr)
			}
			fmt.Fprintf(stdout, "\nConfig updated: %s\n", *configPath)
		}
		return 0
	case "debt":
		fs := flag.NewFlagSet("debt", flag.ExitOnError)
		configPath := fs.String("config", ".minilex.yaml", "Config file path")
		profilePath := fs.String("profile", ".minilex/rules.json", "Rule profile path")
		output := outputFlags(fs)
		_ = fs.Parse(args[2:])

		result, err := svc.Debt(ctx, application.DebtOptions{
			ConfigPath:  *configPath,
			ProfilePath: *profilePath,
			Output:      *output,
		})
		if err != nil {
			return exitCode(err, 3, stderr)
		}
		printDebtResult(result, stdout, *output)
		return 0
	case "mcp":
		fs := flag.NewFlagSet("mcp", flag.ExitOnError)
		configPath := fs.String("config", ".minilex.yaml", "Config file path")
		historyPath := fs.String("history", ".minilex/history.json", "History file path")
		profilePath := fs.String("profile", ".minilex/rules.json", "Rule profile path")
		_ = fs.Parse(args[2:])
		full, ok := svc.(mcpserver.Service)
		if !ok {
			fmt.Fprintln(stderr, "mcp server is not available with this service")
			return 3
		}
		server := mcpserver.New(full, mcpserver.Config{
			ConfigPath:  *configPath,
			HistoryPath: *historyPath,
			ProfilePath: *profilePath,
		})
		if err := server.Run(ctx); err != nil {
			return exitCode(err, 3, stderr)
		}
		return 0
	case "version":
		fmt.Fprintf(stdout, "minilex %s (commit %s, built %s)\n", Version, Commit, Date)
		return 0
	default:
		usage(stderr)
		return 2
	}
}

func BuildService(out *os.File) *application.Service {
	grammars := grammar.Loader{}
	return &application.Service{
		ConfigLoader:  config.Loader{},
		Autodetector:  autodetect.Detector{Grammars: grammars},
		GrammarLoader: grammars,
		Runner:        application.GrammarRunner{},
		ProfileStore:  profile.Store{},
		Reporter:      report.Writer{},
		Out:           out,
	}
}

func outputFlags(fs *flag.FlagSet) *application.OutputFormat {
	output := application.OutputText
	fs.Var((*outputValue)(&output), "output", "Output format: text|json|brief")
	fs.Var((*outputValue)(&output), "o", "Output format: text|json|brief")
	return &output
}

type outputValue application.OutputFormat

func (o *outputValue) String() string { return string(*o) }

func (o *outputValue) Set(value string) error {
	switch value {
	case string(application.OutputText), string(application.OutputJSON), string(application.OutputBrief):
		*o = outputValue(value)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s", value)
	}
}

// groupList implements flag.Value for repeatable --group flags
type groupList []string

func (g *groupList) String() string { return strings.Join(*g, ",") }

func (g *groupList) Set(value string) error {
	*g = append(*g, value)
	return nil
}

func writeConfigFile(path string, cfg application.Config, stdout io.Writer, force bool) error {
	if path == "-" {
		return config.Write(stdout, cfg)
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return config.Write(file, cfg)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `minilex <command>

Commands:
  check    Run grammar examples and enforce rule-coverage policy
  run      Run grammar examples only, produce the rule profile (--watch to re-run on changes)
  report   Analyze an existing rule profile
  tokenize Lex input files and print the token streams
  validate Statically check the grammar for structural issues
  init     Autodetect rule groups plus the interactive wizard
  badge    Generate an SVG coverage badge
  trend    Show rule-coverage trends over time
  record   Record current rule coverage to history
  suggest  Suggest group coverage thresholds
  debt     Show rule-coverage debt report
  mcp      Serve grammar tools over the Model Context Protocol
  version  Print version information`)
}

func writeBadgeFile(path string, percent float64, label, style string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	badgeStyle := badge.StyleFlat
	if style == "flat-square" {
		badgeStyle = badge.StyleFlatSquare
	}

	return badge.Generate(file, badge.Options{
		Label:   label,
		Percent: percent,
		Style:   badgeStyle,
	})
}

func exitCode(err error, code int, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, err)
	return code
}

func printTrendResult(result application.TrendResult, w io.Writer) {
	trendSymbol := "→"
	switch result.Trend.Direction {
	case domain.TrendUp:
		trendSymbol = "↑"
	case domain.TrendDown:
		trendSymbol = "↓"
	}

	fmt.Fprintf(w, "Rule Coverage Trend: %.1f%% %s %.1f%% (%+.1f%%)\n",
		result.Previous, trendSymbol, result.Current, result.Trend.Delta)
	fmt.Fprintln(w, "\nGroup Trends:")
	for name, trend := range result.ByGroup {
		symbol := "→"
		switch trend.Direction {
		case domain.TrendUp:
			symbol = "↑"
		case domain.TrendDown:
			symbol = "↓"
		}
		fmt.Fprintf(w, "  %s: %s %+.1f%%\n", name, symbol, trend.Delta)
	}
	fmt.Fprintf(w, "\nHistory: %d entries\n", len(result.Entries))
}

func printSuggestResult(result application.SuggestResult, w io.Writer) {
	fmt.Fprintln(w, "Threshold Suggestions:")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%-20s %10s %10s %12s  %s\n", "GROUP", "CURRENT", "MIN", "SUGGESTED", "REASON")
	fmt.Fprintf(w, "%-20s %10s %10s %12s  %s\n", "-----", "-------", "---", "---------", "------")
	for _, s := range result.Suggestions {
		change := ""
		if s.SuggestedMin > s.CurrentMin {
			change = "↑"
		} else if s.SuggestedMin < s.CurrentMin {
			change = "↓"
		}
		fmt.Fprintf(w, "%-20s %9.1f%% %9.1f%% %10.1f%% %s  %s\n",
			s.Group, s.CurrentPercent, s.CurrentMin, s.SuggestedMin, change, s.Reason)
	}
}

func printDebtResult(result application.DebtResult, w io.Writer, format application.OutputFormat) {
	if format == application.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
		return
	}

	if len(result.Items) == 0 {
		fmt.Fprintln(w, "No coverage debt found - all targets are met!")
		fmt.Fprintf(w, "Health Score: %.1f%%\n", result.HealthScore)
		return
	}

	fmt.Fprintln(w, "Rule Coverage Debt")
	fmt.Fprintln(w, "==================")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%-20s %10s %10s %10s %8s\n", "GROUP", "CURRENT", "REQUIRED", "SHORTFALL", "RULES")
	fmt.Fprintf(w, "%-20s %10s %10s %10s %8s\n", "-----", "-------", "--------", "---------", "-----")

	for _, item := range result.Items {
		name := item.Group
		if len(name) > 20 {
			name = "..." + name[len(name)-17:]
		}
		fmt.Fprintf(w, "%-20s %9.1f%% %9.1f%% %9.1f%% %8d\n",
			name, item.Current, item.Required, item.Shortfall, item.Rules)
	}

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Total Debt: %.1f%% shortfall across %d groups\n", result.TotalDebt, len(result.Items))
	fmt.Fprintf(w, "Uncovered Rules: %d\n", result.TotalRules)
	fmt.Fprintf(w, "Health Score: %.1f%%\n", result.HealthScore)
}

func runWatch(ctx context.Context, stdout, stderr io.Writer, svc Service, configPath, grammarPath, profilePath string, groups []string) int {
	w, err := watcher.New(watcher.WithDebounce(500 * time.Millisecond))
	if err != nil {
		fmt.Fprintf(stderr, "failed to create watcher: %v\n", err)
		return 3
	}
	defer w.Close()

	// Handle Ctrl+C gracefully
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(stdout, "\nStopping watch mode...")
		cancel()
	}()

	fmt.Fprintln(stdout, "Watching grammar for changes... (Ctrl+C to stop)")
	fmt.Fprintln(stdout, "")

	callback := func(runNumber int, runErr error) {
		fmt.Fprintf(stdout, "\n--- Run #%d at %s ---\n", runNumber, time.Now().Format("15:04:05"))
		if runErr != nil {
			fmt.Fprintf(stderr, "Run failed: %v\n", runErr)
		} else {
			fmt.Fprintln(stdout, "Run completed successfully")
		}
	}

	opts := application.WatchOptions{
		ConfigPath: configPath,
		Grammar:    grammarPath,
		Profile:    profilePath,
		Groups:     groups,
	}

	if err := svc.Watch(ctx, opts, w, callback); err != nil {
		if ctx.Err() == context.Canceled {
			return 0 // Normal exit on Ctrl+C
		}
		fmt.Fprintf(stderr, "watch error: %v\n", err)
		return 3
	}
	return 0
}
