package application

import (
	"fmt"
	"path/filepath"

	"github.com/fluxid/minilex/internal/domain"
	"github.com/fluxid/minilex/internal/lexer"
)

// loadOrDetectConfig loads config from path or auto-detects from the
// grammar file when no config exists.
func loadOrDetectConfig(loader ConfigLoader, detector Autodetector, configPath, grammarOverride string) (Config, error) {
	exists, err := loader.Exists(configPath)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if !exists {
		cfg, err = detector.Detect(grammarOverride)
		if err != nil {
			return Config{}, err
		}
	} else {
		cfg, err = loader.Load(configPath)
		if err != nil {
			return Config{}, err
		}
	}

	if len(cfg.Policy.Groups) == 0 {
		return Config{}, fmt.Errorf("no groups configured")
	}
	return cfg, nil
}

// resolveFrom resolves path against the directory holding the config file,
// so invocations work from any working directory.
func resolveFrom(configPath, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(configPath), path)
}

// grammarPath picks the effective grammar file: an explicit override wins,
// otherwise the configured path resolved against the config location.
func grammarPath(cfg Config, configPath, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if cfg.Grammar == "" {
		return "", fmt.Errorf("no grammar file configured")
	}
	return resolveFrom(configPath, cfg.Grammar), nil
}

// filterGroupsByNames keeps only groups whose name is listed. An empty
// list keeps everything.
func filterGroupsByNames(groups []domain.Group, names []string) []domain.Group {
	if len(names) == 0 {
		return groups
	}
	keep := make(map[string]struct{}, len(names))
	for _, n := range names {
		keep[n] = struct{}{}
	}
	out := make([]domain.Group, 0, len(groups))
	for _, g := range groups {
		if _, ok := keep[g.Name]; ok {
			out = append(out, g)
		}
	}
	return out
}

// fullStats zero-fills stats for leaf rules the run never attempted, so
// profiles and coverage totals always cover the whole grammar.
func fullStats(g *lexer.Grammar, stats map[string]domain.RuleStat) map[string]domain.RuleStat {
	out := make(map[string]domain.RuleStat, len(stats))
	for _, name := range g.LeafRules() {
		out[name] = stats[name]
	}
	return out
}

// applyDeltas folds history deltas into the result when a store is present.
func applyDeltas(result *domain.Result, store HistoryStore) {
	if store == nil {
		return
	}
	history, err := store.Load()
	if err != nil {
		return
	}
	result.ApplyDeltas(history)
}
