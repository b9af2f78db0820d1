package autodetect

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fluxid/minilex/internal/application"
	"github.com/fluxid/minilex/internal/domain"
)

// Detector builds a starting config from a grammar file when no config
// exists: rule names are grouped by prefix (the part before the first
// underscore or dot), with a default threshold of 80%.
type Detector struct {
	Grammars application.GrammarLoader
}

var defaultGrammarFiles = []string{"grammar.yaml", "grammar.yml", "grammar.json", "grammar.jsonc"}

func (d Detector) Detect(grammarPath string) (application.Config, error) {
	path := grammarPath
	if path == "" {
		path = findDefaultGrammar()
		if path == "" {
			return application.Config{}, fmt.Errorf("no grammar file found; pass one explicitly or create %s", defaultGrammarFiles[0])
		}
	}

	g, _, err := d.Grammars.Load(path)
	if err != nil {
		return application.Config{}, err
	}

	groups := detectGroups(g.LeafRules())
	return application.Config{
		Version: 1,
		Grammar: path,
		Policy:  domain.Policy{DefaultMin: 80, Groups: groups},
	}, nil
}

func findDefaultGrammar() string {
	for _, name := range defaultGrammarFiles {
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			return name
		}
	}
	return ""
}

// detectGroups buckets rules by name prefix. Rules without a separator in
// their name land in a catch-all group.
func detectGroups(rules []string) []domain.Group {
	byPrefix := make(map[string][]string)
	var misc bool
	for _, rule := range rules {
		prefix := rulePrefix(rule)
		if prefix == "" {
			misc = true
			continue
		}
		byPrefix[prefix] = append(byPrefix[prefix], rule)
	}

	names := make([]string, 0, len(byPrefix))
	for prefix := range byPrefix {
		names = append(names, prefix)
	}
	sort.Strings(names)

	groups := make([]domain.Group, 0, len(names)+1)
	for _, prefix := range names {
		groups = append(groups, domain.Group{
			Name:  prefix,
			Match: []string{prefix + "_*", prefix + ".*"},
		})
	}
	// A catch-all group keeps unprefixed rules counted, but only when no
	// prefix groups exist; otherwise it would overlap every group.
	if len(groups) == 0 && misc {
		groups = append(groups, domain.Group{Name: "rules", Match: []string{"*"}})
	}
	return groups
}

func rulePrefix(rule string) string {
	idx := strings.IndexAny(rule, "_.")
	if idx <= 0 {
		return ""
	}
	return rule[:idx]
}
