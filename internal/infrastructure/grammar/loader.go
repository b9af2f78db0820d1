package grammar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/fluxid/minilex/internal/application"
	"github.com/fluxid/minilex/internal/lexer"
)

// Loader reads grammar definition files. YAML (.yaml, .yml) and JSON
// (.json, .jsonc with comments) are supported; the format is picked by
// file extension.
type Loader struct{}

type fileGrammar struct {
	Version  int                 `yaml:"version" json:"version"`
	Start    string              `yaml:"start" json:"start"`
	Rules    map[string]fileRule `yaml:"rules" json:"rules"`
	Examples []fileExample       `yaml:"examples" json:"examples"`
}

// fileRule is either a leaf (lit, regex, or any, plus after) or a group
// (try). The forms are mutually exclusive.
type fileRule struct {
	Lit   *string       `yaml:"lit" json:"lit"`
	Regex *string       `yaml:"regex" json:"regex"`
	ICase bool          `yaml:"icase" json:"icase"`
	Any   []fileMatcher `yaml:"any" json:"any"`
	Try   []string      `yaml:"try" json:"try"`
	After string        `yaml:"after" json:"after"`
}

type fileMatcher struct {
	Lit   *string       `yaml:"lit" json:"lit"`
	Regex *string       `yaml:"regex" json:"regex"`
	ICase bool          `yaml:"icase" json:"icase"`
	Any   []fileMatcher `yaml:"any" json:"any"`
}

type fileExample struct {
	Name   string   `yaml:"name" json:"name"`
	Input  string   `yaml:"input" json:"input"`
	Tokens []string `yaml:"tokens" json:"tokens"`
	Error  string   `yaml:"error" json:"error"`
}

func (l Loader) Load(path string) (*lexer.Grammar, []application.Example, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	var fg fileGrammar
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &fg)
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(raw), &fg)
	default:
		return nil, nil, fmt.Errorf("unsupported grammar format %q", ext)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}

	g, err := compile(fg)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	examples := make([]application.Example, 0, len(fg.Examples))
	for i, ex := range fg.Examples {
		name := ex.Name
		if name == "" {
			name = fmt.Sprintf("example %d", i+1)
		}
		examples = append(examples, application.Example{
			Name:      name,
			Input:     ex.Input,
			Tokens:    ex.Tokens,
			WantError: ex.Error,
		})
	}
	return g, examples, nil
}

func compile(fg fileGrammar) (*lexer.Grammar, error) {
	if fg.Version != 0 && fg.Version != 1 {
		return nil, fmt.Errorf("unsupported grammar version %d", fg.Version)
	}
	if fg.Start == "" {
		return nil, fmt.Errorf("grammar has no start rule")
	}
	if len(fg.Rules) == 0 {
		return nil, fmt.Errorf("grammar has no rules")
	}

	rules := make(map[string]*lexer.Rule, len(fg.Rules))
	for name, fr := range fg.Rules {
		rule, err := compileRule(fr)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
		rules[name] = rule
	}
	return &lexer.Grammar{Start: fg.Start, Rules: rules}, nil
}

func compileRule(fr fileRule) (*lexer.Rule, error) {
	if fr.Try != nil {
		if fr.Lit != nil || fr.Regex != nil || fr.Any != nil {
			return nil, fmt.Errorf("try cannot be combined with a matcher")
		}
		if fr.After != "" {
			return nil, fmt.Errorf("after is only valid on leaf rules")
		}
		return &lexer.Rule{Try: fr.Try}, nil
	}

	m, err := compileMatcher(fileMatcher{Lit: fr.Lit, Regex: fr.Regex, ICase: fr.ICase, Any: fr.Any})
	if err != nil {
		return nil, err
	}
	if fr.After == "" {
		return nil, fmt.Errorf("leaf rule needs an after target")
	}
	return &lexer.Rule{Match: m, After: fr.After}, nil
}

func compileMatcher(fm fileMatcher) (lexer.Matcher, error) {
	set := 0
	if fm.Lit != nil {
		set++
	}
	if fm.Regex != nil {
		set++
	}
	if fm.Any != nil {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one of lit, regex, any required")
	}

	switch {
	case fm.Lit != nil:
		return lexer.Lit{Text: *fm.Lit, Fold: fm.ICase}, nil
	case fm.Regex != nil:
		re, err := lexer.NewRegex(*fm.Regex, fm.ICase)
		if err != nil {
			return nil, fmt.Errorf("regex %q: %w", *fm.Regex, err)
		}
		return re, nil
	default:
		subs := make(lexer.Any, 0, len(fm.Any))
		for i, sub := range fm.Any {
			m, err := compileMatcher(sub)
			if err != nil {
				return nil, fmt.Errorf("any[%d]: %w", i, err)
			}
			subs = append(subs, m)
		}
		return subs, nil
	}
}
