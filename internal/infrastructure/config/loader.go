package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fluxid/minilex/internal/application"
	"github.com/fluxid/minilex/internal/domain"
)

type Loader struct{}

type fileConfig struct {
	Version int        `yaml:"version"`
	Grammar string     `yaml:"grammar"`
	Profile string     `yaml:"profile,omitempty"`
	Policy  filePolicy `yaml:"policy"`
	Exclude []string   `yaml:"exclude,omitempty"`
}

type filePolicy struct {
	Default fileDefault `yaml:"default"`
	Groups  []fileGroup `yaml:"groups"`
}

type fileDefault struct {
	Min float64 `yaml:"min"`
}

type fileGroup struct {
	Name  string   `yaml:"name"`
	Match []string `yaml:"match"`
	Min   *float64 `yaml:"min,omitempty"`
}

func (l Loader) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (l Loader) Load(path string) (application.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return application.Config{}, err
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return application.Config{}, err
	}

	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Version != 1 {
		return application.Config{}, fmt.Errorf("unsupported config version %d", cfg.Version)
	}

	policy := domain.Policy{
		DefaultMin: cfg.Policy.Default.Min,
		Groups:     make([]domain.Group, 0, len(cfg.Policy.Groups)),
	}

	for _, g := range cfg.Policy.Groups {
		policy.Groups = append(policy.Groups, domain.Group{
			Name:  g.Name,
			Match: g.Match,
			Min:   g.Min,
		})
	}

	return application.Config{
		Version: cfg.Version,
		Grammar: cfg.Grammar,
		Profile: cfg.Profile,
		Policy:  policy,
		Exclude: cfg.Exclude,
	}, nil
}

func Write(w io.Writer, cfg application.Config) error {
	version := cfg.Version
	if version == 0 {
		version = 1
	}
	out := fileConfig{
		Version: version,
		Grammar: cfg.Grammar,
		Profile: cfg.Profile,
		Policy: filePolicy{
			Default: fileDefault{Min: cfg.Policy.DefaultMin},
			Groups:  make([]fileGroup, 0, len(cfg.Policy.Groups)),
		},
		Exclude: cfg.Exclude,
	}
	for _, g := range cfg.Policy.Groups {
		out.Policy.Groups = append(out.Policy.Groups, fileGroup{
			Name:  g.Name,
			Match: g.Match,
			Min:   g.Min,
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return enc.Encode(out)
}
