package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fluxid/minilex/internal/application"
	"github.com/fluxid/minilex/internal/domain"
)

// Store reads and writes rule-profile artifacts as JSON files.
type Store struct{}

func (Store) Load(path string) (application.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return application.Profile{}, err
	}

	var p application.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return application.Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if p.Version != 1 {
		return application.Profile{}, fmt.Errorf("unsupported profile version %d", p.Version)
	}
	if p.Rules == nil {
		p.Rules = map[string]domain.RuleStat{}
	}
	return p, nil
}

func (Store) Write(path string, p application.Profile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
