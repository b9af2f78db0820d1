package application

import (
	"context"
	"io"
)

// Service wires the ports together and exposes one method per CLI command.
// Handlers live in the *_handler.go files of this package.
type Service struct {
	ConfigLoader  ConfigLoader
	Autodetector  Autodetector
	GrammarLoader GrammarLoader
	Runner        ExampleRunner
	ProfileStore  ProfileStore
	Reporter      Reporter
	Out           io.Writer
}

// Detect derives a starting configuration from the grammar file without
// touching any existing config.
func (s *Service) Detect(ctx context.Context, opts DetectOptions) (Config, error) {
	cfg, err := s.Autodetector.Detect(opts.Grammar)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
