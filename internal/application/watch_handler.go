package application

import (
	"context"
	"fmt"
	"path/filepath"
)

// Watch re-runs the examples whenever the grammar directory changes. Each
// run writes a fresh rule profile; the callback observes every run.
func (s *Service) Watch(ctx context.Context, opts WatchOptions, watcher FileWatcher, callback WatchCallback) error {
	cfg, err := loadOrDetectConfig(s.ConfigLoader, s.Autodetector, opts.ConfigPath, opts.Grammar)
	if err != nil {
		return err
	}

	gpath, err := grammarPath(cfg, opts.ConfigPath, opts.Grammar)
	if err != nil {
		return err
	}

	if err := watcher.WatchDir(filepath.Dir(gpath)); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	// Each run writes the rule profile. Exclude it so a profile living next
	// to the grammar does not retrigger the loop.
	ppath := opts.Profile
	if ppath == "" {
		ppath = resolveFrom(opts.ConfigPath, cfg.Profile)
	}
	if ppath != "" {
		watcher.Ignore(ppath)
	}

	runOpts := RunOptions{
		ConfigPath: opts.ConfigPath,
		Grammar:    opts.Grammar,
		Profile:    opts.Profile,
		Groups:     opts.Groups,
	}

	runNumber := 1
	runErr := s.Run(ctx, runOpts)
	if callback != nil {
		callback(runNumber, runErr)
	}

	events := watcher.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			runNumber++
			runErr := s.Run(ctx, runOpts)
			if callback != nil {
				callback(runNumber, runErr)
			}
		}
	}
}
