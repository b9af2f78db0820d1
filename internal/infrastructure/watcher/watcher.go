package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// grammarExts are the grammar file formats watched by default.
var grammarExts = []string{".yaml", ".yml", ".json", ".jsonc"}

// Watcher watches a grammar directory and reports edits to grammar files.
// Paths registered with Ignore are excluded, so a run that writes its rule
// profile next to the grammar cannot retrigger itself.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	exts     map[string]struct{}
	ignored  map[string]struct{}
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets how long the watcher waits after the last edit before
// emitting an event.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithExtensions replaces the default grammar file extensions.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		w.exts = make(map[string]struct{}, len(exts))
		for _, e := range exts {
			w.exts[e] = struct{}{}
		}
	}
}

// New creates a watcher for grammar files. By default it reacts to .yaml,
// .yml, .json, and .jsonc edits.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: 500 * time.Millisecond,
		exts:     make(map[string]struct{}, len(grammarExts)),
		ignored:  make(map[string]struct{}),
	}
	for _, e := range grammarExts {
		w.exts[e] = struct{}{}
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Ignore excludes the given files from change detection. Register artifact
// paths here before calling Events.
func (w *Watcher) Ignore(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		w.ignored[filepath.Clean(p)] = struct{}{}
	}
}

// WatchDir adds a directory and its subdirectories to the watch list.
// Hidden directories and dependency trees are skipped.
func (w *Watcher) WatchDir(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if path != root && (strings.HasPrefix(base, ".") || base == "vendor" || base == "node_modules") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Events returns a channel that emits when a grammar file changes. Bursts
// of edits within the debounce window collapse into a single event.
func (w *Watcher) Events(ctx context.Context) <-chan struct{} {
	out := make(chan struct{})

	go func() {
		defer close(out)

		var timer *time.Timer
		var timerCh <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if !w.relevant(event) {
					continue
				}

				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C

			case <-timerCh:
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
				timerCh = nil

			case _, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				// Keep watching through transient errors.
			}
		}
	}()

	return out
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// relevant reports whether an event is a grammar edit worth reacting to.
// Editor backup files and registered artifact paths are skipped.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	if _, skip := w.ignored[name]; skip {
		return false
	}
	base := filepath.Base(name)
	if strings.HasSuffix(base, "~") || strings.HasPrefix(base, ".#") {
		return false
	}
	_, ok := w.exts[filepath.Ext(base)]
	return ok
}
