package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of saves into one re-run.
const DefaultDebounce = 300 * time.Millisecond

// RunWatch runs the pipeline, then re-runs it whenever the project changes.
// It returns 0 once ctx is cancelled, or 1 if the watcher cannot start.
func RunWatch(ctx context.Context, opts RunOptions) int {
	logger := createLogger(opts)

	record, _ := runOnce(ctx, opts)

	root, exclude, err := watchTargets(opts, record)
	if err != nil {
		fmt.Fprintf(opts.stderr(), "covpipe: %v\n", err)
		return domain.ExitFailure
	}

	w, err := NewProjectWatcher(root, exclude, DefaultDebounce, logger)
	if err != nil {
		fmt.Fprintf(opts.stderr(), "covpipe: %v\n", err)
		return domain.ExitFailure
	}
	defer w.Close()

	for {
		fmt.Fprintf(opts.stdout(), ">>> Watching '%s' for changes (Ctrl+C to stop)\n", root)
		changed, err := w.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return domain.ExitSuccess
			}
			fmt.Fprintf(opts.stderr(), "covpipe: %v\n", err)
			return domain.ExitFailure
		}
		fmt.Fprintf(opts.stdout(), ">>> Change detected in '%s'\n", changed)
		logger.Info("Change detected, re-running pipeline", "path", changed)

		_, code := runOnce(ctx, opts)
		if ctx.Err() != nil {
			return domain.ExitSuccess
		}
		logger.Debug("Watch iteration finished", "exit_code", code)
	}
}

// watchTargets picks the project directory and excludes its build directory.
func watchTargets(opts RunOptions, record *domain.RunRecord) (string, []string, error) {
	if record != nil && record.ProjectDir != "" {
		return record.ProjectDir, []string{record.BuildDir}, nil
	}
	base, cfg, err := opts.load()
	if err != nil {
		return "", nil, err
	}
	layout := cfg.ResolveLayout(base)
	return layout.ProjectDir, []string{layout.BuildDir}, nil
}

// ProjectWatcher reports debounced changes below a directory tree.
type ProjectWatcher struct {
	watcher  *fsnotify.Watcher
	root     string
	exclude  []string
	debounce time.Duration
	logger   *slog.Logger
}

// NewProjectWatcher watches root recursively, skipping the excluded trees and
// hidden directories.
func NewProjectWatcher(root string, exclude []string, debounce time.Duration, logger *slog.Logger) (*ProjectWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	pw := &ProjectWatcher{
		watcher:  watcher,
		root:     filepath.Clean(root),
		debounce: debounce,
		logger:   logger,
	}
	for _, e := range exclude {
		pw.exclude = append(pw.exclude, filepath.Clean(e))
	}

	if err := pw.addTree(pw.root); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return pw, nil
}

// Close releases the underlying watcher.
func (pw *ProjectWatcher) Close() error {
	return pw.watcher.Close()
}

func (pw *ProjectWatcher) ignored(path string) bool {
	path = filepath.Clean(path)
	for _, e := range pw.exclude {
		if path == e || strings.HasPrefix(path, e+string(filepath.Separator)) {
			return true
		}
	}
	rel, err := filepath.Rel(pw.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if len(part) > 1 && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func (pw *ProjectWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path != dir {
				return nil
			}
			return fmt.Errorf("failed to walk %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != pw.root && pw.ignored(path) {
			return filepath.SkipDir
		}
		if err := pw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Wait blocks until a relevant change has settled for the debounce interval
// and returns the last changed path.
func (pw *ProjectWatcher) Wait(ctx context.Context) (string, error) {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		changed string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case event, ok := <-pw.watcher.Events:
			if !ok {
				return "", errors.New("watcher closed")
			}
			if !pw.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := pw.addTree(event.Name); err != nil {
						pw.logger.Warn("Failed to watch new directory", "path", event.Name, "err", err)
					}
				}
			}
			changed = event.Name
			if timer == nil {
				timer = time.NewTimer(pw.debounce)
			} else {
				timer.Reset(pw.debounce)
			}
			timerC = timer.C

		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return "", errors.New("watcher closed")
			}
			pw.logger.Warn("Watcher error", "err", err)

		case <-timerC:
			return changed, nil
		}
	}
}

func (pw *ProjectWatcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return !pw.ignored(event.Name)
}
