package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ajitpratap0/marquee/internal/metrics"
	"github.com/ajitpratap0/marquee/internal/models"
	"github.com/ajitpratap0/marquee/internal/source"
	"github.com/ajitpratap0/marquee/internal/timeline"
)

// DefaultDebounce is how long Watch waits for writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Loader owns the current model and replaces it wholesale on every
// successful load. Readers never observe a partially built model.
type Loader struct {
	fetcher source.Fetcher
	opts    Options
	logger  *slog.Logger

	current atomic.Pointer[timeline.Model]
	mu      sync.Mutex // serializes loads
	lastErr error
}

// NewLoader creates a loader holding an empty model.
func NewLoader(fetcher source.Fetcher, opts Options, logger *slog.Logger) *Loader {
	l := &Loader{fetcher: fetcher, opts: opts, logger: logger}
	l.current.Store(timeline.Empty(logger))
	return l
}

// Current returns the latest model. It is never nil.
func (l *Loader) Current() *timeline.Model {
	return l.current.Load()
}

// Load runs the pipeline and swaps in the result. On failure the previous
// model stays current.
func (l *Loader) Load(ctx context.Context) (*timeline.Model, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	metrics.Inc(metrics.LoadsTotal)
	model, err := Run(ctx, l.fetcher, l.opts, l.logger)
	if err != nil {
		metrics.Inc(metrics.LoadFailuresTotal)
		l.lastErr = err
		return l.Current(), fmt.Errorf("load timeline: %w", err)
	}

	l.lastErr = nil
	l.current.Store(model)
	stats := model.Stats()
	metrics.Productions.Set(int64(stats.Productions))
	metrics.Lanes.Set(int64(stats.Lanes))
	return model, nil
}

// LastError returns the error of the most recent load, if it failed.
func (l *Loader) LastError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// Diagnostics returns the current model's diagnostics, followed by a
// fetch_failure entry when the most recent load failed.
func (l *Loader) Diagnostics() []models.Diagnostic {
	diags := l.Current().Diagnostics()
	if err := l.LastError(); err != nil {
		diags = append(diags, models.Diagnostic{
			Kind:    models.DiagFetchFailure,
			Message: fmt.Sprintf("loading %s: %v", l.Location(), err),
		})
	}
	return diags
}

// Location returns the source location.
func (l *Loader) Location() string {
	return l.fetcher.Location()
}

// Watch reloads whenever the file at path is written, renamed into place
// or recreated, coalescing bursts of events over debounce. It blocks until
// ctx is done.
func (l *Loader) Watch(ctx context.Context, path string, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch source: creating watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch source: resolving %s: %w", path, err)
	}
	// Editors replace files by rename, so watch the directory and filter.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch source: adding %s: %w", filepath.Dir(abs), err)
	}
	l.logger.Info("watching source", "path", abs)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			l.logger.Debug("source changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(debounce)

		case <-timer.C:
			if _, err := l.Load(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				l.logger.Warn("reload failed; keeping previous timeline", "error", err)
				continue
			}
			l.logger.Info("reloaded timeline", "generation", l.Current().Generation)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("watcher error", "error", err)
		}
	}
}
