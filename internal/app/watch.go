package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"mcpshadow/internal/domain"
	"mcpshadow/internal/infra/telemetry"
)

// ReportHandler receives the report of every completed scan. A returned error
// stops the watcher.
type ReportHandler func(domain.Report) error

// Watcher rescans whenever the manifest file changes.
type Watcher struct {
	engine       *Engine
	manifestPath string
	debounce     time.Duration
	onReport     ReportHandler
	health       *telemetry.HealthTracker
	logger       *zap.Logger
}

type WatcherOptions struct {
	Engine       *Engine
	ManifestPath string
	Debounce     time.Duration
	OnReport     ReportHandler
	// Health, when set, is told about manifest changes awaiting a rescan.
	Health *telemetry.HealthTracker
	Logger *zap.Logger
}

func NewWatcher(opts WatcherOptions) *Watcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = time.Duration(domain.DefaultWatchDebounceMillis) * time.Millisecond
	}
	onReport := opts.OnReport
	if onReport == nil {
		onReport = func(domain.Report) error { return nil }
	}
	return &Watcher{
		engine:       opts.Engine,
		manifestPath: opts.ManifestPath,
		debounce:     debounce,
		onReport:     onReport,
		health:       opts.Health,
		logger:       logger.Named("watch"),
	}
}

// Run scans once, then again after every debounced manifest change, until ctx
// is done. A manifest that fails to load is logged and the watcher keeps
// waiting for the next change.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create manifest watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.manifestPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	if err := w.scan(ctx); err != nil {
		return err
	}

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("manifest watcher error", zap.Error(err))
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isManifestEvent(event, w.manifestPath) {
				continue
			}
			if w.health != nil {
				w.health.MarkManifestChanged(time.Now())
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		case <-timerChan(timer):
			timer = nil
			w.logger.Info("manifest changed", telemetry.EventField(telemetry.EventManifestChanged))
			if err := w.scan(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) scan(ctx context.Context) error {
	report, err := w.engine.Run(ctx, w.manifestPath)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		w.logger.Warn("scan failed", zap.Error(err))
		return nil
	}
	return w.onReport(report)
}

func isManifestEvent(event fsnotify.Event, manifestPath string) bool {
	if event.Name == "" || manifestPath == "" {
		return false
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(manifestPath)
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}
