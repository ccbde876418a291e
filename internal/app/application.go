package app

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"mcpshadow/internal/domain"
	"mcpshadow/internal/infra/telemetry"
)

// Application wires the scan engine and its observability.
type Application struct {
	settings domain.Settings
	logger   *zap.Logger
	registry *prometheus.Registry
	health   *telemetry.HealthTracker
	engine   *Engine
}

// ApplicationOptions captures dependencies and settings for Application.
type ApplicationOptions struct {
	Settings domain.Settings
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Health   *telemetry.HealthTracker
	Engine   *Engine
}

// NewApplication constructs the application runtime.
func NewApplication(opts ApplicationOptions) *Application {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Application{
		settings: opts.Settings,
		logger:   logger,
		registry: opts.Registry,
		health:   opts.Health,
		engine:   opts.Engine,
	}
}

func (a *Application) Settings() domain.Settings {
	return a.settings
}

func (a *Application) Engine() *Engine {
	return a.engine
}

// Scan runs a single scan against the configured manifest.
func (a *Application) Scan(ctx context.Context) (domain.Report, error) {
	return a.engine.Run(ctx, a.settings.ManifestPath)
}

// Watch rescans whenever the manifest changes and serves /metrics and
// /healthz until ctx is done.
func (a *Application) Watch(ctx context.Context, onReport ReportHandler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := telemetry.NewObservabilityServer(telemetry.ObservabilityServerOptions{
		Config:     a.settings.Observability,
		Gatherer:   a.registry,
		Health:     a.health,
		StaleAfter: rescanBudget(a.settings),
		Logger:     a.logger,
	})
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run(ctx)
	}()

	watcher := NewWatcher(WatcherOptions{
		Engine:       a.engine,
		ManifestPath: a.settings.ManifestPath,
		Debounce:     a.settings.Watch.Debounce(),
		OnReport:     onReport,
		Health:       a.health,
		Logger:       a.logger,
	})

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- watcher.Run(ctx)
	}()

	select {
	case err := <-serverErr:
		cancel()
		<-watchErr
		return err
	case err := <-watchErr:
		cancel()
		<-serverErr
		return err
	}
}

// rescanBudget is how long a manifest change may go unscanned before the
// watcher counts as stale: the debounce, plus one probe and one
// classification per job, doubled for queueing behind the pool.
func rescanBudget(settings domain.Settings) time.Duration {
	perJob := settings.Probe.Timeout() + settings.Classifier.Timeout()
	return settings.Watch.Debounce() + 2*perJob
}
