package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"mcpshadow/internal/domain"
	"mcpshadow/internal/infra/classifier"
	"mcpshadow/internal/infra/configscan"
	"mcpshadow/internal/infra/manifest"
	"mcpshadow/internal/infra/probe"
	"mcpshadow/internal/infra/procscan"
	"mcpshadow/internal/infra/telemetry"
)

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	registry.MustRegister(prometheus.NewGoCollector())
	return registry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func NewHealthTracker() *telemetry.HealthTracker {
	return telemetry.NewHealthTracker()
}

func NewManifestLoader(logger *zap.Logger) domain.ManifestLoader {
	return manifest.NewLoader(logger)
}

func NewConfigScanner(logger *zap.Logger, metrics domain.Metrics) domain.ConfigScanner {
	return configscan.NewScanner(configscan.ScannerOptions{
		Logger:  logger,
		Metrics: metrics,
	})
}

func NewProcessScanner(settings domain.Settings, logger *zap.Logger, metrics domain.Metrics) domain.ProcessScanner {
	return procscan.NewScanner(procscan.ScannerOptions{
		Keywords: settings.Process.Keywords,
		Logger:   logger,
		Metrics:  metrics,
	})
}

func NewToolFetcher(settings domain.Settings, logger *zap.Logger) domain.ToolFetcher {
	return probe.NewToolsProbe(probe.ToolsProbeOptions{
		Timeout: settings.Probe.Timeout(),
		Mode:    settings.Probe.Mode,
		Logger:  logger,
	})
}

// NewClassifier returns a nil interface when no API key is configured.
func NewClassifier(ctx context.Context, settings domain.Settings, logger *zap.Logger, metrics domain.Metrics) (domain.Classifier, error) {
	c, err := classifier.New(ctx, classifier.Options{
		Config:  settings.Classifier,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	return c, nil
}

func NewEngineProvider(
	settings domain.Settings,
	manifests domain.ManifestLoader,
	configs domain.ConfigScanner,
	processes domain.ProcessScanner,
	fetcher domain.ToolFetcher,
	classifier domain.Classifier,
	metrics domain.Metrics,
	health *telemetry.HealthTracker,
	logger *zap.Logger,
) *Engine {
	return NewEngine(EngineOptions{
		Manifests:   manifests,
		Configs:     configs,
		Processes:   processes,
		Fetcher:     fetcher,
		Classifier:  classifier,
		Concurrency: settings.Probe.Concurrency,
		ProbeMode:   settings.Probe.Mode,
		Logger:      logger,
		Metrics:     metrics,
		Health:      health,
	})
}
