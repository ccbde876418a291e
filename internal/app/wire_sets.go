//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

var CoreInfraSet = wire.NewSet(
	NewLogging,
	NewLogger,
	NewMetricsRegistry,
	NewMetrics,
	NewHealthTracker,
)

var ScanSet = wire.NewSet(
	NewManifestLoader,
	NewConfigScanner,
	NewProcessScanner,
	NewToolFetcher,
	NewClassifier,
	NewEngineProvider,
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	ScanSet,
	wire.Struct(new(ApplicationOptions), "Settings", "Logger", "Registry", "Health", "Engine"),
	NewApplication,
)
