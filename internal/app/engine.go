package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mcpshadow/internal/domain"
	"mcpshadow/internal/infra/telemetry"
)

const tracerName = "mcpshadow"

// PlatformKey maps a GOOS value onto the manifest's platform keys.
func PlatformKey(goos string) string {
	switch goos {
	case "darwin":
		return domain.PlatformDarwin
	case "linux":
		return domain.PlatformLinux
	case "windows":
		return domain.PlatformWindows
	default:
		return domain.PlatformUnknown
	}
}

// Engine runs one discovery scan per call to Run. It keeps no state between
// runs.
type Engine struct {
	manifests   domain.ManifestLoader
	configs     domain.ConfigScanner
	processes   domain.ProcessScanner
	fetcher     domain.ToolFetcher
	classifier  domain.Classifier
	platform    string
	concurrency int
	probeMode   domain.ProbeMode
	logger      *zap.Logger
	metrics     domain.Metrics
	health      *telemetry.HealthTracker
	tracer      trace.Tracer
}

type EngineOptions struct {
	Manifests domain.ManifestLoader
	Configs   domain.ConfigScanner
	Processes domain.ProcessScanner
	Fetcher   domain.ToolFetcher
	// Classifier may be nil, which disables security classification.
	Classifier  domain.Classifier
	Platform    string
	Concurrency int
	ProbeMode   domain.ProbeMode
	Logger      *zap.Logger
	Metrics     domain.Metrics
	Health      *telemetry.HealthTracker
	// Tracer defaults to the global provider, which records nothing until one
	// is installed.
	Tracer trace.Tracer
}

func NewEngine(opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	health := opts.Health
	if health == nil {
		health = telemetry.NewHealthTracker()
	}
	platform := opts.Platform
	if platform == "" {
		platform = PlatformKey(runtime.GOOS)
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = domain.DefaultProbeConcurrency
	}
	mode := opts.ProbeMode
	if mode == "" {
		mode = domain.DefaultProbeMode
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Engine{
		manifests:   opts.Manifests,
		configs:     opts.Configs,
		processes:   opts.Processes,
		fetcher:     opts.Fetcher,
		classifier:  opts.Classifier,
		platform:    platform,
		concurrency: concurrency,
		probeMode:   mode,
		logger:      logger.Named("engine"),
		metrics:     metrics,
		health:      health,
		tracer:      tracer,
	}
}

func (e *Engine) Platform() string {
	return e.platform
}

// Run performs a full scan. Only a manifest failure is returned as an error;
// every other failure is logged or recorded inside the report.
func (e *Engine) Run(ctx context.Context, manifestPath string) (domain.Report, error) {
	ctx, span := e.tracer.Start(ctx, "scan",
		trace.WithAttributes(
			attribute.String("mcpshadow.platform", e.platform),
			attribute.String("mcpshadow.manifest", manifestPath),
		),
	)
	defer span.End()

	ctx, meta := telemetry.EnsureScanMeta(ctx)
	span.SetAttributes(attribute.String("mcpshadow.scan_id", meta.ScanID))
	logger := telemetry.LoggerWithScan(ctx, e.logger).With(telemetry.PlatformField(e.platform))
	started := time.Now()

	logger.Info("scan started", telemetry.EventField(telemetry.EventScanStart), zap.String("manifest", manifestPath))

	manifest, err := e.manifests.Load(ctx, manifestPath)
	if err != nil {
		e.finish(meta, started, domain.NewReport(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "manifest load failed")
		logger.Error("manifest load failed", zap.Error(err))
		return domain.NewReport(), err
	}

	if e.platform == domain.PlatformUnknown {
		logger.Warn("unsupported platform", zap.String("goos", runtime.GOOS))
		e.finish(meta, started, domain.NewReport(), nil)
		return domain.NewReport(), nil
	}

	confirmed, candidates := e.discover(ctx, logger, manifest)
	e.enrich(ctx, logger, confirmed, candidates)

	report := domain.NewReport()
	report.MCPServersDetected = append(report.MCPServersDetected, confirmed...)
	report.PossibleMCPServersDetected = append(report.PossibleMCPServersDetected, candidates...)

	e.finish(meta, started, report, nil)
	span.SetAttributes(
		attribute.Int("mcpshadow.confirmed", len(confirmed)),
		attribute.Int("mcpshadow.candidates", len(candidates)),
	)
	logger.Info("scan complete",
		telemetry.EventField(telemetry.EventScanComplete),
		zap.Int("confirmed", len(confirmed)),
		zap.Int("candidates", len(candidates)),
		telemetry.DurationField(time.Since(started)),
	)
	return report, nil
}

func (e *Engine) finish(meta telemetry.ScanMeta, started time.Time, report domain.Report, err error) {
	finished := time.Now()
	e.metrics.ObserveScan(e.platform, finished.Sub(started), err)
	e.health.RecordScan(telemetry.ScanResult{
		ScanID:     meta.ScanID,
		Started:    started,
		Finished:   finished,
		Confirmed:  len(report.MCPServersDetected),
		Candidates: len(report.PossibleMCPServersDetected),
		Err:        err,
	})
}

// discover runs the config and process scans concurrently. Neither can fail
// the scan.
func (e *Engine) discover(ctx context.Context, logger *zap.Logger, manifest domain.Manifest) ([]domain.ConfirmedServer, []domain.CandidateServer) {
	var (
		confirmed  []domain.ConfirmedServer
		candidates []domain.CandidateServer
		group      errgroup.Group
	)

	group.Go(func() error {
		servers, err := e.configs.Scan(ctx, manifest, e.platform)
		if err != nil {
			if errors.Is(err, domain.ErrUnsupportedPlatform) {
				logger.Warn("platform not declared in manifest", zap.Error(err))
			} else {
				logger.Warn("config scan incomplete", zap.Error(err))
			}
		}
		confirmed = servers
		return nil
	})
	group.Go(func() error {
		found, err := e.processes.Scan(ctx)
		if err != nil {
			logger.Warn("process scan failed",
				telemetry.EventField(telemetry.EventProcessScanError),
				zap.Error(err),
			)
		}
		candidates = found
		return nil
	})
	_ = group.Wait()

	if confirmed == nil {
		confirmed = []domain.ConfirmedServer{}
	}
	if candidates == nil {
		candidates = []domain.CandidateServer{}
	}
	return confirmed, candidates
}

type probeJob struct {
	index    int
	source   string
	endpoint string
}

// enrich probes every reachable record through a bounded pool. Each job owns
// exactly one slice index, so results are written back without locking.
func (e *Engine) enrich(ctx context.Context, logger *zap.Logger, confirmed []domain.ConfirmedServer, candidates []domain.CandidateServer) {
	jobs := make([]probeJob, 0, len(confirmed)+len(candidates))
	for i := range confirmed {
		if endpoint := confirmed[i].Endpoint(); endpoint != "" {
			jobs = append(jobs, probeJob{index: i, source: domain.SourceConfig, endpoint: endpoint})
		}
	}
	for i := range candidates {
		// Only the first listening port is probed.
		if len(candidates[i].ListeningPorts) > 0 {
			endpoint := fmt.Sprintf("http://localhost:%d", candidates[i].ListeningPorts[0])
			jobs = append(jobs, probeJob{index: i, source: domain.SourceProcess, endpoint: endpoint})
		}
	}
	if len(jobs) == 0 {
		return
	}

	semaphore := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job probeJob) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				// The fetcher turns a done context into an error marker without dialing.
				e.runJob(ctx, logger, job, confirmed, candidates)
				return
			}
			defer func() { <-semaphore }()

			e.runJob(ctx, logger, job, confirmed, candidates)
		}(job)
	}
	wg.Wait()
}

func (e *Engine) runJob(ctx context.Context, logger *zap.Logger, job probeJob, confirmed []domain.ConfirmedServer, candidates []domain.CandidateServer) {
	started := time.Now()
	catalog := e.fetcher.FetchTools(ctx, job.endpoint)
	e.metrics.ObserveProbe(job.source, e.probeMode, time.Since(started), !catalog.Failed())

	if catalog.Failed() {
		logger.Debug("tool catalog probe failed",
			telemetry.EventField(telemetry.EventProbeFailure),
			telemetry.EndpointField(job.endpoint),
			zap.String("source", job.source),
			zap.String("error", catalog.Err),
		)
	}

	switch job.source {
	case domain.SourceConfig:
		server := &confirmed[job.index]
		server.ToolsFound = &catalog
		if catalog.Failed() || e.classifier == nil {
			return
		}
		assessment := e.classifier.Classify(ctx, *server, catalog)
		server.SecurityAnalysis = &assessment
	case domain.SourceProcess:
		if catalog.Failed() {
			return
		}
		candidate := &candidates[job.index]
		candidate.ToolsFound = &catalog
		if e.classifier == nil {
			return
		}
		assessment := e.classifier.Classify(ctx, *candidate, catalog)
		candidate.SecurityAnalysis = &assessment
	}
}
