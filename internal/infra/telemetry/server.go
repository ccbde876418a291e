package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mcpshadow/internal/domain"
)

const shutdownTimeout = 5 * time.Second

// ObservabilityServer exposes scan metrics and watcher health while
// mcpshadow runs in watch mode.
type ObservabilityServer struct {
	addr       string
	gatherer   prometheus.Gatherer
	health     *HealthTracker
	staleAfter time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

type ObservabilityServerOptions struct {
	Config   domain.ObservabilityConfig
	Gatherer prometheus.Gatherer
	Health   *HealthTracker
	// StaleAfter is how long a manifest change may wait for its rescan
	// before /healthz reports stale.
	StaleAfter time.Duration
	Logger     *zap.Logger
	Now        func() time.Time
}

func NewObservabilityServer(opts ObservabilityServerOptions) *ObservabilityServer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	addr := strings.TrimSpace(opts.Config.ListenAddress)
	if addr == "" {
		addr = domain.DefaultObservabilityListenAddress
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	health := opts.Health
	if health == nil {
		health = NewHealthTracker()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ObservabilityServer{
		addr:       addr,
		gatherer:   gatherer,
		health:     health,
		staleAfter: opts.StaleAfter,
		now:        now,
		logger:     logger.Named("observability"),
	}
}

func (s *ObservabilityServer) Addr() string {
	return s.addr
}

// Handler serves /metrics and /healthz.
func (s *ObservabilityServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", s.serveHealth)
	return mux
}

func (s *ObservabilityServer) serveHealth(w http.ResponseWriter, _ *http.Request) {
	report := s.health.Report(s.now(), s.staleAfter)
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}

// Run listens until ctx is done. A bind failure is returned immediately.
func (s *ObservabilityServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("observability listener %s: %w", s.addr, err)
	}

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: shutdownTimeout,
	}
	s.logger.Info("observability server listening", zap.String("addr", listener.Addr().String()))

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("observability server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("observability server shutdown", zap.Error(err))
			return err
		}
		s.logger.Info("observability server stopped")
		return nil
	}
}
