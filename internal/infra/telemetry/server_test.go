package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpshadow/internal/domain"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

func getHealth(t *testing.T, handler http.Handler) (int, HealthReport) {
	t.Helper()
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var report HealthReport
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&report))
	return recorder.Code, report
}

func TestObservabilityServer_HealthLifecycle(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fixedClock{now: base}
	tracker := NewHealthTracker()
	server := NewObservabilityServer(ObservabilityServerOptions{
		Health:     tracker,
		StaleAfter: 10 * time.Second,
		Now:        clock.Now,
	})
	handler := server.Handler()

	code, report := getHealth(t, handler)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, HealthStarting, report.Status)

	tracker.RecordScan(ScanResult{ScanID: "scan-1", Started: base, Finished: base.Add(time.Second), Confirmed: 2, Candidates: 1})
	clock.now = base.Add(5 * time.Second)
	code, report = getHealth(t, handler)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, HealthOK, report.Status)
	assert.Equal(t, "scan-1", report.LastScanID)
	assert.Equal(t, 2, report.Confirmed)
	assert.Equal(t, 1, report.Candidates)
	assert.InDelta(t, 4.0, report.LastScanAgeSeconds, 0.001)

	tracker.MarkManifestChanged(base.Add(6 * time.Second))
	clock.now = base.Add(10 * time.Second)
	code, report = getHealth(t, handler)
	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, report.PendingSince)

	clock.now = base.Add(20 * time.Second)
	code, report = getHealth(t, handler)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, HealthStale, report.Status)

	tracker.RecordScan(ScanResult{ScanID: "scan-2", Started: base.Add(19 * time.Second), Finished: base.Add(20 * time.Second)})
	code, report = getHealth(t, handler)
	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, report.PendingSince)
	assert.Equal(t, 2, report.ScansTotal)
}

func TestObservabilityServer_FailedScanIsDegraded(t *testing.T) {
	now := time.Now()
	tracker := NewHealthTracker()
	tracker.RecordScan(ScanResult{ScanID: "scan-1", Started: now, Finished: now, Err: errors.New("manifest not found")})

	code, report := getHealth(t, NewObservabilityServer(ObservabilityServerOptions{Health: tracker}).Handler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, HealthDegraded, report.Status)
	assert.Equal(t, "manifest not found", report.LastError)
	assert.Equal(t, 1, report.ScansFailed)
}

func TestHealthTracker_ScanStartedBeforeChangeKeepsPending(t *testing.T) {
	base := time.Now()
	tracker := NewHealthTracker()
	tracker.MarkManifestChanged(base)
	tracker.RecordScan(ScanResult{ScanID: "old", Started: base.Add(-time.Second), Finished: base.Add(time.Second)})

	report := tracker.Report(base.Add(time.Minute), 10*time.Second)
	assert.Equal(t, HealthStale, report.Status)

	report = tracker.Report(base.Add(time.Minute), 0)
	assert.Equal(t, HealthOK, report.Status)
}

func TestObservabilityServer_DefaultsFromConfig(t *testing.T) {
	server := NewObservabilityServer(ObservabilityServerOptions{})
	assert.Equal(t, domain.DefaultObservabilityListenAddress, server.Addr())

	server = NewObservabilityServer(ObservabilityServerOptions{Config: domain.ObservabilityConfig{ListenAddress: " 127.0.0.1:0 "}})
	assert.Equal(t, "127.0.0.1:0", server.Addr())
}

func TestObservabilityServer_RunServesMetrics(t *testing.T) {
	addr := freeAddr(t)

	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)
	metrics.ObserveRecords(domain.SourceConfig, 3)

	server := NewObservabilityServer(ObservabilityServerOptions{
		Config:   domain.ObservabilityConfig{ListenAddress: addr},
		Gatherer: registry,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run(ctx)
	}()

	url := fmt.Sprintf("http://%s/metrics", addr)
	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		body = string(data)
		return true
	}, 2*time.Second, 25*time.Millisecond)
	assert.Contains(t, body, "mcpshadow_servers_detected")

	cancel()
	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop in time")
	}
}

func TestObservabilityServer_PortInUse(t *testing.T) {
	listener := mustListen(t)
	defer listener.Close()

	server := NewObservabilityServer(ObservabilityServerOptions{
		Config: domain.ObservabilityConfig{ListenAddress: listener.Addr().String()},
	})
	err := server.Run(context.Background())
	require.Error(t, err)
}

func mustListen(t *testing.T) net.Listener {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skip test due to listen error: %v", err)
	}
	return listener
}

func freeAddr(t *testing.T) string {
	t.Helper()
	listener := mustListen(t)
	addr := listener.Addr().String()
	listener.Close()
	return addr
}
