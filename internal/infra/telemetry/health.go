package telemetry

import (
	"sync"
	"time"
)

const (
	HealthStarting = "starting"
	HealthOK       = "ok"
	HealthDegraded = "degraded"
	HealthStale    = "stale"
)

// ScanResult summarizes one finished scan for the health endpoint.
type ScanResult struct {
	ScanID     string
	Started    time.Time
	Finished   time.Time
	Confirmed  int
	Candidates int
	Err        error
}

// HealthReport is served on /healthz.
type HealthReport struct {
	Status             string     `json:"status"`
	LastScanID         string     `json:"lastScanId,omitempty"`
	LastScanAt         *time.Time `json:"lastScanAt,omitempty"`
	LastScanAgeSeconds float64    `json:"lastScanAgeSeconds,omitempty"`
	LastError          string     `json:"lastError,omitempty"`
	Confirmed          int        `json:"confirmed"`
	Candidates         int        `json:"candidates"`
	PendingSince       *time.Time `json:"manifestChangePendingSince,omitempty"`
	ScansTotal         int        `json:"scansTotal"`
	ScansFailed        int        `json:"scansFailed"`
}

// Healthy reports whether the status should be served as 200.
func (r HealthReport) Healthy() bool {
	return r.Status == HealthOK
}

// HealthTracker remembers the most recent scan and any manifest change that
// has not been rescanned yet.
type HealthTracker struct {
	mu      sync.RWMutex
	last    *ScanResult
	pending time.Time
	total   int
	failed  int
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{}
}

// RecordScan stores result. A change is only settled by a scan that started
// after it, since an earlier scan may have read the old manifest.
func (h *HealthTracker) RecordScan(result ScanResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.total++
	if result.Err != nil {
		h.failed++
	}
	h.last = &result
	if !h.pending.IsZero() && !result.Started.Before(h.pending) {
		h.pending = time.Time{}
	}
}

// MarkManifestChanged records that the manifest changed at at and a rescan is owed.
func (h *HealthTracker) MarkManifestChanged(at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending.IsZero() {
		h.pending = at
	}
}

// Report evaluates health at now. A manifest change still unscanned after
// staleAfter marks the watcher stale; staleAfter <= 0 disables that check.
func (h *HealthTracker) Report(now time.Time, staleAfter time.Duration) HealthReport {
	h.mu.RLock()
	defer h.mu.RUnlock()

	report := HealthReport{
		Status:      HealthStarting,
		ScansTotal:  h.total,
		ScansFailed: h.failed,
	}
	if !h.pending.IsZero() {
		pending := h.pending
		report.PendingSince = &pending
	}
	if h.last == nil {
		return report
	}

	finished := h.last.Finished
	report.LastScanID = h.last.ScanID
	report.LastScanAt = &finished
	report.LastScanAgeSeconds = now.Sub(finished).Seconds()
	report.Confirmed = h.last.Confirmed
	report.Candidates = h.last.Candidates

	switch {
	case h.last.Err != nil:
		report.Status = HealthDegraded
		report.LastError = h.last.Err.Error()
	case staleAfter > 0 && !h.pending.IsZero() && now.Sub(h.pending) > staleAfter:
		report.Status = HealthStale
	default:
		report.Status = HealthOK
	}
	return report
}
