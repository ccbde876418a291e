package configscan

import (
	"sync"
	"time"

	"mcpshadow/internal/domain"
)

type recordingMetrics struct {
	mu      sync.Mutex
	skipped []domain.ErrorCode
	records map[string]int
}

func (m *recordingMetrics) ObserveScan(_ string, _ time.Duration, _ error) {}

func (m *recordingMetrics) ObserveRecords(source string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		m.records = make(map[string]int)
	}
	m.records[source] += count
}

func (m *recordingMetrics) ObserveSkipped(code domain.ErrorCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped = append(m.skipped, code)
}

func (m *recordingMetrics) ObserveProbe(_ string, _ domain.ProbeMode, _ time.Duration, _ bool) {}

func (m *recordingMetrics) ObserveClassification(_ string, _ string, _ time.Duration, _ error) {}
