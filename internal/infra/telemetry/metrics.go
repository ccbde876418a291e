package telemetry

import (
	"time"

	"mcpshadow/internal/domain"
)

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveScan(_ string, _ time.Duration, _ error) {}

func (n *NoopMetrics) ObserveRecords(_ string, _ int) {}

func (n *NoopMetrics) ObserveSkipped(_ domain.ErrorCode) {}

func (n *NoopMetrics) ObserveProbe(_ string, _ domain.ProbeMode, _ time.Duration, _ bool) {}

func (n *NoopMetrics) ObserveClassification(_ string, _ string, _ time.Duration, _ error) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
