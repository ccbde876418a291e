package domain

import "time"

// ScanStatus labels the outcome of a scan or a remote call.
type ScanStatus string

const (
	StatusSuccess ScanStatus = "success"
	StatusError   ScanStatus = "error"
)

// StatusOf maps an error to a status label.
func StatusOf(err error) ScanStatus {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// Metrics records scan observations.
type Metrics interface {
	ObserveScan(platform string, duration time.Duration, err error)
	ObserveRecords(source string, count int)
	ObserveSkipped(code ErrorCode)
	ObserveProbe(source string, mode ProbeMode, duration time.Duration, ok bool)
	ObserveClassification(provider string, model string, duration time.Duration, err error)
}
