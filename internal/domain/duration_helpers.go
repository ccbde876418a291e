package domain

import "time"

// Timeout returns the per-probe timeout, applying defaults.
func (c ProbeConfig) Timeout() time.Duration {
	return SecondsToDuration(c.TimeoutSeconds, DefaultProbeTimeoutSeconds)
}

// Timeout returns the per-classification timeout, applying defaults.
func (c ClassifierConfig) Timeout() time.Duration {
	return SecondsToDuration(c.TimeoutSeconds, DefaultClassifierTimeoutSeconds)
}

// Debounce returns how long manifest changes are coalesced before a rescan.
func (c WatchConfig) Debounce() time.Duration {
	millis := c.DebounceMillis
	if millis <= 0 {
		millis = DefaultWatchDebounceMillis
	}
	return time.Duration(millis) * time.Millisecond
}

// SecondsToDuration converts seconds to a duration, using def when seconds is not positive.
func SecondsToDuration(seconds int, def int) time.Duration {
	if seconds <= 0 {
		seconds = def
	}
	return time.Duration(seconds) * time.Second
}
