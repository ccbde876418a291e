package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldEvent      = "event"
	FieldScanID     = "scan_id"
	FieldPlatform   = "platform"
	FieldClient     = "client"
	FieldConfigPath = "config_path"
	FieldServerID   = "server_id"
	FieldPID        = "pid"
	FieldEndpoint   = "endpoint"
	FieldDurationMs = "duration_ms"
	FieldTraceID    = "trace_id"
	FieldSpanID     = "span_id"
)

const (
	EventScanStart        = "scan_start"
	EventScanComplete     = "scan_complete"
	EventProbeFailure     = "probe_failure"
	EventClassifyFailure  = "classify_failure"
	EventManifestChanged  = "manifest_changed"
	EventProcessScanError = "process_scan_error"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func ScanIDField(scanID string) zap.Field {
	return zap.String(FieldScanID, scanID)
}

func PlatformField(platform string) zap.Field {
	return zap.String(FieldPlatform, platform)
}

func ClientField(client string) zap.Field {
	return zap.String(FieldClient, client)
}

func ConfigPathField(path string) zap.Field {
	return zap.String(FieldConfigPath, path)
}

func ServerIDField(serverID string) zap.Field {
	return zap.String(FieldServerID, serverID)
}

func PIDField(pid int32) zap.Field {
	return zap.Int32(FieldPID, pid)
}

func EndpointField(endpoint string) zap.Field {
	return zap.String(FieldEndpoint, endpoint)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}

func TraceIDField(value string) zap.Field {
	return zap.String(FieldTraceID, value)
}

func SpanIDField(value string) zap.Field {
	return zap.String(FieldSpanID, value)
}
