package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type scanContextKey struct{}

// ScanMeta identifies one scan run in logs.
type ScanMeta struct {
	ScanID  string
	TraceID string
	SpanID  string
}

func (m ScanMeta) IsZero() bool {
	return m.ScanID == "" && m.TraceID == "" && m.SpanID == ""
}

func WithScanMeta(ctx context.Context, meta ScanMeta) context.Context {
	if meta.IsZero() {
		return ctx
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, scanContextKey{}, meta)
}

func ScanMetaFromContext(ctx context.Context) (ScanMeta, bool) {
	if ctx == nil {
		return ScanMeta{}, false
	}
	meta, ok := ctx.Value(scanContextKey{}).(ScanMeta)
	return meta, ok && !meta.IsZero()
}

func NewScanID() string {
	return uuid.NewString()
}

func TraceSpanFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return "", ""
	}
	return spanCtx.TraceID().String(), spanCtx.SpanID().String()
}

// EnsureScanMeta attaches a scan ID to ctx, reusing an existing one.
func EnsureScanMeta(ctx context.Context) (context.Context, ScanMeta) {
	if existing, ok := ScanMetaFromContext(ctx); ok && existing.ScanID != "" {
		return ctx, existing
	}
	traceID, spanID := TraceSpanFromContext(ctx)
	meta := ScanMeta{
		ScanID:  NewScanID(),
		TraceID: traceID,
		SpanID:  spanID,
	}
	return WithScanMeta(ctx, meta), meta
}

func ScanFields(meta ScanMeta) []zap.Field {
	if meta.IsZero() {
		return nil
	}
	fields := make([]zap.Field, 0, 3)
	if meta.ScanID != "" {
		fields = append(fields, ScanIDField(meta.ScanID))
	}
	if meta.TraceID != "" {
		fields = append(fields, TraceIDField(meta.TraceID))
	}
	if meta.SpanID != "" {
		fields = append(fields, SpanIDField(meta.SpanID))
	}
	return fields
}

func LoggerWithScan(ctx context.Context, base *zap.Logger) *zap.Logger {
	logger := base
	if logger == nil {
		logger = zap.NewNop()
	}
	meta, ok := ScanMetaFromContext(ctx)
	if !ok {
		return logger
	}
	return logger.With(ScanFields(meta)...)
}
