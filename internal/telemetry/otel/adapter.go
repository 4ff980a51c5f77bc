// Package otel provides an OpenTelemetry LoggerProvider configured with an
// OTLP exporter, and a telemetry.Reporter that emits events as log records.
package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"active-session-gateway/internal/telemetry"
)

// NewReporter returns a Reporter that sends events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op reporter.
func NewReporter(provider *sdklog.LoggerProvider) telemetry.Reporter {
	if provider == nil {
		return noopReporter{}
	}
	return &otelReporter{logger: provider.Logger("asg.arbitration")}
}

type noopReporter struct{}

func (noopReporter) Report(context.Context, telemetry.Event) error { return nil }

type otelReporter struct {
	logger otellog.Logger
}

// Report converts the event to an OTel log record and emits it. Best-effort.
func (r *otelReporter) Report(ctx context.Context, e telemetry.Event) error {
	rec := otellog.Record{}
	if !e.CreatedAt.IsZero() {
		rec.SetTimestamp(e.CreatedAt)
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	if e.EventType != "" {
		rec.SetBody(otellog.StringValue(e.EventType))
		rec.AddAttributes(otellog.String("event_type", e.EventType))
	}
	if e.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", e.UserID))
	}
	if e.SessionID != "" {
		rec.AddAttributes(otellog.String("session_id", e.SessionID))
	}
	if e.Detail != "" {
		rec.AddAttributes(otellog.String("detail", e.Detail))
	}
	if e.Err != nil {
		rec.SetSeverity(otellog.SeverityError)
		rec.AddAttributes(otellog.String("error", e.Err.Error()))
	} else {
		rec.SetSeverity(otellog.SeverityInfo)
	}
	r.logger.Emit(ctx, rec)
	return nil
}
