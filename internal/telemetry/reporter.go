// Package telemetry is the observability boundary for best-effort
// operations: fire-and-forget status writes and arbitration outcomes are
// reported here instead of being surfaced to clients.
package telemetry

import (
	"context"
	"log"
	"time"
)

// Event is one reportable occurrence in the arbitration core.
type Event struct {
	UserID    string
	SessionID string
	// EventType names what happened (e.g. "status_write_failed", "session_approved").
	EventType string
	// Detail is free-form context (e.g. the target status).
	Detail string
	// Err is set when the event records a failure.
	Err error
	// CreatedAt defaults to now when zero.
	CreatedAt time.Time
}

// Reporter records events (e.g. as OTel log records). Best-effort; callers
// log and ignore errors.
type Reporter interface {
	Report(ctx context.Context, e Event) error
}

// reportTimeout is the max time allowed for a single async report. Used by ReportAsync and by ShutdownDrainDuration.
const reportTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the HTTP server stops before
// shutting down the OTel provider, so in-flight async reports have time to
// complete. Must be >= reportTimeout.
const ShutdownDrainDuration = reportTimeout

// ReportAsync runs Report in a goroutine with a short timeout so the caller is
// not blocked. Use from connection handlers for fire-and-forget reporting;
// errors are logged.
//
// reporter may be nil; ReportAsync then returns without starting a goroutine.
// The goroutine uses context.Background() so connection teardown does not
// abort an in-flight report.
func ReportAsync(reporter Reporter, e Event) {
	if reporter == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()
		if err := reporter.Report(ctx, e); err != nil {
			log.Printf("telemetry: async report failed: %v", err)
		}
	}()
}
