// Package audit records arbitration outcomes. Writes are best-effort and
// never block or fail the protocol.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"active-session-gateway/internal/audit/domain"
	auditrepo "active-session-gateway/internal/audit/repository"
)

// Recorder writes a single audit event for an arbitration outcome.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type Recorder interface {
	LogEvent(ctx context.Context, userID, sessionID, action, ip, metadata string)
}

// Logger implements Recorder using the audit repository.
type Logger struct {
	repo auditrepo.Repository
}

// NewLogger returns a Recorder that persists to repo. repo may be nil; then
// LogEvent is a no-op.
func NewLogger(repo auditrepo.Repository) *Logger {
	return &Logger{repo: repo}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, userID, sessionID, action, ip, metadata string) {
	if l.repo == nil {
		return
	}
	if ip == "" {
		ip = "unknown"
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		SessionID: sessionID,
		Action:    action,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, sessionID, err)
	}
}
