package repository

import (
	"context"

	"active-session-gateway/internal/session/domain"
)

// Repository defines persistence for session status. Implementations are the
// durable side of arbitration; the in-memory connection registry never
// touches this store.
type Repository interface {
	// Create persists a new session row. The session must have ID and UserID set.
	Create(ctx context.Context, s *domain.Session) error
	// GetByID returns the session for id, or nil if not found.
	// It returns an error only for store failures, not for missing rows.
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// UpdateStatus sets the session's status. Updating a missing session is
	// not an error: the caller fires and forgets, and close events may race
	// with earlier removals.
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
}
