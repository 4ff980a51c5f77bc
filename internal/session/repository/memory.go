package repository

import (
	"context"
	"sync"
	"time"

	"active-session-gateway/internal/session/domain"
)

// MemoryRepository is an in-memory Repository implementation for development
// (no DATABASE_URL) and tests.
type MemoryRepository struct {
	mu sync.RWMutex
	m  map[string]*domain.Session
}

// NewMemoryRepository returns a new in-memory session repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]*domain.Session)}
}

// Create stores a copy of the session.
func (r *MemoryRepository) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	cp.UpdatedAt = cp.CreatedAt
	r.m[s.ID] = &cp
	return nil
}

// GetByID returns a copy of the session for id, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.m[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

// UpdateStatus sets the session's status. A missing session or an illegal
// transition is a no-op; writes are fired asynchronously and may arrive after
// the session has settled.
func (r *MemoryRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok {
		return nil
	}
	if !s.Status.CanTransition(status) {
		return nil
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	return nil
}
