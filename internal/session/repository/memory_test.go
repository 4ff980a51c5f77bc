package repository

import (
	"context"
	"sync"
	"testing"

	"active-session-gateway/internal/session/domain"
)

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	err := repo.Create(ctx, &domain.Session{
		ID:         "s1",
		UserID:     "u1",
		Status:     domain.StatusRequested,
		DeviceInfo: "Pixel 9",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	s, err := repo.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if s == nil {
		t.Fatal("GetByID should return the created session")
	}
	if s.UserID != "u1" {
		t.Errorf("UserID = %q, want %q", s.UserID, "u1")
	}
	if s.Status != domain.StatusRequested {
		t.Errorf("Status = %q, want %q", s.Status, domain.StatusRequested)
	}
	if s.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set on Create")
	}
}

func TestMemoryRepository_GetByID_Missing(t *testing.T) {
	repo := NewMemoryRepository()

	s, err := repo.GetByID(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if s != nil {
		t.Error("GetByID should return nil for a missing session")
	}
}

func TestMemoryRepository_UpdateStatus(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, &domain.Session{ID: "s1", UserID: "u1", Status: domain.StatusRequested}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.UpdateStatus(ctx, "s1", domain.StatusApproved); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	s, err := repo.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if s.Status != domain.StatusApproved {
		t.Errorf("Status = %q, want %q", s.Status, domain.StatusApproved)
	}
}

func TestMemoryRepository_UpdateStatus_Missing(t *testing.T) {
	repo := NewMemoryRepository()

	if err := repo.UpdateStatus(context.Background(), "nonexistent", domain.StatusExpired); err != nil {
		t.Errorf("UpdateStatus on a missing session should be a no-op, got %v", err)
	}
}

func TestMemoryRepository_UpdateStatus_IgnoresIllegalTransition(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, &domain.Session{ID: "s1", UserID: "u1", Status: domain.StatusRequested}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.UpdateStatus(ctx, "s1", domain.StatusApproved); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	// A stale pending_approval write landing after approval must not regress.
	if err := repo.UpdateStatus(ctx, "s1", domain.StatusPendingApproval); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	s, _ := repo.GetByID(ctx, "s1")
	if s.Status != domain.StatusApproved {
		t.Errorf("Status = %q, want %q", s.Status, domain.StatusApproved)
	}
}

func TestMemoryRepository_GetReturnsCopy(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, &domain.Session{ID: "s1", UserID: "u1", Status: domain.StatusRequested}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	s, _ := repo.GetByID(ctx, "s1")
	s.Status = domain.StatusDenied

	again, _ := repo.GetByID(ctx, "s1")
	if again.Status != domain.StatusRequested {
		t.Error("mutating a returned session must not affect the stored one")
	}
}

func TestMemoryRepository_ConcurrentAccess(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			sid := "s" + string(rune('0'+id))
			_ = repo.Create(ctx, &domain.Session{ID: sid, UserID: "u1", Status: domain.StatusRequested})
			_ = repo.UpdateStatus(ctx, sid, domain.StatusApproved)
			_, _ = repo.GetByID(ctx, sid)
		}(i)
	}
	wg.Wait()
}
