package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"active-session-gateway/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the session to the database. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, status, device_info, ip_address, user_agent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		s.ID, s.UserID, string(s.Status),
		nullString(s.DeviceInfo), nullString(s.IPAddress), nullString(s.UserAgent),
		createdAt,
	)
	return err
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, device_info, ip_address, user_agent, created_at, updated_at
		FROM sessions WHERE id = $1`, id)

	var s domain.Session
	var status string
	var deviceInfo, ipAddress, userAgent sql.NullString
	err := row.Scan(&s.ID, &s.UserID, &status, &deviceInfo, &ipAddress, &userAgent, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Status = domain.Status(status)
	s.DeviceInfo = deviceInfo.String
	s.IPAddress = ipAddress.String
	s.UserAgent = userAgent.String
	return &s, nil
}

// UpdateStatus sets the session's status and bumps updated_at. The update is
// conditioned on the transition table: a missing session or an out-of-order
// write against a settled session affects zero rows and is not an error.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	sources := domain.TransitionSources(status)
	args := []any{id, string(status), time.Now().UTC()}
	placeholders := make([]string, len(sources))
	for i, s := range sources {
		placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
		args = append(args, string(s))
	}
	query := fmt.Sprintf(`
		UPDATE sessions SET status = $2, updated_at = $3
		WHERE id = $1 AND status IN (%s)`, strings.Join(placeholders, ", "))
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
