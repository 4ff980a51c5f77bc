package domain

import "time"

// AuditLog records one arbitration outcome for a session.
type AuditLog struct {
	ID        string
	UserID    string
	SessionID string
	// Action is the arbitration outcome: auto_approve, approve, deny, or expire.
	Action    string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
