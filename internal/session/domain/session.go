// Package domain holds the session model for single-active-session arbitration.
package domain

import "time"

// Status is the lifecycle state of a login session.
type Status string

const (
	// StatusRequested is the initial state when a client begins registration.
	StatusRequested Status = "requested"
	// StatusPendingApproval means existing connections were asked to approve or deny.
	StatusPendingApproval Status = "pending_approval"
	// StatusApproved is terminal; the session stays open.
	StatusApproved Status = "approved"
	// StatusDenied is terminal; the connection is closed.
	StatusDenied Status = "denied"
	// StatusExpired is terminal; set when a connection closes or is displaced.
	StatusExpired Status = "expired"
)

// Valid reports whether s is one of the five lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusRequested, StatusPendingApproval, StatusApproved, StatusDenied, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether s ends the lifecycle of a login attempt.
// A denied or expired session id is never reused.
func (s Status) Terminal() bool {
	return s == StatusDenied || s == StatusExpired
}

// CanTransition reports whether the state machine allows moving from s to next.
//
//	requested → pending_approval | approved | denied | expired
//	pending_approval → approved | denied | expired
//	approved → expired
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusRequested:
		return next == StatusPendingApproval || next == StatusApproved ||
			next == StatusDenied || next == StatusExpired
	case StatusPendingApproval:
		return next == StatusApproved || next == StatusDenied || next == StatusExpired
	case StatusApproved:
		return next == StatusExpired
	}
	return false
}

// TransitionSources returns the statuses from which next is reachable.
// Stores use it to apply status writes conditionally, so a write that arrives
// out of order cannot regress a session that already settled.
func TransitionSources(next Status) []Status {
	all := []Status{StatusRequested, StatusPendingApproval, StatusApproved, StatusDenied, StatusExpired}
	var out []Status
	for _, s := range all {
		if s.CanTransition(next) {
			out = append(out, s)
		}
	}
	return out
}

// Session represents one login attempt. The status is the only durable
// artifact; the connection carrying it is ephemeral and never persisted.
type Session struct {
	ID         string
	UserID     string
	Status     Status
	DeviceInfo string
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
