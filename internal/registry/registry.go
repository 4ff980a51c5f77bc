// Package registry tracks the open connections of each user, keyed by
// session id. Pure in-memory bookkeeping; it has no transport or protocol
// knowledge and performs no I/O.
package registry

import (
	"context"
	"sync"

	"active-session-gateway/internal/protocol"
)

// Conn is a live bidirectional channel owned by the registry for its
// lifetime. The gateway's websocket connection implements it.
type Conn interface {
	// Send writes one frame to the peer. May block only on transport backpressure.
	Send(ctx context.Context, f protocol.Frame) error
	// Close tears down the underlying transport. Safe to call more than once.
	Close(reason string)
}

// Registry is the process-wide connection table: userId → (sessionId → Conn).
// It is constructed by the hosting server and passed by reference; there is
// no package-level instance. All methods are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	users map[string]map[string]Conn
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{users: make(map[string]map[string]Conn)}
}

// Register inserts the connection. Re-registering the same sessionId
// overwrites the previous entry (last writer wins).
func (r *Registry) Register(userID, sessionID string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inner, ok := r.users[userID]
	if !ok {
		inner = make(map[string]Conn)
		r.users[userID] = inner
	}
	inner[sessionID] = c
}

// Unregister removes the entry if present; a missing entry is a no-op since
// close events may race with prior removal. The user's inner map is dropped
// once empty.
func (r *Registry) Unregister(userID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inner, ok := r.users[userID]
	if !ok {
		return
	}
	delete(inner, sessionID)
	if len(inner) == 0 {
		delete(r.users, userID)
	}
}

// ListOthers returns every live connection for userID other than
// excludeSessionID. Order is unspecified; empty slice if none.
func (r *Registry) ListOthers(userID, excludeSessionID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inner := r.users[userID]
	out := make([]Conn, 0, len(inner))
	for sid, c := range inner {
		if sid != excludeSessionID {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the connection for userID/sessionID, or false if absent.
func (r *Registry) Find(userID, sessionID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.users[userID][sessionID]
	return c, ok
}

// Count returns the number of live connections for userID.
func (r *Registry) Count(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID])
}
