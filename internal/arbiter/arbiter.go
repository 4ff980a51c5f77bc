// Package arbiter implements single-active-session arbitration: one approved
// session per user, with new sessions admitted either automatically or by the
// consent of an already-connected session.
package arbiter

import (
	"context"
	"log"
	"sync"
	"time"

	"active-session-gateway/internal/audit"
	"active-session-gateway/internal/protocol"
	"active-session-gateway/internal/registry"
	"active-session-gateway/internal/session/domain"
	sessionrepo "active-session-gateway/internal/session/repository"
	"active-session-gateway/internal/telemetry"
)

// statusWriteTimeout is the max time allowed for a single async status write.
const statusWriteTimeout = 5 * time.Second

// pendingRequest tracks a session awaiting approval from a peer connection.
type pendingRequest struct {
	userID string
	timer  *time.Timer
}

// Arbiter owns the arbitration state machine. It is constructed once by the
// hosting server and shared by every connection; all methods are safe for
// concurrent use.
type Arbiter struct {
	registry *registry.Registry
	sessions sessionrepo.Repository
	reporter telemetry.Reporter
	audit    audit.Recorder
	// timeout bounds the pending_approval wait; zero disables the bound.
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*pendingRequest
}

// New returns an arbiter over the given registry and session store.
// reporter and recorder may be nil. timeout <= 0 means a request stays
// pending until a peer responds or a side disconnects.
func New(reg *registry.Registry, sessions sessionrepo.Repository, reporter telemetry.Reporter, recorder audit.Recorder, timeout time.Duration) *Arbiter {
	return &Arbiter{
		registry: reg,
		sessions: sessions,
		reporter: reporter,
		audit:    recorder,
		timeout:  timeout,
		pending:  make(map[string]*pendingRequest),
	}
}

// HandleRequest arbitrates a session_request from the connection bound to
// req.SessionID. With no other connections for the user the session is
// approved immediately; otherwise the request is relayed to every other
// connection and the session waits in pending_approval.
func (a *Arbiter) HandleRequest(ctx context.Context, conn registry.Conn, req protocol.SessionRequest) {
	now := time.Now().UTC()
	if err := a.sessions.Create(ctx, &domain.Session{
		ID:         req.SessionID,
		UserID:     req.UserID,
		Status:     domain.StatusRequested,
		DeviceInfo: req.DeviceInfo,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		log.Printf("arbiter: create session %s: %v", req.SessionID, err)
		telemetry.ReportAsync(a.reporter, telemetry.Event{
			UserID: req.UserID, SessionID: req.SessionID,
			EventType: "session_create_failed", Err: err,
		})
	}

	others := a.registry.ListOthers(req.UserID, req.SessionID)
	if len(others) == 0 {
		if err := conn.Send(ctx, protocol.SessionApproval{UserID: req.UserID, SessionID: req.SessionID}); err != nil {
			log.Printf("arbiter: send auto-approval to %s: %v", req.SessionID, err)
		}
		a.writeStatusAsync(req.UserID, req.SessionID, domain.StatusApproved)
		a.logAudit(ctx, req.UserID, req.SessionID, "auto_approve", req.IPAddress, "no other connections")
		telemetry.ReportAsync(a.reporter, telemetry.Event{
			UserID: req.UserID, SessionID: req.SessionID, EventType: "session_approved", Detail: "auto",
		})
		return
	}

	a.addPending(req.UserID, req.SessionID)
	for _, peer := range others {
		if err := peer.Send(ctx, req); err != nil {
			log.Printf("arbiter: relay request %s: %v", req.SessionID, err)
		}
	}
	a.writeStatusAsync(req.UserID, req.SessionID, domain.StatusPendingApproval)
	telemetry.ReportAsync(a.reporter, telemetry.Event{
		UserID: req.UserID, SessionID: req.SessionID, EventType: "session_pending",
	})
}

// HandleApproval applies a session_approval sent by the connection bound to
// approverSessionID. The first response for a pending session wins; later
// approvals or denials for the same session are absorbed. The approver is
// displaced: its session expires and its connection is closed.
func (a *Arbiter) HandleApproval(ctx context.Context, approverSessionID string, f protocol.SessionApproval) {
	if !a.resolvePending(f.SessionID) {
		log.Printf("arbiter: approval for %s ignored, not pending", f.SessionID)
		return
	}

	requester, ok := a.registry.Find(f.UserID, f.SessionID)
	if !ok {
		return
	}
	if err := requester.Send(ctx, f); err != nil {
		log.Printf("arbiter: forward approval to %s: %v", f.SessionID, err)
	}

	if approverSessionID != f.SessionID {
		if approver, ok := a.registry.Find(f.UserID, approverSessionID); ok {
			a.writeStatusAsync(f.UserID, approverSessionID, domain.StatusExpired)
			a.registry.Unregister(f.UserID, approverSessionID)
			approver.Close("displaced by approved session")
		}
	}

	a.writeStatusAsync(f.UserID, f.SessionID, domain.StatusApproved)
	a.logAudit(ctx, f.UserID, f.SessionID, "approve", "", "approved by "+approverSessionID)
	telemetry.ReportAsync(a.reporter, telemetry.Event{
		UserID: f.UserID, SessionID: f.SessionID, EventType: "session_approved", Detail: approverSessionID,
	})
}

// HandleDenial applies a session_denial sent by the connection bound to
// denierSessionID. Only the denied requester is removed; every other
// connection is untouched.
func (a *Arbiter) HandleDenial(ctx context.Context, denierSessionID string, f protocol.SessionDenial) {
	if !a.resolvePending(f.SessionID) {
		log.Printf("arbiter: denial for %s ignored, not pending", f.SessionID)
		return
	}

	requester, ok := a.registry.Find(f.UserID, f.SessionID)
	if !ok {
		return
	}
	if err := requester.Send(ctx, f); err != nil {
		log.Printf("arbiter: forward denial to %s: %v", f.SessionID, err)
	}

	a.writeStatusAsync(f.UserID, f.SessionID, domain.StatusDenied)
	a.registry.Unregister(f.UserID, f.SessionID)
	requester.Close("session denied")
	a.logAudit(ctx, f.UserID, f.SessionID, "deny", "", "denied by "+denierSessionID)
	telemetry.ReportAsync(a.reporter, telemetry.Event{
		UserID: f.UserID, SessionID: f.SessionID, EventType: "session_denied", Detail: denierSessionID,
	})
}

// HandleDisconnect finalizes a dropped connection: the registry entry is
// removed, the session expires, and every remaining connection for the user
// is told. Safe to call again for a session already removed.
func (a *Arbiter) HandleDisconnect(ctx context.Context, userID, sessionID string) {
	a.registry.Unregister(userID, sessionID)
	a.resolvePending(sessionID)
	a.writeStatusAsync(userID, sessionID, domain.StatusExpired)

	note := protocol.SessionDisconnected{UserID: userID, SessionID: sessionID}
	for _, peer := range a.registry.ListOthers(userID, sessionID) {
		if err := peer.Send(ctx, note); err != nil {
			log.Printf("arbiter: notify disconnect of %s: %v", sessionID, err)
		}
	}
	telemetry.ReportAsync(a.reporter, telemetry.Event{
		UserID: userID, SessionID: sessionID, EventType: "session_disconnected",
	})
}

// addPending records the session as awaiting a response and arms the
// auto-deny timer when a timeout is configured.
func (a *Arbiter) addPending(userID, sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := &pendingRequest{userID: userID}
	if a.timeout > 0 {
		p.timer = time.AfterFunc(a.timeout, func() { a.timeoutDeny(userID, sessionID) })
	}
	a.pending[sessionID] = p
}

// resolvePending removes the session from the pending set. It reports whether
// this call was the one that resolved it; only the first caller acts on a
// response.
func (a *Arbiter) resolvePending(sessionID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pending[sessionID]
	if !ok {
		return false
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	delete(a.pending, sessionID)
	return true
}

// timeoutDeny denies a request no peer answered within the configured bound.
func (a *Arbiter) timeoutDeny(userID, sessionID string) {
	if !a.resolvePending(sessionID) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
	defer cancel()

	if requester, ok := a.registry.Find(userID, sessionID); ok {
		if err := requester.Send(ctx, protocol.SessionDenial{UserID: userID, SessionID: sessionID}); err != nil {
			log.Printf("arbiter: send timeout denial to %s: %v", sessionID, err)
		}
		a.registry.Unregister(userID, sessionID)
		requester.Close("approval timed out")
	}
	a.writeStatusAsync(userID, sessionID, domain.StatusDenied)
	a.logAudit(ctx, userID, sessionID, "deny", "", "approval timed out")
	telemetry.ReportAsync(a.reporter, telemetry.Event{
		UserID: userID, SessionID: sessionID, EventType: "session_denied", Detail: "timeout",
	})
}

// writeStatusAsync persists the status transition in the background. Callers
// never wait on the store; failures go to the reporter.
func (a *Arbiter) writeStatusAsync(userID, sessionID string, status domain.Status) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
		defer cancel()
		if err := a.sessions.UpdateStatus(ctx, sessionID, status); err != nil {
			log.Printf("arbiter: status write %s=%s: %v", sessionID, status, err)
			telemetry.ReportAsync(a.reporter, telemetry.Event{
				UserID: userID, SessionID: sessionID,
				EventType: "status_write_failed", Detail: string(status), Err: err,
			})
		}
	}()
}

func (a *Arbiter) logAudit(ctx context.Context, userID, sessionID, action, ip, metadata string) {
	if a.audit == nil {
		return
	}
	a.audit.LogEvent(ctx, userID, sessionID, action, ip, metadata)
}
