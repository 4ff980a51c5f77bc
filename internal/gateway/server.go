// Package gateway is the websocket edge: it accepts connections, binds them
// to an identity via the register handshake, feeds decoded frames to the
// arbiter, and finalizes sessions when the transport drops.
package gateway

import (
	"context"
	"log"
	"net/http"

	"github.com/coder/websocket"

	"active-session-gateway/internal/protocol"
	"active-session-gateway/internal/registry"
)

// Arbiter is the decision side of the protocol. Implemented by
// arbiter.Arbiter; narrowed to an interface so gateway tests can fake it.
type Arbiter interface {
	HandleRequest(ctx context.Context, conn registry.Conn, f protocol.SessionRequest)
	HandleApproval(ctx context.Context, approverSessionID string, f protocol.SessionApproval)
	HandleDenial(ctx context.Context, denierSessionID string, f protocol.SessionDenial)
	HandleDisconnect(ctx context.Context, userID, sessionID string)
}

// Verifier checks the access token carried by a register frame. Optional:
// when nil, the gateway trusts the identity the frame asserts.
type Verifier interface {
	Verify(token string) (userID, sessionID string, err error)
}

// Config wires the gateway's collaborators.
type Config struct {
	Registry *registry.Registry
	Arbiter  Arbiter
	Verifier Verifier
	// AllowOrigins is passed to the websocket accept as origin patterns.
	// Same-origin requests are always allowed by the websocket library.
	AllowOrigins []string
}

// Server handles the websocket endpoint.
type Server struct {
	cfg Config
}

// NewServer returns a gateway over the given collaborators.
func NewServer(cfg Config) *Server {
	return &Server{cfg: cfg}
}

// Handler returns the HTTP mux: /ws for the protocol, /healthz for probes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.AllowOrigins,
	})
	if err != nil {
		return
	}
	c := newWSConn(conn)
	log.Printf("gateway: client connected from %s", r.RemoteAddr)

	// Bound identity; empty until a register frame is accepted.
	var userID, sessionID string

	defer func() {
		if userID != "" {
			// The request context is gone once the transport drops.
			s.cfg.Arbiter.HandleDisconnect(context.Background(), userID, sessionID)
		}
		c.Close("bye")
		log.Printf("gateway: client disconnected (session %q)", sessionID)
	}()

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		frame, err := protocol.Decode(data)
		if err != nil {
			// Bad frames are dropped; the connection stays open.
			log.Printf("gateway: discarding frame: %v", err)
			continue
		}

		switch f := frame.(type) {
		case protocol.Register:
			if userID != "" {
				log.Printf("gateway: duplicate register from session %s ignored", sessionID)
				continue
			}
			if !s.verifyRegister(f) {
				continue
			}
			userID, sessionID = f.UserID, f.SessionID
			s.cfg.Registry.Register(userID, sessionID, c)
			log.Printf("gateway: session %s registered for user %s", sessionID, userID)

		case protocol.SessionRequest:
			if !s.bound(userID, f.UserID, f.FrameType()) {
				continue
			}
			if f.SessionID != sessionID {
				log.Printf("gateway: request for %s from session %s dropped", f.SessionID, sessionID)
				continue
			}
			if f.IPAddress == "" {
				f.IPAddress = r.RemoteAddr
			}
			if f.UserAgent == "" {
				f.UserAgent = r.UserAgent()
			}
			s.cfg.Arbiter.HandleRequest(ctx, c, f)

		case protocol.SessionApproval:
			if !s.bound(userID, f.UserID, f.FrameType()) {
				continue
			}
			s.cfg.Arbiter.HandleApproval(ctx, sessionID, f)

		case protocol.SessionDenial:
			if !s.bound(userID, f.UserID, f.FrameType()) {
				continue
			}
			s.cfg.Arbiter.HandleDenial(ctx, sessionID, f)

		case protocol.SessionDisconnected:
			// Server-to-client only.
			log.Printf("gateway: client-sent %s dropped", f.FrameType())
		}
	}
}

// bound checks that the connection has registered and that the frame talks
// about the bound user. Failures drop the frame, never the connection.
func (s *Server) bound(boundUserID, frameUserID string, t protocol.Type) bool {
	if boundUserID == "" {
		log.Printf("gateway: %s from unregistered connection dropped", t)
		return false
	}
	if frameUserID != boundUserID {
		log.Printf("gateway: %s for foreign user dropped", t)
		return false
	}
	return true
}

// verifyRegister checks the register frame's token when a verifier is
// configured. The asserted identity must match the token's claims.
func (s *Server) verifyRegister(f protocol.Register) bool {
	if s.cfg.Verifier == nil {
		return true
	}
	subject, tokenSessionID, err := s.cfg.Verifier.Verify(f.Token)
	if err != nil {
		log.Printf("gateway: register rejected: %v", err)
		return false
	}
	if subject != f.UserID {
		log.Printf("gateway: register rejected: subject mismatch")
		return false
	}
	if tokenSessionID != "" && tokenSessionID != f.SessionID {
		log.Printf("gateway: register rejected: session claim mismatch")
		return false
	}
	return true
}
