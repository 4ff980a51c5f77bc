// Package protocol defines the JSON frames exchanged on a gateway connection.
// Frames are parsed once at the transport boundary into a closed set of
// types; downstream logic switches on the concrete type.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type tags a wire frame.
type Type string

const (
	// TypeRegister binds a connection to an identity and session.
	TypeRegister Type = "register"
	// TypeSessionRequest asks to become the active session; relayed to other connections.
	TypeSessionRequest Type = "session_request"
	// TypeSessionApproval grants entry to the referenced session.
	TypeSessionApproval Type = "session_approval"
	// TypeSessionDenial refuses entry to the referenced session.
	TypeSessionDenial Type = "session_denial"
	// TypeSessionDisconnected informs survivors that the referenced session dropped. Server→client only.
	TypeSessionDisconnected Type = "session_disconnected"
)

var (
	// ErrUnknownType is returned by Decode for a frame whose type has no matching branch.
	ErrUnknownType = errors.New("protocol: unknown message type")
	// ErrMissingField is returned by Decode when a required envelope field is absent.
	ErrMissingField = errors.New("protocol: missing required field")
)

// Frame is one of the five wire messages. Only types in this package implement it.
type Frame interface {
	FrameType() Type
}

// Register binds the connection to userId/sessionId. Token is optional and
// only checked when the gateway is configured with a verifier.
type Register struct {
	UserID    string
	SessionID string
	Token     string
}

// SessionRequest asks to become the active session for UserID. The
// device fields are diagnostic metadata, opaque to the protocol.
type SessionRequest struct {
	UserID     string
	SessionID  string
	DeviceInfo string
	IPAddress  string
	UserAgent  string
}

// SessionApproval grants entry to SessionID.
type SessionApproval struct {
	UserID    string
	SessionID string
}

// SessionDenial refuses entry to SessionID.
type SessionDenial struct {
	UserID    string
	SessionID string
}

// SessionDisconnected tells survivors that SessionID dropped.
type SessionDisconnected struct {
	UserID    string
	SessionID string
}

func (Register) FrameType() Type            { return TypeRegister }
func (SessionRequest) FrameType() Type      { return TypeSessionRequest }
func (SessionApproval) FrameType() Type     { return TypeSessionApproval }
func (SessionDenial) FrameType() Type       { return TypeSessionDenial }
func (SessionDisconnected) FrameType() Type { return TypeSessionDisconnected }

// envelope is the shared wire shape: {type, sessionId, userId, ...}.
type envelope struct {
	Type       Type   `json:"type"`
	UserID     string `json:"userId"`
	SessionID  string `json:"sessionId"`
	Token      string `json:"token,omitempty"`
	DeviceInfo string `json:"deviceInfo,omitempty"`
	IPAddress  string `json:"ipAddress,omitempty"`
	UserAgent  string `json:"userAgent,omitempty"`
}

// Decode parses one wire frame. It returns ErrUnknownType for an
// unrecognized type and ErrMissingField when userId or sessionId is absent;
// callers log and discard, they never close the connection over a bad frame.
func Decode(data []byte) (Frame, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("protocol: decode: %w", err)
	}
	if env.UserID == "" {
		return nil, fmt.Errorf("%w: userId", ErrMissingField)
	}
	if env.SessionID == "" {
		return nil, fmt.Errorf("%w: sessionId", ErrMissingField)
	}

	switch env.Type {
	case TypeRegister:
		return Register{UserID: env.UserID, SessionID: env.SessionID, Token: env.Token}, nil
	case TypeSessionRequest:
		return SessionRequest{
			UserID:     env.UserID,
			SessionID:  env.SessionID,
			DeviceInfo: env.DeviceInfo,
			IPAddress:  env.IPAddress,
			UserAgent:  env.UserAgent,
		}, nil
	case TypeSessionApproval:
		return SessionApproval{UserID: env.UserID, SessionID: env.SessionID}, nil
	case TypeSessionDenial:
		return SessionDenial{UserID: env.UserID, SessionID: env.SessionID}, nil
	case TypeSessionDisconnected:
		return SessionDisconnected{UserID: env.UserID, SessionID: env.SessionID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// Marshal encodes a frame into its wire envelope.
func Marshal(f Frame) ([]byte, error) {
	env := envelope{Type: f.FrameType()}
	switch m := f.(type) {
	case Register:
		env.UserID, env.SessionID, env.Token = m.UserID, m.SessionID, m.Token
	case SessionRequest:
		env.UserID, env.SessionID = m.UserID, m.SessionID
		env.DeviceInfo, env.IPAddress, env.UserAgent = m.DeviceInfo, m.IPAddress, m.UserAgent
	case SessionApproval:
		env.UserID, env.SessionID = m.UserID, m.SessionID
	case SessionDenial:
		env.UserID, env.SessionID = m.UserID, m.SessionID
	case SessionDisconnected:
		env.UserID, env.SessionID = m.UserID, m.SessionID
	default:
		return nil, fmt.Errorf("protocol: marshal: unsupported frame %T", f)
	}
	return json.Marshal(env)
}
