package gateway

import (
	"context"
	"sync"

	"github.com/coder/websocket"

	"active-session-gateway/internal/protocol"
)

// wsConn adapts a websocket connection to the registry's Conn. Writes are
// serialized by a per-connection mutex; the read side stays with the handler
// goroutine.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

// Send writes one frame as a text message.
func (c *wsConn) Send(ctx context.Context, f protocol.Frame) error {
	data, err := protocol.Marshal(f)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// Close tears down the transport. Closing twice is harmless.
func (c *wsConn) Close(reason string) {
	_ = c.conn.Close(websocket.StatusNormalClosure, reason)
}
