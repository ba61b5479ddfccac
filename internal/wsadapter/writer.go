package wsadapter

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// idleTimeout is how long a connection may go without a client ping
	// before it is considered dead and closed.
	idleTimeout = 90 * time.Second
)

// writeJSON sends v as a JSON text frame with a bounded write deadline.
func writeJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// resetIdleDeadline extends the read deadline past the next allowed silent
// period; called on connect and on every received ping.
func resetIdleDeadline(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(idleTimeout))
}
