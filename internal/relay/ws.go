package relay

import (
	"context"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rahul01879/chat-app/internal/domain"
	"github.com/rahul01879/chat-app/internal/log"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// pongWait is how long a silent peer stays trusted. Reads fail once
	// the deadline passes without a pong.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = 54 * time.Second
)

// Dialer opens websocket attachments to relay rooms.
type Dialer struct {
	Base string
}

// NewDialer returns a Dialer for the relay at base. The base uses the
// http scheme; the websocket scheme is derived from it.
func NewDialer(base string) *Dialer {
	return &Dialer{Base: strings.TrimRight(base, "/")}
}

var _ domain.Transport = (*Dialer)(nil)

// Dial connects to a room. The relay creates the room on first attach.
func (d *Dialer) Dial(ctx context.Context, roomID string) (domain.Conn, error) {
	u := wsURL(d.Base) + "/ws/" + url.PathEscape(roomID)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	c := &wsConn{conn: conn, done: make(chan struct{})}
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go c.keepalive()
	return c, nil
}

// wsConn wraps one gorilla connection. Reads stay single-goroutine; the
// write mutex covers both frames and keepalive pings.
type wsConn struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

var _ domain.Conn = (*wsConn)(nil)

// ReadFrame blocks for the next frame. A deliberate close by the peer
// surfaces as io.EOF so callers can tell it from a broken transport
// without knowing the websocket close codes.
func (c *wsConn) ReadFrame() (domain.Frame, error) {
	var f domain.Frame
	if err := c.conn.ReadJSON(&f); err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return domain.Frame{}, io.EOF
		}
		return domain.Frame{}, err
	}
	return f, nil
}

// WriteFrame sends one frame under the write deadline.
func (c *wsConn) WriteFrame(f domain.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(f)
}

// Close sends a polite close frame and tears the connection down.
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		werr := c.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		if werr != nil {
			log.Debugf("close frame not delivered: %v", werr)
		}
		err = c.conn.Close()
	})
	return err
}

// keepalive pings until the connection closes. A failed ping is left for
// the reader to notice through its deadline.
func (c *wsConn) keepalive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// wsURL maps an http base to its websocket counterpart.
func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}
