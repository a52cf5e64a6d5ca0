package ws

import (
	"context"
	"fmt"
	"log/slog"
	"nextext/domain"
	"nextext/errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection is one authenticated websocket session.
// Outbound messages go through a bounded queue drained by a single writer goroutine,
// so a slow peer only ever blocks its own queue.
type Connection struct {
	id       string
	user     domain.UserID
	ws       *websocket.Conn
	log      *slog.Logger
	settings Settings

	send      chan domain.Message // outbound queue, consumed by writePump only
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func NewConnection(ws *websocket.Conn, user domain.UserID, settings Settings, log *slog.Logger) *Connection {
	id := uuid.NewString()
	return &Connection{
		id:       id,
		user:     user,
		ws:       ws,
		log:      log.With("conn_id", id, "user_id", user),
		settings: settings,
		send:     make(chan domain.Message, settings.BufferSize),
		done:     make(chan struct{}),
	}
}

func (c *Connection) ID() string            { return c.id }
func (c *Connection) UserID() domain.UserID { return c.user }

// Send queues msg for writing. It fails once the connection is closed,
// or when ctx ends before the queue has room.
func (c *Connection) Send(ctx context.Context, msg domain.Message) error {
	select {
	case <-c.done:
		return errors.ErrConnectionClosed
	default:
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return errors.ErrConnectionClosed
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", errors.ErrDelivery, ctx.Err())
	}
}

// Close tears the transport down. Only the first call has an effect.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// CloseWith sends a close frame before closing the transport.
func (c *Connection) CloseWith(code int, reason string) error {
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), controlDeadline(c.settings.WriteTimeout))
	return c.Close()
}

// writePump owns every data write on the socket and pings the peer periodically.
// Any write error closes the connection, which also ends the read loop.
func (c *Connection) writePump() {
	var tick <-chan time.Time
	if c.settings.PingPeriod > 0 {
		ticker := time.NewTicker(c.settings.PingPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer c.Close()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.setWriteDeadline()
			if err := c.ws.WriteJSON(msg); err != nil {
				c.log.Debug("Write failed, closing connection", "message_id", msg.ID, "error", err)
				return
			}
		case <-tick:
			c.setWriteDeadline()
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("Ping failed, closing connection", "error", err)
				return
			}
		}
	}
}

// controlDeadline is the deadline of a control frame write; a zero timeout means no deadline.
func controlDeadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}

func (c *Connection) setWriteDeadline() {
	if c.settings.WriteTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
	}
}
