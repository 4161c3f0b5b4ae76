// Package gorillaws implements the connection.Connection interface on top of
// github.com/gorilla/websocket.
package gorillaws

import (
	"context"
	"errors"
	"net"
	"sync"

	gorilla "github.com/gorilla/websocket"

	"github.com/marketdeck/realtime/internal/codec"
	"github.com/marketdeck/realtime/pkg/connection"
	"github.com/marketdeck/realtime/pkg/logger"
)

// DefaultDialer is the gorilla dialer used by Connection.
//
// It is the default gorilla dialer with compression enabled.
var DefaultDialer = &gorilla.Dialer{
	Proxy:             gorilla.DefaultDialer.Proxy,
	HandshakeTimeout:  gorilla.DefaultDialer.HandshakeTimeout,
	EnableCompression: true,
}

// frameBuffer is the capacity of the inbound frame channel. It only absorbs
// short bursts; the consumer is expected to drain the channel promptly.
const frameBuffer = 64

var (
	ErrNotConnected = errors.New("connection is not established")
	ErrClosed       = errors.New("connection is closed")
)

// Connection is a single-use WebSocket channel. Once it is closed, locally
// or by the server, it cannot be reconnected; create a new instance instead.
type Connection struct {
	url         string
	marshaler   codec.Marshaler
	unmarshaler codec.Unmarshaler
	logger      logger.Logger

	// connLock is held only for reads and writes on the established
	// connection, never across the dial, so Write is not blocked behind a
	// slow connection attempt.
	conn     *gorilla.Conn
	connLock sync.Mutex

	frames chan *connection.Frame

	// connCloseCh is closed exactly once when the connection dies.
	// It prevents Write from touching a dead connection.
	connCloseCh chan int

	stateLock sync.Mutex
	closed    bool
	closeErr  error
}

var _ connection.Connection = (*Connection)(nil)

func New(cfg *connection.Config) *Connection {
	return &Connection{
		url:         cfg.URL,
		marshaler:   cfg.Marshaler,
		unmarshaler: cfg.Unmarshaler,
		logger:      cfg.Logger,
		frames:      make(chan *connection.Frame, frameBuffer),
		connCloseCh: make(chan int),
	}
}

// Connect dials the backend and starts the read loop.
func (c *Connection) Connect(ctx context.Context) error {
	if c.IsClosed() {
		return ErrClosed
	}

	conn, res, err := DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if c.markClosed(err) {
			close(c.frames)
		}
		return err
	}
	defer res.Body.Close()

	c.connLock.Lock()
	c.conn = conn
	c.connLock.Unlock()

	go c.readLoop(conn)

	return nil
}

// Frames returns the inbound frame channel. It is closed when the
// connection dies; consult CloseErr afterwards for the reason.
func (c *Connection) Frames() <-chan *connection.Frame {
	return c.frames
}

// CloseErr reports why the connection died. It returns nil both before the
// connection dies and after a normal closure; a non-nil error indicates an
// abnormal closure or transport failure.
func (c *Connection) CloseErr() error {
	c.stateLock.Lock()
	defer c.stateLock.Unlock()
	return c.closeErr
}

func (c *Connection) IsClosed() bool {
	c.stateLock.Lock()
	defer c.stateLock.Unlock()
	return c.closed
}

// Write marshals the frame and sends it as one text message.
func (c *Connection) Write(f *connection.Frame) error {
	select {
	case <-c.connCloseCh:
		return ErrClosed
	default:
	}

	data, err := c.marshaler.Marshal(f)
	if err != nil {
		return err
	}

	c.connLock.Lock()
	defer c.connLock.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	err = c.conn.WriteMessage(gorilla.TextMessage, data)
	if errors.Is(err, gorilla.ErrCloseSent) {
		c.markClosed(err)
	}
	return err
}

// Close sends a normal close message and closes the underlying connection.
//
// A context deadline, when set, bounds the close message write so Close does
// not block indefinitely on an unresponsive peer. The underlying connection
// is closed regardless of whether the close message write succeeded.
func (c *Connection) Close(ctx context.Context) error {
	if !c.markClosed(nil) {
		return nil
	}

	c.connLock.Lock()
	conn := c.conn
	c.conn = nil
	c.connLock.Unlock()

	if conn == nil {
		// Never connected; the read loop never started, so the frame
		// channel must be closed here.
		close(c.frames)
		return nil
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			c.logger.Error("failed to set close write deadline", "error", err)
		}
	}

	msg := gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, "")
	if err := conn.WriteMessage(gorilla.CloseMessage, msg); err != nil {
		c.logger.Error("failed to write close message", "error", err)
	}

	return conn.Close()
}

// markClosed records the terminal state exactly once. It reports whether
// this call was the one that closed the connection.
func (c *Connection) markClosed(err error) bool {
	c.stateLock.Lock()
	defer c.stateLock.Unlock()

	if c.closed {
		return false
	}
	c.closed = true
	c.closeErr = err
	close(c.connCloseCh)
	return true
}

func (c *Connection) readLoop(conn *gorilla.Conn) {
	defer close(c.frames)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		var f connection.Frame
		if err := c.unmarshaler.Unmarshal(data, &f); err != nil {
			c.logger.Error("failed to decode inbound frame", "error", err)
			continue
		}

		c.frames <- &f
	}
}

// handleReadError classifies the read failure that ended the connection.
// Server-initiated normal closures and reads failing after a local Close are
// not errors; everything else is an abnormal closure.
func (c *Connection) handleReadError(err error) {
	if c.IsClosed() {
		return
	}

	if gorilla.IsCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway) ||
		errors.Is(err, net.ErrClosed) {
		c.markClosed(nil)
		return
	}

	c.markClosed(err)
}
