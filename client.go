package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marketdeck/realtime/pkg/connection"
	"github.com/marketdeck/realtime/pkg/connection/gorillaws"
	"github.com/marketdeck/realtime/pkg/events"
	"github.com/marketdeck/realtime/pkg/logger"
	logslog "github.com/marketdeck/realtime/pkg/logger/slog"
)

// Client maintains the single shared connection to the streaming backend
// and multiplexes many independent consumers over it.
//
// Consumers observe everything, including connection lifecycle, through the
// event bus: register handlers with On, declare data interest with
// SubscribeTopic, and push application frames with Send. None of those
// calls block or fail on connection state; outcomes arrive asynchronously
// as connection_status, connection_error and connection_failed events.
type Client struct {
	cfg        *Config
	id         string
	logger     logger.Logger
	bus        *events.Bus
	queue      *outboundQueue
	topics     *topicRegistry
	retryer    Retryer
	httpClient *http.Client
	healthURL  string

	// newConn builds a fresh transport for each connection attempt;
	// transports are single-use.
	newConn func() connection.Connection

	mu             sync.Mutex
	state          State
	conn           connection.Connection
	attempts       int
	reconnectTimer *time.Timer
	keepaliveStop  chan struct{}
	disposed       bool
}

// New creates a Client from the configuration. Unset intervals and counts
// fall back to the NewConfig defaults. The client does not dial until
// Connect is called.
func New(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.ServerURL == "" {
		return nil, ErrNoServerURL
	}
	cfg = cfg.withDefaults()

	log := cfg.Logger
	if log == nil {
		log = logslog.New(slog.NewTextHandler(os.Stdout, nil))
	}

	healthURL, err := cfg.healthURL()
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:        cfg,
		id:         uuid.NewString(),
		logger:     log,
		bus:        events.NewBus(log),
		queue:      newOutboundQueue(cfg.QueueLimit),
		topics:     newTopicRegistry(),
		retryer:    NewExponentialBackoffRetryer(cfg.ReconnectBaseDelay, cfg.MaxReconnectDelay, cfg.MaxReconnectAttempts),
		httpClient: &http.Client{},
		healthURL:  healthURL,
		state:      StateDisconnected,
	}
	c.newConn = func() connection.Connection {
		tc := connection.NewConfig(cfg.ServerURL)
		tc.Logger = log
		return gorillaws.New(tc)
	}

	return c, nil
}

// ID returns the stable per-instance identifier stamped on ping frames.
func (c *Client) ID() string {
	return c.id
}

// State returns the current connection state. It is a diagnostic
// convenience; the event bus remains the primary observation channel.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// On registers a handler for the given event category and returns an
// idempotent unsubscribe function.
func (c *Client) On(category string, handler events.Handler) func() {
	return c.bus.On(category, handler)
}

// Connect probes the backend's health endpoint and, when reachable, dials
// the persistent connection. When the backend is unreachable no dial is
// attempted at all and a single connection_status event is emitted; only a
// later Reconnect re-runs the probe.
//
// The outcome of the connection attempt itself is also reported via the
// event bus. The returned error covers usage mistakes only.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return ErrAlreadyActive
	}
	// Claim the connecting state before releasing the lock: the probe can
	// take up to ProbeTimeout, and a concurrent Connect slipping through in
	// that window would install a second live connection.
	c.state = StateConnecting
	c.mu.Unlock()

	if !probe(ctx, c.httpClient, c.healthURL, c.cfg.ProbeTimeout) {
		c.mu.Lock()
		if c.state == StateConnecting {
			c.state = StateDisconnected
		}
		c.mu.Unlock()
		c.logger.Warn("backend unreachable, not dialing", "health_url", c.healthURL)
		c.bus.Emit(EventConnectionStatus, ConnectionStatus{Connected: false, Reason: "unreachable"})
		return nil
	}

	c.dial(ctx)
	return nil
}

// Reconnect cancels any pending retry, resets the backoff schedule,
// re-runs the reachability probe and dials again. It is the only way to
// resume after the client entered the failed state.
func (c *Client) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	c.cancelReconnectLocked()
	c.stopKeepaliveLocked()
	conn := c.conn
	c.conn = nil
	c.attempts = 0
	c.retryer.Reset()
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close(ctx)
	}

	return c.Connect(ctx)
}

// Disconnect closes the connection with a normal closure code, cancels any
// pending reconnect timer, stops keepalive and clears the outbound queue.
// No reconnect fires after Disconnect returns.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	c.cancelReconnectLocked()
	c.stopKeepaliveLocked()
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if dropped := c.queue.clear(); dropped > 0 {
		c.logger.Debug("cleared outbound queue", "dropped", dropped)
	}

	if conn == nil {
		return nil
	}

	err := conn.Close(ctx)
	c.bus.Emit(EventConnectionStatus, ConnectionStatus{Connected: false, Reason: "disconnected"})
	return err
}

// Dispose tears the client down: it disconnects and rejects further use.
// A disposed client cannot be revived.
func (c *Client) Dispose(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	c.mu.Unlock()

	return c.Disconnect(ctx)
}

// Send transmits a named application frame immediately when connected, or
// queues it for delivery after the next successful connection. Connection
// state never surfaces as an error here; only a payload that cannot be
// marshaled does.
func (c *Client) Send(eventType string, payload any) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	conn := c.conn
	connected := c.state == StateConnected && conn != nil
	c.mu.Unlock()

	f, err := connection.NewFrame(eventType, payload)
	if err != nil {
		return err
	}

	if connected {
		if err := conn.Write(f); err != nil {
			c.logger.Warn("send failed, queueing frame", "type", eventType, "error", err)
			c.enqueue(f)
		}
		return nil
	}

	c.enqueue(f)
	return nil
}

// SubscribeTopic registers interest in a data topic. The first interested
// subscriber triggers a subscribe control frame; further calls for the same
// topic only bump the reference count.
func (c *Client) SubscribeTopic(kind TopicKind, id string) {
	if !c.topics.acquire(kind, id) {
		return
	}
	c.writeControl(subscribeFrame(kind, id))
}

// UnsubscribeTopic releases interest in a topic; removing the last
// reference sends the unsubscribe control frame.
func (c *Client) UnsubscribeTopic(kind TopicKind, id string) {
	if !c.topics.release(kind, id) {
		return
	}
	c.writeControl(unsubscribeFrame(kind, id))
}

func (c *Client) SubscribeSymbol(symbol string) {
	c.SubscribeTopic(TopicSymbol, symbol)
}

func (c *Client) UnsubscribeSymbol(symbol string) {
	c.UnsubscribeTopic(TopicSymbol, symbol)
}

func (c *Client) SubscribeTrainingJob(modelID string) {
	c.SubscribeTopic(TopicTrainingJob, modelID)
}

func (c *Client) UnsubscribeTrainingJob(modelID string) {
	c.UnsubscribeTopic(TopicTrainingJob, modelID)
}

// dial performs one connection attempt. Callers must already have claimed
// the connecting state. Failures feed the backoff schedule; success hands
// over to onConnected.
func (c *Client) dial(ctx context.Context) {
	c.mu.Lock()
	if c.disposed || c.state != StateConnecting {
		// A disconnect raced the attempt between scheduling and dialing.
		c.mu.Unlock()
		return
	}
	conn := c.newConn()
	c.mu.Unlock()

	if err := conn.Connect(ctx); err != nil {
		c.logger.Warn("connection attempt failed", "error", err)
		c.bus.Emit(EventConnectionError, ConnectionError{Err: err})
		c.scheduleReconnect()
		return
	}

	c.onConnected(conn)
}

func (c *Client) onConnected(conn connection.Connection) {
	c.mu.Lock()
	if c.disposed || c.state.validateTransitionTo(StateConnected) != nil {
		// Disposed, manually disconnected or superseded while the dial was
		// in flight. Only the attempt still holding the connecting state may
		// install its connection.
		c.mu.Unlock()
		_ = conn.Close(context.Background())
		return
	}
	c.state = StateConnected
	c.conn = conn
	c.attempts = 0
	c.retryer.Reset()
	stop := make(chan struct{})
	c.keepaliveStop = stop
	c.mu.Unlock()

	c.logger.Info("connected", "client_id", c.id, "url", c.cfg.ServerURL)
	c.bus.Emit(EventConnectionStatus, ConnectionStatus{Connected: true})

	c.flushQueue(conn)
	c.resubscribe(conn)

	go c.keepaliveLoop(conn, stop)
	go c.readLoop(conn)
}

// readLoop fans inbound frames out to the bus until the connection dies,
// then drives the disconnect handling.
func (c *Client) readLoop(conn connection.Connection) {
	for f := range conn.Frames() {
		var payload any
		if len(f.Data) > 0 {
			payload = f.Data
		}
		c.bus.Emit(f.Type, payload)
	}

	c.handleConnectionLost(conn)
}

func (c *Client) handleConnectionLost(conn connection.Connection) {
	c.mu.Lock()
	if c.conn != conn {
		// A manual disconnect or a newer connection superseded this one.
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.stopKeepaliveLocked()
	closeErr := conn.CloseErr()
	if closeErr == nil {
		c.state = StateDisconnected
	}
	c.mu.Unlock()

	if closeErr == nil {
		c.bus.Emit(EventConnectionStatus, ConnectionStatus{Connected: false, Reason: "closed"})
		return
	}

	c.logger.Warn("connection lost", "error", closeErr)
	c.bus.Emit(EventConnectionError, ConnectionError{Err: closeErr})
	c.bus.Emit(EventConnectionStatus, ConnectionStatus{Connected: false, Reason: "error"})
	c.scheduleReconnect()
}

// scheduleReconnect arms the backoff timer for the next attempt, or emits
// the terminal connection_failed event when attempts are exhausted.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.disposed || (c.state != StateConnecting && c.state != StateConnected) {
		// A manual disconnect raced the failure; stay put.
		c.mu.Unlock()
		return
	}
	if !c.cfg.AutoReconnect {
		c.state = StateDisconnected
		c.mu.Unlock()
		return
	}

	attempt := c.attempts
	c.attempts++

	delay, ok := c.retryer.NextDelay(attempt)
	if !ok {
		c.state = StateFailed
		c.mu.Unlock()
		c.logger.Error("reconnect attempts exhausted", "attempts", attempt)
		c.bus.Emit(EventConnectionFailed, ConnectionFailed{Attempts: attempt})
		return
	}

	c.state = StateConnecting
	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		if c.reconnectTimer == nil || c.disposed || c.state != StateConnecting {
			// Canceled between firing and acquiring the lock.
			c.mu.Unlock()
			return
		}
		c.reconnectTimer = nil
		c.mu.Unlock()
		c.dial(context.Background())
	})
	c.mu.Unlock()

	c.logger.Info("reconnect scheduled", "attempt", attempt+1, "delay", delay)
}

func (c *Client) cancelReconnectLocked() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

func (c *Client) stopKeepaliveLocked() {
	if c.keepaliveStop != nil {
		close(c.keepaliveStop)
		c.keepaliveStop = nil
	}
}

// flushQueue transmits every frame buffered while disconnected, in the
// order they were enqueued.
func (c *Client) flushQueue(conn connection.Connection) {
	pending := c.queue.drain()
	for _, p := range pending {
		if err := conn.Write(p.frame); err != nil {
			c.logger.Error("failed to flush queued frame", "type", p.frame.Type, "error", err)
		}
	}
	if len(pending) > 0 {
		c.logger.Debug("flushed outbound queue", "count", len(pending))
	}
}

// resubscribe re-issues subscribe control frames for every topic that still
// has interested subscribers. The backend's per-connection subscription
// state dies with the connection, so this runs on every successful connect.
func (c *Client) resubscribe(conn connection.Connection) {
	for _, key := range c.topics.active() {
		if err := conn.Write(subscribeFrame(key.kind, key.id)); err != nil {
			c.logger.Error("failed to resubscribe topic",
				"kind", key.kind, "id", key.id, "error", err)
		}
	}
}

// keepaliveLoop sends a ping frame at the configured interval while the
// connection is up. A failed ping surfaces through the read loop's error
// path like any other transport failure, so the loop just exits.
func (c *Client) keepaliveLoop(conn connection.Connection, stop chan struct{}) {
	ticker := time.NewTicker(c.cfg.KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.Write(connection.Ping(c.id, time.Now())); err != nil {
				c.logger.Warn("keepalive ping failed", "error", err)
				return
			}
		}
	}
}

// writeControl sends a control frame on the live connection. While
// disconnected nothing is sent: the subscription registry is replayed by
// resubscribe on the next successful connect instead.
func (c *Client) writeControl(f *connection.Frame) {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected && conn != nil
	c.mu.Unlock()

	if !connected {
		return
	}
	if err := conn.Write(f); err != nil {
		c.logger.Warn("failed to send control frame", "type", f.Type, "error", err)
	}
}

func (c *Client) enqueue(f *connection.Frame) {
	if c.queue.push(f) {
		c.logger.Warn("outbound queue full, dropped oldest frame", "limit", c.cfg.QueueLimit)
	}
}

func subscribeFrame(kind TopicKind, id string) *connection.Frame {
	if kind == TopicTrainingJob {
		return connection.SubscribeTraining(id)
	}
	return connection.Subscribe(id)
}

func unsubscribeFrame(kind TopicKind, id string) *connection.Frame {
	if kind == TopicTrainingJob {
		return connection.UnsubscribeTraining(id)
	}
	return connection.Unsubscribe(id)
}
