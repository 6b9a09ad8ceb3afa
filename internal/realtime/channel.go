package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	gosync "sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event is the JSON envelope exchanged on the realtime channel.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NotificationPayload is the body of a receive_notification event.
type NotificationPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Title   string `json:"title,omitempty"`
}

// Inbound and outbound event names understood by the socket server.
const (
	EventConnect             = "connect"
	EventConnectError        = "connect_error"
	EventReceiveNotification = "receive_notification"

	eventJoinRoom = "join_room"
	eventJoinRole = "join_role"
)

// Handler receives inbound events for a registered event name.
type Handler func(Event)

// Conn is the subset of a websocket connection the channel uses.
// Satisfied by *websocket.Conn; tests substitute a fake.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// Dialer opens a connection to the given endpoint.
type Dialer func(ctx context.Context, endpoint string) (Conn, error)

// defaultDialer connects over a real websocket.
func defaultDialer(ctx context.Context, endpoint string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", endpoint, err)
	}
	return conn, nil
}

// Channel maintains at most one live connection to the realtime event
// source for the lifetime of an authenticated session. Inbound events
// are fanned out to registered handlers; joins are replayed after every
// reconnect so consumers never have to re-subscribe. Connection
// failures are non-fatal: after the bounded retry budget is spent the
// channel stays silent and the app runs on polling alone.
type Channel struct {
	endpoint    string
	maxAttempts int
	retryDelay  time.Duration
	dialer      Dialer
	log         *zap.Logger

	mu        gosync.Mutex
	conn      Conn
	running   bool
	closed    bool
	joins     []Event
	handlers  map[string]map[int]Handler
	nextID    int
	stopCh    chan struct{}
}

// New creates a channel for the given endpoint. maxAttempts bounds how
// many consecutive connect attempts are made (with a fixed retryDelay
// between them) before the channel gives up until the next Connect call.
func New(endpoint string, maxAttempts int, retryDelay time.Duration, log *zap.Logger) *Channel {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Channel{
		endpoint:    endpoint,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		dialer:      defaultDialer,
		log:         log,
		handlers:    make(map[string]map[int]Handler),
		stopCh:      make(chan struct{}),
	}
}

// Connect starts the connection loop. It is idempotent: calling it
// while the channel is already running (or after Close) is a no-op.
// Connect never returns a connection error; failures are logged and
// retried in the background.
func (c *Channel) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.running || c.closed {
		c.mu.Unlock()
		return
	}
	c.running = true
	stopCh := c.stopCh
	c.mu.Unlock()

	go c.run(ctx, stopCh)
}

// JoinRoom registers interest in broadcasts targeted at the given
// principal. The join is sent immediately when connected and replayed
// after every reconnect.
func (c *Channel) JoinRoom(principalID string) {
	c.join(eventJoinRoom, principalID)
}

// JoinRole registers interest in role-wide broadcasts.
func (c *Channel) JoinRole(role string) {
	c.join(eventJoinRole, role)
}

func (c *Channel) join(event, value string) {
	data, _ := json.Marshal(value)
	ev := Event{Name: event, Data: data}

	c.mu.Lock()
	c.joins = append(c.joins, ev)
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		if err := conn.WriteJSON(ev); err != nil {
			c.log.Warn("sending join", zap.String("event", event), zap.Error(err))
		}
	}
}

// On registers a handler for a named inbound event and returns a
// disposer that removes it. Multiple handlers may be registered for the
// same event; each receives every event delivered while registered.
func (c *Channel) On(event string, h Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handlers[event] == nil {
		c.handlers[event] = make(map[int]Handler)
	}
	id := c.nextID
	c.nextID++
	c.handlers[event][id] = h

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers[event], id)
	}
}

// Close releases the connection. Safe to call multiple times; after
// Close the channel cannot be reconnected.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.stopCh)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			c.log.Debug("closing connection", zap.Error(err))
		}
	}
}

// run dials with a bounded retry budget and serves the connection until
// it drops, then dials again. The budget resets after every successful
// connect; once it is spent the loop exits and the channel stays down
// until a fresh Connect.
func (c *Channel) run(ctx context.Context, stopCh chan struct{}) {
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	for {
		conn, ok := c.dialWithRetry(ctx, stopCh)
		if !ok {
			return
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			return
		}
		c.conn = conn
		joins := make([]Event, len(c.joins))
		copy(joins, c.joins)
		c.mu.Unlock()

		// The server treats every reconnect as a logical rejoin.
		for _, join := range joins {
			if err := conn.WriteJSON(join); err != nil {
				c.log.Warn("replaying join", zap.Error(err))
			}
		}

		c.dispatch(Event{Name: EventConnect})
		c.serve(conn, stopCh)

		c.mu.Lock()
		c.conn = nil
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
	}
}

// dialWithRetry attempts to connect up to maxAttempts times with a
// fixed delay between attempts. Returns false once the budget is spent
// or the channel is stopped.
func (c *Channel) dialWithRetry(ctx context.Context, stopCh chan struct{}) (Conn, bool) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		select {
		case <-stopCh:
			return nil, false
		case <-ctx.Done():
			return nil, false
		default:
		}

		conn, err := c.dialer(ctx, c.endpoint)
		if err == nil {
			return conn, true
		}

		c.log.Warn("socket connect failed",
			zap.String("endpoint", c.endpoint),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		data, _ := json.Marshal(err.Error())
		c.dispatch(Event{Name: EventConnectError, Data: data})

		select {
		case <-stopCh:
			return nil, false
		case <-ctx.Done():
			return nil, false
		case <-time.After(c.retryDelay):
		}
	}

	c.log.Warn("socket gave up, running on polling only",
		zap.String("endpoint", c.endpoint),
		zap.Int("attempts", c.maxAttempts),
	)
	return nil, false
}

// serve reads events off the connection until it fails or the channel
// is stopped.
func (c *Channel) serve(conn Conn, stopCh chan struct{}) {
	readCh := make(chan Event)
	errCh := make(chan error, 1)

	go func() {
		for {
			var ev Event
			if err := conn.ReadJSON(&ev); err != nil {
				errCh <- err
				return
			}
			select {
			case readCh <- ev:
			case <-stopCh:
				// serve already returned; do not strand this
				// goroutine on an undelivered event.
				return
			}
		}
	}()

	for {
		select {
		case <-stopCh:
			conn.Close()
			return
		case err := <-errCh:
			c.log.Warn("socket read failed", zap.Error(err))
			conn.Close()
			return
		case ev := <-readCh:
			c.dispatch(ev)
		}
	}
}

// dispatch fans an event out to every handler registered for its name.
// Delivery order across handlers is unspecified.
func (c *Channel) dispatch(ev Event) {
	c.mu.Lock()
	handlers := make([]Handler, 0, len(c.handlers[ev.Name]))
	for _, h := range c.handlers[ev.Name] {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}
