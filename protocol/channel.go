package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"plotthread.org/client/events"
	"plotthread.org/client/model"
)

const (
	// DefaultSubprotocol is the websocket subprotocol spoken by nodes.
	DefaultSubprotocol = "plotthread.1"

	DefaultDialTimeout     = 10 * time.Second
	DefaultReadLimit       = 10 << 20
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 30 * time.Second
)

// HandlerFunc handles the body of one inbound frame. Returned errors are logged.
type HandlerFunc func(ctx context.Context, body json.RawMessage) error

type Options struct {
	// URL is the node to dial. A bare host[:port] is dialled as wss://host[:port].
	URL string

	Subprotocol string
	DialTimeout time.Duration
	ReadLimit   int64

	// Reconnect backoff. There is no elapsed-time ceiling: the channel redials
	// until Run's context ends.
	InitialInterval time.Duration
	MaxInterval     time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
	Meter      metric.Meter
}

// NodeURL turns a node address into a websocket URL.
func NodeURL(node string) string {
	node = strings.TrimSpace(node)
	if node == "" || strings.Contains(node, "://") {
		return node
	}
	return "wss://" + node
}

// Channel is a reconnecting websocket channel to one node.
type Channel struct {
	opts    Options
	log     *slog.Logger
	metrics *channelMetrics
	states  *events.Topic[State]

	mu     sync.RWMutex
	url    string
	state  State
	conn   *websocket.Conn
	connID string

	hmu      sync.RWMutex
	handlers map[string]HandlerFunc

	running sync.Mutex
}

// New constructs a Channel in the Uninstantiated state. Nothing is dialled until Run.
func New(opts Options) (*Channel, error) {
	if opts.Subprotocol == "" {
		opts.Subprotocol = DefaultSubprotocol
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = DefaultReadLimit
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = DefaultInitialInterval
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = DefaultMaxInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	metrics, err := newChannelMetrics(opts.Meter)
	if err != nil {
		return nil, fmt.Errorf("protocol metrics: %w", err)
	}
	return &Channel{
		opts:     opts,
		log:      opts.Logger.With("component", "protocol"),
		metrics:  metrics,
		states:   events.NewTopic[State](),
		url:      NodeURL(opts.URL),
		handlers: make(map[string]HandlerFunc),
	}, nil
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// States broadcasts every state transition.
func (c *Channel) States() *events.Topic[State] { return c.states }

// Stats returns a snapshot of the channel counters.
func (c *Channel) Stats() Stats { return c.metrics.snapshot() }

// URL returns the URL used for the next dial.
func (c *Channel) URL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.url
}

// SetURL changes the node. It takes effect on the next dial; an open connection
// is left alone.
func (c *Channel) SetURL(node string) {
	c.mu.Lock()
	c.url = NodeURL(node)
	c.mu.Unlock()
}

// Handle registers fn for frames of type t, replacing any previous handler.
// A nil fn removes the handler.
func (c *Channel) Handle(t string, fn HandlerFunc) {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	if fn == nil {
		delete(c.handlers, t)
		return
	}
	c.handlers[t] = fn
}

// On registers a handler that receives the frame body decoded as T. Bodies that
// do not decode are dropped.
func On[T any](c *Channel, t string, fn func(ctx context.Context, body T) error) {
	c.Handle(t, func(ctx context.Context, raw json.RawMessage) error {
		var body T
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &body); err != nil {
				return model.WrapError(model.KindDecode, "MSG-001", "malformed "+t+" body", err)
			}
		}
		return fn(ctx, body)
	})
}

func (c *Channel) handler(t string) HandlerFunc {
	c.hmu.RLock()
	defer c.hmu.RUnlock()
	return c.handlers[t]
}

// Send writes m if the channel is Open and reports whether it did. A channel that
// is not Open skips the message without error.
func (c *Channel) Send(ctx context.Context, m Message) bool {
	c.mu.RLock()
	conn, state, connID := c.conn, c.state, c.connID
	c.mu.RUnlock()

	if state != Open || conn == nil {
		c.metrics.recordSkipped(ctx, m.Type)
		c.log.Debug("request skipped", "type", m.Type, "state", state.String(), "reason", string(model.KindChannelNotReady))
		return false
	}
	if err := wsjson.Write(ctx, conn, m); err != nil {
		c.metrics.recordSkipped(ctx, m.Type)
		c.log.Warn("request write failed", "type", m.Type, "conn_id", connID, "error", err)
		return false
	}
	c.metrics.recordSent(ctx, m.Type)
	return true
}

// WaitFor blocks until the channel reaches s or ctx ends.
func (c *Channel) WaitFor(ctx context.Context, s State) error {
	ch, cancel := c.states.Subscribe(0)
	defer cancel()
	if c.State() == s {
		return nil
	}
	for {
		select {
		case got, ok := <-ch:
			if !ok {
				return errors.New("protocol: state topic closed")
			}
			if got == s {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Run connects and keeps the channel connected until ctx ends, then leaves it
// Closed. Only one Run may be active at a time.
func (c *Channel) Run(ctx context.Context) error {
	if !c.running.TryLock() {
		return errors.New("protocol: channel already running")
	}
	defer c.running.Unlock()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.InitialInterval
	b.MaxInterval = c.opts.MaxInterval
	b.MaxElapsedTime = 0
	b.Reset()

	for attempt := 1; ; attempt++ {
		opened, err := c.session(ctx)
		if ctx.Err() != nil {
			c.setState(Closed)
			return nil
		}
		if opened {
			b.Reset()
		}
		wait := b.NextBackOff()
		c.log.Warn("connection lost, reconnecting", "url", c.URL(), "attempt", attempt, "retry_in", wait, "error", err)
		c.metrics.recordReconnect(ctx)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			c.setState(Closed)
			return nil
		case <-t.C:
		}
	}
}

// session dials once and serves the connection until it fails. It reports
// whether the connection reached Open.
func (c *Channel) session(ctx context.Context) (bool, error) {
	c.setState(Connecting)
	url := c.URL()
	if url == "" {
		c.setState(Closed)
		return false, errors.New("protocol: no node selected")
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	conn, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{
		HTTPClient:   c.opts.HTTPClient,
		Subprotocols: []string{c.opts.Subprotocol},
	})
	cancel()
	if err != nil {
		c.setState(Closed)
		return false, err
	}
	conn.SetReadLimit(c.opts.ReadLimit)

	connID := uuid.NewString()
	c.mu.Lock()
	c.conn, c.connID, c.state = conn, connID, Open
	c.mu.Unlock()
	c.states.Publish(Open)
	c.log.Info("connected", "url", url, "conn_id", connID, "subprotocol", conn.Subprotocol())

	err = c.serve(ctx, conn, connID)

	c.mu.Lock()
	c.conn, c.connID, c.state = nil, "", Closing
	c.mu.Unlock()
	c.states.Publish(Closing)
	_ = conn.CloseNow()
	c.setState(Closed)
	c.log.Info("disconnected", "url", url, "conn_id", connID, "error", err)
	return true, err
}

// serve reads frames and dispatches them sequentially until the connection fails.
func (c *Channel) serve(ctx context.Context, conn *websocket.Conn, connID string) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var f Frame
		if err := json.Unmarshal(data, &f); err != nil || f.Type == "" {
			c.metrics.recordIgnored(ctx, "")
			c.log.Debug("malformed frame dropped", "conn_id", connID, "error", err)
			continue
		}
		c.metrics.recordReceived(ctx, f.Type)
		h := c.handler(f.Type)
		if h == nil {
			c.metrics.recordIgnored(ctx, f.Type)
			c.log.Debug("unhandled frame dropped", "conn_id", connID, "type", f.Type)
			continue
		}
		if err := h(ctx, f.Body); err != nil {
			if model.IsKind(err, model.KindDecode) {
				c.metrics.recordIgnored(ctx, f.Type)
			}
			c.log.Debug("frame handler failed", "conn_id", connID, "type", f.Type, "error", err)
		}
	}
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()
	if changed {
		c.states.Publish(s)
		c.log.Debug("state changed", "state", s.String())
	}
}
