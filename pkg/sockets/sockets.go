package sockets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

var (
	ErrShutdown   = errors.New("connection shut down")
	ErrStaleToken = errors.New("token replaced during dial")
)

// Conn is a persistent, token-gated websocket. Run keeps it connected until the
// context ends or Close is called. Frames sent while it is not open are held in
// an insertion-ordered set and flushed on the next open.
type Conn struct {
	url          string
	dialer       *websocket.Dialer
	logger       *zap.Logger
	policy       ReconnectPolicy
	pingInterval time.Duration
	onMessage    func(context.Context, json.RawMessage)
	onConnected  func(context.Context)
	onClose      func(context.Context)

	mu       sync.Mutex
	token    string
	ws       *websocket.Conn
	state    State
	pending  *orderedSet
	shutdown bool
	// gen changes on every SetToken so a dial that raced it can be discarded.
	gen uint64
}

func New(rawURL string, opts ...Option) *Conn {
	c := &Conn{
		url: rawURL,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: 15 * time.Second,
		},
		logger:  zap.L(), // returns the global logger.
		policy:  Immediate{},
		state:   StateClosed,
		pending: newOrderedSet(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// URL returns the address the next dial will use, token included.
func (c *Conn) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialURL()
}

func (c *Conn) dialURL() string {
	u, err := url.Parse(c.url)
	if err != nil {
		return c.url + "?token=" + url.QueryEscape(c.token)
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the number of frames waiting for the next open.
func (c *Conn) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.len()
}

// SetToken replaces the token and drops the current socket, so the next
// connection carries the new token. The token is never sent as a frame.
func (c *Conn) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.gen++
	c.dropLocked()
}

// Send serializes payload to a JSON text frame. On an open socket it is written
// immediately; otherwise it joins the pending set, where byte-identical frames
// collapse into one delivery.
func (c *Conn) Send(payload any) error {
	msg, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutdown {
		return ErrShutdown
	}
	if c.state == StateOpen {
		err := c.ws.WriteMessage(websocket.TextMessage, msg)
		if err == nil {
			return nil
		}
		c.logger.Warn("write failed, queueing frame", zap.Error(err))
		c.dropLocked()
	}
	c.pending.add(string(msg))
	return nil
}

// Close stops Run and closes the socket. Pending frames are discarded and
// later sends fail with ErrShutdown.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown = true
	c.pending.reset(nil)
	c.dropLocked()
	return nil
}

// dropLocked closes the live socket; the read loop notices and Run reconnects.
func (c *Conn) dropLocked() {
	if c.ws != nil {
		_ = c.ws.Close()
	}
	if c.state == StateOpen {
		c.state = StateClosed
	}
}

func (c *Conn) isShutdown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shutdown
}

// Run dials, serves and redials until ctx is done or Close is called.
// Transport faults never escape Run; they only cause a reconnect.
func (c *Conn) Run(ctx context.Context) error {
	failures := 0
	for {
		if c.isShutdown() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		ws, gen, err := c.dial(ctx)
		if err != nil {
			failures++
			delay := c.policy.Delay(failures)
			c.logger.Debug("dial failed", zap.Error(err), zap.Int("failures", failures), zap.Duration("retry_in", delay))
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
			continue
		}
		failures = 0

		if err := c.open(ws, gen); err != nil {
			c.logger.Warn("connection not opened", zap.Error(err))
			c.closed(ws)
			continue
		}
		if c.onConnected != nil {
			c.onConnected(ctx)
		}

		stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
		err = c.read(ctx, ws)
		stop()
		c.logger.Debug("connection closed", zap.Error(err))
		c.closed(ws)
		if c.onClose != nil {
			c.onClose(ctx)
		}
	}
}

func (c *Conn) dial(ctx context.Context) (*websocket.Conn, uint64, error) {
	c.mu.Lock()
	target := c.dialURL()
	gen := c.gen
	c.state = StateConnecting
	c.mu.Unlock()

	ws, res, err := c.dialer.DialContext(ctx, target, nil)
	if res != nil && res.Body != nil {
		_ = res.Body.Close()
	}
	if err != nil {
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()
		return nil, gen, err
	}
	return ws, gen, nil
}

// open flushes the pending set in insertion order and only then marks the
// socket open, so concurrent sends land after the queued frames.
func (c *Conn) open(ws *websocket.Conn, gen uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws = ws
	if c.shutdown {
		return ErrShutdown
	}
	if c.gen != gen {
		return ErrStaleToken
	}
	items := c.pending.items()
	for i, msg := range items {
		if err := ws.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			c.pending.reset(items[i:])
			return err
		}
	}
	c.pending.reset(nil)
	c.state = StateOpen
	if c.pingInterval > 0 {
		go c.ping(ws)
	}
	return nil
}

func (c *Conn) closed(ws *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = ws.Close()
	if c.ws == ws {
		c.ws = nil
	}
	c.state = StateClosed
}

func (c *Conn) read(ctx context.Context, ws *websocket.Conn) error {
	for {
		typ, msg, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		if typ != websocket.TextMessage {
			continue
		}
		if !json.Valid(msg) {
			c.logger.Error("dropping malformed frame", zap.ByteString("frame", msg))
			continue
		}
		if c.onMessage != nil {
			c.onMessage(ctx, json.RawMessage(msg))
		}
	}
}

func (c *Conn) ping(ws *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for range ticker.C {
		deadline := time.Now().Add(c.pingInterval)
		if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
