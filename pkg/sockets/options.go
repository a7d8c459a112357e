package sockets

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Option func(*Conn)

// OnMessage is called for every well-formed inbound text frame, in receive order,
// on the connection's read goroutine.
func OnMessage(f func(context.Context, json.RawMessage)) Option {
	return func(c *Conn) {
		c.onMessage = f
	}
}

// OnConnected is called after the pending queue has been flushed on a new connection.
func OnConnected(f func(context.Context)) Option {
	return func(c *Conn) {
		c.onConnected = f
	}
}

// OnClose is called every time an open connection goes away.
func OnClose(f func(context.Context)) Option {
	return func(c *Conn) {
		c.onClose = f
	}
}

func WithToken(token string) Option {
	return func(c *Conn) {
		c.token = token
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Conn) {
		c.logger = l
	}
}

func WithDialer(d *websocket.Dialer) Option {
	return func(c *Conn) {
		c.dialer = d
	}
}

func InsecureSkipVerify() Option {
	return func(c *Conn) {
		c.dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // self-signed appliances
		}
	}
}

func WithPingInterval(d time.Duration) Option {
	return func(c *Conn) {
		c.pingInterval = d
	}
}

func WithReconnectPolicy(p ReconnectPolicy) Option {
	return func(c *Conn) {
		c.policy = p
	}
}
