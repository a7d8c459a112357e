package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/anicoll/fleetsync/internal/pkg/graph"
	"github.com/anicoll/fleetsync/internal/pkg/metrics"
	"github.com/anicoll/fleetsync/internal/pkg/model"
)

var (
	ErrUnknownTarget = errors.New("unknown frame target")
	ErrEmptyFrame    = errors.New("frame carries neither event nor error")
)

// AuthFailedMessage is the server error that ends the session.
const AuthFailedMessage = "Authentication failed"

type Graph interface {
	CommitDeviceEvent(ev model.StatusEvent) error
	CommitTagEvent(ev model.StatusEvent) error
	CommitLocationEvent(ev model.StatusEvent) error
	CommitKNXEvent(ev model.KNXEvent) model.KNXEvent
	CommitError(rec model.ErrorRecord) model.ErrorRecord
}

type Transport interface {
	SetToken(token string)
}

type Refresher interface {
	Refresh(ctx context.Context) error
}

type Session interface {
	Logout(ctx context.Context) error
}

// Router applies inbound frames to the graph and tracks the session flags.
// OnMessage is called for one connection at a time, in receive order.
type Router struct {
	graph      Graph
	transport  Transport
	refresher  Refresher
	session    Session
	logger     *zap.Logger
	showErrors bool

	connected atomic.Bool
	loaded    atomic.Bool
	loggedIn  atomic.Bool

	// connMu orders OnClose against MarkLoaded so a snapshot fetched across
	// a disconnect never marks the graph loaded.
	connMu  sync.Mutex
	connGen uint64

	wg sync.WaitGroup
}

type Option func(*Router)

func WithLogger(l *zap.Logger) Option {
	return func(r *Router) {
		r.logger = l
	}
}

// WithShowErrors makes every server error also log as a user notification.
func WithShowErrors(show bool) Option {
	return func(r *Router) {
		r.showErrors = show
	}
}

func WithRefresher(f Refresher) Option {
	return func(r *Router) {
		r.refresher = f
	}
}

func WithSession(s Session) Option {
	return func(r *Router) {
		r.session = s
	}
}

func New(g Graph, t Transport, opts ...Option) *Router {
	r := &Router{
		graph:     g,
		transport: t,
		logger:    zap.L(), // returns the global logger.
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Router) Connected() bool { return r.connected.Load() }
func (r *Router) Loaded() bool    { return r.loaded.Load() }
func (r *Router) LoggedIn() bool  { return r.loggedIn.Load() }

// Generation identifies the current connection. It changes on every close.
func (r *Router) Generation() uint64 {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	return r.connGen
}

// MarkLoaded is called by the snapshot loader once the graph holds fresh
// data. It reports false, leaving the graph not loaded, when the connection
// closed after gen was taken; the next OnConnected then reloads.
func (r *Router) MarkLoaded(gen uint64) bool {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	if gen != r.connGen {
		return false
	}
	r.loaded.Store(true)
	return true
}

// OnMessage decodes and dispatches one inbound frame. Faults are logged and
// counted, never returned: a bad frame must not stop the read loop.
func (r *Router) OnMessage(ctx context.Context, raw json.RawMessage) {
	var frame model.InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		r.logger.Error("dropping undecodable frame", zap.Error(err), zap.ByteString("frame", raw))
		metrics.IncDropped("malformed")
		return
	}
	metrics.IncFrame(frame.Target.String())

	if err := r.dispatch(ctx, frame); err != nil {
		if errors.Is(err, graph.ErrSchemaViolation) {
			r.logger.Warn("rejected event", zap.Stringer("target", frame.Target), zap.Error(err))
			metrics.IncSchemaViolation(frame.Target.String())
			return
		}
		r.logger.Error("dropping frame", zap.Error(err), zap.ByteString("frame", raw))
		metrics.IncDropped(reason(err))
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownTarget):
		return "unknown_target"
	case errors.Is(err, ErrEmptyFrame):
		return "empty"
	}
	return "malformed"
}

func (r *Router) dispatch(ctx context.Context, frame model.InboundFrame) error {
	if frame.Data == nil || len(frame.Data.Event) == 0 {
		if frame.Error != nil {
			r.commitError(ctx, *frame.Error)
			return nil
		}
		return ErrEmptyFrame
	}
	event := frame.Data.Event

	switch frame.Target {
	case model.KindDevice:
		return commit(event, r.graph.CommitDeviceEvent)
	case model.KindTag:
		return commit(event, r.graph.CommitTagEvent)
	case model.KindLocation:
		return commit(event, r.graph.CommitLocationEvent)
	case model.KindKNX:
		return r.commitKNX(event)
	case model.KindApp:
		var ev model.AppEvent
		if err := json.Unmarshal(event, &ev); err != nil {
			return fmt.Errorf("app event: %w", err)
		}
		if ev.Type == model.AppEventRefresh {
			r.refresh(ctx)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownTarget, frame.Target)
}

func commit(raw json.RawMessage, fn func(model.StatusEvent) error) error {
	var ev model.StatusEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return fmt.Errorf("status event: %w", err)
	}
	return fn(ev)
}

// commitKNX applies one bus event to both the addressed location and the KNX
// log, location first. The log entry is kept even if the location rejects it,
// and its group address is stored as sent.
func (r *Router) commitKNX(raw json.RawMessage) error {
	var (
		status model.StatusEvent
		entry  model.KNXEvent
	)
	if err := json.Unmarshal(raw, &status); err != nil {
		return fmt.Errorf("knx event: %w", err)
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return fmt.Errorf("knx event: %w", err)
	}
	if entry.GroupAddress != nil {
		if _, err := model.ParseGroupAddress(*entry.GroupAddress); err != nil {
			r.logger.Debug("unrecognised group address", zap.String("group_address", *entry.GroupAddress), zap.Error(err))
		}
	}
	err := r.graph.CommitLocationEvent(status)
	r.graph.CommitKNXEvent(entry)
	return err
}

func (r *Router) commitError(ctx context.Context, p model.ErrorPayload) {
	rec := r.graph.CommitError(model.ErrorRecord{
		Message: p.Message,
		Errors:  p.Errors,
		Time:    p.Time,
	})
	if r.showErrors {
		r.logger.Warn(rec.Message, zap.String("error_id", rec.ID), zap.Any("errors", rec.Errors))
	}
	if p.Message == AuthFailedMessage {
		r.logout(ctx)
	}
}

func (r *Router) refresh(ctx context.Context) {
	if r.refresher == nil {
		return
	}
	r.async(func() {
		if err := r.refresher.Refresh(ctx); err != nil {
			r.logger.Error("refresh failed", zap.Error(err))
		}
	})
}

func (r *Router) logout(ctx context.Context) {
	r.loggedIn.Store(false)
	if r.session == nil {
		return
	}
	r.async(func() {
		if err := r.session.Logout(ctx); err != nil {
			r.logger.Warn("logout after authentication failure", zap.Error(err))
		}
	})
}

// async runs f off the read goroutine so network calls never stall frame
// delivery.
func (r *Router) async(f func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		f()
	}()
}

// Wait blocks until background work started by frames has finished.
func (r *Router) Wait() {
	r.wg.Wait()
}

func (r *Router) OnConnected(ctx context.Context) {
	r.connected.Store(true)
	metrics.SetConnected(true)
	r.logger.Info("connected")
	// Frames may have been missed while disconnected.
	if !r.loaded.Load() {
		r.refresh(ctx)
	}
}

func (r *Router) OnClose(context.Context) {
	r.connMu.Lock()
	r.connGen++
	r.connected.Store(false)
	r.loaded.Store(false)
	r.connMu.Unlock()
	metrics.SetConnected(false)
	r.logger.Info("disconnected")
}

// OnToken forwards a new bearer token to the transport. An empty token marks
// the session logged out and leaves the transport alone.
func (r *Router) OnToken(token string) {
	r.loggedIn.Store(token != "")
	if token == "" {
		return
	}
	r.transport.SetToken(token)
}
