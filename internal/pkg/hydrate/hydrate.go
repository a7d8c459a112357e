// Package hydrate decides when to ask the server for an entity's full status.
//
// Entities arrive from the snapshot without status detail. The first time a
// reader needs the detail of an unattached entity, a single fetch command is
// sent; the graph marks the entity attached when the pushed status lands.
package hydrate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/anicoll/fleetsync/internal/pkg/metrics"
	"github.com/anicoll/fleetsync/internal/pkg/model"
)

var (
	ErrUnknownEntity = errors.New("unknown entity")
	ErrTimeout       = errors.New("hydration timed out")
)

type Sender interface {
	Send(payload any) error
}

// Graph is the part of the entity graph hydration reads.
type Graph interface {
	Epoch() uint64
	IsAttached(ref model.Ref) (attached, ok bool)
	Attached(ref model.Ref) <-chan struct{}
	Entity(ref model.Ref) (model.Entity, bool)
	Refs() []model.Ref
}

type Hydrator struct {
	conn    Sender
	graph   Graph
	logger  *zap.Logger
	timeout time.Duration

	mu sync.Mutex
	// requested holds the graph epoch in which a fetch for the ref was sent.
	requested map[model.Ref]uint64
	group     singleflight.Group
}

type Option func(*Hydrator)

func WithLogger(l *zap.Logger) Option {
	return func(h *Hydrator) {
		h.logger = l
	}
}

// WithTimeout bounds how long EnsureHydrated waits for the pushed status.
func WithTimeout(d time.Duration) Option {
	return func(h *Hydrator) {
		h.timeout = d
	}
}

func New(conn Sender, graph Graph, opts ...Option) *Hydrator {
	h := &Hydrator{
		conn:      conn,
		graph:     graph,
		logger:    zap.L(), // returns the global logger.
		timeout:   30 * time.Second,
		requested: make(map[model.Ref]uint64),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Observe sends one fetch for ref if it is not attached and no fetch went out
// since the last graph replace. It reports whether a frame was sent.
func (h *Hydrator) Observe(ref model.Ref) bool {
	attached, ok := h.graph.IsAttached(ref)
	if !ok || attached {
		return false
	}
	epoch := h.graph.Epoch()

	h.mu.Lock()
	if h.requested[ref] == epoch {
		h.mu.Unlock()
		return false
	}
	h.requested[ref] = epoch
	h.mu.Unlock()

	if err := h.send(ref); err != nil {
		h.mu.Lock()
		delete(h.requested, ref)
		h.mu.Unlock()
		return false
	}
	return true
}

// EnsureHydrated returns ref once it is attached, sending a fetch if needed.
// Concurrent callers for the same ref share one wait. A caller giving up
// through ctx does not withdraw the fetch already on the wire.
func (h *Hydrator) EnsureHydrated(ctx context.Context, ref model.Ref) (model.Entity, error) {
	if attached, ok := h.graph.IsAttached(ref); ok && attached {
		if e, ok := h.graph.Entity(ref); ok {
			return e, nil
		}
	}

	ch := h.group.DoChan(ref.String(), func() (any, error) {
		return h.wait(ref)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(model.Entity), nil
	}
}

func (h *Hydrator) wait(ref model.Ref) (model.Entity, error) {
	done := h.graph.Attached(ref)
	if done == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, ref)
	}
	h.Observe(ref)

	timer := time.NewTimer(h.timeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, ref, h.timeout)
	}

	// done is also closed when a replace removed ref.
	e, ok := h.graph.Entity(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, ref)
	}
	return e, nil
}

// FetchAll sends a fetch for every entity in the graph, attached or not.
// It runs right after a snapshot load.
func (h *Hydrator) FetchAll() int {
	epoch := h.graph.Epoch()
	sent := 0
	for _, ref := range h.graph.Refs() {
		h.mu.Lock()
		h.requested[ref] = epoch
		h.mu.Unlock()
		if err := h.send(ref); err != nil {
			continue
		}
		sent++
	}
	h.prune(epoch)
	h.logger.Info("requested entity status", zap.Int("count", sent))
	return sent
}

func (h *Hydrator) send(ref model.Ref) error {
	if err := h.conn.Send(model.FetchCommand(ref)); err != nil {
		h.logger.Error("failed to send fetch", zap.Stringer("ref", ref), zap.Error(err))
		return err
	}
	metrics.IncFetch(ref.Kind.String())
	return nil
}

// prune forgets marks left over from earlier epochs.
func (h *Hydrator) prune(epoch uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ref, e := range h.requested {
		if e != epoch {
			delete(h.requested, ref)
		}
	}
}
