package actions

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/anicoll/fleetsync/internal/pkg/model"
)

var (
	ErrUnavailable = errors.New("action not available")
	ErrDisabled    = errors.New("action disabled")
	ErrUnknown     = errors.New("unknown entity")
)

// Action is one verb offered for an entity, with its current UI state.
type Action struct {
	Name     model.Capability `json:"name"`
	Disabled bool             `json:"disabled"`
	Loading  bool             `json:"loading"`
}

// For lists the actions of e: its capabilities in order, scram and unscram
// for groups, and cancel for everything. Tags and locations never disable an
// action because their state is an aggregate.
func For(e model.Entity, capabilities []model.Capability) []Action {
	kind := e.Ref().Kind
	st := e.Generic()
	var muted bool
	if d, ok := e.(model.Device); ok && d.Status.IsMuted != nil {
		muted = bool(*d.Status.IsMuted)
	}
	group := kind == model.KindTag || kind == model.KindLocation

	out := make([]Action, 0, len(capabilities)+3)
	put := func(a Action) {
		if i := slices.IndexFunc(out, func(x Action) bool { return x.Name == a.Name }); i >= 0 {
			out[i] = a
			return
		}
		out = append(out, a)
	}
	for _, c := range capabilities {
		put(Action{
			Name:     c,
			Disabled: !group && disabled(c, st, muted),
			Loading:  loading(c, st),
		})
	}
	if group {
		put(Action{Name: model.CapScram})
		put(Action{Name: model.CapUnscram})
	}
	put(Action{
		Name:     model.CapCancel,
		Disabled: !group && disabled(model.CapCancel, st, muted),
		Loading:  loading(model.CapCancel, st),
	})
	return out
}

func disabled(c model.Capability, st model.GenericStatus, muted bool) bool {
	switch c {
	case model.CapWake:
		return st.IsOnline == model.StatusOnline
	case model.CapShutdown, model.CapReboot:
		return st.IsOnline == model.StatusOffline
	case model.CapMute:
		return st.IsOnline == model.StatusOffline || muted
	case model.CapUnmute:
		return st.IsOnline == model.StatusOffline || !muted
	case model.CapCancel:
		return !(st.ShouldWake || st.ShouldShutdown || st.ShouldReboot)
	}
	return false
}

// loading is true while a power transition is pending or the online state is
// still unknown.
func loading(c model.Capability, st model.GenericStatus) bool {
	pending := st.IsOnline == model.StatusUndefined
	switch c {
	case model.CapWake:
		return pending || st.ShouldWake
	case model.CapShutdown:
		return pending || st.ShouldShutdown
	case model.CapReboot:
		return pending || st.ShouldReboot
	}
	return pending
}

type Client interface {
	Action(ctx context.Context, kind model.Kind, action model.Capability, item any) error
}

type Source interface {
	Entity(ref model.Ref) (model.Entity, bool)
}

type Capabilities interface {
	Capabilities(ref model.Ref) []model.Capability
}

// Dispatcher checks an action against the current state of its entity before
// sending it to the server.
type Dispatcher struct {
	client Client
	graph  Source
	caps   Capabilities
	logger *zap.Logger
}

func NewDispatcher(client Client, graph Source, caps Capabilities) *Dispatcher {
	return &Dispatcher{
		client: client,
		graph:  graph,
		caps:   caps,
		logger: zap.L(), // returns the global logger.
	}
}

// List returns the actions currently offered for ref.
func (d *Dispatcher) List(ref model.Ref) ([]Action, error) {
	e, ok := d.graph.Entity(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, ref)
	}
	return For(e, d.caps.Capabilities(ref)), nil
}

func (d *Dispatcher) Run(ctx context.Context, ref model.Ref, name model.Capability) error {
	e, ok := d.graph.Entity(ref)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknown, ref)
	}
	list := For(e, d.caps.Capabilities(ref))
	i := slices.IndexFunc(list, func(a Action) bool { return a.Name == name })
	if i < 0 {
		return fmt.Errorf("%w: %s on %s", ErrUnavailable, name, ref)
	}
	if list[i].Disabled {
		return fmt.Errorf("%w: %s on %s", ErrDisabled, name, ref)
	}
	d.logger.Info("dispatching action", zap.Stringer("ref", ref), zap.Stringer("action", name))
	return d.client.Action(ctx, ref.Kind, name, e)
}
