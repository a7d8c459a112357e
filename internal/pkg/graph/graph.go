package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anicoll/fleetsync/internal/pkg/model"
)

var (
	// ErrSchemaViolation wraps every rejected commit. It is reported, never fatal.
	ErrSchemaViolation = errors.New("schema violation")
	ErrUnknownEntity   = errors.New("unknown entity")
)

// Change is published after every mutation that altered stored state.
type Change struct {
	Ref      model.Ref
	Version  uint64
	Replaced bool
	KNX      *model.KNXEvent
	Error    *model.ErrorRecord
}

// Graph is the normalized, id-keyed store of devices, tags and locations,
// plus the KNX and error logs. Entities hold references to each other only by
// id. Every write bumps a per-entity version taken from a graph-wide clock, so
// a version value is never reused, not even across Replace.
type Graph struct {
	logger *zap.Logger

	mu        sync.RWMutex
	devices   map[model.ID]*model.Device
	tags      map[model.ID]*model.Tag
	locations map[model.ID]*model.Location
	versions  map[model.Ref]uint64
	clock     uint64
	epoch     uint64
	knx       []model.KNXEvent
	errs      []model.ErrorRecord
	waiters   map[model.Ref]chan struct{}

	subMu sync.Mutex
	subs  map[int]chan Change
	next  int
}

func New(opts ...Option) *Graph {
	g := &Graph{
		logger:    zap.L(), // returns the global logger.
		devices:   make(map[model.ID]*model.Device),
		tags:      make(map[model.ID]*model.Tag),
		locations: make(map[model.ID]*model.Location),
		versions:  make(map[model.Ref]uint64),
		waiters:   make(map[model.Ref]chan struct{}),
		subs:      make(map[int]chan Change),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

type Option func(*Graph)

func WithLogger(l *zap.Logger) Option {
	return func(g *Graph) {
		g.logger = l
	}
}

// Replace swaps in a fresh snapshot. Every entity starts unattached, and
// attach waiters for ids that no longer exist are released.
func (g *Graph) Replace(s model.Snapshot) {
	g.mu.Lock()
	g.devices = make(map[model.ID]*model.Device, len(s.Devices))
	g.tags = make(map[model.ID]*model.Tag, len(s.Tags))
	g.locations = make(map[model.ID]*model.Location, len(s.Locations))
	g.versions = make(map[model.Ref]uint64, len(s.Devices)+len(s.Tags)+len(s.Locations))
	g.epoch++

	for _, d := range s.Devices {
		d.Status = model.NewDeviceStatus()
		g.devices[d.ID] = &d
		g.bump(d.Ref())
	}
	for _, t := range s.Tags {
		t.Status = model.NewGenericStatus()
		g.tags[t.ID] = &t
		g.bump(t.Ref())
	}
	for _, l := range s.Locations {
		l.Status = model.NewLocationStatus()
		g.locations[l.ID] = &l
		g.bump(l.Ref())
	}
	for ref, ch := range g.waiters {
		if !g.existsLocked(ref) {
			close(ch)
			delete(g.waiters, ref)
		}
	}
	g.mu.Unlock()

	g.logger.Info("graph replaced",
		zap.Int("devices", len(s.Devices)),
		zap.Int("tags", len(s.Tags)),
		zap.Int("locations", len(s.Locations)))
	g.publish(Change{Replaced: true})
}

func (g *Graph) CommitDeviceEvent(ev model.StatusEvent) error {
	return g.commit(model.DeviceRef(ev.Target), ev, func() (applier, bool) {
		d, ok := g.devices[ev.Target]
		if !ok {
			return nil, false
		}
		return &d.Status, true
	})
}

func (g *Graph) CommitTagEvent(ev model.StatusEvent) error {
	return g.commit(model.TagRef(ev.Target), ev, func() (applier, bool) {
		t, ok := g.tags[ev.Target]
		if !ok {
			return nil, false
		}
		return &t.Status, true
	})
}

func (g *Graph) CommitLocationEvent(ev model.StatusEvent) error {
	return g.commit(model.LocationRef(ev.Target), ev, func() (applier, bool) {
		l, ok := g.locations[ev.Target]
		if !ok {
			return nil, false
		}
		return &l.Status, true
	})
}

type applier interface {
	Apply(model.StatusEvent) (bool, error)
	Attach() bool
}

// commit applies ev in place, so the entity keeps its identity across updates.
// The first successful commit attaches the entity.
func (g *Graph) commit(ref model.Ref, ev model.StatusEvent, lookup func() (applier, bool)) error {
	g.mu.Lock()
	status, ok := lookup()
	if !ok {
		g.mu.Unlock()
		return fmt.Errorf("%w: %w: %s", ErrSchemaViolation, ErrUnknownEntity, ref)
	}
	changed, err := status.Apply(ev)
	if err != nil {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s: %w", ErrSchemaViolation, ref, err)
	}
	attached := status.Attach()
	var version uint64
	if changed || attached {
		version = g.bump(ref)
	}
	if attached {
		if ch, ok := g.waiters[ref]; ok {
			close(ch)
			delete(g.waiters, ref)
		}
	}
	g.mu.Unlock()

	if version != 0 {
		g.publish(Change{Ref: ref, Version: version})
	}
	return nil
}

// CommitKNXEvent prepends ev to the KNX log.
func (g *Graph) CommitKNXEvent(ev model.KNXEvent) model.KNXEvent {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	g.mu.Lock()
	g.knx = slices.Insert(g.knx, 0, ev)
	g.mu.Unlock()

	g.publish(Change{Ref: model.Ref{Kind: model.KindKNX}, KNX: &ev})
	return ev
}

// SetKNXEvents replaces the KNX log with events, newest first.
func (g *Graph) SetKNXEvents(events []model.KNXEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.knx = slices.Clone(events)
}

// CommitError prepends rec to the error log, assigning an id when it has none.
func (g *Graph) CommitError(rec model.ErrorRecord) model.ErrorRecord {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	g.mu.Lock()
	g.errs = slices.Insert(g.errs, 0, rec)
	g.mu.Unlock()

	g.publish(Change{Ref: model.Ref{Kind: model.KindError}, Error: &rec})
	return rec
}

func (g *Graph) bump(ref model.Ref) uint64 {
	g.clock++
	g.versions[ref] = g.clock
	return g.clock
}

func (g *Graph) existsLocked(ref model.Ref) bool {
	switch ref.Kind {
	case model.KindDevice:
		_, ok := g.devices[ref.ID]
		return ok
	case model.KindTag:
		_, ok := g.tags[ref.ID]
		return ok
	case model.KindLocation:
		_, ok := g.locations[ref.ID]
		return ok
	}
	return false
}

// Version returns the current version of ref, or 0 when it does not exist.
func (g *Graph) Version(ref model.Ref) uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.versions[ref]
}

// Epoch counts Replace calls.
func (g *Graph) Epoch() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.epoch
}

func (g *Graph) Device(id model.ID) (model.Device, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.devices[id]
	if !ok {
		return model.Device{}, false
	}
	return *d, true
}

func (g *Graph) Tag(id model.ID) (model.Tag, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.tags[id]
	if !ok {
		return model.Tag{}, false
	}
	return *t, true
}

func (g *Graph) Location(id model.ID) (model.Location, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	l, ok := g.locations[id]
	if !ok {
		return model.Location{}, false
	}
	return *l, true
}

// Entity resolves ref to a copy of the stored entity.
func (g *Graph) Entity(ref model.Ref) (model.Entity, bool) {
	var (
		e  model.Entity
		ok bool
	)
	switch ref.Kind {
	case model.KindDevice:
		e, ok = g.Device(ref.ID)
	case model.KindTag:
		e, ok = g.Tag(ref.ID)
	case model.KindLocation:
		e, ok = g.Location(ref.ID)
	}
	if !ok {
		return nil, false
	}
	return e, true
}

// IsAttached reports the attachment flag of ref and whether ref exists.
func (g *Graph) IsAttached(ref model.Ref) (attached, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	switch ref.Kind {
	case model.KindDevice:
		if d, found := g.devices[ref.ID]; found {
			return d.Status.IsAttached, true
		}
	case model.KindTag:
		if t, found := g.tags[ref.ID]; found {
			return t.Status.IsAttached, true
		}
	case model.KindLocation:
		if l, found := g.locations[ref.ID]; found {
			return l.Status.IsAttached, true
		}
	}
	return false, false
}

// Attached returns a channel closed once ref attaches, or once ref is removed
// by a Replace. It returns nil when ref does not exist.
func (g *Graph) Attached(ref model.Ref) <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.existsLocked(ref) {
		return nil
	}
	ch, ok := g.waiters[ref]
	if !ok {
		ch = make(chan struct{})
		g.waiters[ref] = ch
	}
	switch ref.Kind {
	case model.KindDevice:
		if g.devices[ref.ID].Status.IsAttached {
			close(ch)
			delete(g.waiters, ref)
		}
	case model.KindTag:
		if g.tags[ref.ID].Status.IsAttached {
			close(ch)
			delete(g.waiters, ref)
		}
	case model.KindLocation:
		if g.locations[ref.ID].Status.IsAttached {
			close(ch)
			delete(g.waiters, ref)
		}
	}
	return ch
}

// Refs lists every entity, devices first, each kind in id order.
func (g *Graph) Refs() []model.Ref {
	g.mu.RLock()
	defer g.mu.RUnlock()
	refs := make([]model.Ref, 0, len(g.devices)+len(g.tags)+len(g.locations))
	for _, id := range slices.Sorted(maps.Keys(g.devices)) {
		refs = append(refs, model.DeviceRef(id))
	}
	for _, id := range slices.Sorted(maps.Keys(g.tags)) {
		refs = append(refs, model.TagRef(id))
	}
	for _, id := range slices.Sorted(maps.Keys(g.locations)) {
		refs = append(refs, model.LocationRef(id))
	}
	return refs
}

func (g *Graph) Devices() []model.Device {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]model.Device, 0, len(g.devices))
	for _, id := range slices.Sorted(maps.Keys(g.devices)) {
		out = append(out, *g.devices[id])
	}
	return out
}

func (g *Graph) Tags() []model.Tag {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]model.Tag, 0, len(g.tags))
	for _, id := range slices.Sorted(maps.Keys(g.tags)) {
		out = append(out, *g.tags[id])
	}
	return out
}

func (g *Graph) Locations() []model.Location {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]model.Location, 0, len(g.locations))
	for _, id := range slices.Sorted(maps.Keys(g.locations)) {
		out = append(out, *g.locations[id])
	}
	return out
}

// KNXEvents returns the KNX log, newest first.
func (g *Graph) KNXEvents() []model.KNXEvent {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.knx)
}

// Errors returns the error log, newest first.
func (g *Graph) Errors() []model.ErrorRecord {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.errs)
}
