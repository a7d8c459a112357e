// Package views computes the aggregate properties shown for every entity:
// its display name, the set of active errors and the union of capabilities.
// Nothing here is stored on the entities. Results are memoized against the
// versions of every entity they were computed from and recomputed as soon as
// any of those versions moves.
package views

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/anicoll/fleetsync/internal/pkg/model"
)

// Source is the read side of the entity graph.
type Source interface {
	Device(id model.ID) (model.Device, bool)
	Tag(id model.ID) (model.Tag, bool)
	Location(id model.ID) (model.Location, bool)
	Version(ref model.Ref) uint64
}

// View is the derived state of one entity, as mirrored to the sinks.
type View struct {
	Kind         model.Kind         `json:"kind"`
	ID           model.ID           `json:"id"`
	Name         string             `json:"name"`
	HasError     []string           `json:"has_error"`
	Capabilities []model.Capability `json:"capabilities"`
	IsOnline     model.OnlineStatus `json:"is_online"`
	IsAttached   bool               `json:"is_attached"`
	KNXState     *model.KNXState    `json:"knx_state,omitempty"`
}

func (v View) Ref() model.Ref {
	return model.Ref{Kind: v.Kind, ID: v.ID}
}

type dep struct {
	ref     model.Ref
	version uint64
}

type memo struct {
	deps []dep
	view View
}

type Engine struct {
	src Source

	mu    sync.Mutex
	memos map[model.Ref]memo
}

func New(src Source) *Engine {
	return &Engine{
		src:   src,
		memos: make(map[model.Ref]memo),
	}
}

// Get returns the view of ref computed from the current graph. It reports
// false when ref does not exist.
func (e *Engine) Get(ref model.Ref) (View, bool) {
	e.mu.Lock()
	m, ok := e.memos[ref]
	e.mu.Unlock()
	if ok && e.fresh(m) {
		return m.view, true
	}

	m, ok = e.compute(ref)
	e.mu.Lock()
	defer e.mu.Unlock()
	if !ok {
		delete(e.memos, ref)
		return View{}, false
	}
	e.memos[ref] = m
	return m.view, true
}

func (e *Engine) Name(ref model.Ref) string {
	v, _ := e.Get(ref)
	return v.Name
}

// HasError returns the sorted set of "name (field)" entries for every error
// that is neither null nor ok.
func (e *Engine) HasError(ref model.Ref) []string {
	v, _ := e.Get(ref)
	return v.HasError
}

func (e *Engine) Capabilities(ref model.Ref) []model.Capability {
	v, _ := e.Get(ref)
	return v.Capabilities
}

// Prune drops memos of entities that no longer exist.
func (e *Engine) Prune() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for ref := range maps.Keys(e.memos) {
		if e.src.Version(ref) == 0 {
			delete(e.memos, ref)
		}
	}
}

func (e *Engine) fresh(m memo) bool {
	for _, d := range m.deps {
		if e.src.Version(d.ref) != d.version {
			return false
		}
	}
	return true
}

// compute reads each dependency's version before its data, so a write racing
// the read leaves the memo stale and forces the next Get to recompute.
func (e *Engine) compute(ref model.Ref) (memo, bool) {
	switch ref.Kind {
	case model.KindDevice:
		v := e.src.Version(ref)
		d, ok := e.src.Device(ref.ID)
		if !ok {
			return memo{}, false
		}
		return memo{deps: []dep{{ref, v}}, view: deviceView(d)}, true

	case model.KindTag:
		v := e.src.Version(ref)
		t, ok := e.src.Tag(ref.ID)
		if !ok {
			return memo{}, false
		}
		view := View{
			Kind:       model.KindTag,
			ID:         t.ID,
			Name:       t.Data.Name,
			IsOnline:   t.Status.IsOnline,
			IsAttached: t.Status.IsAttached,
		}
		deps := e.aggregate(&view, t.Data.Devices)
		return memo{deps: append(deps, dep{ref, v}), view: view}, true

	case model.KindLocation:
		v := e.src.Version(ref)
		l, ok := e.src.Location(ref.ID)
		if !ok {
			return memo{}, false
		}
		knx := l.Status.KNXState
		view := View{
			Kind:       model.KindLocation,
			ID:         l.ID,
			Name:       locationName(l),
			IsOnline:   l.Status.IsOnline,
			IsAttached: l.Status.IsAttached,
			KNXState:   &knx,
		}
		deps := e.aggregate(&view, l.Data.Devices)
		return memo{deps: append(deps, dep{ref, v}), view: view}, true
	}
	return memo{}, false
}

// aggregate fills the error and capability unions of view from its devices.
// Dangling device references are skipped but still tracked, so the view is
// recomputed if the device shows up.
func (e *Engine) aggregate(view *View, devices []model.ID) []dep {
	deps := make([]dep, 0, len(devices)+1)
	errs := make([][]string, 0, len(devices))
	caps := make([][]model.Capability, 0, len(devices))
	for _, id := range devices {
		ref := model.DeviceRef(id)
		v := e.src.Version(ref)
		deps = append(deps, dep{ref, v})
		d, ok := e.src.Device(id)
		if !ok {
			continue
		}
		errs = append(errs, deviceErrors(d))
		caps = append(caps, d.Status.Capabilities)
	}
	view.HasError = lo.Uniq(lo.Flatten(errs))
	slices.Sort(view.HasError)
	view.Capabilities = lo.Uniq(lo.Flatten(caps))
	return deps
}

func deviceView(d model.Device) View {
	return View{
		Kind:         model.KindDevice,
		ID:           d.ID,
		Name:         deviceName(d),
		HasError:     deviceErrors(d),
		Capabilities: slices.Clone(d.Status.Capabilities),
		IsOnline:     d.Status.IsOnline,
		IsAttached:   d.Status.IsAttached,
	}
}

func deviceName(d model.Device) string {
	if ip := d.Data.PrimaryIP; ip != nil {
		if ip.Description != "" {
			return ip.Description
		}
		if ip.DNSName != "" {
			return ip.DNSName
		}
	}
	return d.Data.Name
}

func locationName(l model.Location) string {
	if l.Data.Description != nil && *l.Data.Description != "" {
		return *l.Data.Description
	}
	return l.Data.Name
}

func deviceErrors(d model.Device) []string {
	name := deviceName(d)
	out := make([]string, 0, len(d.Status.Errors))
	for field, level := range d.Status.Errors {
		if level == nil || *level == model.LevelOK {
			continue
		}
		out = append(out, fmt.Sprintf("%s (%s)", name, field))
	}
	slices.Sort(out)
	return out
}
