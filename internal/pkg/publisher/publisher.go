package publisher

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/anicoll/fleetsync/internal/pkg/graph"
	"github.com/anicoll/fleetsync/internal/pkg/metrics"
	"github.com/anicoll/fleetsync/internal/pkg/model"
	"github.com/anicoll/fleetsync/internal/pkg/views"
)

var errAlreadyRegistered = errors.New("publisher already registered")

const maxBatch = 256

type publisher interface {
	// Write mirrors the derived state of changed entities.
	Write(ctx context.Context, data []views.View) error
}

type journal interface {
	WriteKNXEvents(ctx context.Context, events []model.KNXEvent) error
	WriteErrors(ctx context.Context, records []model.ErrorRecord) error
}

type Source interface {
	Subscribe() (<-chan graph.Change, func())
	Refs() []model.Ref
	Device(id model.ID) (model.Device, bool)
}

type Views interface {
	Get(ref model.Ref) (views.View, bool)
}

// Publisher fans graph changes out to the registered sinks. Views are only
// written when their content changed since the last write.
type Publisher struct {
	source Source
	views  Views
	logger *zap.Logger

	mu         sync.RWMutex
	publishers map[string]publisher
	journals   map[string]journal

	sensors sync.Map
}

type Option func(*Publisher)

func WithLogger(l *zap.Logger) Option {
	return func(p *Publisher) {
		p.logger = l
	}
}

func New(source Source, v Views, opts ...Option) *Publisher {
	p := &Publisher{
		source:     source,
		views:      v,
		logger:     zap.L(), // returns the global logger.
		publishers: make(map[string]publisher),
		journals:   make(map[string]journal),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Publisher) RegisterPublisher(name string, pub publisher) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.publishers[name]; ok {
		return errAlreadyRegistered
	}
	p.publishers[name] = pub
	return nil
}

func (p *Publisher) RegisterJournal(name string, j journal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.journals[name]; ok {
		return errAlreadyRegistered
	}
	p.journals[name] = j
	return nil
}

// Run publishes every entity once and then follows the graph until ctx ends.
func (p *Publisher) Run(ctx context.Context) error {
	changes, unsubscribe := p.source.Subscribe()
	defer unsubscribe()

	p.PublishViews(ctx, p.source.Refs())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			p.handle(ctx, collect(c, changes))
		}
	}
}

// collect drains whatever else is already queued so bursts go out as one write.
func collect(first graph.Change, changes <-chan graph.Change) []graph.Change {
	batch := []graph.Change{first}
	for len(batch) < maxBatch {
		select {
		case c, ok := <-changes:
			if !ok {
				return batch
			}
			batch = append(batch, c)
		default:
			return batch
		}
	}
	return batch
}

func (p *Publisher) handle(ctx context.Context, batch []graph.Change) {
	var (
		refs   []model.Ref
		knx    []model.KNXEvent
		errs   []model.ErrorRecord
		resync bool
	)
	for _, c := range batch {
		switch {
		case c.Replaced:
			resync = true
		case c.KNX != nil:
			knx = append(knx, *c.KNX)
		case c.Error != nil:
			errs = append(errs, *c.Error)
		case c.Ref.Kind.IsEntity():
			refs = append(refs, p.affected(c.Ref)...)
		}
	}
	if resync {
		refs = p.source.Refs()
	}
	p.PublishViews(ctx, refs)
	p.journal(ctx, knx, errs)
}

// affected lists ref plus the aggregates that derive from it.
func (p *Publisher) affected(ref model.Ref) []model.Ref {
	if ref.Kind != model.KindDevice {
		return []model.Ref{ref}
	}
	out := []model.Ref{ref}
	d, ok := p.source.Device(ref.ID)
	if !ok {
		return out
	}
	for _, t := range d.Data.Tags {
		out = append(out, model.TagRef(t))
	}
	if d.Data.Location != nil {
		out = append(out, model.LocationRef(*d.Data.Location))
	}
	return out
}

// PublishViews writes the current view of each ref whose content changed.
func (p *Publisher) PublishViews(ctx context.Context, refs []model.Ref) {
	data := make([]views.View, 0, len(refs))
	seen := make(map[model.Ref]struct{}, len(refs))
	for _, ref := range refs {
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		v, ok := p.views.Get(ref)
		if !ok {
			continue
		}
		if !p.shouldUpdate(v) {
			continue
		}
		data = append(data, v)
	}
	if len(data) == 0 {
		return
	}
	slices.SortFunc(data, func(a, b views.View) int {
		return compareRefs(a.Ref(), b.Ref())
	})

	p.mu.RLock()
	defer p.mu.RUnlock()
	for name, pub := range p.publishers {
		if err := pub.Write(ctx, data); err != nil {
			p.logger.Error("failed to publish data", zap.Error(err), zap.String("publisher", name))
			metrics.IncSinkWrite(name, metrics.ResultError)
			continue
		}
		metrics.IncSinkWrite(name, metrics.ResultSuccess)
		p.logger.Debug("updated views", zap.Int("count", len(data)), zap.String("publisher", name))
	}
}

func (p *Publisher) journal(ctx context.Context, knx []model.KNXEvent, errs []model.ErrorRecord) {
	if len(knx) == 0 && len(errs) == 0 {
		return
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for name, j := range p.journals {
		if len(knx) > 0 {
			p.record(name, j.WriteKNXEvents(ctx, knx))
		}
		if len(errs) > 0 {
			p.record(name, j.WriteErrors(ctx, errs))
		}
	}
}

func (p *Publisher) record(name string, err error) {
	if err != nil {
		p.logger.Error("failed to write journal", zap.Error(err), zap.String("journal", name))
		metrics.IncSinkWrite(name, metrics.ResultError)
		return
	}
	metrics.IncSinkWrite(name, metrics.ResultSuccess)
}

func (p *Publisher) shouldUpdate(v views.View) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("failed to encode view", zap.Stringer("ref", v.Ref()), zap.Error(err))
		return false
	}
	key := v.Ref().String()
	newValue := string(payload)
	oldValue, exists := p.sensors.Load(key)
	if exists && newValue == oldValue.(string) {
		return false
	}
	if !exists {
		p.logger.Info("configured entity", zap.String("ref", key), zap.String("name", v.Name))
	}
	p.sensors.Store(key, newValue)
	return true
}

func compareRefs(a, b model.Ref) int {
	return cmp.Or(cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.ID, b.ID))
}
