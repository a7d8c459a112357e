package schedule

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/anicoll/fleetsync/internal/pkg/model"
)

type Client interface {
	GetScheduledEvents(ctx context.Context) ([]model.ScheduledEvent, error)
	SaveScheduledEvent(ctx context.Context, ev model.ScheduledEvent) error
	DeleteScheduledEvent(ctx context.Context, id string) error
}

// Store is the id-keyed set of scheduled events. Local changes are applied
// first and then sent to the server.
type Store struct {
	client Client
	logger *zap.Logger

	mu      sync.RWMutex
	events  map[string]model.ScheduledEvent
	loading bool
}

func New(client Client) *Store {
	return &Store{
		client: client,
		logger: zap.L(), // returns the global logger.
		events: make(map[string]model.ScheduledEvent),
	}
}

// Fetch replaces the local set with the server's.
func (s *Store) Fetch(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	events, err := s.client.GetScheduledEvents(ctx)
	if err != nil {
		return err
	}
	next := make(map[string]model.ScheduledEvent, len(events))
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			s.logger.Warn("skipping scheduled event", zap.String("id", ev.ID), zap.Error(err))
			continue
		}
		next[ev.ID] = ev
	}

	s.mu.Lock()
	s.events = next
	s.mu.Unlock()
	return nil
}

// Commit stores ev and saves it on the server. Events without actions get
// the default shutdown/wake pair.
func (s *Store) Commit(ctx context.Context, ev model.ScheduledEvent) (model.ScheduledEvent, error) {
	if ev.Target.Actions == nil {
		actions := model.DefaultScheduleAction
		ev.Target.Actions = &actions
	}
	if err := ev.Validate(); err != nil {
		return model.ScheduledEvent{}, err
	}

	s.mu.Lock()
	s.events[ev.ID] = ev
	s.mu.Unlock()

	if err := s.client.SaveScheduledEvent(ctx, ev); err != nil {
		return ev, err
	}
	s.logger.Info("saved scheduled event", zap.String("id", ev.ID), zap.String("title", ev.Title))
	return ev, nil
}

// Remove deletes the event locally and on the server.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.events, id)
	s.mu.Unlock()

	if err := s.client.DeleteScheduledEvent(ctx, id); err != nil {
		return err
	}
	s.logger.Info("deleted scheduled event", zap.String("id", id))
	return nil
}

func (s *Store) Get(id string) (model.ScheduledEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	return ev, ok
}

// List returns every event ordered by start, then id.
func (s *Store) List() []model.ScheduledEvent {
	s.mu.RLock()
	out := slices.Collect(maps.Values(s.events))
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b model.ScheduledEvent) int {
		return cmp.Or(cmp.Compare(a.Start, b.Start), cmp.Compare(a.ID, b.ID))
	})
	return out
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}
