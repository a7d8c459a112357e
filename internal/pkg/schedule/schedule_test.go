package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/fleetsync/internal/pkg/model"
)

type fakeClient struct {
	events  []model.ScheduledEvent
	saved   []model.ScheduledEvent
	deleted []string
	err     error
}

func (f *fakeClient) GetScheduledEvents(context.Context) ([]model.ScheduledEvent, error) {
	return f.events, f.err
}

func (f *fakeClient) SaveScheduledEvent(_ context.Context, ev model.ScheduledEvent) error {
	f.saved = append(f.saved, ev)
	return f.err
}

func (f *fakeClient) DeleteScheduledEvent(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func event(id, start string, kind model.Kind) model.ScheduledEvent {
	return model.ScheduledEvent{
		ID:     id,
		Start:  start,
		Title:  id,
		Target: model.ScheduleTarget{Kind: kind, ID: 1},
	}
}

func TestStore_Fetch(t *testing.T) {
	client := &fakeClient{events: []model.ScheduledEvent{
		event("b", "2026-01-02", model.KindTag),
		event("a", "2026-01-03", model.KindDevice),
		event("bad", "2026-01-01", model.KindKNX),
	}}
	s := New(client)

	require.NoError(t, s.Fetch(context.Background()))
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
	assert.False(t, s.Loading())

	client.events = nil
	require.NoError(t, s.Fetch(context.Background()))
	assert.Empty(t, s.List())
}

func TestStore_CommitDefaultsActions(t *testing.T) {
	client := &fakeClient{}
	s := New(client)

	ev, err := s.Commit(context.Background(), event("e1", "2026-01-01", model.KindLocation))
	require.NoError(t, err)
	require.NotNil(t, ev.Target.Actions)
	assert.Equal(t, model.DefaultScheduleAction, *ev.Target.Actions)
	require.Len(t, client.saved, 1)

	got, ok := s.Get("e1")
	require.True(t, ok)
	assert.Equal(t, ev, got)
}

func TestStore_CommitRejects(t *testing.T) {
	tests := map[string]struct {
		ev model.ScheduledEvent
	}{
		"missing id":    {ev: event("", "2026-01-01", model.KindTag)},
		"missing start": {ev: event("x", "", model.KindTag)},
		"bad action": {ev: func() model.ScheduledEvent {
			ev := event("x", "2026-01-01", model.KindTag)
			ev.Target.Actions = &model.ScheduleAction{Start: "explode", End: model.CapWake}
			return ev
		}()},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			client := &fakeClient{}
			s := New(client)
			_, err := s.Commit(context.Background(), tt.ev)
			assert.ErrorIs(t, err, model.ErrInvalidSchedule)
			assert.Empty(t, client.saved)
			assert.Empty(t, s.List())
		})
	}
}

func TestStore_Remove(t *testing.T) {
	client := &fakeClient{events: []model.ScheduledEvent{event("e1", "2026-01-01", model.KindTag)}}
	s := New(client)
	require.NoError(t, s.Fetch(context.Background()))

	client.err = errors.New("server down")
	err := s.Remove(context.Background(), "e1")
	assert.Error(t, err)
	_, ok := s.Get("e1")
	assert.False(t, ok)
	assert.Equal(t, []string{"e1"}, client.deleted)
}
