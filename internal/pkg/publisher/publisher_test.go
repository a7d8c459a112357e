package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anicoll/fleetsync/internal/pkg/graph"
	"github.com/anicoll/fleetsync/internal/pkg/model"
	"github.com/anicoll/fleetsync/internal/pkg/views"
)

type fakeSink struct {
	writes chan []views.View
}

func newFakeSink() *fakeSink {
	return &fakeSink{writes: make(chan []views.View, 16)}
}

func (f *fakeSink) Write(_ context.Context, data []views.View) error {
	f.writes <- data
	return nil
}

func (f *fakeSink) next(t *testing.T) []model.Ref {
	t.Helper()
	select {
	case data := <-f.writes:
		refs := make([]model.Ref, 0, len(data))
		for _, v := range data {
			refs = append(refs, v.Ref())
		}
		return refs
	case <-time.After(5 * time.Second):
		t.Fatal("no write")
	}
	return nil
}

type fakeJournal struct {
	knx  chan []model.KNXEvent
	errs chan []model.ErrorRecord
}

func (f *fakeJournal) WriteKNXEvents(_ context.Context, events []model.KNXEvent) error {
	f.knx <- events
	return nil
}

func (f *fakeJournal) WriteErrors(_ context.Context, records []model.ErrorRecord) error {
	f.errs <- records
	return nil
}

func id(v model.ID) *model.ID { return &v }

func setup(t *testing.T) (*graph.Graph, *Publisher) {
	t.Helper()
	g := graph.New(graph.WithLogger(zaptest.NewLogger(t)))
	g.Replace(model.Snapshot{
		Devices: []model.Device{
			{ID: 1, Data: model.DeviceData{Name: "projector-1", Tags: []model.ID{10}, Location: id(100)}},
			{ID: 2, Data: model.DeviceData{Name: "player-2", Location: id(100)}},
		},
		Tags:      []model.Tag{{ID: 10, Data: model.TagData{Name: "projectors", Devices: []model.ID{1}}}},
		Locations: []model.Location{{ID: 100, Data: model.LocationData{Name: "hall", Devices: []model.ID{1, 2}}}},
	})
	return g, New(g, views.New(g), WithLogger(zaptest.NewLogger(t)))
}

func TestPublisher_RegisterPublisher(t *testing.T) {
	_, p := setup(t)
	require.NoError(t, p.RegisterPublisher("mqtt", newFakeSink()))
	assert.ErrorIs(t, p.RegisterPublisher("mqtt", newFakeSink()), errAlreadyRegistered)
	require.NoError(t, p.RegisterJournal("postgres", &fakeJournal{}))
	assert.ErrorIs(t, p.RegisterJournal("postgres", &fakeJournal{}), errAlreadyRegistered)
}

func TestPublisher_PublishViewsDedupes(t *testing.T) {
	g, p := setup(t)
	sink := newFakeSink()
	require.NoError(t, p.RegisterPublisher("sink", sink))

	p.PublishViews(context.Background(), g.Refs())
	assert.Equal(t, []model.Ref{
		model.DeviceRef(1), model.DeviceRef(2), model.LocationRef(100), model.TagRef(10),
	}, sink.next(t))

	p.PublishViews(context.Background(), g.Refs())
	assert.Empty(t, sink.writes)
}

func TestPublisher_Run(t *testing.T) {
	g, p := setup(t)
	sink := newFakeSink()
	j := &fakeJournal{knx: make(chan []model.KNXEvent, 4), errs: make(chan []model.ErrorRecord, 4)}
	require.NoError(t, p.RegisterPublisher("sink", sink))
	require.NoError(t, p.RegisterJournal("journal", j))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	require.Len(t, sink.next(t), 4)

	// Only the device view changes; its aggregates are deduped away.
	require.NoError(t, g.CommitDeviceEvent(model.NewStatusEvent(1, model.FieldIsOnline, 2)))
	assert.Equal(t, []model.Ref{model.DeviceRef(1)}, sink.next(t))

	// A device error changes every aggregate it belongs to.
	require.NoError(t, g.CommitDeviceEvent(model.NewStatusEvent(1, model.FieldErrors, map[string]string{"lamp": "error"})))
	assert.Equal(t, []model.Ref{model.DeviceRef(1), model.LocationRef(100), model.TagRef(10)}, sink.next(t))

	g.CommitKNXEvent(model.KNXEvent{Target: 100, Time: 1})
	select {
	case events := <-j.knx:
		require.Len(t, events, 1)
		assert.Equal(t, model.ID(100), events[0].Target)
	case <-time.After(5 * time.Second):
		t.Fatal("no knx journal write")
	}

	g.CommitError(model.ErrorRecord{Message: "boom"})
	select {
	case records := <-j.errs:
		require.Len(t, records, 1)
		assert.Equal(t, "boom", records[0].Message)
	case <-time.After(5 * time.Second):
		t.Fatal("no error journal write")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
