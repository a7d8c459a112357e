package graph

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anicoll/fleetsync/internal/pkg/model"
)

func loc(id model.ID) *model.ID { return &id }

func testSnapshot() model.Snapshot {
	return model.Snapshot{
		Devices: []model.Device{
			{ID: 1, Data: model.DeviceData{Name: "projector-1", Tags: []model.ID{10}, Location: loc(100)}},
			{ID: 2, Data: model.DeviceData{Name: "projector-2", Tags: []model.ID{10}, Location: loc(100)}},
			{ID: 3, Data: model.DeviceData{Name: "player-3", Location: loc(100)}},
		},
		Tags: []model.Tag{
			{ID: 10, Data: model.TagData{Name: "projectors", Devices: []model.ID{1, 2}}},
		},
		Locations: []model.Location{
			{ID: 100, Data: model.LocationData{Name: "hall", Devices: []model.ID{1, 2, 3}, Tags: []model.ID{10}}},
		},
	}
}

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	g := New(WithLogger(zaptest.NewLogger(t)))
	g.Replace(testSnapshot())
	return g
}

func TestGraph_ReplaceStartsUnattached(t *testing.T) {
	g := newTestGraph(t)

	d, ok := g.Device(1)
	require.True(t, ok)
	assert.False(t, d.Status.IsAttached)
	assert.Equal(t, model.StatusUndefined, d.Status.IsOnline)
	assert.Equal(t, []model.ID{10}, d.Data.Tags)

	l, ok := g.Location(100)
	require.True(t, ok)
	assert.Equal(t, model.KNXUnknown, l.Status.KNXState)

	assert.Equal(t, []model.Ref{
		model.DeviceRef(1), model.DeviceRef(2), model.DeviceRef(3),
		model.TagRef(10),
		model.LocationRef(100),
	}, g.Refs())
	assert.Equal(t, uint64(1), g.Epoch())
}

func TestGraph_CommitDeviceEvent(t *testing.T) {
	g := newTestGraph(t)
	before := g.Version(model.DeviceRef(1))

	require.NoError(t, g.CommitDeviceEvent(model.NewStatusEvent(1, model.FieldIsOnline, 2)))

	d, _ := g.Device(1)
	assert.True(t, d.Status.IsAttached)
	assert.Equal(t, model.StatusOnline, d.Status.IsOnline)
	assert.Greater(t, g.Version(model.DeviceRef(1)), before)
}

func TestGraph_CommitIsIdempotent(t *testing.T) {
	g := newTestGraph(t)
	ev := model.NewStatusEvent(1, model.FieldIsOnline, 2)

	require.NoError(t, g.CommitDeviceEvent(ev))
	v := g.Version(model.DeviceRef(1))
	changes, cancel := g.Subscribe()
	defer cancel()

	require.NoError(t, g.CommitDeviceEvent(ev))

	d, _ := g.Device(1)
	assert.Equal(t, model.StatusOnline, d.Status.IsOnline)
	assert.Equal(t, v, g.Version(model.DeviceRef(1)))
	select {
	case c := <-changes:
		t.Fatalf("unexpected change %+v", c)
	default:
	}
}

func TestGraph_CommitRejections(t *testing.T) {
	tests := map[string]struct {
		commit  func(g *Graph) error
		wantErr error
	}{
		"unknown device": {
			commit:  func(g *Graph) error { return g.CommitDeviceEvent(model.NewStatusEvent(99, model.FieldIsOnline, 2)) },
			wantErr: ErrUnknownEntity,
		},
		"unknown tag": {
			commit:  func(g *Graph) error { return g.CommitTagEvent(model.NewStatusEvent(1, model.FieldIsOnline, 2)) },
			wantErr: ErrUnknownEntity,
		},
		"undeclared tag field": {
			commit:  func(g *Graph) error { return g.CommitTagEvent(model.NewStatusEvent(10, model.FieldKNXState, 1)) },
			wantErr: model.ErrUndeclaredField,
		},
		"invalid location value": {
			commit: func(g *Graph) error {
				return g.CommitLocationEvent(model.StatusEvent{Target: 100, Field: model.FieldKNXState, Value: json.RawMessage(`"on"`)})
			},
			wantErr: model.ErrInvalidValue,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			g := newTestGraph(t)
			err := tt.commit(g)
			assert.ErrorIs(t, err, ErrSchemaViolation)
			assert.ErrorIs(t, err, tt.wantErr)
			for _, ref := range g.Refs() {
				attached, _ := g.IsAttached(ref)
				assert.False(t, attached, ref.String())
			}
		})
	}
}

func TestGraph_ReplaceResetsAttachment(t *testing.T) {
	g := newTestGraph(t)
	require.NoError(t, g.CommitTagEvent(model.NewStatusEvent(10, model.FieldCapabilities, []string{"wake"})))
	attached, ok := g.IsAttached(model.TagRef(10))
	require.True(t, ok)
	require.True(t, attached)
	v := g.Version(model.TagRef(10))

	g.Replace(testSnapshot())

	attached, ok = g.IsAttached(model.TagRef(10))
	assert.True(t, ok)
	assert.False(t, attached)
	assert.NotEqual(t, v, g.Version(model.TagRef(10)))
	assert.Equal(t, uint64(2), g.Epoch())
}

func TestGraph_Attached(t *testing.T) {
	g := newTestGraph(t)
	assert.Nil(t, g.Attached(model.DeviceRef(99)))

	ch := g.Attached(model.DeviceRef(2))
	require.NotNil(t, ch)
	select {
	case <-ch:
		t.Fatal("closed before attach")
	default:
	}

	require.NoError(t, g.CommitDeviceEvent(model.NewStatusEvent(2, model.FieldShouldWake, true)))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("not released on attach")
	}

	// Already attached: the channel comes back closed.
	select {
	case <-g.Attached(model.DeviceRef(2)):
	default:
		t.Fatal("expected closed channel")
	}
}

func TestGraph_ReplaceReleasesRemovedWaiters(t *testing.T) {
	g := newTestGraph(t)
	ch := g.Attached(model.DeviceRef(3))

	snap := testSnapshot()
	snap.Devices = snap.Devices[:2]
	g.Replace(snap)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("waiter for removed device not released")
	}
	_, ok := g.Device(3)
	assert.False(t, ok)
}

func TestGraph_Logs(t *testing.T) {
	g := newTestGraph(t)
	state := true

	first := g.CommitKNXEvent(model.KNXEvent{ID: "a", Target: 100, State: &state, Time: 1})
	second := g.CommitKNXEvent(model.KNXEvent{Target: 100, Time: 2})
	assert.Equal(t, "a", first.ID)
	assert.NotEmpty(t, second.ID)
	events := g.KNXEvents()
	require.Len(t, events, 2)
	assert.Equal(t, second.ID, events[0].ID)

	rec := g.CommitError(model.ErrorRecord{Message: "boom", Time: 3})
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, []model.ErrorRecord{rec}, g.Errors())
}

func TestGraph_Subscribe(t *testing.T) {
	g := newTestGraph(t)
	changes, cancel := g.Subscribe()

	require.NoError(t, g.CommitLocationEvent(model.NewStatusEvent(100, model.FieldKNXState, 1)))
	c := <-changes
	assert.Equal(t, model.LocationRef(100), c.Ref)
	assert.Equal(t, g.Version(model.LocationRef(100)), c.Version)

	g.CommitError(model.ErrorRecord{Message: "x"})
	c = <-changes
	require.NotNil(t, c.Error)
	assert.Equal(t, "x", c.Error.Message)

	cancel()
	_, open := <-changes
	assert.False(t, open)
}

func TestGraph_SubscriberLagRequestsResync(t *testing.T) {
	g := newTestGraph(t)
	changes, cancel := g.Subscribe()
	defer cancel()

	for i := range subscriberBuffer + 5 {
		g.CommitError(model.ErrorRecord{Message: "flood", Time: float64(i)})
	}

	// The overflowing change drops the backlog and queues one resync marker.
	first := <-changes
	assert.True(t, first.Replaced)
	assert.Len(t, changes, 4)
	assert.Len(t, g.Errors(), subscriberBuffer+5)
}
