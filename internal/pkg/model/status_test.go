package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceStatus_Apply(t *testing.T) {
	tests := map[string]struct {
		event       StatusEvent
		wantChanged bool
		wantErr     error
		check       func(t *testing.T, s DeviceStatus)
	}{
		"is_online": {
			event:       NewStatusEvent(1, FieldIsOnline, 2),
			wantChanged: true,
			check: func(t *testing.T, s DeviceStatus) {
				assert.Equal(t, StatusOnline, s.IsOnline)
			},
		},
		"is_online out of range": {
			event:   NewStatusEvent(1, FieldIsOnline, 7),
			wantErr: ErrInvalidValue,
		},
		"is_online null": {
			event:   StatusEvent{Target: 1, Field: FieldIsOnline, Value: json.RawMessage("null")},
			wantErr: ErrInvalidValue,
		},
		"capabilities deduplicated": {
			event:       NewStatusEvent(1, FieldCapabilities, []string{"wake", "shutdown", "wake"}),
			wantChanged: true,
			check: func(t *testing.T, s DeviceStatus) {
				assert.Equal(t, []Capability{CapWake, CapShutdown}, s.Capabilities)
			},
		},
		"capabilities outside vocabulary": {
			event:   NewStatusEvent(1, FieldCapabilities, []string{"wake", "explode"}),
			wantErr: ErrInvalidValue,
		},
		"errors map": {
			event:       StatusEvent{Target: 1, Field: FieldErrors, Value: json.RawMessage(`{"fan":"warning","lamp":null}`)},
			wantChanged: true,
			check: func(t *testing.T, s DeviceStatus) {
				require.NotNil(t, s.Errors["fan"])
				assert.Equal(t, LevelWarning, *s.Errors["fan"])
				assert.Nil(t, s.Errors["lamp"])
			},
		},
		"errors unknown level": {
			event:   StatusEvent{Target: 1, Field: FieldErrors, Value: json.RawMessage(`{"fan":"on fire"}`)},
			wantErr: ErrInvalidValue,
		},
		"is_muted as number": {
			event:       NewStatusEvent(1, FieldIsMuted, 1),
			wantChanged: true,
			check: func(t *testing.T, s DeviceStatus) {
				require.NotNil(t, s.IsMuted)
				assert.True(t, bool(*s.IsMuted))
			},
		},
		"null display": {
			event: StatusEvent{Target: 1, Field: FieldDisplay, Value: json.RawMessage("null")},
		},
		"fans": {
			event:       StatusEvent{Target: 1, Field: FieldFans, Value: json.RawMessage(`{"nct6795":[{"label":"cpu","current":1200}]}`)},
			wantChanged: true,
			check: func(t *testing.T, s DeviceStatus) {
				assert.Equal(t, []Reading{{Label: "cpu", Current: 1200}}, s.Fans["nct6795"])
			},
		},
		"knx_state is not a device field": {
			event:   NewStatusEvent(1, FieldKNXState, 1),
			wantErr: ErrUndeclaredField,
		},
		"is_attached is not writable": {
			event:   NewStatusEvent(1, StatusField("is_attached"), true),
			wantErr: ErrUndeclaredField,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := NewDeviceStatus()
			changed, err := s.Apply(tt.event)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, changed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestDeviceStatus_ApplyTwiceIsIdempotent(t *testing.T) {
	s := NewDeviceStatus()
	ev := NewStatusEvent(1, FieldIsOnline, 2)

	changed, err := s.Apply(ev)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Apply(ev)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, StatusOnline, s.IsOnline)
}

func TestLocationStatus_Apply(t *testing.T) {
	s := NewLocationStatus()
	assert.Equal(t, KNXUnknown, s.KNXState)

	changed, err := s.Apply(NewStatusEvent(3, FieldKNXState, 1))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, KNXOn, s.KNXState)

	_, err = s.Apply(NewStatusEvent(3, FieldKNXState, 2))
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = s.Apply(NewStatusEvent(3, FieldFans, map[string]any{}))
	assert.ErrorIs(t, err, ErrUndeclaredField)
}

func TestGenericStatus_Attach(t *testing.T) {
	s := NewGenericStatus()
	assert.True(t, s.Attach())
	assert.False(t, s.Attach())
	assert.True(t, s.IsAttached)
}

func TestFetchCommand(t *testing.T) {
	data, err := json.Marshal(FetchCommand(TagRef(12)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"target":"tag","command":"fetch","data":{"id":12}}`, string(data))
}

func TestScheduledEvent_Validate(t *testing.T) {
	ev := ScheduledEvent{
		ID:    "abc",
		Start: "2026-10-19T08:00:00",
		Target: ScheduleTarget{
			Kind:    KindLocation,
			ID:      4,
			Actions: &DefaultScheduleAction,
		},
	}
	assert.NoError(t, ev.Validate())

	ev.Target.Kind = KindKNX
	assert.ErrorIs(t, ev.Validate(), ErrInvalidSchedule)

	ev.Target.Kind = KindDevice
	ev.Target.Actions = &ScheduleAction{Start: "explode", End: CapWake}
	assert.ErrorIs(t, ev.Validate(), ErrInvalidSchedule)
}

func TestKNXEvent_Timestamp(t *testing.T) {
	ev := KNXEvent{Time: 1700000000.5}
	assert.Equal(t, int64(1700000000), ev.Timestamp().Unix())
	assert.Equal(t, 500, ev.Timestamp().Nanosecond()/1e6)
}
