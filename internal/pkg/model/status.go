package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/samber/lo"
)

// StatusField names one writable field of an entity status block.
type StatusField string

func (f StatusField) String() string {
	return string(f)
}

const (
	FieldIsOnline       StatusField = "is_online"
	FieldShouldWake     StatusField = "should_wake"
	FieldShouldShutdown StatusField = "should_shutdown"
	FieldShouldReboot   StatusField = "should_reboot"
	FieldCapabilities   StatusField = "capabilities"

	FieldIsMuted      StatusField = "is_muted"
	FieldErrors       StatusField = "errors"
	FieldFans         StatusField = "fans"
	FieldTemperatures StatusField = "temperatures"
	FieldLamps        StatusField = "lamps"
	FieldPowerfeeds   StatusField = "powerfeeds"
	FieldDisplay      StatusField = "display"
	FieldIRes         StatusField = "ires"
	FieldBootTime     StatusField = "boot_time"
	FieldUptime       StatusField = "uptime"

	FieldKNXState StatusField = "knx_state"
)

// GenericStatus is shared by every entity kind.
// Fields are replaced wholesale on every write and never mutated in place,
// so a shallow copy of a status block is safe to hand to another goroutine.
type GenericStatus struct {
	IsAttached     bool         `json:"is_attached"`
	IsOnline       OnlineStatus `json:"is_online"`
	ShouldWake     bool         `json:"should_wake"`
	ShouldShutdown bool         `json:"should_shutdown"`
	ShouldReboot   bool         `json:"should_reboot"`
	Capabilities   []Capability `json:"capabilities"`
}

// NewGenericStatus returns the status every entity starts with before attachment.
func NewGenericStatus() GenericStatus {
	return GenericStatus{
		IsOnline:     StatusUndefined,
		Capabilities: []Capability{},
	}
}

// Apply writes ev into the status block. It reports whether the stored value changed.
func (s *GenericStatus) Apply(ev StatusEvent) (bool, error) {
	switch ev.Field {
	case FieldIsOnline:
		return assign(&s.IsOnline, ev.Value)
	case FieldShouldWake:
		return assign(&s.ShouldWake, ev.Value)
	case FieldShouldShutdown:
		return assign(&s.ShouldShutdown, ev.Value)
	case FieldShouldReboot:
		return assign(&s.ShouldReboot, ev.Value)
	case FieldCapabilities:
		var caps []Capability
		if _, err := assign(&caps, ev.Value); err != nil {
			return false, err
		}
		caps = lo.Uniq(caps)
		if slices.Equal(caps, s.Capabilities) {
			return false, nil
		}
		s.Capabilities = caps
		return true, nil
	}
	return false, fmt.Errorf("%w: %q", ErrUndeclaredField, ev.Field)
}

// Attach marks the status hydrated. It reports whether the flag flipped.
func (s *GenericStatus) Attach() bool {
	if s.IsAttached {
		return false
	}
	s.IsAttached = true
	return true
}

type Reading struct {
	Label   string   `json:"label"`
	Current float64  `json:"current"`
	High    *float64 `json:"high,omitempty"`
}

type DeviceStatus struct {
	GenericStatus
	IsMuted      *Flag                  `json:"is_muted"`
	Errors       map[string]*ErrorLevel `json:"errors"`
	Fans         map[string][]Reading   `json:"fans"`
	Temperatures map[string][]Reading   `json:"temperatures,omitempty"`
	Lamps        [][]any                `json:"lamps"`
	Powerfeeds   []bool                 `json:"powerfeeds"`
	Display      *string                `json:"display"`
	IRes         *string                `json:"ires"`
	BootTime     *float64               `json:"boot_time"`
	Uptime       *float64               `json:"uptime"`
}

func NewDeviceStatus() DeviceStatus {
	return DeviceStatus{
		GenericStatus: NewGenericStatus(),
		Powerfeeds:    []bool{},
	}
}

func (s *DeviceStatus) Apply(ev StatusEvent) (bool, error) {
	switch ev.Field {
	case FieldIsMuted:
		return assign(&s.IsMuted, ev.Value)
	case FieldErrors:
		return assign(&s.Errors, ev.Value)
	case FieldFans:
		return assign(&s.Fans, ev.Value)
	case FieldTemperatures:
		return assign(&s.Temperatures, ev.Value)
	case FieldLamps:
		return assign(&s.Lamps, ev.Value)
	case FieldPowerfeeds:
		return assign(&s.Powerfeeds, ev.Value)
	case FieldDisplay:
		return assign(&s.Display, ev.Value)
	case FieldIRes:
		return assign(&s.IRes, ev.Value)
	case FieldBootTime:
		return assign(&s.BootTime, ev.Value)
	case FieldUptime:
		return assign(&s.Uptime, ev.Value)
	}
	return s.GenericStatus.Apply(ev)
}

type LocationStatus struct {
	GenericStatus
	KNXState KNXState `json:"knx_state"`
}

func NewLocationStatus() LocationStatus {
	return LocationStatus{
		GenericStatus: NewGenericStatus(),
		KNXState:      KNXUnknown,
	}
}

func (s *LocationStatus) Apply(ev StatusEvent) (bool, error) {
	if ev.Field == FieldKNXState {
		return assign(&s.KNXState, ev.Value)
	}
	return s.GenericStatus.Apply(ev)
}

var jsonNull = []byte("null")

// assign decodes raw into a fresh T and stores it when it differs from *dst.
// Null is only accepted for types that have a nil value.
func assign[T any](dst *T, raw json.RawMessage) (bool, error) {
	var v T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull) {
		switch reflect.TypeOf(dst).Elem().Kind() {
		case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		default:
			return false, fmt.Errorf("%w: null for non-nullable field", ErrInvalidValue)
		}
	} else if err := json.Unmarshal(trimmed, &v); err != nil {
		if errors.Is(err, ErrInvalidValue) {
			return false, err
		}
		return false, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	if reflect.DeepEqual(*dst, v) {
		return false, nil
	}
	*dst = v
	return true, nil
}
