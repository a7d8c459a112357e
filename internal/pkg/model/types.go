package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind names the target of a frame or the owner of a graph change.
type Kind string

func (k Kind) String() string {
	return string(k)
}

const (
	KindDevice   Kind = "device"
	KindTag      Kind = "tag"
	KindLocation Kind = "location"
	KindKNX      Kind = "knx"
	KindApp      Kind = "app"
	KindError    Kind = "error"
)

// IsEntity reports whether k addresses one of the id-keyed entity maps.
func (k Kind) IsEntity() bool {
	switch k {
	case KindDevice, KindTag, KindLocation:
		return true
	}
	return false
}

// ID identifies an entity within its kind. Ids are stable for the entity's lifetime.
type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Ref is a kind-qualified entity id. It is the only way entities point at each other.
type Ref struct {
	Kind Kind
	ID   ID
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%d", r.Kind, r.ID)
}

func DeviceRef(id ID) Ref   { return Ref{Kind: KindDevice, ID: id} }
func TagRef(id ID) Ref      { return Ref{Kind: KindTag, ID: id} }
func LocationRef(id ID) Ref { return Ref{Kind: KindLocation, ID: id} }

// OnlineStatus is the 4-value online ordinal reported for every entity.
type OnlineStatus int

const (
	StatusUndefined    OnlineStatus = -1
	StatusOffline      OnlineStatus = 0
	StatusIntermediate OnlineStatus = 1
	StatusOnline       OnlineStatus = 2
)

func (s OnlineStatus) String() string {
	switch s {
	case StatusUndefined:
		return "undefined"
	case StatusOffline:
		return "offline"
	case StatusIntermediate:
		return "intermediate"
	case StatusOnline:
		return "online"
	}
	return "OnlineStatus(" + strconv.Itoa(int(s)) + ")"
}

func (s *OnlineStatus) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: is_online: %w", ErrInvalidValue, err)
	}
	if v < int(StatusUndefined) || v > int(StatusOnline) {
		return fmt.Errorf("%w: is_online out of range: %d", ErrInvalidValue, v)
	}
	*s = OnlineStatus(v)
	return nil
}

// KNXState is the tri-state switch feedback of a location.
type KNXState int

const (
	KNXUnknown KNXState = -1
	KNXOff     KNXState = 0
	KNXOn      KNXState = 1
)

func (s *KNXState) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: knx_state: %w", ErrInvalidValue, err)
	}
	if v < int(KNXUnknown) || v > int(KNXOn) {
		return fmt.Errorf("%w: knx_state out of range: %d", ErrInvalidValue, v)
	}
	*s = KNXState(v)
	return nil
}

// ErrorLevel is the severity of one entry of a device's error map.
type ErrorLevel string

const (
	LevelOK      ErrorLevel = "ok"
	LevelWarning ErrorLevel = "warning"
	LevelError   ErrorLevel = "error"
)

func (l *ErrorLevel) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: error level: %w", ErrInvalidValue, err)
	}
	switch ErrorLevel(v) {
	case LevelOK, LevelWarning, LevelError:
		*l = ErrorLevel(v)
		return nil
	}
	return fmt.Errorf("%w: unknown error level %q", ErrInvalidValue, v)
}

// Flag decodes the muted flag, which the server reports either as a bool or as 0/1.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: flag: %s", ErrInvalidValue, data)
	}
	*f = n != 0
	return nil
}
