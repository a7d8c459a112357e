package model

import (
	"encoding/json"
	"math"
	"time"
)

// InboundFrame is the envelope of every message pushed by the server.
// Exactly one of Data and Error is set on a well-formed frame.
type InboundFrame struct {
	Target Kind          `json:"target,omitempty"`
	Data   *FrameData    `json:"data,omitempty"`
	Error  *ErrorPayload `json:"error,omitempty"`
}

type FrameData struct {
	Event json.RawMessage `json:"event"`
}

// StatusEvent writes one typed field into the status of the entity Target.
// Value is decoded against the field's declared type when it is applied.
type StatusEvent struct {
	Target ID              `json:"target"`
	Field  StatusField     `json:"type"`
	Value  json.RawMessage `json:"value"`
}

// NewStatusEvent builds an event from a Go value, mostly for tests and local writes.
func NewStatusEvent(target ID, field StatusField, value any) StatusEvent {
	raw, err := json.Marshal(value)
	if err != nil {
		raw = jsonNull
	}
	return StatusEvent{Target: target, Field: field, Value: raw}
}

// AppEvent is the payload of an app-targeted frame.
type AppEvent struct {
	Type string `json:"type"`
}

const AppEventRefresh = "refresh"

// KNXEvent is one entry of the append-only KNX bus log.
type KNXEvent struct {
	ID           string  `json:"id"`
	Target       ID      `json:"target"`
	State        *bool   `json:"state"`
	Time         float64 `json:"time"`
	GroupAddress *string `json:"group_address"`
}

// Timestamp converts the epoch-seconds Time field.
func (e KNXEvent) Timestamp() time.Time {
	return epoch(e.Time)
}

// ErrorPayload is the body of a server-pushed error frame.
type ErrorPayload struct {
	Message string  `json:"message"`
	Errors  []any   `json:"errors"`
	Time    float64 `json:"time"`
}

// ErrorRecord is one entry of the append-only application error log.
type ErrorRecord struct {
	ID      string  `json:"id"`
	Message string  `json:"message"`
	Errors  []any   `json:"errors"`
	Time    float64 `json:"time"`
}

func (e ErrorRecord) Timestamp() time.Time {
	return epoch(e.Time)
}

// Command is an outbound frame sent over the transport.
type Command struct {
	Target  Kind   `json:"target"`
	Command string `json:"command"`
	Data    any    `json:"data"`
}

type IDPayload struct {
	ID ID `json:"id"`
}

const CommandFetch = "fetch"

// FetchCommand asks the server to push the full status of ref.
func FetchCommand(ref Ref) Command {
	return Command{
		Target:  ref.Kind,
		Command: CommandFetch,
		Data:    IDPayload{ID: ref.ID},
	}
}

func epoch(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC()
}
