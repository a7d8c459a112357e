package model

import (
	"errors"
	"fmt"
)

var ErrInvalidSchedule = errors.New("invalid scheduled event")

// ScheduledEvent is a calendar entry that fires Actions.Start at the beginning
// of its time range and Actions.End at its end.
type ScheduledEvent struct {
	ID              string         `json:"id"`
	AllDay          bool           `json:"allDay"`
	Start           string         `json:"start"`
	End             *string        `json:"end"`
	RRule           *string        `json:"rrule"`
	Duration        *float64       `json:"duration"`
	Title           string         `json:"title"`
	BackgroundColor *string        `json:"backgroundColor"`
	Target          ScheduleTarget `json:"extendedProps"`
}

// ScheduleTarget references the entity a scheduled event acts on.
type ScheduleTarget struct {
	Kind        Kind            `json:"type"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	ID          ID              `json:"id"`
	Actions     *ScheduleAction `json:"actions"`
}

type ScheduleAction struct {
	Start Capability `json:"start"`
	End   Capability `json:"end"`
}

// DefaultScheduleAction shuts a target down when the event starts and wakes it when it ends.
var DefaultScheduleAction = ScheduleAction{Start: CapShutdown, End: CapWake}

func (e ScheduledEvent) Ref() Ref {
	return Ref{Kind: e.Target.Kind, ID: e.Target.ID}
}

// Validate checks the event references an entity kind and uses vocabulary actions.
func (e ScheduledEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidSchedule)
	}
	if e.Start == "" {
		return fmt.Errorf("%w: missing start", ErrInvalidSchedule)
	}
	if !e.Target.Kind.IsEntity() {
		return fmt.Errorf("%w: target kind %q", ErrInvalidSchedule, e.Target.Kind)
	}
	if a := e.Target.Actions; a != nil {
		if !a.Start.Valid() || !a.End.Valid() {
			return fmt.Errorf("%w: actions %q/%q", ErrInvalidSchedule, a.Start, a.End)
		}
	}
	return nil
}
