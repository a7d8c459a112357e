package model

import (
	"encoding/json"
	"fmt"
)

// Capability is an actionable verb from the closed capability vocabulary.
type Capability string

const (
	CapWake     Capability = "wake"
	CapShutdown Capability = "shutdown"
	CapReboot   Capability = "reboot"
	CapMute     Capability = "mute"
	CapUnmute   Capability = "unmute"
	CapScram    Capability = "scram"
	CapUnscram  Capability = "unscram"
	CapCancel   Capability = "cancel"
)

// Vocabulary lists every capability in display order.
var Vocabulary = []Capability{
	CapWake,
	CapShutdown,
	CapReboot,
	CapMute,
	CapUnmute,
	CapScram,
	CapUnscram,
	CapCancel,
}

func (c Capability) String() string {
	return string(c)
}

func (c Capability) Valid() bool {
	for _, v := range Vocabulary {
		if v == c {
			return true
		}
	}
	return false
}

func (c *Capability) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: capability: %w", ErrInvalidValue, err)
	}
	if !Capability(v).Valid() {
		return fmt.Errorf("%w: unknown capability %q", ErrInvalidValue, v)
	}
	*c = Capability(v)
	return nil
}
