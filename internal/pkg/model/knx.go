package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidGroupAddress = errors.New("invalid knx group address")

// AddressStyle is the notation a group address is written in.
type AddressStyle int

const (
	StyleFree       AddressStyle = 1 // "2595"
	StyleTwoLevel   AddressStyle = 2 // "main/sub"
	StyleThreeLevel AddressStyle = 3 // "main/middle/sub"
)

// Per-level upper bounds, indexed by the number of levels.
var levelLimits = map[AddressStyle][]uint64{
	StyleFree:       {65535},
	StyleTwoLevel:   {31, 2047},
	StyleThreeLevel: {31, 7, 255},
}

// GroupAddress is a 16 bit KNX group address and the notation it came in.
type GroupAddress struct {
	Raw   uint16
	Style AddressStyle
}

func (ga GroupAddress) String() string {
	switch ga.Style {
	case StyleThreeLevel:
		return fmt.Sprintf("%d/%d/%d", ga.Raw>>11, ga.Raw>>8&0x7, ga.Raw&0xff)
	case StyleTwoLevel:
		return fmt.Sprintf("%d/%d", ga.Raw>>11, ga.Raw&0x7ff)
	}
	return strconv.FormatUint(uint64(ga.Raw), 10)
}

// ParseGroupAddress accepts the free ("2595"), 2-level ("1/234") and 3-level
// ("1/2/3") notations.
func ParseGroupAddress(s string) (GroupAddress, error) {
	parts := strings.Split(s, "/")
	style := AddressStyle(len(parts))
	limits, ok := levelLimits[style]
	if !ok {
		return GroupAddress{}, fmt.Errorf("%w: too many levels in %q", ErrInvalidGroupAddress, s)
	}
	levels := make([]uint64, len(parts))
	for i, limit := range limits {
		n, err := strconv.ParseUint(parts[i], 10, 16)
		if err != nil || n > limit {
			return GroupAddress{}, fmt.Errorf("%w: level %d must be 0-%d, got %q", ErrInvalidGroupAddress, i+1, limit, parts[i])
		}
		levels[i] = n
	}

	var raw uint64
	switch style {
	case StyleThreeLevel:
		raw = levels[0]<<11 | levels[1]<<8 | levels[2]
	case StyleTwoLevel:
		raw = levels[0]<<11 | levels[1]
	default:
		raw = levels[0]
	}
	return GroupAddress{Raw: uint16(raw), Style: style}, nil
}
