package sockets

import "time"

// ReconnectPolicy decides how long to wait before the next dial after
// consecutive failed dials. A dropped connection is always redialed at once.
type ReconnectPolicy interface {
	Delay(failures int) time.Duration
}

// Immediate redials without waiting.
type Immediate struct{}

func (Immediate) Delay(int) time.Duration { return 0 }

// Backoff doubles the wait from Base for every consecutive failure, capped at Max.
// The first failure is retried at once.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

func (b Backoff) Delay(failures int) time.Duration {
	if failures <= 1 || b.Max <= 0 || b.Base <= 0 {
		return 0
	}
	d := b.Base
	for i := 2; i < failures; i++ {
		d *= 2
		if d >= b.Max {
			return b.Max
		}
	}
	return min(d, b.Max)
}
