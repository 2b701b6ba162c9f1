package ledger

import (
	"sync"
	"time"
)

// Clock returns the current ledger time in unix seconds.
type Clock interface {
	Now() int64
}

type ClockFunc func() int64

func (f ClockFunc) Now() int64 {
	return f()
}

// SystemClock follows wall time but never goes backwards.
type SystemClock struct {
	mu   sync.Mutex
	last int64
}

func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (c *SystemClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().Unix()
	if now < c.last {
		now = c.last
	}
	c.last = now
	return now
}
