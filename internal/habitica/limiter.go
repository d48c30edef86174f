package habitica

import (
	"sync"
	"time"
)

// Limiter delays every remote call by a fixed interval.
//
// [Limiter.Wait] always sleeps the full interval, however long the previous
// request took. Hook processes run back to back and cannot see each other's
// last call, so the pause before each request is the only spacing they share.
// Concurrent callers wait one after another. Waiting is not cancellable.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	sleep    func(time.Duration)
}

// NewLimiter returns a Limiter using the real clock. An interval <= 0 never
// blocks.
func NewLimiter(interval time.Duration) *Limiter {
	return NewLimiterWithSleep(interval, time.Sleep)
}

// NewLimiterWithSleep is like [NewLimiter] with an injectable sleep.
func NewLimiterWithSleep(interval time.Duration, sleep func(time.Duration)) *Limiter {
	return &Limiter{interval: interval, sleep: sleep}
}

// Wait blocks for one interval before the next call.
func (l *Limiter) Wait() {
	if l == nil || l.interval <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sleep(l.interval)
}
