// Package poll provides bounded polling: check a condition at a fixed step
// until it holds or a deadline measured from entry passes.
package poll

import (
	"context"
	"time"
)

// Waiter polls at Step. Now and Sleep default to the time package.
type Waiter struct {
	Step  time.Duration
	Now   func() time.Time
	Sleep func(time.Duration)
}

// Until calls cond until it returns true, timeout elapses, or ctx is done.
// cond is always called at least once. It reports success and how many
// sleeps were taken.
func (w Waiter) Until(ctx context.Context, timeout time.Duration, cond func() bool) (bool, int) {
	now, sleep := w.Now, w.Sleep
	if now == nil {
		now = time.Now
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	step := w.Step
	if step <= 0 {
		step = 50 * time.Millisecond
	}
	deadline := now().Add(timeout)
	for n := 0; ; n++ {
		if cond() {
			return true, n
		}
		if !now().Before(deadline) || ctx.Err() != nil {
			return false, n
		}
		sleep(step)
	}
}
