// Package sleepgate is the terminal step of every wake cycle: arm a timer
// wake source and suspend. Suspend never returns; the next cycle starts
// from process entry.
package sleepgate

import (
	"log/slog"
	"runtime"
	"time"
)

// MinSuspend floors every suspension to avoid rapid wake loops.
const MinSuspend = 10 * time.Second

// Gate is the low-power suspension primitive.
type Gate interface {
	Suspend(d time.Duration)
}

// Clamp applies the MinSuspend floor.
func Clamp(d time.Duration) time.Duration {
	if d < MinSuspend {
		return MinSuspend
	}
	return d
}

// Func adapts a function to Gate. When the function returns, the calling
// goroutine is ended with runtime.Goexit after running its deferred calls,
// so code after Suspend is never reached.
type Func func(d time.Duration)

func (f Func) Suspend(d time.Duration) {
	f(Clamp(d))
	runtime.Goexit()
}

func logSuspend(l *slog.Logger, d time.Duration) {
	if l == nil {
		l = slog.Default()
	}
	l.Info("sleep:suspend", slog.Duration("duration", d), slog.Time("wake_at", time.Now().Add(d)))
}
