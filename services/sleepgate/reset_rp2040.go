//go:build rp2040

package sleepgate

import (
	"log/slog"
	"machine"
	"time"
)

// Reset holds the core in a timed sleep and then resets it, so every cycle
// starts from the boot vector. Before sleeping it runs Prepare (e.g. to
// power rails down and flush the log UART).
type Reset struct {
	Logger  *slog.Logger
	Prepare func()
}

func (g *Reset) Suspend(d time.Duration) {
	d = Clamp(d)
	logSuspend(g.Logger, d)
	if g.Prepare != nil {
		g.Prepare()
	}
	time.Sleep(d)
	machine.CPUReset()
	for {
	}
}
