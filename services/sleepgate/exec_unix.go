//go:build unix && !rp2040

package sleepgate

import (
	"log/slog"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Exec emulates a timer wake-reset on a host: it sleeps, then replaces the
// process image with a fresh copy of itself, so no in-memory state survives.
type Exec struct {
	Logger *slog.Logger
	// Sleep and exec are swappable for tests.
	sleep func(time.Duration)
	exec  func(argv0 string, argv []string, envv []string) error
}

func (g *Exec) Suspend(d time.Duration) {
	d = Clamp(d)
	logSuspend(g.Logger, d)
	sleep, exec := g.sleep, g.exec
	if sleep == nil {
		sleep = time.Sleep
	}
	if exec == nil {
		exec = unix.Exec
	}
	sleep(d)

	self, err := os.Executable()
	if err == nil {
		err = exec(self, os.Args, os.Environ())
	}
	// Exec only returns on failure. A wake that cannot restart is fatal.
	if g.Logger != nil {
		g.Logger.Error("sleep:restart-failed", slog.Any("err", err))
	}
	os.Exit(1)
}
