// Package timesync owns the node's time base: it waits, with a hard
// deadline, for a synchronization mechanism to report success and then
// serves sanity-checked wall-clock reads.
package timesync

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"telemetry-node/errcode"
	"telemetry-node/types"
	"telemetry-node/x/poll"
)

// Syncer is a time-synchronization mechanism. Start must not block; Synced
// is the status signal polled by Source.Synchronize.
type Syncer interface {
	Start(ctx context.Context)
	Synced() bool
	// Offset is the correction to add to the local clock once Synced.
	Offset() time.Duration
}

// Clock is the local (unsynchronized) clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads time.Now.
var SystemClock Clock = systemClock{}

// Config controls timing and sanity checks. All fields are optional.
type Config struct {
	// PollInterval between status checks. Default 50 ms.
	PollInterval time.Duration
	// SanityYear: reads before this year are rejected. Default 2024.
	SanityYear int
	// NowAttempts bounds retries of an insane read. Default 3.
	NowAttempts int
	// RetryPause between insane reads. Default 100 ms.
	RetryPause time.Duration
	// Location derives calendar fields for the process lifetime. Default UTC.
	Location *time.Location

	Clock  Clock
	Sleep  func(time.Duration)
	Logger *slog.Logger
}

// Source is the process time base.
type Source struct {
	cfg    Config
	syncer Syncer
	offset time.Duration
	synced bool
}

// New returns a Source driven by s.
func New(s Syncer, cfg Config) *Source {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}
	if cfg.SanityYear <= 0 {
		cfg.SanityYear = 2024
	}
	if cfg.NowAttempts <= 0 {
		cfg.NowAttempts = 3
	}
	if cfg.RetryPause <= 0 {
		cfg.RetryPause = 100 * time.Millisecond
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Source{cfg: cfg, syncer: s}
}

// Location returns the fixed location used for calendar fields.
func (s *Source) Location() *time.Location { return s.cfg.Location }

// Synced reports whether the last Synchronize succeeded.
func (s *Source) Synced() bool { return s.synced }

// Synchronize starts the syncer and polls its status until it reports
// synchronized or timeout elapses from entry. On success the time base
// adopts the syncer's offset.
func (s *Source) Synchronize(ctx context.Context, timeout time.Duration) bool {
	if s.synced {
		return true
	}
	start := s.cfg.Clock.Now()
	s.syncer.Start(ctx)
	w := poll.Waiter{Step: s.cfg.PollInterval, Now: s.cfg.Clock.Now, Sleep: s.cfg.Sleep}
	ok, polls := w.Until(ctx, timeout, s.syncer.Synced)
	if !ok {
		s.cfg.Logger.Warn("sync:timeout", slog.Duration("timeout", timeout), slog.Int("polls", polls))
		return false
	}
	s.offset = s.syncer.Offset()
	s.synced = true
	s.cfg.Logger.Info("sync:done",
		slog.Duration("offset", s.offset),
		slog.Duration("took", s.cfg.Clock.Now().Sub(start)),
		slog.Int("polls", polls))
	return true
}

// Now reads the synchronized time. A read before SanityYear means the
// time base never took effect; it is retried a bounded number of times and
// then reported as errcode.ClockInvalid.
func (s *Source) Now() (types.WakeInstant, error) {
	var t time.Time
	for i := 0; i < s.cfg.NowAttempts; i++ {
		if i > 0 {
			s.cfg.Sleep(s.cfg.RetryPause)
		}
		t = s.cfg.Clock.Now().Add(s.offset)
		if t.Year() >= s.cfg.SanityYear {
			return types.InstantOf(t, s.cfg.Location), nil
		}
	}
	s.cfg.Logger.Error("clock:invalid", slog.Int("year", t.Year()), slog.Int("attempts", s.cfg.NowAttempts))
	return types.WakeInstant{}, &errcode.E{
		C:   errcode.ClockInvalid,
		Op:  "timesync.Now",
		Msg: "year " + strconv.Itoa(t.Year()) + " before sanity year",
	}
}

// Static is a Syncer with a fixed offset. ReadyAfter counts Synced calls
// that report false first; zero means ready immediately.
type Static struct {
	Off        time.Duration
	ReadyAfter int
	Never      bool

	started bool
	polls   int
}

func (s *Static) Start(context.Context) { s.started = true }

func (s *Static) Synced() bool {
	if !s.started || s.Never {
		return false
	}
	s.polls++
	return s.polls > s.ReadyAfter
}

func (s *Static) Offset() time.Duration { return s.Off }
