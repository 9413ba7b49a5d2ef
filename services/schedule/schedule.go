// Package schedule computes how long the node sleeps so that its next wake
// lands on a periodic boundary.
//
// Two strategies are supported:
//
//	EpochAligned  next = floor(now/period + 1) * period, in epoch seconds.
//	PhaseAligned  boundaries counted from a reference hour of the local day,
//	              with skip-ahead and drift compensation for a slow RTC.
//
// All functions are pure: the same instant and Config always yield the same
// Decision.
package schedule

import (
	"math"
	"time"

	"telemetry-node/errcode"
	"telemetry-node/types"
	"telemetry-node/x/mathx"
)

// Strategy selects the alignment policy.
type Strategy uint8

const (
	EpochAligned Strategy = iota + 1
	PhaseAligned
)

func (s Strategy) String() string {
	switch s {
	case EpochAligned:
		return "epoch"
	case PhaseAligned:
		return "phase"
	}
	return "unknown"
}

// ParseStrategy accepts "epoch" or "phase".
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "epoch", "a", "A":
		return EpochAligned, nil
	case "phase", "b", "B":
		return PhaseAligned, nil
	}
	return 0, &errcode.E{C: errcode.InvalidParams, Op: "schedule.ParseStrategy", Msg: "unknown strategy " + s}
}

const secondsPerDay = 86400

// MarshalText encodes the strategy as "epoch" or "phase".
func (s Strategy) MarshalText() ([]byte, error) {
	if s != EpochAligned && s != PhaseAligned {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "schedule.Strategy", Msg: "unknown strategy"}
	}
	return []byte(s.String()), nil
}

// UnmarshalText accepts any spelling ParseStrategy does.
func (s *Strategy) UnmarshalText(b []byte) error {
	v, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Defaults. The drift and skip constants were tuned against one board's RTC
// and should be recalibrated per target (see cmd/sleepcalc).
const (
	DefaultPeriodSeconds    = 1800
	DefaultMinSleepSeconds  = 60
	DefaultSkipFloorSeconds = 120
	DefaultSkipFraction     = 0.95
	DefaultEpsilonSeconds   = 5
	DefaultDriftFactor      = 1.0015
)

// Config is the boundary configuration for one node.
type Config struct {
	Strategy Strategy `json:"strategy"`
	// PeriodSeconds must divide 86400. PhaseAligned also needs whole minutes.
	PeriodSeconds int64 `json:"period_s"`
	// ReferenceHour is the local hour boundaries are counted from (PhaseAligned).
	ReferenceHour int `json:"reference_hour"`

	// MinSleepSeconds floors EpochAligned results. Default 60.
	MinSleepSeconds int64 `json:"min_sleep_s"`
	// SkipFloorSeconds and SkipFraction trigger skip-ahead (PhaseAligned).
	// Defaults 120 s and 0.95.
	SkipFloorSeconds int64   `json:"skip_floor_s"`
	SkipFraction     float64 `json:"skip_fraction"`
	// EpsilonSeconds is added before DriftFactor scales the sleep (PhaseAligned).
	EpsilonSeconds int64   `json:"epsilon_s"`
	DriftFactor    float64 `json:"drift_factor"`
}

// DefaultConfig returns the half-hour epoch-aligned configuration.
func DefaultConfig() Config {
	return Config{
		Strategy:         EpochAligned,
		PeriodSeconds:    DefaultPeriodSeconds,
		MinSleepSeconds:  DefaultMinSleepSeconds,
		SkipFloorSeconds: DefaultSkipFloorSeconds,
		SkipFraction:     DefaultSkipFraction,
		EpsilonSeconds:   DefaultEpsilonSeconds,
		DriftFactor:      DefaultDriftFactor,
	}
}

// normalised fills zero-valued tunables with defaults. EpsilonSeconds is left
// alone since zero is a meaningful setting.
func (c Config) normalised() Config {
	if c.Strategy == 0 {
		c.Strategy = EpochAligned
	}
	if c.MinSleepSeconds <= 0 {
		c.MinSleepSeconds = DefaultMinSleepSeconds
	}
	if c.SkipFloorSeconds <= 0 {
		c.SkipFloorSeconds = DefaultSkipFloorSeconds
	}
	if c.SkipFraction == 0 {
		c.SkipFraction = DefaultSkipFraction
	}
	if c.DriftFactor == 0 {
		c.DriftFactor = DefaultDriftFactor
	}
	return c
}

// Validate reports the first problem with c, as errcode.InvalidParams.
func (c Config) Validate() error {
	c = c.normalised()
	bad := func(msg string) error {
		return &errcode.E{C: errcode.InvalidParams, Op: "schedule.Config", Msg: msg}
	}
	switch {
	case c.PeriodSeconds <= 0:
		return bad("period must be positive")
	case secondsPerDay%c.PeriodSeconds != 0:
		return bad("period must divide 86400")
	case c.Strategy != EpochAligned && c.Strategy != PhaseAligned:
		return bad("unknown strategy")
	case c.Strategy == PhaseAligned && c.PeriodSeconds%60 != 0:
		return bad("phase-aligned period must be whole minutes")
	case c.Strategy == PhaseAligned && c.PeriodSeconds < c.SkipFloorSeconds:
		return bad("phase-aligned period shorter than skip floor")
	case !mathx.Between(c.ReferenceHour, 0, 23):
		return bad("reference hour must be 0..23")
	case c.SkipFraction <= 0 || c.SkipFraction > 1:
		return bad("skip fraction must be in (0,1]")
	case c.DriftFactor < 1 || math.IsInf(c.DriftFactor, 0) || math.IsNaN(c.DriftFactor):
		return bad("drift factor must be >= 1")
	case c.EpsilonSeconds < 0:
		return bad("epsilon must not be negative")
	}
	return nil
}

// Decision is how long to sleep and why.
type Decision struct {
	Seconds      int64
	SkippedAhead bool
	Strategy     Strategy
	// Boundary is the epoch second of the boundary the sleep targets.
	// Zero for fallback decisions.
	Boundary int64
	// Fallback marks a fixed retry sleep chosen after a failed stage.
	Fallback bool
}

// Duration returns Seconds as a time.Duration.
func (d Decision) Duration() time.Duration { return time.Duration(d.Seconds) * time.Second }

// Fallback returns a fixed short sleep used when a stage fails.
func Fallback(seconds int64) Decision {
	if seconds <= 0 {
		seconds = DefaultMinSleepSeconds
	}
	return Decision{Seconds: seconds, Fallback: true}
}

// Aligner applies one validated Config.
type Aligner struct {
	cfg Config
}

// New validates cfg and returns an Aligner for it.
func New(cfg Config) (*Aligner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Aligner{cfg: cfg.normalised()}, nil
}

// Config returns the effective configuration (defaults applied).
func (a *Aligner) Config() Config { return a.cfg }

// Decide computes the sleep for now using the configured strategy.
func (a *Aligner) Decide(now types.WakeInstant) Decision {
	if a.cfg.Strategy == PhaseAligned {
		return phase(now, a.cfg)
	}
	return epoch(now.Unix, a.cfg.PeriodSeconds, a.cfg.MinSleepSeconds)
}

// DecideEpoch computes an EpochAligned decision regardless of the configured
// strategy. The slot check uses this when a cycle wakes outside its slot.
func (a *Aligner) DecideEpoch(now types.WakeInstant) Decision {
	return epoch(now.Unix, a.cfg.PeriodSeconds, a.cfg.MinSleepSeconds)
}

// NextBoundary returns the boundary instant Decide(now) targets, in now's
// location.
func (a *Aligner) NextBoundary(now types.WakeInstant) time.Time {
	return time.Unix(a.Decide(now).Boundary, 0).In(now.Time().Location())
}

// NextEpochBoundary returns the smallest multiple of period strictly greater
// than now.
func NextEpochBoundary(now, period int64) int64 {
	return (mathx.FloorDiv(now, period) + 1) * period
}

func epoch(now, period, minSleep int64) Decision {
	next := NextEpochBoundary(now, period)
	d := Decision{Strategy: EpochAligned, Boundary: next, Seconds: next - now}
	// Covers both a clock anomaly (<= 0) and a boundary too close to bother.
	d.Seconds = mathx.AtLeast(d.Seconds, minSleep)
	return d
}

func phase(now types.WakeInstant, c Config) Decision {
	t := time.Unix(now.Unix, 0).In(now.Time().Location())
	periodMin := int(c.PeriodSeconds / 60)

	prev, next := wallBoundaries(t, c.ReferenceHour, periodMin)
	remaining := next.Unix() - now.Unix
	elapsed := float64(now.Unix-prev.Unix()) / float64(next.Unix()-prev.Unix())

	d := Decision{Strategy: PhaseAligned, Boundary: next.Unix()}
	if remaining < c.SkipFloorSeconds || elapsed >= c.SkipFraction {
		_, next = wallBoundaries(next, c.ReferenceHour, periodMin)
		remaining = next.Unix() - now.Unix
		d.Boundary = next.Unix()
		d.SkippedAhead = true
	}

	// Scale up, never down: the RTC runs slow so the raw figure would wake early.
	scaled := float64(remaining+c.EpsilonSeconds) * c.DriftFactor
	d.Seconds = mathx.AtLeast(int64(math.Ceil(scaled)), remaining)
	return d
}

// wallBoundaries returns the latest boundary at or before t and the earliest
// strictly after it. Boundaries are local wall-clock times: the reference
// hour plus whole periods, built with time.Date so DST days keep their
// 23 or 25 real hours. A wall time skipped by a spring-forward gap lands on
// the instant time.Date normalises it to.
func wallBoundaries(t time.Time, ref, periodMin int) (prev, next time.Time) {
	y, m, d := t.Date()
	loc := t.Location()
	perDay := 24 * 60 / periodMin
	for k := 0; k <= 3*perDay; k++ {
		b := time.Date(y, m, d-1, ref, k*periodMin, 0, 0, loc)
		if b.After(t) {
			if next.IsZero() || b.Before(next) {
				next = b
			}
		} else if prev.IsZero() || b.After(prev) {
			prev = b
		}
	}
	return prev, next
}
