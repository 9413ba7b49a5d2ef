// Package cycle runs one wake cycle of the node: bring the network up,
// synchronise time, optionally check the wake slot, read the sensor,
// transmit, then decide how long to sleep and suspend.
//
// Every stage fails fast. A failed stage skips the rest of the pipeline
// and schedules a short fixed fallback sleep; the cycle never retries a
// stage and never blocks without a deadline.
package cycle

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"telemetry-node/errcode"
	"telemetry-node/services/network"
	"telemetry-node/services/schedule"
	"telemetry-node/services/sensor"
	"telemetry-node/services/sleepgate"
	"telemetry-node/services/timesync"
	"telemetry-node/services/uplink"
	"telemetry-node/types"

	"github.com/google/uuid"
)

// Deps are the per-cycle collaborators.
type Deps struct {
	Network     network.Network
	Credentials network.Credentials
	Time        *timesync.Source
	Aligner     *schedule.Aligner
	Sensor      sensor.Sensor
	SensorAddr  uint16
	Uplink      uplink.Transmitter
	Gate        sleepgate.Gate
	Logger      *slog.Logger
}

// Config holds stage deadlines and cycle options.
type Config struct {
	NetworkTimeout  time.Duration // default 20s
	SyncTimeout     time.Duration // default 15s
	TransmitTimeout time.Duration // default 10s
	// FallbackSleep after any failed stage, in seconds. Default 60.
	FallbackSleep int64
	// SlotCheck enables sampling only when woken at an allowed UTC minute.
	SlotCheck    bool
	AllowedSlots []int // default {0, 30}
	// IncludeTimestamp adds the sample time to the payload.
	IncludeTimestamp bool
}

// DefaultConfig returns the stock deadlines.
func DefaultConfig() Config {
	return Config{
		NetworkTimeout:  20 * time.Second,
		SyncTimeout:     15 * time.Second,
		TransmitTimeout: 10 * time.Second,
		FallbackSleep:   60,
		AllowedSlots:    []int{0, 30},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.NetworkTimeout <= 0 {
		c.NetworkTimeout = d.NetworkTimeout
	}
	if c.SyncTimeout <= 0 {
		c.SyncTimeout = d.SyncTimeout
	}
	if c.TransmitTimeout <= 0 {
		c.TransmitTimeout = d.TransmitTimeout
	}
	if c.FallbackSleep <= 0 {
		c.FallbackSleep = d.FallbackSleep
	}
	if len(c.AllowedSlots) == 0 {
		c.AllowedSlots = d.AllowedSlots
	}
	return c
}

// Controller is the wake-cycle state machine.
type Controller struct {
	d   Deps
	cfg Config
	log *slog.Logger

	connected bool
}

// New checks that every collaborator is present.
func New(d Deps, cfg Config) (*Controller, error) {
	missing := ""
	switch {
	case d.Network == nil:
		missing = "network"
	case d.Time == nil:
		missing = "time source"
	case d.Aligner == nil:
		missing = "aligner"
	case d.Sensor == nil:
		missing = "sensor"
	case d.Uplink == nil:
		missing = "uplink"
	case d.Gate == nil:
		missing = "sleep gate"
	}
	if missing != "" {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "cycle.New", Msg: "missing " + missing}
	}
	for _, m := range cfg.AllowedSlots {
		if m < 0 || m > 59 {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "cycle.New", Msg: "allowed slot outside 0..59"}
		}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Controller{d: d, cfg: cfg.withDefaults(), log: d.Logger}, nil
}

// Run executes one cycle, tears the network down and suspends. It does not
// return.
func (c *Controller) Run(ctx context.Context) {
	out, dec := c.RunCycle(ctx)
	if c.connected {
		c.d.Network.Disconnect()
		c.connected = false
	}
	c.log.Info("cycle:suspend",
		slog.String("outcome", out.Kind.String()),
		slog.Int64("seconds", dec.Seconds),
		slog.Bool("fallback", dec.Fallback))
	c.d.Gate.Suspend(dec.Duration())
}

// RunCycle runs the pipeline up to SleepScheduled and returns the outcome
// with the sleep decision. It does not suspend and leaves the network as
// the cycle left it; Run disconnects.
func (c *Controller) RunCycle(ctx context.Context) (Outcome, schedule.Decision) {
	c.log = c.d.Logger.With(slog.String("cycle", uuid.NewString()))
	c.enter(Start)

	if !c.d.Network.Connect(ctx, c.d.Credentials, c.cfg.NetworkTimeout) {
		return c.fail(Outcome{Kind: NetworkFailure, Reached: Start,
			Err: &errcode.E{C: errcode.NetworkFailure, Op: "cycle.network", Msg: "connect timed out"}})
	}
	c.connected = true
	c.enter(NetworkUp)

	if !c.d.Time.Synchronize(ctx, c.cfg.SyncTimeout) {
		return c.fail(Outcome{Kind: TimeSyncFailure, Reached: NetworkUp,
			Err: &errcode.E{C: errcode.TimeSyncFailure, Op: "cycle.sync", Msg: "not synchronised within deadline"}})
	}
	now, err := c.d.Time.Now()
	if err != nil {
		return c.fail(Outcome{Kind: TimeSyncFailure, Reached: NetworkUp,
			Err: errcode.Wrap(errcode.TimeSyncFailure, "cycle.sync", err)})
	}
	c.enter(TimeSynced, slog.String("now", now.String()))

	if c.cfg.SlotCheck {
		// Slots are epoch-aligned like Strategy A, so they are read in UTC.
		minute := now.Time().UTC().Minute()
		if !slices.Contains(c.cfg.AllowedSlots, minute) {
			dec := c.d.Aligner.DecideEpoch(now)
			c.log.Info("cycle:slot-skip", slog.Int("minute", minute), slog.Int64("seconds", dec.Seconds))
			return c.schedule(Outcome{Kind: SlotSkipped, Reached: TimeSynced}, dec)
		}
		c.enter(SlotChecked, slog.Int("minute", minute))
	}
	reached := TimeSynced
	if c.cfg.SlotCheck {
		reached = SlotChecked
	}

	r, err := sensor.Acquire(c.d.Sensor, c.d.SensorAddr)
	if err != nil {
		return c.fail(Outcome{Kind: SensorFailure, Reached: reached, Err: err})
	}
	c.enter(SensorRead,
		slog.Float64("temperature", r.Temperature),
		slog.Float64("humidity", r.Humidity))

	at := c.sampleTime(now)
	code := c.post(ctx, uplink.NewPayload(r, at.Time(), c.cfg.IncludeTimestamp))
	if !uplink.Accepted(code) {
		return c.fail(Outcome{Kind: TransmitFailure, Code: code, Reading: r, Reached: SensorRead,
			Err: &errcode.E{C: errcode.TransmitFailure, Op: "cycle.transmit", Msg: "store rejected reading"}})
	}
	c.enter(Transmitted, slog.Int("status", code))

	out := Outcome{Kind: Success, Reading: r, Reached: Transmitted}
	// Time moved on during the stages; align from a fresh read.
	after, err := c.d.Time.Now()
	if err != nil {
		c.log.Warn("cycle:reread-failed", slog.Any("err", err))
		return c.schedule(out, schedule.Fallback(c.cfg.FallbackSleep))
	}
	return c.schedule(out, c.d.Aligner.Decide(after))
}

// sampleTime prefers a fresh read for the payload and keeps the sync-time
// instant when that read fails.
func (c *Controller) sampleTime(fallback types.WakeInstant) types.WakeInstant {
	if t, err := c.d.Time.Now(); err == nil {
		return t
	}
	return fallback
}

func (c *Controller) post(ctx context.Context, p types.Payload) int {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.TransmitTimeout)
	defer cancel()
	return c.d.Uplink.Post(ctx, p)
}

func (c *Controller) enter(s State, attrs ...any) {
	c.log.Info("cycle:"+s.String(), attrs...)
}

func (c *Controller) fail(out Outcome) (Outcome, schedule.Decision) {
	attrs := []any{
		slog.String("kind", out.Kind.String()),
		slog.String("reached", out.Reached.String()),
		slog.String("code", string(errcode.Of(out.Err))),
		slog.Int("status", out.Code),
		slog.Any("err", out.Err),
	}
	if out.Kind == SensorFailure {
		attrs = append(attrs, slog.String("driver_code", string(sensor.DriverCode(out.Err))))
	}
	c.log.Warn("cycle:failed", attrs...)
	return c.schedule(out, schedule.Fallback(c.cfg.FallbackSleep))
}

func (c *Controller) schedule(out Outcome, dec schedule.Decision) (Outcome, schedule.Decision) {
	c.enter(SleepScheduled,
		slog.String("outcome", out.Kind.String()),
		slog.Int64("seconds", dec.Seconds),
		slog.Bool("skipped_ahead", dec.SkippedAhead),
		slog.Bool("fallback", dec.Fallback))
	return out, dec
}
