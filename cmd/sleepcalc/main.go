//go:build !rp2040

// Command sleepcalc is a bench tool for the wake scheduler: it prints the
// decision the node would make at a given instant and derives a corrected
// drift factor from an observed wake.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"telemetry-node/errcode"
	"telemetry-node/services/schedule"
	"telemetry-node/types"

	"github.com/urfave/cli"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "sleepcalc:", err)
		os.Exit(1)
	}
}

func newApp(w io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "sleepcalc"
	app.Usage = "inspect and calibrate wake-cycle sleep decisions"
	app.Writer = w
	app.Commands = []cli.Command{
		{
			Name:   "decide",
			Usage:  "print the sleep decision for an instant",
			Flags:  decideFlags,
			Action: decide,
		},
		{
			Name:   "drift",
			Usage:  "derive a drift factor from an observed wake",
			Flags:  driftFlags,
			Action: drift,
		},
	}
	return app
}

var decideFlags = []cli.Flag{
	cli.StringFlag{Name: "at", Usage: "instant in RFC 3339 (default: now)"},
	cli.StringFlag{Name: "strategy, s", Value: "epoch", Usage: "epoch or phase"},
	cli.Int64Flag{Name: "period, p", Value: schedule.DefaultPeriodSeconds, Usage: "period in seconds"},
	cli.IntFlag{Name: "ref-hour", Usage: "reference hour for phase alignment"},
	cli.Int64Flag{Name: "epsilon", Value: schedule.DefaultEpsilonSeconds, Usage: "seconds added before scaling"},
	cli.Float64Flag{Name: "factor", Value: schedule.DefaultDriftFactor, Usage: "drift factor"},
	cli.StringFlag{Name: "zone", Value: "UTC", Usage: "IANA zone for calendar fields"},
}

var driftFlags = []cli.Flag{
	cli.StringFlag{Name: "from", Usage: "instant the node suspended (RFC 3339)"},
	cli.StringFlag{Name: "intended", Usage: "boundary it aimed for (RFC 3339)"},
	cli.StringFlag{Name: "actual", Usage: "instant it actually woke (RFC 3339)"},
	cli.Float64Flag{Name: "factor", Value: schedule.DefaultDriftFactor, Usage: "factor in use for that sleep"},
}

func decide(ctx *cli.Context) error {
	strategy, err := schedule.ParseStrategy(ctx.String("strategy"))
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(ctx.String("zone"))
	if err != nil {
		return err
	}
	at := time.Now()
	if s := ctx.String("at"); s != "" {
		if at, err = time.Parse(time.RFC3339, s); err != nil {
			return err
		}
	}

	cfg := schedule.DefaultConfig()
	cfg.Strategy = strategy
	cfg.PeriodSeconds = ctx.Int64("period")
	cfg.ReferenceHour = ctx.Int("ref-hour")
	cfg.EpsilonSeconds = ctx.Int64("epsilon")
	cfg.DriftFactor = ctx.Float64("factor")
	a, err := schedule.New(cfg)
	if err != nil {
		return err
	}

	now := types.InstantOf(at, loc)
	d := a.Decide(now)
	fmt.Fprintf(ctx.App.Writer, "now       %s\n", now)
	fmt.Fprintf(ctx.App.Writer, "strategy  %s\n", d.Strategy)
	fmt.Fprintf(ctx.App.Writer, "sleep     %ds\n", d.Seconds)
	fmt.Fprintf(ctx.App.Writer, "boundary  %s\n", a.NextBoundary(now).Format(time.RFC3339))
	fmt.Fprintf(ctx.App.Writer, "skipped   %t\n", d.SkippedAhead)
	return nil
}

func drift(ctx *cli.Context) error {
	var ts [3]time.Time
	for i, name := range []string{"from", "intended", "actual"} {
		t, err := time.Parse(time.RFC3339, ctx.String(name))
		if err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
		ts[i] = t
	}
	f, err := correctedFactor(ts[0], ts[1], ts[2], ctx.Float64("factor"))
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "factor    %.6f\n", f)
	fmt.Fprintf(ctx.App.Writer, "error     %+ds\n", int64(ts[2].Sub(ts[1])/time.Second))
	return nil
}

// correctedFactor scales current so that a sleep started at from would have
// ended at intended rather than actual. A node that woke early gets a
// larger factor.
func correctedFactor(from, intended, actual time.Time, current float64) (float64, error) {
	want := intended.Sub(from)
	got := actual.Sub(from)
	if want <= 0 || got <= 0 || current <= 0 {
		return 0, &errcode.E{C: errcode.InvalidParams, Op: "sleepcalc.drift", Msg: "wake must follow suspend"}
	}
	return current * want.Seconds() / got.Seconds(), nil
}
