//go:build linux && !rp2040

// Command telemetry-node runs one wake cycle on a Linux host and then
// sleeps until the next boundary by re-executing itself.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"telemetry-node/drivers/aht20"
	"telemetry-node/errcode"
	"telemetry-node/services/config"
	"telemetry-node/services/cycle"
	"telemetry-node/services/network"
	"telemetry-node/services/schedule"
	"telemetry-node/services/sensor"
	"telemetry-node/services/sleepgate"
	"telemetry-node/services/timesync"
	"telemetry-node/services/uplink"
)

func main() {
	gate := &sleepgate.Exec{Logger: slog.New(slog.NewTextHandler(os.Stdout, nil))}
	boot(context.Background(), gate, os.Stdout, loadConfig, build)
}

// boot loads config, wires the backends and runs one cycle. Every failure,
// including a bad config, ends in a fallback suspend rather than an exit.
func boot(ctx context.Context, gate sleepgate.Gate, out io.Writer,
	load func() (config.Config, error),
	wire func(config.Config, *slog.Logger) (cycle.Deps, error),
) {
	log := slog.New(slog.NewTextHandler(out, nil))
	cfg, err := load()
	if err != nil {
		log.Error("boot:config", slog.Any("err", err))
		gate.Suspend(schedule.Fallback(0).Duration())
	}
	level, _ := cfg.Level()
	log = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	log.Info("boot", slog.String("device", cfg.Device), slog.String("strategy", cfg.Schedule.Strategy.String()))

	fallback := func(stage string, err error) {
		log.Error("boot:"+stage, slog.Any("err", err))
		gate.Suspend(schedule.Fallback(cfg.Cycle.FallbackSleepS).Duration())
	}

	deps, err := wire(cfg, log)
	if err != nil {
		fallback("setup", err)
	}
	deps.Gate = gate

	c, err := cycle.New(deps, cfg.CycleConfig())
	if err != nil {
		fallback("cycle", err)
	}
	c.Run(ctx)
}

func loadConfig() (config.Config, error) {
	device := os.Getenv("TELEMETRY_DEVICE")
	if device == "" {
		device = "host"
	}
	// A config file replaces the embedded document for this device.
	if path := os.Getenv("TELEMETRY_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return config.Config{}, err
		}
		return config.Parse(device, raw)
	}
	return config.Load(device)
}

func build(cfg config.Config, log *slog.Logger) (cycle.Deps, error) {
	var d cycle.Deps
	d.Logger = log

	loc, err := cfg.Location()
	if err != nil {
		return d, err
	}
	if d.Aligner, err = schedule.New(cfg.Schedule); err != nil {
		return d, err
	}

	var syncer timesync.Syncer
	switch cfg.Time.Backend {
	case config.TimeSNTP:
		syncer = timesync.NewSNTP(cfg.Time.Servers, log)
	case config.TimeKernel:
		syncer = &timesync.Kernel{}
	default:
		return d, unsupported("time backend " + cfg.Time.Backend)
	}
	d.Time = timesync.New(syncer, timesync.Config{
		PollInterval: cfg.PollInterval(),
		SanityYear:   cfg.Time.SanityYear,
		Location:     loc,
		Logger:       log,
	})

	switch cfg.Network.Backend {
	case config.NetProbe:
		d.Network = network.NewProbe(cfg.Network.Address, log)
	default:
		return d, unsupported("network backend " + cfg.Network.Backend)
	}
	psk, err := config.Secret(config.SecretWiFiPSK)
	if err != nil {
		return d, err
	}
	d.Credentials = network.Credentials{SSID: cfg.Network.SSID, Password: psk}

	bus, err := sensor.OpenI2C(cfg.Sensor.Bus)
	if err != nil {
		return d, err
	}
	d.SensorAddr = cfg.Sensor.Address
	switch cfg.Sensor.Model {
	case config.SensorSHTC3:
		d.Sensor = sensor.NewSHTC3(bus, nil)
	default:
		d.Sensor = sensor.NewAHT20(bus, nil, aht20.Config{})
	}

	key, err := config.Secret(config.SecretAPIKey)
	if err != nil {
		return d, err
	}
	timeout := time.Duration(cfg.Cycle.TransmitTimeoutS) * time.Second
	switch cfg.Uplink.Backend {
	case config.UplinkREST:
		d.Uplink = uplink.NewREST(cfg.Uplink.URL, key, timeout, log)
	case config.UplinkInflux:
		d.Uplink = uplink.NewInflux(uplink.InfluxConfig{
			URL:         cfg.Uplink.URL,
			Token:       key,
			Org:         cfg.Uplink.Org,
			Bucket:      cfg.Uplink.Bucket,
			Measurement: cfg.Uplink.Measurement,
			Tags:        cfg.Uplink.Tags,
		}, log)
	default:
		return d, unsupported("uplink backend " + cfg.Uplink.Backend)
	}
	return d, nil
}

func unsupported(what string) error {
	return &errcode.E{C: errcode.Unsupported, Op: "main.build", Msg: what + " on this host"}
}
