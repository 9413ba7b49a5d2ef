//go:build rp2040

// Command node-pico is the board firmware: one wake cycle per boot, with a
// companion modem on UART1 providing association, time and transport.
package main

import (
	"context"
	"log/slog"
	"machine"
	"time"

	"telemetry-node/drivers/aht20"
	"telemetry-node/services/config"
	"telemetry-node/services/cycle"
	"telemetry-node/services/schedule"
	"telemetry-node/services/sensor"
	"telemetry-node/services/sleepgate"
	"telemetry-node/services/timesync"
	"telemetry-node/services/uplink"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// Board wiring.
const (
	logTX, logRX     = 0, 1
	modemTX, modemRX = 4, 5
	i2cSDA, i2cSCL   = 8, 9
	logBaud          = 115200
	modemBaud        = 115200
)

// pinSwitch drives a sensor rail enable pin.
type pinSwitch struct{ p machine.Pin }

func (s pinSwitch) Set(on bool) error { s.p.Set(on); return nil }

func main() {
	_ = uartx.UART0.Configure(uartx.UARTConfig{BaudRate: logBaud, TX: machine.Pin(logTX), RX: machine.Pin(logRX)})
	_ = uartx.UART1.Configure(uartx.UARTConfig{BaudRate: modemBaud, TX: machine.Pin(modemTX), RX: machine.Pin(modemRX)})

	cfg, err := config.Load("pico")
	level, _ := cfg.Level()
	log := slog.New(slog.NewTextHandler(uartx.UART0, &slog.HandlerOptions{Level: level}))
	if err != nil {
		log.Error("boot:config", slog.Any("err", err))
		// Nothing usable without a config; retry after the stock fallback.
		(&sleepgate.Reset{Logger: log}).Suspend(schedule.Fallback(0).Duration())
	}

	var power sensor.PowerSwitch = sensor.AlwaysOn
	var off func()
	if cfg.Sensor.PowerPin >= 0 {
		pin := machine.Pin(cfg.Sensor.PowerPin)
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.Low()
		power = pinSwitch{p: pin}
		off = pin.Low
	}
	gate := &sleepgate.Reset{Logger: log, Prepare: off}

	sda, scl := machine.Pin(i2cSDA), machine.Pin(i2cSCL)
	sda.Configure(machine.PinConfig{Mode: machine.PinI2C})
	scl.Configure(machine.PinConfig{Mode: machine.PinI2C})
	_ = machine.I2C0.Configure(machine.I2CConfig{SDA: sda, SCL: scl, Frequency: 400 * machine.KHz})

	var s sensor.Sensor
	switch cfg.Sensor.Model {
	case config.SensorSHTC3:
		s = sensor.NewSHTC3(machine.I2C0, power)
	default:
		s = sensor.NewAHT20(machine.I2C0, power, aht20.Config{})
	}

	link := uplink.NewLink(uartx.UART1, log)
	al, err := schedule.New(cfg.Schedule)
	if err != nil {
		log.Error("boot:schedule", slog.Any("err", err))
		gate.Suspend(schedule.Fallback(cfg.Cycle.FallbackSleepS).Duration())
	}
	loc, _ := cfg.Location()

	c, err := cycle.New(cycle.Deps{
		Network: link,
		Time: timesync.New(link, timesync.Config{
			PollInterval: cfg.PollInterval(),
			SanityYear:   cfg.Time.SanityYear,
			Location:     loc,
			Logger:       log,
		}),
		Aligner:    al,
		Sensor:     s,
		SensorAddr: cfg.Sensor.Address,
		Uplink:     link,
		Gate:       gate,
		Logger:     log,
	}, cfg.CycleConfig())
	if err != nil {
		log.Error("boot:cycle", slog.Any("err", err))
		gate.Suspend(schedule.Fallback(cfg.Cycle.FallbackSleepS).Duration())
	}

	// Let the modem finish its own boot before the first request.
	time.Sleep(500 * time.Millisecond)
	c.Run(context.Background())
}
