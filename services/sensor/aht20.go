package sensor

import (
	"time"

	"telemetry-node/drivers/aht20"

	"tinygo.org/x/drivers"
)

// AHT20 is a Sensor backed by the in-tree AHT20 driver. One measurement
// serves both ReadTemperature and ReadHumidity within a power session.
type AHT20 struct {
	dev   aht20.Device
	power PowerSwitch
	cfg   aht20.Config

	// PowerUpDelay follows switching the rail on. Default 40 ms.
	PowerUpDelay time.Duration

	sample aht20.Sample
	fresh  bool
}

// NewAHT20 binds an AHT20 on bus. power may be nil for an always-on sensor.
func NewAHT20(bus drivers.I2C, power PowerSwitch, cfg aht20.Config) *AHT20 {
	if power == nil {
		power = AlwaysOn
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &AHT20{
		dev:          aht20.New(bus),
		power:        power,
		cfg:          cfg,
		PowerUpDelay: 40 * time.Millisecond,
	}
}

func (a *AHT20) Init(addr uint16) error {
	a.fresh = false
	cfg := a.cfg
	cfg.Address = addr
	return a.dev.Configure(cfg)
}

func (a *AHT20) SetPower(on bool) error {
	a.fresh = false
	if err := a.power.Set(on); err != nil {
		return err
	}
	if on {
		a.cfg.Sleep(a.PowerUpDelay)
	}
	return nil
}

func (a *AHT20) measure() error {
	if a.fresh {
		return nil
	}
	if err := a.dev.Read(&a.sample); err != nil {
		return err
	}
	a.fresh = true
	return nil
}

func (a *AHT20) ReadTemperature() (float64, error) {
	if err := a.measure(); err != nil {
		return 0, err
	}
	return a.sample.Celsius(), nil
}

func (a *AHT20) ReadHumidity() (float64, error) {
	if err := a.measure(); err != nil {
		return 0, err
	}
	return a.sample.RelHumidity(), nil
}
