package sensor

import (
	"telemetry-node/errcode"
	"telemetry-node/x/mathx"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/shtc3"
)

// SHTC3Address is fixed by the part.
const SHTC3Address = 0x70

// SHTC3 is a Sensor backed by tinygo.org/x/drivers/shtc3. SetPower maps onto
// the part's own sleep/wake commands, after the optional rail switch.
type SHTC3 struct {
	drv   shtc3.Device
	power PowerSwitch

	tmc    int32 // milli-°C
	rhx100 int16
	fresh  bool
}

// NewSHTC3 binds an SHTC3 on bus. power may be nil.
func NewSHTC3(bus drivers.I2C, power PowerSwitch) *SHTC3 {
	if power == nil {
		power = AlwaysOn
	}
	return &SHTC3{drv: shtc3.New(bus), power: power}
}

func (s *SHTC3) Init(addr uint16) error {
	s.fresh = false
	if addr != SHTC3Address {
		return &errcode.E{C: errcode.InvalidParams, Op: "shtc3.Init", Msg: "address is fixed at 0x70"}
	}
	return s.drv.WakeUp()
}

func (s *SHTC3) SetPower(on bool) error {
	s.fresh = false
	if on {
		return s.power.Set(true)
	}
	// Best effort: the rail going down also stops the part.
	_ = s.drv.Sleep()
	return s.power.Set(false)
}

func (s *SHTC3) measure() error {
	if s.fresh {
		return nil
	}
	tmc, rh, err := s.drv.ReadTemperatureHumidity()
	if err != nil {
		return err
	}
	s.tmc = tmc
	s.rhx100 = mathx.Clamp(rh, 0, 10000)
	s.fresh = true
	return nil
}

func (s *SHTC3) ReadTemperature() (float64, error) {
	if err := s.measure(); err != nil {
		return 0, err
	}
	return float64(s.tmc) / 1000, nil
}

func (s *SHTC3) ReadHumidity() (float64, error) {
	if err := s.measure(); err != nil {
		return 0, err
	}
	return float64(s.rhx100) / 100, nil
}
