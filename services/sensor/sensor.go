// Package sensor adapts temperature/humidity drivers to the narrow contract
// the wake cycle needs, and brackets every read with sensor power.
package sensor

import (
	"errors"
	"math"

	"telemetry-node/errcode"
	"telemetry-node/types"
	"telemetry-node/x/mathx"
)

// Sensor is the environmental sensor collaborator.
type Sensor interface {
	Init(addr uint16) error
	ReadTemperature() (float64, error)
	ReadHumidity() (float64, error)
	SetPower(on bool) error
}

// PowerSwitch drives the supply rail (or enable pin) of a sensor.
type PowerSwitch interface {
	Set(on bool) error
}

type alwaysOn struct{}

func (alwaysOn) Set(bool) error { return nil }

// AlwaysOn is a PowerSwitch for sensors wired straight to the supply.
var AlwaysOn PowerSwitch = alwaysOn{}

// Plausible ranges, from the operating range of the supported parts.
const (
	MinCelsius  = -40.0
	MaxCelsius  = 85.0
	MinHumidity = 0.0
	MaxHumidity = 100.0
)

// Check rejects NaN and out-of-range values with errcode.Implausible.
func Check(r types.Reading) error {
	switch {
	case math.IsNaN(r.Temperature) || !mathx.Between(r.Temperature, MinCelsius, MaxCelsius):
		return &errcode.E{C: errcode.Implausible, Op: "sensor.Check", Msg: "temperature out of range"}
	case math.IsNaN(r.Humidity) || !mathx.Between(r.Humidity, MinHumidity, MaxHumidity):
		return &errcode.E{C: errcode.Implausible, Op: "sensor.Check", Msg: "humidity out of range"}
	}
	return nil
}

// Acquire powers s, initialises it at addr, reads one sample and powers it
// down again whatever the outcome, including a failed power-up. Every error
// is an errcode.SensorFailure; DriverCode classifies its cause.
func Acquire(s Sensor, addr uint16) (r types.Reading, err error) {
	defer func() {
		if perr := s.SetPower(false); perr != nil && err == nil {
			err = errcode.Wrap(errcode.SensorFailure, "sensor.power", perr)
		}
	}()
	if err := s.SetPower(true); err != nil {
		return r, errcode.Wrap(errcode.SensorFailure, "sensor.power", err)
	}

	if err := s.Init(addr); err != nil {
		return r, errcode.Wrap(errcode.SensorFailure, "sensor.init", err)
	}
	if r.Temperature, err = s.ReadTemperature(); err != nil {
		return r, errcode.Wrap(errcode.SensorFailure, "sensor.temperature", err)
	}
	if r.Humidity, err = s.ReadHumidity(); err != nil {
		return r, errcode.Wrap(errcode.SensorFailure, "sensor.humidity", err)
	}
	if err := Check(r); err != nil {
		return r, errcode.Wrap(errcode.SensorFailure, "sensor.check", err)
	}
	return r, nil
}

// DriverCode maps the cause behind an Acquire error: Timeout for a driver
// timeout, Implausible for a rejected reading, SensorFailure otherwise.
func DriverCode(err error) errcode.Code {
	var e *errcode.E
	if errors.As(err, &e) && e.C == errcode.SensorFailure && e.Err != nil {
		return errcode.MapDriverErr(e.Err)
	}
	return errcode.MapDriverErr(err)
}
