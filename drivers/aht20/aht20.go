// Package aht20 provides a driver for the AHT20 temperature/humidity sensor.
// It exposes a two-phase measurement API:
//
//	d.Trigger()              // start a measurement (fast)
//	err := d.Collect(&s)     // fetch when ready; returns ErrNotReady while busy
//
// For convenience, d.Read(&s) performs trigger + bounded polling until ready.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when both
// w and r are provided, without releasing the bus.
package aht20

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// I2C address.
const Address = 0x38

// Commands and status bits (per datasheet/common driver practice).
const (
	cmdTrigger    = 0xAC
	cmdInitialize = 0xBE
	cmdSoftReset  = 0xBA
	cmdStatus     = 0x71

	statusBusy       = 0x80
	statusCalibrated = 0x08
)

// Errors returned by the driver. ErrTimeout reports Timeout() == true.
var (
	ErrTimeout       error = timeoutError{}
	ErrNotReady            = errors.New("aht20: not ready")
	ErrNotCalibrated = errors.New("aht20: calibration bit not set")
)

type timeoutError struct{}

func (timeoutError) Error() string { return "aht20: timeout" }
func (timeoutError) Timeout() bool { return true }

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x38 if zero.
	Address uint16
	// PollInterval is used by Read() between Collect() attempts. Default 15 ms.
	PollInterval time.Duration
	// CollectTimeout bounds the total wait in Read(). Default 250 ms.
	CollectTimeout time.Duration
	// TriggerHint is the nominal conversion time Read() waits before its
	// first Collect. Default 80 ms.
	TriggerHint time.Duration
	// InitDelay follows the initialise command. Default 10 ms.
	InitDelay time.Duration
	// Sleep defaults to time.Sleep; tests substitute a no-op.
	Sleep func(time.Duration)
}

func (c Config) withDefaults() Config {
	if c.Address == 0 {
		c.Address = Address
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 15 * time.Millisecond
	}
	if c.CollectTimeout <= 0 {
		c.CollectTimeout = 250 * time.Millisecond
	}
	if c.TriggerHint <= 0 {
		c.TriggerHint = 80 * time.Millisecond
	}
	if c.InitDelay <= 0 {
		c.InitDelay = 10 * time.Millisecond
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
	return c
}

// Device wraps an I2C connection to an AHT20 device.
type Device struct {
	bus     drivers.I2C
	Address uint16

	cfg Config
	buf [7]byte // reuse buffer to avoid allocations
}

// New creates a new AHT20 connection. The I2C bus must already be configured.
// This function only creates the Device object; it does not touch the device.
func New(bus drivers.I2C) Device {
	return Device{
		bus:     bus,
		Address: Address,
		cfg:     Config{}.withDefaults(),
	}
}

// Configure applies cfg and initialises the device if its calibration bit
// is clear. It fails when the device does not answer or stays uncalibrated.
func (d *Device) Configure(cfg Config) error {
	d.cfg = cfg.withDefaults()
	d.Address = d.cfg.Address

	st, err := d.Status()
	if err != nil {
		return err
	}
	if st&statusCalibrated != 0 {
		return nil
	}
	if err := d.bus.Tx(d.Address, []byte{cmdInitialize, 0x08, 0x00}, nil); err != nil {
		return err
	}
	d.cfg.Sleep(d.cfg.InitDelay)
	if st, err = d.Status(); err != nil {
		return err
	}
	if st&statusCalibrated == 0 {
		return ErrNotCalibrated
	}
	return nil
}

// Reset issues a soft reset. Give the device ~20ms afterwards before using.
func (d *Device) Reset() error {
	return d.bus.Tx(d.Address, []byte{cmdSoftReset}, nil)
}

// Status reads and returns the status byte.
func (d *Device) Status() (byte, error) {
	data := d.buf[:1]
	if err := d.bus.Tx(d.Address, []byte{cmdStatus}, data); err != nil {
		return 0, err
	}
	return data[0], nil
}

// Trigger starts a measurement. It is a quick register write with no blocking.
func (d *Device) Trigger() error {
	return d.bus.Tx(d.Address, []byte{cmdTrigger, 0x33, 0x00}, nil)
}

// TriggerHint returns the nominal conversion time to wait before attempting Collect.
func (d *Device) TriggerHint() time.Duration { return d.cfg.TriggerHint }

// Collect reads one finished measurement into out. If the device is still
// converting, ErrNotReady is returned. Any bus error is returned as-is.
func (d *Device) Collect(out *Sample) error {
	data := d.buf[:]
	if err := d.bus.Tx(d.Address, nil, data); err != nil {
		return err
	}
	if (data[0]&statusCalibrated) == 0 || (data[0]&statusBusy) != 0 {
		return ErrNotReady
	}
	out.RawHumidity = (uint32(data[1]) << 12) | (uint32(data[2]) << 4) | (uint32(data[3]) >> 4)
	out.RawTemp = (uint32(data[3]&0x0F) << 16) | (uint32(data[4]) << 8) | uint32(data[5])
	return nil
}

// Read performs a full measurement cycle: Trigger, wait the trigger hint,
// then poll Collect until it succeeds or CollectTimeout elapses.
func (d *Device) Read(out *Sample) error {
	if err := d.Trigger(); err != nil {
		return err
	}
	d.cfg.Sleep(d.cfg.TriggerHint)
	deadline := time.Now().Add(d.cfg.CollectTimeout)
	for {
		err := d.Collect(out)
		switch err {
		case nil:
			return nil
		case ErrNotReady:
			if time.Now().After(deadline) {
				return ErrTimeout
			}
			d.cfg.Sleep(d.cfg.PollInterval)
		default:
			return err
		}
	}
}

// Sample holds raw readings (20-bit each).
type Sample struct {
	RawHumidity uint32
	RawTemp     uint32
}

// RelHumidity returns relative humidity in percent.
func (s Sample) RelHumidity() float64 {
	return float64(s.RawHumidity) * 100 / 0x100000
}

// Celsius returns degrees Celsius.
func (s Sample) Celsius() float64 {
	return float64(s.RawTemp)*200/0x100000 - 50
}

// DeciRelHumidity returns tenths of %RH.
func (s Sample) DeciRelHumidity() int32 {
	return int32((uint64(s.RawHumidity) * 1000) / 0x100000)
}

// DeciCelsius returns tenths of °C.
func (s Sample) DeciCelsius() int32 {
	return int32((uint64(s.RawTemp)*2000)/0x100000) - 500
}
