// Package config holds the node's tunables: compile-time defaults,
// overridden by a per-device JSON document embedded in the binary.
package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"telemetry-node/errcode"
	"telemetry-node/services/cycle"
	"telemetry-node/services/schedule"
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Backend names.
const (
	TimeSNTP   = "sntp"
	TimeKernel = "kernel"
	TimeLink   = "link"

	NetProbe = "probe"
	NetLink  = "link"

	UplinkREST   = "rest"
	UplinkInflux = "influx"
	UplinkLink   = "link"

	SensorAHT20 = "aht20"
	SensorSHTC3 = "shtc3"
)

type Config struct {
	Device   string          `json:"-"`
	LogLevel string          `json:"log_level"`
	Schedule schedule.Config `json:"schedule"`
	Cycle    Cycle           `json:"cycle"`
	Time     Time            `json:"time"`
	Sensor   Sensor          `json:"sensor"`
	Network  Network         `json:"network"`
	Uplink   Uplink          `json:"uplink"`
}

// Cycle carries stage deadlines in whole seconds.
type Cycle struct {
	NetworkTimeoutS  int   `json:"network_timeout_s"`
	SyncTimeoutS     int   `json:"sync_timeout_s"`
	TransmitTimeoutS int   `json:"transmit_timeout_s"`
	FallbackSleepS   int64 `json:"fallback_sleep_s"`
	SlotCheck        bool  `json:"slot_check"`
	AllowedSlots     []int `json:"allowed_slots"`
	IncludeTimestamp bool  `json:"include_timestamp"`
}

type Time struct {
	Backend        string   `json:"backend"`
	Servers        []string `json:"servers"`
	SanityYear     int      `json:"sanity_year"`
	PollIntervalMs int      `json:"poll_interval_ms"`
	// Location is an IANA zone name for calendar fields. Empty means UTC.
	Location string `json:"location"`
}

type Sensor struct {
	Model   string `json:"model"`
	Bus     string `json:"bus"` // i2c-dev path on hosts
	Address uint16 `json:"address"`
	// PowerPin switches the sensor rail on boards; negative means none.
	PowerPin int `json:"power_pin"`
}

type Network struct {
	Backend string `json:"backend"`
	// Address is dialled by the probe backend.
	Address string `json:"address"`
	SSID    string `json:"ssid"`
}

type Uplink struct {
	Backend     string            `json:"backend"`
	URL         string            `json:"url"`
	Org         string            `json:"org"`
	Bucket      string            `json:"bucket"`
	Measurement string            `json:"measurement"`
	Tags        map[string]string `json:"tags"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Schedule: schedule.DefaultConfig(),
		Cycle: Cycle{
			NetworkTimeoutS:  20,
			SyncTimeoutS:     15,
			TransmitTimeoutS: 10,
			FallbackSleepS:   60,
			AllowedSlots:     []int{0, 30},
		},
		Time: Time{
			Backend:        TimeSNTP,
			SanityYear:     2024,
			PollIntervalMs: 50,
		},
		Sensor: Sensor{
			Model:    SensorAHT20,
			Bus:      "/dev/i2c-1",
			Address:  0x38,
			PowerPin: -1,
		},
		Network: Network{Backend: NetProbe},
		Uplink:  Uplink{Backend: UplinkREST, Measurement: "environment"},
	}
}

// Load returns the defaults overlaid with the embedded document for device.
// A device without an embedded document gets the defaults.
func Load(device string) (Config, error) {
	raw, _ := EmbeddedConfigLookup(device)
	return Parse(device, raw)
}

// Parse overlays raw (a JSON object, may be empty) on the defaults and
// validates the result. Unknown keys are rejected.
func Parse(device string, raw []byte) (Config, error) {
	c := Default()
	c.Device = device
	if len(bytes.TrimSpace(raw)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return Config{}, &errcode.E{C: errcode.InvalidParams, Op: "config.Parse", Msg: "device " + device, Err: err}
		}
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func bad(msg string) error {
	return &errcode.E{C: errcode.InvalidParams, Op: "config.Validate", Msg: msg}
}

// Validate checks backend names and ranges.
func (c Config) Validate() error {
	if err := c.Schedule.Validate(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch c.Time.Backend {
	case TimeSNTP, TimeKernel, TimeLink:
	default:
		return bad("unknown time backend " + c.Time.Backend)
	}
	switch c.Network.Backend {
	case NetProbe:
		if c.Network.Address == "" {
			return bad("probe network needs an address")
		}
	case NetLink:
	default:
		return bad("unknown network backend " + c.Network.Backend)
	}
	switch c.Uplink.Backend {
	case UplinkREST, UplinkInflux:
		if c.Uplink.URL == "" {
			return bad("uplink url required for " + c.Uplink.Backend)
		}
	case UplinkLink:
	default:
		return bad("unknown uplink backend " + c.Uplink.Backend)
	}
	if c.Uplink.Backend == UplinkInflux && (c.Uplink.Org == "" || c.Uplink.Bucket == "") {
		return bad("influx uplink needs org and bucket")
	}
	switch c.Sensor.Model {
	case SensorAHT20, SensorSHTC3:
	default:
		return bad("unknown sensor model " + c.Sensor.Model)
	}
	if c.Sensor.Address == 0 || c.Sensor.Address > 0x7f {
		return bad("sensor address outside 7-bit range")
	}
	for _, m := range c.Cycle.AllowedSlots {
		if m < 0 || m > 59 {
			return bad("allowed slot outside 0..59")
		}
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, &errcode.E{C: errcode.InvalidParams, Op: "config.Level", Err: err}
	}
	return l, nil
}

// Location resolves Time.Location. Empty means UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Time.Location == "" || c.Time.Location == "UTC" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Time.Location)
	if err != nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "config.Location", Err: err}
	}
	return loc, nil
}

// CycleConfig converts the cycle section for the controller.
func (c Config) CycleConfig() cycle.Config {
	return cycle.Config{
		NetworkTimeout:   time.Duration(c.Cycle.NetworkTimeoutS) * time.Second,
		SyncTimeout:      time.Duration(c.Cycle.SyncTimeoutS) * time.Second,
		TransmitTimeout:  time.Duration(c.Cycle.TransmitTimeoutS) * time.Second,
		FallbackSleep:    c.Cycle.FallbackSleepS,
		SlotCheck:        c.Cycle.SlotCheck,
		AllowedSlots:     c.Cycle.AllowedSlots,
		IncludeTimestamp: c.Cycle.IncludeTimestamp,
	}
}

// PollInterval is the time-sync status poll step.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Time.PollIntervalMs) * time.Millisecond
}
