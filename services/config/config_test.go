package config

import (
	"log/slog"
	"testing"
	"time"

	"telemetry-node/errcode"
	"telemetry-node/services/schedule"
)

func withLookup(t *testing.T, f func(string) ([]byte, bool)) {
	t.Helper()
	old := EmbeddedConfigLookup
	EmbeddedConfigLookup = f
	t.Cleanup(func() { EmbeddedConfigLookup = old })
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err == nil {
		t.Fatal("default REST uplink without URL should not validate")
	}
	c := Default()
	c.Uplink.URL = "https://store.example/rest/v1/readings"
	c.Network.Address = "store.example:443"
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestEmbeddedConfigsLoad(t *testing.T) {
	for _, dev := range []string{"pico", "host"} {
		if _, err := Load(dev); err != nil {
			t.Fatalf("Load(%q): %v", dev, err)
		}
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	withLookup(t, func(device string) ([]byte, bool) {
		if device != "shed" {
			return nil, false
		}
		return []byte(`{
			"schedule": {"strategy": "phase", "reference_hour": 6},
			"uplink": {"backend": "link"},
			"network": {"backend": "link"},
			"cycle": {"slot_check": true, "network_timeout_s": 5}
		}`), true
	})
	c, err := Load("shed")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Device != "shed" {
		t.Fatalf("device = %q", c.Device)
	}
	if c.Schedule.Strategy != schedule.PhaseAligned || c.Schedule.ReferenceHour != 6 {
		t.Fatalf("schedule = %+v", c.Schedule)
	}
	// Untouched keys keep their defaults.
	if c.Schedule.PeriodSeconds != schedule.DefaultPeriodSeconds || c.Schedule.DriftFactor != schedule.DefaultDriftFactor {
		t.Fatalf("defaults lost: %+v", c.Schedule)
	}
	cc := c.CycleConfig()
	if !cc.SlotCheck || cc.NetworkTimeout != 5*time.Second || cc.SyncTimeout != 15*time.Second {
		t.Fatalf("cycle config = %+v", cc)
	}
	if len(cc.AllowedSlots) != 2 || cc.AllowedSlots[0] != 0 || cc.AllowedSlots[1] != 30 {
		t.Fatalf("allowed slots = %v", cc.AllowedSlots)
	}
}

func TestLoadUnknownDeviceGetsDefaults(t *testing.T) {
	withLookup(t, func(string) ([]byte, bool) { return nil, false })
	// Defaults carry a REST uplink without URL, so an unknown device fails
	// validation rather than running half-configured.
	if _, err := Load("nobody"); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("err = %v, want invalid params", err)
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":      `{"uplink": {"backend": "link"}, "network": {"backend": "link"}, "colour": "red"}`,
		"bad json":         `{"uplink": `,
		"bad strategy":     `{"uplink": {"backend": "link"}, "network": {"backend": "link"}, "schedule": {"strategy": "lunar"}}`,
		"bad period":       `{"uplink": {"backend": "link"}, "network": {"backend": "link"}, "schedule": {"period_s": 7}}`,
		"bad backend":      `{"network": {"backend": "link"}, "uplink": {"backend": "pigeon"}}`,
		"influx no bucket": `{"network": {"backend": "link"}, "uplink": {"backend": "influx", "url": "http://x", "org": "o"}}`,
		"bad level":        `{"uplink": {"backend": "link"}, "network": {"backend": "link"}, "log_level": "loud"}`,
		"bad zone":         `{"uplink": {"backend": "link"}, "network": {"backend": "link"}, "time": {"location": "Mars/Olympus"}}`,
		"bad slot":         `{"uplink": {"backend": "link"}, "network": {"backend": "link"}, "cycle": {"allowed_slots": [75]}}`,
		"bad address":      `{"uplink": {"backend": "link"}, "network": {"backend": "link"}, "sensor": {"address": 300}}`,
		"bad sensor":       `{"uplink": {"backend": "link"}, "network": {"backend": "link"}, "sensor": {"model": "dht22"}}`,
		"reachability check without address": `{"uplink": {"backend": "link"}, "network": {"backend": "probe"}}`,
	}
	for name, raw := range cases {
		if _, err := Parse("x", []byte(raw)); errcode.Of(err) != errcode.InvalidParams {
			t.Fatalf("%s: err = %v, want invalid params", name, err)
		}
	}
}

func TestLevelAndLocation(t *testing.T) {
	c, err := Parse("x", []byte(`{"uplink": {"backend": "link"}, "network": {"backend": "link"}, "log_level": "warn", "time": {"location": "UTC"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if l, _ := c.Level(); l != slog.LevelWarn {
		t.Fatalf("level = %v", l)
	}
	if loc, _ := c.Location(); loc != time.UTC {
		t.Fatalf("location = %v", loc)
	}
	if c.PollInterval() != 50*time.Millisecond {
		t.Fatalf("poll interval = %v", c.PollInterval())
	}
}
