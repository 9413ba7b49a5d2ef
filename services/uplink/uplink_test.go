package uplink

import (
	"testing"
	"time"

	"telemetry-node/types"
)

func TestAccepted(t *testing.T) {
	for _, c := range []int{200, 201, 204} {
		if !Accepted(c) {
			t.Fatalf("%d should be accepted", c)
		}
	}
	for _, c := range []int{TransportError, 0, 202, 400, 401, 409, 500} {
		if Accepted(c) {
			t.Fatalf("%d should be rejected", c)
		}
	}
}

func TestNewPayload(t *testing.T) {
	at := time.Date(2024, 2, 29, 12, 0, 1, 987654321, time.UTC)
	r := types.Reading{Temperature: 3.5, Humidity: 88}

	p := NewPayload(r, at, true)
	if p.Timestamp != "2024-02-29 12:00:01.987654+00" {
		t.Fatalf("Timestamp = %q", p.Timestamp)
	}
	if !p.At.Equal(at) || p.Temperature != 3.5 || p.Humidity != 88 {
		t.Fatalf("payload = %+v", p)
	}
	if NewPayload(r, at, false).Timestamp != "" {
		t.Fatal("timestamp should be omitted")
	}
}
