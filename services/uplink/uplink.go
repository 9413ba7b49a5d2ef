// Package uplink writes one reading per cycle to the remote store.
//
// Backends report the store's HTTP-like status code; TransportError (< 0)
// stands for "no answer at all".
package uplink

import (
	"context"
	"time"

	"telemetry-node/types"
	"telemetry-node/x/timex"
)

// TransportError is returned by Post when no status was received.
const TransportError = -1

// Transmitter is the transmit collaborator.
type Transmitter interface {
	Post(ctx context.Context, p types.Payload) int
}

// Accepted reports whether code means the store took the reading.
func Accepted(code int) bool {
	switch code {
	case 200, 201, 204:
		return true
	}
	return false
}

// NewPayload builds the body for r sampled at at. The string timestamp is
// included only when stamp is set; At is always carried.
func NewPayload(r types.Reading, at time.Time, stamp bool) types.Payload {
	p := types.Payload{Temperature: r.Temperature, Humidity: r.Humidity, At: at}
	if stamp {
		p.Timestamp = timex.StoreStamp(at)
	}
	return p
}
