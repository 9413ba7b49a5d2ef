package types

import "time"

// ------------------------
// Temperature & humidity
// ------------------------

// Reading is one sample as read from the sensor. Values are opaque to the
// scheduler and passed to the uplink unchanged.
type Reading struct {
	// Degrees Celsius.
	Temperature float64 `json:"temperature"`
	// Percent relative humidity (0..100).
	Humidity float64 `json:"humidity"`
}

// Payload is the body written to the remote store for one cycle.
type Payload struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	// Timestamp is "YYYY-MM-DD HH:MM:SS.ffffff+00" (UTC); omitted when empty.
	Timestamp string `json:"timestamp,omitempty"`

	// At is the sample instant for backends with a native time type.
	At time.Time `json:"-"`
}
