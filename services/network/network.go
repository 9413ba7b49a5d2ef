// Package network brings the node's uplink up and down for one wake cycle.
package network

import (
	"context"
	"time"
)

// Credentials for joining the access network. Backends that do not need
// them ignore them.
type Credentials struct {
	SSID     string
	Password string
}

// Network is the association collaborator: a boolean success/timeout
// contract plus teardown.
type Network interface {
	Connect(ctx context.Context, cred Credentials, timeout time.Duration) bool
	Disconnect()
}
