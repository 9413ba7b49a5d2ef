//go:build !rp2040

package network

import (
	"context"
	"log/slog"
	"net"
	"time"

	"telemetry-node/x/poll"
)

// DialFunc opens a connection to address within timeout.
type DialFunc func(ctx context.Context, address string, timeout time.Duration) (net.Conn, error)

func dialTCP(ctx context.Context, address string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, "tcp", address)
}

// Probe treats the network as up once a TCP connection to Address succeeds.
// On a host the OS owns association; this confirms the store is reachable.
type Probe struct {
	Address string
	// RetryInterval between dial attempts. Default 250 ms.
	RetryInterval time.Duration
	// AttemptTimeout bounds one dial. Default 2 s.
	AttemptTimeout time.Duration
	Dial           DialFunc
	Logger         *slog.Logger

	up bool
}

// NewProbe returns a Probe for address ("host:port").
func NewProbe(address string, logger *slog.Logger) *Probe {
	if logger == nil {
		logger = slog.Default()
	}
	return &Probe{
		Address:        address,
		RetryInterval:  250 * time.Millisecond,
		AttemptTimeout: 2 * time.Second,
		Dial:           dialTCP,
		Logger:         logger,
	}
}

func (p *Probe) Connect(ctx context.Context, _ Credentials, timeout time.Duration) bool {
	if p.up {
		return true
	}
	dial := p.Dial
	if dial == nil {
		dial = dialTCP
	}
	attempt := p.AttemptTimeout
	if attempt <= 0 || attempt > timeout {
		attempt = timeout
	}
	var lastErr error
	w := poll.Waiter{Step: p.RetryInterval}
	ok, tries := w.Until(ctx, timeout, func() bool {
		c, err := dial(ctx, p.Address, attempt)
		if err != nil {
			lastErr = err
			return false
		}
		_ = c.Close()
		return true
	})
	if !ok {
		attrs := []any{slog.String("addr", p.Address), slog.Int("retries", tries)}
		if lastErr != nil {
			attrs = append(attrs, slog.String("err", lastErr.Error()))
		}
		p.Logger.Warn("net:unreachable", attrs...)
		return false
	}
	p.up = true
	p.Logger.Info("net:up", slog.String("addr", p.Address), slog.Int("retries", tries))
	return true
}

func (p *Probe) Disconnect() { p.up = false }
