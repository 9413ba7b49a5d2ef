//go:build !rp2040

package timesync

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/beevik/ntp"
)

// DefaultServers are tried in order.
var DefaultServers = []string{"pool.ntp.org", "time.google.com", "time.nist.gov"}

// QueryFunc returns the local clock offset reported by one server.
type QueryFunc func(server string, timeout time.Duration) (time.Duration, error)

// QueryNTP queries server over SNTP and validates the reply.
func QueryNTP(server string, timeout time.Duration) (time.Duration, error) {
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}

// SNTP synchronizes against a list of servers from a single query goroutine.
// Synced flips once any server answers with a valid reply.
type SNTP struct {
	Servers []string
	// QueryTimeout per server. Default 2 s.
	QueryTimeout time.Duration
	Query        QueryFunc
	Logger       *slog.Logger

	started atomic.Bool
	synced  atomic.Bool
	offset  atomic.Int64
}

// NewSNTP returns an SNTP syncer for servers (DefaultServers if empty).
func NewSNTP(servers []string, logger *slog.Logger) *SNTP {
	if len(servers) == 0 {
		servers = DefaultServers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SNTP{Servers: servers, QueryTimeout: 2 * time.Second, Query: QueryNTP, Logger: logger}
}

func (s *SNTP) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run(ctx)
}

func (s *SNTP) run(ctx context.Context) {
	q := s.Query
	if q == nil {
		q = QueryNTP
	}
	tmo := s.QueryTimeout
	if tmo <= 0 {
		tmo = 2 * time.Second
	}
	for _, srv := range s.Servers {
		if ctx.Err() != nil {
			return
		}
		off, err := q(srv, tmo)
		if err != nil {
			s.Logger.Debug("sntp:query-failed", slog.String("server", srv), slog.String("err", err.Error()))
			continue
		}
		s.offset.Store(int64(off))
		s.synced.Store(true)
		s.Logger.Debug("sntp:answer", slog.String("server", srv), slog.Duration("offset", off))
		return
	}
}

func (s *SNTP) Synced() bool          { return s.synced.Load() }
func (s *SNTP) Offset() time.Duration { return time.Duration(s.offset.Load()) }
