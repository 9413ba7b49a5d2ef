package uplink

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"telemetry-node/errcode"
	"telemetry-node/services/network"
	"telemetry-node/types"
)

// Port is a byte stream to the companion modem (a UART on the board).
type Port interface {
	Write(p []byte) (int, error)
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

// Link speaks newline-delimited JSON to a companion modem that owns the
// radio. One Link serves as the cycle's Network, time Syncer and
// Transmitter:
//
//	-> {"id":1,"op":"join","ssid":"..","psk":".."}   <- {"id":1,"ok":true}
//	-> {"id":2,"op":"time"}                          <- {"id":2,"ok":true,"unix_us":...}
//	-> {"id":3,"op":"post","body":{...}}             <- {"id":3,"ok":true,"status":201}
//	-> {"id":4,"op":"leave"}                         (no reply)
//
// Replies whose id does not match the outstanding request are dropped.
type Link struct {
	port   Port
	logger *slog.Logger

	// RequestTimeout bounds time and post exchanges. Default 10 s.
	RequestTimeout time.Duration
	// Now is the local clock used to derive the sync offset.
	Now func() time.Time

	mu   sync.Mutex // one exchange at a time
	seq  uint32
	rx   []byte
	rbuf [64]byte

	started atomic.Bool
	synced  atomic.Bool
	offset  atomic.Int64
}

// MaxLine bounds one reply; longer input is discarded.
const MaxLine = 512

type linkRequest struct {
	ID   uint32         `json:"id"`
	Op   string         `json:"op"`
	SSID string         `json:"ssid,omitempty"`
	PSK  string         `json:"psk,omitempty"`
	Body *types.Payload `json:"body,omitempty"`
}

type linkReply struct {
	ID     uint32 `json:"id"`
	OK     bool   `json:"ok"`
	Err    string `json:"err,omitempty"`
	Status int    `json:"status,omitempty"`
	UnixUS int64  `json:"unix_us,omitempty"`
}

// NewLink wraps port.
func NewLink(port Port, logger *slog.Logger) *Link {
	if logger == nil {
		logger = slog.Default()
	}
	return &Link{port: port, logger: logger, RequestTimeout: 10 * time.Second, Now: time.Now}
}

// Connect asks the modem to join the network within timeout.
func (l *Link) Connect(ctx context.Context, cred network.Credentials, timeout time.Duration) bool {
	rep, err := l.exchange(ctx, timeout, linkRequest{Op: "join", SSID: cred.SSID, PSK: cred.Password})
	if err != nil {
		l.logger.Warn("link:join-failed", slog.String("err", err.Error()))
		return false
	}
	if !rep.OK {
		l.logger.Warn("link:join-refused", slog.String("err", rep.Err))
		return false
	}
	return true
}

// Disconnect tells the modem to leave; no reply is awaited.
func (l *Link) Disconnect() {
	_ = l.send(linkRequest{Op: "leave"})
}

// Start requests the modem's UTC time once, in the background.
func (l *Link) Start(ctx context.Context) {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	go l.syncOnce(ctx)
}

func (l *Link) syncOnce(ctx context.Context) {
	sent := l.Now()
	rep, err := l.exchange(ctx, l.RequestTimeout, linkRequest{Op: "time"})
	if err != nil || !rep.OK || rep.UnixUS <= 0 {
		l.logger.Warn("link:time-failed", slog.Any("err", err))
		return
	}
	got := l.Now()
	// Assume the reply was stamped half way through the round trip.
	remote := time.UnixMicro(rep.UnixUS).Add(got.Sub(sent) / 2)
	l.offset.Store(int64(remote.Sub(got)))
	l.synced.Store(true)
}

func (l *Link) Synced() bool          { return l.synced.Load() }
func (l *Link) Offset() time.Duration { return time.Duration(l.offset.Load()) }

// Post forwards the payload; the modem relays the store's status code.
func (l *Link) Post(ctx context.Context, p types.Payload) int {
	rep, err := l.exchange(ctx, l.RequestTimeout, linkRequest{Op: "post", Body: &p})
	if err != nil {
		l.logger.Warn("link:post-failed", slog.String("err", err.Error()))
		return TransportError
	}
	if !rep.OK && rep.Status == 0 {
		l.logger.Warn("link:post-refused", slog.String("err", rep.Err))
		return TransportError
	}
	return rep.Status
}

func (l *Link) send(req linkRequest) error {
	line, err := json.Marshal(req)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = l.port.Write(line)
	return err
}

func (l *Link) exchange(ctx context.Context, timeout time.Duration, req linkRequest) (linkReply, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	req.ID = l.seq
	if err := l.send(req); err != nil {
		return linkReply{}, errcode.Wrap(errcode.LinkProtocol, "link."+req.Op, err)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for {
		line, err := l.readLine(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return linkReply{}, errcode.Wrap(errcode.Timeout, "link."+req.Op, err)
			}
			return linkReply{}, errcode.Wrap(errcode.LinkProtocol, "link."+req.Op, err)
		}
		var rep linkReply
		if err := json.Unmarshal(line, &rep); err != nil {
			l.logger.Debug("link:garbage", slog.Int("len", len(line)))
			continue
		}
		if rep.ID != req.ID {
			continue
		}
		return rep, nil
	}
}

// readLine returns the next complete line, without the terminator.
func (l *Link) readLine(ctx context.Context) ([]byte, error) {
	for {
		if i := bytes.IndexByte(l.rx, '\n'); i >= 0 {
			line := bytes.TrimRight(l.rx[:i], "\r")
			out := append([]byte(nil), line...)
			l.rx = l.rx[:copy(l.rx, l.rx[i+1:])]
			return out, nil
		}
		if len(l.rx) > MaxLine {
			l.rx = l.rx[:0]
		}
		n, err := l.port.RecvSomeContext(ctx, l.rbuf[:])
		if n > 0 {
			l.rx = append(l.rx, l.rbuf[:n]...)
		}
		if err != nil {
			return nil, err
		}
	}
}
