// Package timex formats time for the remote store.
package timex

import (
	"time"

	"telemetry-node/x/conv"
)

// StoreStamp formats t in UTC as "YYYY-MM-DD HH:MM:SS.ffffff+00", the
// timestamptz literal accepted by the remote store. Microseconds are
// truncated, not rounded.
func StoreStamp(t time.Time) string {
	t = t.UTC()
	var b [29]byte
	y, mo, d := t.Date()
	conv.PadUint(b[0:4], uint64(y))
	b[4] = '-'
	conv.PadUint(b[5:7], uint64(mo))
	b[7] = '-'
	conv.PadUint(b[8:10], uint64(d))
	b[10] = ' '
	conv.PadUint(b[11:13], uint64(t.Hour()))
	b[13] = ':'
	conv.PadUint(b[14:16], uint64(t.Minute()))
	b[16] = ':'
	conv.PadUint(b[17:19], uint64(t.Second()))
	b[19] = '.'
	conv.PadUint(b[20:26], uint64(t.Nanosecond()/1000))
	b[26] = '+'
	b[27] = '0'
	b[28] = '0'
	return string(b[:])
}
