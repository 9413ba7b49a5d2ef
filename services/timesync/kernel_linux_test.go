//go:build linux && !rp2040

package timesync

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/sys/unix"
)

func TestKernelStatus(t *testing.T) {
	cases := []struct {
		state int
		err   error
		want  bool
	}{
		{0, nil, true}, // TIME_OK
		{timeError, nil, false},
		{0, errors.New("EPERM"), false},
	}
	for _, c := range cases {
		k := &Kernel{adjtimex: func(*unix.Timex) (int, error) { return c.state, c.err }}
		k.Start(context.Background())
		if got := k.Synced(); got != c.want {
			t.Fatalf("state=%d err=%v: Synced=%v, want %v", c.state, c.err, got, c.want)
		}
	}
	if (&Kernel{}).Synced() {
		t.Fatal("unstarted kernel syncer must not report synced")
	}
}
