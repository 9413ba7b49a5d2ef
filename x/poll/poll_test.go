package poll

import (
	"context"
	"testing"
	"time"
)

type virtual struct{ t time.Time }

func (v *virtual) now() time.Time        { return v.t }
func (v *virtual) sleep(d time.Duration) { v.t = v.t.Add(d) }

func TestUntilSucceeds(t *testing.T) {
	v := &virtual{t: time.Unix(1_700_000_000, 0)}
	w := Waiter{Step: 10 * time.Millisecond, Now: v.now, Sleep: v.sleep}
	calls := 0
	ok, n := w.Until(context.Background(), time.Second, func() bool { calls++; return calls == 4 })
	if !ok || n != 3 {
		t.Fatalf("ok=%v sleeps=%d, want true/3", ok, n)
	}
}

func TestUntilHardDeadline(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	v := &virtual{t: start}
	w := Waiter{Step: 30 * time.Millisecond, Now: v.now, Sleep: v.sleep}
	ok, _ := w.Until(context.Background(), 100*time.Millisecond, func() bool { return false })
	if ok {
		t.Fatal("expected timeout")
	}
	if got := v.t.Sub(start); got != 120*time.Millisecond {
		t.Fatalf("waited %v, want 120ms (first step past the deadline)", got)
	}
}

func TestUntilChecksOnceWithZeroTimeout(t *testing.T) {
	calls := 0
	ok, n := Waiter{}.Until(context.Background(), 0, func() bool { calls++; return false })
	if ok || n != 0 || calls != 1 {
		t.Fatalf("ok=%v n=%d calls=%d", ok, n, calls)
	}
}
