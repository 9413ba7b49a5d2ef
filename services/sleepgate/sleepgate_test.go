package sleepgate

import (
	"testing"
	"time"
)

func TestClamp(t *testing.T) {
	cases := map[time.Duration]time.Duration{
		0:                 MinSuspend,
		-5 * time.Second:  MinSuspend,
		9 * time.Second:   MinSuspend,
		10 * time.Second:  10 * time.Second,
		780 * time.Second: 780 * time.Second,
	}
	for in, want := range cases {
		if got := Clamp(in); got != want {
			t.Fatalf("Clamp(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestFuncGateDoesNotReturn(t *testing.T) {
	var got time.Duration
	returned := false
	done := make(chan struct{})
	g := Func(func(d time.Duration) { got = d })
	go func() {
		defer close(done)
		g.Suspend(3 * time.Second)
		returned = true
	}()
	<-done
	if returned {
		t.Fatal("Suspend returned")
	}
	if got != MinSuspend {
		t.Fatalf("suspended for %v, want clamp to %v", got, MinSuspend)
	}
}
