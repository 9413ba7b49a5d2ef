package timesync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"telemetry-node/errcode"
)

// fakeClock advances only when the source sleeps.
type fakeClock struct {
	t      time.Time
	sleeps int
}

func (c *fakeClock) Now() time.Time        { return c.t }
func (c *fakeClock) Sleep(d time.Duration) { c.t = c.t.Add(d); c.sleeps++ }

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newSource(s Syncer, c *fakeClock) *Source {
	return New(s, Config{Clock: c, Sleep: c.Sleep, Logger: quiet()})
}

func TestSynchronizeSucceedsAfterPolls(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	st := &Static{Off: 90 * time.Second, ReadyAfter: 3}
	src := newSource(st, clk)

	if !src.Synchronize(context.Background(), 5*time.Second) {
		t.Fatal("expected sync")
	}
	if clk.sleeps != 3 {
		t.Fatalf("polled with %d sleeps, want 3", clk.sleeps)
	}
	now, err := src.Now()
	if err != nil {
		t.Fatalf("Now: %v", err)
	}
	want := clk.t.Add(90 * time.Second)
	if now.Unix != want.Unix() {
		t.Fatalf("Now = %v, want %v", now.Time(), want)
	}
	if !src.Synced() {
		t.Fatal("Synced should report true")
	}
}

func TestSynchronizeTimesOut(t *testing.T) {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	clk := &fakeClock{t: start}
	src := newSource(&Static{Never: true}, clk)

	if src.Synchronize(context.Background(), 2*time.Second) {
		t.Fatal("expected timeout")
	}
	elapsed := clk.t.Sub(start)
	if elapsed < 2*time.Second || elapsed > 2*time.Second+50*time.Millisecond {
		t.Fatalf("waited %v, want ~2s", elapsed)
	}
	if src.Synced() {
		t.Fatal("Synced after timeout")
	}
}

func TestSynchronizeStopsOnCancelledContext(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	src := newSource(&Static{Never: true}, clk)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if src.Synchronize(ctx, time.Hour) {
		t.Fatal("expected false")
	}
	if clk.sleeps != 0 {
		t.Fatalf("slept %d times after cancel", clk.sleeps)
	}
}

func TestNowRejectsInsaneYear(t *testing.T) {
	clk := &fakeClock{t: time.Date(1970, 1, 1, 0, 0, 5, 0, time.UTC)}
	src := newSource(&Static{}, clk)

	_, err := src.Now()
	if !errors.Is(err, errcode.ClockInvalid) {
		t.Fatalf("err = %v, want ClockInvalid", err)
	}
	// Three attempts, two pauses between them.
	if clk.sleeps != 2 {
		t.Fatalf("sleeps = %d, want 2", clk.sleeps)
	}
}

// lateClock jumps to a sane time after the first read.
type lateClock struct{ reads int }

func (c *lateClock) Now() time.Time {
	c.reads++
	if c.reads == 1 {
		return time.Unix(0, 0)
	}
	return time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
}

func TestNowRetriesUntilSane(t *testing.T) {
	lc := &lateClock{}
	loc := time.FixedZone("UTC+1", 3600)
	src := New(&Static{}, Config{Clock: lc, Sleep: func(time.Duration) {}, Logger: quiet(), Location: loc})
	now, err := src.Now()
	if err != nil {
		t.Fatalf("Now: %v", err)
	}
	if h, _, _ := now.Clock(); h != 5 {
		t.Fatalf("hour in location = %d, want 5", h)
	}
	if src.Location() != loc {
		t.Fatal("Location not kept")
	}
}

func TestSNTPUsesFirstAnsweringServer(t *testing.T) {
	var asked []string
	s := NewSNTP([]string{"a", "b", "c"}, quiet())
	s.Query = func(server string, _ time.Duration) (time.Duration, error) {
		asked = append(asked, server)
		if server == "a" {
			return 0, errors.New("unreachable")
		}
		return -3 * time.Second, nil
	}
	// Run inline so the test needs no synchronisation.
	s.run(context.Background())

	if !s.Synced() || s.Offset() != -3*time.Second {
		t.Fatalf("synced=%v offset=%v", s.Synced(), s.Offset())
	}
	if len(asked) != 2 || asked[1] != "b" {
		t.Fatalf("asked %v, want [a b]", asked)
	}
}

func TestSNTPAllServersFail(t *testing.T) {
	s := NewSNTP([]string{"a"}, quiet())
	s.Query = func(string, time.Duration) (time.Duration, error) { return 0, errors.New("nope") }
	s.run(context.Background())
	if s.Synced() {
		t.Fatal("should not be synced")
	}
}
