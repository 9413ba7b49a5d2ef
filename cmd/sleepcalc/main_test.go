//go:build !rp2040

package main

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"sleepcalc"}, args...))
	return out.String(), err
}

func TestDecideEpoch(t *testing.T) {
	out, err := run(t, "decide", "--at", "2024-04-04T10:17:00Z")
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	for _, want := range []string{"sleep     780s", "boundary  2024-04-04T10:30:00Z", "skipped   false"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDecidePhase(t *testing.T) {
	out, err := run(t, "decide", "--at", "2024-04-04T06:01:00Z", "-s", "phase", "--ref-hour", "6")
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !strings.Contains(out, "sleep     1748s") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestDecideRejectsBadInput(t *testing.T) {
	if _, err := run(t, "decide", "--at", "yesterday"); err == nil {
		t.Fatal("expected error for bad instant")
	}
	if _, err := run(t, "decide", "-s", "lunar"); err == nil {
		t.Fatal("expected error for bad strategy")
	}
	if _, err := run(t, "decide", "--period", "7"); err == nil {
		t.Fatal("expected error for period not dividing a day")
	}
}

func TestCorrectedFactor(t *testing.T) {
	from := time.Date(2024, 4, 4, 6, 1, 0, 0, time.UTC)
	intended := from.Add(1750 * time.Second)
	early := intended.Add(-7 * time.Second)

	f, err := correctedFactor(from, intended, early, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if want := 1750.0 / 1743.0; math.Abs(f-want) > 1e-9 {
		t.Fatalf("factor = %v, want %v", f, want)
	}
	if f, _ := correctedFactor(from, intended, intended, 1.0015); f != 1.0015 {
		t.Fatalf("on-time wake changed factor to %v", f)
	}
	if _, err := correctedFactor(from, from, intended, 1); err == nil {
		t.Fatal("expected error when intended equals suspend instant")
	}
}

func TestDriftCommand(t *testing.T) {
	out, err := run(t, "drift",
		"--from", "2024-04-04T06:01:00Z",
		"--intended", "2024-04-04T06:30:00Z",
		"--actual", "2024-04-04T06:29:58Z",
		"--factor", "1")
	if err != nil {
		t.Fatalf("drift: %v", err)
	}
	if !strings.Contains(out, "error     -2s") || !strings.Contains(out, "factor    1.001151") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
