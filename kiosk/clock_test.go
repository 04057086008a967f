package kiosk

import (
	"strings"
	"testing"
	"time"
)

func TestClockRendersConfiguredZoneNotHostZone(t *testing.T) {
	clockTarget := &fakeTarget{}
	dateTarget := &fakeTarget{}
	c, err := NewClock("Europe/Berlin", clockTarget, dateTarget)
	if err != nil {
		t.Fatalf("NewClock: %v", err)
	}

	// 12:30:00 UTC is 13:30 in Berlin (winter time).
	now := time.Date(2026, 1, 15, 12, 30, 0, 0, time.UTC)
	c.Tick(now)

	if got := clockTarget.lastContent(); !strings.HasPrefix(got, "13") {
		t.Fatalf("clock rendered %q, want Berlin hour 13", got)
	}
	if got := dateTarget.lastContent(); !strings.Contains(got, "15 January 2026") {
		t.Fatalf("date rendered %q", got)
	}
}

func TestClockTickIsIdempotentPerSecond(t *testing.T) {
	clockTarget := &fakeTarget{}
	c, err := NewClock("UTC", clockTarget, nil)
	if err != nil {
		t.Fatalf("NewClock: %v", err)
	}
	now := time.Date(2026, 1, 15, 12, 30, 0, 0, time.UTC)
	c.Tick(now)
	c.Tick(now)
	c.Tick(now.Add(100 * time.Millisecond))

	if got := clockTarget.contentCount(); got != 1 {
		t.Fatalf("renders within one second = %d, want 1", got)
	}
}

func TestClockSeparatorAlternatesWithSecondParity(t *testing.T) {
	clockTarget := &fakeTarget{}
	c, err := NewClock("UTC", clockTarget, nil)
	if err != nil {
		t.Fatalf("NewClock: %v", err)
	}
	even := time.Date(2026, 1, 15, 9, 5, 2, 0, time.UTC)
	c.Tick(even)
	bright := clockTarget.lastContent()
	c.Tick(even.Add(time.Second))
	dim := clockTarget.lastContent()

	if bright == dim {
		t.Fatalf("separator emphasis did not alternate: %q vs %q", bright, dim)
	}
	if !strings.Contains(dim, clockSepDim) {
		t.Fatalf("odd second %q missing dim separator", dim)
	}
}

func TestClockRejectsUnknownTimezone(t *testing.T) {
	if _, err := NewClock("Nowhere/Invalid", &fakeTarget{}, nil); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestClockDateRendersOncePerDay(t *testing.T) {
	clockTarget := &fakeTarget{}
	dateTarget := &fakeTarget{}
	c, err := NewClock("UTC", clockTarget, dateTarget)
	if err != nil {
		t.Fatalf("NewClock: %v", err)
	}
	day := time.Date(2026, 1, 15, 23, 59, 59, 0, time.UTC)
	c.Tick(day)
	c.Tick(day.Add(-10 * time.Second)) // same day, different second
	if got := dateTarget.contentCount(); got != 1 {
		t.Fatalf("date renders = %d, want 1 within the same day", got)
	}
	c.Tick(day.Add(time.Second)) // midnight rollover
	if got := dateTarget.contentCount(); got != 2 {
		t.Fatalf("date renders = %d, want 2 after midnight", got)
	}
}
