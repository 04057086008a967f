package kiosk

import (
	"strings"
	"testing"
	"time"
)

func newTestNetMonitor(banner *fakeTarget, reloads *int) *NetMonitor {
	return NewNetMonitor(banner, time.UTC, 10*time.Second, 2*time.Second,
		func(string) { *reloads++ }, nil)
}

func TestOfflineTransitionShowsBannerWithFrozenTimestamp(t *testing.T) {
	banner := &fakeTarget{}
	reloads := 0
	m := newTestNetMonitor(banner, &reloads)

	start := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	m.Observe(start, true)
	m.Observe(start.Add(time.Minute), false)

	if m.State() != StateOffline {
		t.Fatalf("state = %v, want OFFLINE", m.State())
	}
	if !banner.lastVisible() {
		t.Fatal("banner not shown on offline transition")
	}
	if got := banner.lastContent(); !strings.Contains(got, "14:30") {
		t.Fatalf("banner %q must freeze the last good timestamp", got)
	}
}

func TestBannerAutoHidesWhileStillOffline(t *testing.T) {
	banner := &fakeTarget{}
	reloads := 0
	m := newTestNetMonitor(banner, &reloads)

	start := time.Unix(1000, 0)
	m.Observe(start, true)
	m.Observe(start.Add(time.Second), false)

	m.Tick(start.Add(10 * time.Second))
	if !banner.lastVisible() {
		t.Fatal("banner hidden before the 10s window elapsed")
	}
	m.Tick(start.Add(12 * time.Second))
	if banner.lastVisible() {
		t.Fatal("banner must auto-hide after its display window even while offline")
	}
	if m.State() != StateOffline {
		t.Fatal("auto-hide must not change connectivity state")
	}
}

func TestOnlineTransitionHidesBannerAndSchedulesSingleReload(t *testing.T) {
	banner := &fakeTarget{}
	reloads := 0
	m := newTestNetMonitor(banner, &reloads)

	start := time.Unix(1000, 0)
	m.Observe(start, true)
	m.Observe(start.Add(1*time.Second), false)

	// Flickers: offline->online->offline->online inside the banner window.
	m.Observe(start.Add(3*time.Second), true)
	if banner.lastVisible() {
		t.Fatal("banner must hide immediately on reconnect")
	}
	m.Observe(start.Add(4*time.Second), false)
	m.Observe(start.Add(5*time.Second), true)

	// Grace has not elapsed from the first reconnect schedule.
	m.Tick(start.Add(4 * time.Second))
	if reloads != 0 {
		t.Fatalf("reload before grace delay: %d", reloads)
	}
	m.Tick(start.Add(6 * time.Second))
	if reloads != 1 {
		t.Fatalf("reloads = %d, want exactly 1 despite flicker", reloads)
	}
	m.Tick(start.Add(20 * time.Second))
	if reloads != 1 {
		t.Fatalf("reloads = %d after further ticks, want 1", reloads)
	}
}

func TestInitialOfflineBootShowsBanner(t *testing.T) {
	banner := &fakeTarget{}
	reloads := 0
	m := newTestNetMonitor(banner, &reloads)

	m.Observe(time.Unix(1000, 0), false)
	if m.State() != StateOffline {
		t.Fatalf("state = %v, want OFFLINE", m.State())
	}
	if !banner.lastVisible() {
		t.Fatal("offline boot must show the banner")
	}
	if got := banner.lastContent(); got != "Offline" {
		t.Fatalf("banner = %q, want plain Offline without a last-good stamp", got)
	}
	if reloads != 0 {
		t.Fatalf("reload scheduled on initial observation: %d", reloads)
	}
}

func TestSteadyStateObservationsAreQuiet(t *testing.T) {
	banner := &fakeTarget{}
	reloads := 0
	m := newTestNetMonitor(banner, &reloads)

	start := time.Unix(1000, 0)
	for i := 0; i < 100; i++ {
		m.Observe(start.Add(time.Duration(i)*5*time.Second), true)
		m.Tick(start.Add(time.Duration(i) * 5 * time.Second))
	}
	if reloads != 0 || banner.contentCount() != 0 {
		t.Fatalf("steady online produced reloads=%d bannerWrites=%d", reloads, banner.contentCount())
	}
}
