package kiosk

import (
	"testing"
	"time"
)

func newTestScheduler(slideCount int, interval time.Duration) (*Scheduler, *fakeSurface, *int) {
	surface := newFakeSurface(slideCount)
	names := []string{"NOW", "TODAY", "WEEK", "SERVICES", "FIVE", "SIX"}[:slideCount]
	sched := NewScheduler(SlidesFromNames(names), interval, surface, nil)
	rearms := 0
	sched.SetRearm(func() { rearms++ })
	return sched, surface, &rearms
}

func TestRotationCyclicInvariant(t *testing.T) {
	const slides = 4
	sched, _, _ := newTestScheduler(slides, 8*time.Second)
	sched.Start()

	for k := 1; k <= 3; k++ {
		for i := 0; i < slides; i++ {
			sched.RotationTick()
		}
		if got := sched.Current(); got != 0 {
			t.Fatalf("after %d full cycles current = %d, want 0", k, got)
		}
	}
	if got := sched.Transitions(); got != 12 {
		t.Fatalf("transitions = %d, want 12", got)
	}
}

func TestGoToResetsCountdownToFullInterval(t *testing.T) {
	sched, _, rearms := newTestScheduler(4, 8*time.Second)
	sched.Start()

	for i := 0; i < 5; i++ {
		sched.CountdownTick()
	}
	if got := sched.Remaining(); got != 3 {
		t.Fatalf("remaining before jump = %d, want 3", got)
	}

	before := *rearms
	if !sched.GoTo(2) {
		t.Fatal("GoTo(2) should transition")
	}
	if got := sched.Remaining(); got != 8 {
		t.Fatalf("remaining after GoTo = %d, want 8 (intervalMs/1000)", got)
	}
	if *rearms != before+1 {
		t.Fatal("GoTo must restart the rotation timer")
	}
}

func TestGoToCurrentIndexIsNoOp(t *testing.T) {
	sched, _, rearms := newTestScheduler(4, 8*time.Second)
	sched.Start()
	sched.CountdownTick()

	before := *rearms
	if sched.GoTo(0) {
		t.Fatal("GoTo(current) must report no transition")
	}
	if got := sched.Remaining(); got != 7 {
		t.Fatalf("remaining changed on no-op GoTo: %d", got)
	}
	if *rearms != before {
		t.Fatal("no-op GoTo must not restart the timer")
	}
	if sched.GoTo(-1) || sched.GoTo(99) {
		t.Fatal("out-of-range GoTo must be ignored")
	}
}

func TestPauseFreezesProgression(t *testing.T) {
	sched, _, _ := newTestScheduler(4, 8*time.Second)
	sched.Start()
	sched.RotationTick()
	if sched.Current() != 1 {
		t.Fatalf("current = %d, want 1", sched.Current())
	}

	sched.Pause()
	for i := 0; i < 20; i++ {
		sched.RotationTick()
		sched.CountdownTick()
	}
	if sched.Current() != 1 {
		t.Fatalf("paused rotation moved to %d", sched.Current())
	}

	sched.Resume()
	if sched.Current() != 1 {
		t.Fatalf("resume changed slide to %d", sched.Current())
	}
	if got := sched.Remaining(); got != 8 {
		t.Fatalf("remaining after resume = %d, want full interval 8", got)
	}
}

func TestCountdownClampsAtZero(t *testing.T) {
	sched, _, _ := newTestScheduler(2, 3*time.Second)
	sched.Start()
	for i := 0; i < 10; i++ {
		sched.CountdownTick()
	}
	if got := sched.Remaining(); got != 0 {
		t.Fatalf("remaining = %d, want clamp at 0", got)
	}
	sched.RotationTick()
	if got := sched.Remaining(); got != 3 {
		t.Fatalf("remaining after rollover = %d, want 3", got)
	}
}

// 8s cadence, 4 slides, 33 elapsed seconds with no manual input: transitions
// fire at t=8,16,24,32 (4 of them, back on slide 0) and the countdown has
// run one second into the fifth cycle, so 7 remain.
func TestThirtyThreeSecondScenario(t *testing.T) {
	sched, _, _ := newTestScheduler(4, 8*time.Second)
	sched.Start()

	for sec := 1; sec <= 33; sec++ {
		sched.CountdownTick()
		if sec%8 == 0 {
			sched.RotationTick()
		}
	}
	if got := sched.Transitions(); got != 4 {
		t.Fatalf("automatic transitions = %d, want 4", got)
	}
	if got := sched.Current(); got != 0 {
		t.Fatalf("current = %d, want 0", got)
	}
	if got := sched.Remaining(); got != 7 {
		t.Fatalf("remaining = %d, want 7", got)
	}
}

func TestTransitionOrderAndVisibility(t *testing.T) {
	sched, surface, _ := newTestScheduler(3, 8*time.Second)
	sched.Start()
	if !surface.slides[0].lastVisible() {
		t.Fatal("slide 0 not visible after Start")
	}

	sched.RotationTick()
	if surface.slides[0].lastVisible() {
		t.Fatal("slide 0 still visible after transition")
	}
	if !surface.slides[1].lastVisible() {
		t.Fatal("slide 1 not visible after transition")
	}
}

func TestMissingRenderTargetIsSkippedNotFatal(t *testing.T) {
	sched, surface, _ := newTestScheduler(3, 8*time.Second)
	delete(surface.slides, 1)
	sched.Start()

	sched.RotationTick() // onto the missing slide
	if sched.Current() != 1 {
		t.Fatalf("cursor must advance past missing target, got %d", sched.Current())
	}
	sched.RotationTick()
	if sched.Current() != 2 {
		t.Fatalf("rotation must continue, got %d", sched.Current())
	}
	if !surface.slides[2].lastVisible() {
		t.Fatal("slide 2 not activated after skipping missing target")
	}
}

func TestInitHookRunsOnActivationAndPanicsAreContained(t *testing.T) {
	surface := newFakeSurface(2)
	initCalls := 0
	slides := []Slide{
		{Index: 0, Name: SlideNow},
		{Index: 1, Name: SlideToday, Init: func() {
			initCalls++
			panic("init boom")
		}},
	}
	sched := NewScheduler(slides, 8*time.Second, surface, nil)
	sched.Start()

	sched.RotationTick()
	sched.RotationTick()
	sched.RotationTick()
	if initCalls != 2 {
		t.Fatalf("init hook calls = %d, want 2 (one per activation)", initCalls)
	}
	if sched.Current() != 1 {
		t.Fatalf("rotation halted by panicking hook, current = %d", sched.Current())
	}
}

func TestStartRearmIsIdempotent(t *testing.T) {
	sched, _, rearms := newTestScheduler(2, 8*time.Second)
	sched.Start()
	sched.Start()
	if *rearms != 2 {
		t.Fatalf("rearms = %d, want 2 (one per Start, replacing timers not stacking)", *rearms)
	}
	if sched.Current() != 0 {
		t.Fatalf("repeated Start moved cursor to %d", sched.Current())
	}
}
