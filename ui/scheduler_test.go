package ui

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDrawSchedulerCoalescesLatestPerID(t *testing.T) {
	s := newDrawScheduler(nil, 60, 50*time.Millisecond, nil)

	var seq []string
	s.Schedule("clock", func() { seq = append(seq, "c1") })
	s.Schedule("clock", func() { seq = append(seq, "c2") })
	s.Schedule("countdown", func() { seq = append(seq, "d1") })

	s.flush(false)

	if len(seq) != 2 {
		t.Fatalf("expected 2 callbacks, got %d (%v)", len(seq), seq)
	}
	for _, got := range seq {
		if got == "c1" {
			t.Fatalf("stale clock update survived coalescing: %v", seq)
		}
	}

	s.flush(false)
	if len(seq) != 2 {
		t.Fatalf("expected no additional callbacks after empty flush, got %v", seq)
	}
}

func TestDrawSchedulerStepsAdvanceOnePerFrame(t *testing.T) {
	s := newDrawScheduler(nil, 60, 50*time.Millisecond, nil)

	var seq []string
	s.ScheduleSteps("week-grid",
		func() { seq = append(seq, "dim") },
		func() { seq = append(seq, "bright") },
	)

	s.flush(false)
	if len(seq) != 1 || seq[0] != "dim" {
		t.Fatalf("first frame ran %v, want just the dim step", seq)
	}
	s.flush(false)
	if len(seq) != 2 || seq[1] != "bright" {
		t.Fatalf("second frame ran %v, want the bright step", seq)
	}
	s.flush(false)
	if len(seq) != 2 {
		t.Fatalf("empty frame ran extra steps: %v", seq)
	}
}

func TestDrawSchedulerReplacesQueuedSteps(t *testing.T) {
	s := newDrawScheduler(nil, 60, 50*time.Millisecond, nil)

	var seq []string
	s.ScheduleSteps("hours",
		func() { seq = append(seq, "old-dim") },
		func() { seq = append(seq, "old-bright") },
	)
	s.Schedule("hours", func() { seq = append(seq, "new") })

	s.flush(false)
	s.flush(false)
	if len(seq) != 1 || seq[0] != "new" {
		t.Fatalf("superseded cross-fade still ran: %v", seq)
	}
}

func TestDrawSchedulerFlushesPendingOnStop(t *testing.T) {
	s := newDrawScheduler(nil, 60, 50*time.Millisecond, nil)
	var called atomic.Uint64

	s.Start()
	s.ScheduleSteps("toast",
		func() { called.Add(1) },
		func() { called.Add(1) },
	)
	s.Stop()

	if called.Load() != 2 {
		t.Fatalf("expected both pending steps to flush on stop, got %d", called.Load())
	}
}

func TestDrawSchedulerObservesFrames(t *testing.T) {
	var frames atomic.Uint64
	s := newDrawScheduler(nil, 60, 50*time.Millisecond, func() { frames.Add(1) })

	s.Schedule("date", func() {})
	s.flush(false)
	if frames.Load() != 1 {
		t.Fatalf("frames observed = %d, want 1", frames.Load())
	}
}
