package kiosk

import (
	"log"
	"time"
)

// Scheduler is the rotation state machine: it advances through the fixed
// slide sequence on the rotation cadence and exposes the operator controls.
// It owns the RotationTimer state (remaining seconds, running flag); the
// engine loop owns the actual timers and calls the tick methods, so every
// transition runs atomically inside one loop iteration.
type Scheduler struct {
	surface  Surface
	logger   *log.Logger
	slides   []Slide
	interval time.Duration

	current     int
	remaining   int
	running     bool
	started     bool
	transitions uint64

	// rearm restarts the engine's rotation timer so manual navigation resets
	// the automatic cadence instead of stacking with it.
	rearm func()
}

// NewScheduler builds the rotation scheduler. interval below one second is
// normalized to the 8s default.
func NewScheduler(slides []Slide, interval time.Duration, surface Surface, logger *log.Logger) *Scheduler {
	if interval < time.Second {
		interval = 8 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		surface:  surface,
		logger:   logger,
		slides:   slides,
		interval: interval,
	}
}

// SetRearm installs the rotation-timer restart hook.
func (s *Scheduler) SetRearm(fn func()) {
	s.rearm = fn
}

func (s *Scheduler) intervalSeconds() int {
	return int(s.interval / time.Second)
}

// Start activates slide 0 and arms the cadence. Calling Start again re-arms
// rather than stacking timers.
func (s *Scheduler) Start() {
	if s == nil || len(s.slides) == 0 {
		return
	}
	s.running = true
	s.started = true
	s.activate(s.current)
	s.resetCountdown()
	s.fireRearm()
}

// Pause freezes progression. The current slide and countdown stay as they
// are; rotation and countdown ticks become no-ops.
func (s *Scheduler) Pause() {
	if s == nil {
		return
	}
	s.running = false
}

// Resume re-arms the cadence. The countdown shows the full interval
// immediately, never a stale value.
func (s *Scheduler) Resume() {
	if s == nil || !s.started {
		return
	}
	s.running = true
	s.resetCountdown()
	s.fireRearm()
}

// Running reports whether automatic rotation is active.
func (s *Scheduler) Running() bool {
	return s != nil && s.running
}

// Current returns the active slide index.
func (s *Scheduler) Current() int {
	if s == nil {
		return 0
	}
	return s.current
}

// CurrentName returns the active slide name.
func (s *Scheduler) CurrentName() SlideName {
	if s == nil || s.current >= len(s.slides) {
		return ""
	}
	return s.slides[s.current].Name
}

// Remaining returns the countdown in whole seconds, always within
// [0, interval/1s].
func (s *Scheduler) Remaining() int {
	if s == nil {
		return 0
	}
	return s.remaining
}

// Transitions returns the number of slide transitions since Start.
func (s *Scheduler) Transitions() uint64 {
	if s == nil {
		return 0
	}
	return s.transitions
}

// RotationTick advances to the next slide. Fired by the engine on the
// rotation cadence; a no-op while paused.
func (s *Scheduler) RotationTick() {
	if s == nil || !s.running || len(s.slides) == 0 {
		return
	}
	s.transition((s.current + 1) % len(s.slides))
}

// CountdownTick decrements the visible countdown once per second, clamped at
// zero. The next rotation tick rolls it over; it never goes negative.
func (s *Scheduler) CountdownTick() {
	if s == nil || !s.running {
		return
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.surface != nil {
		s.surface.SetCountdown(s.remaining)
	}
}

// Next advances one slide manually and restarts the cadence.
func (s *Scheduler) Next() {
	if s == nil || len(s.slides) == 0 {
		return
	}
	s.transition((s.current + 1) % len(s.slides))
	s.fireRearm()
}

// Prev goes back one slide manually and restarts the cadence.
func (s *Scheduler) Prev() {
	if s == nil || len(s.slides) == 0 {
		return
	}
	s.transition((s.current + len(s.slides) - 1) % len(s.slides))
	s.fireRearm()
}

// GoTo jumps to index. Jumping to the current slide or out of range is a
// complete no-op: no timer restart, no re-render.
func (s *Scheduler) GoTo(index int) bool {
	if s == nil || index < 0 || index >= len(s.slides) || index == s.current {
		return false
	}
	s.transition(index)
	s.fireRearm()
	return true
}

// transition performs the strictly ordered deactivate/activate/reset
// sequence. A missing render target is logged and skipped; the cursor still
// advances so the rotation continues indefinitely.
func (s *Scheduler) transition(to int) {
	s.deactivate(s.current)
	s.current = to
	s.transitions++
	s.activate(to)
	s.resetCountdown()
}

func (s *Scheduler) deactivate(index int) {
	if s.surface == nil {
		return
	}
	if target := s.surface.SlideTarget(index); target != nil {
		target.SetVisible(false)
	}
}

func (s *Scheduler) activate(index int) {
	if s.surface != nil {
		target := s.surface.SlideTarget(index)
		if target == nil {
			s.logger.Printf("rotation: slide %d (%s) has no render target, skipping render", index, s.slides[index].Name)
		} else {
			target.SetVisible(true)
		}
	}
	s.runInit(index)
}

// runInit invokes the slide's initialization hook. Hooks are idempotent by
// contract; a panicking hook is contained here so rotation never stops.
func (s *Scheduler) runInit(index int) {
	hook := s.slides[index].Init
	if hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("rotation: init hook for slide %d panicked: %v", index, r)
		}
	}()
	hook()
}

func (s *Scheduler) resetCountdown() {
	s.remaining = s.intervalSeconds()
	if s.surface != nil {
		s.surface.SetCountdown(s.remaining)
	}
}

func (s *Scheduler) fireRearm() {
	if s.rearm != nil && s.running {
		s.rearm()
	}
}
