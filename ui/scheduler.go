package ui

import (
	"sync"
	"time"

	"github.com/rivo/tview"
)

// drawScheduler coalesces render updates and caps the draw rate. Updates are
// keyed by region id: a newer update for the same region replaces the queued
// one, so a burst of content changes costs one frame. Multi-step sequences
// (cross-fades) advance one step per frame instead.
type drawScheduler struct {
	queue        func(fn func())
	mu           sync.Mutex
	pending      map[string][]func()
	quit         chan struct{}
	done         chan struct{}
	wg           sync.WaitGroup
	frameTime    time.Duration
	drainTimeout time.Duration
	observeFrame func()
}

func newDrawScheduler(app *tview.Application, targetFPS int, drainTimeout time.Duration, observeFrame func()) *drawScheduler {
	if targetFPS <= 0 {
		targetFPS = 30
	}
	if drainTimeout <= 0 {
		drainTimeout = 100 * time.Millisecond
	}
	queue := func(fn func()) { fn() }
	if app != nil {
		queue = func(fn func()) { app.QueueUpdateDraw(fn) }
	}
	return &drawScheduler{
		queue:        queue,
		pending:      make(map[string][]func()),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		frameTime:    time.Second / time.Duration(targetFPS),
		drainTimeout: drainTimeout,
		observeFrame: observeFrame,
	}
}

func (s *drawScheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

func (s *drawScheduler) Stop() {
	close(s.quit)
	select {
	case <-s.done:
	case <-time.After(s.drainTimeout):
	}
}

// Schedule queues one update for a region, replacing any queued update with
// the same id.
func (s *drawScheduler) Schedule(id string, fn func()) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.pending[id] = []func(){fn}
	s.mu.Unlock()
}

// ScheduleSteps queues a frame-by-frame sequence for a region. Each flush runs
// exactly one step, so a two-step dim/bright pair reads as a brief cross-fade.
func (s *drawScheduler) ScheduleSteps(id string, steps ...func()) {
	if s == nil || len(steps) == 0 {
		return
	}
	s.mu.Lock()
	s.pending[id] = steps
	s.mu.Unlock()
}

func (s *drawScheduler) run() {
	defer s.wg.Done()
	defer close(s.done)

	ticker := time.NewTicker(s.frameTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.flush(false)
		case <-s.quit:
			s.drain()
			return
		}
	}
}

// flush runs the head step of every pending sequence in one queued draw.
// Sequences with remaining steps stay pending for the next frame unless all
// is set.
func (s *drawScheduler) flush(all bool) {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		batch := make([]func(), 0, len(s.pending))
		for id, steps := range s.pending {
			if all {
				batch = append(batch, steps...)
				delete(s.pending, id)
				continue
			}
			batch = append(batch, steps[0])
			if len(steps) == 1 {
				delete(s.pending, id)
			} else {
				s.pending[id] = steps[1:]
			}
		}
		s.mu.Unlock()

		s.queue(func() {
			for _, fn := range batch {
				fn()
			}
			if s.observeFrame != nil {
				s.observeFrame()
			}
		})
		if !all {
			// Leftover steps belong to later frames.
			return
		}
	}
}

func (s *drawScheduler) drain() {
	deadline := time.Now().Add(s.drainTimeout)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		empty := len(s.pending) == 0
		s.mu.Unlock()
		if empty {
			return
		}
		s.flush(true)
	}
}
