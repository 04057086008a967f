package kiosk

import (
	"log"
	"runtime"
	"sync/atomic"
	"time"
)

// PerformanceSample is one governor observation.
type PerformanceSample struct {
	At          time.Time
	FPS         float64
	MemoryBytes uint64
}

// GovernorConfig carries the degradation thresholds. Everything is
// configuration, not hardcoded constants.
type GovernorConfig struct {
	FPSFloor             float64
	WarningCeiling       int
	MemoryThresholdBytes uint64
	EscalationMultiplier float64
	SampleWindow         int
}

func (c *GovernorConfig) normalize() {
	if c.FPSFloor <= 0 {
		c.FPSFloor = 30
	}
	if c.WarningCeiling <= 0 {
		c.WarningCeiling = 10
	}
	if c.MemoryThresholdBytes == 0 {
		c.MemoryThresholdBytes = 100 << 20
	}
	if c.EscalationMultiplier <= 1 {
		c.EscalationMultiplier = 1.5
	}
	if c.SampleWindow <= 0 {
		c.SampleWindow = 120
	}
}

// Governor samples render rate and memory and escalates to recovery under
// sustained degradation. The warning count is a hysteresis band: one noisy
// sample moves it by one step, so only ceiling+1 consecutive-ish breaches
// reach the reload trigger, and the trigger fires exactly once.
type Governor struct {
	cfg     GovernorConfig
	logger  *log.Logger
	cleanup func()
	reload  func(reason string)
	readMem func() uint64

	frames       atomic.Uint64
	lastSampleAt time.Time
	lastFrames   uint64

	samples []PerformanceSample
	idx     int
	count   int

	warningCount int
	reloadFired  bool
	cleanupDone  bool
}

// NewGovernor builds the governor. cleanup runs before a memory-driven
// reload; reload is the terminal recovery action for both signals.
func NewGovernor(cfg GovernorConfig, cleanup func(), reload func(string), logger *log.Logger) *Governor {
	cfg.normalize()
	if logger == nil {
		logger = log.Default()
	}
	return &Governor{
		cfg:     cfg,
		logger:  logger,
		cleanup: cleanup,
		reload:  reload,
		readMem: readHeapBytes,
		samples: make([]PerformanceSample, cfg.SampleWindow),
	}
}

func readHeapBytes() uint64 {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return mem.HeapAlloc
}

// SetMemReader overrides the memory source (tests).
func (g *Governor) SetMemReader(fn func() uint64) {
	if g == nil || fn == nil {
		return
	}
	g.readMem = fn
}

// ObserveFrame counts one drawn frame. Called from the surface's draw path,
// so it is the only governor entry point that runs off the engine loop.
func (g *Governor) ObserveFrame() {
	if g == nil {
		return
	}
	g.frames.Add(1)
}

// Sample computes the frame rate since the previous sample, records it in the
// bounded ring and applies the warning-count hysteresis. Called once per
// second from the engine loop.
func (g *Governor) Sample(now time.Time) PerformanceSample {
	if g == nil {
		return PerformanceSample{}
	}
	total := g.frames.Load()
	sample := PerformanceSample{At: now, MemoryBytes: g.readMem()}

	if g.lastSampleAt.IsZero() {
		g.lastSampleAt = now
		g.lastFrames = total
		return sample
	}
	elapsed := now.Sub(g.lastSampleAt)
	if elapsed <= 0 {
		return sample
	}
	sample.FPS = float64(total-g.lastFrames) / elapsed.Seconds()
	g.lastSampleAt = now
	g.lastFrames = total

	g.push(sample)
	g.applyHysteresis(sample.FPS)
	return sample
}

func (g *Governor) push(sample PerformanceSample) {
	g.samples[g.idx] = sample
	g.idx = (g.idx + 1) % len(g.samples)
	if g.count < len(g.samples) {
		g.count++
	}
}

func (g *Governor) applyHysteresis(fps float64) {
	if fps < g.cfg.FPSFloor {
		if g.warningCount < g.cfg.WarningCeiling {
			g.warningCount++
			return
		}
		// Already saturated at the ceiling: the next breach escalates.
		if !g.reloadFired {
			g.reloadFired = true
			g.logger.Printf("governor: fps %.1f below floor %.1f for %d samples, requesting reload",
				fps, g.cfg.FPSFloor, g.cfg.WarningCeiling+1)
			if g.reload != nil {
				g.reload("sustained low frame rate")
			}
		}
		return
	}
	if g.warningCount > 0 {
		g.warningCount--
	}
}

// CheckThresholds evaluates memory on the coarse check cadence. A breach
// first triggers proactive cleanup; if memory stays above threshold times the
// escalation multiplier on a later check, the governor requests a reload.
func (g *Governor) CheckThresholds(now time.Time) {
	if g == nil {
		return
	}
	mem := g.readMem()
	threshold := g.cfg.MemoryThresholdBytes
	if mem <= threshold {
		g.cleanupDone = false
		return
	}
	if !g.cleanupDone {
		g.logger.Printf("governor: memory %d bytes above threshold %d, running cleanup", mem, threshold)
		g.cleanupDone = true
		if g.cleanup != nil {
			g.cleanup()
		}
		return
	}
	escalation := uint64(float64(threshold) * g.cfg.EscalationMultiplier)
	if mem > escalation && !g.reloadFired {
		g.reloadFired = true
		g.logger.Printf("governor: memory %d bytes above escalation %d after cleanup, requesting reload", mem, escalation)
		if g.reload != nil {
			g.reload("memory remained elevated after cleanup")
		}
	}
}

// WarningCount reports the hysteresis counter, always within [0, ceiling].
func (g *Governor) WarningCount() int {
	if g == nil {
		return 0
	}
	return g.warningCount
}

// Latest returns the newest sample, if any.
func (g *Governor) Latest() (PerformanceSample, bool) {
	if g == nil || g.count == 0 {
		return PerformanceSample{}, false
	}
	last := (g.idx - 1 + len(g.samples)) % len(g.samples)
	return g.samples[last], true
}
