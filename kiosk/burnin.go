package kiosk

import (
	"math/rand"
	"time"
)

// BurnIn applies small periodic positional perturbations to the rotating
// container so static pixels do not burn into the panel over multi-day
// uptimes. Offsets are visual-only transforms and revert after a short
// window. Nothing happens while an operator has interacted recently.
type BurnIn struct {
	root        RenderTarget
	amplitudePx int
	idleGate    time.Duration
	revertAfter time.Duration
	rng         *rand.Rand

	lastInteraction time.Time
	offsetActive    bool
	offsetAt        time.Time
}

// NewBurnIn builds the preventer with the given amplitude (px per axis).
func NewBurnIn(root RenderTarget, amplitudePx int, idleGate, revertAfter time.Duration) *BurnIn {
	if amplitudePx <= 0 {
		amplitudePx = 2
	}
	if idleGate <= 0 {
		idleGate = time.Minute
	}
	if revertAfter <= 0 {
		revertAfter = 5 * time.Second
	}
	return &BurnIn{
		root:        root,
		amplitudePx: amplitudePx,
		idleGate:    idleGate,
		revertAfter: revertAfter,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Interaction records operator input (any pointer or keyboard event).
func (b *BurnIn) Interaction(now time.Time) {
	if b == nil {
		return
	}
	b.lastInteraction = now
}

// Tick fires on the long burn-in period and applies a random offset when the
// display has been idle past the gate. A display that never sees interaction
// (the normal kiosk case) shifts on every tick.
func (b *BurnIn) Tick(now time.Time) {
	if b == nil || b.root == nil {
		return
	}
	if !b.lastInteraction.IsZero() && now.Sub(b.lastInteraction) < b.idleGate {
		return
	}
	dx := b.rng.Intn(2*b.amplitudePx+1) - b.amplitudePx
	dy := b.rng.Intn(2*b.amplitudePx+1) - b.amplitudePx
	if dx == 0 && dy == 0 {
		dx = b.amplitudePx
	}
	b.root.ApplyTransform(dx, dy)
	b.offsetActive = true
	b.offsetAt = now
}

// Maintain runs at 1 Hz and reverts the offset to neutral after the revert
// window.
func (b *BurnIn) Maintain(now time.Time) {
	if b == nil || !b.offsetActive {
		return
	}
	if now.Sub(b.offsetAt) < b.revertAfter {
		return
	}
	b.offsetActive = false
	if b.root != nil {
		b.root.ApplyTransform(0, 0)
	}
}

// Active reports whether an offset is currently applied.
func (b *BurnIn) Active() bool {
	return b != nil && b.offsetActive
}
