package kiosk

import (
	"testing"
	"time"
)

func TestBurnInAppliesBoundedOffsetWhenIdle(t *testing.T) {
	root := &fakeTarget{}
	b := NewBurnIn(root, 2, time.Minute, 5*time.Second)

	now := time.Unix(1000, 0)
	b.Tick(now) // never interacted: idle since forever

	if !b.Active() {
		t.Fatal("offset not applied on idle display")
	}
	got := root.lastTransform()
	if got[0] < -2 || got[0] > 2 || got[1] < -2 || got[1] > 2 {
		t.Fatalf("offset %v exceeds +-2px amplitude", got)
	}
	if got[0] == 0 && got[1] == 0 {
		t.Fatalf("offset %v is a no-op shift", got)
	}
}

func TestBurnInRevertsToNeutralAfterWindow(t *testing.T) {
	root := &fakeTarget{}
	b := NewBurnIn(root, 2, time.Minute, 5*time.Second)

	now := time.Unix(1000, 0)
	b.Tick(now)
	b.Maintain(now.Add(4 * time.Second))
	if !b.Active() {
		t.Fatal("offset reverted before the 5s window")
	}
	b.Maintain(now.Add(5 * time.Second))
	if b.Active() {
		t.Fatal("offset not reverted after the window")
	}
	if got := root.lastTransform(); got != [2]int{0, 0} {
		t.Fatalf("final transform = %v, want neutral", got)
	}
}

func TestBurnInGatedByRecentInteraction(t *testing.T) {
	root := &fakeTarget{}
	b := NewBurnIn(root, 2, time.Minute, 5*time.Second)

	now := time.Unix(1000, 0)
	b.Interaction(now)
	b.Tick(now.Add(30 * time.Second))
	if b.Active() {
		t.Fatal("offset applied within the 60s interaction gate")
	}
	b.Tick(now.Add(61 * time.Second))
	if !b.Active() {
		t.Fatal("offset withheld although the gate elapsed")
	}
}
