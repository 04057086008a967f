package kiosk

import "sync"

// fakeTarget records every render call for assertions.
type fakeTarget struct {
	mu         sync.Mutex
	contents   []string
	crossFades []bool
	visible    []bool
	transforms [][2]int
}

func (t *fakeTarget) SetContent(markup string, crossFade bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.contents = append(t.contents, markup)
	t.crossFades = append(t.crossFades, crossFade)
}

func (t *fakeTarget) SetVisible(visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.visible = append(t.visible, visible)
}

func (t *fakeTarget) ApplyTransform(dx, dy int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transforms = append(t.transforms, [2]int{dx, dy})
}

func (t *fakeTarget) lastContent() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.contents) == 0 {
		return ""
	}
	return t.contents[len(t.contents)-1]
}

func (t *fakeTarget) lastVisible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.visible) == 0 {
		return false
	}
	return t.visible[len(t.visible)-1]
}

func (t *fakeTarget) contentCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.contents)
}

func (t *fakeTarget) lastTransform() [2]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.transforms) == 0 {
		return [2]int{}
	}
	return t.transforms[len(t.transforms)-1]
}

// fakeSurface implements Surface for engine and component tests.
type fakeSurface struct {
	slides     map[int]*fakeTarget
	regions    map[Region]*fakeTarget
	root       *fakeTarget
	countdowns []int
	fullscreen bool
	diagText   string
	diagShown  bool
}

func newFakeSurface(slideCount int) *fakeSurface {
	s := &fakeSurface{
		slides:  make(map[int]*fakeTarget),
		regions: make(map[Region]*fakeTarget),
		root:    &fakeTarget{},
	}
	for i := 0; i < slideCount; i++ {
		s.slides[i] = &fakeTarget{}
	}
	for _, id := range []Region{
		RegionStatusBanner, RegionHours, RegionWeekGrid, RegionPreviewList,
		RegionClock, RegionDate, RegionOfflineBanner, RegionToast,
	} {
		s.regions[id] = &fakeTarget{}
	}
	return s
}

func (s *fakeSurface) SlideTarget(index int) RenderTarget {
	target, ok := s.slides[index]
	if !ok {
		return nil
	}
	return target
}

func (s *fakeSurface) Region(id Region) RenderTarget {
	target, ok := s.regions[id]
	if !ok {
		return nil
	}
	return target
}

func (s *fakeSurface) Root() RenderTarget { return s.root }

func (s *fakeSurface) SetCountdown(seconds int) { s.countdowns = append(s.countdowns, seconds) }

func (s *fakeSurface) SetFullscreen(on bool) { s.fullscreen = on }

func (s *fakeSurface) ShowDiagnostics(text string, visible bool) {
	s.diagText = text
	s.diagShown = visible
}

func (s *fakeSurface) Size() (int, int) { return 80, 24 }
