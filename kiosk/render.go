// Package kiosk implements the display rotation and resilience engine for
// unattended waiting-room monitors: slide rotation, wall clock, background
// content refresh, performance governing, connectivity monitoring, burn-in
// prevention and the operator command surface. The render surface is
// abstracted so the engine runs and tests without a real display.
package kiosk

// Region identifies one render region on the surface. Region ids double as
// the element ids the refresher extracts from the portal response.
type Region string

const (
	RegionStatusBanner Region = "status-banner"
	RegionHours        Region = "opening-hours"
	RegionWeekGrid     Region = "week-grid"
	RegionPreviewList  Region = "preview-list"
	RegionClock        Region = "clock"
	RegionDate         Region = "date"

	// Engine-owned regions, never touched by the refresher.
	RegionOfflineBanner Region = "offline-banner"
	RegionToast         Region = "toast"
)

// refreshAllowList is the fixed set of regions the resilience refresher may
// replace. Anything else on the page is left alone.
var refreshAllowList = []Region{
	RegionStatusBanner,
	RegionHours,
	RegionWeekGrid,
	RegionPreviewList,
	RegionClock,
	RegionDate,
}

// RefreshAllowList returns a copy of the refresher's region allow list.
func RefreshAllowList() []Region {
	out := make([]Region, len(refreshAllowList))
	copy(out, refreshAllowList)
	return out
}

// RenderTarget is the capability handed to engine components for one region
// of the surface. Transforms are visual-only; they never affect layout or
// hit-testing.
type RenderTarget interface {
	SetContent(markup string, crossFade bool)
	SetVisible(visible bool)
	ApplyTransform(dxPx, dyPx int)
}

// Surface aggregates the render tree the engine draws into. Implementations
// must tolerate calls before the display is ready and must never block.
type Surface interface {
	// SlideTarget returns the render target for slide index, or nil when
	// the surface has no such slide (logged and skipped by the scheduler).
	SlideTarget(index int) RenderTarget
	// Region returns the target for a named region, or nil.
	Region(id Region) RenderTarget
	// Root returns the rotating container, used for burn-in offsets and the
	// reload transition.
	Root() RenderTarget
	SetCountdown(seconds int)
	SetFullscreen(on bool)
	ShowDiagnostics(text string, visible bool)
	Size() (cols, rows int)
}

// SlideName is one of the closed set of rotating views.
type SlideName string

const (
	SlideNow      SlideName = "NOW"
	SlideToday    SlideName = "TODAY"
	SlideWeek     SlideName = "WEEK"
	SlideServices SlideName = "SERVICES"
)

// Slide is one fixed entry in the rotation. The set is built once at startup
// and never changes at runtime; the active index is the only mutable cursor.
type Slide struct {
	Index int
	Name  SlideName
	// Init runs on every activation of the slide and must be idempotent.
	Init func()
}

// SlidesFromNames builds the slide sequence from configured names.
func SlidesFromNames(names []string) []Slide {
	slides := make([]Slide, 0, len(names))
	for i, name := range names {
		slides = append(slides, Slide{Index: i, Name: SlideName(name)})
	}
	return slides
}
