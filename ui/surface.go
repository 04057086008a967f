// Package ui renders the kiosk on a terminal via tview. It implements the
// engine's Surface contract: slide pages, the header chrome (status banner,
// clock, date), the rotation countdown, and the overlay layers for the
// offline banner, error toasts, diagnostics and the reload curtain.
package ui

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"kioskd/kiosk"
)

var (
	uiBorderColor = tcell.ColorGray
	uiTitleColor  = tcell.ColorTeal
)

// regionBySlide maps each slide to the content region shown on its page. The
// NOW slide has no body region of its own; its status banner lives in the
// header and stays visible on every slide.
var regionBySlide = map[kiosk.SlideName]kiosk.Region{
	kiosk.SlideToday:    kiosk.RegionHours,
	kiosk.SlideWeek:     kiosk.RegionWeekGrid,
	kiosk.SlideServices: kiosk.RegionPreviewList,
}

// Display is the tview-backed render surface. All mutation goes through the
// draw scheduler, so engine calls never block on the terminal and never race
// the draw loop.
type Display struct {
	app    *tview.Application
	sched  *drawScheduler
	logger *log.Logger

	layers     *tview.Pages
	slidePages *tview.Pages
	frame      *tview.Flex
	header     *tview.Flex
	footer     *tview.TextView

	padTop    *tview.Box
	padLeft   *tview.Box
	padRight  *tview.Box
	padBottom *tview.Box
	outerCol  *tview.Flex
	innerRow  *tview.Flex

	slides     []*target
	slideNames []kiosk.SlideName
	regions    map[kiosk.Region]*target
	root       *rootTarget
	diagView   *tview.TextView

	mu         sync.Mutex
	keyHandler func(kiosk.KeyEvent)
	frameObs   func()
	cols       int
	rows       int

	ready chan struct{}
	once  sync.Once
}

// NewDisplay builds the full render tree for the given slide sequence.
// targetFPS caps the draw rate; the engine's governor measures the real rate
// downstream of it.
func NewDisplay(slideNames []string, targetFPS int, logger *log.Logger) *Display {
	if logger == nil {
		logger = log.Default()
	}
	app := tview.NewApplication()
	d := &Display{
		app:     app,
		logger:  logger,
		regions: make(map[kiosk.Region]*target),
		ready:   make(chan struct{}),
	}
	d.sched = newDrawScheduler(app, targetFPS, 100*time.Millisecond, nil)

	statusBanner := newRegionView("")
	clockView := newRegionView("")
	clockView.SetTextAlign(tview.AlignRight)
	dateView := newRegionView("")
	dateView.SetTextAlign(tview.AlignRight)
	d.header = tview.NewFlex().
		AddItem(statusBanner, 0, 2, false).
		AddItem(dateView, 0, 1, false).
		AddItem(clockView, 12, 0, false)

	d.slidePages = tview.NewPages()
	for i, name := range slideNames {
		slideName := kiosk.SlideName(name)
		d.slideNames = append(d.slideNames, slideName)
		body := newBoxedTextView(string(slideName))
		page := tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(body, 0, 1, false)
		if regionID, ok := regionBySlide[slideName]; ok {
			regionView := newRegionView("")
			page.AddItem(regionView, 0, 2, false)
			d.regions[regionID] = d.newTarget(string(regionID), regionView, nil)
		}
		pageName := slidePageName(i)
		d.slidePages.AddPage(pageName, page, true, i == 0)
		d.slides = append(d.slides, d.newTarget(pageName, body, d.slideShower(pageName)))
	}

	d.footer = tview.NewTextView().SetDynamicColors(true)
	d.frame = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.header, 3, 0, false).
		AddItem(d.slidePages, 0, 1, true).
		AddItem(d.footer, 1, 0, false)

	d.padTop = tview.NewBox()
	d.padLeft = tview.NewBox()
	d.padRight = tview.NewBox()
	d.padBottom = tview.NewBox()
	d.innerRow = tview.NewFlex().
		AddItem(d.padLeft, 0, 0, false).
		AddItem(d.frame, 0, 1, true).
		AddItem(d.padRight, 0, 0, false)
	d.outerCol = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.padTop, 0, 0, false).
		AddItem(d.innerRow, 0, 1, true).
		AddItem(d.padBottom, 0, 0, false)

	d.regions[kiosk.RegionStatusBanner] = d.newTarget(string(kiosk.RegionStatusBanner), statusBanner, nil)
	d.regions[kiosk.RegionClock] = d.newTarget(string(kiosk.RegionClock), clockView, nil)
	d.regions[kiosk.RegionDate] = d.newTarget(string(kiosk.RegionDate), dateView, nil)

	d.layers = tview.NewPages()
	d.layers.AddPage("main", d.outerCol, true, true)

	offline := newBoxedTextView("Network")
	offline.SetTextAlign(tview.AlignCenter)
	d.layers.AddPage("offline", topBanner(offline), true, false)
	d.regions[kiosk.RegionOfflineBanner] = d.newTarget(string(kiosk.RegionOfflineBanner), offline, d.layerShower("offline"))

	toast := newBoxedTextView("Notice")
	toast.SetTextAlign(tview.AlignCenter)
	d.layers.AddPage("toast", bottomBanner(toast), true, false)
	d.regions[kiosk.RegionToast] = d.newTarget(string(kiosk.RegionToast), toast, d.layerShower("toast"))

	d.diagView = newBoxedTextView("Diagnostics")
	d.layers.AddPage("diagnostics", centered(d.diagView, 70, 10), true, false)

	d.layers.AddPage("curtain", tview.NewBox().SetBackgroundColor(tcell.ColorBlack), true, false)

	d.root = &rootTarget{d: d}

	app.SetInputCapture(d.captureKey)
	app.SetAfterDrawFunc(func(screen tcell.Screen) {
		cols, rows := screen.Size()
		d.mu.Lock()
		d.cols, d.rows = cols, rows
		obs := d.frameObs
		d.mu.Unlock()
		if obs != nil {
			obs()
		}
		d.once.Do(func() { close(d.ready) })
	})
	app.SetRoot(d.layers, true)
	return d
}

// Run starts the draw scheduler and blocks on the terminal event loop.
func (d *Display) Run() error {
	d.sched.Start()
	return d.app.Run()
}

// WaitReady blocks until the first frame has been drawn.
func (d *Display) WaitReady() {
	if d == nil {
		return
	}
	<-d.ready
}

// Stop drains pending draws and tears the terminal down.
func (d *Display) Stop() {
	if d == nil {
		return
	}
	d.sched.Stop()
	d.app.Stop()
}

// SetKeyHandler installs the engine's key sink. Swapped on every engine
// rebuild, hence the lock.
func (d *Display) SetKeyHandler(fn func(kiosk.KeyEvent)) {
	d.mu.Lock()
	d.keyHandler = fn
	d.mu.Unlock()
}

// SetFrameObserver installs the per-frame callback feeding the governor.
func (d *Display) SetFrameObserver(fn func()) {
	d.mu.Lock()
	d.frameObs = fn
	d.mu.Unlock()
}

// captureKey forwards every recognized key to the engine and consumes it, so
// no default widget behavior ever fires on an unattended display. Ctrl+C
// stays local: it stops the terminal loop and lets the supervisor exit.
func (d *Display) captureKey(event *tcell.EventKey) *tcell.EventKey {
	if event != nil && event.Key() == tcell.KeyCtrlC {
		d.app.Stop()
		return nil
	}
	ev, ok := translateKey(event)
	if !ok {
		return event
	}
	d.mu.Lock()
	handler := d.keyHandler
	d.mu.Unlock()
	if handler != nil {
		handler(ev)
	}
	return nil
}

// SlideTarget implements kiosk.Surface.
func (d *Display) SlideTarget(index int) kiosk.RenderTarget {
	if index < 0 || index >= len(d.slides) {
		return nil
	}
	return d.slides[index]
}

// Region implements kiosk.Surface.
func (d *Display) Region(id kiosk.Region) kiosk.RenderTarget {
	t, ok := d.regions[id]
	if !ok {
		return nil
	}
	return t
}

// Root implements kiosk.Surface.
func (d *Display) Root() kiosk.RenderTarget { return d.root }

// SetCountdown implements kiosk.Surface.
func (d *Display) SetCountdown(seconds int) {
	d.sched.Schedule("countdown", func() {
		d.footer.SetText(fmt.Sprintf("next view in %ds", seconds))
	})
}

// SetFullscreen hides or restores the header and footer chrome so the slide
// body gets the whole screen.
func (d *Display) SetFullscreen(on bool) {
	d.sched.Schedule("chrome", func() {
		if on {
			d.frame.ResizeItem(d.header, 0, 0)
			d.frame.ResizeItem(d.footer, 0, 0)
			return
		}
		d.frame.ResizeItem(d.header, 3, 0)
		d.frame.ResizeItem(d.footer, 1, 0)
	})
}

// ShowDiagnostics implements kiosk.Surface.
func (d *Display) ShowDiagnostics(text string, visible bool) {
	d.sched.Schedule("diagnostics", func() {
		if visible {
			d.diagView.SetText(text)
			d.layers.ShowPage("diagnostics")
			d.layers.SendToFront("diagnostics")
			return
		}
		d.layers.HidePage("diagnostics")
	})
}

// Size implements kiosk.Surface. Zero until the first frame.
func (d *Display) Size() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cols, d.rows
}

func (d *Display) slideShower(pageName string) func(bool) {
	return func(visible bool) {
		// Deactivation is implicit: switching to the next page hides this one.
		if visible {
			d.slidePages.SwitchToPage(pageName)
		}
	}
}

func (d *Display) layerShower(layer string) func(bool) {
	return func(visible bool) {
		if visible {
			d.layers.ShowPage(layer)
			d.layers.SendToFront(layer)
			return
		}
		d.layers.HidePage(layer)
	}
}

func slidePageName(index int) string {
	return fmt.Sprintf("slide-%d", index)
}

// target binds one TextView to the engine's RenderTarget contract. Content
// arrives as portal HTML and is flattened to terminal text; a cross-fade is
// rendered as a dim frame followed by the bright one.
type target struct {
	d    *Display
	id   string
	tv   *tview.TextView
	show func(visible bool)

	mu     sync.Mutex
	text   string
	hidden bool
}

func (d *Display) newTarget(id string, tv *tview.TextView, show func(bool)) *target {
	return &target{d: d, id: id, tv: tv, show: show}
}

func (t *target) SetContent(markup string, crossFade bool) {
	text := flattenMarkup(markup)
	t.mu.Lock()
	t.text = text
	hidden := t.hidden
	t.mu.Unlock()
	if hidden {
		return
	}
	if !crossFade {
		t.d.sched.Schedule(t.id, func() { t.tv.SetText(text) })
		return
	}
	t.d.sched.ScheduleSteps(t.id,
		func() { t.tv.SetText("[::d]" + text + "[::-]") },
		func() { t.tv.SetText(text) },
	)
}

func (t *target) SetVisible(visible bool) {
	t.mu.Lock()
	t.hidden = !visible
	text := t.text
	t.mu.Unlock()
	if t.show != nil {
		t.d.sched.Schedule(t.id+"/visible", func() { t.show(visible) })
		return
	}
	// Plain regions have no layer of their own; hiding blanks the view.
	t.d.sched.Schedule(t.id, func() {
		if visible {
			t.tv.SetText(text)
			return
		}
		t.tv.SetText("")
	})
}

// ApplyTransform is meaningful only for the rotating container; per-region
// transforms are not supported on a cell grid.
func (t *target) ApplyTransform(dxPx, dyPx int) {}

// rootTarget is the rotating container handle: burn-in offsets move the whole
// frame by a cell, and the reload transition drops the curtain over it.
type rootTarget struct {
	d *Display
}

func (r *rootTarget) SetContent(markup string, crossFade bool) {}

func (r *rootTarget) SetVisible(visible bool) {
	r.d.sched.Schedule("curtain", func() {
		if visible {
			r.d.layers.HidePage("curtain")
			return
		}
		r.d.layers.ShowPage("curtain")
		r.d.layers.SendToFront("curtain")
	})
}

// ApplyTransform quantizes the pixel offset onto the cell grid: any nonzero
// component pads the frame by one cell on the matching side. Padding-based,
// so layout inside the frame and key handling are untouched.
func (r *rootTarget) ApplyTransform(dxPx, dyPx int) {
	left, right := padSplit(dxPx)
	top, bottom := padSplit(dyPx)
	r.d.sched.Schedule("burnin", func() {
		r.d.innerRow.ResizeItem(r.d.padLeft, left, 0)
		r.d.innerRow.ResizeItem(r.d.padRight, right, 0)
		r.d.outerCol.ResizeItem(r.d.padTop, top, 0)
		r.d.outerCol.ResizeItem(r.d.padBottom, bottom, 0)
	})
}

// padSplit maps a signed pixel offset to (leading, trailing) cell padding.
func padSplit(px int) (int, int) {
	switch {
	case px > 0:
		return 1, 0
	case px < 0:
		return 0, 1
	default:
		return 0, 0
	}
}

func newRegionView(title string) *tview.TextView {
	tv := tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	if title != "" {
		tv.SetTitle(title)
	}
	return tv
}

func newBoxedTextView(title string) *tview.TextView {
	tv := tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	tv.SetBorder(true)
	if title != "" {
		tv.SetTitle(" " + title + " ").SetTitleAlign(tview.AlignLeft)
	}
	tv.SetBorderColor(uiBorderColor)
	tv.SetTitleColor(uiTitleColor)
	return tv
}

// topBanner pins a primitive to the top edge as an overlay strip. The nil
// flex items leave the layer below visible.
func topBanner(p tview.Primitive) tview.Primitive {
	return tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(p, 3, 0, false).
		AddItem(nil, 0, 1, false)
}

// bottomBanner pins a primitive to the bottom edge.
func bottomBanner(p tview.Primitive) tview.Primitive {
	return tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(p, 3, 0, false)
}

// centered floats a primitive in the middle of the screen.
func centered(p tview.Primitive, width, height int) tview.Primitive {
	row := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(p, width, 0, false).
		AddItem(nil, 0, 1, false)
	return tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(row, height, 0, false).
		AddItem(nil, 0, 1, false)
}
