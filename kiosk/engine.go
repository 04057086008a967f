package kiosk

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"time"

	"kioskd/cache"
	"kioskd/fetch"
	"kioskd/store"
)

const toastHideAfter = 5 * time.Second

// Options are the engine's constructor parameters. The caller resolves them
// from configuration; the engine never reads files.
type Options struct {
	RotationInterval time.Duration
	Timezone         string

	RefreshPeriod time.Duration
	PreloadLead   time.Duration
	MaxRetries    int

	BurnInPeriod      time.Duration
	BurnInIdleGate    time.Duration
	BurnInRevert      time.Duration
	BurnInAmplitudePx int

	PerfCheckPeriod time.Duration
	Governor        GovernorConfig

	NetPollPeriod time.Duration
	BannerHide    time.Duration
	ReloadGrace   time.Duration
	ProbeURL      string
	ProbeTimeout  time.Duration

	DiagnosticsPeriod time.Duration
	// DiagSink receives the periodic diagnostics dump (file-only log line).
	// The on-demand admin dump goes to the surface overlay instead.
	DiagSink func(line string)

	Slides []Slide
}

func (o *Options) normalize() {
	if o.RotationInterval <= 0 {
		o.RotationInterval = 8 * time.Second
	}
	if o.RefreshPeriod <= 0 {
		o.RefreshPeriod = 5 * time.Minute
	}
	if o.PreloadLead <= 0 || o.PreloadLead >= o.RefreshPeriod {
		o.PreloadLead = 15 * time.Second
	}
	if o.BurnInPeriod <= 0 {
		o.BurnInPeriod = 5 * time.Minute
	}
	if o.PerfCheckPeriod <= 0 {
		o.PerfCheckPeriod = 30 * time.Second
	}
	if o.NetPollPeriod <= 0 {
		o.NetPollPeriod = 5 * time.Second
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = 3 * time.Second
	}
	if o.DiagnosticsPeriod <= 0 {
		o.DiagnosticsPeriod = 10 * time.Minute
	}
	if len(o.Slides) == 0 {
		o.Slides = SlidesFromNames([]string{"NOW", "TODAY", "WEEK", "SERVICES"})
	}
}

type fetchOutcome struct {
	body        []byte
	notModified bool
	err         error
	preload     bool
}

// Engine is the single owning object constructed once per display lifetime.
// All component state is mutated only from the Run loop, which is the
// engine's one execution context; the surface draw path and in-flight
// fetches communicate with it exclusively through channels and atomics.
type Engine struct {
	opts    Options
	surface Surface
	logger  *log.Logger

	sched     *Scheduler
	clock     *Clock
	governor  *Governor
	netmon    *NetMonitor
	burnin    *BurnIn
	refresher *Refresher
	cache     *cache.ContentCache
	errlog    *store.ErrorLog

	keys         chan KeyEvent
	fetchResults chan fetchOutcome
	probeResults chan bool
	reloadReason chan string

	fetchBusy   bool
	toastHideAt time.Time
	fullscreen  bool
	diagShown   bool
	startedAt   time.Time
}

// New wires the engine components. The fetcher, cache and error log may be
// nil for reduced operation (tests, offline tooling); the surface must not.
func New(opts Options, surface Surface, fetcher Fetcher, contentCache *cache.ContentCache, errorLog *store.ErrorLog, logger *log.Logger) (*Engine, error) {
	opts.normalize()
	if surface == nil {
		return nil, fmt.Errorf("kiosk: surface is required")
	}
	if logger == nil {
		logger = log.Default()
	}

	e := &Engine{
		opts:         opts,
		surface:      surface,
		logger:       logger,
		cache:        contentCache,
		errlog:       errorLog,
		keys:         make(chan KeyEvent, 16),
		fetchResults: make(chan fetchOutcome, 2),
		probeResults: make(chan bool, 2),
		reloadReason: make(chan string, 1),
	}

	clock, err := NewClock(opts.Timezone, surface.Region(RegionClock), surface.Region(RegionDate))
	if err != nil {
		return nil, err
	}
	e.clock = clock

	e.sched = NewScheduler(opts.Slides, opts.RotationInterval, surface, logger)
	e.governor = NewGovernor(opts.Governor, e.cleanup, e.requestReload, logger)
	e.netmon = NewNetMonitor(surface.Region(RegionOfflineBanner), clock.Location(),
		opts.BannerHide, opts.ReloadGrace, e.requestReload, logger)
	e.burnin = NewBurnIn(surface.Root(), opts.BurnInAmplitudePx, opts.BurnInIdleGate, opts.BurnInRevert)
	e.refresher = NewRefresher(fetcher, contentCache, surface, opts.MaxRetries, e.requestReload, logger)
	return e, nil
}

// HandleKey feeds one keyboard event into the engine loop. Safe to call from
// the display's input goroutine; events are dropped rather than blocking a
// stalled loop.
func (e *Engine) HandleKey(ev KeyEvent) {
	if e == nil {
		return
	}
	select {
	case e.keys <- ev:
	default:
	}
}

// ObserveFrame forwards one drawn frame to the governor. Wired into the
// surface's draw callback.
func (e *Engine) ObserveFrame() {
	if e == nil {
		return
	}
	e.governor.ObserveFrame()
}

// Run drives the engine until the context ends or a component requests a
// full reload. It returns the reload reason, or "" on context cancellation.
// The caller (supervisor) rebuilds and reruns on a non-empty reason; reload
// is the terminal recovery strategy and always safe.
func (e *Engine) Run(ctx context.Context) string {
	e.startedAt = time.Now()

	rotation := time.NewTicker(e.opts.RotationInterval)
	defer rotation.Stop()
	e.sched.SetRearm(func() { rotation.Reset(e.opts.RotationInterval) })

	second := time.NewTicker(time.Second)
	defer second.Stop()
	refresh := time.NewTicker(e.opts.RefreshPeriod)
	defer refresh.Stop()
	preload := time.NewTimer(e.opts.RefreshPeriod - e.opts.PreloadLead)
	defer preload.Stop()
	burnin := time.NewTicker(e.opts.BurnInPeriod)
	defer burnin.Stop()
	perf := time.NewTicker(e.opts.PerfCheckPeriod)
	defer perf.Stop()
	netpoll := time.NewTicker(e.opts.NetPollPeriod)
	defer netpoll.Stop()
	diag := time.NewTicker(e.opts.DiagnosticsPeriod)
	defer diag.Stop()

	e.safely("startup", func() {
		if root := e.surface.Root(); root != nil {
			root.SetVisible(true)
		}
		e.refresher.WarmStart(time.Now())
		e.sched.Start()
		e.clock.Tick(time.Now())
	})
	e.dispatchProbe(ctx)
	e.startRefresh(ctx, false)

	for {
		select {
		case <-ctx.Done():
			return ""
		case reason := <-e.reloadReason:
			e.beginReloadTransition()
			return reason
		case <-rotation.C:
			e.safely("rotation", e.sched.RotationTick)
		case now := <-second.C:
			e.safely("second", func() { e.onSecond(now) })
		case <-refresh.C:
			e.safely("refresh", func() { e.startRefresh(ctx, false) })
		case <-preload.C:
			e.safely("preload", func() { e.startPreload(ctx) })
			preload.Reset(e.opts.RefreshPeriod)
		case <-burnin.C:
			e.safely("burn-in", func() { e.burnin.Tick(time.Now()) })
		case <-perf.C:
			e.safely("performance", func() { e.governor.CheckThresholds(time.Now()) })
		case <-netpoll.C:
			e.dispatchProbe(ctx)
		case online := <-e.probeResults:
			e.safely("network", func() { e.netmon.Observe(time.Now(), online) })
		case out := <-e.fetchResults:
			e.fetchBusy = false
			e.safely("refresh result", func() {
				e.refresher.HandleResult(out.body, out.notModified, out.err, out.preload, time.Now())
			})
		case ev := <-e.keys:
			e.safely("keyboard", func() { e.handleKey(ctx, ev) })
		case <-diag.C:
			e.safely("diagnostics", func() { e.dumpDiagnostics() })
		}
	}
}

// onSecond runs the 1 Hz observers. Ordering within the tick is fixed:
// countdown before clock keeps the visible countdown and the wall clock from
// ever disagreeing on the same draw frame.
func (e *Engine) onSecond(now time.Time) {
	e.sched.CountdownTick()
	e.clock.Tick(now)
	e.netmon.Tick(now)
	e.burnin.Maintain(now)
	e.governor.Sample(now)
	if !e.toastHideAt.IsZero() && !now.Before(e.toastHideAt) {
		e.toastHideAt = time.Time{}
		if toast := e.surface.Region(RegionToast); toast != nil {
			toast.SetVisible(false)
		}
	}
}

// startRefresh serves the refresh from cache when possible, otherwise
// dispatches a background fetch. force bypasses the cache (admin command).
func (e *Engine) startRefresh(ctx context.Context, force bool) {
	if !force && e.refresher.ServeFromCache(time.Now()) {
		return
	}
	e.dispatchFetch(ctx, false)
}

// startPreload populates the cache ahead of the next refresh; skipped when
// the cache is already fresh or a fetch is in flight.
func (e *Engine) startPreload(ctx context.Context) {
	if e.cache != nil {
		if _, ok := e.cache.Get(e.refresher.CacheKey()); ok {
			return
		}
	}
	e.dispatchFetch(ctx, true)
}

// dispatchFetch launches the one background fetch. The guard keeps at most a
// single request outstanding, so stale responses never race a newer one.
func (e *Engine) dispatchFetch(ctx context.Context, preload bool) {
	if e.fetchBusy || e.refresher.fetcher == nil {
		return
	}
	e.fetchBusy = true
	fetcher := e.refresher.fetcher
	go func() {
		body, notModified, err := fetcher.Fetch(ctx)
		select {
		case e.fetchResults <- fetchOutcome{body: body, notModified: notModified, err: err, preload: preload}:
		case <-ctx.Done():
		}
	}()
}

func (e *Engine) dispatchProbe(ctx context.Context) {
	probeURL := e.opts.ProbeURL
	if probeURL == "" {
		return
	}
	timeout := e.opts.ProbeTimeout
	go func() {
		online := fetch.Probe(ctx, probeURL, timeout)
		select {
		case e.probeResults <- online:
		case <-ctx.Done():
		}
	}()
}

func (e *Engine) handleKey(ctx context.Context, ev KeyEvent) {
	now := time.Now()
	e.burnin.Interaction(now)

	decision := ParseKey(ev, len(e.opts.Slides))
	switch decision.Cmd {
	case CmdNext:
		e.sched.Next()
	case CmdPrev:
		e.sched.Prev()
	case CmdPauseResume:
		if e.sched.Running() {
			e.sched.Pause()
			e.logger.Printf("admin: rotation paused")
		} else {
			e.sched.Resume()
			e.logger.Printf("admin: rotation resumed")
		}
	case CmdRefresh:
		e.logger.Printf("admin: forced refresh")
		e.startRefresh(ctx, true)
	case CmdFullscreen:
		e.fullscreen = !e.fullscreen
		e.surface.SetFullscreen(e.fullscreen)
	case CmdDiagnostics:
		e.diagShown = !e.diagShown
		e.surface.ShowDiagnostics(e.diagnostics(now).String(), e.diagShown)
	case CmdJump:
		e.sched.GoTo(decision.JumpIndex)
	}
}

// cleanup is the governor's proactive memory action: drop stale cache
// entries and return freed heap to the runtime before escalating.
func (e *Engine) cleanup() {
	dropped := e.cache.Sweep()
	runtime.GC()
	e.logger.Printf("governor: cleanup dropped %d stale cache entries", dropped)
}

// requestReload records exactly one reload reason; later requests from other
// components are dropped because one reload resolves them all.
func (e *Engine) requestReload(reason string) {
	select {
	case e.reloadReason <- reason:
		e.logger.Printf("engine: reload requested: %s", reason)
	default:
	}
}

// beginReloadTransition masks the reload seam by blanking the rotating
// container; the rebuilt engine makes it visible again on startup.
func (e *Engine) beginReloadTransition() {
	if root := e.surface.Root(); root != nil {
		root.SetVisible(false)
	}
}

// safely contains component failures: a panicking callback is logged, written
// to the bounded error log and surfaced as an auto-dismissing toast. The
// rotation loop itself never stops on a component error.
func (e *Engine) safely(name string, fn func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		msg := fmt.Sprintf("%s: %v", name, r)
		e.logger.Printf("engine: recovered from %s", msg)
		e.errlog.Append("runtime", msg, time.Now())
		e.showToast("A display error occurred; recovering")
	}()
	fn()
}

func (e *Engine) showToast(text string) {
	defer func() { _ = recover() }()
	toast := e.surface.Region(RegionToast)
	if toast == nil {
		return
	}
	toast.SetContent(text, false)
	toast.SetVisible(true)
	e.toastHideAt = time.Now().Add(toastHideAfter)
}

func (e *Engine) diagnostics(now time.Time) Diagnostics {
	cols, rows := e.surface.Size()
	d := Diagnostics{
		Uptime:         now.Sub(e.startedAt),
		Cols:           cols,
		Rows:           rows,
		SlideIndex:     e.sched.Current(),
		SlideName:      e.sched.CurrentName(),
		Paused:         !e.sched.Running(),
		Remaining:      e.sched.Remaining(),
		Network:        e.netmon.State(),
		LastTransition: e.netmon.LastTransition(),
		WarningCount:   e.governor.WarningCount(),
		CacheEntries:   e.cache.Len(),
		ErrorCount:     e.errlog.Count(),
		RefreshRetries: e.refresher.Retries(),
		LastRefreshAt:  e.refresher.LastSuccess(),
	}
	if sample, ok := e.governor.Latest(); ok {
		d.FPS = sample.FPS
		d.MemoryBytes = sample.MemoryBytes
	}
	return d
}

// dumpDiagnostics writes the periodic dump to the configured sink, or the
// logger when none is set.
func (e *Engine) dumpDiagnostics() {
	line := e.diagnostics(time.Now()).String()
	if e.opts.DiagSink != nil {
		e.opts.DiagSink(line)
		return
	}
	e.logger.Printf("diagnostics: %s", line)
}
