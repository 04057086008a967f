// Program kioskd drives an unattended waiting-room display: it renders the
// facility portal's kiosk view on a terminal, rotates through the configured
// slides, refreshes content in the background and self-heals via full engine
// reloads when a component escalates.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"kioskd/cache"
	"kioskd/config"
	"kioskd/fetch"
	"kioskd/kiosk"
	"kioskd/store"
	"kioskd/ui"
)

// Version will be set at build time
var Version = "dev"

const (
	defaultConfigPath = "data/config.yaml"
	envConfigPath     = "KIOSKD_CONFIG"

	// reloadFloor bounds how often the supervisor rebuilds the engine, so a
	// component stuck requesting reloads cannot put the display into a
	// rebuild storm.
	reloadFloor = 30 * time.Second

	errorLogCapacity = 50
)

// Purpose: Report whether stdout is a TTY for display gating.
// Key aspects: Uses term.IsTerminal on stdout fd.
// Upstream: main startup.
// Downstream: term.IsTerminal.
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Purpose: Load configuration from env/default locations.
// Key aspects: Tries env override first, then the default path; a missing
// file falls back to built-in defaults so a fresh install still boots.
// Upstream: main startup.
// Downstream: config.Load and os.IsNotExist.
func loadKioskConfig() (*config.Config, string, error) {
	candidates := make([]string, 0, 2)
	if envPath := strings.TrimSpace(os.Getenv(envConfigPath)); envPath != "" {
		candidates = append(candidates, envPath)
	}
	candidates = append(candidates, defaultConfigPath)

	for _, path := range candidates {
		cfg, err := config.Load(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, path, err
		}
		return cfg, path, nil
	}
	return config.Default(), "defaults", nil
}

// Purpose: Build one engine parameter set from the effective configuration.
// Key aspects: Pure translation; the engine re-validates and re-defaults.
// Upstream: the supervisor loop, once per engine lifetime.
// Downstream: kiosk.New.
func engineOptions(cfg *config.Config, slides []kiosk.Slide, diagSink func(string)) kiosk.Options {
	return kiosk.Options{
		RotationInterval: time.Duration(cfg.Display.RotationIntervalMs) * time.Millisecond,
		Timezone:         cfg.Display.Timezone,

		RefreshPeriod: time.Duration(cfg.Refresh.PeriodMs) * time.Millisecond,
		PreloadLead:   time.Duration(cfg.Refresh.PreloadLeadMs) * time.Millisecond,
		MaxRetries:    cfg.Refresh.MaxRetries,

		BurnInPeriod:      time.Duration(cfg.BurnIn.PeriodMs) * time.Millisecond,
		BurnInIdleGate:    time.Duration(cfg.BurnIn.IdleGateMs) * time.Millisecond,
		BurnInRevert:      time.Duration(cfg.BurnIn.RevertMs) * time.Millisecond,
		BurnInAmplitudePx: cfg.BurnIn.AmplitudePx,

		PerfCheckPeriod: time.Duration(cfg.Performance.CheckPeriodMs) * time.Millisecond,
		Governor: kiosk.GovernorConfig{
			FPSFloor:             cfg.Performance.FPSFloor,
			WarningCeiling:       cfg.Performance.WarningCeiling,
			MemoryThresholdBytes: cfg.Performance.MemoryThresholdBytes,
			EscalationMultiplier: cfg.Performance.EscalationMultiplier,
		},

		NetPollPeriod: time.Duration(cfg.Network.PollPeriodMs) * time.Millisecond,
		BannerHide:    time.Duration(cfg.Network.BannerHideMs) * time.Millisecond,
		ReloadGrace:   time.Duration(cfg.Network.ReloadGraceMs) * time.Millisecond,
		ProbeURL:      cfg.Network.ProbeURL,

		DiagnosticsPeriod: time.Duration(cfg.Diagnostics.DumpIntervalMs) * time.Millisecond,
		DiagSink:          diagSink,

		Slides: slides,
	}
}

func userAgent() string {
	return fmt.Sprintf("kioskd/%s (%s; %s)", Version, runtime.GOOS, runtime.GOARCH)
}

// Purpose: Program entrypoint; wires configuration, storage, the display and
// the engine supervisor.
// Key aspects: The engine is rebuilt on every reload request; the display,
// store and cache live for the whole process.
// Upstream: OS process start.
// Downstream: Startup helpers, the display goroutine and the supervisor loop.
func main() {
	cfg, configSource, err := loadKioskConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	if !isStdoutTTY() {
		fmt.Fprintln(os.Stderr, "kioskd requires an interactive terminal")
		os.Exit(1)
	}

	fanout, logErr := setupLogging(cfg.Logging, os.Stdout)
	log.SetFlags(0)
	log.SetOutput(fanout)
	if logErr != nil {
		log.Printf("Warning: file logging unavailable: %v", logErr)
	}
	defer fanout.Close()

	log.Printf("kioskd v%s starting (config: %s)...", Version, configSource)
	cfg.Print()

	// Local state store. A broken store degrades to in-memory operation
	// rather than keeping the display dark.
	st, err := store.Open(cfg.Store.Dir)
	if err != nil {
		log.Printf("Warning: store unavailable at %s, running in-memory: %v", cfg.Store.Dir, err)
		st = nil
	} else {
		defer st.Close()
	}
	errlog := store.NewErrorLog(st, errorLogCapacity, userAgent())

	var persist cache.Persister
	if st != nil {
		persist = st
	}
	contentCache := cache.New(time.Duration(cfg.Refresh.CacheDurationMs)*time.Millisecond, persist, time.Now)

	fetcher, err := fetch.NewClient(cfg.Portal.BaseURL, cfg.Portal.PagePath, userAgent(),
		time.Duration(cfg.Portal.RequestTimeoutMs)*time.Millisecond)
	if err != nil {
		log.Fatalf("Error building portal client: %v", err)
	}

	display := ui.NewDisplay(cfg.Display.Slides, 0, log.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, shutting down...", sig)
		cancel()
	}()

	displayDone := make(chan error, 1)
	go func() {
		displayDone <- display.Run()
		cancel()
	}()
	display.WaitReady()

	// The display owns the terminal from here on; console logging would
	// corrupt the screen. The daily file sink keeps everything.
	fanout.SetConsoleSink(nil, false)

	diagSink := func(line string) { fanout.WriteFileOnlyLine(line, time.Now()) }
	slides := kiosk.SlidesFromNames(cfg.Display.Slides)

	supervise(ctx, cfg, display, fetcher, contentCache, errlog, slides, diagSink)

	display.Stop()
	if err := <-displayDone; err != nil {
		log.Printf("Display error: %v", err)
	}
	log.Printf("kioskd stopped")
}

// Purpose: Run engines back to back until shutdown.
// Key aspects: A non-empty reload reason rebuilds the engine; rebuilds are
// rate-limited to one per reloadFloor.
// Upstream: main.
// Downstream: kiosk.New and Engine.Run.
func supervise(ctx context.Context, cfg *config.Config, display *ui.Display, fetcher *fetch.Client,
	contentCache *cache.ContentCache, errlog *store.ErrorLog, slides []kiosk.Slide, diagSink func(string)) {

	var lastStart time.Time
	for {
		if wait := reloadFloor - time.Since(lastStart); !lastStart.IsZero() && wait > 0 {
			log.Printf("Supervisor: holding reload for %s", wait.Round(time.Second))
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
		lastStart = time.Now()

		engine, err := kiosk.New(engineOptions(cfg, slides, diagSink), display, fetcher, contentCache, errlog, log.Default())
		if err != nil {
			log.Printf("Supervisor: engine construction failed: %v", err)
			return
		}
		display.SetKeyHandler(engine.HandleKey)
		display.SetFrameObserver(engine.ObserveFrame)

		reason := engine.Run(ctx)
		if reason == "" {
			return
		}
		log.Printf("Supervisor: engine reload: %s", reason)
	}
}
