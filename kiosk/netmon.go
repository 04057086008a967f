package kiosk

import (
	"fmt"
	"log"
	"time"
)

// ConnectivityState is the network monitor's two-state model.
type ConnectivityState uint8

const (
	StateOnline ConnectivityState = iota
	StateOffline
)

func (s ConnectivityState) String() string {
	if s == StateOffline {
		return "OFFLINE"
	}
	return "ONLINE"
}

// NetMonitor tracks connectivity transitions from probe observations and
// drives the offline banner. Going offline shows a banner with a frozen
// last-updated stamp that auto-hides after a bounded window so it never
// permanently obscures content; coming back online hides it immediately and
// schedules exactly one reload after a short grace delay, however often the
// link flickers in between.
type NetMonitor struct {
	banner     RenderTarget
	loc        *time.Location
	bannerHide time.Duration
	grace      time.Duration
	reload     func(reason string)
	logger     *log.Logger

	state            ConnectivityState
	lastTransitionAt time.Time
	lastGoodAt       time.Time
	initialized      bool

	bannerVisible bool
	bannerShownAt time.Time

	reloadPending bool
	reloadAt      time.Time
}

// NewNetMonitor builds the monitor. loc formats the frozen banner timestamp.
func NewNetMonitor(banner RenderTarget, loc *time.Location, bannerHide, grace time.Duration, reload func(string), logger *log.Logger) *NetMonitor {
	if loc == nil {
		loc = time.UTC
	}
	if bannerHide <= 0 {
		bannerHide = 10 * time.Second
	}
	if grace <= 0 {
		grace = 2 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &NetMonitor{
		banner:     banner,
		loc:        loc,
		bannerHide: bannerHide,
		grace:      grace,
		reload:     reload,
		logger:     logger,
	}
}

// Observe consumes one probe result.
func (m *NetMonitor) Observe(now time.Time, online bool) {
	if m == nil {
		return
	}
	if !m.initialized {
		m.initialized = true
		m.lastTransitionAt = now
		if online {
			m.state = StateOnline
			m.lastGoodAt = now
			return
		}
		// Booting offline still deserves the banner; a warm-started cache
		// renders behind it.
		m.state = StateOffline
		m.showBanner(now)
		return
	}

	if online {
		m.lastGoodAt = now
		if m.state == StateOffline {
			m.state = StateOnline
			m.lastTransitionAt = now
			m.hideBanner()
			m.logger.Printf("network: back online, reload in %s", m.grace)
			if !m.reloadPending {
				m.reloadPending = true
				m.reloadAt = now.Add(m.grace)
			}
		}
		return
	}

	if m.state == StateOnline {
		m.state = StateOffline
		m.lastTransitionAt = now
		m.logger.Printf("network: offline (last good %s)", m.lastGoodAt.In(m.loc).Format("15:04:05"))
		m.showBanner(now)
	}
}

// Tick runs the 1 Hz housekeeping: banner auto-hide and the grace-delayed
// reload.
func (m *NetMonitor) Tick(now time.Time) {
	if m == nil {
		return
	}
	if m.bannerVisible && now.Sub(m.bannerShownAt) >= m.bannerHide {
		m.hideBanner()
	}
	if m.reloadPending && !now.Before(m.reloadAt) {
		m.reloadPending = false
		if m.reload != nil {
			m.reload("connectivity restored")
		}
	}
}

func (m *NetMonitor) showBanner(now time.Time) {
	m.bannerVisible = true
	m.bannerShownAt = now
	if m.banner == nil {
		return
	}
	text := "Offline"
	if !m.lastGoodAt.IsZero() {
		text = fmt.Sprintf("Offline - last updated %s", m.lastGoodAt.In(m.loc).Format("15:04"))
	}
	m.banner.SetContent(text, false)
	m.banner.SetVisible(true)
}

func (m *NetMonitor) hideBanner() {
	if !m.bannerVisible {
		return
	}
	m.bannerVisible = false
	if m.banner != nil {
		m.banner.SetVisible(false)
	}
}

// State returns the current connectivity state.
func (m *NetMonitor) State() ConnectivityState {
	if m == nil {
		return StateOnline
	}
	return m.state
}

// LastTransition returns the time of the latest state change.
func (m *NetMonitor) LastTransition() time.Time {
	if m == nil {
		return time.Time{}
	}
	return m.lastTransitionAt
}

// BannerVisible reports whether the offline banner is currently shown.
func (m *NetMonitor) BannerVisible() bool {
	return m != nil && m.bannerVisible
}
