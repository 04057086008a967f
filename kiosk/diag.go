package kiosk

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Diagnostics is the structured state dump written on admin command and on a
// long fixed interval.
type Diagnostics struct {
	Uptime         time.Duration
	Cols           int
	Rows           int
	SlideIndex     int
	SlideName      SlideName
	Paused         bool
	Remaining      int
	Network        ConnectivityState
	LastTransition time.Time
	FPS            float64
	WarningCount   int
	MemoryBytes    uint64
	CacheEntries   int
	ErrorCount     int
	RefreshRetries int
	LastRefreshAt  time.Time
}

// String renders the dump in a human-readable block form.
func (d Diagnostics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "uptime %s, display %dx%d\n", d.Uptime.Round(time.Second), d.Cols, d.Rows)
	state := "rotating"
	if d.Paused {
		state = "paused"
	}
	fmt.Fprintf(&b, "slide %d (%s), %s, %ds remaining\n", d.SlideIndex, d.SlideName, state, d.Remaining)
	fmt.Fprintf(&b, "network %s since %s\n", d.Network, d.LastTransition.Format("15:04:05"))
	fmt.Fprintf(&b, "fps %.1f (warnings %d), memory %s\n", d.FPS, d.WarningCount, humanize.IBytes(d.MemoryBytes))
	lastRefresh := "never"
	if !d.LastRefreshAt.IsZero() {
		lastRefresh = d.LastRefreshAt.Format("15:04:05")
	}
	fmt.Fprintf(&b, "cache entries %s, errors logged %s, refresh retries %d, last refresh %s",
		humanize.Comma(int64(d.CacheEntries)), humanize.Comma(int64(d.ErrorCount)), d.RefreshRetries, lastRefresh)
	return b.String()
}
