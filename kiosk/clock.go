package kiosk

import (
	"fmt"
	"time"
)

const (
	clockSepBright = ":"
	clockSepDim    = "·"

	dateLayout = "Monday, 2 January 2006"
)

// Clock renders the wall clock converted to one fixed configured timezone,
// never the host zone. The separator alternates between a colon and a middle
// dot with second parity; that is purely cosmetic and nothing else depends
// on it.
type Clock struct {
	loc        *time.Location
	clock      RenderTarget
	date       RenderTarget
	lastSecond int64
	lastDay    int
}

// NewClock resolves the timezone and binds the clock and date targets.
func NewClock(timezone string, clock, date RenderTarget) (*Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("clock: load timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc, clock: clock, date: date, lastSecond: -1, lastDay: -1}, nil
}

// Location returns the configured timezone.
func (c *Clock) Location() *time.Location {
	if c == nil {
		return time.UTC
	}
	return c.loc
}

// Tick renders the current second. Repeated calls within the same wall-clock
// second are no-ops, so double ticks cannot corrupt the display.
func (c *Clock) Tick(now time.Time) {
	if c == nil {
		return
	}
	local := now.In(c.loc)
	sec := local.Unix()
	if sec == c.lastSecond {
		return
	}
	c.lastSecond = sec

	if c.clock != nil {
		sep := clockSepBright
		if local.Second()%2 == 1 {
			sep = clockSepDim
		}
		c.clock.SetContent(fmt.Sprintf("%02d%s%02d", local.Hour(), sep, local.Minute()), false)
	}
	if c.date != nil && local.YearDay() != c.lastDay {
		c.lastDay = local.YearDay()
		c.date.SetContent(local.Format(dateLayout), false)
	}
}
