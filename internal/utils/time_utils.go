package utils

import (
	"time"
)

// DayLayout is the calendar day format used for per-day records
const DayLayout = "2006-01-02"

// DayClock buckets instants into calendar days of one timezone
type DayClock struct {
	loc *time.Location
	now func() time.Time
}

// NewDayClock creates a clock for the named timezone. It falls back to UTC
// when the zone data is missing.
func NewDayClock(tz string) *DayClock {
	loc, err := time.LoadLocation(tz)
	if err != nil || tz == "" {
		loc = time.UTC
	}
	return &DayClock{loc: loc, now: time.Now}
}

// Now returns the current time in the clock's timezone
func (c *DayClock) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns today's day key
func (c *DayClock) Today() string {
	return c.Now().Format(DayLayout)
}

// StartOfDay returns 00:00:00 of today
func (c *DayClock) StartOfDay() time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
}

// Location returns the clock's *time.Location
func (c *DayClock) Location() *time.Location {
	return c.loc
}

// ResolveDay maps the "today" alias and empty input to the start of today
// and parses anything else as a calendar day
func (c *DayClock) ResolveDay(day string) (time.Time, error) {
	if day == "" || day == "today" {
		return c.StartOfDay(), nil
	}
	return time.ParseInLocation(DayLayout, day, c.loc)
}
