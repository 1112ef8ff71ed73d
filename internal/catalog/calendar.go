package catalog

import (
	"sort"
	"time"
)

// Day normalises a timestamp to its UTC trading date.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Calendar answers trading-day questions for the roll resolver.
//
// The session set is derived from data actually ingested (futures trade around
// 314 days a year, including many Sundays), never from an assumed Mon-Fri or
// exchange-holiday schedule.
type Calendar interface {
	// Contains reports whether d is a known trading day.
	Contains(d time.Time) bool
	// Prev returns the latest trading day strictly before d.
	Prev(d time.Time) (time.Time, bool)
	// DaysUntil counts trading days in (from, until], the window used by
	// calendar-pre-expiry rolls.
	DaysUntil(from, until time.Time) int
	// Between lists the trading days in [from, to] ascending.
	Between(from, to time.Time) []time.Time
}

// SessionCalendar is a Calendar backed by an explicit, sorted session list.
type SessionCalendar struct {
	days []time.Time
	set  map[time.Time]struct{}
}

// NewSessionCalendar builds a calendar from observed trading dates.
// The input need not be sorted or unique.
func NewSessionCalendar(days []time.Time) *SessionCalendar {
	set := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		set[Day(d)] = struct{}{}
	}
	sorted := make([]time.Time, 0, len(set))
	for d := range set {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return &SessionCalendar{days: sorted, set: set}
}

// Empty reports whether the calendar holds no sessions.
func (c *SessionCalendar) Empty() bool { return len(c.days) == 0 }

// Days returns the sessions in ascending order.
func (c *SessionCalendar) Days() []time.Time { return c.days }

func (c *SessionCalendar) Contains(d time.Time) bool {
	_, ok := c.set[Day(d)]
	return ok
}

func (c *SessionCalendar) Prev(d time.Time) (time.Time, bool) {
	day := Day(d)
	idx := sort.Search(len(c.days), func(i int) bool { return !c.days[i].Before(day) })
	if idx == 0 {
		return time.Time{}, false
	}
	return c.days[idx-1], true
}

func (c *SessionCalendar) DaysUntil(from, until time.Time) int {
	fromDay, untilDay := Day(from), Day(until)
	if !fromDay.Before(untilDay) {
		return 0
	}
	lo := sort.Search(len(c.days), func(i int) bool { return c.days[i].After(fromDay) })
	hi := sort.Search(len(c.days), func(i int) bool { return c.days[i].After(untilDay) })
	return hi - lo
}

func (c *SessionCalendar) Between(from, to time.Time) []time.Time {
	fromDay, toDay := Day(from), Day(to)
	lo := sort.Search(len(c.days), func(i int) bool { return !c.days[i].Before(fromDay) })
	hi := sort.Search(len(c.days), func(i int) bool { return c.days[i].After(toDay) })
	if lo >= hi {
		return nil
	}
	out := make([]time.Time, hi-lo)
	copy(out, c.days[lo:hi])
	return out
}

// WeekdayCalendar is the Mon-Fri fallback used before any sessions have been
// ingested for a root.
type WeekdayCalendar struct{}

func (WeekdayCalendar) Contains(d time.Time) bool {
	wd := Day(d).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func (w WeekdayCalendar) Prev(d time.Time) (time.Time, bool) {
	day := Day(d).AddDate(0, 0, -1)
	for !w.Contains(day) {
		day = day.AddDate(0, 0, -1)
	}
	return day, true
}

func (w WeekdayCalendar) DaysUntil(from, until time.Time) int {
	fromDay, untilDay := Day(from), Day(until)
	count := 0
	for d := fromDay.AddDate(0, 0, 1); !d.After(untilDay); d = d.AddDate(0, 0, 1) {
		if w.Contains(d) {
			count++
		}
	}
	return count
}

func (w WeekdayCalendar) Between(from, to time.Time) []time.Time {
	fromDay, toDay := Day(from), Day(to)
	var out []time.Time
	for d := fromDay; !d.After(toDay); d = d.AddDate(0, 0, 1) {
		if w.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}
