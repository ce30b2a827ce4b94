package calendar

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the on-disk and in-database date format for calendar rows.
const DateLayout = "2006-01-02"

// Entry is one row of the exchange trading calendar. PrevTradeDate names the
// nearest earlier date with IsOpen set.
type Entry struct {
	Date          time.Time
	IsOpen        bool
	PrevTradeDate time.Time
}

// Calendar is the read-only trading calendar, loaded once at startup.
type Calendar struct {
	entries []Entry // sorted by Date ascending, unique per date
	byDate  map[string]Entry
}

// New builds a Calendar from raw entries. Duplicate dates are collapsed (last
// row wins, matching a de-duplicated table load) and entries are sorted.
func New(entries []Entry) (*Calendar, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("calendar: no entries")
	}

	byDate := make(map[string]Entry, len(entries))
	for _, e := range entries {
		e.Date = Midnight(e.Date)
		e.PrevTradeDate = Midnight(e.PrevTradeDate)
		byDate[e.Date.Format(DateLayout)] = e
	}

	sorted := make([]Entry, 0, len(byDate))
	for _, e := range byDate {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	return &Calendar{entries: sorted, byDate: byDate}, nil
}

// Midnight truncates t to its calendar date in UTC, which is the form all
// calendar arithmetic uses.
func Midnight(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Lookup returns the entry for the given calendar date.
func (c *Calendar) Lookup(date time.Time) (Entry, bool) {
	e, ok := c.byDate[Midnight(date).Format(DateLayout)]
	return e, ok
}

// IsOpen reports whether the given calendar date is an open trading day.
func (c *Calendar) IsOpen(date time.Time) bool {
	e, ok := c.Lookup(date)
	return ok && e.IsOpen
}

// NextOpen returns the nearest open trading date strictly after the given
// date. The second return value is false when the calendar runs out.
func (c *Calendar) NextOpen(after time.Time) (time.Time, bool) {
	after = Midnight(after)
	i := sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].Date.After(after)
	})
	for ; i < len(c.entries); i++ {
		if c.entries[i].IsOpen {
			return c.entries[i].Date, true
		}
	}
	return time.Time{}, false
}

// PrevTradeDate returns the previous-trading-date link of the entry for the
// given date.
func (c *Calendar) PrevTradeDate(date time.Time) (time.Time, bool) {
	e, ok := c.Lookup(date)
	if !ok || e.PrevTradeDate.IsZero() {
		return time.Time{}, false
	}
	return e.PrevTradeDate, true
}

// Entries returns the calendar rows in date order. The slice is shared and
// must not be modified.
func (c *Calendar) Entries() []Entry {
	return c.entries
}

// Len returns the number of unique calendar dates loaded.
func (c *Calendar) Len() int {
	return len(c.entries)
}
