package session

import (
	"fmt"
	"time"

	"tickrecorder/config"
	"tickrecorder/internal/calendar"
)

// TradingDay is the logical trading-session label (yyyymmdd) used to group
// output files. During a night session it differs from the calendar date: a
// Friday 21:00 tick belongs to the following Monday's trading day.
type TradingDay string

const tradingDayLayout = "20060102"

// TradingDayOf labels the trading day for the given calendar date.
func TradingDayOf(date time.Time) TradingDay {
	return TradingDay(date.Format(tradingDayLayout))
}

// Date returns the calendar date the trading day is named after.
func (d TradingDay) Date() (time.Time, error) {
	return time.Parse(tradingDayLayout, string(d))
}

func (d TradingDay) String() string { return string(d) }

// AmbiguousSessionError reports a wall-clock instant for which no session
// rule matches. The calendar needs review before the date can be trusted;
// callers must not treat it as "not trading".
type AmbiguousSessionError struct {
	Date time.Time
	Time TimeOfDay
}

func (e *AmbiguousSessionError) Error() string {
	return fmt.Sprintf("session: no rule matches %s %s, calendar needs review",
		e.Date.Format(calendar.DateLayout), e.Time)
}

// Windows holds the two trading-session windows in exchange-local time. The
// night session crosses midnight: it opens at NightStart and closes at
// NightEnd on the following calendar day.
type Windows struct {
	DayStart   TimeOfDay
	DayEnd     TimeOfDay
	NightStart TimeOfDay
	NightEnd   TimeOfDay
}

// WindowsFromConfig parses the configured session windows.
func WindowsFromConfig(cfg config.SessionConfig) (Windows, error) {
	var (
		w   Windows
		err error
	)
	if w.DayStart, err = ParseTimeOfDay(cfg.DayStart); err != nil {
		return Windows{}, fmt.Errorf("day_start: %w", err)
	}
	if w.DayEnd, err = ParseTimeOfDay(cfg.DayEnd); err != nil {
		return Windows{}, fmt.Errorf("day_end: %w", err)
	}
	if w.NightStart, err = ParseTimeOfDay(cfg.NightStart); err != nil {
		return Windows{}, fmt.Errorf("night_start: %w", err)
	}
	if w.NightEnd, err = ParseTimeOfDay(cfg.NightEnd); err != nil {
		return Windows{}, fmt.Errorf("night_end: %w", err)
	}
	return w, nil
}

// Clock decides whether the market is currently inside a trading session and
// which logical trading day is open for capture. Evaluate is pure: same
// wall-clock instant and calendar always produce the same answer.
type Clock struct {
	cal *calendar.Calendar
	win Windows
}

func NewClock(cal *calendar.Calendar, win Windows) *Clock {
	return &Clock{cal: cal, win: win}
}

// Gap thresholds separating an ordinary weekend/overnight spillover from a
// multi-day holiday with no night session.
const (
	noNightSessionGap = 3 * 24 * time.Hour // evening before a long holiday
	noSpilloverGap    = 2 * 24 * time.Hour // first pre-holiday morning
)

// Evaluate reports whether trading is active at now and the trading day any
// captured records belong to. The trading day is also reported for decided
// non-trading instants (the upcoming session's day); it is empty only on
// error.
func (c *Clock) Evaluate(now time.Time) (bool, TradingDay, error) {
	today := calendar.Midnight(now)
	tod := TimeOfDayFrom(now)

	tradeDate, preDate, err := c.anchorDates(today, tod)
	if err != nil {
		return false, "", err
	}
	// The calendar date the night session spills into after midnight.
	preDateNext := preDate.Add(24 * time.Hour)

	day := TradingDayOf(tradeDate)

	switch {
	// Day session on a trading day.
	case today.Equal(tradeDate) && !tod.Before(c.win.DayStart) && !tod.After(c.win.DayEnd):
		return true, day, nil

	// Evening before a long holiday: no night session.
	case today.Equal(preDate) && tradeDate.Sub(today) > noNightSessionGap:
		return false, day, nil

	// Ordinary trading-day night session.
	case today.Equal(preDate) && !tod.Before(c.win.NightStart):
		return true, day, nil

	// Early morning while last night's session is still running.
	case today.Equal(preDateNext) && !tod.After(c.win.NightEnd):
		if tradeDate.Sub(today) > noSpilloverGap {
			// First pre-holiday morning: the night session never opened.
			return false, day, nil
		}
		// Saturday-style spillover of Friday's night session.
		return true, day, nil

	// Closed calendar date outside the overnight spillover.
	case !c.cal.IsOpen(today):
		return false, day, nil
	}

	return false, "", &AmbiguousSessionError{Date: today, Time: tod}
}

// anchorDates resolves the calendar-relative dates the decision rules pivot
// on: the trading day whose day session covers or follows today, and the
// trading day whose night session (if any) falls on today's evening.
func (c *Clock) anchorDates(today time.Time, tod TimeOfDay) (tradeDate, preDate time.Time, err error) {
	switch {
	case c.cal.IsOpen(today) && !tod.After(c.win.DayEnd):
		tradeDate = today
		prev, ok := c.cal.PrevTradeDate(today)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf(
				"session: no prevTradeDate for %s", today.Format(calendar.DateLayout))
		}
		preDate = prev

	case c.cal.IsOpen(today): // after day-session end
		preDate = today
		next, ok := c.cal.NextOpen(today)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf(
				"session: calendar exhausted after %s", today.Format(calendar.DateLayout))
		}
		tradeDate = next

	default: // closed calendar date
		next, ok := c.cal.NextOpen(today)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf(
				"session: calendar exhausted after %s", today.Format(calendar.DateLayout))
		}
		tradeDate = next
		prev, ok := c.cal.PrevTradeDate(next)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf(
				"session: no prevTradeDate for %s", next.Format(calendar.DateLayout))
		}
		preDate = prev
	}
	return tradeDate, preDate, nil
}
