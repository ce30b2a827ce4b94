package session

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time at minute granularity. Schedule decisions
// compare these structured values rather than formatted strings, so a trigger
// cannot be missed to formatting differences.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// TimeOfDayFrom truncates t to its time of day.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) Before(u TimeOfDay) bool { return t.Minutes() < u.Minutes() }

func (t TimeOfDay) After(u TimeOfDay) bool { return t.Minutes() > u.Minutes() }

// Equal reports whether two times of day name the same minute.
func (t TimeOfDay) Equal(u TimeOfDay) bool { return t.Minutes() == u.Minutes() }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
