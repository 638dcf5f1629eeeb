package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time in the scheduler's location.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a 24-hour "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day '%s' (expected HH:MM)", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On returns the instant t occurs on the calendar day of day, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, day.Location())
}

// DaySet is a set of active weekdays.
type DaySet map[time.Weekday]bool

// NewDaySet returns a DaySet containing days.
func NewDaySet(days ...time.Weekday) DaySet {
	set := make(DaySet, len(days))
	for _, d := range days {
		set[d] = true
	}
	return set
}

// AllDays returns a DaySet containing every weekday.
func AllDays() DaySet {
	return NewDaySet(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday)
}

func (s DaySet) Contains(d time.Weekday) bool {
	return s[d]
}

func (s DaySet) String() string {
	var days []time.Weekday
	for d, ok := range s {
		if ok {
			days = append(days, d)
		}
	}
	// Monday first.
	sort.Slice(days, func(i, j int) bool {
		return (days[i]+6)%7 < (days[j]+6)%7
	})
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()[:3]
	}
	return strings.Join(names, ",")
}

// NextOccurrence returns the first instant strictly after from at which at occurs on an active
// day. The active set is checked for every candidate day. Returns false if days is empty.
func NextOccurrence(from time.Time, at TimeOfDay, days DaySet) (time.Time, bool) {
	for offset := 0; offset <= 7; offset++ {
		day := from.AddDate(0, 0, offset)
		if !days.Contains(day.Weekday()) {
			continue
		}
		if candidate := at.On(day); candidate.After(from) {
			return candidate, true
		}
	}
	return time.Time{}, false
}
