package aggregate

import "time"

// Range is a half-open interval [Start, End).
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether Start <= t < End.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Midnight returns 00:00 of t's calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays moves a midnight by n calendar days. Unlike t.Add(24h*n) it
// stays on midnight across DST transitions.
func AddDays(day time.Time, n int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, day.Location())
}

// StartOfWeek returns the Monday midnight of t's week.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return AddDays(Midnight(t), -offset)
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// Periods holds the canonical reporting intervals relative to one instant.
// Current periods run to tomorrow's midnight; prior periods are complete.
type Periods struct {
	Today     Range
	Yesterday Range
	ThisWeek  Range
	LastWeek  Range
	// Week is the full Monday to Sunday window containing today.
	Week      Range
	ThisMonth Range
	LastMonth Range
}

// PeriodsAt computes the canonical periods in now's location.
func PeriodsAt(now time.Time) Periods {
	today := Midnight(now)
	tomorrow := AddDays(today, 1)
	week := StartOfWeek(now)
	month := StartOfMonth(now)

	return Periods{
		Today:     Range{Start: today, End: tomorrow},
		Yesterday: Range{Start: AddDays(today, -1), End: today},
		ThisWeek:  Range{Start: week, End: tomorrow},
		LastWeek:  Range{Start: AddDays(week, -7), End: week},
		Week:      Range{Start: week, End: AddDays(week, 7)},
		ThisMonth: Range{Start: month, End: tomorrow},
		LastMonth: Range{Start: month.AddDate(0, -1, 0), End: month},
	}
}

// LastNDays covers the n calendar days ending with now's day.
func LastNDays(now time.Time, n int) Range {
	today := Midnight(now)
	if n < 1 {
		return Range{Start: AddDays(today, 1), End: AddDays(today, 1)}
	}
	return Range{Start: AddDays(today, -(n - 1)), End: AddDays(today, 1)}
}

// DayRange returns the closed bounds of day's calendar day:
// 00:00:00.000 through 23:59:59.999.
func DayRange(day time.Time) (start, end time.Time) {
	start = Midnight(day)
	return start, AddDays(start, 1).Add(-time.Millisecond)
}
