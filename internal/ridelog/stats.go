package ridelog

import (
	"strconv"
	"time"
)

// Summary totals riding hours.
type Summary struct {
	TotalHours float64
	WeekHours  float64
	MonthHours float64
	Sessions   int
}

// MonthHours is the riding time of one calendar month.
type MonthHours struct {
	Year  int
	Month time.Month
	Hours float64
}

// sessionTime parses a session date at noon in loc, so that a date never
// shifts across a day boundary.
func sessionTime(date string, loc *time.Location) (time.Time, bool) {
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, false
	}

	return d.Add(12 * time.Hour), true
}

// weekStart returns midnight of the Monday on or before now.
func weekStart(now time.Time) time.Time {
	offset := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()

	return time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location())
}

// Summarize totals hours overall, since Monday of now's week, and in now's
// calendar month. Sessions with unreadable dates count only toward the total.
func Summarize(sessions []Session, now time.Time) Summary {
	sum := Summary{Sessions: len(sessions)}
	monday := weekStart(now)

	for _, s := range sessions {
		sum.TotalHours += s.Hours

		t, ok := sessionTime(s.Date, now.Location())
		if !ok {
			continue
		}

		if !t.Before(monday) {
			sum.WeekHours += s.Hours
		}

		if t.Year() == now.Year() && t.Month() == now.Month() {
			sum.MonthHours += s.Hours
		}
	}

	return sum
}

// MonthlyHours returns the hours of the n calendar months ending with now's
// month, oldest first.
func MonthlyHours(sessions []Session, now time.Time, n int) []MonthHours {
	if n <= 0 {
		return nil
	}

	months := make([]MonthHours, n)
	index := make(map[[2]int]int, n)

	for i := range n {
		first := time.Date(now.Year(), now.Month()-time.Month(n-1-i), 1, 0, 0, 0, 0, now.Location())
		months[i] = MonthHours{Year: first.Year(), Month: first.Month()}
		index[[2]int{first.Year(), int(first.Month())}] = i
	}

	for _, s := range sessions {
		t, ok := sessionTime(s.Date, now.Location())
		if !ok {
			continue
		}

		if i, ok := index[[2]int{t.Year(), int(t.Month())}]; ok {
			months[i].Hours += s.Hours
		}
	}

	return months
}

// SessionDays returns the days of the given month that have at least one
// session.
func SessionDays(sessions []Session, year int, month time.Month) map[int]bool {
	days := make(map[int]bool)

	for _, s := range sessions {
		t, ok := sessionTime(s.Date, time.UTC)
		if !ok {
			continue
		}

		if t.Year() == year && t.Month() == month {
			days[t.Day()] = true
		}
	}

	return days
}

// Recent returns up to n of the newest sessions.
func Recent(sessions []Session, n int) []Session {
	if n < 0 {
		n = 0
	}

	if len(sessions) < n {
		n = len(sessions)
	}

	return sessions[:n]
}

// FormatHours prints whole hours without decimals and anything else with
// one decimal place.
func FormatHours(h float64) string {
	if h == float64(int64(h)) {
		return strconv.FormatInt(int64(h), 10)
	}

	return strconv.FormatFloat(h, 'f', 1, 64)
}
