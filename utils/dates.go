package utils

import "time"

// DayStart normalizes a timestamp to UTC midnight. All inventory dates
// are day-granular; the checkout day itself is never occupied.
func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysIn expands the half-open range [checkIn, checkOut) into its
// occupied calendar days.
func DaysIn(checkIn, checkOut time.Time) []time.Time {
	from := DayStart(checkIn)
	to := DayStart(checkOut)
	var days []time.Time
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// ParseDay accepts "2006-01-02" or RFC3339 and returns the UTC day.
func ParseDay(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return DayStart(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return DayStart(t), nil
}

// Nights counts occupied days in [checkIn, checkOut).
func Nights(checkIn, checkOut time.Time) int {
	n := int(DayStart(checkOut).Sub(DayStart(checkIn)).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}
