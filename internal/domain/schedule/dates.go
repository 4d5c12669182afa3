package schedule

import "time"

const DateLayout = "2006-01-02"

// DayOf strips t down to its civil date, normalised to UTC midnight so dates
// read back from a DATE column compare equal to dates computed in any zone.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DayOf(t), nil
}

// MinuteOfDay returns the wall clock of t in its own location.
func MinuteOfDay(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

func Weekday(date time.Time) int {
	return int(date.Weekday())
}

// DaysBetween counts whole civil days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DayOf(b).Sub(DayOf(a)).Hours() / 24)
}
