package timezone

import (
	"time"
	_ "time/tzdata"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
)

const DefaultTimezone = "America/Sao_Paulo"

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}

	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Clock is "now" as seen by one company: its civil date and wall clock.
type Clock struct {
	Now   time.Time
	Today time.Time
	Time  schedule.Clock
}

// In converts an instant to the company's local calendar.
func In(now time.Time, tz string) Clock {
	local := now.In(Location(tz))
	return Clock{
		Now:   local,
		Today: schedule.DayOf(local),
		Time:  schedule.MinuteOfDay(local),
	}
}
