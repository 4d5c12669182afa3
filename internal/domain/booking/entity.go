package booking

import (
	"time"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
)

// Who cancelled a booking.
const (
	CancelledByProfessional = "professional"
	CancelledByClient       = "client"
	CancelledBySystem       = "system"
)

// ClientNoticePeriod is how far ahead of the start a client may still cancel
// or reprogram on their own.
const ClientNoticePeriod = time.Hour

// ===============================
// Domain Actions
// ===============================

func Transition(b *models.Booking, to Status, now time.Time) error {
	if err := CanTransition(Status(b.Status), to); err != nil {
		return err
	}

	b.Status = string(to)
	if to == StatusAttended {
		b.AttendedAt = &now
	}
	return nil
}

func Cancel(b *models.Booking, by string, now time.Time) error {
	if err := CanTransition(Status(b.Status), StatusCancelled); err != nil {
		return err
	}

	b.Status = string(StatusCancelled)
	b.CancelledAt = &now
	b.CancelledBy = by
	return nil
}

// Reschedule moves the booking in place, keeping its duration and buffer.
func Reschedule(b *models.Booking, date time.Time, start schedule.Clock) {
	b.Date = schedule.DayOf(date)
	b.StartTime = start
	b.EndTime = start.Add(b.DurationMinutes + b.BufferMinutes)
}

// WindowAt is the full [start, start+duration+buffer) window the booking
// would occupy if it started at start.
func WindowAt(b *models.Booking, start schedule.Clock) schedule.TimeRange {
	return schedule.TimeRange{Start: start, End: start.Add(b.DurationMinutes + b.BufferMinutes)}
}

// StartsAt returns the absolute start instant in loc.
func StartsAt(b *models.Booking, loc *time.Location) time.Time {
	return b.StartTime.On(b.Date, loc)
}
