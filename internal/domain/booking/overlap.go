package booking

import (
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
)

// Conflicts reports whether window collides with any booking that is not
// cancelled, ignoring the ids in exclude.
func Conflicts(window schedule.TimeRange, existing []models.Booking, exclude ...uint) bool {
	for i := range existing {
		b := &existing[i]
		if Status(b.Status) == StatusCancelled || excluded(b.ID, exclude) {
			continue
		}
		if window.Overlaps(b.Window()) {
			return true
		}
	}
	return false
}

func excluded(id uint, ids []uint) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// BusyWindows converts the non-cancelled bookings of a day into ranges.
func BusyWindows(bookings []models.Booking) []schedule.TimeRange {
	out := make([]schedule.TimeRange, 0, len(bookings))
	for i := range bookings {
		if Status(bookings[i].Status) == StatusCancelled {
			continue
		}
		out = append(out, bookings[i].Window())
	}
	return out
}
