package dto

import (
	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
)

// BookingListDTO is the agenda row shown to professionals. End is the
// visible end; the buffer is left out.
type BookingListDTO struct {
	ID             uint            `json:"id"`
	ProfessionalID uint            `json:"professional_id"`
	Date           string          `json:"date"`
	StartTime      schedule.Clock  `json:"start_time"`
	EndTime        schedule.Clock  `json:"end_time"`
	Status         string          `json:"status"`
	ClientName     string          `json:"client_name"`
	ClientPhone    string          `json:"client_phone"`
	ServiceName    string          `json:"service_name"`
	Price          decimal.Decimal `json:"price"`
	Notes          string          `json:"notes,omitempty"`
}

func FromBooking(b models.Booking) BookingListDTO {
	return BookingListDTO{
		ID:             b.ID,
		ProfessionalID: b.ProfessionalID,
		Date:           b.Date.Format(schedule.DateLayout),
		StartTime:      b.StartTime,
		EndTime:        b.StartTime.Add(b.DurationMinutes),
		Status:         b.Status,
		ClientName:     b.Client.Name,
		ClientPhone:    b.Client.Phone,
		ServiceName:    b.Service.Name,
		Price:          b.Price,
		Notes:          b.Notes,
	}
}

func FromBookings(bookings []models.Booking) []BookingListDTO {
	out := make([]BookingListDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, FromBooking(b))
	}
	return out
}
