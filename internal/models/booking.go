package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
)

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CompanyID uint `gorm:"index" json:"company_id"`

	ServiceID uint    `json:"service_id"`
	Service   Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"service"`

	ProfessionalID uint    `gorm:"index:idx_bookings_professional_date" json:"professional_id"`
	Professional   Account `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	ClientID uint   `json:"client_id"`
	Client   Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"client"`

	Date      time.Time      `gorm:"type:date;index:idx_bookings_professional_date;not null" json:"date"`
	StartTime schedule.Clock `gorm:"column:start_minute;not null" json:"start_time"`
	// EndTime includes the buffer.
	EndTime schedule.Clock `gorm:"column:end_minute;not null" json:"end_time"`

	DurationMinutes int             `json:"duration_minutes"`
	BufferMinutes   int             `json:"buffer_minutes"`
	Price           decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"price"`

	Status string `gorm:"size:30;index;default:'CREADO'" json:"status"`
	Notes  string `gorm:"size:255" json:"notes"`

	CancelledAt *time.Time `json:"cancelled_at"`
	CancelledBy string     `gorm:"size:20" json:"cancelled_by,omitempty"`
	AttendedAt  *time.Time `json:"attended_at"`

	ReminderCorrelationID *string    `gorm:"size:100;uniqueIndex" json:"reminder_correlation_id,omitempty"`
	ReminderSentAt        *time.Time `json:"reminder_sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) Window() schedule.TimeRange {
	return schedule.TimeRange{Start: b.StartTime, End: b.EndTime}
}
