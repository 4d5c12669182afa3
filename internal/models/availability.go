package models

import (
	"time"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
)

// Availability is a professional's own range for a weekday. Any active row
// for the weekday overrides the company's WorkingHours for that day.
type Availability struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	ProfessionalID uint `gorm:"index:idx_availability_day" json:"professional_id"`
	Weekday        int  `gorm:"index:idx_availability_day" json:"weekday"`

	StartTime schedule.Clock `gorm:"column:start_minute;not null" json:"start_time"`
	EndTime   schedule.Clock `gorm:"column:end_minute;not null" json:"end_time"`
	Active    bool           `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a Availability) Range() schedule.TimeRange {
	return schedule.TimeRange{Start: a.StartTime, End: a.EndTime}
}
