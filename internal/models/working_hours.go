package models

import (
	"time"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
)

// WorkingHours is one company-level range; a weekday may have several.
type WorkingHours struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CompanyID uint `gorm:"index:idx_working_hours_day" json:"company_id"`
	Weekday   int  `gorm:"index:idx_working_hours_day" json:"weekday"`

	StartTime schedule.Clock `gorm:"column:start_minute;not null" json:"start_time"`
	EndTime   schedule.Clock `gorm:"column:end_minute;not null" json:"end_time"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w WorkingHours) Range() schedule.TimeRange {
	return schedule.TimeRange{Start: w.StartTime, End: w.EndTime}
}
