package models

import "time"

// DateBlock excludes whole days for a professional. EndDate nil means a
// single day; both ends are inclusive.
type DateBlock struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ProfessionalID uint       `gorm:"index" json:"professional_id"`
	StartDate      time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate        *time.Time `gorm:"type:date" json:"end_date"`
	Reason         string     `gorm:"size:255" json:"reason"`
	Active         bool       `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LastDay returns the inclusive end of the block.
func (b *DateBlock) LastDay() time.Time {
	if b.EndDate != nil {
		return *b.EndDate
	}
	return b.StartDate
}

func (b *DateBlock) Covers(date time.Time) bool {
	return !date.Before(b.StartDate) && !date.After(b.LastDay())
}
