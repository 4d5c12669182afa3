package models

import "time"

type Specialization struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	CompanyID uint   `gorm:"index" json:"company_id"`
	Name      string `gorm:"size:100;not null" json:"name"`

	CreatedAt time.Time `json:"created_at"`
}
