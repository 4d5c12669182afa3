package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Service struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CompanyID uint `gorm:"index" json:"company_id"`

	Name            string          `gorm:"size:100;not null" json:"name"`
	Description     string          `gorm:"size:255" json:"description"`
	DurationMinutes int             `gorm:"not null" json:"duration_minutes"`
	BufferMinutes   *int            `json:"buffer_minutes"`
	Price           decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	Active          bool            `gorm:"default:true" json:"active"`

	Specializations []Specialization `gorm:"many2many:service_specializations" json:"specializations,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveBuffer falls back to the company default when the service has no override.
func (s *Service) EffectiveBuffer(companyDefault int) int {
	if s.BufferMinutes != nil {
		return *s.BufferMinutes
	}
	return companyDefault
}
