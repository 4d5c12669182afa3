package models

import "time"

const (
	RoleOwner        = "owner"
	RoleProfessional = "professional"
	RoleClient       = "client"
)

// Account is the single login identity. Role decides what it may do; owners
// and professionals can both be booked.
type Account struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	CompanyID uint    `gorm:"index" json:"company_id"`
	Company   Company `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Phone        string `gorm:"size:20" json:"phone"`
	Role         string `gorm:"size:20;default:'owner'" json:"role"`
	Active       bool   `gorm:"default:true" json:"active"`

	Specializations []Specialization `gorm:"many2many:professional_specializations" json:"specializations,omitempty"`
	BlockedServices []Service        `gorm:"many2many:professional_blocked_services" json:"blocked_services,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Account) IsProfessional() bool {
	return a.Role == RoleOwner || a.Role == RoleProfessional
}
