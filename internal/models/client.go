package models

import "time"

// Client is either a guest (HasAccount=false) or linked to a client Account.
// Promoting a guest only flips HasAccount and sets AccountID.
type Client struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CompanyID uint `gorm:"uniqueIndex:idx_clients_company_phone" json:"company_id"`

	Name  string `gorm:"size:100;not null" json:"name"`
	Phone string `gorm:"size:20;uniqueIndex:idx_clients_company_phone" json:"phone"`
	Email string `gorm:"size:100" json:"email"`

	HasAccount bool  `gorm:"default:false" json:"has_account"`
	AccountID  *uint `gorm:"index" json:"account_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
