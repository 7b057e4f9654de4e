package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Customer struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID `gorm:"not null;index;uniqueIndex:idx_customers_org_no" json:"organization_id"`
	CustomerNo string       `gorm:"not null;uniqueIndex:idx_customers_org_no" json:"customer_no"`
	Name       string       `gorm:"not null" json:"name"`
	Address    string       `gorm:"not null" json:"address"`
	City       string       `gorm:"not null" json:"city"`
	State      string       `gorm:"not null" json:"state"`
	Phone      string       `gorm:"not null" json:"phone"`
	TaxID      string       `json:"tax_id"`
	TaxRegNo   string       `json:"tax_reg_no"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
