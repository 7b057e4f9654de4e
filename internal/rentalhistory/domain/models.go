package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RentalHistoryRecord is an immutable snapshot of one completed rental cycle.
// Records are appended when a cylinder transitions Rented to Available, either
// live or retroactively during bulk import, and never mutated afterwards.
type RentalHistoryRecord struct {
	ID    snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID snowflake.ID `gorm:"not null;index" json:"organization_id"`

	CustomerID    *snowflake.ID `gorm:"index" json:"customer_id,omitempty"`
	CustomerNo    string        `json:"customer_no"`
	CustomerName  string        `json:"customer_name"`
	CustomerPhone string        `json:"customer_phone"`

	CylinderID       snowflake.ID `gorm:"not null;index" json:"cylinder_id"`
	CylinderCustomID string       `json:"cylinder_custom_id"`
	SerialNumber     string       `json:"serial_number"`
	CylinderType     string       `json:"cylinder_type"`
	CylinderSize     string       `json:"cylinder_size"`

	DateBorrowed *time.Time `json:"date_borrowed,omitempty"`
	DateReturned time.Time  `gorm:"not null;index" json:"date_returned"`
	RentalDays   int        `gorm:"not null" json:"rental_days"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}
