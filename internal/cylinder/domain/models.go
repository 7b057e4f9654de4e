package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	DefaultType     = "Medical Oxygen"
	DefaultSize     = "40L"
	DefaultLocation = "Warehouse"
)

type Cylinder struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID `gorm:"not null;index;uniqueIndex:idx_cylinders_org_custom" json:"organization_id"`
	CustomID     string       `gorm:"not null;uniqueIndex:idx_cylinders_org_custom" json:"custom_id"`
	SerialNumber string       `gorm:"index" json:"serial_number"`
	Type         string       `gorm:"not null" json:"type"`
	Size         string       `gorm:"not null" json:"size"`
	Status       Status       `gorm:"not null" json:"status"`
	Location     string       `gorm:"not null" json:"location"`

	RentalSnapshot `gorm:"embedded"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// RentalSnapshot is the denormalized view of the active (or most recently
// completed) rental cycle. It is written only by MarkRented and MarkReturned
// so the cylinder row always agrees with the latest dispatch event.
type RentalSnapshot struct {
	RentedTo        *snowflake.ID `gorm:"index" json:"rented_to,omitempty"`
	CustomerName    string        `json:"customer_name,omitempty"`
	CustomerPhone   string        `json:"customer_phone,omitempty"`
	CustomerAddress string        `json:"customer_address,omitempty"`
	DateBorrowed    *time.Time    `json:"date_borrowed,omitempty"`
	DateReturned    *time.Time    `json:"date_returned,omitempty"`
}

// RentalParty identifies the customer side of a dispatch.
type RentalParty struct {
	CustomerID snowflake.ID
	Name       string
	Phone      string
	Address    string
}
