package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CompletedCycle is the pre-transition state captured when a rental ends. It
// is the only input to a rental history record.
type CompletedCycle struct {
	CustomerID      *snowflake.ID
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	DateBorrowed    *time.Time
	DateReturned    time.Time
	RentalDays      int
}

// MarkRented transitions the cylinder to Rented and installs the denormalized
// customer snapshot. Custody moves to the customer, so Location follows the
// customer address when one is known.
func (c *Cylinder) MarkRented(party RentalParty, dispatched time.Time, at time.Time) {
	id := party.CustomerID
	c.Status = StatusRented
	c.RentedTo = &id
	c.CustomerName = party.Name
	c.CustomerPhone = party.Phone
	c.CustomerAddress = party.Address
	borrowed := dispatched
	c.DateBorrowed = &borrowed
	c.DateReturned = nil
	if party.Address != "" {
		c.Location = party.Address
	}
	c.UpdatedAt = at
}

// MarkReturned completes the active cycle and resets the cylinder to
// Available. Returning an already-available cylinder is a no-op, which is
// what makes re-running a transaction file idempotent.
func (c *Cylinder) MarkReturned(returned time.Time, at time.Time) (CompletedCycle, bool) {
	if c.Status != StatusRented || c.RentedTo == nil {
		return CompletedCycle{}, false
	}

	cycle := CompletedCycle{
		CustomerID:      c.RentedTo,
		CustomerName:    c.CustomerName,
		CustomerPhone:   c.CustomerPhone,
		CustomerAddress: c.CustomerAddress,
		DateBorrowed:    c.DateBorrowed,
		DateReturned:    returned,
	}
	if c.DateBorrowed != nil {
		cycle.RentalDays = DaysBetween(*c.DateBorrowed, returned)
	}

	ret := returned
	c.Status = StatusAvailable
	c.RentedTo = nil
	c.CustomerName = ""
	c.CustomerPhone = ""
	c.CustomerAddress = ""
	c.DateReturned = &ret
	c.Location = DefaultLocation
	c.UpdatedAt = at

	return cycle, true
}

// RentalDays reports how long the cylinder has been out as of the given
// instant, or the length of the last completed cycle when it is back. The
// linker uses the same arithmetic for durable history records, so live and
// historical values always agree.
func RentalDays(c Cylinder, asOf time.Time) int {
	switch {
	case c.Status == StatusRented && c.DateBorrowed != nil:
		return DaysBetween(*c.DateBorrowed, asOf)
	case c.DateBorrowed != nil && c.DateReturned != nil:
		return DaysBetween(*c.DateBorrowed, *c.DateReturned)
	default:
		return 0
	}
}

func RentalMonths(c Cylinder, asOf time.Time) int {
	return RentalDays(c, asOf) / 30
}

// DaysBetween is the rental-day arithmetic shared by live reads and durable
// history records.
func DaysBetween(from, to time.Time) int {
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
