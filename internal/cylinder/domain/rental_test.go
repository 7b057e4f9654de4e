package domain

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCylinder() Cylinder {
	return Cylinder{
		ID:       snowflake.ID(1001),
		OrgID:    snowflake.ID(42),
		CustomID: "CYL-1",
		Type:     DefaultType,
		Size:     DefaultSize,
		Status:   StatusAvailable,
		Location: DefaultLocation,
	}
}

func testParty() RentalParty {
	return RentalParty{
		CustomerID: snowflake.ID(2001),
		Name:       "Acme Gases",
		Phone:      "555-0100",
		Address:    "12 Main St",
	}
}

func TestMarkRented(t *testing.T) {
	cyl := testCylinder()
	dispatched := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	cyl.MarkRented(testParty(), dispatched, now)

	assert.Equal(t, StatusRented, cyl.Status)
	require.NotNil(t, cyl.RentedTo)
	assert.Equal(t, snowflake.ID(2001), *cyl.RentedTo)
	assert.Equal(t, "Acme Gases", cyl.CustomerName)
	assert.Equal(t, "12 Main St", cyl.Location, "custody follows the customer address")
	require.NotNil(t, cyl.DateBorrowed)
	assert.Equal(t, dispatched, *cyl.DateBorrowed)
	assert.Nil(t, cyl.DateReturned)
	assert.Equal(t, now, cyl.UpdatedAt)
}

func TestMarkRentedWithoutAddressKeepsLocation(t *testing.T) {
	cyl := testCylinder()
	party := testParty()
	party.Address = ""

	cyl.MarkRented(party, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), time.Now())

	assert.Equal(t, DefaultLocation, cyl.Location)
}

func TestMarkReturnedCompletesCycle(t *testing.T) {
	cyl := testCylinder()
	dispatched := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	returned := time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC)
	cyl.MarkRented(testParty(), dispatched, dispatched)

	cycle, ok := cyl.MarkReturned(returned, returned)
	require.True(t, ok)

	assert.Equal(t, "Acme Gases", cycle.CustomerName)
	assert.Equal(t, 10, cycle.RentalDays)
	require.NotNil(t, cycle.DateBorrowed)
	assert.Equal(t, dispatched, *cycle.DateBorrowed)

	assert.Equal(t, StatusAvailable, cyl.Status)
	assert.Nil(t, cyl.RentedTo)
	assert.Empty(t, cyl.CustomerName)
	assert.Equal(t, DefaultLocation, cyl.Location)
	require.NotNil(t, cyl.DateReturned)
	assert.Equal(t, returned, *cyl.DateReturned)
}

func TestMarkReturnedOnAvailableIsNoOp(t *testing.T) {
	cyl := testCylinder()

	_, ok := cyl.MarkReturned(time.Now(), time.Now())

	assert.False(t, ok)
	assert.Equal(t, StatusAvailable, cyl.Status)
}

func TestRentalDaysLiveAndCompletedAgree(t *testing.T) {
	cyl := testCylinder()
	dispatched := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	returned := time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC)
	cyl.MarkRented(testParty(), dispatched, dispatched)

	// Live reading on the return day.
	live := RentalDays(cyl, returned)

	cycle, ok := cyl.MarkReturned(returned, returned)
	require.True(t, ok)

	assert.Equal(t, live, cycle.RentalDays)
	assert.Equal(t, live, RentalDays(cyl, returned.Add(48*time.Hour)),
		"after return the cylinder reports the completed cycle, not elapsed time")
}

func TestRentalDaysNeverRented(t *testing.T) {
	assert.Equal(t, 0, RentalDays(testCylinder(), time.Now()))
}

func TestRentalMonths(t *testing.T) {
	cyl := testCylinder()
	dispatched := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cyl.MarkRented(testParty(), dispatched, dispatched)

	asOf := dispatched.AddDate(0, 0, 95)
	assert.Equal(t, 3, RentalMonths(cyl, asOf))
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 10, DaysBetween(from, from.AddDate(0, 0, 10)))
	assert.Equal(t, 0, DaysBetween(from, from))
	assert.Equal(t, 0, DaysBetween(from, from.AddDate(0, 0, -5)), "clamped to zero")
}
