package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"", StatusAvailable},
		{"   ", StatusAvailable},
		{"Available", StatusAvailable},
		{"in stock", StatusAvailable},
		{"FREE", StatusAvailable},
		{"Rented", StatusRented},
		{"out", StatusRented},
		{"OUT", StatusRented},
		{"Issued to hospital", StatusRented},
		{"dispatched", StatusRented},
		{"under repair", StatusMaintenance},
		{"hydro testing", StatusMaintenance},
		{"Out of Service", StatusOutOfService},
		{"out of service", StatusOutOfService},
		{"condemned", StatusOutOfService},
		{"scrapped", StatusOutOfService},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FoldStatus(tc.raw), "raw %q", tc.raw)
	}
}

func TestFoldStatusPassesUnknownThrough(t *testing.T) {
	assert.Equal(t, Status("Blue"), FoldStatus("Blue"))
}
