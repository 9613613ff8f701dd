package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	day := func(h int) time.Time {
		return time.Date(2026, time.September, 1, h, 0, 0, 0, time.UTC)
	}
	b := &Booking{StartTime: day(18), EndTime: day(20)}

	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"identical interval", day(18), day(20), true},
		{"contained", day(18), day(19), true},
		{"containing", day(17), day(21), true},
		{"overlapping start", day(17), day(19), true},
		{"overlapping end", day(19), day(21), true},
		{"before", day(15), day(17), false},
		{"after", day(21), day(23), false},
		{"abutting before", day(16), day(18), false},
		{"abutting after", day(20), day(22), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, b.Overlaps(tc.start, tc.end))
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, (&Booking{Status: BookingStatusConfirmed}).Terminal())
	assert.True(t, (&Booking{Status: BookingStatusCancelled}).Terminal())
	assert.True(t, (&Booking{Status: BookingStatusCompleted}).Terminal())
}

func TestValidTableStatus(t *testing.T) {
	for _, s := range []string{TableStatusAvailable, TableStatusReserved, TableStatusMaintenance, TableStatusSpecialEvent} {
		assert.True(t, ValidTableStatus(s), s)
	}
	assert.False(t, ValidTableStatus("CLOSED"))
	assert.False(t, ValidTableStatus("available"))
}
