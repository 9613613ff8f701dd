package model

import "time"

// Administrative statuses for a table.  These mirror the `status` enum on
// the tables table and are independent of the booking calendar: a table in
// MAINTENANCE has no confirmed bookings blocking it, it is simply not
// bookable until an administrator flips it back to AVAILABLE.
const (
	TableStatusAvailable    = "AVAILABLE"
	TableStatusReserved     = "RESERVED"
	TableStatusMaintenance  = "MAINTENANCE"
	TableStatusSpecialEvent = "SPECIAL_EVENT"
)

// ValidTableStatus reports whether s is one of the known administrative
// statuses.  Handlers use it to reject malformed admin updates early.
func ValidTableStatus(s string) bool {
	switch s {
	case TableStatusAvailable, TableStatusReserved, TableStatusMaintenance, TableStatusSpecialEvent:
		return true
	}
	return false
}

// Table represents a bookable restaurant table as stored in the `tables`
// table.  Capacity is the number of guests the table seats.  Location is a
// free-text label such as "window" or "patio".  IsActive implements
// soft deletion: rows are never removed, deactivated tables are merely
// excluded from availability results.
//
// Fields:
//  ID        – primary key identifier.
//  Capacity  – positive number of seats.
//  Location  – free-text placement label.
//  Status    – administrative status (see constants above).
//  IsActive  – soft-delete flag.
//  CreatedAt – creation timestamp (UTC).
//  UpdatedAt – last update timestamp (UTC).
type Table struct {
	ID        uint64    `json:"id"`         // tables.id
	Capacity  uint32    `json:"capacity"`   // tables.capacity
	Location  string    `json:"location"`   // tables.location
	Status    string    `json:"status"`     // tables.status
	IsActive  bool      `json:"is_active"`  // tables.is_active
	CreatedAt time.Time `json:"created_at"` // tables.created_at
	UpdatedAt time.Time `json:"updated_at"` // tables.updated_at
}
