package model

import "time"

// Booking status values.  Transitions are one-directional:
// CONFIRMED -> CANCELLED or CONFIRMED -> COMPLETED.  CANCELLED and
// COMPLETED are terminal.  Bookings are never physically deleted so the
// calendar history stays queryable.
const (
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
	BookingStatusCompleted = "COMPLETED"
)

// Booking records a single claim on a table for the half-open interval
// [StartTime, EndTime).  The end being exclusive is what makes back-to-back
// bookings legal: a booking ending at 12:00 never conflicts with one
// starting at 12:00.  For a fixed table the set of CONFIRMED bookings must
// always be pairwise non-overlapping; that invariant is enforced by the
// booking service under a per-table lock, never by this struct.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – owner of the booking.
//  TableID    – table being booked.
//  StartTime  – inclusive start (UTC).
//  EndTime    – exclusive end (UTC), strictly after StartTime.
//  GuestCount – positive, never above the table's capacity.
//  Note       – optional free-text request ("birthday", "near window").
//  Status     – see constants above.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Booking struct {
	ID         uint64    `json:"id"`          // bookings.id
	UserID     uint64    `json:"user_id"`     // bookings.user_id
	TableID    uint64    `json:"table_id"`    // bookings.table_id
	StartTime  time.Time `json:"start_time"`  // bookings.start_time
	EndTime    time.Time `json:"end_time"`    // bookings.end_time
	GuestCount uint32    `json:"guest_count"` // bookings.guest_count
	Note       *string   `json:"note,omitempty"` // bookings.note (nullable)
	Status     string    `json:"status"`      // bookings.status
	CreatedAt  time.Time `json:"created_at"`  // bookings.created_at
	UpdatedAt  time.Time `json:"updated_at"`  // bookings.updated_at
}

// Overlaps reports whether the booking's interval intersects [start, end).
// Two half-open intervals overlap iff each one starts before the other
// ends.  Touching endpoints do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime)
}

// Terminal reports whether the booking is in a state that permits no
// further transitions.
func (b *Booking) Terminal() bool {
	return b.Status == BookingStatusCancelled || b.Status == BookingStatusCompleted
}
