// Package queue defines the message payloads exchanged over the broker
// and the publisher/consumer plumbing around them.
package queue

// BookingConfirmedEvent is published after a booking transaction
// commits.  It carries enough detail for downstream consumers to log or
// notify without querying the primary database.  Timestamps are RFC3339
// strings in UTC.
type BookingConfirmedEvent struct {
	BookingID  uint64 `json:"booking_id"`
	UserID     uint64 `json:"user_id"`
	TableID    uint64 `json:"table_id"`
	Location   string `json:"location,omitempty"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	GuestCount uint32 `json:"guest_count"`
	OccurredAt string `json:"occurred_at"`
}

// BookingCancelledEvent is published after a cancellation commits.  The
// freed interval is included so consumers can react to the table
// becoming available again.
type BookingCancelledEvent struct {
	BookingID   uint64 `json:"booking_id"`
	UserID      uint64 `json:"user_id"`
	CancelledBy uint64 `json:"cancelled_by"`
	TableID     uint64 `json:"table_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	OccurredAt  string `json:"occurred_at"`
}
