// Package repository defines the error taxonomy shared by the data access
// layer, the booking service and the HTTP handlers.  These sentinel values
// let higher layers distinguish failure classes with errors.Is without
// inspecting strings.  The service wraps them with the failing constraint
// and the ids involved, e.g.
//
//	fmt.Errorf("%w: guest count 7 exceeds table 3 capacity 4", ErrValidation)
//
// so clients get enough structured detail to render the rejection while
// handlers still map the class to a status code.
package repository

import "errors"

// ErrTableNotFound is returned when a table id does not reference an
// active table.  Handlers translate it into a 404 response.
var ErrTableNotFound = errors.New("table not found")

// ErrBookingNotFound is returned when a booking id is unknown.  Handlers
// translate it into a 404 response.
var ErrBookingNotFound = errors.New("booking not found")

// ErrValidation marks malformed input: non-positive guest count, end not
// after start, guest count over capacity.  Never retried; 400 response.
var ErrValidation = errors.New("validation failed")

// ErrForbidden is returned when the caller attempts an operation on a
// booking they do not own without holding the elevated role.  403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict signals a definitive rejection: the requested interval
// overlaps a confirmed booking, or the table is administratively
// unavailable.  The core never retries it; the caller may re-search and
// pick a different interval.  409 response.
var ErrConflict = errors.New("conflict")

// ErrInvalidState is returned when a state transition is requested on a
// booking that is not CONFIRMED, e.g. cancelling an already-cancelled
// booking.  Terminal states never change, so this is safe to surface
// without re-checking.  409 response.
var ErrInvalidState = errors.New("booking is not in a modifiable state")

// ErrLockTimeout is returned when the per-table advisory lock cannot be
// acquired within the configured wait.  It is the only transient error in
// the taxonomy: the identical request is safe to retry with backoff.
// Handlers translate it into 503 with a Retry-After header.
var ErrLockTimeout = errors.New("timed out waiting for table lock")
