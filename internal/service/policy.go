package service

import (
	"fmt"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// Policy bundles the business rules that surround the booking
// transaction without being part of it: the default duration applied
// when a caller supplies no end time, the guest count bounds, and the
// authorization predicate for extend/cancel.  It is an explicit value
// built from configuration so tests can vary it per case; there is no
// ambient global.
type Policy struct {
	DefaultDuration time.Duration // end = start + DefaultDuration when no end given
	MinGuests       uint32        // inclusive lower bound for guest count
	MaxGuests       uint32        // inclusive upper bound, 0 disables the cap
}

// DefaultEnd computes the implicit end of a booking starting at start.
// All comparisons in the core happen in UTC, so the start is normalized
// here before the duration is added.
func (p Policy) DefaultEnd(start time.Time) time.Time {
	return start.UTC().Add(p.DefaultDuration)
}

// ValidateGuestCount checks the count against the policy bounds and the
// table's capacity.  All failures are validation errors: the request can
// never succeed as written.
func (p Policy) ValidateGuestCount(count uint32, table *model.Table) error {
	if count == 0 || count < p.MinGuests {
		return fmt.Errorf("%w: guest count %d is below the minimum of %d",
			repository.ErrValidation, count, max32(p.MinGuests, 1))
	}
	if p.MaxGuests > 0 && count > p.MaxGuests {
		return fmt.Errorf("%w: guest count %d is above the maximum of %d",
			repository.ErrValidation, count, p.MaxGuests)
	}
	if table != nil && count > table.Capacity {
		return fmt.Errorf("%w: guest count %d exceeds table %d capacity %d",
			repository.ErrValidation, count, table.ID, table.Capacity)
	}
	return nil
}

// CanModify reports whether the actor may extend or cancel the booking:
// the owner always can, and so can any actor holding the elevated role.
// This is a capability check on the actor value, deliberately separate
// from the transaction logic so authorization rules can evolve on their
// own.
func (p Policy) CanModify(actor model.Actor, b *model.Booking) bool {
	return actor.ID == b.UserID || actor.Elevated()
}

func max32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
