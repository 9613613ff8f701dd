// Package service implements the reservation core: the booking
// transaction manager, the availability search and the lifecycle policy.
// Handlers stay thin; everything that decides whether a booking exists
// lives here, behind store interfaces so the same logic runs against
// MySQL in production and the in-memory store in tests.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// TableStore is the resource registry view the booking core consumes.
// Implemented by repository.TableRepo and repository.MemoryStore.
type TableStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Table, error)
	FreeBetween(ctx context.Context, q repository.FreeTablesQuery) ([]model.Table, error)
	CountFreeBetween(ctx context.Context, q repository.FreeTablesQuery) (int64, error)
}

// BookingStore is the booking persistence view the transaction manager
// consumes.  InTableScope is the serialization primitive: it must hold
// an exclusive per-table lock for the whole duration of fn and make fn's
// writes durable before any later scope for the same table observes the
// calendar.  Implemented by repository.BookingRepo and
// repository.MemoryStore.
type BookingStore interface {
	InTableScope(ctx context.Context, tableID uint64, fn func(tx repository.BookingTx) error) error
	BookingByID(ctx context.Context, id uint64) (*model.Booking, error)
	List(ctx context.Context, f repository.BookingFilter) ([]model.Booking, error)
	Count(ctx context.Context, f repository.BookingFilter) (int64, error)
}

// BookingService owns the create / extend / cancel transitions for
// bookings.  Every mutation follows the same protocol: acquire the
// table's exclusion scope, re-check the calendar inside it, then write.
// Skipping the re-check, or running it before the lock, reintroduces the
// double-booking race this service exists to prevent.
//
// The service never retries on its own.  Conflicts are definitive, the
// caller decides whether to pick another interval; only the lock wait is
// bounded internally and surfaces as the retryable ErrLockTimeout.
type BookingService struct {
	tables   TableStore
	bookings BookingStore
	policy   Policy
}

// NewBookingService constructs the service.  All dependencies must be
// non-nil.
func NewBookingService(tables TableStore, bookings BookingStore, policy Policy) *BookingService {
	if tables == nil || bookings == nil {
		panic("nil store passed to NewBookingService")
	}
	return &BookingService{tables: tables, bookings: bookings, policy: policy}
}

// Book creates a CONFIRMED booking for the owner on the given table
// starting at start.  The end time is start plus the policy default
// duration.  Inside the table scope it verifies, in order: the table
// exists and is active (ErrTableNotFound), the table is administratively
// AVAILABLE (ErrConflict), the guest count fits policy and capacity
// (ErrValidation), and no confirmed booking overlaps [start, end)
// (ErrConflict).  On success the new booking is durable and visible to
// every subsequent overlap check before Book returns.
func (s *BookingService) Book(ctx context.Context, ownerID, tableID uint64, start time.Time, guests uint32, note *string) (*model.Booking, error) {
	if start.IsZero() {
		return nil, fmt.Errorf("%w: start time is required", repository.ErrValidation)
	}
	start = start.UTC()
	end := s.policy.DefaultEnd(start)

	var booked *model.Booking
	err := s.bookings.InTableScope(ctx, tableID, func(tx repository.BookingTx) error {
		table, err := tx.TableByID(ctx, tableID)
		if err != nil {
			return err
		}
		if !table.IsActive {
			return fmt.Errorf("%w: table %d", repository.ErrTableNotFound, tableID)
		}
		if table.Status != model.TableStatusAvailable {
			// Administrative unavailability is a conflict regardless of
			// what the calendar says.
			return fmt.Errorf("%w: table %d is %s", repository.ErrConflict, tableID, table.Status)
		}
		if err := s.policy.ValidateGuestCount(guests, table); err != nil {
			return err
		}
		overlap, err := tx.HasOverlap(ctx, tableID, start, end, 0)
		if err != nil {
			return err
		}
		if overlap {
			return fmt.Errorf("%w: table %d is already booked between %s and %s",
				repository.ErrConflict, tableID, start.Format(time.RFC3339), end.Format(time.RFC3339))
		}
		b := &model.Booking{
			UserID:     ownerID,
			TableID:    tableID,
			StartTime:  start,
			EndTime:    end,
			GuestCount: guests,
			Note:       note,
			Status:     model.BookingStatusConfirmed,
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		booked = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booked, nil
}

// Extend pushes a booking's end time out by additional.  Zero or
// negative extensions are rejected as validation errors rather than
// treated as no-ops, so a client bug never silently succeeds.  The
// conflict check covers only the added interval [oldEnd, newEnd),
// excluding the booking itself; the start time and table never change.
func (s *BookingService) Extend(ctx context.Context, bookingID uint64, actor model.Actor, additional time.Duration) (*model.Booking, error) {
	if additional <= 0 {
		return nil, fmt.Errorf("%w: extension duration must be positive", repository.ErrValidation)
	}
	// Plain read to learn the table id; everything is re-checked inside
	// the scope because the booking may change between these two reads.
	current, err := s.bookings.BookingByID(ctx, bookingID)
	if err != nil {
		return nil, wrapBookingLookup(err, bookingID)
	}
	if !s.policy.CanModify(actor, current) {
		return nil, fmt.Errorf("%w: booking %d belongs to another user", repository.ErrForbidden, bookingID)
	}

	var extended *model.Booking
	err = s.bookings.InTableScope(ctx, current.TableID, func(tx repository.BookingTx) error {
		b, err := tx.BookingByID(ctx, bookingID)
		if err != nil {
			return wrapBookingLookup(err, bookingID)
		}
		if b.Status != model.BookingStatusConfirmed {
			return fmt.Errorf("%w: booking %d is %s", repository.ErrInvalidState, bookingID, b.Status)
		}
		newEnd := b.EndTime.Add(additional)
		overlap, err := tx.HasOverlap(ctx, b.TableID, b.EndTime, newEnd, b.ID)
		if err != nil {
			return err
		}
		if overlap {
			return fmt.Errorf("%w: table %d is booked after %s",
				repository.ErrConflict, b.TableID, b.EndTime.Format(time.RFC3339))
		}
		if err := tx.UpdateBookingEnd(ctx, b.ID, newEnd); err != nil {
			return err
		}
		b.EndTime = newEnd
		extended = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return extended, nil
}

// Cancel transitions a CONFIRMED booking to CANCELLED.  The row is kept
// for history; the vacated interval becomes available to overlap checks
// the moment the transaction commits.  Cancellation only narrows the
// confirmed set, so it would be correct without the scope, but it reuses
// it so every mutation follows one protocol.
func (s *BookingService) Cancel(ctx context.Context, bookingID uint64, actor model.Actor) (*model.Booking, error) {
	current, err := s.bookings.BookingByID(ctx, bookingID)
	if err != nil {
		return nil, wrapBookingLookup(err, bookingID)
	}
	if !s.policy.CanModify(actor, current) {
		return nil, fmt.Errorf("%w: booking %d belongs to another user", repository.ErrForbidden, bookingID)
	}

	var cancelled *model.Booking
	err = s.bookings.InTableScope(ctx, current.TableID, func(tx repository.BookingTx) error {
		b, err := tx.BookingByID(ctx, bookingID)
		if err != nil {
			return wrapBookingLookup(err, bookingID)
		}
		if b.Status != model.BookingStatusConfirmed {
			return fmt.Errorf("%w: booking %d is %s", repository.ErrInvalidState, bookingID, b.Status)
		}
		if err := tx.UpdateBookingStatus(ctx, b.ID, model.BookingStatusCancelled); err != nil {
			return err
		}
		b.Status = model.BookingStatusCancelled
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// Get returns a single booking, enforcing that only the owner or an
// elevated actor may read it.
func (s *BookingService) Get(ctx context.Context, bookingID uint64, actor model.Actor) (*model.Booking, error) {
	b, err := s.bookings.BookingByID(ctx, bookingID)
	if err != nil {
		return nil, wrapBookingLookup(err, bookingID)
	}
	if !s.policy.CanModify(actor, b) {
		return nil, fmt.Errorf("%w: booking %d belongs to another user", repository.ErrForbidden, bookingID)
	}
	return b, nil
}

// List returns bookings matching the filter along with the total match
// count for pagination metadata.  Non-elevated actors are pinned to
// their own bookings regardless of the requested filter.
func (s *BookingService) List(ctx context.Context, actor model.Actor, f repository.BookingFilter) ([]model.Booking, int64, error) {
	if !actor.Elevated() {
		f.UserID = actor.ID
	}
	items, err := s.bookings.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.bookings.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func wrapBookingLookup(err error, id uint64) error {
	if err == repository.ErrBookingNotFound {
		return fmt.Errorf("%w: booking %d", repository.ErrBookingNotFound, id)
	}
	return err
}
