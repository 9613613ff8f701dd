package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	"github.com/iliyamo/restaurant-table-reservation/internal/service"
)

var testPolicy = service.Policy{
	DefaultDuration: 4 * time.Hour,
	MinGuests:       1,
}

func newBookingFixture(t *testing.T, lockWait time.Duration) (*service.BookingService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore(lockWait)
	return service.NewBookingService(store, store, testPolicy), store
}

func addTable(store *repository.MemoryStore, capacity uint32) *model.Table {
	return store.AddTable(&model.Table{
		Capacity: capacity,
		Location: "window",
		Status:   model.TableStatusAvailable,
		IsActive: true,
	})
}

func at(hour int) time.Time {
	return time.Date(2026, time.September, 1, hour, 0, 0, 0, time.UTC)
}

func TestBookCreatesConfirmedBooking(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	b, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.NotZero(t, b.ID)
	assert.Equal(t, model.BookingStatusConfirmed, b.Status)
	assert.Equal(t, at(18), b.StartTime)
	assert.Equal(t, at(22), b.EndTime, "end defaults to start plus the policy duration")
	assert.Equal(t, uint64(7), b.UserID)
}

func TestBookRejectsMissingStart(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	_, err := svc.Book(context.Background(), 7, table.ID, time.Time{}, 2, nil)
	assert.ErrorIs(t, err, repository.ErrValidation)
}

func TestBookUnknownTable(t *testing.T) {
	svc, _ := newBookingFixture(t, time.Second)

	_, err := svc.Book(context.Background(), 7, 999, at(18), 2, nil)
	assert.ErrorIs(t, err, repository.ErrTableNotFound)
}

func TestBookInactiveTableLooksMissing(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := store.AddTable(&model.Table{
		Capacity: 4,
		Status:   model.TableStatusAvailable,
		IsActive: false,
	})

	_, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	assert.ErrorIs(t, err, repository.ErrTableNotFound)
}

func TestBookMaintenanceTableConflicts(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := store.AddTable(&model.Table{
		Capacity: 4,
		Status:   model.TableStatusMaintenance,
		IsActive: true,
	})

	_, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestBookGuestCountAboveCapacity(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	_, err := svc.Book(context.Background(), 7, table.ID, at(18), 6, nil)
	assert.ErrorIs(t, err, repository.ErrValidation)
}

func TestBookOverlapConflicts(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	_, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	require.NoError(t, err)

	// Second booking starts inside the first one's interval.
	_, err = svc.Book(context.Background(), 8, table.ID, at(20), 2, nil)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestBookBackToBackIsLegal(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	first, err := svc.Book(context.Background(), 7, table.ID, at(14), 2, nil)
	require.NoError(t, err)
	require.Equal(t, at(18), first.EndTime)

	// Starts exactly when the first one ends; half-open intervals do not
	// touch.
	second, err := svc.Book(context.Background(), 8, table.ID, at(18), 2, nil)
	require.NoError(t, err)
	assert.Equal(t, at(18), second.StartTime)
}

func TestBookAfterCancelFreesInterval(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	b, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), b.ID, model.Actor{ID: 7, Role: model.RoleGuest})
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), 8, table.ID, at(18), 2, nil)
	assert.NoError(t, err, "cancelled bookings must not block the interval")
}

func TestConcurrentBookingsExactlyOneWins(t *testing.T) {
	svc, store := newBookingFixture(t, 2*time.Second)
	table := addTable(store, 4)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Book(context.Background(), uint64(100+i), table.ID, at(18), 2, nil)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, repository.ErrConflict)
		}
	}
	assert.Equal(t, 1, wins, "same interval on the same table must be booked exactly once")

	total, err := store.Count(context.Background(), repository.BookingFilter{
		TableID: table.ID,
		Status:  model.BookingStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestConcurrentBookingsDifferentTablesAllWin(t *testing.T) {
	svc, store := newBookingFixture(t, 2*time.Second)

	const n = 4
	tables := make([]uint64, n)
	for i := range tables {
		tables[i] = addTable(store, 4).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Book(context.Background(), uint64(200+i), tables[i], at(18), 2, nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "table %d", tables[i])
	}
}

func TestBookLockTimeout(t *testing.T) {
	svc, store := newBookingFixture(t, 50*time.Millisecond)
	table := addTable(store, 4)

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = store.InTableScope(context.Background(), table.ID, func(tx repository.BookingTx) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding
	defer close(release)

	_, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	assert.ErrorIs(t, err, repository.ErrLockTimeout)
}

func TestExtendMovesEndTime(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	b, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	require.NoError(t, err)

	owner := model.Actor{ID: 7, Role: model.RoleGuest}
	extended, err := svc.Extend(context.Background(), b.ID, owner, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, b.EndTime.Add(30*time.Minute), extended.EndTime)
	assert.Equal(t, b.StartTime, extended.StartTime, "extension never moves the start")
}

func TestExtendZeroOrNegativeIsValidationError(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	b, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	require.NoError(t, err)

	owner := model.Actor{ID: 7, Role: model.RoleGuest}
	for _, d := range []time.Duration{0, -time.Hour} {
		_, err := svc.Extend(context.Background(), b.ID, owner, d)
		assert.ErrorIs(t, err, repository.ErrValidation, "duration %s", d)
	}
}

func TestExtendConflictsWithFollowingBooking(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	first, err := svc.Book(context.Background(), 7, table.ID, at(14), 2, nil)
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), 8, table.ID, at(18), 2, nil)
	require.NoError(t, err)

	owner := model.Actor{ID: 7, Role: model.RoleGuest}
	_, err = svc.Extend(context.Background(), first.ID, owner, 30*time.Minute)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestExtendDoesNotConflictWithItself(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	b, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	require.NoError(t, err)

	owner := model.Actor{ID: 7, Role: model.RoleGuest}
	_, err = svc.Extend(context.Background(), b.ID, owner, time.Hour)
	assert.NoError(t, err)
}

func TestExtendByNonOwnerForbidden(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	b, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	require.NoError(t, err)

	stranger := model.Actor{ID: 9, Role: model.RoleGuest}
	_, err = svc.Extend(context.Background(), b.ID, stranger, time.Hour)
	assert.ErrorIs(t, err, repository.ErrForbidden)
}

func TestExtendByAdminAllowed(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	b, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	require.NoError(t, err)

	admin := model.Actor{ID: 1, Role: model.RoleAdmin}
	_, err = svc.Extend(context.Background(), b.ID, admin, time.Hour)
	assert.NoError(t, err)
}

func TestExtendCancelledBookingInvalidState(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	owner := model.Actor{ID: 7, Role: model.RoleGuest}
	b, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), b.ID, owner)
	require.NoError(t, err)

	_, err = svc.Extend(context.Background(), b.ID, owner, time.Hour)
	assert.ErrorIs(t, err, repository.ErrInvalidState)
}

func TestCancelTransitionsToCancelled(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	owner := model.Actor{ID: 7, Role: model.RoleGuest}
	b, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), b.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)

	// The row is kept as history.
	got, err := store.BookingByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, got.Status)
}

func TestCancelTwiceInvalidState(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	owner := model.Actor{ID: 7, Role: model.RoleGuest}
	b, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), b.ID, owner)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), b.ID, owner)
	assert.ErrorIs(t, err, repository.ErrInvalidState)
}

func TestCancelByNonOwnerForbidden(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	b, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), b.ID, model.Actor{ID: 9, Role: model.RoleGuest})
	assert.ErrorIs(t, err, repository.ErrForbidden)

	got, err := store.BookingByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, got.Status, "rejected cancel must not touch the booking")
}

func TestCancelUnknownBooking(t *testing.T) {
	svc, _ := newBookingFixture(t, time.Second)

	_, err := svc.Cancel(context.Background(), 404, model.Actor{ID: 7, Role: model.RoleGuest})
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)

	b, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), b.ID, model.Actor{ID: 7, Role: model.RoleGuest})
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), b.ID, model.Actor{ID: 9, Role: model.RoleGuest})
	assert.ErrorIs(t, err, repository.ErrForbidden)

	_, err = svc.Get(context.Background(), b.ID, model.Actor{ID: 1, Role: model.RoleAdmin})
	assert.NoError(t, err)
}

func TestListPinsGuestsToTheirOwnBookings(t *testing.T) {
	svc, store := newBookingFixture(t, time.Second)
	table := addTable(store, 4)
	other := addTable(store, 4)

	_, err := svc.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), 8, other.ID, at(18), 2, nil)
	require.NoError(t, err)

	// The guest asks for someone else's bookings; the filter is pinned
	// back to their own.
	items, total, err := svc.List(context.Background(), model.Actor{ID: 7, Role: model.RoleGuest},
		repository.BookingFilter{UserID: 8, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, uint64(7), items[0].UserID)

	// The admin sees whatever the filter says.
	_, total, err = svc.List(context.Background(), model.Actor{ID: 1, Role: model.RoleAdmin},
		repository.BookingFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
