package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	"github.com/iliyamo/restaurant-table-reservation/internal/service"
)

func newAvailabilityFixture(t *testing.T) (*service.AvailabilityService, *service.BookingService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore(time.Second)
	return service.NewAvailabilityService(store, testPolicy, 20, 100),
		service.NewBookingService(store, store, testPolicy),
		store
}

func TestSearchRequiresStart(t *testing.T) {
	avail, _, _ := newAvailabilityFixture(t)

	_, _, err := avail.Search(context.Background(), service.AvailabilityQuery{})
	assert.ErrorIs(t, err, repository.ErrValidation)
}

func TestSearchRejectsInvertedInterval(t *testing.T) {
	avail, _, _ := newAvailabilityFixture(t)

	_, _, err := avail.Search(context.Background(), service.AvailabilityQuery{
		Start: at(18),
		End:   at(17),
	})
	assert.ErrorIs(t, err, repository.ErrValidation)

	// Zero-length intervals are equally meaningless.
	_, _, err = avail.Search(context.Background(), service.AvailabilityQuery{
		Start: at(18),
		End:   at(18),
	})
	assert.ErrorIs(t, err, repository.ErrValidation)
}

func TestSearchExcludesBookedTables(t *testing.T) {
	avail, booking, store := newAvailabilityFixture(t)
	free := addTable(store, 4)
	booked := addTable(store, 4)

	_, err := booking.Book(context.Background(), 7, booked.ID, at(18), 2, nil)
	require.NoError(t, err)

	items, total, err := avail.Search(context.Background(), service.AvailabilityQuery{
		Start: at(19),
		End:   at(20),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, free.ID, items[0].ID)
}

func TestSearchIncludesTableFreeAtQueriedTime(t *testing.T) {
	avail, booking, store := newAvailabilityFixture(t)
	table := addTable(store, 4)

	// Booked 18:00-22:00; querying 14:00-16:00 must still find it.
	_, err := booking.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	require.NoError(t, err)

	_, total, err := avail.Search(context.Background(), service.AvailabilityQuery{
		Start: at(14),
		End:   at(16),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestSearchTreatsAbutmentAsFree(t *testing.T) {
	avail, booking, store := newAvailabilityFixture(t)
	table := addTable(store, 4)

	_, err := booking.Book(context.Background(), 7, table.ID, at(18), 2, nil)
	require.NoError(t, err)

	// Query ends exactly where the booking starts.
	_, total, err := avail.Search(context.Background(), service.AvailabilityQuery{
		Start: at(16),
		End:   at(18),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestSearchFiltersByCapacity(t *testing.T) {
	avail, _, store := newAvailabilityFixture(t)
	addTable(store, 2)
	big := addTable(store, 6)

	items, total, err := avail.Search(context.Background(), service.AvailabilityQuery{
		Start:       at(18),
		End:         at(20),
		MinCapacity: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, big.ID, items[0].ID)
}

func TestSearchExcludesInactiveAndUnavailableTables(t *testing.T) {
	avail, _, store := newAvailabilityFixture(t)
	store.AddTable(&model.Table{Capacity: 4, Status: model.TableStatusAvailable, IsActive: false})
	store.AddTable(&model.Table{Capacity: 4, Status: model.TableStatusMaintenance, IsActive: true})
	visible := addTable(store, 4)

	items, total, err := avail.Search(context.Background(), service.AvailabilityQuery{
		Start: at(18),
		End:   at(20),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, visible.ID, items[0].ID)
}

func TestSearchOrdersByCapacityThenID(t *testing.T) {
	avail, _, store := newAvailabilityFixture(t)
	t6 := addTable(store, 6)
	t2 := addTable(store, 2)
	t4 := addTable(store, 4)

	items, _, err := avail.Search(context.Background(), service.AvailabilityQuery{
		Start: at(18),
		End:   at(20),
	})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []uint64{t2.ID, t4.ID, t6.ID}, []uint64{items[0].ID, items[1].ID, items[2].ID})
}

func TestSearchPagination(t *testing.T) {
	avail, _, store := newAvailabilityFixture(t)
	for i := 0; i < 5; i++ {
		addTable(store, 4)
	}

	first, total, err := avail.Search(context.Background(), service.AvailabilityQuery{
		Start:    at(18),
		End:      at(20),
		Page:     1,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, first, 2)

	last, _, err := avail.Search(context.Background(), service.AvailabilityQuery{
		Start:    at(18),
		End:      at(20),
		Page:     3,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Len(t, last, 1)

	beyond, _, err := avail.Search(context.Background(), service.AvailabilityQuery{
		Start:    at(18),
		End:      at(20),
		Page:     4,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestSearchDefaultsEndToPolicyDuration(t *testing.T) {
	avail, booking, store := newAvailabilityFixture(t)
	table := addTable(store, 4)

	// Booked 20:00-24:00.  A search starting at 18:00 with no end spans
	// four hours and must collide with it.
	_, err := booking.Book(context.Background(), 7, table.ID, at(20), 2, nil)
	require.NoError(t, err)

	_, total, err := avail.Search(context.Background(), service.AvailabilityQuery{Start: at(18)})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSearchFiltersByLocation(t *testing.T) {
	avail, _, store := newAvailabilityFixture(t)
	patio := store.AddTable(&model.Table{Capacity: 4, Location: "Patio North", Status: model.TableStatusAvailable, IsActive: true})
	store.AddTable(&model.Table{Capacity: 4, Location: "window", Status: model.TableStatusAvailable, IsActive: true})

	items, total, err := avail.Search(context.Background(), service.AvailabilityQuery{
		Start:    at(18),
		End:      at(20),
		Location: "patio",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, patio.ID, items[0].ID)
}
