package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

func ts(h int) time.Time {
	return time.Date(2026, time.September, 1, h, 0, 0, 0, time.UTC)
}

func TestInTableScopeSerializesSameTable(t *testing.T) {
	store := NewMemoryStore(2 * time.Second)
	table := store.AddTable(&model.Table{Capacity: 4, Status: model.TableStatusAvailable, IsActive: true})

	var inScope, maxInScope int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.InTableScope(context.Background(), table.ID, func(tx BookingTx) error {
				mu.Lock()
				inScope++
				if inScope > maxInScope {
					maxInScope = inScope
				}
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				mu.Lock()
				inScope--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxInScope, "at most one scope may run per table")
}

func TestInTableScopeTimesOut(t *testing.T) {
	store := NewMemoryStore(30 * time.Millisecond)

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = store.InTableScope(context.Background(), 1, func(tx BookingTx) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding
	defer close(release)

	err := store.InTableScope(context.Background(), 1, func(tx BookingTx) error { return nil })
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestInTableScopeHonorsContextCancellation(t *testing.T) {
	store := NewMemoryStore(10 * time.Second)

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = store.InTableScope(context.Background(), 1, func(tx BookingTx) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := store.InTableScope(ctx, 1, func(tx BookingTx) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInTableScopeDifferentTablesDoNotBlock(t *testing.T) {
	store := NewMemoryStore(100 * time.Millisecond)

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = store.InTableScope(context.Background(), 1, func(tx BookingTx) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding
	defer close(release)

	err := store.InTableScope(context.Background(), 2, func(tx BookingTx) error { return nil })
	assert.NoError(t, err)
}

func TestMemoryTxInsertAndOverlap(t *testing.T) {
	store := NewMemoryStore(time.Second)
	table := store.AddTable(&model.Table{Capacity: 4, Status: model.TableStatusAvailable, IsActive: true})

	err := store.InTableScope(context.Background(), table.ID, func(tx BookingTx) error {
		require.NoError(t, tx.InsertBooking(context.Background(), &model.Booking{
			UserID:     7,
			TableID:    table.ID,
			StartTime:  ts(18),
			EndTime:    ts(20),
			GuestCount: 2,
			Status:     model.BookingStatusConfirmed,
		}))

		overlap, err := tx.HasOverlap(context.Background(), table.ID, ts(19), ts(21), 0)
		require.NoError(t, err)
		assert.True(t, overlap)

		// Abutting interval.
		overlap, err = tx.HasOverlap(context.Background(), table.ID, ts(20), ts(22), 0)
		require.NoError(t, err)
		assert.False(t, overlap)

		// Excluding the booking itself.
		overlap, err = tx.HasOverlap(context.Background(), table.ID, ts(19), ts(21), 1)
		require.NoError(t, err)
		assert.False(t, overlap)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStoreListFilters(t *testing.T) {
	store := NewMemoryStore(time.Second)
	table := store.AddTable(&model.Table{Capacity: 4, Status: model.TableStatusAvailable, IsActive: true})

	insert := func(user uint64, startH int, status string) {
		err := store.InTableScope(context.Background(), table.ID, func(tx BookingTx) error {
			return tx.InsertBooking(context.Background(), &model.Booking{
				UserID:     user,
				TableID:    table.ID,
				StartTime:  ts(startH),
				EndTime:    ts(startH + 1),
				GuestCount: 2,
				Status:     status,
			})
		})
		require.NoError(t, err)
	}
	insert(7, 10, model.BookingStatusConfirmed)
	insert(7, 12, model.BookingStatusCancelled)
	insert(8, 14, model.BookingStatusConfirmed)

	items, err := store.List(context.Background(), BookingFilter{UserID: 7, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = store.List(context.Background(), BookingFilter{Status: model.BookingStatusConfirmed, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	// Newest start first.
	items, err = store.List(context.Background(), BookingFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, ts(14), items[0].StartTime)

	day := ts(0)
	count, err := store.Count(context.Background(), BookingFilter{Day: &day})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
