package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// MemoryStore is an in-memory implementation of the table and booking
// stores.  It is used by the service tests and works for local
// development without a MySQL instance.  The serialization protocol is
// the same as the SQL implementation: an exclusive per-table lock with a
// bounded wait, acquired before any overlap check and held until the
// scope function returns.  Here the lock is a buffered channel per table
// id; lock-wait expiry maps to ErrLockTimeout exactly like GET_LOCK.
type MemoryStore struct {
	mu          sync.Mutex
	tables      map[uint64]*model.Table
	bookings    map[uint64]*model.Booking
	locks       map[uint64]chan struct{}
	nextTable   uint64
	nextBooking uint64
	lockWait    time.Duration
}

// NewMemoryStore returns an empty store.  lockWait bounds how long
// InTableScope blocks on a contended table.
func NewMemoryStore(lockWait time.Duration) *MemoryStore {
	return &MemoryStore{
		tables:   make(map[uint64]*model.Table),
		bookings: make(map[uint64]*model.Booking),
		locks:    make(map[uint64]chan struct{}),
		lockWait: lockWait,
	}
}

func (s *MemoryStore) tableLock(tableID uint64) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[tableID]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[tableID] = l
	}
	return l
}

// InTableScope serializes fn against all other scopes for the same table
// id.  Scopes for different tables run concurrently.  There is no
// rollback: fn must perform its checks before its writes, which is the
// contract the booking service follows anyway.
func (s *MemoryStore) InTableScope(ctx context.Context, tableID uint64, fn func(tx BookingTx) error) error {
	l := s.tableLock(tableID)
	timer := time.NewTimer(s.lockWait)
	defer timer.Stop()
	select {
	case l <- struct{}{}:
	case <-timer.C:
		return ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l }()
	return fn(&memoryTx{s: s})
}

// AddTable inserts a table, assigning an id when the struct carries none.
func (s *MemoryStore) AddTable(t *model.Table) *model.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		s.nextTable++
		t.ID = s.nextTable
	} else if t.ID > s.nextTable {
		s.nextTable = t.ID
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	cp := *t
	s.tables[t.ID] = &cp
	return t
}

// GetByID returns a copy of the table or ErrTableNotFound.
func (s *MemoryStore) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[id]
	if !ok {
		return nil, ErrTableNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) freeTables(q FreeTablesQuery) []model.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Table, 0)
	for _, t := range s.tables {
		if !t.IsActive || t.Status != model.TableStatusAvailable {
			continue
		}
		if q.MinCapacity > 0 && t.Capacity < q.MinCapacity {
			continue
		}
		if q.Location != "" && !strings.Contains(strings.ToLower(t.Location), strings.ToLower(q.Location)) {
			continue
		}
		if s.hasOverlapLocked(t.ID, q.Start, q.End, 0) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Capacity != out[j].Capacity {
			return out[i].Capacity < out[j].Capacity
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FreeBetween mirrors the SQL availability query: active, AVAILABLE,
// capacity floor, location substring, no confirmed overlap; ordered by
// capacity then id.
func (s *MemoryStore) FreeBetween(ctx context.Context, q FreeTablesQuery) ([]model.Table, error) {
	all := s.freeTables(q)
	if q.Offset >= len(all) {
		return []model.Table{}, nil
	}
	all = all[q.Offset:]
	if q.Limit > 0 && q.Limit < len(all) {
		all = all[:q.Limit]
	}
	return all, nil
}

// CountFreeBetween mirrors FreeBetween for pagination metadata.
func (s *MemoryStore) CountFreeBetween(ctx context.Context, q FreeTablesQuery) (int64, error) {
	return int64(len(s.freeTables(q))), nil
}

func (s *MemoryStore) hasOverlapLocked(tableID uint64, start, end time.Time, excludeID uint64) bool {
	for _, b := range s.bookings {
		if b.TableID != tableID || b.ID == excludeID || b.Status != model.BookingStatusConfirmed {
			continue
		}
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// BookingByID returns a copy of the booking or ErrBookingNotFound.
func (s *MemoryStore) BookingByID(ctx context.Context, id uint64) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

// List returns bookings matching the filter, newest start first.
func (s *MemoryStore) List(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	all := s.filterBookings(f)
	if f.Offset >= len(all) {
		return []model.Booking{}, nil
	}
	all = all[f.Offset:]
	if f.Limit > 0 && f.Limit < len(all) {
		all = all[:f.Limit]
	}
	return all, nil
}

// Count mirrors List for pagination metadata.
func (s *MemoryStore) Count(ctx context.Context, f BookingFilter) (int64, error) {
	return int64(len(s.filterBookings(f))), nil
}

func (s *MemoryStore) filterBookings(f BookingFilter) []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, 0)
	for _, b := range s.bookings {
		if f.UserID != 0 && b.UserID != f.UserID {
			continue
		}
		if f.TableID != 0 && b.TableID != f.TableID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.Day != nil {
			dayStart := time.Date(f.Day.Year(), f.Day.Month(), f.Day.Day(), 0, 0, 0, 0, time.UTC)
			if b.StartTime.Before(dayStart) || !b.StartTime.Before(dayStart.Add(24*time.Hour)) {
				continue
			}
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// memoryTx implements BookingTx against the parent store.  Each call
// takes the store mutex on its own; mutual exclusion across the whole
// check-then-write sequence comes from the per-table scope lock.
type memoryTx struct {
	s *MemoryStore
}

func (t *memoryTx) TableByID(ctx context.Context, id uint64) (*model.Table, error) {
	return t.s.GetByID(ctx, id)
}

func (t *memoryTx) BookingByID(ctx context.Context, id uint64) (*model.Booking, error) {
	return t.s.BookingByID(ctx, id)
}

func (t *memoryTx) HasOverlap(ctx context.Context, tableID uint64, start, end time.Time, excludeID uint64) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.hasOverlapLocked(tableID, start, end, excludeID), nil
}

func (t *memoryTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.nextBooking++
	b.ID = t.s.nextBooking
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	cp := *b
	t.s.bookings[b.ID] = &cp
	return nil
}

func (t *memoryTx) UpdateBookingEnd(ctx context.Context, id uint64, end time.Time) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	b, ok := t.s.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	b.EndTime = end.UTC()
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *memoryTx) UpdateBookingStatus(ctx context.Context, id uint64, status string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	b, ok := t.s.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	b.Status = status
	b.UpdatedAt = time.Now().UTC()
	return nil
}
