package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// BookingTx is the set of operations available while the per-table
// advisory lock is held.  The booking service runs its check-then-write
// sequence exclusively through this interface, so an overlap check can
// never be evaluated outside the lock scope.  It is implemented by the
// MySQL transaction wrapper below and by the in-memory store used in
// tests.
type BookingTx interface {
	// TableByID loads a table row inside the transaction.  Returns
	// ErrTableNotFound when the row is missing.
	TableByID(ctx context.Context, id uint64) (*model.Table, error)
	// BookingByID loads a booking row inside the transaction.  Returns
	// ErrBookingNotFound when the row is missing.
	BookingByID(ctx context.Context, id uint64) (*model.Booking, error)
	// HasOverlap reports whether any CONFIRMED booking for the table
	// intersects the half-open interval [start, end).  excludeID skips
	// one booking so an extension does not conflict with itself; pass 0
	// to exclude nothing.
	HasOverlap(ctx context.Context, tableID uint64, start, end time.Time, excludeID uint64) (bool, error)
	// InsertBooking persists a new booking and populates its id and
	// timestamps.
	InsertBooking(ctx context.Context, b *model.Booking) error
	// UpdateBookingEnd moves a booking's end time.  Start time and table
	// never change on extension.
	UpdateBookingEnd(ctx context.Context, id uint64, end time.Time) error
	// UpdateBookingStatus applies a status transition.
	UpdateBookingStatus(ctx context.Context, id uint64, status string) error
}

// BookingRepo provides access to the `bookings` table and owns the
// serialization protocol for mutating it: an exclusive advisory lock
// keyed by table id, acquired before any availability check and held
// until the transaction commits or aborts.  Two concurrent bookings for
// the same table therefore always see each other's writes; bookings for
// different tables never block each other.
type BookingRepo struct {
	db       *sql.DB
	lockWait time.Duration
}

// NewBookingRepo returns a BookingRepo bound to the database.  lockWait
// bounds how long InTableScope blocks waiting for a table's lock before
// giving up with ErrLockTimeout.
func NewBookingRepo(db *sql.DB, lockWait time.Duration) *BookingRepo {
	return &BookingRepo{db: db, lockWait: lockWait}
}

// InTableScope runs fn inside a transaction while holding the advisory
// lock for tableID.  The sequence is lock, begin, fn (check then write),
// commit, unlock.  GET_LOCK is session-scoped in MySQL, so the lock and
// the transaction must live on the same pooled connection; a dedicated
// *sql.Conn guarantees that, and the lock is always released on the same
// session before the connection returns to the pool.
//
// Returns ErrLockTimeout when the lock is not granted within the
// configured wait; any error from fn rolls the transaction back and is
// returned unchanged.
func (r *BookingRepo) InTableScope(ctx context.Context, tableID uint64, fn func(tx BookingTx) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	lockName := fmt.Sprintf("booking.table.%d", tableID)
	waitSec := int(r.lockWait / time.Second)
	if waitSec < 1 {
		waitSec = 1
	}
	var granted sql.NullInt64
	if err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, ?)`, lockName, waitSec).Scan(&granted); err != nil {
		return err
	}
	if !granted.Valid || granted.Int64 != 1 {
		return ErrLockTimeout
	}
	// Release on the same session no matter how fn ends.  The background
	// context keeps the release working even when the request context has
	// already been cancelled.
	defer func() {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), `DO RELEASE_LOCK(?)`, lockName)
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&bookingTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

const bookingColumns = `id, user_id, table_id, start_time, end_time, guest_count, note, status, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }, b *model.Booking) error {
	var note sql.NullString
	err := row.Scan(&b.ID, &b.UserID, &b.TableID, &b.StartTime, &b.EndTime,
		&b.GuestCount, &note, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return err
	}
	if note.Valid {
		n := note.String
		b.Note = &n
	}
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	return nil
}

// BookingByID returns a booking by id with a plain read, outside any
// lock scope.  The service uses it to discover the table id before
// acquiring the scope and re-reading authoritatively.
func (r *BookingRepo) BookingByID(ctx context.Context, id uint64) (*model.Booking, error) {
	var b model.Booking
	err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id), &b)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// BookingFilter narrows List and Count.  Zero values mean "no filter".
// Day restricts to bookings starting within that calendar day in UTC.
type BookingFilter struct {
	UserID  uint64
	TableID uint64
	Status  string
	Day     *time.Time
	Limit   int
	Offset  int
}

func bookingFilterWhere(f BookingFilter) (string, []any) {
	where := []string{"1=1"}
	args := []any{}
	if f.UserID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.TableID != 0 {
		where = append(where, "table_id = ?")
		args = append(args, f.TableID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Day != nil {
		dayStart := time.Date(f.Day.Year(), f.Day.Month(), f.Day.Day(), 0, 0, 0, 0, time.UTC)
		where = append(where, "start_time >= ? AND start_time < ?")
		args = append(args, dayStart, dayStart.Add(24*time.Hour))
	}
	return strings.Join(where, " AND "), args
}

// List returns bookings matching the filter, newest start first.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	cond, args := bookingFilterWhere(f)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE `+cond+`
		 ORDER BY start_time DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0, f.Limit)
	for rows.Next() {
		var b model.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count mirrors List for pagination metadata.
func (r *BookingRepo) Count(ctx context.Context, f BookingFilter) (int64, error) {
	cond, args := bookingFilterWhere(f)
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE `+cond, args...).Scan(&total)
	return total, err
}

// bookingTx implements BookingTx over a live *sql.Tx.
type bookingTx struct {
	tx *sql.Tx
}

func (t *bookingTx) TableByID(ctx context.Context, id uint64) (*model.Table, error) {
	var tb model.Table
	err := scanTable(t.tx.QueryRowContext(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE id = ?`, id), &tb)
	if err == sql.ErrNoRows {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tb, nil
}

func (t *bookingTx) BookingByID(ctx context.Context, id uint64) (*model.Booking, error) {
	var b model.Booking
	err := scanBooking(t.tx.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id), &b)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *bookingTx) HasOverlap(ctx context.Context, tableID uint64, start, end time.Time, excludeID uint64) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE table_id = ?
			  AND status = ?
			  AND id <> ?
			  AND start_time < ?
			  AND end_time > ?
		)`,
		tableID, model.BookingStatusConfirmed, excludeID, end.UTC(), start.UTC()).Scan(&exists)
	return exists, err
}

func (t *bookingTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO bookings (user_id, table_id, start_time, end_time, guest_count, note, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.TableID, b.StartTime.UTC(), b.EndTime.UTC(), b.GuestCount, b.Note, b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return scanBooking(t.tx.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, b.ID), b)
}

func (t *bookingTx) UpdateBookingEnd(ctx context.Context, id uint64, end time.Time) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE bookings SET end_time = ? WHERE id = ?`, end.UTC(), id)
	return err
}

func (t *bookingTx) UpdateBookingStatus(ctx context.Context, id uint64, status string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ?`, status, id)
	return err
}
