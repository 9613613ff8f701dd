package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// TableRepo provides CRUD operations over the `tables` table and the
// availability query that backs the search endpoint.  Administrative
// metadata (capacity, status, active flag) is mutated only through this
// repository; the booking service reads it with ordinary non-locking
// reads and tolerates brief staleness.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

const tableColumns = `id, capacity, location, status, is_active, created_at, updated_at`

func scanTable(row interface{ Scan(...any) error }, t *model.Table) error {
	return row.Scan(&t.ID, &t.Capacity, &t.Location, &t.Status, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
}

// Create inserts a new table and populates the generated id and
// timestamps on the provided struct.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tables (capacity, location, status, is_active) VALUES (?, ?, ?, ?)`,
		t.Capacity, t.Location, t.Status, t.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return scanTable(r.db.QueryRowContext(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE id = ?`, t.ID), t)
}

// GetByID returns a table by id regardless of its active flag so that
// administrators can inspect deactivated tables.  Returns
// ErrTableNotFound when no row exists.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	var t model.Table
	err := scanTable(r.db.QueryRowContext(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE id = ?`, id), &t)
	if err == sql.ErrNoRows {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Update rewrites a table's mutable columns (capacity, location, status,
// active flag).  Returns ErrTableNotFound when the id is unknown.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tables SET capacity = ?, location = ?, status = ?, is_active = ? WHERE id = ?`,
		t.Capacity, t.Location, t.Status, t.IsActive, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is 0 both for a missing row and a no-op update;
		// confirm existence before reporting not found.
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM tables WHERE id = ?)`, t.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrTableNotFound
		}
	}
	return scanTable(r.db.QueryRowContext(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE id = ?`, t.ID), t)
}

// Deactivate soft deletes a table.  The row and its booking history stay
// in place; the table simply stops appearing in availability results.
func (r *TableRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tables SET is_active = 0 WHERE id = ? AND is_active = 1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// TableListQuery defines filters and pagination for the admin listing.
type TableListQuery struct {
	Status      string // optional administrative status filter
	ActiveOnly  bool   // drop deactivated tables
	MinCapacity uint32 // optional minimum capacity
	Limit       int
	Offset      int
}

// List returns tables matching the query ordered by id, plus the total
// number of matches for pagination metadata.
func (r *TableRepo) List(ctx context.Context, q TableListQuery) ([]model.Table, int64, error) {
	where := []string{"1=1"}
	args := []any{}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	if q.ActiveOnly {
		where = append(where, "is_active = 1")
	}
	if q.MinCapacity > 0 {
		where = append(where, "capacity >= ?")
		args = append(args, q.MinCapacity)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tables WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE `+cond+` ORDER BY id ASC LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.Table, 0, q.Limit)
	for rows.Next() {
		var t model.Table
		if err := scanTable(rows, &t); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// FreeTablesQuery describes an availability search: which tables are
// active, administratively AVAILABLE, meet the capacity floor and have no
// confirmed booking overlapping [Start, End).
type FreeTablesQuery struct {
	Start       time.Time
	End         time.Time
	MinCapacity uint32 // 0 means no capacity filter
	Location    string // optional case-insensitive substring match
	Limit       int
	Offset      int
}

// freeTablesWhere builds the shared predicate for FreeBetween and
// CountFreeBetween.  The anti-join mirrors the overlap predicate used by
// the booking transaction: a candidate table is excluded as soon as one
// confirmed booking satisfies start < q.End AND end > q.Start.
func freeTablesWhere(q FreeTablesQuery) (string, []any) {
	where := []string{
		"t.is_active = 1",
		"t.status = ?",
		`NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.table_id = t.id
			  AND b.status = ?
			  AND b.start_time < ?
			  AND b.end_time > ?
		)`,
	}
	args := []any{model.TableStatusAvailable, model.BookingStatusConfirmed, q.End.UTC(), q.Start.UTC()}
	if q.MinCapacity > 0 {
		where = append(where, "t.capacity >= ?")
		args = append(args, q.MinCapacity)
	}
	if q.Location != "" {
		where = append(where, "LOWER(t.location) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Location)+"%")
	}
	return strings.Join(where, " AND "), args
}

// FreeBetween returns the free tables for the query ordered by capacity
// ascending (smallest sufficient table first) with ties broken by id for
// determinism.  This is a pure read: the authoritative conflict check
// happens again inside the booking transaction while the table lock is
// held.
func (r *TableRepo) FreeBetween(ctx context.Context, q FreeTablesQuery) ([]model.Table, error) {
	cond, args := freeTablesWhere(q)
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.capacity, t.location, t.status, t.is_active, t.created_at, t.updated_at
		 FROM tables t
		 WHERE `+cond+`
		 ORDER BY t.capacity ASC, t.id ASC
		 LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Table, 0, q.Limit)
	for rows.Next() {
		var t model.Table
		if err := scanTable(rows, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountFreeBetween mirrors FreeBetween for pagination metadata.
func (r *TableRepo) CountFreeBetween(ctx context.Context, q FreeTablesQuery) (int64, error) {
	cond, args := freeTablesWhere(q)
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tables t WHERE `+cond, args...).Scan(&total)
	return total, err
}
