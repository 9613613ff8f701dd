package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// AvailabilityQuery is a caller-facing search request.  End may be zero,
// in which case it defaults to start plus the policy default duration.
// Page is 1-based.
type AvailabilityQuery struct {
	Start       time.Time
	End         time.Time
	MinCapacity uint32
	Location    string
	Page        int
	PageSize    int
}

// AvailabilityService answers "which tables of at least capacity C are
// free for [start, end)?".  It is a pure composition of the table
// registry and the overlap query: no writes, safe to retry, safe to sit
// behind a short-lived response cache.  Correctness of bookings never
// depends on these results being fresh; the booking transaction
// re-checks under the table lock.
type AvailabilityService struct {
	tables   TableStore
	policy   Policy
	pageSize int // default page size when the query carries none
	pageMax  int // hard ceiling on page size
}

// NewAvailabilityService constructs the service with pagination
// defaults from configuration.
func NewAvailabilityService(tables TableStore, policy Policy, pageSize, pageMax int) *AvailabilityService {
	if tables == nil {
		panic("nil table store passed to NewAvailabilityService")
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageMax <= 0 {
		pageMax = 100
	}
	return &AvailabilityService{tables: tables, policy: policy, pageSize: pageSize, pageMax: pageMax}
}

// Search returns the free tables for the query ordered by capacity
// ascending then id, plus the total match count for pagination metadata.
func (s *AvailabilityService) Search(ctx context.Context, q AvailabilityQuery) ([]model.Table, int64, error) {
	if q.Start.IsZero() {
		return nil, 0, fmt.Errorf("%w: start time is required", repository.ErrValidation)
	}
	start := q.Start.UTC()
	end := q.End.UTC()
	if q.End.IsZero() {
		end = s.policy.DefaultEnd(start)
	}
	if !end.After(start) {
		return nil, 0, fmt.Errorf("%w: end time %s is not after start time %s",
			repository.ErrValidation, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = s.pageSize
	}
	if size > s.pageMax {
		size = s.pageMax
	}

	fq := repository.FreeTablesQuery{
		Start:       start,
		End:         end,
		MinCapacity: q.MinCapacity,
		Location:    q.Location,
		Limit:       size,
		Offset:      (page - 1) * size,
	}
	items, err := s.tables.FreeBetween(ctx, fq)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.tables.CountFreeBetween(ctx, fq)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
