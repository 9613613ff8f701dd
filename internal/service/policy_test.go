package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	"github.com/iliyamo/restaurant-table-reservation/internal/service"
)

func TestDefaultEndNormalizesToUTC(t *testing.T) {
	p := service.Policy{DefaultDuration: 2 * time.Hour}
	loc := time.FixedZone("UTC+3", 3*60*60)
	start := time.Date(2026, time.September, 1, 21, 0, 0, 0, loc)

	end := p.DefaultEnd(start)
	assert.Equal(t, time.UTC, end.Location())
	assert.Equal(t, start.UTC().Add(2*time.Hour), end)
}

func TestValidateGuestCountBounds(t *testing.T) {
	p := service.Policy{MinGuests: 2, MaxGuests: 10}
	table := &model.Table{ID: 1, Capacity: 6}

	assert.NoError(t, p.ValidateGuestCount(2, table))
	assert.NoError(t, p.ValidateGuestCount(6, table))
	assert.ErrorIs(t, p.ValidateGuestCount(0, table), repository.ErrValidation)
	assert.ErrorIs(t, p.ValidateGuestCount(1, table), repository.ErrValidation)
	assert.ErrorIs(t, p.ValidateGuestCount(7, table), repository.ErrValidation, "above table capacity")
	assert.ErrorIs(t, p.ValidateGuestCount(11, &model.Table{ID: 2, Capacity: 20}), repository.ErrValidation, "above policy cap")
}

func TestValidateGuestCountNoCap(t *testing.T) {
	p := service.Policy{MinGuests: 1}
	assert.NoError(t, p.ValidateGuestCount(50, &model.Table{ID: 1, Capacity: 60}))
}

func TestCanModify(t *testing.T) {
	p := service.Policy{}
	b := &model.Booking{ID: 1, UserID: 7}

	assert.True(t, p.CanModify(model.Actor{ID: 7, Role: model.RoleGuest}, b), "owner")
	assert.True(t, p.CanModify(model.Actor{ID: 1, Role: model.RoleAdmin}, b), "admin")
	assert.False(t, p.CanModify(model.Actor{ID: 9, Role: model.RoleGuest}, b), "stranger")
}
