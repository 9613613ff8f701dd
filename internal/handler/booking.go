package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	"github.com/iliyamo/restaurant-table-reservation/internal/service"
)

// BookingHandler exposes booking create, extend, cancel and read
// endpoints.  After a successful mutation it publishes an event to the
// broker; publishing is fire-and-forget because the booking already
// committed.
type BookingHandler struct {
	Svc    *service.BookingService
	Tables *repository.TableRepo // location lookups for event payloads
}

func NewBookingHandler(s *service.BookingService, t *repository.TableRepo) *BookingHandler {
	return &BookingHandler{Svc: s, Tables: t}
}

type createBookingReq struct {
	TableID    uint64 `json:"table_id"`
	StartTime  string `json:"start_time"` // RFC3339
	GuestCount uint32 `json:"guest_count"`
	Note       string `json:"note"`
}

type extendBookingReq struct {
	AdditionalMinutes int `json:"additional_minutes"`
}

// Create handles POST /v1/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_id required"})
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be RFC3339"})
	}
	var note *string
	if n := strings.TrimSpace(req.Note); n != "" {
		note = &n
	}

	a := actor(c)
	b, err := h.Svc.Book(c.Request().Context(), a.ID, req.TableID, start, req.GuestCount, note)
	if err != nil {
		return writeDomainError(c, err)
	}

	go h.publishConfirmed(b)
	return c.JSON(http.StatusCreated, b)
}

// Extend handles PATCH /v1/bookings/:id/extend.
func (h *BookingHandler) Extend(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req extendBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	b, err := h.Svc.Extend(c.Request().Context(), id, actor(c),
		time.Duration(req.AdditionalMinutes)*time.Minute)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel handles DELETE /v1/bookings/:id.  The row is kept as CANCELLED
// history and the interval becomes immediately bookable again.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	a := actor(c)
	b, err := h.Svc.Cancel(c.Request().Context(), id, a)
	if err != nil {
		return writeDomainError(c, err)
	}

	go h.publishCancelled(b, a.ID)
	return c.JSON(http.StatusOK, b)
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Svc.Get(c.Request().Context(), id, actor(c))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// List handles GET /v1/bookings.  Guests always see only their own
// bookings; admins may filter by user_id, table_id, status and day.
func (h *BookingHandler) List(c echo.Context) error {
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	size := queryInt(c, "page_size", 20)
	if size < 1 || size > 100 {
		size = 20
	}
	f := repository.BookingFilter{
		UserID:  uint64(queryInt(c, "user_id", 0)),
		TableID: uint64(queryInt(c, "table_id", 0)),
		Status:  strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))),
		Limit:   size,
		Offset:  (page - 1) * size,
	}
	if raw := c.QueryParam("day"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "day must be YYYY-MM-DD"})
		}
		f.Day = &day
	}

	items, total, err := h.Svc.List(c.Request().Context(), actor(c), f)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, pagedResponse{Items: items, Total: total, Page: page, PageSize: size})
}

func (h *BookingHandler) publishConfirmed(b *model.Booking) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	location := ""
	if t, err := h.Tables.GetByID(ctx, b.TableID); err == nil {
		location = t.Location
	}
	_ = queue.PublishBookingConfirmed(ctx, queue.BookingConfirmedEvent{
		BookingID:  b.ID,
		UserID:     b.UserID,
		TableID:    b.TableID,
		Location:   location,
		StartTime:  b.StartTime.UTC().Format(time.RFC3339),
		EndTime:    b.EndTime.UTC().Format(time.RFC3339),
		GuestCount: b.GuestCount,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *BookingHandler) publishCancelled(b *model.Booking, cancelledBy uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = queue.PublishBookingCancelled(ctx, queue.BookingCancelledEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		CancelledBy: cancelledBy,
		TableID:     b.TableID,
		StartTime:   b.StartTime.UTC().Format(time.RFC3339),
		EndTime:     b.EndTime.UTC().Format(time.RFC3339),
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	})
}
