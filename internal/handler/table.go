package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// TableHandler exposes the administrative table registry.  Every route
// sits behind RequireRole(ADMIN); capacity and status changes never
// touch existing bookings.
type TableHandler struct {
	Tables *repository.TableRepo
}

func NewTableHandler(t *repository.TableRepo) *TableHandler { return &TableHandler{Tables: t} }

type tableReq struct {
	Capacity uint32  `json:"capacity"`
	Location string  `json:"location"`
	Status   *string `json:"status"`
	IsActive *bool   `json:"is_active"`
}

// Create registers a new table.  Status defaults to AVAILABLE and the
// table starts active.
func (h *TableHandler) Create(c echo.Context) error {
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
	}
	status := model.TableStatusAvailable
	if req.Status != nil {
		status = strings.ToUpper(strings.TrimSpace(*req.Status))
		if !model.ValidTableStatus(status) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
	}
	t := &model.Table{
		Capacity: req.Capacity,
		Location: strings.TrimSpace(req.Location),
		Status:   status,
		IsActive: true,
	}
	if err := h.Tables.Create(c.Request().Context(), t); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// Get returns a table by id, including deactivated ones.
func (h *TableHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	t, err := h.Tables.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Update applies partial changes to capacity, location, status or the
// active flag.  Omitted fields keep their current value.
func (h *TableHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx := c.Request().Context()
	t, err := h.Tables.GetByID(ctx, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	if req.Capacity > 0 {
		t.Capacity = req.Capacity
	}
	if strings.TrimSpace(req.Location) != "" {
		t.Location = strings.TrimSpace(req.Location)
	}
	if req.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*req.Status))
		if !model.ValidTableStatus(status) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
		t.Status = status
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if err := h.Tables.Update(ctx, t); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Deactivate soft deletes a table.  History stays; the table just stops
// showing up in availability.
func (h *TableHandler) Deactivate(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	if err := h.Tables.Deactivate(c.Request().Context(), id); err != nil {
		return writeDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List returns tables for the admin view with optional filters.
func (h *TableHandler) List(c echo.Context) error {
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	size := queryInt(c, "page_size", 20)
	if size < 1 || size > 100 {
		size = 20
	}
	q := repository.TableListQuery{
		Status:      strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))),
		ActiveOnly:  c.QueryParam("active") == "true",
		MinCapacity: uint32(queryInt(c, "min_capacity", 0)),
		Limit:       size,
		Offset:      (page - 1) * size,
	}
	if q.Status != "" && !model.ValidTableStatus(q.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	items, total, err := h.Tables.List(c.Request().Context(), q)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, pagedResponse{Items: items, Total: total, Page: page, PageSize: size})
}
