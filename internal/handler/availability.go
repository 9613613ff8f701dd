package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/service"
)

// AvailabilityHandler serves the free-table search.  The route is a
// pure read and sits behind the short-lived Redis response cache; a
// stale answer here is harmless because the booking transaction
// re-checks availability under the table lock.
type AvailabilityHandler struct {
	Svc *service.AvailabilityService
}

func NewAvailabilityHandler(s *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{Svc: s}
}

// Search handles GET /v1/tables/free.  Query parameters:
//
//	start        RFC3339, required
//	end          RFC3339, optional (defaults to start + default duration)
//	min_capacity optional minimum seats
//	location     optional substring filter
//	page         1-based page, optional
//	page_size    optional, capped by config
func (h *AvailabilityHandler) Search(c echo.Context) error {
	start, err := time.Parse(time.RFC3339, c.QueryParam("start"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start must be RFC3339"})
	}
	var end time.Time
	if raw := c.QueryParam("end"); raw != "" {
		end, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be RFC3339"})
		}
	}

	q := service.AvailabilityQuery{
		Start:       start,
		End:         end,
		MinCapacity: uint32(queryInt(c, "min_capacity", 0)),
		Location:    c.QueryParam("location"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "page_size", 0),
	}
	items, total, err := h.Svc.Search(c.Request().Context(), q)
	if err != nil {
		return writeDomainError(c, err)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	return c.JSON(http.StatusOK, pagedResponse{Items: items, Total: total, Page: page, PageSize: len(items)})
}
