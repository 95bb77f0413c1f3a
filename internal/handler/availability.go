package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/friluft/booking-server/internal/availability"
	"github.com/friluft/booking-server/internal/timeslot"
)

// AvailabilityHandler exposes the capacity pre-check used by the booking
// form before a reservation is attempted.
type AvailabilityHandler struct {
	Service *availability.Service
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(svc *availability.Service) *AvailabilityHandler {
	if svc == nil {
		panic("nil service passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Service: svc}
}

// Query handles POST /v1/availability.  The response lists the start
// times, on the half hour within opening hours, at which every requested
// resource still clears the full duration.  This is advisory: the ledger
// re-checks capacity when the booking is confirmed.
func (h *AvailabilityHandler) Query(c echo.Context) error {
	var body struct {
		Date          string         `json:"date"`
		DurationHours float64        `json:"duration_hours"`
		Resources     map[string]int `json:"resources"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	starts, err := h.Service.StartTimes(c.Request().Context(), body.Resources, body.Date, body.DurationHours)
	if err != nil {
		if errors.Is(err, availability.ErrBadRequest) ||
			errors.Is(err, timeslot.ErrInvalidRange) ||
			errors.Is(err, timeslot.ErrInvalidTimeFormat) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid availability query"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability lookup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":        body.Date,
		"start_times": starts,
	})
}
