package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/friluft/booking-server/internal/booking"
	"github.com/friluft/booking-server/internal/model"
	"github.com/friluft/booking-server/internal/repository"
)

// AdminHandler serves the staff panel's booking views and status actions.
// JWT authentication and the staff role check happen in middleware before
// any of these run.
type AdminHandler struct {
	Manager  *booking.Manager
	Bookings *repository.BookingRepo
	Invoices *repository.InvoiceRepo
	Registry *repository.Registry
}

// NewAdminHandler constructs an AdminHandler.  All dependencies must be
// non-nil.
func NewAdminHandler(manager *booking.Manager, bookings *repository.BookingRepo, invoices *repository.InvoiceRepo, registry *repository.Registry) *AdminHandler {
	if manager == nil || bookings == nil || invoices == nil || registry == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Manager: manager, Bookings: bookings, Invoices: invoices, Registry: registry}
}

// bookingView is the JSON shape returned to the staff panel.
type bookingView struct {
	Reference    string         `json:"reference"`
	ExperienceID uint64         `json:"experience_id"`
	StartDate    string         `json:"start_date"`
	StartTime    string         `json:"start_time"`
	EndDate      string         `json:"end_date"`
	EndTime      string         `json:"end_time"`
	Adults       int            `json:"adults"`
	Children     int            `json:"children"`
	TotalCents   int64          `json:"total_cents"`
	Status       string         `json:"status"`
	CreatedAt    string         `json:"created_at"`
	Resources    map[string]int `json:"resources,omitempty"`
	Invoice      *invoiceView   `json:"invoice,omitempty"`
}

type invoiceView struct {
	Company   string `json:"company"`
	OrgNumber string `json:"org_number"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	PostCode  string `json:"post_code"`
	City      string `json:"city"`
	Marking   string `json:"marking,omitempty"`
}

func (h *AdminHandler) view(b *model.Booking) bookingView {
	return bookingView{
		Reference:    b.Reference,
		ExperienceID: b.ExperienceID,
		StartDate:    b.StartDate,
		StartTime:    b.StartTime,
		EndDate:      b.EndDate,
		EndTime:      b.EndTime,
		Adults:       b.Adults,
		Children:     b.Children,
		TotalCents:   b.TotalCents,
		Status:       b.Status,
		CreatedAt:    b.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

// ListBookings handles GET /v1/bookings.  Newest first; an optional
// ?status= query narrows to one status.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	status := c.QueryParam("status")
	items, err := h.Bookings.List(c.Request().Context(), status, 200)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	views := make([]bookingView, 0, len(items))
	for i := range items {
		views = append(views, h.view(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": views})
}

// GetBooking handles GET /v1/bookings/:ref.  The detail view includes the
// per-resource amounts (by slug) and invoice details when present.
func (h *AdminHandler) GetBooking(c echo.Context) error {
	ref := c.Param("ref")
	ctx := c.Request().Context()

	b, err := h.Bookings.GetByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}

	v := h.view(b)
	rows, err := h.Bookings.ResourcesByBooking(ctx, b.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	v.Resources = resourceAmounts(h.Registry, rows)
	if inv, err := h.Invoices.GetByBooking(ctx, b.ID); err == nil {
		v.Invoice = &invoiceView{
			Company:   inv.Company,
			OrgNumber: inv.OrgNumber,
			Email:     inv.Email,
			Address:   inv.Address,
			PostCode:  inv.PostCode,
			City:      inv.City,
			Marking:   inv.Marking,
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": v})
}

// resourceAmounts maps a booking's resource rows to slug-keyed amounts.
// A resource id no longer in the registry is rendered under its numeric
// id and logged; staff should see the drift, not a shorter list.
func resourceAmounts(registry *repository.Registry, rows []model.BookingResource) map[string]int {
	if len(rows) == 0 {
		return nil
	}
	out := make(map[string]int, len(rows))
	for _, br := range rows {
		res, err := registry.ByID(br.ResourceID)
		if err != nil {
			log.Printf("booking resource id %d is not in the registry", br.ResourceID)
			out["resource-"+strconv.FormatUint(br.ResourceID, 10)] = br.Amount
			continue
		}
		out[res.Slug] = br.Amount
	}
	return out
}

// StartBooking handles POST /v1/bookings/:ref/start.
func (h *AdminHandler) StartBooking(c echo.Context) error {
	return h.runTransition(c, h.Manager.Start)
}

// CompleteBooking handles POST /v1/bookings/:ref/complete.  The booking's
// capacity is released in the same transaction as the status change.
func (h *AdminHandler) CompleteBooking(c echo.Context) error {
	return h.runTransition(c, h.Manager.Complete)
}

// CancelBooking handles POST /v1/bookings/:ref/cancel.
func (h *AdminHandler) CancelBooking(c echo.Context) error {
	return h.runTransition(c, h.Manager.Cancel)
}

func (h *AdminHandler) runTransition(c echo.Context, fn func(ctx context.Context, ref string) (*model.Booking, error)) error {
	ref := c.Param("ref")
	b, err := fn(c.Request().Context(), ref)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, booking.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"error": "transition not allowed"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transition failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reference": b.Reference,
		"status":    b.Status,
	})
}
