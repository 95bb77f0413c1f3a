package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/friluft/booking-server/internal/booking"
	"github.com/friluft/booking-server/internal/model"
	"github.com/friluft/booking-server/internal/repository"
	"github.com/friluft/booking-server/internal/timeslot"
)

// InvoiceHandler accepts invoice-paid booking requests from the public
// booking form.
type InvoiceHandler struct {
	Manager *booking.Manager
	Notify  Notifier
}

// NewInvoiceHandler constructs an InvoiceHandler.
func NewInvoiceHandler(manager *booking.Manager, notify Notifier) *InvoiceHandler {
	if manager == nil {
		panic("nil manager passed to NewInvoiceHandler")
	}
	return &InvoiceHandler{Manager: manager, Notify: notify}
}

type invoiceRequest struct {
	ExperienceID uint64         `json:"experience_id"`
	StartDate    string         `json:"start_date"`
	StartTime    string         `json:"start_time"`
	EndDate      string         `json:"end_date"`
	EndTime      string         `json:"end_time"`
	Adults       int            `json:"adults"`
	Children     int            `json:"children"`
	TotalCents   int64          `json:"total_cents"`
	Resources    map[string]int `json:"resources"`
	Invoice      struct {
		Company   string `json:"company"`
		OrgNumber string `json:"org_number"`
		Email     string `json:"email"`
		Address   string `json:"address"`
		PostCode  string `json:"post_code"`
		City      string `json:"city"`
		Marking   string `json:"marking"`
	} `json:"invoice"`
}

// Create handles POST /v1/bookings/invoice.  It persists the booking and
// its billing details, reserves capacity across the booking's full span
// and returns 201 with the public reference.  A booking that no longer
// fits returns 409 so the form can re-query availability.
func (h *InvoiceHandler) Create(c echo.Context) error {
	var body invoiceRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	req := booking.Request{
		ExperienceID: body.ExperienceID,
		StartDate:    body.StartDate,
		StartTime:    body.StartTime,
		EndDate:      body.EndDate,
		EndTime:      body.EndTime,
		Adults:       body.Adults,
		Children:     body.Children,
		TotalCents:   body.TotalCents,
		Resources:    body.Resources,
	}
	inv := model.InvoiceDetails{
		Company:   body.Invoice.Company,
		OrgNumber: body.Invoice.OrgNumber,
		Email:     body.Invoice.Email,
		Address:   body.Invoice.Address,
		PostCode:  body.Invoice.PostCode,
		City:      body.Invoice.City,
		Marking:   body.Invoice.Marking,
	}

	ctx := c.Request().Context()
	b, err := h.Manager.ConfirmInvoice(ctx, req, inv)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrMissingBookingData),
			errors.Is(err, timeslot.ErrInvalidTimeFormat),
			errors.Is(err, timeslot.ErrInvalidRange):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking data"})
		case errors.Is(err, repository.ErrInsufficientCapacity):
			return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient capacity"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
		}
	}

	if h.Notify != nil {
		h.Notify(ctx, b, body.Resources)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"reference": b.Reference,
		"status":    b.Status,
	})
}
