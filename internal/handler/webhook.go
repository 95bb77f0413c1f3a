package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/friluft/booking-server/internal/booking"
	"github.com/friluft/booking-server/internal/model"
	"github.com/friluft/booking-server/internal/repository"
	"github.com/friluft/booking-server/internal/timeslot"
)

// paymentEvent is the envelope the payment processor delivers.  Booking
// fields travel in the checkout session's metadata, set when the hosted
// checkout was created.
type paymentEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		SessionID string          `json:"session_id"`
		Metadata  bookingMetadata `json:"metadata"`
	} `json:"data"`
}

type bookingMetadata struct {
	ExperienceID uint64         `json:"experience_id"`
	StartDate    string         `json:"start_date"`
	StartTime    string         `json:"start_time"`
	EndDate      string         `json:"end_date"`
	EndTime      string         `json:"end_time"`
	Adults       int            `json:"adults"`
	Children     int            `json:"children"`
	TotalCents   int64          `json:"total_cents"`
	Resources    map[string]int `json:"resources"`
}

// Notifier hands a confirmed booking to the outbound-notification
// collaborator.  Delivery failures are logged and never affect the
// request's outcome.
type Notifier func(ctx context.Context, b *model.Booking, resources map[string]int)

// WebhookHandler receives signed events from the payment processor and
// drives the paid transition.
type WebhookHandler struct {
	Manager *booking.Manager
	Secret  string
	Notify  Notifier
}

// NewWebhookHandler constructs a WebhookHandler.  notify may be nil when
// no broker is configured.
func NewWebhookHandler(manager *booking.Manager, secret string, notify Notifier) *WebhookHandler {
	if manager == nil || secret == "" {
		panic("webhook handler requires a manager and a signing secret")
	}
	return &WebhookHandler{Manager: manager, Secret: secret, Notify: notify}
}

// HandlePayment handles POST /v1/webhooks/payment.  Signature failures are
// answered with 400 and no action.  Events other than checkout.completed
// are acknowledged and ignored.  A redelivered session id is acknowledged
// with 200 so the processor stops retrying, while the ledger stays
// untouched.
func (h *WebhookHandler) HandlePayment(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	sig := c.Request().Header.Get("X-Payment-Signature")
	if err := verifySignature(sig, body, h.Secret, time.Now().UTC()); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}

	var ev paymentEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed event"})
	}
	if ev.Type != "checkout.completed" {
		return c.JSON(http.StatusOK, echo.Map{"status": "ignored"})
	}
	if ev.Data.SessionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing session id"})
	}

	md := ev.Data.Metadata
	req := booking.Request{
		ExperienceID: md.ExperienceID,
		StartDate:    md.StartDate,
		StartTime:    md.StartTime,
		EndDate:      md.EndDate,
		EndTime:      md.EndTime,
		Adults:       md.Adults,
		Children:     md.Children,
		TotalCents:   md.TotalCents,
		Resources:    md.Resources,
	}

	ctx := c.Request().Context()
	b, err := h.Manager.ConfirmPaid(ctx, ev.Data.SessionID, req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateSession):
			return c.JSON(http.StatusOK, echo.Map{"status": "duplicate"})
		case errors.Is(err, booking.ErrMissingBookingData),
			errors.Is(err, timeslot.ErrInvalidTimeFormat),
			errors.Is(err, timeslot.ErrInvalidRange):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking data"})
		case errors.Is(err, repository.ErrInsufficientCapacity):
			// Paid but unreservable: nothing was applied, surface for manual
			// follow-up and refund.
			log.Printf("webhook: paid session %s exceeds capacity", ev.Data.SessionID)
			return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient capacity"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
		}
	}

	if h.Notify != nil {
		h.Notify(ctx, b, md.Resources)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "confirmed",
		"reference": b.Reference,
	})
}
