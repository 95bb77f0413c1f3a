// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/friluft/booking-server/internal/config"
	"github.com/friluft/booking-server/internal/handler"
	"github.com/friluft/booking-server/internal/middleware"
)

// RegisterRoutes wires the full endpoint surface:
//
//	public   – health, availability pre-check, invoice booking form
//	webhook  – signed payment processor callbacks
//	staff    – booking list/detail and status transitions, JWT gated
//
// The rate limiter covers the two public booking endpoints; the webhook
// is authenticated by its signature and staff routes by their tokens, so
// neither is limited.
func RegisterRoutes(
	e *echo.Echo,
	avail *handler.AvailabilityHandler,
	invoice *handler.InvoiceHandler,
	webhook *handler.WebhookHandler,
	admin *handler.AdminHandler,
	jwtSecret string,
	rlCfg config.RateLimitConfig,
	rdb *redis.Client,
) {
	e.GET("/healthz", handler.Health)

	limited := e.Group("/v1", middleware.RateLimit(rlCfg, rdb))
	limited.POST("/availability", avail.Query)
	limited.POST("/bookings/invoice", invoice.Create)

	e.POST("/v1/webhooks/payment", webhook.HandlePayment)

	staff := e.Group("/v1", middleware.StaffOnly(jwtSecret))
	staff.GET("/bookings", admin.ListBookings)
	staff.GET("/bookings/:ref", admin.GetBooking)
	staff.POST("/bookings/:ref/start", admin.StartBooking)
	staff.POST("/bookings/:ref/complete", admin.CompleteBooking)
	staff.POST("/bookings/:ref/cancel", admin.CancelBooking)
}
