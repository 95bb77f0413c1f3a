package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/friluft/booking-server/internal/availability"
	"github.com/friluft/booking-server/internal/booking"
	"github.com/friluft/booking-server/internal/config"
	"github.com/friluft/booking-server/internal/database"
	"github.com/friluft/booking-server/internal/handler"
	"github.com/friluft/booking-server/internal/model"
	"github.com/friluft/booking-server/internal/queue"
	"github.com/friluft/booking-server/internal/repository"
	"github.com/friluft/booking-server/internal/router"
	queuepublisher "github.com/friluft/booking-server/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	registry, err := repository.LoadRegistry(ctx, db)
	cancel()
	if err != nil {
		log.Fatalf("resource registry: %v", err)
	}
	log.Printf("loaded %d resources", len(registry.All()))

	bookingRepo := repository.NewBookingRepo(db)
	invoiceRepo := repository.NewInvoiceRepo(db)
	ledgerRepo := repository.NewLedgerRepo(db)

	manager := booking.NewManager(db, registry, bookingRepo, invoiceRepo, ledgerRepo)
	availSvc, err := availability.NewService(registry, ledgerRepo, cfg.OpenTime, cfg.CloseTime)
	if err != nil {
		log.Fatalf("opening hours: %v", err)
	}

	notify := func(ctx context.Context, b *model.Booking, resources map[string]int) {
		ev := queue.BookingConfirmedEvent{
			Reference:    b.Reference,
			Status:       b.Status,
			ExperienceID: b.ExperienceID,
			StartDate:    b.StartDate,
			StartTime:    b.StartTime,
			EndDate:      b.EndDate,
			EndTime:      b.EndTime,
			Adults:       b.Adults,
			Children:     b.Children,
			Resources:    resources,
			TotalCents:   b.TotalCents,
			ConfirmedAt:  time.Now().UTC().Format(time.RFC3339),
		}
		// Fire and forget; the booking is already committed.
		go func() {
			if err := queuepublisher.PublishBookingConfirmed(context.Background(), ev); err != nil {
				log.Printf("notify %s: %v", b.Reference, err)
			}
		}()
	}

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting disabled")
	}

	e := echo.New()
	router.RegisterRoutes(
		e,
		handler.NewAvailabilityHandler(availSvc),
		handler.NewInvoiceHandler(manager, notify),
		handler.NewWebhookHandler(manager, cfg.WebhookSecret, notify),
		handler.NewAdminHandler(manager, bookingRepo, invoiceRepo, registry),
		cfg.JWTSecret,
		config.LoadRateLimit(),
		rdb,
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
