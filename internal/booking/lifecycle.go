package booking

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/friluft/booking-server/internal/model"
	"github.com/friluft/booking-server/internal/repository"
)

// ErrMissingBookingData is returned when a required booking field is
// absent or unusable.  Rejected before any ledger mutation is attempted.
var ErrMissingBookingData = errors.New("missing booking data")

// ErrInvalidTransition is returned when a status change is requested that
// the booking's current state does not allow.
var ErrInvalidTransition = errors.New("invalid status transition")

// Request carries the customer-supplied fields needed to create a booking.
// Resources maps resource slugs to requested amounts; zero amounts are
// ignored.
type Request struct {
	ExperienceID uint64
	StartDate    string
	StartTime    string
	EndDate      string
	EndTime      string
	Adults       int
	Children     int
	TotalCents   int64
	Resources    map[string]int
}

// BookingStore is the subset of the booking repository the Manager
// drives inside its transactions.
type BookingStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	CreateResourcesBulkTx(ctx context.Context, tx *sql.Tx, rows []model.BookingResource) error
	ExistsBySession(ctx context.Context, session string) (bool, error)
	GetByReferenceTx(ctx context.Context, tx *sql.Tx, reference string) (*model.Booking, error)
	ResourcesByBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]model.BookingResource, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, bookingID uint64, status string, ledgerApplied bool) error
}

// InvoiceStore persists billing details alongside an invoiced booking.
type InvoiceStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, inv *model.InvoiceDetails) error
}

// CapacityLedger is the write side of the capacity ledger.
type CapacityLedger interface {
	ReserveTx(ctx context.Context, tx *sql.Tx, res *model.Resource, date string, startSlot, endSlot, amount int) error
	ReleaseTx(ctx context.Context, tx *sql.Tx, res *model.Resource, date string, startSlot, endSlot, amount int) error
}

// Manager drives booking status transitions and is the only writer of the
// capacity ledger.  Every transition that touches the ledger runs inside a
// single transaction spanning the booking row, its resource amounts and
// every ledger cell across the full date span, so a failure partway leaves
// nothing applied.
type Manager struct {
	db       *sql.DB
	registry *repository.Registry
	bookings BookingStore
	invoices InvoiceStore
	ledger   CapacityLedger
}

// NewManager constructs a Manager.  All dependencies must be non-nil.
func NewManager(db *sql.DB, registry *repository.Registry, bookings BookingStore, invoices InvoiceStore, ledger CapacityLedger) *Manager {
	if db == nil || registry == nil || bookings == nil || invoices == nil || ledger == nil {
		panic("nil dependency passed to NewManager")
	}
	return &Manager{db: db, registry: registry, bookings: bookings, invoices: invoices, ledger: ledger}
}

// validate checks the request and resolves its resource slugs against the
// registry.  The returned rows are sorted by resource id so concurrent
// transitions lock ledger tables in a stable order.
func (m *Manager) validate(req Request) ([]model.BookingResource, error) {
	if req.ExperienceID == 0 || req.StartDate == "" || req.StartTime == "" || req.EndDate == "" || req.EndTime == "" {
		return nil, ErrMissingBookingData
	}
	if req.Adults <= 0 && req.Children <= 0 {
		return nil, ErrMissingBookingData
	}
	if _, err := BuildPlan(req.StartDate, req.StartTime, req.EndDate, req.EndTime); err != nil {
		return nil, err
	}
	rows := make([]model.BookingResource, 0, len(req.Resources))
	for slug, amount := range req.Resources {
		if amount == 0 {
			continue
		}
		if amount < 0 {
			return nil, ErrMissingBookingData
		}
		res, err := m.registry.BySlug(slug)
		if err != nil {
			return nil, ErrMissingBookingData
		}
		rows = append(rows, model.BookingResource{ResourceID: res.ID, Amount: amount})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ResourceID < rows[j].ResourceID })
	return rows, nil
}

// applyLedgerTx walks every (resource, day) cell range the booking spans
// and applies it in one direction: reserve on confirmation, release on
// completion or cancellation.  Resources are visited in id order, days in
// calendar order.
func (m *Manager) applyLedgerTx(ctx context.Context, tx *sql.Tx, b *model.Booking, rows []model.BookingResource, release bool) error {
	plan, err := BuildPlan(b.StartDate, b.StartTime, b.EndDate, b.EndTime)
	if err != nil {
		return err
	}
	for _, br := range rows {
		res, err := m.registry.ByID(br.ResourceID)
		if err != nil {
			return err
		}
		for _, span := range plan {
			if release {
				err = m.ledger.ReleaseTx(ctx, tx, res, span.Date, span.StartSlot, span.EndSlot, br.Amount)
			} else {
				err = m.ledger.ReserveTx(ctx, tx, res, span.Date, span.StartSlot, span.EndSlot, br.Amount)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// create persists a new booking with its resource amounts and reserves its
// ledger cells, all in one transaction.  Status must be PAID or INVOICED.
// inv is written when non-nil.
func (m *Manager) create(ctx context.Context, req Request, status string, session *string, inv *model.InvoiceDetails) (*model.Booking, error) {
	rows, err := m.validate(req)
	if err != nil {
		return nil, err
	}
	b := &model.Booking{
		Reference:      uuid.NewString(),
		ExperienceID:   req.ExperienceID,
		StartDate:      req.StartDate,
		StartTime:      req.StartTime,
		EndDate:        req.EndDate,
		EndTime:        req.EndTime,
		Adults:         req.Adults,
		Children:       req.Children,
		TotalCents:     req.TotalCents,
		Status:         status,
		LedgerApplied:  true,
		PaymentSession: session,
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := m.bookings.CreateTx(ctx, tx, b); err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].BookingID = b.ID
	}
	if err := m.bookings.CreateResourcesBulkTx(ctx, tx, rows); err != nil {
		return nil, err
	}
	if inv != nil {
		inv.BookingID = b.ID
		if err := m.invoices.CreateTx(ctx, tx, inv); err != nil {
			return nil, err
		}
	}
	if err := m.applyLedgerTx(ctx, tx, b, rows, false); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return b, nil
}

// ConfirmPaid creates a booking from a completed checkout session and
// reserves its capacity.  The payment processor delivers at least once, so
// the session id is checked up front and again by the unique index inside
// the transaction; a redelivery returns ErrDuplicateSession with the
// ledger untouched.
func (m *Manager) ConfirmPaid(ctx context.Context, session string, req Request) (*model.Booking, error) {
	if session == "" {
		return nil, ErrMissingBookingData
	}
	exists, err := m.bookings.ExistsBySession(ctx, session)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, repository.ErrDuplicateSession
	}
	return m.create(ctx, req, model.StatusPaid, &session, nil)
}

// ConfirmInvoice creates an invoice-paid booking together with its billing
// details and reserves its capacity.
func (m *Manager) ConfirmInvoice(ctx context.Context, req Request, inv model.InvoiceDetails) (*model.Booking, error) {
	if inv.Company == "" || inv.Email == "" || inv.OrgNumber == "" {
		return nil, ErrMissingBookingData
	}
	return m.create(ctx, req, model.StatusInvoiced, nil, &inv)
}

// canTransition reports whether a booking may move from one status to
// another.  Cancellation is allowed from any non-terminal state.
func canTransition(from, to string) bool {
	switch to {
	case model.StatusStarted:
		return from == model.StatusPaid || from == model.StatusInvoiced
	case model.StatusCompleted:
		return from == model.StatusStarted
	case model.StatusCancelled:
		return from != model.StatusCompleted && from != model.StatusCancelled
	}
	return false
}

// transition moves the booking identified by reference into the target
// status, releasing its ledger cells when the target is terminal and the
// reserve is still held.  The booking row is locked for the duration so
// concurrent transitions serialize.
func (m *Manager) transition(ctx context.Context, reference, target string) (*model.Booking, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := m.bookings.GetByReferenceTx(ctx, tx, reference)
	if err != nil {
		return nil, err
	}
	if !canTransition(b.Status, target) {
		return nil, ErrInvalidTransition
	}

	applied := b.LedgerApplied
	terminal := target == model.StatusCompleted || target == model.StatusCancelled
	if terminal && applied {
		rows, err := m.bookings.ResourcesByBookingTx(ctx, tx, b.ID)
		if err != nil {
			return nil, err
		}
		if err := m.applyLedgerTx(ctx, tx, b, rows, true); err != nil {
			return nil, err
		}
		applied = false
	}
	if err := m.bookings.UpdateStatusTx(ctx, tx, b.ID, target, applied); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	b.Status = target
	b.LedgerApplied = applied
	return b, nil
}

// Start marks a paid or invoiced booking as in progress.
func (m *Manager) Start(ctx context.Context, reference string) (*model.Booking, error) {
	return m.transition(ctx, reference, model.StatusStarted)
}

// Complete marks a started booking as finished and gives its capacity
// back to the ledger.
func (m *Manager) Complete(ctx context.Context, reference string) (*model.Booking, error) {
	return m.transition(ctx, reference, model.StatusCompleted)
}

// Cancel cancels any non-terminal booking, releasing its capacity when
// the reserve was applied.
func (m *Manager) Cancel(ctx context.Context, reference string) (*model.Booking, error) {
	return m.transition(ctx, reference, model.StatusCancelled)
}
