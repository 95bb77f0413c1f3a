package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/friluft/booking-server/internal/model"
)

// InvoiceRepo persists the billing metadata attached to invoice-paid
// bookings.  One row per booking, written once in the same transaction
// that creates the booking.
type InvoiceRepo struct {
	db *sql.DB
}

// NewInvoiceRepo returns an InvoiceRepo bound to the given database.
func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

// CreateTx inserts the invoice details within the provided transaction.
func (r *InvoiceRepo) CreateTx(ctx context.Context, tx *sql.Tx, inv *model.InvoiceDetails) error {
	const q = `INSERT INTO invoice_details
	           (booking_id, company, org_number, email, address, post_code, city, marking)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		inv.BookingID, inv.Company, inv.OrgNumber, inv.Email,
		inv.Address, inv.PostCode, inv.City, inv.Marking,
	)
	return err
}

// GetByBooking returns the invoice details for a booking, or ErrNotFound
// when the booking was not paid by invoice.
func (r *InvoiceRepo) GetByBooking(ctx context.Context, bookingID uint64) (*model.InvoiceDetails, error) {
	const q = `SELECT booking_id, company, org_number, email, address, post_code, city, marking, created_at
	           FROM invoice_details WHERE booking_id = ?`
	var inv model.InvoiceDetails
	err := r.db.QueryRowContext(ctx, q, bookingID).Scan(
		&inv.BookingID, &inv.Company, &inv.OrgNumber, &inv.Email,
		&inv.Address, &inv.PostCode, &inv.City, &inv.Marking, &inv.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
