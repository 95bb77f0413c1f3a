package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/friluft/booking-server/internal/model"
)

// BookingRepo provides CRUD operations for bookings and their per-resource
// amounts.  Amount rows live in the booking_resources table.  All
// timestamp columns are stored in UTC.  Mutating methods take an explicit
// *sql.Tx because booking writes always travel together with ledger
// updates inside one transaction.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span bookings and ledger rows.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a booking within the provided transaction and populates
// the generated ID and timestamps on the passed record.  A duplicate
// payment session id surfaces as ErrDuplicateSession so webhook
// redeliveries can be recognized before any ledger mutation.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings
	           (reference, experience_id, start_date, start_time, end_date, end_time,
	            adults, children, total_cents, status, ledger_applied, payment_session)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		b.Reference, b.ExperienceID, b.StartDate, b.StartTime, b.EndDate, b.EndTime,
		b.Adults, b.Children, b.TotalCents, b.Status, b.LedgerApplied, b.PaymentSession,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateSession
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back timestamps set by the database.
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// isDuplicateKey recognizes a MySQL duplicate-entry error (code 1062).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// CreateResourcesBulkTx inserts the booking's per-resource amounts in a
// single statement.  Rows with amount zero must be filtered out by the
// caller.  Passing an empty slice has no effect and returns nil.
func (r *BookingRepo) CreateResourcesBulkTx(ctx context.Context, tx *sql.Tx, rows []model.BookingResource) error {
	if len(rows) == 0 {
		return nil
	}
	query := `INSERT INTO booking_resources (booking_id, resource_id, amount) VALUES `
	args := make([]interface{}, 0, len(rows)*3)
	for i, br := range rows {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, br.BookingID, br.ResourceID, br.Amount)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ExistsBySession reports whether a booking already exists for the given
// payment session id.  Used by the webhook path to short-circuit
// redeliveries before opening a transaction.
func (r *BookingRepo) ExistsBySession(ctx context.Context, session string) (bool, error) {
	const q = `SELECT 1 FROM bookings WHERE payment_session = ?`
	var one int
	err := r.db.QueryRowContext(ctx, q, session).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByReferenceTx loads a booking by its public reference with the row
// locked for update, so a status transition observes a stable status and
// ledger_applied flag for the rest of its transaction.
func (r *BookingRepo) GetByReferenceTx(ctx context.Context, tx *sql.Tx, reference string) (*model.Booking, error) {
	const q = `SELECT id, reference, experience_id, start_date, start_time, end_date, end_time,
	                  adults, children, total_cents, status, ledger_applied, payment_session,
	                  created_at, updated_at
	           FROM bookings WHERE reference = ? FOR UPDATE`
	return r.scanBooking(tx.QueryRowContext(ctx, q, reference))
}

// GetByReference loads a booking by its public reference without locking.
func (r *BookingRepo) GetByReference(ctx context.Context, reference string) (*model.Booking, error) {
	const q = `SELECT id, reference, experience_id, start_date, start_time, end_date, end_time,
	                  adults, children, total_cents, status, ledger_applied, payment_session,
	                  created_at, updated_at
	           FROM bookings WHERE reference = ?`
	return r.scanBooking(r.db.QueryRowContext(ctx, q, reference))
}

func (r *BookingRepo) scanBooking(row *sql.Row) (*model.Booking, error) {
	var b model.Booking
	var session sql.NullString
	err := row.Scan(
		&b.ID, &b.Reference, &b.ExperienceID, &b.StartDate, &b.StartTime, &b.EndDate, &b.EndTime,
		&b.Adults, &b.Children, &b.TotalCents, &b.Status, &b.LedgerApplied, &session,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.Valid {
		s := session.String
		b.PaymentSession = &s
	}
	return &b, nil
}

// ResourcesByBookingTx returns the booking's per-resource amounts within a
// transaction.  Status transitions need them to recompute the exact ledger
// cells a release must restore.
func (r *BookingRepo) ResourcesByBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]model.BookingResource, error) {
	const q = `SELECT booking_id, resource_id, amount FROM booking_resources WHERE booking_id = ? ORDER BY resource_id`
	rows, err := tx.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.BookingResource
	for rows.Next() {
		var br model.BookingResource
		if err := rows.Scan(&br.BookingID, &br.ResourceID, &br.Amount); err != nil {
			return nil, err
		}
		out = append(out, br)
	}
	return out, rows.Err()
}

// ResourcesByBooking is the non-transactional variant used by read paths.
func (r *BookingRepo) ResourcesByBooking(ctx context.Context, bookingID uint64) ([]model.BookingResource, error) {
	const q = `SELECT booking_id, resource_id, amount FROM booking_resources WHERE booking_id = ? ORDER BY resource_id`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.BookingResource
	for rows.Next() {
		var br model.BookingResource
		if err := rows.Scan(&br.BookingID, &br.ResourceID, &br.Amount); err != nil {
			return nil, err
		}
		out = append(out, br)
	}
	return out, rows.Err()
}

// UpdateStatusTx sets the booking's status and ledger_applied flag inside
// the transaction driving the transition.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, bookingID uint64, status string, ledgerApplied bool) error {
	const q = `UPDATE bookings SET status = ?, ledger_applied = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, ledgerApplied, bookingID)
	return err
}

// List returns bookings newest first, optionally filtered by status.  It
// feeds the admin panel's bookings page.
func (r *BookingRepo) List(ctx context.Context, status string, limit int) ([]model.Booking, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `SELECT id, reference, experience_id, start_date, start_time, end_date, end_time,
	             adults, children, total_cents, status, ledger_applied, payment_session,
	             created_at, updated_at
	      FROM bookings`
	args := []interface{}{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		var session sql.NullString
		if err := rows.Scan(
			&b.ID, &b.Reference, &b.ExperienceID, &b.StartDate, &b.StartTime, &b.EndDate, &b.EndTime,
			&b.Adults, &b.Children, &b.TotalCents, &b.Status, &b.LedgerApplied, &session,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if session.Valid {
			s := session.String
			b.PaymentSession = &s
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
