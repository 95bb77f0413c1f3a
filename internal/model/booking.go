package model

import "time"

// Booking status values.  PAID and INVOICED are the states in which the
// booking's resource usage is held in the ledger; COMPLETED and CANCELLED
// are terminal and have given that capacity back.
const (
	StatusPendingPayment = "PENDING_PAYMENT"
	StatusPaid           = "PAID"
	StatusInvoiced       = "INVOICED"
	StatusStarted        = "STARTED"
	StatusCompleted      = "COMPLETED"
	StatusCancelled      = "CANCELLED"
)

// Booking records a single customer reservation for a guided experience,
// possibly spanning several calendar days.  Resource amounts are immutable
// after creation; changing a booking means cancelling and recreating it.
//
// Fields:
//  ID               – primary key identifier.
//  Reference        – public identifier used in staff URLs and emails.
//  ExperienceID     – the guided experience being booked.
//  StartDate        – first calendar day, "2006-01-02".
//  StartTime        – start of day one, "15:04".
//  EndDate          – last calendar day; differs from StartDate for
//                     overnight bookings.
//  EndTime          – end on the final day, "15:04".
//  Adults, Children – party size.
//  TotalCents       – monetary total in the smallest currency unit.
//  Status           – one of the Status* constants above.
//  LedgerApplied    – true while the booking's reserve() is held in the
//                     ledger; guards against double reserve/release.
//  PaymentSession   – external checkout session id, set for card payments;
//                     unique, used to deduplicate webhook redeliveries.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last status change.
type Booking struct {
	ID             uint64    // bookings.id
	Reference      string    // bookings.reference
	ExperienceID   uint64    // bookings.experience_id
	StartDate      string    // bookings.start_date
	StartTime      string    // bookings.start_time
	EndDate        string    // bookings.end_date
	EndTime        string    // bookings.end_time
	Adults         int       // bookings.adults
	Children       int       // bookings.children
	TotalCents     int64     // bookings.total_cents
	Status         string    // bookings.status
	LedgerApplied  bool      // bookings.ledger_applied
	PaymentSession *string   // bookings.payment_session (nullable)
	CreatedAt      time.Time // bookings.created_at
	UpdatedAt      time.Time // bookings.updated_at
}

// Overnight reports whether the booking spans more than one calendar day.
func (b *Booking) Overnight() bool {
	return b.StartDate != b.EndDate
}

// Terminal reports whether the booking is in a final state from which no
// further transition is allowed.
func (b *Booking) Terminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled
}

// BookingResource links a booking to the quantity it consumes of one
// resource.  Rows with amount zero are never stored.
//
// Fields:
//  BookingID  – reference to the booking.
//  ResourceID – reference to the resource.
//  Amount     – units reserved per interval the booking touches.
type BookingResource struct {
	BookingID  uint64 // booking_resources.booking_id
	ResourceID uint64 // booking_resources.resource_id
	Amount     int    // booking_resources.amount
}
