package model

import "time"

// InvoiceDetails holds billing metadata attached 1:1 to a booking paid by
// invoice.  Created once together with the booking, never mutated.
//
// Fields:
//  BookingID – booking this invoice belongs to (unique).
//  Company   – legal name the invoice is addressed to.
//  OrgNumber – company registration number.
//  Email     – address the invoice is delivered to.
//  Address   – street address.
//  PostCode  – postal code.
//  City      – city.
//  Marking   – free-text reference the customer wants printed.
//  CreatedAt – creation timestamp.
type InvoiceDetails struct {
	BookingID uint64    // invoice_details.booking_id
	Company   string    // invoice_details.company
	OrgNumber string    // invoice_details.org_number
	Email     string    // invoice_details.email
	Address   string    // invoice_details.address
	PostCode  string    // invoice_details.post_code
	City      string    // invoice_details.city
	Marking   string    // invoice_details.marking
	CreatedAt time.Time // invoice_details.created_at
}
