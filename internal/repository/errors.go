// Package repository defines sentinel error values shared across the data
// access layer.  Handlers and the booking lifecycle compare against these
// with errors.Is to pick between a client rejection and a server failure.
package repository

import "errors"

// ErrInsufficientCapacity is returned when a reserve would push an interval
// cell past its resource's maximum.  The enclosing transaction must be
// rolled back; the booking is rejected, not retried.
var ErrInsufficientCapacity = errors.New("insufficient capacity")

// ErrLedgerWrite is returned when the storage layer fails during a reserve
// or release.  The enclosing transaction rolls back so the ledger never
// holds a half-applied booking.  Handlers translate it into a 500.
var ErrLedgerWrite = errors.New("ledger write failure")

// ErrNotFound is returned when a requested booking or resource does not
// exist.  Handlers translate it into a 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicateSession is returned when a booking already exists for a
// payment session id.  Webhook redeliveries must be answered with success
// without touching the ledger.
var ErrDuplicateSession = errors.New("duplicate payment session")
