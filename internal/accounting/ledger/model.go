package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Entry is an immutable double-entry posting. Corrections happen through new
// reversing vouchers, never by mutating existing rows.
type Entry struct {
	ID              int64
	VoucherID       int64
	Date            time.Time
	DebitAccountID  int64
	CreditAccountID int64
	Amount          float64
	Remarks         string
	PropertyID      *int64
	UnitID          *int64
	PaymentID       *uuid.UUID
	DealID          *uuid.UUID
	InvoiceID       *uuid.UUID
	DealerID        *uuid.UUID
	CreatedAt       time.Time
}

// Range bounds a ledger query by date. Zero values leave the side open.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}
