package vouchers

import (
	"time"

	"github.com/google/uuid"
)

// VoucherType enumerates the supported voucher kinds.
type VoucherType string

const (
	TypeJournal     VoucherType = "JV"
	TypeBankPayment VoucherType = "BPV"
	TypeBankReceipt VoucherType = "BRV"
	TypeCashPayment VoucherType = "CPV"
	TypeCashReceipt VoucherType = "CRV"
)

// Valid reports whether the type is a known voucher kind.
func (t VoucherType) Valid() bool {
	switch t {
	case TypeJournal, TypeBankPayment, TypeBankReceipt, TypeCashPayment, TypeCashReceipt:
		return true
	}
	return false
}

// VoucherStatus enumerates lifecycle values.
type VoucherStatus string

const (
	StatusDraft  VoucherStatus = "DRAFT"
	StatusPosted VoucherStatus = "POSTED"
	StatusVoid   VoucherStatus = "VOID"
)

// Voucher is a proposed batch of ledger lines for a single business event.
type Voucher struct {
	ID          int64
	Number      int64
	Type        VoucherType
	Date        time.Time
	Description string
	Status      VoucherStatus
	PropertyID  *int64
	UnitID      *int64
	PaymentID   *uuid.UUID
	DealID      *uuid.UUID
	InvoiceID   *uuid.UUID
	DealerID    *uuid.UUID
	ReversalOf  *int64
	PostedBy    int64
	PostedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Lines       []Line
}

// Line stores a one-sided debit or credit amount for an account. Order is
// irrelevant to balance but preserved for audit.
type Line struct {
	ID          int64
	VoucherID   int64
	AccountID   int64
	Debit       float64
	Credit      float64
	Description string
	PropertyID  *int64
	UnitID      *int64
	CreatedAt   time.Time
}
