package vouchers

import (
	"time"

	"github.com/google/uuid"

	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
)

// LineRequest is one requested voucher line as received from the API layer.
type LineRequest struct {
	AccountID   int64   `json:"accountId" validate:"required,gt=0"`
	Debit       float64 `json:"debit" validate:"gte=0"`
	Credit      float64 `json:"credit" validate:"gte=0"`
	Description string  `json:"description"`
	PropertyID  *int64  `json:"propertyId,omitempty"`
	UnitID      *int64  `json:"unitId,omitempty"`
}

// CreateVoucherRequest is the voucher creation payload. Tags cover shape
// only; the double-entry rules live in Validate.
type CreateVoucherRequest struct {
	Type        string        `json:"type" validate:"required,oneof=JV BPV BRV CPV CRV"`
	Date        string        `json:"date" validate:"required,datetime=2006-01-02"`
	Description string        `json:"description"`
	PropertyID  *int64        `json:"propertyId,omitempty"`
	UnitID      *int64        `json:"unitId,omitempty"`
	PaymentID   *uuid.UUID    `json:"paymentId,omitempty"`
	DealID      *uuid.UUID    `json:"dealId,omitempty"`
	InvoiceID   *uuid.UUID    `json:"invoiceId,omitempty"`
	DealerID    *uuid.UUID    `json:"dealerId,omitempty"`
	Lines       []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

// Input converts the request into a service input.
func (r CreateVoucherRequest) Input() (CreateInput, error) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return CreateInput{}, err
	}
	in := CreateInput{
		Type:        VoucherType(r.Type),
		Date:        date,
		Description: r.Description,
		PropertyID:  r.PropertyID,
		UnitID:      r.UnitID,
		PaymentID:   r.PaymentID,
		DealID:      r.DealID,
		InvoiceID:   r.InvoiceID,
		DealerID:    r.DealerID,
	}
	for _, l := range r.Lines {
		in.Lines = append(in.Lines, LineInput{
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
			PropertyID:  l.PropertyID,
			UnitID:      l.UnitID,
		})
	}
	return in, nil
}

// LineResponse mirrors a stored voucher line.
type LineResponse struct {
	ID          int64   `json:"id"`
	AccountID   int64   `json:"accountId"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Description string  `json:"description"`
	PropertyID  *int64  `json:"propertyId,omitempty"`
	UnitID      *int64  `json:"unitId,omitempty"`
}

// VoucherResponse mirrors a stored voucher.
type VoucherResponse struct {
	ID          int64          `json:"id"`
	Number      int64          `json:"number"`
	Type        VoucherType    `json:"type"`
	Date        string         `json:"date"`
	Description string         `json:"description"`
	Status      VoucherStatus  `json:"status"`
	PropertyID  *int64         `json:"propertyId,omitempty"`
	UnitID      *int64         `json:"unitId,omitempty"`
	ReversalOf  *int64         `json:"reversalOf,omitempty"`
	Lines       []LineResponse `json:"lines,omitempty"`
}

// EntryResponse mirrors a created ledger entry.
type EntryResponse struct {
	ID              int64   `json:"id"`
	VoucherID       int64   `json:"voucherId"`
	Date            string  `json:"date"`
	DebitAccountID  int64   `json:"debitAccountId"`
	CreditAccountID int64   `json:"creditAccountId"`
	Amount          float64 `json:"amount"`
	Remarks         string  `json:"remarks"`
}

// PostResponse is the successful posting payload: final status plus the
// created entry set.
type PostResponse struct {
	Voucher VoucherResponse `json:"voucher"`
	Entries []EntryResponse `json:"entries"`
}

func toVoucherResponse(v Voucher) VoucherResponse {
	resp := VoucherResponse{
		ID:          v.ID,
		Number:      v.Number,
		Type:        v.Type,
		Date:        v.Date.Format("2006-01-02"),
		Description: v.Description,
		Status:      v.Status,
		PropertyID:  v.PropertyID,
		UnitID:      v.UnitID,
		ReversalOf:  v.ReversalOf,
	}
	for _, l := range v.Lines {
		resp.Lines = append(resp.Lines, LineResponse{
			ID:          l.ID,
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
			PropertyID:  l.PropertyID,
			UnitID:      l.UnitID,
		})
	}
	return resp
}

func toPostResponse(result PostResult) PostResponse {
	resp := PostResponse{Voucher: toVoucherResponse(result.Voucher)}
	for _, e := range result.Entries {
		resp.Entries = append(resp.Entries, toEntryResponse(e))
	}
	return resp
}

func toEntryResponse(e ledger.Entry) EntryResponse {
	return EntryResponse{
		ID:              e.ID,
		VoucherID:       e.VoucherID,
		Date:            e.Date.Format("2006-01-02"),
		DebitAccountID:  e.DebitAccountID,
		CreditAccountID: e.CreditAccountID,
		Amount:          e.Amount,
		Remarks:         e.Remarks,
	}
}
