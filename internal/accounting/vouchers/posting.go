package vouchers

import (
	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
)

// materializeEntries converts a validated voucher's lines into debit/credit
// entry pairings. A two-line voucher yields a single entry; an N-line
// allocation voucher fans out into entries that preserve the same total on
// both sides. Line order is kept so the fan-out is deterministic.
func materializeEntries(v ValidatedVoucher) []ledger.Entry {
	vch := v.Voucher()

	type side struct {
		line      Line
		remaining decimal.Decimal
	}
	var debits, credits []side
	for _, line := range vch.Lines {
		if line.Debit > 0 {
			debits = append(debits, side{line: line, remaining: decimal.NewFromFloat(line.Debit)})
		} else {
			credits = append(credits, side{line: line, remaining: decimal.NewFromFloat(line.Credit)})
		}
	}

	var entries []ledger.Entry
	di, ci := 0, 0
	for di < len(debits) && ci < len(credits) {
		d, c := &debits[di], &credits[ci]
		amount := decimal.Min(d.remaining, c.remaining)
		if amount.IsPositive() {
			entries = append(entries, ledger.Entry{
				VoucherID:       vch.ID,
				Date:            vch.Date,
				DebitAccountID:  d.line.AccountID,
				CreditAccountID: c.line.AccountID,
				Amount:          amount.InexactFloat64(),
				Remarks:         entryRemarks(vch, d.line, c.line),
				PropertyID:      pairProperty(vch, d.line, c.line),
				UnitID:          pairUnit(vch, d.line, c.line),
				PaymentID:       vch.PaymentID,
				DealID:          vch.DealID,
				InvoiceID:       vch.InvoiceID,
				DealerID:        vch.DealerID,
			})
		}
		d.remaining = d.remaining.Sub(amount)
		c.remaining = c.remaining.Sub(amount)
		if d.remaining.IsZero() {
			di++
		}
		if c.remaining.IsZero() {
			ci++
		}
	}
	return entries
}

func entryRemarks(v Voucher, debit, credit Line) string {
	if debit.Description != "" {
		return debit.Description
	}
	if credit.Description != "" {
		return credit.Description
	}
	return v.Description
}

// Dimension tags prefer the allocation (non-contra) line over the voucher.
func pairProperty(v Voucher, debit, credit Line) *int64 {
	if debit.PropertyID != nil {
		return debit.PropertyID
	}
	if credit.PropertyID != nil {
		return credit.PropertyID
	}
	return v.PropertyID
}

func pairUnit(v Voucher, debit, credit Line) *int64 {
	if debit.UnitID != nil {
		return debit.UnitID
	}
	if credit.UnitID != nil {
		return credit.UnitID
	}
	return v.UnitID
}
