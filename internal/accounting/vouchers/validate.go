package vouchers

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/accounting/coa"
	"github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

// The validation taxonomy lives in accounting/shared so transport code can
// map it without importing this package.
type (
	ValidationError  = shared.ValidationError
	ValidationErrors = shared.ValidationErrors
)

func voucherError(rule shared.RuleID, format string, args ...any) ValidationError {
	return ValidationError{Rule: rule, Line: -1, Message: fmt.Sprintf(format, args...)}
}

func lineError(rule shared.RuleID, line int, format string, args ...any) ValidationError {
	return ValidationError{Rule: rule, Line: line, Message: fmt.Sprintf(format, args...)}
}

// AccountResolver looks up accounts during validation. Implementations must
// be side-effect free; validation runs concurrently across vouchers.
type AccountResolver func(accountID int64) (coa.Account, bool)

// TypeRule configures per-voucher-type validation.
type TypeRule struct {
	// MinLines is the minimum line count for the type.
	MinLines int
	// ForbidCashlike rejects any line on a cash/bank account (journal vouchers).
	ForbidCashlike bool
	// RequireClass demands at least one contra line on an account of this
	// cash class (bank vouchers require a bank line, cash vouchers a cash line).
	RequireClass coa.CashClass
}

// DefaultTypeRules mirrors business policy: journals take at least two
// non-cash lines, payment/receipt vouchers need a contra cash or bank line
// plus at least one allocation line.
var DefaultTypeRules = map[VoucherType]TypeRule{
	TypeJournal:     {MinLines: 2, ForbidCashlike: true},
	TypeBankPayment: {MinLines: 2, RequireClass: coa.CashClassBank},
	TypeBankReceipt: {MinLines: 2, RequireClass: coa.CashClassBank},
	TypeCashPayment: {MinLines: 2, RequireClass: coa.CashClassCash},
	TypeCashReceipt: {MinLines: 2, RequireClass: coa.CashClassCash},
}

// balanceTolerance absorbs currency rounding when comparing totals.
var balanceTolerance = decimal.NewFromFloat(0.01)

// ValidatedVoucher is the immutable proof that a voucher passed every rule,
// carrying the confirmed totals for idempotent re-display.
type ValidatedVoucher struct {
	voucher     Voucher
	totalDebit  decimal.Decimal
	totalCredit decimal.Decimal
}

// Voucher returns a copy of the validated voucher.
func (v ValidatedVoucher) Voucher() Voucher { return v.voucher }

// TotalDebit returns the confirmed debit total.
func (v ValidatedVoucher) TotalDebit() decimal.Decimal { return v.totalDebit }

// TotalCredit returns the confirmed credit total.
func (v ValidatedVoucher) TotalCredit() decimal.Decimal { return v.totalCredit }

// Validate runs every double-entry rule against the voucher and collects all
// violations instead of stopping at the first. It is pure: no shared state,
// no I/O beyond the resolver callback.
func Validate(v Voucher, resolve AccountResolver, rules map[VoucherType]TypeRule) (ValidatedVoucher, ValidationErrors) {
	if rules == nil {
		rules = DefaultTypeRules
	}
	rule, ok := rules[v.Type]
	if !ok {
		return ValidatedVoucher{}, ValidationErrors{
			voucherError(shared.RuleDisallowedAccount, "unknown voucher type %q", v.Type),
		}
	}

	var errs ValidationErrors

	if len(v.Lines) < rule.MinLines {
		errs = append(errs, voucherError(shared.RuleInsufficientLines,
			"%s voucher requires at least %d lines, got %d", v.Type, rule.MinLines, len(v.Lines)))
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	classSatisfied := rule.RequireClass == "" || rule.RequireClass == coa.CashClassNone

	for i, line := range v.Lines {
		debit := decimal.NewFromFloat(line.Debit)
		credit := decimal.NewFromFloat(line.Credit)

		switch {
		case debit.IsZero() && credit.IsZero():
			errs = append(errs, lineError(shared.RuleZeroAmountLine, i, "line carries neither debit nor credit"))
		case debit.IsNegative() || credit.IsNegative():
			errs = append(errs, lineError(shared.RuleLineNotOneSided, i, "amounts must not be negative"))
		case debit.IsPositive() && credit.IsPositive():
			errs = append(errs, lineError(shared.RuleLineNotOneSided, i,
				"line is both debit %s and credit %s", debit.StringFixed(2), credit.StringFixed(2)))
		default:
			totalDebit = totalDebit.Add(debit)
			totalCredit = totalCredit.Add(credit)
		}

		acc, found := resolve(line.AccountID)
		if !found {
			errs = append(errs, lineError(shared.RuleUnknownAccount, i, "account %d does not exist", line.AccountID))
			continue
		}
		if !acc.IsPostable {
			errs = append(errs, lineError(shared.RuleAccountNotPostable, i,
				"account %s (%s) is a summary account", acc.Code, acc.Name))
		}
		if rule.ForbidCashlike && acc.Cashlike() {
			errs = append(errs, lineError(shared.RuleDisallowedAccount, i,
				"account %s (%s) is a %s account; use a cash/bank voucher", acc.Code, acc.Name, acc.EffectiveCashClass()))
		}
		if !classSatisfied && acc.EffectiveCashClass() == rule.RequireClass {
			classSatisfied = true
		}
		if lineUnit(v, line) != nil && lineProperty(v, line) == nil {
			errs = append(errs, lineError(shared.RuleMissingPropertyContext, i,
				"unit tag requires a property tag on the line or voucher"))
		}
	}

	if diff := totalDebit.Sub(totalCredit); diff.Abs().GreaterThan(balanceTolerance) {
		errs = append(errs, voucherError(shared.RuleUnbalanced,
			"debits %s != credits %s, difference %s",
			totalDebit.StringFixed(2), totalCredit.StringFixed(2), diff.StringFixed(2)))
	}
	if !classSatisfied {
		errs = append(errs, voucherError(shared.RuleMissingContraAccount,
			"%s voucher requires at least one %s account line", v.Type, rule.RequireClass))
	}

	if len(errs) > 0 {
		return ValidatedVoucher{}, errs
	}
	return ValidatedVoucher{voucher: v, totalDebit: totalDebit, totalCredit: totalCredit}, nil
}

func lineProperty(v Voucher, l Line) *int64 {
	if l.PropertyID != nil {
		return l.PropertyID
	}
	return v.PropertyID
}

func lineUnit(v Voucher, l Line) *int64 {
	if l.UnitID != nil {
		return l.UnitID
	}
	return v.UnitID
}
