package vouchers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlas-erp/atlas-erp/internal/accounting/coa"
	"github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

var testChart = []coa.Account{
	{ID: 1, Code: "1111", Name: "Petty Cash", Type: coa.AccountTypeAsset, IsPostable: true, CashClass: coa.CashClassCash},
	{ID: 2, Code: "1121", Name: "Operating Bank Account", Type: coa.AccountTypeAsset, IsPostable: true, CashClass: coa.CashClassBank},
	{ID: 3, Code: "1131", Name: "Tenant Receivables", Type: coa.AccountTypeAsset, IsPostable: true},
	{ID: 4, Code: "41", Name: "Rental Income", Type: coa.AccountTypeRevenue, IsPostable: true},
	{ID: 5, Code: "53", Name: "Depreciation Expense", Type: coa.AccountTypeExpense, IsPostable: true},
	{ID: 6, Code: "22", Name: "Accumulated Depreciation", Type: coa.AccountTypeLiability, IsPostable: true},
	{ID: 7, Code: "11", Name: "Current Assets", Type: coa.AccountTypeAsset, IsPostable: false},
	{ID: 8, Code: "211", Name: "Dealer Commission Payable", Type: coa.AccountTypeLiability, IsPostable: true},
}

func testResolver() AccountResolver {
	byID := make(map[int64]coa.Account, len(testChart))
	for _, acc := range testChart {
		byID[acc.ID] = acc
	}
	return func(id int64) (coa.Account, bool) {
		acc, ok := byID[id]
		return acc, ok
	}
}

func jv(lines ...Line) Voucher {
	return Voucher{
		Type:        TypeJournal,
		Date:        time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Description: "test journal",
		Status:      StatusDraft,
		Lines:       lines,
	}
}

func TestValidateBalancedJournal(t *testing.T) {
	validated, errs := Validate(jv(
		Line{AccountID: 5, Debit: 500},
		Line{AccountID: 6, Credit: 500},
	), testResolver(), nil)
	require.Empty(t, errs)
	require.Equal(t, "500", validated.TotalDebit().String())
	require.Equal(t, "500", validated.TotalCredit().String())
}

func TestValidateUnbalancedReportsDifference(t *testing.T) {
	_, errs := Validate(jv(
		Line{AccountID: 5, Debit: 300},
		Line{AccountID: 6, Credit: 250},
	), testResolver(), nil)
	require.True(t, errs.Has(shared.RuleUnbalanced))
	for _, e := range errs {
		if e.Rule == shared.RuleUnbalanced {
			require.Contains(t, e.Message, "50.00")
		}
	}
}

func TestValidateToleratesRoundingWithinCent(t *testing.T) {
	_, errs := Validate(jv(
		Line{AccountID: 5, Debit: 100.004},
		Line{AccountID: 6, Credit: 100.00},
	), testResolver(), nil)
	require.False(t, errs.Has(shared.RuleUnbalanced))
}

func TestValidateInsufficientLines(t *testing.T) {
	_, errs := Validate(jv(
		Line{AccountID: 5, Debit: 100},
	), testResolver(), nil)
	require.True(t, errs.Has(shared.RuleInsufficientLines))
}

func TestValidateOneSidedLines(t *testing.T) {
	_, errs := Validate(jv(
		Line{AccountID: 5, Debit: 100, Credit: 100},
		Line{AccountID: 6},
	), testResolver(), nil)
	require.True(t, errs.Has(shared.RuleLineNotOneSided))
	require.True(t, errs.Has(shared.RuleZeroAmountLine))
}

func TestValidateNegativeAmountRejected(t *testing.T) {
	_, errs := Validate(jv(
		Line{AccountID: 5, Debit: -100},
		Line{AccountID: 6, Credit: 100},
	), testResolver(), nil)
	require.True(t, errs.Has(shared.RuleLineNotOneSided))
}

func TestValidateUnknownAndSummaryAccounts(t *testing.T) {
	_, errs := Validate(jv(
		Line{AccountID: 999, Debit: 100},
		Line{AccountID: 7, Credit: 100},
	), testResolver(), nil)
	require.True(t, errs.Has(shared.RuleUnknownAccount))
	require.True(t, errs.Has(shared.RuleAccountNotPostable))
}

func TestValidateJournalRejectsCashAccount(t *testing.T) {
	// Balanced on purpose: the cash restriction must fire regardless.
	_, errs := Validate(jv(
		Line{AccountID: 1, Debit: 1000},
		Line{AccountID: 4, Credit: 1000},
	), testResolver(), nil)
	require.True(t, errs.Has(shared.RuleDisallowedAccount))
	require.False(t, errs.Has(shared.RuleUnbalanced))
}

func TestValidateCashClassByCodePrefix(t *testing.T) {
	resolve := func(id int64) (coa.Account, bool) {
		// No explicit flag; the 111 prefix marks it as cash.
		return coa.Account{ID: id, Code: "1112", Name: "Till", Type: coa.AccountTypeAsset, IsPostable: true}, true
	}
	_, errs := Validate(jv(
		Line{AccountID: 10, Debit: 50},
		Line{AccountID: 11, Credit: 50},
	), resolve, nil)
	require.True(t, errs.Has(shared.RuleDisallowedAccount))
}

func TestValidateBankVoucherRequiresBankLine(t *testing.T) {
	v := jv(
		Line{AccountID: 3, Debit: 700},
		Line{AccountID: 4, Credit: 700},
	)
	v.Type = TypeBankReceipt
	_, errs := Validate(v, testResolver(), nil)
	require.True(t, errs.Has(shared.RuleMissingContraAccount))

	v.Lines[0].AccountID = 2
	_, errs = Validate(v, testResolver(), nil)
	require.Empty(t, errs)
}

func TestValidateCashVoucherAcceptsCashLine(t *testing.T) {
	v := jv(
		Line{AccountID: 1, Debit: 150},
		Line{AccountID: 4, Credit: 150},
	)
	v.Type = TypeCashReceipt
	_, errs := Validate(v, testResolver(), nil)
	require.Empty(t, errs)
}

func TestValidateUnitRequiresProperty(t *testing.T) {
	unit := int64(12)
	v := jv(
		Line{AccountID: 5, Debit: 200, UnitID: &unit},
		Line{AccountID: 6, Credit: 200},
	)
	_, errs := Validate(v, testResolver(), nil)
	require.True(t, errs.Has(shared.RuleMissingPropertyContext))

	property := int64(3)
	v.PropertyID = &property
	_, errs = Validate(v, testResolver(), nil)
	require.Empty(t, errs)
}

func TestValidateCollectsAllViolations(t *testing.T) {
	_, errs := Validate(jv(
		Line{AccountID: 999},
		Line{AccountID: 1, Debit: 100, Credit: 50},
	), testResolver(), nil)
	// Zero line, unknown account, two-sided line, cash on JV, unbalanced:
	// every broken rule is reported in one pass.
	require.True(t, errs.Has(shared.RuleZeroAmountLine))
	require.True(t, errs.Has(shared.RuleUnknownAccount))
	require.True(t, errs.Has(shared.RuleLineNotOneSided))
	require.True(t, errs.Has(shared.RuleDisallowedAccount))
	require.GreaterOrEqual(t, len(errs), 4)
}

func TestValidateUnknownVoucherType(t *testing.T) {
	v := jv(
		Line{AccountID: 5, Debit: 100},
		Line{AccountID: 6, Credit: 100},
	)
	v.Type = VoucherType("XXX")
	_, errs := Validate(v, testResolver(), nil)
	require.Len(t, errs, 1)
}
