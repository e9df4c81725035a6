package reports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlas-erp/atlas-erp/internal/accounting/coa"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	_ "github.com/atlas-erp/atlas-erp/testing"
)

func ptr(v int64) *int64 { return &v }

// A closed month: 1000 rent banked, 400 spent on maintenance, the 600
// surplus retained.
func closedMonthRows() []AccountBalance {
	return []AccountBalance{
		{Code: "1121", Name: "Operating Bank", Type: coa.AccountTypeAsset, Debit: 1000, Credit: 400},
		{Code: "41", Name: "Rental Income", Type: coa.AccountTypeRevenue, Credit: 1000},
		{Code: "51", Name: "Maintenance Expense", Type: coa.AccountTypeExpense, Debit: 400},
		{Code: "31", Name: "Retained Earnings", Type: coa.AccountTypeEquity, Credit: 600},
	}
}

func TestBuildTrialBalanceGroupsByCodePrefix(t *testing.T) {
	tb := BuildTrialBalance([]AccountBalance{
		{Code: "1121", Name: "Operating Bank", Type: coa.AccountTypeAsset, Debit: 900},
		{Code: "1131", Name: "Receivables", Type: coa.AccountTypeAsset, Debit: 100},
		{Code: "41", Name: "Rental Income", Type: coa.AccountTypeRevenue, Credit: 1000},
	})

	require.Len(t, tb.Groups, 2)
	require.Equal(t, "11", tb.Groups[0].Key)
	require.Len(t, tb.Groups[0].Accounts, 2)
	require.Equal(t, "1121", tb.Groups[0].Accounts[0].Code)
	require.InDelta(t, 1000, tb.Groups[0].Debit, 0.001)

	require.Equal(t, "41", tb.Groups[1].Key)
	require.InDelta(t, 1000, tb.Groups[1].Credit, 0.001)

	require.InDelta(t, tb.TotalDebit, tb.TotalCredit, 0.001, "posted books must balance")
}

func TestBuildProfitAndLoss(t *testing.T) {
	pl := BuildProfitAndLoss(closedMonthRows())

	require.Len(t, pl.Revenue.Accounts, 1)
	require.InDelta(t, 1000, pl.Revenue.Total, 0.001)
	require.Len(t, pl.Expense.Accounts, 1)
	require.InDelta(t, 400, pl.Expense.Total, 0.001)
	require.InDelta(t, 600, pl.NetIncome, 0.001)
}

func TestBuildBalanceSheet(t *testing.T) {
	bs := BuildBalanceSheet(closedMonthRows())

	require.Len(t, bs.Assets.Accounts, 1)
	require.InDelta(t, 600, bs.Assets.Total, 0.001)
	require.Empty(t, bs.Liabilities.Accounts)
	require.Len(t, bs.Equity.Accounts, 1)
	require.InDelta(t, 600, bs.TotalLiabilitiesAndEquity, 0.001)
	require.InDelta(t, bs.Assets.Total, bs.TotalLiabilitiesAndEquity, 0.001)
}

type chartStub []coa.Account

func (c chartStub) List(ctx context.Context) ([]coa.Account, error) { return c, nil }

type activityStub map[int64]ledger.Activity

func (a activityStub) ActivityTotals(ctx context.Context, r ledger.Range) (map[int64]ledger.Activity, error) {
	return a, nil
}

func TestLoadRowsSkipsSummaryAccounts(t *testing.T) {
	chart := chartStub{
		{ID: 1, Code: "11", Name: "Current Assets", Type: coa.AccountTypeAsset},
		{ID: 2, Code: "1121", Name: "Operating Bank", Type: coa.AccountTypeAsset, ParentID: ptr(1), IsPostable: true},
		{ID: 3, Code: "41", Name: "Rental Income", Type: coa.AccountTypeRevenue, IsPostable: true},
	}
	activity := activityStub{
		2: {Debit: 1000},
		3: {Credit: 1000},
	}

	rows, err := LoadRows(context.Background(), chart, activity, ledger.Range{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "1121", rows[0].Code)
	require.InDelta(t, 1000, rows[0].Debit, 0.001)
	require.Equal(t, "41", rows[1].Code)
}

func TestAccountBalanceNet(t *testing.T) {
	asset := AccountBalance{Type: coa.AccountTypeAsset, Debit: 1000, Credit: 400}
	require.InDelta(t, 600, asset.Net(), 0.001)

	revenue := AccountBalance{Type: coa.AccountTypeRevenue, Debit: 100, Credit: 1000}
	require.InDelta(t, 900, revenue.Net(), 0.001)
}
