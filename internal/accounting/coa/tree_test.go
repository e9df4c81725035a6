package coa

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/atlas-erp/atlas-erp/testing"
)

func ptr(v int64) *int64 { return &v }

func sampleAccounts() []Account {
	return []Account{
		{ID: 1, Code: "1", Name: "Assets", Type: AccountTypeAsset},
		{ID: 2, Code: "11", Name: "Current Assets", Type: AccountTypeAsset, ParentID: ptr(1), Level: 1},
		{ID: 3, Code: "111", Name: "Cash & Equivalents", Type: AccountTypeAsset, ParentID: ptr(2), Level: 2},
		{ID: 4, Code: "1111", Name: "Petty Cash", Type: AccountTypeAsset, ParentID: ptr(3), Level: 3, IsPostable: true, CashClass: CashClassCash},
		{ID: 5, Code: "112", Name: "Bank Accounts", Type: AccountTypeAsset, ParentID: ptr(2), Level: 2},
		{ID: 6, Code: "1121", Name: "Operating Bank", Type: AccountTypeAsset, ParentID: ptr(5), Level: 3, IsPostable: true, CashClass: CashClassBank},
		{ID: 7, Code: "4", Name: "Revenue", Type: AccountTypeRevenue},
		{ID: 8, Code: "41", Name: "Rental Income", Type: AccountTypeRevenue, ParentID: ptr(7), Level: 1, IsPostable: true},
	}
}

func TestBuildForestRootsAndChildrenInCodeOrder(t *testing.T) {
	// Shuffle the input so ordering must come from codes, not insertion.
	accounts := sampleAccounts()
	accounts[0], accounts[6] = accounts[6], accounts[0]
	accounts[1], accounts[4] = accounts[4], accounts[1]

	f := BuildForest(accounts)
	require.Equal(t, len(accounts), f.Len())

	roots := f.Roots()
	require.Len(t, roots, 2)
	require.Equal(t, "1", roots[0].Code)
	require.Equal(t, "4", roots[1].Code)

	children := f.Children(2)
	require.Len(t, children, 2)
	require.Equal(t, "111", children[0].Code)
	require.Equal(t, "112", children[1].Code)
}

func TestBuildForestOrphanBecomesRoot(t *testing.T) {
	f := BuildForest([]Account{
		{ID: 10, Code: "99", Name: "Imported", Type: AccountTypeExpense, ParentID: ptr(404)},
	})
	roots := f.Roots()
	require.Len(t, roots, 1)
	require.Equal(t, int64(10), roots[0].ID)
}

func TestSubtreeWalkOrder(t *testing.T) {
	f := BuildForest(sampleAccounts())

	var codes []string
	for _, a := range f.Subtree(2) {
		codes = append(codes, a.Code)
	}
	require.Equal(t, []string{"11", "111", "1111", "112", "1121"}, codes)
}

func TestWalkStopsEarly(t *testing.T) {
	f := BuildForest(sampleAccounts())

	var visited int
	f.Walk(1, func(a Account) bool {
		visited++
		return a.Code != "111"
	})
	require.Equal(t, 3, visited)
}

func TestLookup(t *testing.T) {
	f := BuildForest(sampleAccounts())

	acc, ok := f.Lookup(6)
	require.True(t, ok)
	require.Equal(t, "Operating Bank", acc.Name)

	_, ok = f.Lookup(404)
	require.False(t, ok)
}

func TestEffectiveCashClass(t *testing.T) {
	explicit := Account{Code: "9999", CashClass: CashClassBank}
	require.Equal(t, CashClassBank, explicit.EffectiveCashClass())
	require.True(t, explicit.Cashlike())

	byPrefix := Account{Code: "1115", CashClass: CashClassNone}
	require.Equal(t, CashClassCash, byPrefix.EffectiveCashClass())

	bankPrefix := Account{Code: "1122", CashClass: CashClassNone}
	require.Equal(t, CashClassBank, bankPrefix.EffectiveCashClass())

	plain := Account{Code: "41", CashClass: CashClassNone}
	require.Equal(t, CashClassNone, plain.EffectiveCashClass())
	require.False(t, plain.Cashlike())
}

func TestNormalBalance(t *testing.T) {
	require.Equal(t, NormalBalanceDebit, AccountTypeAsset.NormalBalance())
	require.Equal(t, NormalBalanceDebit, AccountTypeExpense.NormalBalance())
	require.Equal(t, NormalBalanceCredit, AccountTypeLiability.NormalBalance())
	require.Equal(t, NormalBalanceCredit, AccountTypeEquity.NormalBalance())
	require.Equal(t, NormalBalanceCredit, AccountTypeRevenue.NormalBalance())
}
