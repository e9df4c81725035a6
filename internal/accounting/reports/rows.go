package reports

import (
	"context"
	"sort"

	"github.com/atlas-erp/atlas-erp/internal/accounting/coa"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
)

// AccountBalance models a general ledger account with aggregated activity.
type AccountBalance struct {
	Code   string
	Name   string
	Type   coa.AccountType
	Debit  float64
	Credit float64
}

// Net returns the balance signed by the account's normal side.
func (a AccountBalance) Net() float64 {
	return ledger.BalanceFor(a.Type.NormalBalance(), a.Debit, a.Credit)
}

// GroupKey returns a key used for grouping trial balance rows.
func (a AccountBalance) GroupKey() string {
	if len(a.Code) >= 2 {
		return a.Code[:2]
	}
	return a.Code
}

// AccountLister provides the chart rows the loader joins activity against.
type AccountLister interface {
	List(ctx context.Context) ([]coa.Account, error)
}

// ActivitySource provides grouped per-account activity.
type ActivitySource interface {
	ActivityTotals(ctx context.Context, r ledger.Range) (map[int64]ledger.Activity, error)
}

// LoadRows joins postable accounts with their ledger activity, in code order.
// Summary accounts are excluded; reports that need rollups build them from
// these leaf rows.
func LoadRows(ctx context.Context, accounts AccountLister, activity ActivitySource, r ledger.Range) ([]AccountBalance, error) {
	chart, err := accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := activity.ActivityTotals(ctx, r)
	if err != nil {
		return nil, err
	}
	var rows []AccountBalance
	for _, acc := range chart {
		if !acc.IsPostable {
			continue
		}
		act := totals[acc.ID]
		rows = append(rows, AccountBalance{
			Code:   acc.Code,
			Name:   acc.Name,
			Type:   acc.Type,
			Debit:  act.Debit,
			Credit: act.Credit,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows, nil
}
