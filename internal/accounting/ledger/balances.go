package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/accounting/coa"
)

// Totals is the derived balance for one account or subtree. Balance is
// signed by the account's normal side, so a healthy account reads
// non-negative.
type Totals struct {
	DebitTotal  float64 `json:"debitTotal"`
	CreditTotal float64 `json:"creditTotal"`
	Balance     float64 `json:"balance"`
}

// BalanceFor applies the normal-balance sign convention.
func BalanceFor(nb coa.NormalBalance, debit, credit float64) float64 {
	d := decimal.NewFromFloat(debit)
	c := decimal.NewFromFloat(credit)
	if nb == coa.NormalBalanceDebit {
		return d.Sub(c).InexactFloat64()
	}
	return c.Sub(d).InexactFloat64()
}

// ChartPort is the chart-of-accounts surface the aggregator needs.
type ChartPort interface {
	Resolve(ctx context.Context, id int64) (coa.Account, error)
	Forest(ctx context.Context) (*coa.Forest, error)
}

// Aggregator derives account balances from ledger entries on read. Balances
// are never stored as mutable columns; the only cache is a TTL'd redis copy
// of full-history totals, dropped whenever the poster touches the account.
type Aggregator struct {
	repo   Repository
	chart  ChartPort
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewAggregator(repo Repository, chart ChartPort, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{repo: repo, chart: chart, cache: cache, ttl: ttl, logger: logger}
}

func balanceKey(accountID int64) string {
	return fmt.Sprintf("atlas:balance:%d", accountID)
}

// AccountTotals computes the debit/credit totals and signed balance for one
// account. Full-history reads go through the cache; ranged reads always hit
// the database.
func (a *Aggregator) AccountTotals(ctx context.Context, accountID int64, r Range) (Totals, error) {
	acc, err := a.chart.Resolve(ctx, accountID)
	if err != nil {
		return Totals{}, err
	}
	cacheable := a.cache != nil && r.Start.IsZero() && r.End.IsZero()
	if cacheable {
		if totals, ok := a.cached(ctx, accountID); ok {
			return totals, nil
		}
	}
	activity, err := a.repo.AccountActivity(ctx, accountID, r)
	if err != nil {
		return Totals{}, err
	}
	totals := Totals{
		DebitTotal:  activity.Debit,
		CreditTotal: activity.Credit,
		Balance:     BalanceFor(acc.NormalBalance(), activity.Debit, activity.Credit),
	}
	if cacheable {
		a.store(ctx, accountID, totals)
	}
	return totals, nil
}

func (a *Aggregator) cached(ctx context.Context, accountID int64) (Totals, bool) {
	raw, err := a.cache.Get(ctx, balanceKey(accountID)).Bytes()
	if err != nil {
		if err != redis.Nil && a.logger != nil {
			a.logger.Warn("balance cache read", slog.Any("error", err))
		}
		return Totals{}, false
	}
	var totals Totals
	if err := json.Unmarshal(raw, &totals); err != nil {
		return Totals{}, false
	}
	return totals, true
}

func (a *Aggregator) store(ctx context.Context, accountID int64, totals Totals) {
	raw, err := json.Marshal(totals)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, balanceKey(accountID), raw, a.ttl).Err(); err != nil && a.logger != nil {
		a.logger.Warn("balance cache write", slog.Any("error", err))
	}
}

// Invalidate drops cached totals for the given accounts. Called by the
// poster after a commit; cache misses simply fall back to derive-on-read.
func (a *Aggregator) Invalidate(ctx context.Context, accountIDs ...int64) {
	if a.cache == nil || len(accountIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		keys = append(keys, balanceKey(id))
	}
	if err := a.cache.Del(ctx, keys...).Err(); err != nil && a.logger != nil {
		a.logger.Warn("balance cache invalidate", slog.Any("error", err))
	}
}

// SubtreeTotals rolls the account's whole subtree up from leaf activity.
// Parent totals are always recomputed from children, never stored, so the
// sum-of-leaves contract cannot drift.
func (a *Aggregator) SubtreeTotals(ctx context.Context, accountID int64, r Range) (Totals, error) {
	forest, err := a.chart.Forest(ctx)
	if err != nil {
		return Totals{}, err
	}
	acc, ok := forest.Lookup(accountID)
	if !ok {
		return Totals{}, fmt.Errorf("accounting: account %d not found", accountID)
	}
	activity, err := a.repo.ActivityTotals(ctx, r)
	if err != nil {
		return Totals{}, err
	}
	rolled := Rollup(forest, activity)
	totals := rolled[accountID]
	totals.Balance = BalanceFor(acc.NormalBalance(), totals.DebitTotal, totals.CreditTotal)
	return totals, nil
}

// Rollup computes subtree debit/credit totals for every account in the
// forest: each account's figure is its own activity plus the sum of its
// children's rolled-up figures.
func Rollup(f *coa.Forest, activity map[int64]Activity) map[int64]Totals {
	out := make(map[int64]Totals, f.Len())
	for _, root := range f.Roots() {
		rollupNode(f, activity, root.ID, out)
	}
	return out
}

func rollupNode(f *coa.Forest, activity map[int64]Activity, id int64, out map[int64]Totals) (decimal.Decimal, decimal.Decimal) {
	own := activity[id]
	debit := decimal.NewFromFloat(own.Debit)
	credit := decimal.NewFromFloat(own.Credit)
	for _, child := range f.Children(id) {
		d, c := rollupNode(f, activity, child.ID, out)
		debit = debit.Add(d)
		credit = credit.Add(c)
	}
	acc, _ := f.Lookup(id)
	out[id] = Totals{
		DebitTotal:  debit.InexactFloat64(),
		CreditTotal: credit.InexactFloat64(),
		Balance:     BalanceFor(acc.NormalBalance(), debit.InexactFloat64(), credit.InexactFloat64()),
	}
	return debit, credit
}
