package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Activity is a per-account debit/credit aggregate.
type Activity struct {
	Debit  float64
	Credit float64
}

// Repository encapsulates the read side of the ledger. Entries are written
// only by the voucher poster; this interface never mutates.
type Repository interface {
	EntriesForAccount(ctx context.Context, accountID int64, r Range) ([]Entry, error)
	EntriesForDealer(ctx context.Context, dealerID uuid.UUID) ([]Entry, error)
	AccountActivity(ctx context.Context, accountID int64, r Range) (Activity, error)
	ActivityTotals(ctx context.Context, r Range) (map[int64]Activity, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, voucher_id, date, debit_account_id, credit_account_id, amount, remarks, property_id, unit_id, payment_id, deal_id, invoice_id, dealer_id, created_at`

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.VoucherID, &e.Date, &e.DebitAccountID, &e.CreditAccountID, &e.Amount,
			&e.Remarks, &e.PropertyID, &e.UnitID, &e.PaymentID, &e.DealID, &e.InvoiceID, &e.DealerID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// rangeClause appends date bounds to args and returns the SQL fragment.
func rangeClause(r Range, args *[]any) string {
	var sb strings.Builder
	if !r.Start.IsZero() {
		*args = append(*args, r.Start)
		fmt.Fprintf(&sb, " AND date >= $%d", len(*args))
	}
	if !r.End.IsZero() {
		*args = append(*args, r.End)
		fmt.Fprintf(&sb, " AND date <= $%d", len(*args))
	}
	return sb.String()
}

func (r *repository) EntriesForAccount(ctx context.Context, accountID int64, rng Range) ([]Entry, error) {
	args := []any{accountID}
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE (debit_account_id=$1 OR credit_account_id=$1)` +
		rangeClause(rng, &args) + ` ORDER BY date ASC, id ASC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *repository) EntriesForDealer(ctx context.Context, dealerID uuid.UUID) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE dealer_id=$1 ORDER BY date ASC, id ASC`, dealerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *repository) AccountActivity(ctx context.Context, accountID int64, rng Range) (Activity, error) {
	args := []any{accountID}
	clause := rangeClause(rng, &args)
	query := `SELECT
  COALESCE(SUM(amount) FILTER (WHERE debit_account_id=$1), 0),
  COALESCE(SUM(amount) FILTER (WHERE credit_account_id=$1), 0)
FROM ledger_entries WHERE (debit_account_id=$1 OR credit_account_id=$1)` + clause
	var a Activity
	if err := r.db.QueryRow(ctx, query, args...).Scan(&a.Debit, &a.Credit); err != nil {
		return Activity{}, err
	}
	return a, nil
}

// ActivityTotals aggregates every account's debit and credit sides in one
// grouped query so tree rollups never issue per-node reads.
func (r *repository) ActivityTotals(ctx context.Context, rng Range) (map[int64]Activity, error) {
	var args []any
	clause := strings.TrimPrefix(rangeClause(rng, &args), " AND")
	where := ""
	if clause != "" {
		where = " WHERE" + clause
	}
	query := `SELECT account_id, SUM(debit), SUM(credit) FROM (
  SELECT debit_account_id AS account_id, amount AS debit, 0 AS credit FROM ledger_entries` + where + `
  UNION ALL
  SELECT credit_account_id, 0, amount FROM ledger_entries` + where + `
) sides GROUP BY account_id`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	totals := make(map[int64]Activity)
	for rows.Next() {
		var id int64
		var a Activity
		if err := rows.Scan(&id, &a.Debit, &a.Credit); err != nil {
			return nil, err
		}
		totals[id] = a
	}
	return totals, rows.Err()
}
