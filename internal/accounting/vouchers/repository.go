package vouchers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	"github.com/atlas-erp/atlas-erp/internal/accounting/shared"
	"github.com/atlas-erp/atlas-erp/internal/platform/db"
	internalShared "github.com/atlas-erp/atlas-erp/internal/shared"
)

// Repository encapsulates DB operations for vouchers.
type Repository interface {
	List(ctx context.Context) ([]Voucher, error)
	Get(ctx context.Context, id int64) (Voucher, error)
	Create(ctx context.Context, v Voucher) (Voucher, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available inside a posting transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (Voucher, error)
	InsertVoucher(ctx context.Context, v Voucher) (Voucher, error)
	InsertEntries(ctx context.Context, entries []ledger.Entry) ([]ledger.Entry, error)
	UpdateStatus(ctx context.Context, id int64, status VoucherStatus, postedBy int64) error
	LinkSource(ctx context.Context, module string, ref uuid.UUID, voucherID int64) error
	RecordAudit(ctx context.Context, log internalShared.AuditLog) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const voucherColumns = `id, number, type, date, description, status, property_id, unit_id, payment_id, deal_id, invoice_id, dealer_id, reversal_of, posted_by, posted_at, created_at, updated_at`

func scanVoucher(row pgx.Row) (Voucher, error) {
	var v Voucher
	err := row.Scan(&v.ID, &v.Number, &v.Type, &v.Date, &v.Description, &v.Status,
		&v.PropertyID, &v.UnitID, &v.PaymentID, &v.DealID, &v.InvoiceID, &v.DealerID,
		&v.ReversalOf, &v.PostedBy, &v.PostedAt, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (r *repository) List(ctx context.Context) ([]Voucher, error) {
	rows, err := r.db.Query(ctx, `SELECT `+voucherColumns+` FROM vouchers ORDER BY number DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Voucher, error) {
	v, err := scanVoucher(r.db.QueryRow(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Voucher{}, shared.ErrVoucherNotFound
		}
		return Voucher{}, err
	}
	v.Lines, err = r.lines(ctx, id)
	return v, err
}

func (r *repository) lines(ctx context.Context, voucherID int64) ([]Line, error) {
	rows, err := r.db.Query(ctx, `SELECT id, voucher_id, account_id, debit, credit, description, property_id, unit_id, created_at
FROM voucher_lines WHERE voucher_id=$1 ORDER BY id ASC`, voucherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLines(rows)
}

func scanLines(rows pgx.Rows) ([]Line, error) {
	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.VoucherID, &l.AccountID, &l.Debit, &l.Credit, &l.Description, &l.PropertyID, &l.UnitID, &l.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) Create(ctx context.Context, v Voucher) (Voucher, error) {
	var created Voucher
	err := r.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inserted, err := tx.InsertVoucher(ctx, v)
		if err != nil {
			return err
		}
		created = inserted
		return nil
	})
	if err != nil {
		return Voucher{}, err
	}
	return created, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Voucher, error) {
	v, err := scanVoucher(r.tx.QueryRow(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Voucher{}, shared.ErrVoucherNotFound
		}
		return Voucher{}, err
	}
	rows, err := r.tx.Query(ctx, `SELECT id, voucher_id, account_id, debit, credit, description, property_id, unit_id, created_at
FROM voucher_lines WHERE voucher_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return Voucher{}, err
	}
	defer rows.Close()
	v.Lines, err = scanLines(rows)
	return v, err
}

func (r *txRepository) InsertVoucher(ctx context.Context, v Voucher) (Voucher, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO vouchers (type, date, description, status, property_id, unit_id, payment_id, deal_id, invoice_id, dealer_id, reversal_of, posted_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id, number, created_at, updated_at`,
		v.Type, v.Date, v.Description, v.Status, v.PropertyID, v.UnitID,
		v.PaymentID, v.DealID, v.InvoiceID, v.DealerID, v.ReversalOf, nullInt(v.PostedBy))
	if err := row.Scan(&v.ID, &v.Number, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return Voucher{}, err
	}
	for i := range v.Lines {
		line := &v.Lines[i]
		line.VoucherID = v.ID
		err := r.tx.QueryRow(ctx, `INSERT INTO voucher_lines (voucher_id, account_id, debit, credit, description, property_id, unit_id)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at`,
			v.ID, line.AccountID, toNumeric(line.Debit), toNumeric(line.Credit), line.Description, line.PropertyID, line.UnitID).
			Scan(&line.ID, &line.CreatedAt)
		if err != nil {
			return Voucher{}, err
		}
	}
	return v, nil
}

func (r *txRepository) InsertEntries(ctx context.Context, entries []ledger.Entry) ([]ledger.Entry, error) {
	out := make([]ledger.Entry, 0, len(entries))
	for _, e := range entries {
		err := r.tx.QueryRow(ctx, `INSERT INTO ledger_entries (voucher_id, date, debit_account_id, credit_account_id, amount, remarks, property_id, unit_id, payment_id, deal_id, invoice_id, dealer_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id, created_at`,
			e.VoucherID, e.Date, e.DebitAccountID, e.CreditAccountID, toNumeric(e.Amount),
			e.Remarks, e.PropertyID, e.UnitID, e.PaymentID, e.DealID, e.InvoiceID, e.DealerID).
			Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *txRepository) UpdateStatus(ctx context.Context, id int64, status VoucherStatus, postedBy int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE vouchers SET status=$2, posted_by=COALESCE($3, posted_by), posted_at=CASE WHEN $2='POSTED' THEN NOW() ELSE posted_at END, updated_at=NOW() WHERE id=$1`,
		id, status, nullInt(postedBy))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrVoucherNotFound
	}
	return nil
}

// RecordAudit writes the audit record through the open transaction, so a
// posting only commits together with its trail entry.
func (r *txRepository) RecordAudit(ctx context.Context, log internalShared.AuditLog) error {
	return internalShared.NewAuditLogger(r.tx).Record(ctx, log)
}

func (r *txRepository) LinkSource(ctx context.Context, module string, ref uuid.UUID, voucherID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (module, ref_id, voucher_id) VALUES ($1,$2,$3)`, module, ref, voucherID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_source_links" {
			return shared.ErrSourceConflict
		}
		return err
	}
	return nil
}

// Helpers
func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
