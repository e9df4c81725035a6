package coa

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

// Repository encapsulates DB operations for the chart of accounts.
type Repository interface {
	List(ctx context.Context) ([]Account, error)
	Get(ctx context.Context, id int64) (Account, error)
	Insert(ctx context.Context, acc Account) (Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, code, name, type, parent_id, level, is_postable, cash_class, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.Level, &a.IsPostable, &a.CashClass, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) Insert(ctx context.Context, acc Account) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (code, name, type, parent_id, level, is_postable, cash_class, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, created_at, updated_at`,
		acc.Code, acc.Name, acc.Type, acc.ParentID, acc.Level, acc.IsPostable, acc.CashClass, acc.IsActive)
	if err := row.Scan(&acc.ID, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_accounts_code" {
			return Account{}, shared.ErrDuplicateCode
		}
		return Account{}, err
	}
	return acc, nil
}
