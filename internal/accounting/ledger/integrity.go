package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-erp/atlas-erp/internal/platform/httpx"
)

// IntegrityIssue is one detected inconsistency between posted vouchers and
// their ledger entries.
type IntegrityIssue struct {
	Kind      string  `json:"kind"`
	VoucherID int64   `json:"voucherId"`
	LineTotal float64 `json:"lineTotal,omitempty"`
	Posted    float64 `json:"postedTotal,omitempty"`
}

const (
	IssueMissingEntries = "posted_without_entries"
	IssueTotalMismatch  = "entry_total_mismatch"
)

// IntegrityReport summarises one scan of the books.
type IntegrityReport struct {
	CheckedAt time.Time        `json:"checkedAt"`
	Healthy   bool             `json:"healthy"`
	Issues    []IntegrityIssue `json:"issues"`
}

// IntegritySource provides the two reconciliation queries the checker runs.
type IntegritySource interface {
	PostedWithoutEntries(ctx context.Context) ([]int64, error)
	EntryTotalMismatches(ctx context.Context) ([]IntegrityIssue, error)
}

type integritySource struct {
	db *pgxpool.Pool
}

func NewIntegritySource(db *pgxpool.Pool) IntegritySource {
	return &integritySource{db: db}
}

func (s *integritySource) PostedWithoutEntries(ctx context.Context) ([]int64, error) {
	rows, err := s.db.Query(ctx, `SELECT v.id FROM vouchers v
WHERE v.status = 'POSTED'
  AND NOT EXISTS (SELECT 1 FROM ledger_entries e WHERE e.voucher_id = v.id)
ORDER BY v.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *integritySource) EntryTotalMismatches(ctx context.Context) ([]IntegrityIssue, error) {
	rows, err := s.db.Query(ctx, `SELECT v.id, COALESCE(l.total, 0), COALESCE(e.total, 0)
FROM vouchers v
LEFT JOIN (SELECT voucher_id, SUM(debit) AS total FROM voucher_lines GROUP BY voucher_id) l ON l.voucher_id = v.id
LEFT JOIN (SELECT voucher_id, SUM(amount) AS total FROM ledger_entries GROUP BY voucher_id) e ON e.voucher_id = v.id
WHERE v.status = 'POSTED'
  AND ABS(COALESCE(l.total, 0) - COALESCE(e.total, 0)) > 0.01
ORDER BY v.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var issues []IntegrityIssue
	for rows.Next() {
		issue := IntegrityIssue{Kind: IssueTotalMismatch}
		if err := rows.Scan(&issue.VoucherID, &issue.LineTotal, &issue.Posted); err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// IntegrityChecker reconciles posted vouchers against the entries the poster
// wrote for them. The entries are immutable, so a clean scan stays clean
// until the next posting.
type IntegrityChecker struct {
	source IntegritySource
	logger *slog.Logger
	now    func() time.Time
}

func NewIntegrityChecker(source IntegritySource, logger *slog.Logger) *IntegrityChecker {
	return &IntegrityChecker{source: source, logger: logger, now: time.Now}
}

func (c *IntegrityChecker) Run(ctx context.Context) (IntegrityReport, error) {
	report := IntegrityReport{CheckedAt: c.now()}
	missing, err := c.source.PostedWithoutEntries(ctx)
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("integrity: posted without entries: %w", err)
	}
	for _, id := range missing {
		report.Issues = append(report.Issues, IntegrityIssue{Kind: IssueMissingEntries, VoucherID: id})
	}
	mismatches, err := c.source.EntryTotalMismatches(ctx)
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("integrity: entry totals: %w", err)
	}
	report.Issues = append(report.Issues, mismatches...)
	report.Healthy = len(report.Issues) == 0
	if !report.Healthy && c.logger != nil {
		c.logger.Warn("ledger integrity issues found", slog.Int("count", len(report.Issues)))
	}
	return report, nil
}

// ServeHTTP exposes the scan as a diagnostics endpoint.
func (c *IntegrityChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report, err := c.Run(r.Context())
	if err != nil {
		if c.logger != nil {
			c.logger.Error("ledger integrity scan", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
