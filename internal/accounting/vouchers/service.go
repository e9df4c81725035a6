package vouchers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/atlas-erp/atlas-erp/internal/accounting/coa"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	"github.com/atlas-erp/atlas-erp/internal/accounting/shared"
	internalShared "github.com/atlas-erp/atlas-erp/internal/shared"
)

// AccountSource provides the chart snapshot used to resolve voucher lines.
type AccountSource interface {
	List(ctx context.Context) ([]coa.Account, error)
}

// BalancePort lets the poster drop cached balances for touched accounts.
type BalancePort interface {
	Invalidate(ctx context.Context, accountIDs ...int64)
}

type Service struct {
	repo     Repository
	accounts AccountSource
	balances BalancePort
	rules    map[VoucherType]TypeRule
	now      func() time.Time
	onPosted func(VoucherType)
}

func NewService(repo Repository, accounts AccountSource, balances BalancePort) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		balances: balances,
		rules:    DefaultTypeRules,
		now:      time.Now,
	}
}

// WithRules overrides the per-type validation rules.
func (s *Service) WithRules(rules map[VoucherType]TypeRule) {
	if rules != nil {
		s.rules = rules
	}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithPostingObserver registers a callback fired after each successful
// posting, keyed by voucher type. Used for metrics.
func (s *Service) WithPostingObserver(fn func(VoucherType)) {
	s.onPosted = fn
}

func (s *Service) List(ctx context.Context) ([]Voucher, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Voucher, error) {
	return s.repo.Get(ctx, id)
}

// LineInput describes one requested voucher line.
type LineInput struct {
	AccountID   int64
	Debit       float64
	Credit      float64
	Description string
	PropertyID  *int64
	UnitID      *int64
}

// CreateInput groups fields for a draft voucher.
type CreateInput struct {
	Type        VoucherType
	Date        time.Time
	Description string
	PropertyID  *int64
	UnitID      *int64
	PaymentID   *uuid.UUID
	DealID      *uuid.UUID
	InvoiceID   *uuid.UUID
	DealerID    *uuid.UUID
	Lines       []LineInput
}

func (in CreateInput) voucher() Voucher {
	v := Voucher{
		Type:        in.Type,
		Date:        in.Date,
		Description: in.Description,
		Status:      StatusDraft,
		PropertyID:  in.PropertyID,
		UnitID:      in.UnitID,
		PaymentID:   in.PaymentID,
		DealID:      in.DealID,
		InvoiceID:   in.InvoiceID,
		DealerID:    in.DealerID,
	}
	for _, l := range in.Lines {
		v.Lines = append(v.Lines, Line{
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
			PropertyID:  l.PropertyID,
			UnitID:      l.UnitID,
		})
	}
	return v
}

func (s *Service) resolver(ctx context.Context) (AccountResolver, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]coa.Account, len(accounts))
	for _, acc := range accounts {
		byID[acc.ID] = acc
	}
	return func(id int64) (coa.Account, bool) {
		acc, ok := byID[id]
		return acc, ok
	}, nil
}

// Create validates the draft and persists it only when every rule passes.
// Rule violations come back as ValidationErrors so callers can show all of
// them at once.
func (s *Service) Create(ctx context.Context, in CreateInput) (Voucher, error) {
	resolve, err := s.resolver(ctx)
	if err != nil {
		return Voucher{}, err
	}
	draft := in.voucher()
	if _, verrs := Validate(draft, resolve, s.rules); len(verrs) > 0 {
		return Voucher{}, verrs
	}
	return s.repo.Create(ctx, draft)
}

// ValidateBatch checks many drafts concurrently against one chart snapshot.
// Validation is pure, so the only shared work is the account load.
func (s *Service) ValidateBatch(ctx context.Context, inputs []CreateInput) ([]ValidationErrors, error) {
	resolve, err := s.resolver(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]ValidationErrors, len(inputs))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			_, verrs := Validate(in.voucher(), resolve, s.rules)
			results[i] = verrs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// PostResult carries the outcome of a successful posting.
type PostResult struct {
	Voucher Voucher
	Entries []ledger.Entry
}

// Post atomically converts a draft voucher into immutable ledger entries.
// The row lock plus the status check inside the transaction is the guard
// against two callers posting the same voucher: the loser observes a
// non-draft status and fails with ErrAlreadyPosted, never double-posts.
func (s *Service) Post(ctx context.Context, voucherID, actorID int64) (PostResult, error) {
	resolve, err := s.resolver(ctx)
	if err != nil {
		return PostResult{}, err
	}
	var result PostResult
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, voucherID)
		if err != nil {
			return err
		}
		switch current.Status {
		case StatusPosted:
			return shared.ErrAlreadyPosted
		case StatusVoid:
			return shared.ErrVoucherVoid
		}
		validated, verrs := Validate(current, resolve, s.rules)
		if len(verrs) > 0 {
			return verrs
		}
		entries, err := tx.InsertEntries(ctx, materializeEntries(validated))
		if err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, current.ID, StatusPosted, actorID); err != nil {
			return err
		}
		if err := s.linkSources(ctx, tx, current); err != nil {
			return err
		}
		current.Status = StatusPosted
		current.PostedBy = actorID
		// The audit record is part of the posting itself: if it cannot be
		// written, the whole transaction rolls back.
		if err := tx.RecordAudit(ctx, s.auditEntry("voucher.post", actorID, current, len(entries))); err != nil {
			return err
		}
		result = PostResult{Voucher: current, Entries: entries}
		return nil
	})
	if err != nil {
		return PostResult{}, err
	}
	s.afterPost(ctx, result)
	return result, nil
}

func (s *Service) linkSources(ctx context.Context, tx TxRepository, v Voucher) error {
	links := []struct {
		module string
		ref    *uuid.UUID
	}{
		{"payment", v.PaymentID},
		{"deal", v.DealID},
		{"invoice", v.InvoiceID},
	}
	for _, link := range links {
		if link.ref == nil {
			continue
		}
		if err := tx.LinkSource(ctx, link.module, *link.ref, v.ID); err != nil {
			if errors.Is(err, shared.ErrSourceConflict) {
				return shared.ErrSourceAlreadyLinked
			}
			return err
		}
	}
	return nil
}

// ReverseInput wraps parameters for reversal.
type ReverseInput struct {
	VoucherID int64
	ActorID   int64
	Memo      string
	Date      *time.Time
}

// Reverse voids a posted voucher by posting an offsetting voucher with the
// debit and credit sides swapped. The original rows are never touched.
func (s *Service) Reverse(ctx context.Context, in ReverseInput) (PostResult, error) {
	resolve, err := s.resolver(ctx)
	if err != nil {
		return PostResult{}, err
	}
	var result PostResult
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetForUpdate(ctx, in.VoucherID)
		if err != nil {
			return err
		}
		if original.Status != StatusPosted {
			return shared.ErrNotPosted
		}
		reversal := Voucher{
			Type:        original.Type,
			Date:        original.Date,
			Description: defaultReversalMemo(in.Memo, original.Number),
			Status:      StatusDraft,
			PropertyID:  original.PropertyID,
			UnitID:      original.UnitID,
			ReversalOf:  &original.ID,
		}
		if in.Date != nil {
			reversal.Date = *in.Date
		}
		for _, line := range original.Lines {
			reversal.Lines = append(reversal.Lines, Line{
				AccountID:   line.AccountID,
				Debit:       line.Credit,
				Credit:      line.Debit,
				Description: line.Description,
				PropertyID:  line.PropertyID,
				UnitID:      line.UnitID,
			})
		}
		inserted, err := tx.InsertVoucher(ctx, reversal)
		if err != nil {
			return err
		}
		validated, verrs := Validate(inserted, resolve, s.rules)
		if len(verrs) > 0 {
			return verrs
		}
		entries, err := tx.InsertEntries(ctx, materializeEntries(validated))
		if err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, inserted.ID, StatusPosted, in.ActorID); err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, original.ID, StatusVoid, 0); err != nil {
			return err
		}
		inserted.Status = StatusPosted
		inserted.PostedBy = in.ActorID
		if err := tx.RecordAudit(ctx, s.auditEntry("voucher.reverse", in.ActorID, inserted, len(entries))); err != nil {
			return err
		}
		result = PostResult{Voucher: inserted, Entries: entries}
		return nil
	})
	if err != nil {
		return PostResult{}, err
	}
	s.afterPost(ctx, result)
	return result, nil
}

func (s *Service) auditEntry(action string, actorID int64, v Voucher, entries int) internalShared.AuditLog {
	return internalShared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "voucher",
		EntityID: fmt.Sprintf("%d", v.ID),
		Meta: map[string]any{
			"number":  v.Number,
			"type":    string(v.Type),
			"entries": entries,
		},
		At: s.now(),
	}
}

// afterPost handles the post-commit side effects. Unlike the audit record,
// these are recoverable: a dropped cache key re-derives, a missed counter
// only skews metrics.
func (s *Service) afterPost(ctx context.Context, result PostResult) {
	if s.onPosted != nil {
		s.onPosted(result.Voucher.Type)
	}
	if s.balances != nil {
		s.balances.Invalidate(ctx, touchedAccounts(result.Entries)...)
	}
}

func touchedAccounts(entries []ledger.Entry) []int64 {
	seen := make(map[int64]struct{}, len(entries)*2)
	var out []int64
	for _, e := range entries {
		for _, id := range []int64{e.DebitAccountID, e.CreditAccountID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}

func defaultReversalMemo(memo string, number int64) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Reversal of voucher %d", number)
}
