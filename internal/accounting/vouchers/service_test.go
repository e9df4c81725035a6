package vouchers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/atlas-erp/atlas-erp/internal/accounting/coa"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	"github.com/atlas-erp/atlas-erp/internal/accounting/shared"
	internalShared "github.com/atlas-erp/atlas-erp/internal/shared"
	_ "github.com/atlas-erp/atlas-erp/testing"
)

type memoryRepo struct {
	mu          sync.Mutex
	vouchers    map[int64]*Voucher
	entries     []ledger.Entry
	links       map[string]int64
	audits      []internalShared.AuditLog
	auditErr    error
	nextVoucher int64
	nextLine    int64
	nextEntry   int64
	number      int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		vouchers: make(map[int64]*Voucher),
		links:    make(map[string]int64),
	}
}

func (r *memoryRepo) List(ctx context.Context) ([]Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Voucher
	for _, v := range r.vouchers {
		out = append(out, *v)
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[id]
	if !ok {
		return Voucher{}, shared.ErrVoucherNotFound
	}
	return *v, nil
}

func (r *memoryRepo) Create(ctx context.Context, v Voucher) (Voucher, error) {
	var created Voucher
	err := r.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inserted, err := tx.InsertVoucher(ctx, v)
		if err != nil {
			return err
		}
		created = inserted
		return nil
	})
	return created, err
}

// WithTx serialises on the mutex, mirroring a database transaction plus the
// FOR UPDATE row lock: the second concurrent poster observes the first one's
// committed status.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := r.clone()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.restore(snapshot)
		return err
	}
	return nil
}

func (r *memoryRepo) clone() *memoryRepo {
	c := newMemoryRepo()
	for id, v := range r.vouchers {
		cp := *v
		cp.Lines = append([]Line(nil), v.Lines...)
		c.vouchers[id] = &cp
	}
	c.entries = append([]ledger.Entry(nil), r.entries...)
	c.audits = append([]internalShared.AuditLog(nil), r.audits...)
	for k, v := range r.links {
		c.links[k] = v
	}
	c.nextVoucher, c.nextLine, c.nextEntry, c.number = r.nextVoucher, r.nextLine, r.nextEntry, r.number
	return c
}

func (r *memoryRepo) restore(s *memoryRepo) {
	r.vouchers = s.vouchers
	r.entries = s.entries
	r.links = s.links
	r.audits = s.audits
	r.nextVoucher, r.nextLine, r.nextEntry, r.number = s.nextVoucher, s.nextLine, s.nextEntry, s.number
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) GetForUpdate(ctx context.Context, id int64) (Voucher, error) {
	v, ok := t.repo.vouchers[id]
	if !ok {
		return Voucher{}, shared.ErrVoucherNotFound
	}
	cp := *v
	cp.Lines = append([]Line(nil), v.Lines...)
	return cp, nil
}

func (t *memoryTx) InsertVoucher(ctx context.Context, v Voucher) (Voucher, error) {
	t.repo.nextVoucher++
	t.repo.number++
	v.ID = t.repo.nextVoucher
	v.Number = t.repo.number
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt
	for i := range v.Lines {
		t.repo.nextLine++
		v.Lines[i].ID = t.repo.nextLine
		v.Lines[i].VoucherID = v.ID
	}
	cp := v
	cp.Lines = append([]Line(nil), v.Lines...)
	t.repo.vouchers[v.ID] = &cp
	return v, nil
}

func (t *memoryTx) InsertEntries(ctx context.Context, entries []ledger.Entry) ([]ledger.Entry, error) {
	out := make([]ledger.Entry, 0, len(entries))
	for _, e := range entries {
		t.repo.nextEntry++
		e.ID = t.repo.nextEntry
		e.CreatedAt = time.Now()
		t.repo.entries = append(t.repo.entries, e)
		out = append(out, e)
	}
	return out, nil
}

func (t *memoryTx) UpdateStatus(ctx context.Context, id int64, status VoucherStatus, postedBy int64) error {
	v, ok := t.repo.vouchers[id]
	if !ok {
		return shared.ErrVoucherNotFound
	}
	v.Status = status
	if postedBy != 0 {
		v.PostedBy = postedBy
	}
	return nil
}

func (t *memoryTx) LinkSource(ctx context.Context, module string, ref uuid.UUID, voucherID int64) error {
	key := module + ":" + ref.String()
	if _, exists := t.repo.links[key]; exists {
		return shared.ErrSourceConflict
	}
	t.repo.links[key] = voucherID
	return nil
}

func (t *memoryTx) RecordAudit(ctx context.Context, log internalShared.AuditLog) error {
	if t.repo.auditErr != nil {
		return t.repo.auditErr
	}
	t.repo.audits = append(t.repo.audits, log)
	return nil
}

type memoryAccounts struct{}

func (memoryAccounts) List(ctx context.Context) ([]coa.Account, error) {
	return testChart, nil
}

type memoryBalances struct {
	mu  sync.Mutex
	ids []int64
}

func (b *memoryBalances) Invalidate(ctx context.Context, accountIDs ...int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ids = append(b.ids, accountIDs...)
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *memoryBalances) {
	t.Helper()
	repo := newMemoryRepo()
	balances := &memoryBalances{}
	svc := NewService(repo, memoryAccounts{}, balances)
	return svc, repo, balances
}

func depreciationDraft() CreateInput {
	return CreateInput{
		Type:        TypeJournal,
		Date:        time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Description: "March depreciation",
		Lines: []LineInput{
			{AccountID: 5, Debit: 500, Description: "Depreciation"},
			{AccountID: 6, Credit: 500},
		},
	}
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	svc, repo, _ := newTestService(t)
	in := depreciationDraft()
	in.Lines[1].Credit = 400

	_, err := svc.Create(context.Background(), in)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.True(t, verrs.Has(shared.RuleUnbalanced))
	require.Empty(t, repo.vouchers, "nothing persists when validation fails")
}

func TestPostCreatesEntriesAndMarksPosted(t *testing.T) {
	svc, repo, balances := newTestService(t)
	draft, err := svc.Create(context.Background(), depreciationDraft())
	require.NoError(t, err)
	require.Equal(t, StatusDraft, draft.Status)

	result, err := svc.Post(context.Background(), draft.ID, 42)
	require.NoError(t, err)
	require.Equal(t, StatusPosted, result.Voucher.Status)
	require.Len(t, result.Entries, 1)
	require.Equal(t, int64(5), result.Entries[0].DebitAccountID)
	require.Equal(t, int64(6), result.Entries[0].CreditAccountID)
	require.InDelta(t, 500, result.Entries[0].Amount, 0.001)

	require.Equal(t, StatusPosted, repo.vouchers[draft.ID].Status)
	require.Len(t, repo.audits, 1)
	require.Equal(t, "voucher.post", repo.audits[0].Action)
	require.ElementsMatch(t, []int64{5, 6}, balances.ids)
}

func TestPostRollsBackWhenAuditWriteFails(t *testing.T) {
	svc, repo, balances := newTestService(t)
	draft, err := svc.Create(context.Background(), depreciationDraft())
	require.NoError(t, err)

	repo.auditErr = errors.New("audit store down")

	_, err = svc.Post(context.Background(), draft.ID, 42)
	require.ErrorContains(t, err, "audit store down")

	// The posting and its trail commit together or not at all.
	require.Equal(t, StatusDraft, repo.vouchers[draft.ID].Status)
	require.Empty(t, repo.entries)
	require.Empty(t, repo.audits)
	require.Empty(t, balances.ids)

	repo.auditErr = nil
	_, err = svc.Post(context.Background(), draft.ID, 42)
	require.NoError(t, err)
	require.Len(t, repo.audits, 1)
}

func TestPostRejectsAlreadyPosted(t *testing.T) {
	svc, _, _ := newTestService(t)
	draft, err := svc.Create(context.Background(), depreciationDraft())
	require.NoError(t, err)

	_, err = svc.Post(context.Background(), draft.ID, 1)
	require.NoError(t, err)

	_, err = svc.Post(context.Background(), draft.ID, 1)
	require.ErrorIs(t, err, shared.ErrAlreadyPosted)
}

func TestPostConcurrentlyPostsExactlyOnce(t *testing.T) {
	svc, repo, _ := newTestService(t)
	draft, err := svc.Create(context.Background(), depreciationDraft())
	require.NoError(t, err)

	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Post(context.Background(), draft.ID, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, rejected int
	for err := range errs {
		if err == nil {
			succeeded++
		} else if errors.Is(err, shared.ErrAlreadyPosted) {
			rejected++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, callers-1, rejected)
	require.Len(t, repo.entries, 1, "exactly one entry set exists")
}

func TestPostFanOutAllocation(t *testing.T) {
	svc, _, _ := newTestService(t)
	draft, err := svc.Create(context.Background(), CreateInput{
		Type:        TypeBankReceipt,
		Date:        time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Description: "rent collection",
		Lines: []LineInput{
			{AccountID: 2, Debit: 900},
			{AccountID: 4, Credit: 600, Description: "April rent"},
			{AccountID: 3, Credit: 300, Description: "arrears"},
		},
	})
	require.NoError(t, err)

	result, err := svc.Post(context.Background(), draft.ID, 1)
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)

	var total float64
	for _, e := range result.Entries {
		require.Equal(t, int64(2), e.DebitAccountID)
		total += e.Amount
	}
	require.InDelta(t, 900, total, 0.001)
}

func TestPostLinksSourceIdempotently(t *testing.T) {
	svc, _, _ := newTestService(t)
	paymentID := uuid.New()

	makeDraft := func() int64 {
		in := depreciationDraft()
		in.PaymentID = &paymentID
		draft, err := svc.Create(context.Background(), in)
		require.NoError(t, err)
		return draft.ID
	}

	_, err := svc.Post(context.Background(), makeDraft(), 1)
	require.NoError(t, err)

	// A second voucher claiming the same payment must not post.
	_, err = svc.Post(context.Background(), makeDraft(), 1)
	require.ErrorIs(t, err, shared.ErrSourceAlreadyLinked)
}

func TestReversePostsOffsettingVoucher(t *testing.T) {
	svc, repo, _ := newTestService(t)
	draft, err := svc.Create(context.Background(), depreciationDraft())
	require.NoError(t, err)
	_, err = svc.Post(context.Background(), draft.ID, 1)
	require.NoError(t, err)

	result, err := svc.Reverse(context.Background(), ReverseInput{VoucherID: draft.ID, ActorID: 7})
	require.NoError(t, err)
	require.Equal(t, StatusPosted, result.Voucher.Status)
	require.NotNil(t, result.Voucher.ReversalOf)
	require.Equal(t, draft.ID, *result.Voucher.ReversalOf)

	// Sides swapped relative to the original entry.
	require.Len(t, result.Entries, 1)
	require.Equal(t, int64(6), result.Entries[0].DebitAccountID)
	require.Equal(t, int64(5), result.Entries[0].CreditAccountID)

	require.Equal(t, StatusVoid, repo.vouchers[draft.ID].Status)
	require.Equal(t, "voucher.reverse", repo.audits[len(repo.audits)-1].Action)
}

func TestReverseRequiresPostedVoucher(t *testing.T) {
	svc, _, _ := newTestService(t)
	draft, err := svc.Create(context.Background(), depreciationDraft())
	require.NoError(t, err)

	_, err = svc.Reverse(context.Background(), ReverseInput{VoucherID: draft.ID, ActorID: 1})
	require.ErrorIs(t, err, shared.ErrNotPosted)
}

func TestValidateBatchReportsPerVoucher(t *testing.T) {
	svc, _, _ := newTestService(t)
	good := depreciationDraft()
	bad := depreciationDraft()
	bad.Lines = bad.Lines[:1]

	results, err := svc.ValidateBatch(context.Background(), []CreateInput{good, bad, good})
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Empty(t, results[0])
	require.True(t, results[1].Has(shared.RuleInsufficientLines))
	require.Empty(t, results[2])
}
