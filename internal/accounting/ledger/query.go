package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/accounting/coa"
)

// EntryView is one annotated ledger row as served to the UI and the CSV
// export. Both paths share this exact structure so they can never diverge.
type EntryView struct {
	EntryID     int64     `json:"entryId"`
	VoucherID   int64     `json:"voucherId"`
	Date        time.Time `json:"date"`
	AccountCode string    `json:"accountCode"`
	AccountName string    `json:"accountName"`
	Debit       float64   `json:"debit"`
	Credit      float64   `json:"credit"`
	Remarks     string    `json:"remarks"`
	Reference   string    `json:"reference,omitempty"`
	Running     float64   `json:"runningBalance"`
}

// View is a running-balance-annotated entry sequence plus its totals.
type View struct {
	Entries     []EntryView `json:"entries"`
	TotalDebit  float64     `json:"totalDebit"`
	TotalCredit float64     `json:"totalCredit"`
	Closing     float64     `json:"closingBalance"`
}

// QueryService serves account and dealer ledgers. It is read-only and
// snapshot-safe: concurrent postings at worst make a result exclude a
// voucher committed moments later.
type QueryService struct {
	repo  Repository
	chart ChartPort
}

func NewQueryService(repo Repository, chart ChartPort) *QueryService {
	return &QueryService{repo: repo, chart: chart}
}

// AccountLedger returns the account's entries sorted by (date, id) with a
// running balance in the account's normal-balance convention. There is no
// implicit opening balance; the first row's running figure is its own
// signed amount.
func (q *QueryService) AccountLedger(ctx context.Context, accountID int64, r Range) (View, error) {
	acc, err := q.chart.Resolve(ctx, accountID)
	if err != nil {
		return View{}, err
	}
	forest, err := q.chart.Forest(ctx)
	if err != nil {
		return View{}, err
	}
	entries, err := q.repo.EntriesForAccount(ctx, accountID, r)
	if err != nil {
		return View{}, err
	}
	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		contraID := e.CreditAccountID
		debit, credit := 0.0, 0.0
		if e.DebitAccountID == accountID {
			debit = e.Amount
		} else {
			credit = e.Amount
			contraID = e.DebitAccountID
		}
		views = append(views, EntryView{
			EntryID:     e.ID,
			VoucherID:   e.VoucherID,
			Date:        e.Date,
			AccountCode: codeOf(forest, contraID),
			AccountName: nameOf(forest, contraID),
			Debit:       debit,
			Credit:      credit,
			Remarks:     e.Remarks,
			Reference:   referenceOf(e),
		})
	}
	return annotate(views, acc.NormalBalance()), nil
}

// DealerLedger reuses the running-balance algorithm over the dealer-linked
// entry filter. Dealer entries revolve around the commission payable
// account, so the view is taken from that liability side: commission
// postings credit it, payouts debit it, and the final running figure is the
// outstanding balance owed to the dealer.
func (q *QueryService) DealerLedger(ctx context.Context, dealerID uuid.UUID) (View, error) {
	forest, err := q.chart.Forest(ctx)
	if err != nil {
		return View{}, err
	}
	entries, err := q.repo.EntriesForDealer(ctx, dealerID)
	if err != nil {
		return View{}, err
	}
	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		payableID, debit, credit := dealerSide(forest, e)
		views = append(views, EntryView{
			EntryID:     e.ID,
			VoucherID:   e.VoucherID,
			Date:        e.Date,
			AccountCode: codeOf(forest, payableID),
			AccountName: nameOf(forest, payableID),
			Debit:       debit,
			Credit:      credit,
			Remarks:     e.Remarks,
			Reference:   referenceOf(e),
		})
	}
	return annotate(views, coa.NormalBalanceCredit), nil
}

// dealerSide picks the liability account as the dealer's side of the entry.
func dealerSide(f *coa.Forest, e Entry) (payableID int64, debit, credit float64) {
	if acc, ok := f.Lookup(e.CreditAccountID); ok && acc.Type == coa.AccountTypeLiability {
		return e.CreditAccountID, 0, e.Amount
	}
	if acc, ok := f.Lookup(e.DebitAccountID); ok && acc.Type == coa.AccountTypeLiability {
		return e.DebitAccountID, e.Amount, 0
	}
	return e.CreditAccountID, 0, e.Amount
}

// annotate sorts rows by (date, entry id) and accumulates the running
// balance per the normal-balance convention.
func annotate(views []EntryView, nb coa.NormalBalance) View {
	sort.SliceStable(views, func(i, j int) bool {
		if !views[i].Date.Equal(views[j].Date) {
			return views[i].Date.Before(views[j].Date)
		}
		return views[i].EntryID < views[j].EntryID
	})
	running := decimal.Zero
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for i := range views {
		d := decimal.NewFromFloat(views[i].Debit)
		c := decimal.NewFromFloat(views[i].Credit)
		totalDebit = totalDebit.Add(d)
		totalCredit = totalCredit.Add(c)
		if nb == coa.NormalBalanceDebit {
			running = running.Add(d).Sub(c)
		} else {
			running = running.Add(c).Sub(d)
		}
		views[i].Running = running.InexactFloat64()
	}
	return View{
		Entries:     views,
		TotalDebit:  totalDebit.InexactFloat64(),
		TotalCredit: totalCredit.InexactFloat64(),
		Closing:     running.InexactFloat64(),
	}
}

func codeOf(f *coa.Forest, id int64) string {
	if acc, ok := f.Lookup(id); ok {
		return acc.Code
	}
	return fmt.Sprintf("%d", id)
}

func nameOf(f *coa.Forest, id int64) string {
	if acc, ok := f.Lookup(id); ok {
		return acc.Name
	}
	return ""
}

func referenceOf(e Entry) string {
	switch {
	case e.PaymentID != nil:
		return "payment:" + e.PaymentID.String()
	case e.DealID != nil:
		return "deal:" + e.DealID.String()
	case e.InvoiceID != nil:
		return "invoice:" + e.InvoiceID.String()
	}
	return ""
}
