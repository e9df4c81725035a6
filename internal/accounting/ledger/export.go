package ledger

import (
	"encoding/csv"
	"io"
	"strconv"
)

var csvHeader = []string{"Date", "Account Code", "Account Name", "Debit", "Credit", "Description", "Reference", "Running Balance"}

// WriteCSV renders a ledger view as CSV. It is fed the same View the UI
// endpoint serves, so downloaded rows always match displayed rows.
func WriteCSV(w io.Writer, view View) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range view.Entries {
		record := []string{
			row.Date.Format("2006-01-02"),
			row.AccountCode,
			row.AccountName,
			formatAmount(row.Debit),
			formatAmount(row.Credit),
			row.Remarks,
			row.Reference,
			formatAmount(row.Running),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
