package reports

import "sort"

// TrialBalanceAccount represents a row inside a trial balance group.
type TrialBalanceAccount struct {
	Code    string
	Name    string
	Debit   float64
	Credit  float64
	Balance float64
}

// TrialBalanceGroup aggregates accounts for presentation.
type TrialBalanceGroup struct {
	Key      string
	Accounts []TrialBalanceAccount
	Debit    float64
	Credit   float64
}

// TrialBalance is the final structure rendered in UI/CSV.
type TrialBalance struct {
	Groups      []TrialBalanceGroup
	TotalDebit  float64
	TotalCredit float64
}

// BuildTrialBalance converts account balances into grouped trial balance data.
func BuildTrialBalance(accounts []AccountBalance) TrialBalance {
	groups := make(map[string]*TrialBalanceGroup)
	keys := make([]string, 0)
	for _, acc := range accounts {
		key := acc.GroupKey()
		grp, ok := groups[key]
		if !ok {
			grp = &TrialBalanceGroup{Key: key}
			groups[key] = grp
			keys = append(keys, key)
		}
		row := TrialBalanceAccount{
			Code:    acc.Code,
			Name:    acc.Name,
			Debit:   acc.Debit,
			Credit:  acc.Credit,
			Balance: acc.Net(),
		}
		grp.Accounts = append(grp.Accounts, row)
		grp.Debit += row.Debit
		grp.Credit += row.Credit
	}

	sort.Strings(keys)
	result := TrialBalance{}
	for _, key := range keys {
		grp := groups[key]
		sort.Slice(grp.Accounts, func(i, j int) bool {
			return grp.Accounts[i].Code < grp.Accounts[j].Code
		})
		result.Groups = append(result.Groups, *grp)
		result.TotalDebit += grp.Debit
		result.TotalCredit += grp.Credit
	}
	return result
}
