package coa

import (
	"strings"
	"time"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// NormalBalance is the side on which an account type carries a positive balance.
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "DEBIT"
	NormalBalanceCredit NormalBalance = "CREDIT"
)

// NormalBalance derives the conventional balance side for the type.
func (t AccountType) NormalBalance() NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalBalanceDebit
	default:
		return NormalBalanceCredit
	}
}

// Valid reports whether the type is one of the five categories.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// CashClass marks accounts whose movements must go through cash/bank vouchers.
type CashClass string

const (
	CashClassNone CashClass = "NONE"
	CashClassCash CashClass = "CASH"
	CashClassBank CashClass = "BANK"
)

// Code prefixes used when an account carries no explicit cash class.
const (
	cashCodePrefix = "111"
	bankCodePrefix = "112"
)

// Account models a chart of accounts node.
type Account struct {
	ID         int64
	Code       string
	Name       string
	Type       AccountType
	ParentID   *int64
	Level      int
	IsPostable bool
	CashClass  CashClass
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NormalBalance returns the account's conventional balance side.
func (a Account) NormalBalance() NormalBalance {
	return a.Type.NormalBalance()
}

// EffectiveCashClass resolves the cash class from the explicit flag,
// falling back to the code prefix convention.
func (a Account) EffectiveCashClass() CashClass {
	if a.CashClass != "" && a.CashClass != CashClassNone {
		return a.CashClass
	}
	switch {
	case strings.HasPrefix(a.Code, cashCodePrefix):
		return CashClassCash
	case strings.HasPrefix(a.Code, bankCodePrefix):
		return CashClassBank
	}
	return CashClassNone
}

// Cashlike reports whether the account holds cash or bank funds.
func (a Account) Cashlike() bool {
	return a.EffectiveCashClass() != CashClassNone
}
