package shared

import (
	"fmt"
	"strings"
)

// RuleID identifies a broken validation invariant.
type RuleID string

const (
	RuleInsufficientLines      RuleID = "InsufficientLines"
	RuleLineNotOneSided        RuleID = "LineNotOneSided"
	RuleZeroAmountLine         RuleID = "ZeroAmountLine"
	RuleUnknownAccount         RuleID = "UnknownAccount"
	RuleAccountNotPostable     RuleID = "AccountNotPostable"
	RuleUnbalanced             RuleID = "Unbalanced"
	RuleDisallowedAccount      RuleID = "DisallowedAccountForVoucherType"
	RuleMissingContraAccount   RuleID = "MissingContraAccount"
	RuleMissingPropertyContext RuleID = "MissingPropertyDimension"
)

// ValidationError reports a single broken rule. Line is the zero-based line
// index, or -1 for voucher-level violations.
type ValidationError struct {
	Rule    RuleID `json:"rule"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("%s: %s", e.Rule, e.Message)
	}
	return fmt.Sprintf("%s: line %d: %s", e.Rule, e.Line, e.Message)
}

// ValidationErrors collects every violated rule for one voucher. Callers
// always receive the full list, never a first-error abort.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, v := range e {
		msgs = append(msgs, v.Error())
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether any collected error broke the given rule.
func (e ValidationErrors) Has(rule RuleID) bool {
	for _, v := range e {
		if v.Rule == rule {
			return true
		}
	}
	return false
}
