package shared

import "errors"

var (
	// ErrAccountNotFound indicates a missing chart of accounts node.
	ErrAccountNotFound = errors.New("accounting: account not found")
	// ErrAccountNotPostable indicates a posting against a summary account.
	ErrAccountNotPostable = errors.New("accounting: account does not accept direct postings")
	// ErrParentTypeMismatch indicates a child account typed differently from its parent.
	ErrParentTypeMismatch = errors.New("accounting: account type must match parent type")
	// ErrDuplicateCode indicates an account code collision.
	ErrDuplicateCode = errors.New("accounting: account code already exists")
	// ErrVoucherNotFound indicates a missing voucher.
	ErrVoucherNotFound = errors.New("accounting: voucher not found")
	// ErrAlreadyPosted indicates a second posting attempt on the same voucher.
	ErrAlreadyPosted = errors.New("accounting: voucher already posted")
	// ErrVoucherVoid indicates an operation on a voided voucher.
	ErrVoucherVoid = errors.New("accounting: voucher is void")
	// ErrNotPosted indicates a reversal of a voucher that never posted.
	ErrNotPosted = errors.New("accounting: voucher is not posted")
	// ErrSourceAlreadyLinked indicates idempotency conflict on the source link.
	ErrSourceAlreadyLinked = errors.New("accounting: source already linked")
	// ErrSourceConflict indicates the source link row already exists.
	ErrSourceConflict = errors.New("accounting: source link conflict")
)
