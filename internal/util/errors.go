// internal/util/errors.go
package util

import "errors"

// Ledger errors. Every rejected operation returns one of these (possibly wrapped)
// and leaves balances and the transaction log unchanged.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountInactive   = errors.New("account is inactive")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSameAccount       = errors.New("cannot transfer to the same account")
	ErrInvalidStatus     = errors.New("invalid account status")
	ErrStorageFailure    = errors.New("storage failure") // Underlying database error, possibly after retries
)

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// IsDomainError reports whether err is a business rejection rather than a storage problem.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrAccountNotFound,
		ErrAccountInactive,
		ErrInvalidAmount,
		ErrInsufficientFunds,
		ErrSameAccount,
		ErrInvalidStatus,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
