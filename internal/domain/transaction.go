// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// AmountScale is the number of fractional digits a monetary amount may carry.
// It matches the NUMERIC(20, 4) columns.
const AmountScale = 4

// MaxAmount is the largest value a NUMERIC(20, 4) column holds. It bounds both
// amounts and the balances they produce.
var MaxAmount = decimal.RequireFromString("9999999999999999.9999")

// TransactionKind defines the direction of a balance change.
type TransactionKind string

const (
	TransactionKindCredit TransactionKind = "CREDIT"
	TransactionKindDebit  TransactionKind = "DEBIT"
)

// TransactionRecord is an immutable ledger entry describing one balance change.
type TransactionRecord struct {
	ID             int64           `db:"id" json:"id"`                           // Primary key, BIGSERIAL in DB
	AccountID      AccountID       `db:"account_id" json:"account_id"`           // Account whose balance changed
	Kind           TransactionKind `db:"kind" json:"kind"`                       // CREDIT or DEBIT
	Amount         decimal.Decimal `db:"amount" json:"amount"`                   // Always positive, NUMERIC(20, 4) in DB
	CounterpartyID *AccountID      `db:"counterparty_id" json:"counterparty_id"` // Other side of a transfer (nil for plain credits/debits)
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`           // Time of the event, immutable
}

// NewTransactionRecord creates a new TransactionRecord stamped with the given time.
func NewTransactionRecord(
	accountID AccountID,
	kind TransactionKind,
	amount decimal.Decimal,
	counterpartyID *AccountID,
	at time.Time,
) *TransactionRecord {
	return &TransactionRecord{
		AccountID:      accountID,
		Kind:           kind,
		Amount:         amount,
		CounterpartyID: counterpartyID,
		CreatedAt:      at,
	}
}

// ValidAmount reports whether amount is strictly positive and storable.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && FitsScale(amount)
}

// FitsScale reports whether amount has no more than AmountScale fractional digits
// and its magnitude does not exceed MaxAmount.
func FitsScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(AmountScale)) && amount.Abs().LessThanOrEqual(MaxAmount)
}

// Now returns the current UTC time at the microsecond precision TIMESTAMPTZ keeps,
// so a returned record equals the one read back later.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// TransferResult is the outcome of a committed transfer: both account snapshots
// after the move and the two records written for it.
type TransferResult struct {
	From   *Account           `json:"from"`
	To     *Account           `json:"to"`
	Debit  *TransactionRecord `json:"debit"`
	Credit *TransactionRecord `json:"credit"`
}
