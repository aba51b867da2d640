// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"bank-ledger/internal/domain"
)

// TransactionRepository defines the append-only TransactionLog contract.
type TransactionRepository interface {
	// AppendTransaction adds a new record and fills in its generated ID.
	AppendTransaction(ctx context.Context, q DBExecutor, record *domain.TransactionRecord) error
	// GetTransactionsByAccountID returns an account's records ordered by timestamp, then ID.
	GetTransactionsByAccountID(ctx context.Context, q DBExecutor, accountID domain.AccountID) ([]domain.TransactionRecord, error)
}
