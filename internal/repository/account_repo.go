// internal/repository/account_repo.go
package repository

import (
	"context"

	"bank-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// AccountRepository defines the AccountStore contract. Mutating methods are meant
// to run on the same transaction as the TransactionRepository append they belong to.
type AccountRepository interface {
	// CreateAccount inserts a new account row.
	CreateAccount(ctx context.Context, q DBExecutor, account *domain.Account) error
	// GetAccountByID reads an account without locking it. Returns util.ErrAccountNotFound for unknown IDs.
	GetAccountByID(ctx context.Context, q DBExecutor, id domain.AccountID) (*domain.Account, error)
	// GetAccountForUpdate reads an account and locks its row until the transaction ends.
	GetAccountForUpdate(ctx context.Context, q DBExecutor, id domain.AccountID) (*domain.Account, error)
	// UpdateAccountBalance sets the balance of an account to newBalance.
	UpdateAccountBalance(ctx context.Context, q DBExecutor, id domain.AccountID, newBalance decimal.Decimal) error
	// UpdateAccountStatus sets the status of an account.
	UpdateAccountStatus(ctx context.Context, q DBExecutor, id domain.AccountID, status domain.AccountStatus) error
	// ListAccounts returns every account ordered by creation time.
	ListAccounts(ctx context.Context, q DBExecutor) ([]domain.Account, error)
}
