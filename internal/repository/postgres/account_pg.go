// internal/repository/postgres/account_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/repository"
	"bank-ledger/internal/util"
	"bank-ledger/pkg/db"

	"github.com/shopspring/decimal"
)

const accountColumns = `id, balance, status, created_at, updated_at`

// AccountRepository implements repository.AccountRepository for PostgreSQL.
type AccountRepository struct{}

// NewAccountRepository creates a new AccountRepository.
// The repository holds no connection; every method receives its DBExecutor.
func NewAccountRepository() repository.AccountRepository {
	return &AccountRepository{}
}

// CreateAccount inserts a new account into the database using the provided DBExecutor.
func (r *AccountRepository) CreateAccount(ctx context.Context, q repository.DBExecutor, account *domain.Account) error {
	query := `INSERT INTO accounts (id, balance, status, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5)`
	_, err := q.ExecContext(ctx, query, account.ID, account.Balance, account.Status, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccountByID retrieves an account by its ID using the provided DBExecutor.
func (r *AccountRepository) GetAccountByID(ctx context.Context, q repository.DBExecutor, id domain.AccountID) (*domain.Account, error) {
	return r.getAccount(ctx, q, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetAccountForUpdate retrieves an account and holds a row lock on it until the
// surrounding transaction commits or rolls back.
func (r *AccountRepository) GetAccountForUpdate(ctx context.Context, q repository.DBExecutor, id domain.AccountID) (*domain.Account, error) {
	return r.getAccount(ctx, q, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
}

func (r *AccountRepository) getAccount(ctx context.Context, q repository.DBExecutor, query string, id domain.AccountID) (*domain.Account, error) {
	var account domain.Account
	err := q.GetContext(ctx, &account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by ID %s: %w", id, err)
	}
	return &account, nil
}

// UpdateAccountBalance sets the balance of a specific account using the provided DBExecutor.
func (r *AccountRepository) UpdateAccountBalance(ctx context.Context, q repository.DBExecutor, id domain.AccountID, newBalance decimal.Decimal) error {
	query := `UPDATE accounts SET balance = $1, updated_at = $2 WHERE id = $3`
	result, err := q.ExecContext(ctx, query, newBalance, domain.Now(), id)
	if err != nil {
		if db.IsCheckViolation(err) {
			return fmt.Errorf("balance of account %s would become negative: %w", id, util.ErrInsufficientFunds)
		}
		return fmt.Errorf("failed to update balance for account %s: %w", id, err)
	}
	return expectOneRow(result, id)
}

// UpdateAccountStatus sets the status of a specific account using the provided DBExecutor.
func (r *AccountRepository) UpdateAccountStatus(ctx context.Context, q repository.DBExecutor, id domain.AccountID, status domain.AccountStatus) error {
	query := `UPDATE accounts SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := q.ExecContext(ctx, query, status, domain.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update status for account %s: %w", id, err)
	}
	return expectOneRow(result, id)
}

// ListAccounts retrieves all accounts ordered by creation time, then ID.
func (r *AccountRepository) ListAccounts(ctx context.Context, q repository.DBExecutor) ([]domain.Account, error) {
	accounts := []domain.Account{}
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at, id`
	if err := q.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func expectOneRow(result sql.Result, id domain.AccountID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for account %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrAccountNotFound
	}
	return nil
}
