// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"fmt"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/repository"
)

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
// Rows are only ever inserted; nothing updates or deletes them.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository() repository.TransactionRepository {
	return &TransactionRepository{}
}

// AppendTransaction inserts a new transaction record using the provided DBExecutor
// and stores the generated ID on record.
func (r *TransactionRepository) AppendTransaction(ctx context.Context, q repository.DBExecutor, record *domain.TransactionRecord) error {
	query := `INSERT INTO transactions (account_id, kind, amount, counterparty_id, created_at)
              VALUES ($1, $2, $3, $4, $5) RETURNING id`

	err := q.QueryRowContext(ctx, query,
		record.AccountID,
		record.Kind,
		record.Amount,
		record.CounterpartyID,
		record.CreatedAt,
	).Scan(&record.ID)

	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// GetTransactionsByAccountID retrieves the full history of an account, oldest first.
func (r *TransactionRepository) GetTransactionsByAccountID(ctx context.Context, q repository.DBExecutor, accountID domain.AccountID) ([]domain.TransactionRecord, error) {
	records := []domain.TransactionRecord{}
	query := `
		SELECT id, account_id, kind, amount, counterparty_id, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at, id`
	if err := q.SelectContext(ctx, &records, query, accountID); err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for account %s: %w", accountID, err)
	}
	return records, nil
}
