// internal/service/ledger_service.go
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/repository"
	"bank-ledger/internal/util"
	"bank-ledger/pkg/db"

	"github.com/shopspring/decimal"
)

// LedgerService defines the ledger engine: every operation that reads or changes
// account balances and the transaction log.
type LedgerService interface {
	CreateAccount(ctx context.Context, initialBalance decimal.Decimal) (*domain.Account, error)
	Credit(ctx context.Context, accountID domain.AccountID, amount decimal.Decimal) (*domain.Account, *domain.TransactionRecord, error)
	Debit(ctx context.Context, accountID domain.AccountID, amount decimal.Decimal) (*domain.Account, *domain.TransactionRecord, error)
	Transfer(ctx context.Context, fromID, toID domain.AccountID, amount decimal.Decimal) (*domain.TransferResult, error)
	SetStatus(ctx context.Context, accountID domain.AccountID, status domain.AccountStatus) (*domain.Account, error)
	GetBalance(ctx context.Context, accountID domain.AccountID) (decimal.Decimal, error)
	GetAccount(ctx context.Context, accountID domain.AccountID) (*domain.Account, error)
	GetHistory(ctx context.Context, accountID domain.AccountID) ([]domain.TransactionRecord, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// Policy holds the business rule and retry settings of the ledger engine.
type Policy struct {
	MinOpeningBalance decimal.Decimal
	MaxRetries        int           // Attempts per operation; values below 1 mean a single attempt
	RetryBackoff      time.Duration // Multiplied by the attempt number between retries
}

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	dbBeginner      db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor      repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	accountRepo     repository.AccountRepository
	transactionRepo repository.TransactionRepository
	beginTx         db.BeginTxFunc    // Injected dependency for beginning transactions
	commitTx        db.CommitTxFunc   // Injected dependency for committing transactions
	rollbackTx      db.RollbackTxFunc // Injected dependency for rolling back transactions
	policy          Policy
	logger          *slog.Logger
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	accountRepo repository.AccountRepository,
	transactionRepo repository.TransactionRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	policy Policy,
	logger *slog.Logger,
) LedgerService {
	if logger == nil {
		logger = util.GetLogger()
	}
	return &ledgerService{
		dbBeginner:      dbBeginner,
		dbExecutor:      dbExecutor,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
		policy:          policy,
		logger:          logger,
	}
}

// CreateAccount opens a new active account. The opening balance is not a ledger
// event, so no transaction record is written.
func (s *ledgerService) CreateAccount(ctx context.Context, initialBalance decimal.Decimal) (*domain.Account, error) {
	if initialBalance.LessThan(s.policy.MinOpeningBalance) || initialBalance.IsNegative() || !domain.FitsScale(initialBalance) {
		return nil, s.reject("create account", fmt.Errorf("opening balance %s below minimum %s or not storable: %w",
			initialBalance, s.policy.MinOpeningBalance, util.ErrInvalidAmount))
	}

	var account *domain.Account
	err := s.inTx(ctx, "create account", nil, func(q repository.DBExecutor) error {
		account = domain.NewAccount(initialBalance)
		if err := s.accountRepo.CreateAccount(ctx, q, account); err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account created", "op", "create account", "account_id", account.ID, "balance", account.Balance)
	return account, nil
}

// Credit adds amount to an active account and records a CREDIT entry.
func (s *ledgerService) Credit(ctx context.Context, accountID domain.AccountID, amount decimal.Decimal) (*domain.Account, *domain.TransactionRecord, error) {
	return s.post(ctx, "credit", domain.TransactionKindCredit, accountID, amount)
}

// Debit removes amount from an active account and records a DEBIT entry.
func (s *ledgerService) Debit(ctx context.Context, accountID domain.AccountID, amount decimal.Decimal) (*domain.Account, *domain.TransactionRecord, error) {
	return s.post(ctx, "debit", domain.TransactionKindDebit, accountID, amount)
}

// post applies a single-account balance change and its log entry in one transaction.
func (s *ledgerService) post(ctx context.Context, op string, kind domain.TransactionKind, accountID domain.AccountID, amount decimal.Decimal) (*domain.Account, *domain.TransactionRecord, error) {
	if !domain.ValidAmount(amount) {
		return nil, nil, s.reject(op, util.ErrInvalidAmount)
	}

	var (
		updated *domain.Account
		record  *domain.TransactionRecord
	)
	err := s.inTx(ctx, op, nil, func(q repository.DBExecutor) error {
		account, err := s.accountRepo.GetAccountForUpdate(ctx, q, accountID)
		if err != nil {
			return fmt.Errorf("failed to get account %s: %w", accountID, err)
		}
		if !account.IsActive() {
			return fmt.Errorf("account %s: %w", accountID, util.ErrAccountInactive)
		}

		newBalance := account.Balance.Add(amount)
		if kind == domain.TransactionKindCredit && newBalance.GreaterThan(domain.MaxAmount) {
			return fmt.Errorf("balance of account %s would exceed %s: %w", accountID, domain.MaxAmount, util.ErrInvalidAmount)
		}
		if kind == domain.TransactionKindDebit {
			if account.Balance.LessThan(amount) {
				return fmt.Errorf("account %s has %s, needs %s: %w", accountID, account.Balance, amount, util.ErrInsufficientFunds)
			}
			newBalance = account.Balance.Sub(amount)
		}

		if err := s.accountRepo.UpdateAccountBalance(ctx, q, accountID, newBalance); err != nil {
			return fmt.Errorf("failed to update account balance: %w", err)
		}

		record = domain.NewTransactionRecord(accountID, kind, amount, nil, domain.Now())
		if err := s.transactionRepo.AppendTransaction(ctx, q, record); err != nil {
			return fmt.Errorf("failed to append transaction: %w", err)
		}

		updated, err = s.accountRepo.GetAccountByID(ctx, q, accountID)
		if err != nil {
			return fmt.Errorf("failed to re-fetch updated account %s: %w", accountID, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Balance updated", "op", op, "account_id", accountID, "amount", amount,
		"balance", updated.Balance, "transaction_id", record.ID)
	return updated, record, nil
}

// Transfer moves amount from one active account to another. Both balance updates
// and both log entries are committed together or not at all.
func (s *ledgerService) Transfer(ctx context.Context, fromID, toID domain.AccountID, amount decimal.Decimal) (*domain.TransferResult, error) {
	if !domain.ValidAmount(amount) {
		return nil, s.reject("transfer", util.ErrInvalidAmount)
	}
	if fromID == toID {
		return nil, s.reject("transfer", util.ErrSameAccount)
	}

	var result *domain.TransferResult
	err := s.inTx(ctx, "transfer", nil, func(q repository.DBExecutor) error {
		// Rows are always locked in the same global order, whatever the direction.
		first, second := domain.LockOrder(fromID, toID)
		locked := make(map[domain.AccountID]*domain.Account, 2)
		for _, id := range []domain.AccountID{first, second} {
			account, err := s.accountRepo.GetAccountForUpdate(ctx, q, id)
			if err != nil {
				return fmt.Errorf("failed to get account %s: %w", id, err)
			}
			locked[id] = account
		}
		from, to := locked[fromID], locked[toID]

		if !from.IsActive() {
			return fmt.Errorf("source account %s: %w", fromID, util.ErrAccountInactive)
		}
		if !to.IsActive() {
			return fmt.Errorf("destination account %s: %w", toID, util.ErrAccountInactive)
		}
		if from.Balance.LessThan(amount) {
			return fmt.Errorf("account %s has %s, needs %s: %w", fromID, from.Balance, amount, util.ErrInsufficientFunds)
		}
		if to.Balance.Add(amount).GreaterThan(domain.MaxAmount) {
			return fmt.Errorf("balance of account %s would exceed %s: %w", toID, domain.MaxAmount, util.ErrInvalidAmount)
		}

		if err := s.accountRepo.UpdateAccountBalance(ctx, q, fromID, from.Balance.Sub(amount)); err != nil {
			return fmt.Errorf("failed to update source account balance: %w", err)
		}
		if err := s.accountRepo.UpdateAccountBalance(ctx, q, toID, to.Balance.Add(amount)); err != nil {
			return fmt.Errorf("failed to update destination account balance: %w", err)
		}

		now := domain.Now()
		counterTo, counterFrom := toID, fromID
		debit := domain.NewTransactionRecord(fromID, domain.TransactionKindDebit, amount, &counterTo, now)
		if err := s.transactionRepo.AppendTransaction(ctx, q, debit); err != nil {
			return fmt.Errorf("failed to append debit record: %w", err)
		}
		credit := domain.NewTransactionRecord(toID, domain.TransactionKindCredit, amount, &counterFrom, now)
		if err := s.transactionRepo.AppendTransaction(ctx, q, credit); err != nil {
			return fmt.Errorf("failed to append credit record: %w", err)
		}

		updatedFrom, err := s.accountRepo.GetAccountByID(ctx, q, fromID)
		if err != nil {
			return fmt.Errorf("failed to re-fetch updated source account %s: %w", fromID, err)
		}
		updatedTo, err := s.accountRepo.GetAccountByID(ctx, q, toID)
		if err != nil {
			return fmt.Errorf("failed to re-fetch updated destination account %s: %w", toID, err)
		}

		result = &domain.TransferResult{From: updatedFrom, To: updatedTo, Debit: debit, Credit: credit}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Transfer completed", "op", "transfer", "from", fromID, "to", toID, "amount", amount,
		"debit_id", result.Debit.ID, "credit_id", result.Credit.ID)
	return result, nil
}

// SetStatus activates or deactivates an account. No transaction record is written.
func (s *ledgerService) SetStatus(ctx context.Context, accountID domain.AccountID, status domain.AccountStatus) (*domain.Account, error) {
	if !status.Valid() {
		return nil, s.reject("set status", fmt.Errorf("%q: %w", status, util.ErrInvalidStatus))
	}

	var updated *domain.Account
	err := s.inTx(ctx, "set status", nil, func(q repository.DBExecutor) error {
		if _, err := s.accountRepo.GetAccountForUpdate(ctx, q, accountID); err != nil {
			return fmt.Errorf("failed to get account %s: %w", accountID, err)
		}
		if err := s.accountRepo.UpdateAccountStatus(ctx, q, accountID, status); err != nil {
			return fmt.Errorf("failed to update account status: %w", err)
		}
		var err error
		updated, err = s.accountRepo.GetAccountByID(ctx, q, accountID)
		if err != nil {
			return fmt.Errorf("failed to re-fetch updated account %s: %w", accountID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account status changed", "op", "set status", "account_id", accountID, "status", status)
	return updated, nil
}

// GetBalance returns the current balance. Inactive accounts can still be read.
func (s *ledgerService) GetBalance(ctx context.Context, accountID domain.AccountID) (decimal.Decimal, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// GetAccount returns a snapshot of the account regardless of its status.
func (s *ledgerService) GetAccount(ctx context.Context, accountID domain.AccountID) (*domain.Account, error) {
	// For read-only operations outside a transaction, use s.dbExecutor
	account, err := s.accountRepo.GetAccountByID(ctx, s.dbExecutor, accountID)
	if err != nil {
		return nil, s.classify(ctx, "get account", fmt.Errorf("failed to get account %s: %w", accountID, err))
	}
	return account, nil
}

// GetHistory returns the account's records ordered by timestamp, then ID.
// Both the existence check and the query read from one snapshot.
func (s *ledgerService) GetHistory(ctx context.Context, accountID domain.AccountID) ([]domain.TransactionRecord, error) {
	var records []domain.TransactionRecord
	err := s.inTx(ctx, "get history", db.ReadSnapshot, func(q repository.DBExecutor) error {
		if _, err := s.accountRepo.GetAccountByID(ctx, q, accountID); err != nil {
			return fmt.Errorf("failed to check account existence: %w", err)
		}
		var err error
		records, err = s.transactionRepo.GetTransactionsByAccountID(ctx, q, accountID)
		if err != nil {
			return fmt.Errorf("failed to retrieve transaction history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListAccounts returns snapshots of all accounts, oldest first.
func (s *ledgerService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, s.dbExecutor)
	if err != nil {
		return nil, s.classify(ctx, "list accounts", err)
	}
	return accounts, nil
}

// inTx runs fn inside one database transaction and commits it. The whole attempt
// is repeated while the failure is a transient conflict, up to policy.MaxRetries
// attempts in total.
func (s *ledgerService) inTx(ctx context.Context, op string, opts *sql.TxOptions, fn func(q repository.DBExecutor) error) error {
	attempts := s.policy.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = s.runTx(ctx, opts, fn)
		if err == nil || !db.IsTransient(err) || attempt >= attempts {
			break
		}
		s.logger.Warn("Transient storage conflict, retrying", "op", op, "attempt", attempt, "error", err)
		if waitErr := sleepContext(ctx, s.policy.RetryBackoff*time.Duration(attempt)); waitErr != nil {
			break
		}
	}
	return s.classify(ctx, op, err)
}

func (s *ledgerService) runTx(ctx context.Context, opts *sql.TxOptions, fn func(q repository.DBExecutor) error) error {
	txController, err := s.beginTx(ctx, s.dbBeginner, opts) // Use injected function
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController) // Use injected function

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return errors.New("transaction controller does not implement DBExecutor")
	}

	if err := fn(txExecutor); err != nil {
		return err
	}

	if err := s.commitTx(txController); err != nil { // Use injected function
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// classify turns an operation error into the caller-facing form: business
// rejections keep their sentinel, an abandoned context reports the context error,
// and everything else becomes ErrStorageFailure.
func (s *ledgerService) classify(ctx context.Context, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case util.IsDomainError(err):
		return s.reject(op, err)
	case ctx.Err() != nil:
		return fmt.Errorf("%s: operation abandoned: %w", op, ctx.Err())
	default:
		s.logger.Error("Storage failure", "op", op, "error", err)
		return fmt.Errorf("%s: %w: %w", op, util.ErrStorageFailure, err)
	}
}

func (s *ledgerService) reject(op string, err error) error {
	s.logger.Debug("Operation rejected", "op", op, "reason", err)
	return fmt.Errorf("%s: %w", op, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
