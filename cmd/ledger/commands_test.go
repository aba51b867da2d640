// cmd/ledger/commands_test.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/util"
)

// MockLedgerService is a mock implementation of service.LedgerService.
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) CreateAccount(ctx context.Context, initialBalance decimal.Decimal) (*domain.Account, error) {
	args := m.Called(ctx, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerService) Credit(ctx context.Context, accountID domain.AccountID, amount decimal.Decimal) (*domain.Account, *domain.TransactionRecord, error) {
	args := m.Called(ctx, accountID, amount)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Account), args.Get(1).(*domain.TransactionRecord), args.Error(2)
}

func (m *MockLedgerService) Debit(ctx context.Context, accountID domain.AccountID, amount decimal.Decimal) (*domain.Account, *domain.TransactionRecord, error) {
	args := m.Called(ctx, accountID, amount)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Account), args.Get(1).(*domain.TransactionRecord), args.Error(2)
}

func (m *MockLedgerService) Transfer(ctx context.Context, fromID, toID domain.AccountID, amount decimal.Decimal) (*domain.TransferResult, error) {
	args := m.Called(ctx, fromID, toID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransferResult), args.Error(1)
}

func (m *MockLedgerService) SetStatus(ctx context.Context, accountID domain.AccountID, status domain.AccountStatus) (*domain.Account, error) {
	args := m.Called(ctx, accountID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerService) GetBalance(ctx context.Context, accountID domain.AccountID) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerService) GetAccount(ctx context.Context, accountID domain.AccountID) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerService) GetHistory(ctx context.Context, accountID domain.AccountID) ([]domain.TransactionRecord, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransactionRecord), args.Error(1)
}

func (m *MockLedgerService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func runCLI(t *testing.T, ledger *MockLedgerService, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	root := newRootCmd(&cli{out: out, ledger: ledger})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	fromID := uuid.MustParse("11111111-1111-4111-8111-111111111111")
	toID := uuid.MustParse("99999999-9999-4999-8999-999999999999")

	t.Run("Open", func(t *testing.T) {
		ledger := new(MockLedgerService)
		acc := &domain.Account{ID: fromID, Balance: decimal.NewFromInt(2000), Status: domain.AccountStatusActive}
		ledger.On("CreateAccount", mock.Anything, mock.MatchedBy(func(d decimal.Decimal) bool {
			return d.Equal(decimal.NewFromInt(2000))
		})).Return(acc, nil).Once()

		out, err := runCLI(t, ledger, "open", "2000")

		require.NoError(t, err)
		var decoded domain.Account
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.Equal(t, fromID, decoded.ID)
		assert.Equal(t, domain.AccountStatusActive, decoded.Status)
		ledger.AssertExpectations(t)
	})

	t.Run("TransferPassesParsedArguments", func(t *testing.T) {
		ledger := new(MockLedgerService)
		result := &domain.TransferResult{
			From: &domain.Account{ID: fromID, Balance: decimal.NewFromInt(1500)},
			To:   &domain.Account{ID: toID, Balance: decimal.NewFromInt(2500)},
		}
		ledger.On("Transfer", mock.Anything, fromID, toID, mock.MatchedBy(func(d decimal.Decimal) bool {
			return d.Equal(decimal.RequireFromString("500.25"))
		})).Return(result, nil).Once()

		out, err := runCLI(t, ledger, "transfer", fromID.String(), toID.String(), "500.25")

		require.NoError(t, err)
		assert.Contains(t, out, `"from"`)
		ledger.AssertExpectations(t)
	})

	t.Run("CreditFailurePropagates", func(t *testing.T) {
		ledger := new(MockLedgerService)
		ledger.On("Credit", mock.Anything, fromID, mock.Anything).
			Return(nil, nil, fmt.Errorf("credit: %w", util.ErrAccountInactive)).Once()

		_, err := runCLI(t, ledger, "credit", fromID.String(), "10")

		assert.ErrorIs(t, err, util.ErrAccountInactive)
		assert.Contains(t, describe(err), "[account inactive]")
		ledger.AssertExpectations(t)
	})

	t.Run("MalformedAmountNeverReachesLedger", func(t *testing.T) {
		ledger := new(MockLedgerService)

		_, err := runCLI(t, ledger, "debit", fromID.String(), "ten")

		assert.ErrorIs(t, err, util.ErrInvalidAmount)
		ledger.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MalformedAccountID", func(t *testing.T) {
		ledger := new(MockLedgerService)

		_, err := runCLI(t, ledger, "balance", "not-a-uuid")

		assert.ErrorIs(t, err, util.ErrAccountNotFound)
		ledger.AssertNotCalled(t, "GetBalance", mock.Anything, mock.Anything)
	})

	t.Run("StatusParsesCaseInsensitively", func(t *testing.T) {
		ledger := new(MockLedgerService)
		ledger.On("SetStatus", mock.Anything, fromID, domain.AccountStatusInactive).
			Return(&domain.Account{ID: fromID, Status: domain.AccountStatusInactive}, nil).Once()

		_, err := runCLI(t, ledger, "status", fromID.String(), "Inactive")

		require.NoError(t, err)
		ledger.AssertExpectations(t)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		ledger := new(MockLedgerService)

		_, err := runCLI(t, ledger, "status", fromID.String(), "frozen")

		assert.ErrorIs(t, err, util.ErrInvalidStatus)
	})

	t.Run("HistoryTable", func(t *testing.T) {
		ledger := new(MockLedgerService)
		records := []domain.TransactionRecord{
			{ID: 1, AccountID: fromID, Kind: domain.TransactionKindDebit, Amount: decimal.NewFromInt(500), CounterpartyID: &toID, CreatedAt: time.Now()},
			{ID: 2, AccountID: fromID, Kind: domain.TransactionKindCredit, Amount: decimal.RequireFromString("0.5"), CreatedAt: time.Now()},
		}
		ledger.On("GetHistory", mock.Anything, fromID).Return(records, nil).Once()

		out, err := runCLI(t, ledger, "history", fromID.String())

		require.NoError(t, err)
		assert.Contains(t, out, "500.0000")
		assert.Contains(t, out, "0.5000")
		assert.Contains(t, out, toID.String())
		assert.Contains(t, out, "CREDIT")
		ledger.AssertExpectations(t)
	})

	t.Run("WrongArgumentCount", func(t *testing.T) {
		ledger := new(MockLedgerService)

		_, err := runCLI(t, ledger, "transfer", fromID.String())

		assert.Error(t, err)
		ledger.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBuiltinCommandsSkipConnect(t *testing.T) {
	for _, args := range [][]string{{"completion", "bash"}, {"help", "transfer"}} {
		connected := false
		out := new(bytes.Buffer)
		root := newRootCmd(&cli{out: out, connect: func(ctx context.Context) error {
			connected = true
			return fmt.Errorf("database unreachable")
		}})
		root.SetOut(out)
		root.SetArgs(args)

		err := root.ExecuteContext(context.Background())

		require.NoError(t, err, args)
		assert.False(t, connected, args)
		assert.NotZero(t, out.Len(), args)
	}
}

func TestLedgerCommandsConnect(t *testing.T) {
	connected := false
	root := newRootCmd(&cli{out: new(bytes.Buffer), connect: func(ctx context.Context) error {
		connected = true
		return fmt.Errorf("database unreachable")
	}})
	root.SetArgs([]string{"accounts"})

	err := root.ExecuteContext(context.Background())

	assert.EqualError(t, err, "database unreachable")
	assert.True(t, connected)
}
