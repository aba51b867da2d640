// internal/domain/account.go
package domain

import (
	"bytes"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// AccountID is the opaque, never-reused identifier of an account.
type AccountID = uuid.UUID

// AccountStatus defines whether an account accepts balance-mutating operations.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusInactive AccountStatus = "INACTIVE"
)

// Valid reports whether s is one of the known statuses.
func (s AccountStatus) Valid() bool {
	return s == AccountStatusActive || s == AccountStatusInactive
}

// ParseAccountStatus accepts "active"/"inactive" in any letter case.
func ParseAccountStatus(raw string) (AccountStatus, bool) {
	status := AccountStatus(strings.ToUpper(strings.TrimSpace(raw)))
	return status, status.Valid()
}

// Account is the ledger's view of a bank account. Profile fields (name, email, ...)
// belong to the identity layer and are not modelled here.
type Account struct {
	ID        AccountID       `db:"id" json:"id"`                 // Primary key, UUID in DB
	Balance   decimal.Decimal `db:"balance" json:"balance"`       // Current balance, NUMERIC(20, 4) in DB, never negative
	Status    AccountStatus   `db:"status" json:"status"`         // ACTIVE or INACTIVE
	CreatedAt time.Time       `db:"created_at" json:"created_at"` // Timestamp of creation
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"` // Timestamp of last balance or status change
}

// NewAccount creates a new active Account with a freshly generated ID.
func NewAccount(initialBalance decimal.Decimal) *Account {
	now := Now()
	return &Account{
		ID:        uuid.New(),
		Balance:   initialBalance,
		Status:    AccountStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive reports whether the account accepts credits, debits and transfers.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// LockOrder returns the two IDs in the order their rows must be locked.
// Every operation touching two accounts acquires them in this order so that
// opposite transfers between the same pair cannot wait on each other.
func LockOrder(a, b AccountID) (first, second AccountID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}
