package models

import (
	"time"

	"gorm.io/gorm"

	apperrors "coinkeep/internal/errors"
)

// TransactionType represents the type of transaction.
type TransactionType string

const (
	TransactionTypeExpense         TransactionType = "expense"
	TransactionTypeIncome          TransactionType = "income"
	TransactionTypeExpenseTransfer TransactionType = "expense_transfer"
	TransactionTypeIncomeTransfer  TransactionType = "income_transfer"
)

// IsTransfer reports whether the type is one of the two transfer leg types.
func (t TransactionType) IsTransfer() bool {
	return t == TransactionTypeExpenseTransfer || t == TransactionTypeIncomeTransfer
}

// IsInflow reports whether the type adds to an account balance.
func (t TransactionType) IsInflow() bool {
	return t == TransactionTypeIncome || t == TransactionTypeIncomeTransfer
}

// IsValid reports whether the type is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeExpense, TransactionTypeIncome,
		TransactionTypeExpenseTransfer, TransactionTypeIncomeTransfer:
		return true
	}
	return false
}

// Transaction represents a single ledger entry on an account.
//
// Invariant: CategoryID is nil if and only if Type is a transfer leg type.
// The invariant is enforced by NewTransaction and again in BeforeSave so an
// invalid combination can never be persisted.
type Transaction struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID  string          `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID *string         `gorm:"type:uuid" json:"category_id,omitempty"`
	Name       string          `json:"name"`
	Type       TransactionType `gorm:"not null" json:"type"`
	Amount     int64           `gorm:"type:bigint;not null" json:"amount"` // cents, always positive; Type carries the direction
	Date       time.Time       `gorm:"not null" json:"date"`

	// Relationships
	Account  Account   `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// NewTransaction constructs a transaction, rejecting invariant violations.
func NewTransaction(userID, accountID string, categoryID *string, name string, transactionType TransactionType, amount int64, date time.Time) (*Transaction, error) {
	if !transactionType.IsValid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	t := &Transaction{
		UserID:     userID,
		AccountID:  accountID,
		CategoryID: categoryID,
		Name:       name,
		Type:       transactionType,
		Amount:     amount,
		Date:       date,
	}
	if err := t.validateCategory(); err != nil {
		return nil, err
	}
	return t, nil
}

// BeforeSave enforces the category/type invariant on every create and update.
func (t *Transaction) BeforeSave(tx *gorm.DB) error {
	return t.validateCategory()
}

func (t *Transaction) validateCategory() error {
	if t.Type.IsTransfer() {
		if t.CategoryID != nil {
			return apperrors.ErrCategoryNotAllowed
		}
		return nil
	}
	if t.CategoryID == nil {
		return apperrors.ErrCategoryRequired
	}
	return nil
}
