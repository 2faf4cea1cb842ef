package models

import "time"

// Transfer is a double-entry movement of funds between two accounts.
//
// A transfer is always backed by exactly two transactions: an expense_transfer
// leg on the source account and an income_transfer leg on the destination
// account. The three rows are created, updated, and deleted as one atomic
// unit; on deletion the transfer row goes first so the legs can be removed
// without tripping the restrictive foreign keys.
type Transfer struct {
	Base
	UserID            string    `gorm:"type:uuid;not null;index" json:"user_id"`
	FromAccountID     string    `gorm:"type:uuid;not null" json:"from_account_id"`
	ToAccountID       string    `gorm:"type:uuid;not null" json:"to_account_id"`
	FromTransactionID string    `gorm:"type:uuid;not null" json:"from_transaction_id"`
	ToTransactionID   string    `gorm:"type:uuid;not null" json:"to_transaction_id"`
	Name              string    `json:"name"`
	FromAmount        int64     `gorm:"type:bigint;not null" json:"from_amount"` // cents in the source account's currency
	ToAmount          int64     `gorm:"type:bigint;not null" json:"to_amount"`   // cents in the destination account's currency
	Date              time.Time `gorm:"not null" json:"date"`

	// Relationships
	FromAccount     Account     `gorm:"foreignKey:FromAccountID" json:"from_account,omitempty"`
	ToAccount       Account     `gorm:"foreignKey:ToAccountID" json:"to_account,omitempty"`
	FromTransaction Transaction `gorm:"foreignKey:FromTransactionID" json:"from_transaction,omitempty"`
	ToTransaction   Transaction `gorm:"foreignKey:ToTransactionID" json:"to_transaction,omitempty"`
}
