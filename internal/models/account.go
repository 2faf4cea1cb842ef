package models

// Account represents a financial account in the system.
//
// An account does not store a running balance. Its balance is always derived
// from InitialBalance plus the fold over its transactions, so the ledger is the
// single source of truth.
type Account struct {
	Base
	UserID         string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name           string `gorm:"not null" json:"name"`
	InitialBalance int64  `gorm:"not null;default:0" json:"initial_balance"` // cents, signed
	Currency       string `gorm:"size:3;not null;default:'USD'" json:"currency"`
	Color          string `json:"color"`
	Hidden         bool   `gorm:"default:false" json:"hidden"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}
