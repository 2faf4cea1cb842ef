package models

// Currency is one row of a user's exchange-rate table.
//
// Rate is the number of units of this currency per one unit of the user's base
// currency, so the base currency itself always carries a rate of 1.0 and an
// amount is converted into the base by dividing by its currency's rate.
// Rebasing to a new base divides every stored rate by the new base's old rate
// in a single database transaction.
type Currency struct {
	Base
	UserID string  `gorm:"type:uuid;not null;uniqueIndex:idx_user_currency" json:"user_id"`
	Code   string  `gorm:"size:3;not null;uniqueIndex:idx_user_currency" json:"code"`
	Rate   float64 `gorm:"not null" json:"rate"`
}
