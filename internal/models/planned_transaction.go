package models

import "time"

// RecurrenceType represents how a planned transaction repeats.
type RecurrenceType string

const (
	RecurrenceNone              RecurrenceType = "none"
	RecurrenceDaily             RecurrenceType = "daily"
	RecurrenceWeekly            RecurrenceType = "weekly"
	RecurrenceWeeklyContinuous  RecurrenceType = "weekly_continuous"
	RecurrenceMonthly           RecurrenceType = "monthly"
	RecurrenceMonthlyContinuous RecurrenceType = "monthly_continuous"
	RecurrenceYearly            RecurrenceType = "yearly"
)

// IsContinuous reports whether the recurrence is open-ended: its end date is a
// display bound only and never stops occurrence generation.
func (r RecurrenceType) IsContinuous() bool {
	return r == RecurrenceWeeklyContinuous || r == RecurrenceMonthlyContinuous
}

// IsValid reports whether the recurrence type is known.
func (r RecurrenceType) IsValid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceWeeklyContinuous,
		RecurrenceMonthly, RecurrenceMonthlyContinuous, RecurrenceYearly:
		return true
	}
	return false
}

// PlannedTransaction is a template for a future or recurring transaction.
// It is not a ledger entry; occurrences are materialized on demand by the
// recurrence projector.
type PlannedTransaction struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name       string          `gorm:"not null" json:"name"`
	Type       TransactionType `gorm:"not null" json:"type"`
	CategoryID *string         `gorm:"type:uuid" json:"category_id,omitempty"`
	Currency   string          `gorm:"size:3;not null" json:"currency"`
	Amount     int64           `gorm:"type:bigint;not null" json:"amount"` // cents, positive
	StartDate  time.Time       `gorm:"not null" json:"start_date"`
	EndDate    *time.Time      `json:"end_date,omitempty"`
	Recurrence RecurrenceType  `gorm:"not null;default:'none'" json:"recurrence"`
	Every      int             `gorm:"not null;default:1" json:"every"` // recurrence interval in period units

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
