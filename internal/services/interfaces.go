package services

import (
	"context"
	"time"

	"coinkeep/internal/forex"
	"coinkeep/internal/models"
	"coinkeep/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// AccountUpdateFields holds optional updates for an account; nil fields are
// left unchanged.
type AccountUpdateFields struct {
	Name           *string
	Color          *string
	Hidden         *bool
	InitialBalance *int64
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID, name, currency string, initialBalance int64, color string, hidden bool) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error)
	DeleteAccount(userID, accountID string) error
	BalanceAsOf(userID, accountID string, asOf time.Time) (int64, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType, icon, color string, parentID *string) (*models.Category, error)
	GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetUserCategoriesByType(userID string, categoryType models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID, name, icon, color string, parentID *string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// RateSource provides the latest remote exchange-rate quote.
// *forex.Client satisfies it; tests inject stubs.
type RateSource interface {
	Latest(ctx context.Context) (*forex.Quote, error)
}

// CurrencyServicer defines the contract for the per-user exchange-rate table.
type CurrencyServicer interface {
	ListCurrencies(userID string) ([]models.Currency, error)
	UpsertCurrency(userID, code string, rate float64) (*models.Currency, error)
	Rebase(userID, code string) error
	Refresh(ctx context.Context, userID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	MinAmount  *int64
	MaxAmount  *int64
}

// TransactionUpdateFields holds optional updates for a transaction.
type TransactionUpdateFields struct {
	Name       *string
	CategoryID *string
	Amount     *int64
	Date       *time.Time
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID, accountID string, categoryID *string, name string, transactionType models.TransactionType, amount int64, date time.Time) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// TransferUpdateFields holds optional updates for a transfer.
type TransferUpdateFields struct {
	Name       *string
	FromAmount *int64
	ToAmount   *int64
	Date       *time.Time
}

// TransferServicer defines the contract for inter-account transfers. Every
// operation keeps the transfer row and its two backing transaction legs
// consistent within one database transaction.
type TransferServicer interface {
	CreateTransfer(userID, fromAccountID, toAccountID, name string, fromAmount, toAmount int64, date time.Time) (*models.Transfer, error)
	GetUserTransfers(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transfer], error)
	GetTransferByID(userID, transferID string) (*models.Transfer, error)
	UpdateTransfer(userID, transferID string, fields TransferUpdateFields) (*models.Transfer, error)
	DeleteTransfer(userID, transferID string) error
}

// PlannedInput holds the fields for creating a planned transaction.
type PlannedInput struct {
	Name       string
	Type       models.TransactionType
	CategoryID *string
	Currency   string
	Amount     int64
	StartDate  time.Time
	EndDate    *time.Time
	Recurrence models.RecurrenceType
	Every      int
}

// PlannedUpdateFields holds optional updates for a planned transaction.
// ClearEndDate removes the end date; it wins over EndDate.
type PlannedUpdateFields struct {
	Name         *string
	CategoryID   *string
	Amount       *int64
	StartDate    *time.Time
	EndDate      *time.Time
	ClearEndDate bool
	Recurrence   *models.RecurrenceType
	Every        *int
}

// PlannedOccurrence is one concrete occurrence of a planned transaction,
// materialized by the recurrence projector. Amount is signed: income
// positive, expense negative.
type PlannedOccurrence struct {
	PlannedID string                 `json:"planned_id"`
	Name      string                 `json:"name"`
	Type      models.TransactionType `json:"type"`
	Currency  string                 `json:"currency"`
	Amount    int64                  `json:"amount"`
	Date      time.Time              `json:"date"`
}

// PlannedServicer defines the contract for planned (future/recurring)
// transaction templates.
type PlannedServicer interface {
	CreatePlanned(userID string, input PlannedInput) (*models.PlannedTransaction, error)
	GetUserPlanned(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.PlannedTransaction], error)
	GetPlannedByID(userID, plannedID string) (*models.PlannedTransaction, error)
	UpdatePlanned(userID, plannedID string, fields PlannedUpdateFields) (*models.PlannedTransaction, error)
	DeletePlanned(userID, plannedID string) error
	Project(userID string, from, to time.Time) ([]PlannedOccurrence, error)
}

// UserSettings is the resolved view of a user's settings store.
type UserSettings struct {
	BaseCurrency        string `json:"base_currency"`
	OnboardingCompleted bool   `json:"onboarding_completed"`
}

// SettingsServicer defines the contract for the local settings store.
// The base currency is changed through CurrencyServicer.Rebase, which keeps
// the stored rates and the setting consistent in one transaction.
type SettingsServicer interface {
	GetSettings(userID string) (*UserSettings, error)
	BaseCurrency(userID string) (string, error)
	SetOnboardingCompleted(userID string, completed bool) error
}

// CurrencySubtotal is one currency's share of a net-worth report.
type CurrencySubtotal struct {
	Currency string  `json:"currency"`
	Balance  int64   `json:"balance"`
	Rate     float64 `json:"rate"`
	InBase   int64   `json:"in_base"`
}

// NetWorthReport is the total balance of all accounts expressed in the base
// currency, with per-currency subtotals.
type NetWorthReport struct {
	BaseCurrency string             `json:"base_currency"`
	Total        int64              `json:"total"`
	PerCurrency  []CurrencySubtotal `json:"per_currency"`
}

// CategoryBreakdown maps period keys ("2006-01") to per-category signed nets.
type CategoryBreakdown map[string]map[string]int64

// ProjectionReport is the expected cash flow implied by planned transactions
// over a window, expressed in the base currency.
type ProjectionReport struct {
	BaseCurrency string              `json:"base_currency"`
	Total        int64               `json:"total"`
	PerCurrency  map[string]int64    `json:"per_currency"`
	Occurrences  []PlannedOccurrence `json:"occurrences"`
}

// ReportServicer defines the contract for aggregated reports.
type ReportServicer interface {
	NetWorth(userID string) (*NetWorthReport, error)
	CategoryBreakdown(userID string, from, to time.Time, positive bool) (CategoryBreakdown, error)
	Projection(userID string, from, to time.Time) (*ProjectionReport, error)
}
