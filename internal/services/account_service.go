package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "coinkeep/internal/errors"
	"coinkeep/internal/events"
	"coinkeep/internal/models"
	"coinkeep/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db  *gorm.DB
	bus *events.Bus
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB, bus *events.Bus) AccountServicer {
	return &accountService{db: db, bus: bus}
}

// ComputeBalance folds a transaction history into a point-in-time balance.
//
// Transactions dated strictly after the as-of calendar date are excluded;
// comparison has no time-of-day granularity. Income and income_transfer add,
// expense and expense_transfer subtract. The fold uses a single accumulator
// and does not depend on transaction ordering.
func ComputeBalance(initialBalance int64, transactions []models.Transaction, asOf time.Time) int64 {
	cutoff := dateOnly(asOf)
	balance := initialBalance
	for i := range transactions {
		if dateOnly(transactions[i].Date).After(cutoff) {
			continue
		}
		if transactions[i].Type.IsInflow() {
			balance += transactions[i].Amount
		} else {
			balance -= transactions[i].Amount
		}
	}
	return balance
}

// CreateAccount creates a new account for a user.
func (s *accountService) CreateAccount(userID, name, currency string, initialBalance int64, color string, hidden bool) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}

	if currency == "" {
		currency = models.DefaultBaseCurrency
	}

	account := &models.Account{
		UserID:         userID,
		Name:           name,
		InitialBalance: initialBalance,
		Currency:       currency,
		Color:          color,
		Hidden:         hidden,
	}

	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.bus.Publish(events.TopicAccounts, userID)
	return account, nil
}

// GetUserAccounts retrieves a paginated list of accounts for a user.
func (s *accountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Account{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Scopes(pagination.Paginate(page)).Order("name").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an account by ID for a specific user
func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateAccount updates an existing account. Nil fields are left unchanged.
func (s *accountService) UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && *fields.Name != "" {
		updates["name"] = *fields.Name
	}
	if fields.Color != nil {
		updates["color"] = *fields.Color
	}
	if fields.Hidden != nil {
		updates["hidden"] = *fields.Hidden
	}
	if fields.InitialBalance != nil {
		updates["initial_balance"] = *fields.InitialBalance
	}

	if len(updates) > 0 {
		if err := s.db.Model(account).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		// Reload to get fresh data
		if err := s.db.Where("id = ?", account.ID).First(account).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		s.bus.Publish(events.TopicAccounts, userID)
	}

	return account, nil
}

// DeleteAccount deletes an account. Deletion is restricted: an account that
// still owns transactions cannot be removed (the caller must delete or move
// them first), mirroring the schema's RESTRICT foreign key.
func (s *accountService) DeleteAccount(userID, accountID string) error {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return err
	}

	var refs int64
	if err := s.db.Model(&models.Transaction{}).Where("account_id = ?", account.ID).Count(&refs).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if refs > 0 {
		return apperrors.ErrAccountInUse
	}

	if err := s.db.Delete(account).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.bus.Publish(events.TopicAccounts, userID)
	return nil
}

// BalanceAsOf returns the account's balance immediately before the given
// date: the initial balance plus the fold over all transactions dated on or
// before it.
func (s *accountService) BalanceAsOf(userID, accountID string, asOf time.Time) (int64, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return 0, err
	}

	var transactions []models.Transaction
	cutoff := dateOnly(asOf).AddDate(0, 0, 1)
	if err := s.db.Where("account_id = ? AND date < ?", account.ID, cutoff).Find(&transactions).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return ComputeBalance(account.InitialBalance, transactions, asOf), nil
}
