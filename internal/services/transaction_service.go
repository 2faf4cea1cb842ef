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

// transactionService handles standalone income and expense entries.
// Transfer legs are created and mutated only through the transfer service.
type transactionService struct {
	db       *gorm.DB
	bus      *events.Bus
	accounts AccountServicer
	category CategoryServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, bus *events.Bus, accounts AccountServicer, category CategoryServicer) TransactionServicer {
	return &transactionService{db: db, bus: bus, accounts: accounts, category: category}
}

// CreateTransaction records a new income or expense entry.
func (s *transactionService) CreateTransaction(userID, accountID string, categoryID *string, name string, transactionType models.TransactionType, amount int64, date time.Time) (*models.Transaction, error) {
	if transactionType.IsTransfer() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidTransactionType, "transfer legs are created through the transfers endpoint")
	}

	if _, err := s.accounts.GetAccountByID(userID, accountID); err != nil {
		return nil, err
	}
	if categoryID != nil {
		if _, err := s.category.GetCategoryByID(userID, *categoryID); err != nil {
			return nil, err
		}
	}

	transaction, err := models.NewTransaction(userID, accountID, categoryID, name, transactionType, amount, date)
	if err != nil {
		return nil, err
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.bus.Publish(events.TopicTransactions, userID)
	return transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list across all of the
// user's accounts, newest first.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	query := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	return s.listTransactions(query, page, filter)
}

// GetAccountTransactions retrieves a paginated, filtered list for one account.
func (s *transactionService) GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if _, err := s.accounts.GetAccountByID(userID, accountID); err != nil {
		return nil, err
	}
	query := s.db.Model(&models.Transaction{}).Where("user_id = ? AND account_id = ?", userID, accountID)
	return s.listTransactions(query, page, filter)
}

func (s *transactionService) listTransactions(query *gorm.DB, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()
	query = applyTransactionFilters(query, filter)

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := query.Scopes(pagination.Paginate(page)).
		Preload("Category").
		Order("date DESC, created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(query *gorm.DB, filter TransactionFilter) *gorm.DB {
	if filter.FromDate != nil {
		query = query.Where("date >= ?", dateOnly(*filter.FromDate))
	}
	if filter.ToDate != nil {
		query = query.Where("date < ?", dateOnly(*filter.ToDate).AddDate(0, 0, 1))
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.MinAmount != nil {
		query = query.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount <= ?", *filter.MaxAmount)
	}
	return query
}

// GetTransactionByID retrieves a transaction by ID for a specific user.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Category").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction updates a standalone transaction. Transfer legs are
// rejected; they can only change through their transfer.
func (s *transactionService) UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.Type.IsTransfer() {
		return nil, apperrors.ErrTransactionNotEditable
	}

	if fields.Name != nil {
		transaction.Name = *fields.Name
	}
	if fields.CategoryID != nil {
		if _, err := s.category.GetCategoryByID(userID, *fields.CategoryID); err != nil {
			return nil, err
		}
		transaction.CategoryID = fields.CategoryID
	}
	if fields.Amount != nil {
		if *fields.Amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		transaction.Amount = *fields.Amount
	}
	if fields.Date != nil {
		transaction.Date = *fields.Date
	}

	if err := s.db.Save(transaction).Error; err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.bus.Publish(events.TopicTransactions, userID)
	return transaction, nil
}

// DeleteTransaction deletes a standalone transaction. Transfer legs are
// rejected; deleting the transfer removes both of its legs.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}
	if transaction.Type.IsTransfer() {
		return apperrors.ErrTransactionNotEditable
	}

	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.bus.Publish(events.TopicTransactions, userID)
	return nil
}
