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

// transferService moves funds between accounts. Every transfer is backed by
// two transaction legs, and all three rows move together atomically.
type transferService struct {
	db       *gorm.DB
	bus      *events.Bus
	accounts AccountServicer
}

// NewTransferService creates a new TransferServicer.
func NewTransferService(db *gorm.DB, bus *events.Bus, accounts AccountServicer) TransferServicer {
	return &transferService{db: db, bus: bus, accounts: accounts}
}

// CreateTransfer moves funds from one account to another. The source must be
// able to cover the amount as of the transfer date. FromAmount and ToAmount
// are independent so cross-currency transfers carry an explicit conversion.
func (s *transferService) CreateTransfer(userID, fromAccountID, toAccountID, name string, fromAmount, toAmount int64, date time.Time) (*models.Transfer, error) {
	if fromAccountID == toAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}
	if fromAmount <= 0 || toAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transfer amounts must be greater than zero")
	}

	if _, err := s.accounts.GetAccountByID(userID, fromAccountID); err != nil {
		return nil, err
	}
	if _, err := s.accounts.GetAccountByID(userID, toAccountID); err != nil {
		return nil, err
	}

	balance, err := s.accounts.BalanceAsOf(userID, fromAccountID, date)
	if err != nil {
		return nil, err
	}
	if balance < fromAmount {
		return nil, apperrors.ErrInsufficientBalance
	}

	fromLeg, err := models.NewTransaction(userID, fromAccountID, nil, name, models.TransactionTypeExpenseTransfer, fromAmount, date)
	if err != nil {
		return nil, err
	}
	toLeg, err := models.NewTransaction(userID, toAccountID, nil, name, models.TransactionTypeIncomeTransfer, toAmount, date)
	if err != nil {
		return nil, err
	}

	transfer := &models.Transfer{
		UserID:        userID,
		FromAccountID: fromAccountID,
		ToAccountID:   toAccountID,
		Name:          name,
		FromAmount:    fromAmount,
		ToAmount:      toAmount,
		Date:          date,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(fromLeg).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Create(toLeg).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		transfer.FromTransactionID = fromLeg.ID
		transfer.ToTransactionID = toLeg.ID
		if err := tx.Create(transfer).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(events.TopicTransfers, userID)
	s.bus.Publish(events.TopicTransactions, userID)
	return transfer, nil
}

// GetUserTransfers retrieves a paginated list of the user's transfers,
// newest first.
func (s *transferService) GetUserTransfers(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transfer], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Transfer{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transfers []models.Transfer
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("FromAccount").
		Preload("ToAccount").
		Order("date DESC, created_at DESC").
		Find(&transfers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transfers, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTransferByID retrieves a transfer by ID for a specific user.
func (s *transferService) GetTransferByID(userID, transferID string) (*models.Transfer, error) {
	var transfer models.Transfer
	if err := s.db.Preload("FromAccount").Preload("ToAccount").
		Where("id = ? AND user_id = ?", transferID, userID).
		First(&transfer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransferNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transfer, nil
}

// UpdateTransfer updates a transfer and rewrites both legs to match.
func (s *transferService) UpdateTransfer(userID, transferID string, fields TransferUpdateFields) (*models.Transfer, error) {
	transfer, err := s.GetTransferByID(userID, transferID)
	if err != nil {
		return nil, err
	}

	newFromAmount := transfer.FromAmount
	if fields.FromAmount != nil {
		if *fields.FromAmount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transfer amounts must be greater than zero")
		}
		newFromAmount = *fields.FromAmount
	}
	newToAmount := transfer.ToAmount
	if fields.ToAmount != nil {
		if *fields.ToAmount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transfer amounts must be greater than zero")
		}
		newToAmount = *fields.ToAmount
	}
	newDate := transfer.Date
	if fields.Date != nil {
		newDate = *fields.Date
	}

	// The source balance already includes the old outgoing leg; back it out
	// before checking whether the new amount is covered.
	balance, err := s.accounts.BalanceAsOf(userID, transfer.FromAccountID, newDate)
	if err != nil {
		return nil, err
	}
	if balance+transfer.FromAmount-newFromAmount < 0 {
		return nil, apperrors.ErrInsufficientBalance
	}

	if fields.Name != nil {
		transfer.Name = *fields.Name
	}
	transfer.FromAmount = newFromAmount
	transfer.ToAmount = newToAmount
	transfer.Date = newDate

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := updateTransferLeg(tx, transfer.FromTransactionID, transfer.Name, newFromAmount, newDate); err != nil {
			return err
		}
		if err := updateTransferLeg(tx, transfer.ToTransactionID, transfer.Name, newToAmount, newDate); err != nil {
			return err
		}
		if err := tx.Save(transfer).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(events.TopicTransfers, userID)
	s.bus.Publish(events.TopicTransactions, userID)
	return transfer, nil
}

// DeleteTransfer removes a transfer and both of its legs. The transfer row
// goes first so the legs are no longer referenced when they are deleted.
func (s *transferService) DeleteTransfer(userID, transferID string) error {
	transfer, err := s.GetTransferByID(userID, transferID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Transfer{}, "id = ?", transfer.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&models.Transaction{},
			"id IN ?", []string{transfer.FromTransactionID, transfer.ToTransactionID}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.bus.Publish(events.TopicTransfers, userID)
	s.bus.Publish(events.TopicTransactions, userID)
	return nil
}

func updateTransferLeg(tx *gorm.DB, legID, name string, amount int64, date time.Time) error {
	var leg models.Transaction
	if err := tx.Where("id = ?", legID).First(&leg).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	leg.Name = name
	leg.Amount = amount
	leg.Date = date
	if err := tx.Save(&leg).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
