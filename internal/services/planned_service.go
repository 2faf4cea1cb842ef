package services

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	apperrors "coinkeep/internal/errors"
	"coinkeep/internal/events"
	"coinkeep/internal/models"
	"coinkeep/internal/pagination"
)

// plannedService manages future and recurring transaction templates.
type plannedService struct {
	db       *gorm.DB
	bus      *events.Bus
	category CategoryServicer
}

// NewPlannedService creates a new PlannedServicer.
func NewPlannedService(db *gorm.DB, bus *events.Bus, category CategoryServicer) PlannedServicer {
	return &plannedService{db: db, bus: bus, category: category}
}

// CreatePlanned creates a new planned transaction template.
func (s *plannedService) CreatePlanned(userID string, input PlannedInput) (*models.PlannedTransaction, error) {
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "planned transaction name is required")
	}
	if input.Type.IsTransfer() {
		return nil, apperrors.ErrPlannedTransferType
	}
	if !input.Type.IsValid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if input.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !input.Recurrence.IsValid() {
		return nil, apperrors.ErrInvalidRecurrence
	}
	if input.EndDate != nil && input.EndDate.Before(input.StartDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date cannot be before start date")
	}
	if input.CategoryID == nil {
		return nil, apperrors.ErrCategoryRequired
	}
	if _, err := s.category.GetCategoryByID(userID, *input.CategoryID); err != nil {
		return nil, err
	}

	every := input.Every
	if every < 1 {
		every = 1
	}
	currency := input.Currency
	if currency == "" {
		currency = models.DefaultBaseCurrency
	}

	planned := &models.PlannedTransaction{
		UserID:     userID,
		Name:       input.Name,
		Type:       input.Type,
		CategoryID: input.CategoryID,
		Currency:   currency,
		Amount:     input.Amount,
		StartDate:  dateOnly(input.StartDate),
		Recurrence: input.Recurrence,
		Every:      every,
	}
	if input.EndDate != nil {
		end := dateOnly(*input.EndDate)
		planned.EndDate = &end
	}

	if err := s.db.Create(planned).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.bus.Publish(events.TopicPlanned, userID)
	return planned, nil
}

// GetUserPlanned retrieves a paginated list of the user's planned
// transactions, ordered by next start date.
func (s *plannedService) GetUserPlanned(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.PlannedTransaction], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.PlannedTransaction{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var planned []models.PlannedTransaction
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Category").
		Order("start_date").
		Find(&planned).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(planned, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetPlannedByID retrieves a planned transaction by ID for a specific user.
func (s *plannedService) GetPlannedByID(userID, plannedID string) (*models.PlannedTransaction, error) {
	var planned models.PlannedTransaction
	if err := s.db.Preload("Category").
		Where("id = ? AND user_id = ?", plannedID, userID).
		First(&planned).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPlannedNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &planned, nil
}

// UpdatePlanned updates a planned transaction template. Nil fields are left
// unchanged; ClearEndDate removes the end date.
func (s *plannedService) UpdatePlanned(userID, plannedID string, fields PlannedUpdateFields) (*models.PlannedTransaction, error) {
	planned, err := s.GetPlannedByID(userID, plannedID)
	if err != nil {
		return nil, err
	}

	if fields.Name != nil && *fields.Name != "" {
		planned.Name = *fields.Name
	}
	if fields.CategoryID != nil {
		if _, err := s.category.GetCategoryByID(userID, *fields.CategoryID); err != nil {
			return nil, err
		}
		planned.CategoryID = fields.CategoryID
	}
	if fields.Amount != nil {
		if *fields.Amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		planned.Amount = *fields.Amount
	}
	if fields.StartDate != nil {
		planned.StartDate = dateOnly(*fields.StartDate)
	}
	switch {
	case fields.ClearEndDate:
		planned.EndDate = nil
	case fields.EndDate != nil:
		end := dateOnly(*fields.EndDate)
		planned.EndDate = &end
	}
	if fields.Recurrence != nil {
		if !fields.Recurrence.IsValid() {
			return nil, apperrors.ErrInvalidRecurrence
		}
		planned.Recurrence = *fields.Recurrence
	}
	if fields.Every != nil {
		if *fields.Every < 1 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "recurrence interval must be at least 1")
		}
		planned.Every = *fields.Every
	}
	if planned.EndDate != nil && planned.EndDate.Before(planned.StartDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date cannot be before start date")
	}

	if err := s.db.Save(planned).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.bus.Publish(events.TopicPlanned, userID)
	return planned, nil
}

// DeletePlanned deletes a planned transaction template.
func (s *plannedService) DeletePlanned(userID, plannedID string) error {
	planned, err := s.GetPlannedByID(userID, plannedID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(planned).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.bus.Publish(events.TopicPlanned, userID)
	return nil
}

// Project materializes every occurrence of the user's planned transactions
// inside [from, to], sorted by date. Amounts are signed by direction.
func (s *plannedService) Project(userID string, from, to time.Time) ([]PlannedOccurrence, error) {
	if to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "projection window end cannot be before its start")
	}

	var planned []models.PlannedTransaction
	if err := s.db.Where("user_id = ?", userID).Find(&planned).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var occurrences []PlannedOccurrence
	for _, p := range planned {
		for _, occ := range Occurrences(p, from, to) {
			amount := occ.Amount
			if !p.Type.IsInflow() {
				amount = -amount
			}
			occurrences = append(occurrences, PlannedOccurrence{
				PlannedID: p.ID,
				Name:      p.Name,
				Type:      p.Type,
				Currency:  p.Currency,
				Amount:    amount,
				Date:      occ.Date,
			})
		}
	}

	sort.Slice(occurrences, func(i, j int) bool {
		if occurrences[i].Date.Equal(occurrences[j].Date) {
			return occurrences[i].Name < occurrences[j].Name
		}
		return occurrences[i].Date.Before(occurrences[j].Date)
	})
	return occurrences, nil
}
