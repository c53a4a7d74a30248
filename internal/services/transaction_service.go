package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"finledger/internal/cache"
	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db      *gorm.DB
	reports cache.ReportCache
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, reports cache.ReportCache) TransactionServicer {
	if reports == nil {
		reports = cache.NopCache{}
	}
	return &transactionService{db: db, reports: reports}
}

// Record stores a transaction under categoryID. Unless the category is itself
// reserved, a mirror with the same name, amount and date is written to the
// user's reserved category of the same type. Both rows are committed together.
func (s *transactionService) Record(ctx context.Context, userID, categoryID string, in RecordInput) (*models.Transaction, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction name is required")
	}
	if in.Date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction date is required")
	}
	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}

	unlock := reservedLocks.Lock(userID)
	defer unlock()

	var primary *models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrCategoryNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		primary = &models.Transaction{
			CategoryID: category.ID,
			Name:       in.Name,
			Date:       models.CalendarDate(in.Date),
			Amount:     in.Amount,
		}
		if err := tx.Create(primary).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		primary.Category = &category

		if category.IsReserved() {
			return nil
		}

		reserved, err := findOrCreateReserved(tx, userID, category.Type)
		if err != nil {
			return err
		}
		mirror := &models.Transaction{
			CategoryID: reserved.ID,
			Name:       primary.Name,
			Date:       primary.Date,
			Amount:     primary.Amount,
		}
		if err := tx.Create(mirror).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateReports(ctx, s.reports, userID)
	return primary, nil
}

// UpdateTransaction overwrites the given fields of one transaction. The
// mirror written by Record is left as it was.
func (s *transactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, upd TransactionUpdate) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction name is required")
		}
		updates["name"] = name
	}
	if upd.Amount != nil {
		if err := validateAmount(*upd.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = *upd.Amount
	}
	if upd.Date != nil {
		if upd.Date.IsZero() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction date is required")
		}
		updates["date"] = models.CalendarDate(*upd.Date)
	}
	if upd.CategoryID != nil && *upd.CategoryID != transaction.CategoryID {
		var target models.Category
		if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", *upd.CategoryID, userID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrCategoryNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		updates["category_id"] = target.ID
	}

	if len(updates) == 0 {
		return transaction, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", transaction.ID).
		Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	invalidateReports(ctx, s.reports, userID)
	return s.GetTransactionByID(ctx, userID, transaction.ID)
}

// DeleteTransaction soft-deletes one transaction. Its mirror stays.
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Transaction{}, "id = ?", transaction.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	invalidateReports(ctx, s.reports, userID)
	return nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := userTransactions(s.db.WithContext(ctx), userID).
		Preload("Category").
		Where("transactions.id = ?", transactionID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// Query returns the user's transactions matching filter, oldest first.
func (s *transactionService) Query(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error) {
	if err := validateRange(filter.StartDate, filter.EndDate); err != nil {
		return nil, err
	}

	var transactions []models.Transaction
	q := applyTransactionFilters(userTransactions(s.db.WithContext(ctx), userID), filter)
	if err := q.Preload("Category").Scopes(chronological).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// ListTransactions retrieves a paginated, filtered list of the user's transactions.
func (s *transactionService) ListTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if err := validateRange(filter.StartDate, filter.EndDate); err != nil {
		return nil, err
	}

	page.Defaults()

	base := applyTransactionFilters(userTransactions(s.db.WithContext(ctx), userID), filter).Session(&gorm.Session{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").
		Scopes(chronological, pagination.Paginate(page)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page, totalItems)
	return &result, nil
}

// userTransactions scopes a query to transactions whose live category belongs to userID.
func userTransactions(db *gorm.DB, userID string) *gorm.DB {
	return db.Model(&models.Transaction{}).
		Joins("JOIN categories ON categories.id = transactions.category_id AND categories.deleted_at IS NULL").
		Where("categories.user_id = ?", userID)
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.StartDate != nil {
		q = q.Where("transactions.date >= ?", models.CalendarDate(*f.StartDate))
	}
	if f.EndDate != nil {
		q = q.Where("transactions.date <= ?", models.CalendarDate(*f.EndDate))
	}
	if f.CategoryID != "" {
		q = q.Where("transactions.category_id = ?", f.CategoryID)
	}
	return q
}

func chronological(db *gorm.DB) *gorm.DB {
	return db.Order("transactions.date ASC").
		Order("transactions.created_at ASC").
		Order("transactions.id ASC")
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(models.AmountScale)) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must have at most two decimal places")
	}
	if amount.Abs().GreaterThanOrEqual(models.MaxAmountMagnitude) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must have at most ten integer digits")
	}
	return nil
}
