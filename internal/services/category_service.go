package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"finledger/internal/cache"
	apperrors "finledger/internal/errors"
	"finledger/internal/logger"
	"finledger/internal/models"
	"finledger/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db      *gorm.DB
	reports cache.ReportCache
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, reports cache.ReportCache) CategoryServicer {
	if reports == nil {
		reports = cache.NopCache{}
	}
	return &categoryService{db: db, reports: reports}
}

// EnsureDefaults creates whichever reserved categories the user is missing.
// Calling it repeatedly, or concurrently for the same user, leaves exactly one
// of each.
func (s *categoryService) EnsureDefaults(ctx context.Context, userID string) error {
	unlock := reservedLocks.Lock(userID)
	defer unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range models.CategoryTypes {
			if _, err := findOrCreateReserved(tx, userID, t); err != nil {
				return err
			}
		}
		return nil
	})
}

// findOrCreateReserved returns the user's catch-all category of the given
// type, creating it when absent. Callers hold reservedLocks for userID.
func findOrCreateReserved(tx *gorm.DB, userID string, categoryType models.CategoryType) (*models.Category, error) {
	var category models.Category
	err := tx.Where("user_id = ? AND name = ? AND type = ?", userID, categoryType.ReservedName(), categoryType).
		Order("created_at ASC").
		First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	category = models.Category{
		UserID: userID,
		Name:   categoryType.ReservedName(),
		Type:   categoryType,
	}
	if err := tx.Create(&category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// CreateCategory creates a new category. Names are not deduplicated.
func (s *categoryService) CreateCategory(ctx context.Context, userID, name string, categoryType models.CategoryType) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if !categoryType.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income or expense")
	}
	if name == categoryType.ReservedName() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is reserved")
	}

	category := &models.Category{
		UserID: userID,
		Name:   name,
		Type:   categoryType,
	}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// RenameCategory changes the display name of a category
func (s *categoryService) RenameCategory(ctx context.Context, userID, categoryID, newName string) (*models.Category, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	category, err := s.GetCategoryByID(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}
	if !category.IsReserved() && newName == category.Type.ReservedName() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is reserved")
	}

	if err := s.db.WithContext(ctx).Model(category).Update("name", newName).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	invalidateReports(ctx, s.reports, userID)
	return category, nil
}

// DeleteCategory deletes a category together with its transactions.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	category, err := s.GetCategoryByID(ctx, userID, categoryID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", category.ID).Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	invalidateReports(ctx, s.reports, userID)
	return nil
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// ListByTypeAndUser lists the user's categories of one type ordered by name.
// Reserved categories are omitted unless includeReserved is set.
func (s *categoryService) ListByTypeAndUser(ctx context.Context, userID string, categoryType models.CategoryType, includeReserved bool) ([]models.Category, error) {
	if !categoryType.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income or expense")
	}

	q := s.db.WithContext(ctx).Where("user_id = ? AND type = ?", userID, categoryType)
	if !includeReserved {
		q = q.Where("name <> ?", categoryType.ReservedName())
	}

	var categories []models.Category
	if err := q.Order("name ASC").Order("created_at ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// ListUserCategories retrieves a paginated list of categories for a user.
func (s *categoryService) ListUserCategories(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.WithContext(ctx).Model(&models.Category{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Scopes(pagination.Paginate(page)).
		Order("type ASC").Order("name ASC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page, totalItems)
	return &result, nil
}

// invalidateReports drops the user's cached reports. Cache failures are
// logged; the write they follow has already committed.
func invalidateReports(ctx context.Context, reports cache.ReportCache, userID string) {
	if err := reports.Invalidate(ctx, userID); err != nil {
		logger.Get().Warnw("failed to invalidate report cache", "user_id", userID, "error", err)
	}
}
