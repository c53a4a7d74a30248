package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"finledger/internal/cache"
	apperrors "finledger/internal/errors"
	"finledger/internal/logger"
	"finledger/internal/models"
)

// statisticsService aggregates a category's transactions per month.
type statisticsService struct {
	db         *gorm.DB
	categories CategoryServicer
	reports    cache.ReportCache
	months     MonthNamer
}

// NewStatisticsService creates a new StatisticsServicer rendering month
// names in locale.
func NewStatisticsService(db *gorm.DB, categories CategoryServicer, reports cache.ReportCache, locale string) StatisticsServicer {
	if reports == nil {
		reports = cache.NopCache{}
	}
	return &statisticsService{
		db:         db,
		categories: categories,
		reports:    reports,
		months:     NewMonthNamer(locale),
	}
}

// MonthlyReport sums the transactions of every category equivalent to the
// selected one (same name and type) by month name. The date range applies
// only when both bounds are given.
func (s *statisticsService) MonthlyReport(ctx context.Context, userID string, req ReportRequest) (*Report, error) {
	if req.CategoryID == "" {
		return nil, apperrors.ErrMissingCategory
	}
	bounded := req.StartDate != nil && req.EndDate != nil
	if bounded {
		if err := validateRange(req.StartDate, req.EndDate); err != nil {
			return nil, err
		}
	}

	selected, err := s.categories.GetCategoryByID(ctx, userID, req.CategoryID)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey(req, bounded)
	var cached Report
	version, found, err := s.reports.Get(ctx, userID, key, &cached)
	if err != nil {
		logger.Get().Warnw("report cache read failed", "user_id", userID, "error", err)
	} else if found {
		return &cached, nil
	}

	q := userTransactions(s.db.WithContext(ctx), userID)
	if bounded {
		q = applyTransactionFilters(q, TransactionFilter{StartDate: req.StartDate, EndDate: req.EndDate})
	}
	var transactions []models.Transaction
	if err := q.Preload("Category").Scopes(chronological).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	report := s.aggregate(*selected, transactions)

	if err := s.reports.Set(ctx, userID, key, version, report); err != nil {
		logger.Get().Warnw("report cache write failed", "user_id", userID, "error", err)
	}
	return report, nil
}

// aggregate buckets transactions, already in date order, so buckets come out
// in order of each month's first occurrence.
func (s *statisticsService) aggregate(selected models.Category, transactions []models.Transaction) *Report {
	report := &Report{
		CategoryID:   selected.ID,
		CategoryName: selected.Name,
		Buckets:      []MonthBucket{},
		MaxValue:     decimal.Zero,
	}

	index := make(map[string]int)
	for _, t := range transactions {
		if t.Category == nil || !t.Category.Equivalent(selected) {
			continue
		}
		month := s.months.Name(t.Date)
		i, ok := index[month]
		if !ok {
			i = len(report.Buckets)
			index[month] = i
			report.Buckets = append(report.Buckets, MonthBucket{Month: month, Total: decimal.Zero})
		}
		report.Buckets[i].Total = report.Buckets[i].Total.Add(t.Amount)
	}

	for i, b := range report.Buckets {
		if i == 0 || b.Total.GreaterThan(report.MaxValue) {
			report.MaxValue = b.Total
		}
	}
	return report
}

func (s *statisticsService) cacheKey(req ReportRequest, bounded bool) string {
	start, end := "*", "*"
	if bounded {
		start = req.StartDate.Format(time.DateOnly)
		end = req.EndDate.Format(time.DateOnly)
	}
	return fmt.Sprintf("%s:%s:%s:%s", req.CategoryID, start, end, s.months.Locale())
}

// validateRange rejects a start day later than the end day. Missing bounds
// are always accepted.
func validateRange(start, end *time.Time) error {
	if start == nil || end == nil {
		return nil
	}
	if models.CalendarDate(*start).After(models.CalendarDate(*end)) {
		return apperrors.ErrInvalidRange
	}
	return nil
}
