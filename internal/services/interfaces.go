package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"finledger/internal/models"
	"finledger/internal/pagination"
)

// UserServicer defines the contract for registration and credential checks.
type UserServicer interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

// CategoryServicer defines the contract for the per-user category registry.
type CategoryServicer interface {
	EnsureDefaults(ctx context.Context, userID string) error
	CreateCategory(ctx context.Context, userID, name string, categoryType models.CategoryType) (*models.Category, error)
	RenameCategory(ctx context.Context, userID, categoryID, newName string) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
	GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
	ListByTypeAndUser(ctx context.Context, userID string, categoryType models.CategoryType, includeReserved bool) ([]models.Category, error)
	ListUserCategories(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
}

// TransactionFilter holds optional filter parameters for listing transactions.
// Date bounds are inclusive calendar days.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	CategoryID string
}

// RecordInput is a new transaction entered against a category.
type RecordInput struct {
	Name   string
	Amount decimal.Decimal
	Date   time.Time
}

// TransactionUpdate lists the fields to overwrite; nil fields are kept.
type TransactionUpdate struct {
	Name       *string
	Amount     *decimal.Decimal
	Date       *time.Time
	CategoryID *string
}

// TransactionServicer defines the contract for the transaction ledger.
type TransactionServicer interface {
	Record(ctx context.Context, userID, categoryID string, in RecordInput) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID string, upd TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
	GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	Query(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error)
	ListTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

// ReportRequest selects the category and optional inclusive date range of a
// monthly report. The range applies only when both bounds are set.
type ReportRequest struct {
	CategoryID string
	StartDate  *time.Time
	EndDate    *time.Time
}

// MonthBucket is the total of one calendar month name.
type MonthBucket struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// Report is the per-month aggregation of one category.
type Report struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Buckets      []MonthBucket   `json:"buckets"`
	MaxValue     decimal.Decimal `json:"max_value"`
}

// Totals returns the buckets keyed by month name.
func (r *Report) Totals() map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal, len(r.Buckets))
	for _, b := range r.Buckets {
		totals[b.Month] = b.Total
	}
	return totals
}

// StatisticsServicer defines the contract for the aggregation engine.
type StatisticsServicer interface {
	MonthlyReport(ctx context.Context, userID string, req ReportRequest) (*Report, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
