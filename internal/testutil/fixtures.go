package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"finledger/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique username.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithUsername(t, db, fmt.Sprintf("user%d", nextID()))
}

// CreateTestUserWithUsername creates a user with the given username.
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@test.com", username),
		Password: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category owned by userID.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID, name string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	cat := &models.Category{UserID: userID, Name: name, Type: categoryType}
	if err := db.Create(cat).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return cat
}

// CreateReservedCategories creates the two catch-all categories for userID
// and returns them as (income, expense).
func CreateReservedCategories(t *testing.T, db *gorm.DB, userID string) (*models.Category, *models.Category) {
	t.Helper()
	income := CreateTestCategory(t, db, userID, models.ReservedIncomeName, models.CategoryTypeIncome)
	expense := CreateTestCategory(t, db, userID, models.ReservedExpenseName, models.CategoryTypeExpense)
	return income, expense
}

// CreateTestTransaction stores a transaction directly, without a mirror.
func CreateTestTransaction(t *testing.T, db *gorm.DB, categoryID, name, amount string, date time.Time) *models.Transaction {
	t.Helper()

	txn := &models.Transaction{
		CategoryID: categoryID,
		Name:       name,
		Amount:     decimal.RequireFromString(amount),
		Date:       models.CalendarDate(date),
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return txn
}

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Amount parses a decimal literal, failing the test on malformed input.
func Amount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid amount %q: %v", s, err)
	}
	return d
}

// AssertAmount fails the test when got is not numerically equal to want.
func AssertAmount(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("expected amount %s, got %s", want, got.String())
	}
}
