package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits kept for amounts and
// AmountPrecision the total number of digits the amount column holds.
const (
	AmountScale     = 2
	AmountPrecision = 12
)

// MaxAmountMagnitude is the smallest absolute amount the column cannot store.
var MaxAmountMagnitude = decimal.New(1, AmountPrecision-AmountScale)

// Transaction is a single income or expense entry owned by a category.
type Transaction struct {
	Base
	CategoryID string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Name       string          `gorm:"not null" json:"name"`
	Date       time.Time       `gorm:"type:date;not null;index" json:"date"`
	Amount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// Equivalent reports logical equality by date, amount and category. The
// category comparison uses Category.Equivalent, so both transactions must
// have their category loaded.
func (t Transaction) Equivalent(other Transaction) bool {
	if !sameDay(t.Date, other.Date) || !t.Amount.Equal(other.Amount) {
		return false
	}
	if t.Category == nil || other.Category == nil {
		return t.CategoryID == other.CategoryID
	}
	return t.Category.Equivalent(*other.Category)
}

// CalendarDate truncates t to midnight UTC of its calendar day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
