package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCategoryEquivalent(t *testing.T) {
	groceries := Category{Base: Base{ID: "a"}, Name: "Groceries", Type: CategoryTypeExpense}

	tests := []struct {
		name  string
		other Category
		want  bool
	}{
		{"same_name_and_type_different_id", Category{Base: Base{ID: "b"}, Name: "Groceries", Type: CategoryTypeExpense}, true},
		{"different_type", Category{Base: Base{ID: "a"}, Name: "Groceries", Type: CategoryTypeIncome}, false},
		{"different_name", Category{Base: Base{ID: "a"}, Name: "Food", Type: CategoryTypeExpense}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := groceries.Equivalent(tt.other); got != tt.want {
				t.Errorf("Equivalent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategoryIsReserved(t *testing.T) {
	tests := []struct {
		name string
		cat  Category
		want bool
	}{
		{"all_income", Category{Name: ReservedIncomeName, Type: CategoryTypeIncome}, true},
		{"all_expenses", Category{Name: ReservedExpenseName, Type: CategoryTypeExpense}, true},
		{"income_name_with_expense_type", Category{Name: ReservedIncomeName, Type: CategoryTypeExpense}, false},
		{"user_defined", Category{Name: "Salary", Type: CategoryTypeIncome}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cat.IsReserved(); got != tt.want {
				t.Errorf("IsReserved() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseCategoryType(t *testing.T) {
	if got, ok := ParseCategoryType(" Income "); !ok || got != CategoryTypeIncome {
		t.Errorf("expected income, got %q (ok=%v)", got, ok)
	}
	if _, ok := ParseCategoryType("transfer"); ok {
		t.Error("expected transfer to be rejected")
	}
}

func TestTransactionEquivalent(t *testing.T) {
	food := &Category{Base: Base{ID: "c1"}, Name: "Food", Type: CategoryTypeExpense}
	foodCopy := &Category{Base: Base{ID: "c2"}, Name: "Food", Type: CategoryTypeExpense}
	salary := &Category{Base: Base{ID: "c3"}, Name: "Salary", Type: CategoryTypeIncome}

	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	base := Transaction{Base: Base{ID: "t1"}, Name: "Lunch", Date: day, Amount: decimal.RequireFromString("10.00"), Category: food}

	tests := []struct {
		name  string
		other Transaction
		want  bool
	}{
		{"ignores_id_and_name", Transaction{Base: Base{ID: "t2"}, Name: "Other", Date: day, Amount: decimal.RequireFromString("10"), Category: foodCopy}, true},
		{"same_day_different_clock", Transaction{Date: day.Add(13 * time.Hour), Amount: decimal.RequireFromString("10.00"), Category: food}, true},
		{"different_amount", Transaction{Date: day, Amount: decimal.RequireFromString("10.01"), Category: food}, false},
		{"different_date", Transaction{Date: day.AddDate(0, 0, 1), Amount: decimal.RequireFromString("10.00"), Category: food}, false},
		{"different_category", Transaction{Date: day, Amount: decimal.RequireFromString("10.00"), Category: salary}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equivalent(tt.other); got != tt.want {
				t.Errorf("Equivalent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalendarDate(t *testing.T) {
	in := time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)
	got := CalendarDate(in)
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("CalendarDate() = %v, want %v", got, want)
	}
}
