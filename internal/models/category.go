package models

import "strings"

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Names of the per-user catch-all categories. Every user owns exactly one of
// each, created on first access.
const (
	ReservedIncomeName  = "All Income"
	ReservedExpenseName = "All Expenses"
)

// CategoryTypes lists the supported category types in display order.
var CategoryTypes = []CategoryType{CategoryTypeIncome, CategoryTypeExpense}

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// ParseCategoryType accepts "income"/"expense" in any case.
func ParseCategoryType(s string) (CategoryType, bool) {
	t := CategoryType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// ReservedName returns the catch-all category name for the type.
func (t CategoryType) ReservedName() string {
	if t == CategoryTypeIncome {
		return ReservedIncomeName
	}
	return ReservedExpenseName
}

// Category represents a transaction category
type Category struct {
	Base
	UserID string       `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string       `gorm:"not null" json:"name"`
	Type   CategoryType `gorm:"not null" json:"type"`

	// Relationships
	User         *User         `gorm:"foreignKey:UserID" json:"-"`
	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
}

// Equivalent reports logical equality: two categories with the same name and
// type are the same category regardless of id.
func (c Category) Equivalent(other Category) bool {
	return c.Name == other.Name && c.Type == other.Type
}

// IsReserved reports whether c is the catch-all category of its type.
func (c Category) IsReserved() bool {
	return c.Type.Valid() && c.Name == c.Type.ReservedName()
}
