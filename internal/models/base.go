// Package models holds the gorm entities of the ledger: users, their
// categories, the transactions filed under those categories and the audit
// trail of API mutations.
package models

import (
	"time"

	"finledger/internal/uuid"

	"gorm.io/gorm"
)

// Base contains the surrogate key and bookkeeping columns shared by all tables.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUIDv7 to rows that do not carry an id yet.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
