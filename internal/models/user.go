package models

// User owns categories and, through them, transactions.
type User struct {
	Base
	Username   string     `gorm:"uniqueIndex;size:20;not null" json:"username"`
	Email      string     `gorm:"uniqueIndex;not null" json:"email"`
	Password   string     `gorm:"not null" json:"-"`
	Categories []Category `gorm:"foreignKey:UserID" json:"categories,omitempty"`
}
