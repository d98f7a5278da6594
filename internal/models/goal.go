package models

// Goal is a monthly spending limit for a category subtree.
// Month is formatted "YYYY-MM"; LimitAmount is in cents.
type Goal struct {
	Base
	UserID      string `gorm:"type:uuid;not null;uniqueIndex:idx_goals_user_category_month,priority:1" json:"user_id"`
	CategoryID  string `gorm:"type:uuid;not null;uniqueIndex:idx_goals_user_category_month,priority:2" json:"category_id"`
	Month       string `gorm:"size:7;not null;uniqueIndex:idx_goals_user_category_month,priority:3" json:"month"`
	LimitAmount int64  `gorm:"type:bigint;not null" json:"limit_amount"`

	// Category only declares the foreign key; goals go away with their category.
	Category *Category `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
