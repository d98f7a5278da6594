package models

import "time"

// ExpenseType distinguishes money going out from money coming in.
type ExpenseType string

const (
	ExpenseTypeDebit  ExpenseType = "debit"
	ExpenseTypeCredit ExpenseType = "credit"
)

// Expense is a single ledger entry, optionally filed under a category.
// Amount is stored in cents.
type Expense struct {
	Base
	UserID      string      `gorm:"type:uuid;not null;index:idx_expenses_user_occurred,priority:1" json:"user_id"`
	Amount      int64       `gorm:"type:bigint;not null" json:"amount"`
	Type        ExpenseType `gorm:"size:10;not null" json:"type"`
	Description string      `gorm:"size:120;not null" json:"description"`
	OccurredAt  time.Time   `gorm:"not null;index:idx_expenses_user_occurred,priority:2" json:"occurred_at"`
	CategoryID  *string     `gorm:"type:uuid;index" json:"category_id,omitempty"`
}
