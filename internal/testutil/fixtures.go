package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"spendtree/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory inserts a category row directly, deriving its path from
// parent. Pass a nil parent for a root category.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID, name string, parent *models.Category) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:  userID,
		Name:    name,
		NameKey: strings.ToLower(strings.TrimSpace(name)),
		Path:    name,
	}
	if parent != nil {
		parentID := parent.ID
		category.ParentID = &parentID
		category.ParentKey = parentID
		category.Path = parent.Path + "/" + name
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category %q: %v", name, err)
	}
	return category
}

// CreateTestExpense creates an expense of the given type and amount (in cents).
func CreateTestExpense(t *testing.T, db *gorm.DB, userID string, categoryID *string, expenseType models.ExpenseType, amount int64, occurredAt time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:      userID,
		Amount:      amount,
		Type:        expenseType,
		Description: fmt.Sprintf("Test Expense %d", nextID()),
		OccurredAt:  occurredAt,
		CategoryID:  categoryID,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestGoal creates a monthly goal for the category.
func CreateTestGoal(t *testing.T, db *gorm.DB, userID, categoryID, month string, limit int64) *models.Goal {
	t.Helper()

	goal := &models.Goal{
		UserID:      userID,
		CategoryID:  categoryID,
		Month:       month,
		LimitAmount: limit,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// TimeAt returns a UTC timestamp, shortening fixture call sites.
func TimeAt(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}
