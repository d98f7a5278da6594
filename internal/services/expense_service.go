package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	apperrors "spendtree/internal/errors"
	"spendtree/internal/models"
	"spendtree/internal/pagination"
)

// MaxDescriptionLength bounds expense descriptions, in characters.
const MaxDescriptionLength = 120

// expenseService handles expense-related business logic.
type expenseService struct {
	db *gorm.DB
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB) ExpenseServicer {
	return &expenseService{db: db}
}

// CreateExpense records a debit or credit, optionally filed under a category.
func (s *expenseService) CreateExpense(
	ctx context.Context,
	userID string,
	amount int64,
	expenseType models.ExpenseType,
	description string,
	occurredAt time.Time,
	categoryID *string,
) (*models.Expense, error) {
	if blank(userID) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user id is required")
	}
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if expenseType != models.ExpenseTypeDebit && expenseType != models.ExpenseTypeCredit {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be debit or credit")
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description must be at most 120 characters")
	}

	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	if categoryID != nil && blank(*categoryID) {
		categoryID = nil
	}
	if categoryID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Category{}).
			Where("id = ? AND user_id = ?", *categoryID, userID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return nil, apperrors.ErrCategoryNotFound
		}
	}

	expense := &models.Expense{
		UserID:      userID,
		Amount:      amount,
		Type:        expenseType,
		Description: description,
		OccurredAt:  occurredAt.UTC(),
		CategoryID:  categoryID,
	}
	if err := s.db.WithContext(ctx).Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expense, nil
}

// GetUserExpenses retrieves a paginated, filtered list of expenses, newest first.
func (s *expenseService) GetUserExpenses(ctx context.Context, userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	var totalItems int64
	if err := s.filtered(ctx, userID, filter).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := s.filtered(ctx, userID, filter).
		Scopes(pagination.Paginate(page)).
		Order("occurred_at DESC").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *expenseService) filtered(ctx context.Context, userID string, f ExpenseFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Expense{}).Where("user_id = ?", userID)
	if f.From != nil {
		q = q.Where("occurred_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("occurred_at <= ?", f.To.UTC())
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	return q
}

// GetExpenseByID retrieves an expense by ID for a specific user.
func (s *expenseService) GetExpenseByID(ctx context.Context, userID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// DeleteExpense permanently removes an expense.
func (s *expenseService) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", expenseID, userID).Delete(&models.Expense{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrExpenseNotFound
	}
	return nil
}

// loadPeriod returns the user's expenses with from <= occurred_at < until.
func loadPeriod(ctx context.Context, db *gorm.DB, userID string, from, until time.Time) ([]models.Expense, error) {
	var expenses []models.Expense
	err := db.WithContext(ctx).
		Where("user_id = ? AND occurred_at >= ? AND occurred_at < ?", userID, from.UTC(), until.UTC()).
		Order("occurred_at ASC").
		Find(&expenses).Error
	return expenses, err
}

type expenseUsageGuard struct {
	db *gorm.DB
}

// NewExpenseUsageGuard returns the ExpenseUsageChecker that blocks deleting
// categories referenced by at least one expense.
func NewExpenseUsageGuard(db *gorm.DB) ExpenseUsageChecker {
	return &expenseUsageGuard{db: db}
}

func (g *expenseUsageGuard) IsCategoryInUse(ctx context.Context, userID, categoryID string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&models.Expense{}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Count(&count).Error
	return count > 0, err
}

type skipUsageCheck struct{}

// SkipUsageCheck returns an ExpenseUsageChecker that never reports usage,
// allowing referenced categories to be deleted.
func SkipUsageCheck() ExpenseUsageChecker {
	return skipUsageCheck{}
}

func (skipUsageCheck) IsCategoryInUse(context.Context, string, string) (bool, error) {
	return false, nil
}
