package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	apperrors "spendtree/internal/errors"
	"spendtree/internal/models"
	"spendtree/internal/store"
)

// MonthLayout is the format of goal months.
const MonthLayout = "2006-01"

// goalService handles monthly spending goals.
type goalService struct {
	db         *gorm.DB
	categories store.CategoryStore
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB, categories store.CategoryStore) GoalServicer {
	return &goalService{db: db, categories: categories}
}

// ParseMonth parses a "YYYY-MM" month into the UTC instant it starts at.
func ParseMonth(month string) (time.Time, error) {
	start, err := time.ParseInLocation(MonthLayout, month, time.UTC)
	if err != nil {
		return time.Time{}, apperrors.WrapWithMessage(apperrors.ErrInvalidInput, "month must be formatted YYYY-MM", err)
	}
	return start, nil
}

// CreateGoal sets the spending limit of a category subtree for one month.
func (s *goalService) CreateGoal(ctx context.Context, userID, categoryID, month string, limitAmount int64) (*models.Goal, error) {
	if blank(userID) || blank(categoryID) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user id and category id are required")
	}
	if _, err := ParseMonth(month); err != nil {
		return nil, err
	}
	if limitAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must be greater than zero")
	}

	exists, err := s.categories.ExistsByID(ctx, categoryID, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !exists {
		return nil, apperrors.ErrCategoryNotFound
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Goal{}).
		Where("user_id = ? AND category_id = ? AND month = ?", userID, categoryID, month).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateGoal
	}

	goal := &models.Goal{
		UserID:      userID,
		CategoryID:  categoryID,
		Month:       month,
		LimitAmount: limitAmount,
	}
	if err := s.db.WithContext(ctx).Create(goal).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Wrap(apperrors.ErrDuplicateGoal, err)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// GetUserGoals lists the user's goals, optionally for a single month.
func (s *goalService) GetUserGoals(ctx context.Context, userID string, month *string) ([]models.Goal, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if month != nil {
		if _, err := ParseMonth(*month); err != nil {
			return nil, err
		}
		q = q.Where("month = ?", *month)
	}

	goals := []models.Goal{}
	if err := q.Order("month DESC").Order("created_at ASC").Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goals, nil
}

// EvaluateMonthly compares a goal's limit with the debits filed anywhere in
// its category subtree during the goal's month, in UTC.
func (s *goalService) EvaluateMonthly(ctx context.Context, userID, categoryID, month string) (*GoalEvaluation, error) {
	if blank(userID) || blank(categoryID) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user id and category id are required")
	}
	start, err := ParseMonth(month)
	if err != nil {
		return nil, err
	}

	var goal models.Goal
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND category_id = ? AND month = ?", userID, categoryID, month).
		First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	rootPath, ok, err := s.categories.FindPath(ctx, categoryID, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !ok {
		return nil, apperrors.ErrCategoryNotFound
	}

	end := start.AddDate(0, 1, 0)
	expenses, agg, err := loadSnapshot(ctx, s.categories, userID, func(ctx context.Context) ([]models.Expense, error) {
		return loadPeriod(ctx, s.db, userID, start, end)
	})
	if err != nil {
		return nil, err
	}

	spent := agg.SubtreeSum(rootPath, expenses)
	eval := &GoalEvaluation{
		GoalID:       goal.ID,
		CategoryID:   categoryID,
		CategoryPath: rootPath,
		Month:        month,
		Limit:        goal.LimitAmount,
		Spent:        spent,
		Exceeded:     spent > goal.LimitAmount,
	}
	if eval.Exceeded {
		eval.Diff = spent - goal.LimitAmount
	}
	return eval, nil
}

// loadSnapshot fetches expenses and the user's category paths concurrently.
func loadSnapshot(
	ctx context.Context,
	categories store.CategoryStore,
	userID string,
	loadExpenses func(ctx context.Context) ([]models.Expense, error),
) ([]models.Expense, *GoalTreeAggregator, error) {
	var (
		expenses []models.Expense
		nodes    []models.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = loadExpenses(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		nodes, err = categories.ListAllOrderedByPath(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expenses, NewGoalTreeAggregator(nodes), nil
}
