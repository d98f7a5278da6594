package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "spendtree/internal/errors"
	"spendtree/internal/hierarchy"
	"spendtree/internal/models"
	"spendtree/internal/store"
)

// UncategorizedPath groups expenses filed without a category.
const UncategorizedPath = "Uncategorized"

// reportService aggregates expenses per category path.
type reportService struct {
	db         *gorm.DB
	categories store.CategoryStore
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB, categories store.CategoryStore) ReportServicer {
	return &reportService{db: db, categories: categories}
}

// Generate totals every expense between start and end, both inclusive,
// grouped by category path. Expenses whose category no longer resolves are left out.
func (s *reportService) Generate(ctx context.Context, userID string, start, end time.Time) (*Report, error) {
	if blank(userID) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user id is required")
	}
	if err := checkPeriod(start, end); err != nil {
		return nil, err
	}

	expenses, agg, err := loadSnapshot(ctx, s.categories, userID, s.between(userID, start, end))
	if err != nil {
		return nil, err
	}

	b := newReportBuilder(start, end)
	for _, e := range expenses {
		if e.CategoryID == nil {
			b.add(UncategorizedPath, e)
			continue
		}
		if path, ok := agg.PathOf(e); ok {
			b.add(path, e)
		}
	}
	return b.build(), nil
}

// GenerateForCategoryTree is Generate restricted to the subtree rooted at rootCategoryID.
func (s *reportService) GenerateForCategoryTree(ctx context.Context, userID string, start, end time.Time, rootCategoryID string) (*Report, error) {
	if blank(userID) || blank(rootCategoryID) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user id and root category id are required")
	}
	if err := checkPeriod(start, end); err != nil {
		return nil, err
	}

	rootPath, ok, err := s.categories.FindPath(ctx, rootCategoryID, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !ok {
		return nil, apperrors.ErrCategoryNotFound
	}

	expenses, agg, err := loadSnapshot(ctx, s.categories, userID, s.between(userID, start, end))
	if err != nil {
		return nil, err
	}

	b := newReportBuilder(start, end)
	for _, e := range expenses {
		path, ok := agg.PathOf(e)
		if ok && hierarchy.IsDescendantOrSelf(rootPath, path) {
			b.add(path, e)
		}
	}
	return b.build(), nil
}

func (s *reportService) between(userID string, start, end time.Time) func(ctx context.Context) ([]models.Expense, error) {
	return func(ctx context.Context) ([]models.Expense, error) {
		var expenses []models.Expense
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND occurred_at >= ? AND occurred_at <= ?", userID, start.UTC(), end.UTC()).
			Order("occurred_at ASC").
			Find(&expenses).Error
		return expenses, err
	}
}

func checkPeriod(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "start and end are required")
	}
	if start.After(end) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "start must not be after end")
	}
	return nil
}

type reportBuilder struct {
	report *Report
	items  map[string]*ReportItem
}

func newReportBuilder(start, end time.Time) *reportBuilder {
	return &reportBuilder{
		report: &Report{Start: start.UTC(), End: end.UTC()},
		items:  make(map[string]*ReportItem),
	}
}

func (b *reportBuilder) add(path string, e models.Expense) {
	item, ok := b.items[path]
	if !ok {
		item = &ReportItem{Path: path}
		b.items[path] = item
	}
	switch e.Type {
	case models.ExpenseTypeDebit:
		item.Debit += e.Amount
		b.report.TotalDebit += e.Amount
	case models.ExpenseTypeCredit:
		item.Credit += e.Amount
		b.report.TotalCredit += e.Amount
	}
}

func (b *reportBuilder) build() *Report {
	items := make([]ReportItem, 0, len(b.items))
	for _, item := range b.items {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		li, lj := strings.ToLower(items[i].Path), strings.ToLower(items[j].Path)
		if li != lj {
			return li < lj
		}
		return items[i].Path < items[j].Path
	})
	b.report.Items = items
	b.report.Balance = b.report.TotalCredit - b.report.TotalDebit
	return b.report
}
