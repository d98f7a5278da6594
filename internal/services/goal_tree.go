package services

import (
	"spendtree/internal/hierarchy"
	"spendtree/internal/models"
)

// GoalTreeAggregator sums expenses over category subtrees. It resolves
// category IDs against a snapshot of the user's paths and holds no other state.
type GoalTreeAggregator struct {
	paths map[string]string
}

// NewGoalTreeAggregator indexes the paths of categories.
func NewGoalTreeAggregator(categories []models.Category) *GoalTreeAggregator {
	paths := make(map[string]string, len(categories))
	for _, c := range categories {
		if !blank(c.Path) {
			paths[c.ID] = c.Path
		}
	}
	return &GoalTreeAggregator{paths: paths}
}

// PathOf returns the path of the expense's category. It reports false for
// uncategorized expenses and for categories with no resolvable path.
func (a *GoalTreeAggregator) PathOf(e models.Expense) (string, bool) {
	if e.CategoryID == nil {
		return "", false
	}
	p, ok := a.paths[*e.CategoryID]
	return p, ok
}

// InSubtree reports whether the expense is filed at rootPath or below it.
func (a *GoalTreeAggregator) InSubtree(rootPath string, e models.Expense) bool {
	p, ok := a.PathOf(e)
	return ok && hierarchy.IsDescendantOrSelf(rootPath, p)
}

// SubtreeSum adds up the debit amounts filed at rootPath or below it.
func (a *GoalTreeAggregator) SubtreeSum(rootPath string, expenses []models.Expense) int64 {
	var sum int64
	for _, e := range expenses {
		if e.Type == models.ExpenseTypeDebit && a.InSubtree(rootPath, e) {
			sum += e.Amount
		}
	}
	return sum
}
