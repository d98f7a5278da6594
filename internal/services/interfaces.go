package services

import (
	"context"
	"time"

	"spendtree/internal/models"
	"spendtree/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
}

// CategoryNode is one entry of a tree-ordered category listing.
type CategoryNode struct {
	models.Category
	Depth int `json:"depth"`
}

// CategoryServicer defines the contract for the category tree. Every
// operation is scoped to userID.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, userID, name string, parentID *string) (*models.Category, error)
	GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
	RenameCategory(ctx context.Context, userID, categoryID, newName string) (*models.Category, error)
	MoveCategory(ctx context.Context, userID, categoryID, newParentID string) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
	ListOrdered(ctx context.Context, userID string) ([]CategoryNode, error)
}

// ExpenseUsageChecker reports whether any expense references a category.
type ExpenseUsageChecker interface {
	IsCategoryInUse(ctx context.Context, userID, categoryID string) (bool, error)
}

// ExpenseFilter holds optional filter parameters for listing expenses.
type ExpenseFilter struct {
	From       *time.Time
	To         *time.Time
	Type       *models.ExpenseType
	CategoryID *string
}

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	CreateExpense(ctx context.Context, userID string, amount int64, expenseType models.ExpenseType, description string, occurredAt time.Time, categoryID *string) (*models.Expense, error)
	GetUserExpenses(ctx context.Context, userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error)
	GetExpenseByID(ctx context.Context, userID, expenseID string) (*models.Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID string) error
}

// GoalEvaluation compares a monthly goal with what was spent in its subtree.
// Diff is Spent minus Limit when the goal is exceeded and zero otherwise.
type GoalEvaluation struct {
	GoalID       string `json:"goal_id"`
	CategoryID   string `json:"category_id"`
	CategoryPath string `json:"category_path"`
	Month        string `json:"month"`
	Limit        int64  `json:"limit"`
	Spent        int64  `json:"spent"`
	Exceeded     bool   `json:"exceeded"`
	Diff         int64  `json:"diff"`
}

// GoalServicer defines the contract for monthly spending goals.
type GoalServicer interface {
	CreateGoal(ctx context.Context, userID, categoryID, month string, limitAmount int64) (*models.Goal, error)
	GetUserGoals(ctx context.Context, userID string, month *string) ([]models.Goal, error)
	EvaluateMonthly(ctx context.Context, userID, categoryID, month string) (*GoalEvaluation, error)
}

// ReportItem holds the totals of one category path.
type ReportItem struct {
	Path   string `json:"path"`
	Debit  int64  `json:"debit"`
	Credit int64  `json:"credit"`
}

// Report aggregates a user's expenses over [Start, End].
type Report struct {
	Start       time.Time    `json:"start"`
	End         time.Time    `json:"end"`
	TotalDebit  int64        `json:"total_debit"`
	TotalCredit int64        `json:"total_credit"`
	Balance     int64        `json:"balance"`
	Items       []ReportItem `json:"items"`
}

// ReportServicer defines the contract for period reports.
type ReportServicer interface {
	Generate(ctx context.Context, userID string, start, end time.Time) (*Report, error)
	GenerateForCategoryTree(ctx context.Context, userID string, start, end time.Time, rootCategoryID string) (*Report, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
