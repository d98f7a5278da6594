package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"spendtree/internal/models"
	"spendtree/internal/pagination"
	"spendtree/internal/testutil"
)

func TestCreateExpense(t *testing.T) {
	ctx := context.Background()

	t.Run("valid_with_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db)
		user := testutil.CreateTestUser(t, db)
		food := testutil.CreateTestCategory(t, db, user.ID, "Food", nil)

		exp, err := svc.CreateExpense(ctx, user.ID, 4590, models.ExpenseTypeDebit, "  Groceries  ", testutil.TimeAt(2024, 5, 3), &food.ID)
		testutil.AssertNoError(t, err)
		if exp.Description != "Groceries" {
			t.Errorf("expected trimmed description, got %q", exp.Description)
		}
		if exp.CategoryID == nil || *exp.CategoryID != food.ID {
			t.Error("expected category to be set")
		}
	})

	t.Run("uncategorized", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db)
		user := testutil.CreateTestUser(t, db)

		exp, err := svc.CreateExpense(ctx, user.ID, 100000, models.ExpenseTypeCredit, "Salary", time.Time{}, nil)
		testutil.AssertNoError(t, err)
		if exp.CategoryID != nil {
			t.Error("expected no category")
		}
		if exp.OccurredAt.IsZero() {
			t.Error("expected occurred_at to default to now")
		}
	})

	t.Run("rejects_bad_input", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db)
		user := testutil.CreateTestUser(t, db)
		when := testutil.TimeAt(2024, 5, 3)

		_, err := svc.CreateExpense(ctx, user.ID, 0, models.ExpenseTypeDebit, "Zero", when, nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		_, err = svc.CreateExpense(ctx, user.ID, 100, models.ExpenseType("refund"), "Odd", when, nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		_, err = svc.CreateExpense(ctx, user.ID, 100, models.ExpenseTypeDebit, "   ", when, nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		_, err = svc.CreateExpense(ctx, user.ID, 100, models.ExpenseTypeDebit, strings.Repeat("x", 121), when, nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("category_of_other_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewExpenseService(db)
		alice := testutil.CreateTestUser(t, db)
		bob := testutil.CreateTestUser(t, db)
		food := testutil.CreateTestCategory(t, db, alice.ID, "Food", nil)

		_, err := svc.CreateExpense(ctx, bob.ID, 100, models.ExpenseTypeDebit, "Lunch", testutil.TimeAt(2024, 5, 3), &food.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestGetUserExpenses(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewExpenseService(db)
	user := testutil.CreateTestUser(t, db)
	food := testutil.CreateTestCategory(t, db, user.ID, "Food", nil)

	testutil.CreateTestExpense(t, db, user.ID, &food.ID, models.ExpenseTypeDebit, 100, testutil.TimeAt(2024, 4, 30))
	testutil.CreateTestExpense(t, db, user.ID, &food.ID, models.ExpenseTypeDebit, 200, testutil.TimeAt(2024, 5, 2))
	testutil.CreateTestExpense(t, db, user.ID, nil, models.ExpenseTypeCredit, 300, testutil.TimeAt(2024, 5, 10))

	t.Run("newest_first", func(t *testing.T) {
		res, err := svc.GetUserExpenses(ctx, user.ID, pagination.PageRequest{}, ExpenseFilter{})
		testutil.AssertNoError(t, err)
		if res.TotalItems != 3 || len(res.Data) != 3 {
			t.Fatalf("expected 3 expenses, got %d", res.TotalItems)
		}
		if res.Data[0].Amount != 300 {
			t.Errorf("expected newest first, got amount %d", res.Data[0].Amount)
		}
	})

	t.Run("filters", func(t *testing.T) {
		from := testutil.TimeAt(2024, 5, 1)
		res, err := svc.GetUserExpenses(ctx, user.ID, pagination.PageRequest{}, ExpenseFilter{From: &from, CategoryID: &food.ID})
		testutil.AssertNoError(t, err)
		if res.TotalItems != 1 || res.Data[0].Amount != 200 {
			t.Errorf("expected only the May Food expense, got %+v", res.Data)
		}

		credit := models.ExpenseTypeCredit
		res, err = svc.GetUserExpenses(ctx, user.ID, pagination.PageRequest{}, ExpenseFilter{Type: &credit})
		testutil.AssertNoError(t, err)
		if res.TotalItems != 1 {
			t.Errorf("expected 1 credit, got %d", res.TotalItems)
		}
	})

	t.Run("paginates", func(t *testing.T) {
		res, err := svc.GetUserExpenses(ctx, user.ID, pagination.PageRequest{Page: 2, PageSize: 2}, ExpenseFilter{})
		testutil.AssertNoError(t, err)
		if len(res.Data) != 1 || res.TotalPages != 2 {
			t.Errorf("expected 1 item on page 2 of 2, got %d items of %d pages", len(res.Data), res.TotalPages)
		}
	})
}

func TestDeleteExpense(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewExpenseService(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	exp := testutil.CreateTestExpense(t, db, user.ID, nil, models.ExpenseTypeDebit, 100, testutil.TimeAt(2024, 5, 1))

	err := svc.DeleteExpense(ctx, other.ID, exp.ID)
	testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")

	testutil.AssertNoError(t, svc.DeleteExpense(ctx, user.ID, exp.ID))

	_, err = svc.GetExpenseByID(ctx, user.ID, exp.ID)
	testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
}

func TestExpenseUsageGuard(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	user := testutil.CreateTestUser(t, db)
	food := testutil.CreateTestCategory(t, db, user.ID, "Food", nil)
	bills := testutil.CreateTestCategory(t, db, user.ID, "Bills", nil)
	testutil.CreateTestExpense(t, db, user.ID, &food.ID, models.ExpenseTypeDebit, 100, testutil.TimeAt(2024, 5, 1))

	guard := NewExpenseUsageGuard(db)

	inUse, err := guard.IsCategoryInUse(ctx, user.ID, food.ID)
	testutil.AssertNoError(t, err)
	if !inUse {
		t.Error("expected Food to be in use")
	}

	inUse, err = guard.IsCategoryInUse(ctx, user.ID, bills.ID)
	testutil.AssertNoError(t, err)
	if inUse {
		t.Error("expected Bills to be unused")
	}

	inUse, err = SkipUsageCheck().IsCategoryInUse(ctx, user.ID, food.ID)
	testutil.AssertNoError(t, err)
	if inUse {
		t.Error("skipped check must never report usage")
	}
}
