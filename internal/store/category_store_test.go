package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"spendtree/internal/models"
	"spendtree/internal/testutil"
)

func TestCategoryStoreSave(t *testing.T) {
	ctx := context.Background()

	t.Run("computes_paths_from_parent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		s := NewCategoryStore(db)
		user := testutil.CreateTestUser(t, db)

		root, err := s.Save(ctx, &models.Category{UserID: user.ID, Name: "Food"})
		testutil.AssertNoError(t, err)
		if root.ID == "" || root.Path != "Food" {
			t.Fatalf("expected saved root with path Food, got %+v", root)
		}

		child, err := s.Save(ctx, &models.Category{UserID: user.ID, Name: "Market", ParentID: &root.ID})
		testutil.AssertNoError(t, err)
		if child.Path != "Food/Market" {
			t.Errorf("expected Food/Market, got %s", child.Path)
		}
		if child.NameKey != "market" || child.ParentKey != root.ID {
			t.Errorf("expected uniqueness keys to be filled, got %q/%q", child.NameKey, child.ParentKey)
		}
	})

	t.Run("unique_sibling_name_enforced_at_commit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		s := NewCategoryStore(db)
		user := testutil.CreateTestUser(t, db)

		_, err := s.Save(ctx, &models.Category{UserID: user.ID, Name: "Food"})
		testutil.AssertNoError(t, err)

		_, err = s.Save(ctx, &models.Category{UserID: user.ID, Name: "FOOD"})
		if !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for case-variant root, got %v", err)
		}
	})

	t.Run("same_name_allowed_for_other_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		s := NewCategoryStore(db)
		alice := testutil.CreateTestUser(t, db)
		bob := testutil.CreateTestUser(t, db)

		_, err := s.Save(ctx, &models.Category{UserID: alice.ID, Name: "Food"})
		testutil.AssertNoError(t, err)
		_, err = s.Save(ctx, &models.Category{UserID: bob.ID, Name: "Food"})
		testutil.AssertNoError(t, err)
	})
}

func TestCategoryStoreLookups(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	s := NewCategoryStore(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	food := testutil.CreateTestCategory(t, db, user.ID, "Food", nil)
	market := testutil.CreateTestCategory(t, db, user.ID, "Market", food)

	t.Run("exists_by_id_is_user_scoped", func(t *testing.T) {
		ok, err := s.ExistsByID(ctx, food.ID, user.ID)
		testutil.AssertNoError(t, err)
		if !ok {
			t.Error("expected category to exist for owner")
		}
		ok, err = s.ExistsByID(ctx, food.ID, other.ID)
		testutil.AssertNoError(t, err)
		if ok {
			t.Error("category must not be visible to another user")
		}
	})

	t.Run("find_path", func(t *testing.T) {
		path, ok, err := s.FindPath(ctx, market.ID, user.ID)
		testutil.AssertNoError(t, err)
		if !ok || path != "Food/Market" {
			t.Errorf("expected Food/Market, got %q (found=%v)", path, ok)
		}

		_, ok, err = s.FindPath(ctx, market.ID, other.ID)
		testutil.AssertNoError(t, err)
		if ok {
			t.Error("expected path to be absent for another user")
		}
	})

	t.Run("sibling_normalized", func(t *testing.T) {
		ok, err := s.ExistsSiblingNormalized(ctx, user.ID, &food.ID, "market")
		testutil.AssertNoError(t, err)
		if !ok {
			t.Error("expected sibling market under Food")
		}
		ok, err = s.ExistsSiblingNormalized(ctx, user.ID, nil, "market")
		testutil.AssertNoError(t, err)
		if ok {
			t.Error("market is not a root category")
		}
	})

	t.Run("has_children_and_exists_by_path", func(t *testing.T) {
		ok, err := s.HasChildren(ctx, food.ID, user.ID)
		testutil.AssertNoError(t, err)
		if !ok {
			t.Error("Food should have children")
		}
		ok, err = s.HasChildren(ctx, market.ID, user.ID)
		testutil.AssertNoError(t, err)
		if ok {
			t.Error("Market should be a leaf")
		}

		ok, err = s.ExistsByPath(ctx, user.ID, "Food/Market")
		testutil.AssertNoError(t, err)
		if !ok {
			t.Error("expected path Food/Market to exist")
		}
	})

	t.Run("find_by_id_not_found", func(t *testing.T) {
		_, err := s.FindByID(ctx, market.ID, other.ID)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestCategoryStoreUpdatePathPrefix(t *testing.T) {
	ctx := context.Background()

	t.Run("rewrites_only_descendants", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		s := NewCategoryStore(db)
		user := testutil.CreateTestUser(t, db)

		food := testutil.CreateTestCategory(t, db, user.ID, "Food", nil)
		market := testutil.CreateTestCategory(t, db, user.ID, "Market", food)
		testutil.CreateTestCategory(t, db, user.ID, "Fruit", market)
		testutil.CreateTestCategory(t, db, user.ID, "Foodstuff", nil)

		n, err := s.UpdatePathPrefix(ctx, user.ID, "Food/", "Meals/")
		testutil.AssertNoError(t, err)
		if n != 2 {
			t.Errorf("expected 2 rows rewritten, got %d", n)
		}
		testutil.AssertPaths(t, db, user.ID, "Food", "Meals/Market", "Meals/Market/Fruit", "Foodstuff")
	})

	t.Run("multibyte_prefix", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		s := NewCategoryStore(db)
		user := testutil.CreateTestUser(t, db)

		root := testutil.CreateTestCategory(t, db, user.ID, "Alimentação", nil)
		testutil.CreateTestCategory(t, db, user.ID, "Padaria", root)

		_, err := s.UpdatePathPrefix(ctx, user.ID, "Alimentação/", "Comida/")
		testutil.AssertNoError(t, err)
		testutil.AssertPaths(t, db, user.ID, "Alimentação", "Comida/Padaria")
	})

	t.Run("other_users_untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		s := NewCategoryStore(db)
		alice := testutil.CreateTestUser(t, db)
		bob := testutil.CreateTestUser(t, db)

		a := testutil.CreateTestCategory(t, db, alice.ID, "Food", nil)
		testutil.CreateTestCategory(t, db, alice.ID, "Market", a)
		b := testutil.CreateTestCategory(t, db, bob.ID, "Food", nil)
		testutil.CreateTestCategory(t, db, bob.ID, "Market", b)

		_, err := s.UpdatePathPrefix(ctx, alice.ID, "Food/", "Meals/")
		testutil.AssertNoError(t, err)
		testutil.AssertPaths(t, db, bob.ID, "Food", "Food/Market")
	})
}

func TestCategoryStoreAtomic(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	s := NewCategoryStore(db)
	user := testutil.CreateTestUser(t, db)

	food := testutil.CreateTestCategory(t, db, user.ID, "Food", nil)
	testutil.CreateTestCategory(t, db, user.ID, "Market", food)

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx CategoryStore) error {
		if err := tx.Rename(ctx, food.ID, user.ID, "Meals", "Meals"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	testutil.AssertPaths(t, db, user.ID, "Food", "Food/Market")

	err = s.Atomic(ctx, func(tx CategoryStore) error {
		if err := tx.Rename(ctx, food.ID, user.ID, "Meals", "Meals"); err != nil {
			return err
		}
		_, err := tx.UpdatePathPrefix(ctx, user.ID, "Food/", "Meals/")
		return err
	})
	testutil.AssertNoError(t, err)
	testutil.AssertPaths(t, db, user.ID, "Meals", "Meals/Market")
}

func TestCategoryStoreDeleteAndMove(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	s := NewCategoryStore(db)
	user := testutil.CreateTestUser(t, db)

	food := testutil.CreateTestCategory(t, db, user.ID, "Food", nil)
	bills := testutil.CreateTestCategory(t, db, user.ID, "Bills", nil)
	market := testutil.CreateTestCategory(t, db, user.ID, "Market", food)

	testutil.AssertNoError(t, s.Move(ctx, market.ID, user.ID, bills.ID, "Bills/Market"))
	moved, err := s.FindByID(ctx, market.ID, user.ID)
	testutil.AssertNoError(t, err)
	if moved.ParentID == nil || *moved.ParentID != bills.ID || moved.ParentKey != bills.ID {
		t.Errorf("expected parent %s after move, got %v / %q", bills.ID, moved.ParentID, moved.ParentKey)
	}

	testutil.AssertNoError(t, s.Delete(ctx, market.ID, user.ID))
	if err := s.Delete(ctx, market.ID, user.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}

	list, err := s.ListAllOrderedByPath(ctx, user.ID)
	testutil.AssertNoError(t, err)
	if len(list) != 2 || list[0].Path != "Bills" || list[1].Path != "Food" {
		t.Errorf("expected [Bills Food], got %v", list)
	}
}

func TestTranslate(t *testing.T) {
	t.Run("unique_violation", func(t *testing.T) {
		err := translate(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey))
		if !errors.Is(err, ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("foreign_key_violation", func(t *testing.T) {
		err := translate(fmt.Errorf("delete: %w", gorm.ErrForeignKeyViolated))
		if !errors.Is(err, ErrReferenced) {
			t.Errorf("expected ErrReferenced, got %v", err)
		}
	})

	t.Run("other_errors_pass_through", func(t *testing.T) {
		boom := errors.New("boom")
		if err := translate(boom); err != boom {
			t.Errorf("expected the original error, got %v", err)
		}
	})
}
