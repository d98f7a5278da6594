package testutil

import (
	"errors"
	"slices"
	"sort"
	"testing"

	apperrors "spendtree/internal/errors"
	"spendtree/internal/models"

	"gorm.io/gorm"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// CategoryPaths returns every stored path of the user, sorted bytewise.
func CategoryPaths(t *testing.T, db *gorm.DB, userID string) []string {
	t.Helper()

	var paths []string
	if err := db.Model(&models.Category{}).Where("user_id = ?", userID).Pluck("path", &paths).Error; err != nil {
		t.Fatalf("failed to load category paths: %v", err)
	}
	sort.Strings(paths)
	return paths
}

// AssertPaths checks that the user's stored paths are exactly want, in any order.
func AssertPaths(t *testing.T, db *gorm.DB, userID string, want ...string) {
	t.Helper()

	got := CategoryPaths(t, db, userID)
	expected := slices.Clone(want)
	sort.Strings(expected)
	if !slices.Equal(got, expected) {
		t.Errorf("expected paths %v, got %v", expected, got)
	}
}

// AssertPathConsistency checks that every category's path equals its parent's
// path plus its own name, or just its name for roots.
func AssertPathConsistency(t *testing.T, db *gorm.DB, userID string) {
	t.Helper()

	var categories []models.Category
	if err := db.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		t.Fatalf("failed to load categories: %v", err)
	}

	byID := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	for _, c := range categories {
		want := c.Name
		if c.ParentID != nil {
			parent, ok := byID[*c.ParentID]
			if !ok {
				t.Errorf("category %s references missing parent %s", c.Path, *c.ParentID)
				continue
			}
			want = parent.Path + "/" + c.Name
		}
		if c.Path != want {
			t.Errorf("category %s: expected path %q, got %q", c.ID, want, c.Path)
		}
	}
}
