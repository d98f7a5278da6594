// Package store persists the category tree. Every operation is scoped by
// user ID; the tree is stored as (id, parent_id, path) rows and subtree moves
// are applied with a single prefix-rewriting UPDATE.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"spendtree/internal/hierarchy"
	"spendtree/internal/models"
)

var (
	// ErrDuplicate is returned when a write violates the sibling-name or path uniqueness index.
	ErrDuplicate = errors.New("store: duplicate category")
	// ErrNotFound is returned when a targeted row does not exist for the user.
	ErrNotFound = errors.New("store: category not found")
	// ErrReferenced is returned when a delete is refused by a row that still points at the category.
	ErrReferenced = errors.New("store: category still referenced")
)

// CategoryStore is the persistence capability the hierarchy engine depends on.
type CategoryStore interface {
	ExistsByID(ctx context.Context, id, userID string) (bool, error)
	Save(ctx context.Context, category *models.Category) (*models.Category, error)
	ExistsSiblingNormalized(ctx context.Context, userID string, parentID *string, normalizedName string) (bool, error)
	HasChildren(ctx context.Context, id, userID string) (bool, error)
	Delete(ctx context.Context, id, userID string) error
	// FindPath returns the stored path and false when the row is missing or its path is blank.
	FindPath(ctx context.Context, id, userID string) (string, bool, error)
	FindByID(ctx context.Context, id, userID string) (*models.Category, error)
	Rename(ctx context.Context, id, userID, newName, newPath string) error
	// UpdatePathPrefix rewrites oldPrefix to newPrefix on every path of the user
	// that starts with oldPrefix and returns the number of rows changed.
	UpdatePathPrefix(ctx context.Context, userID, oldPrefix, newPrefix string) (int64, error)
	ExistsByPath(ctx context.Context, userID, path string) (bool, error)
	Move(ctx context.Context, id, userID, newParentID, newPath string) error
	ListAllOrderedByPath(ctx context.Context, userID string) ([]models.Category, error)
	// Atomic runs fn against a store bound to a single database transaction.
	// The transaction commits only if fn returns nil.
	Atomic(ctx context.Context, fn func(tx CategoryStore) error) error
}

type categoryStore struct {
	db *gorm.DB
}

// NewCategoryStore creates a gorm-backed CategoryStore. The *gorm.DB should be
// opened with TranslateError so unique violations surface as ErrDuplicate
// and foreign-key violations as ErrReferenced.
func NewCategoryStore(db *gorm.DB) CategoryStore {
	return &categoryStore{db: db}
}

func (s *categoryStore) model(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Category{})
}

func (s *categoryStore) ExistsByID(ctx context.Context, id, userID string) (bool, error) {
	var count int64
	err := s.model(ctx).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error
	return count > 0, err
}

func (s *categoryStore) Save(ctx context.Context, category *models.Category) (*models.Category, error) {
	category.NameKey = hierarchy.NormalizeName(category.Name)
	category.ParentKey = parentKey(category.ParentID)

	if category.Path == "" {
		parentPath := ""
		if !category.IsRoot() {
			p, ok, err := s.FindPath(ctx, *category.ParentID, category.UserID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("%w: parent %s", ErrNotFound, *category.ParentID)
			}
			parentPath = p
		}
		category.Path = hierarchy.ChildPath(parentPath, category.Name)
	}

	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, translate(err)
	}
	return category, nil
}

func (s *categoryStore) ExistsSiblingNormalized(ctx context.Context, userID string, parentID *string, normalizedName string) (bool, error) {
	var count int64
	err := s.model(ctx).
		Where("user_id = ? AND parent_key = ? AND name_key = ?", userID, parentKey(parentID), normalizedName).
		Count(&count).Error
	return count > 0, err
}

func (s *categoryStore) HasChildren(ctx context.Context, id, userID string) (bool, error) {
	var count int64
	err := s.model(ctx).Where("user_id = ? AND parent_id = ?", userID, id).Count(&count).Error
	return count > 0, err
}

func (s *categoryStore) Delete(ctx context.Context, id, userID string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Category{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *categoryStore) FindPath(ctx context.Context, id, userID string) (string, bool, error) {
	var paths []string
	if err := s.model(ctx).Where("id = ? AND user_id = ?", id, userID).Limit(1).Pluck("path", &paths).Error; err != nil {
		return "", false, err
	}
	if len(paths) == 0 || strings.TrimSpace(paths[0]) == "" {
		return "", false, nil
	}
	return paths[0], true, nil
}

func (s *categoryStore) FindByID(ctx context.Context, id, userID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (s *categoryStore) Rename(ctx context.Context, id, userID, newName, newPath string) error {
	res := s.model(ctx).Where("id = ? AND user_id = ?", id, userID).Updates(map[string]interface{}{
		"name":     newName,
		"name_key": hierarchy.NormalizeName(newName),
		"path":     newPath,
	})
	return affected(res)
}

func (s *categoryStore) UpdatePathPrefix(ctx context.Context, userID, oldPrefix, newPrefix string) (int64, error) {
	n := hierarchy.RuneLen(oldPrefix)
	res := s.model(ctx).
		Where("user_id = ? AND SUBSTR(path, 1, ?) = ?", userID, n, oldPrefix).
		Update("path", gorm.Expr("CAST(? AS TEXT) || SUBSTR(path, ?)", newPrefix, n+1))
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

func (s *categoryStore) ExistsByPath(ctx context.Context, userID, path string) (bool, error) {
	var count int64
	err := s.model(ctx).Where("user_id = ? AND path = ?", userID, path).Count(&count).Error
	return count > 0, err
}

func (s *categoryStore) Move(ctx context.Context, id, userID, newParentID, newPath string) error {
	res := s.model(ctx).Where("id = ? AND user_id = ?", id, userID).Updates(map[string]interface{}{
		"parent_id":  newParentID,
		"parent_key": newParentID,
		"path":       newPath,
	})
	return affected(res)
}

func (s *categoryStore) ListAllOrderedByPath(ctx context.Context, userID string) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("path ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *categoryStore) Atomic(ctx context.Context, fn func(tx CategoryStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&categoryStore{db: tx})
	})
}

func parentKey(parentID *string) string {
	if parentID == nil {
		return ""
	}
	return *parentID
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrReferenced, err)
	default:
		return err
	}
}
