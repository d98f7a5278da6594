package services

import (
	"context"
	"errors"
	"slices"
	"strings"

	"spendtree/internal/cache"
	apperrors "spendtree/internal/errors"
	"spendtree/internal/hierarchy"
	"spendtree/internal/logger"
	"spendtree/internal/models"
	"spendtree/internal/store"
)

// categoryService maintains each user's category tree. The tree lives only
// in the store as (id, parent_id, path) rows; renames and moves rewrite the
// node and its descendants' paths inside one store transaction.
type categoryService struct {
	store store.CategoryStore
	usage ExpenseUsageChecker
	rules hierarchy.Rules
	trees cache.TreeCache
}

// NewCategoryService creates a new CategoryServicer.
//
// usage is required; pass SkipUsageCheck() to allow deleting categories that
// expenses still reference. A nil trees disables listing cache.
func NewCategoryService(categories store.CategoryStore, usage ExpenseUsageChecker, rules hierarchy.Rules, trees cache.TreeCache) CategoryServicer {
	if usage == nil {
		panic("services: NewCategoryService requires an ExpenseUsageChecker, use SkipUsageCheck() to opt out")
	}
	if trees == nil {
		trees = cache.NewNoopTreeCache()
	}
	return &categoryService{
		store: categories,
		usage: usage,
		rules: rules.Normalize(),
		trees: trees,
	}
}

// CreateCategory creates a root category, or a child of parentID when given.
func (s *categoryService) CreateCategory(ctx context.Context, userID, name string, parentID *string) (*models.Category, error) {
	if blank(userID) || blank(name) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user id and name are required")
	}

	name, err := s.rules.ValidateName(name)
	if err != nil {
		return nil, err
	}

	if parentID != nil && blank(*parentID) {
		parentID = nil
	}

	if parentID != nil {
		exists, err := s.store.ExistsByID(ctx, *parentID, userID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if !exists {
			return nil, apperrors.ErrParentCategoryNotFound
		}
	}

	dup, err := s.store.ExistsSiblingNormalized(ctx, userID, parentID, hierarchy.NormalizeName(name))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if dup {
		return nil, apperrors.ErrDuplicateCategory
	}

	path := name
	if parentID != nil {
		parentPath, ok, err := s.store.FindPath(ctx, *parentID, userID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if !ok {
			return nil, apperrors.WithMessage(apperrors.ErrInconsistentState, "parent category has no stored path")
		}
		path = hierarchy.ChildPath(parentPath, name)
		if s.rules.ExceedsDepth(path) {
			return nil, apperrors.ErrMaxDepthExceeded
		}
	}

	category, err := s.store.Save(ctx, &models.Category{
		UserID:   userID,
		Name:     name,
		ParentID: parentID,
		Path:     path,
	})
	if err != nil {
		return nil, categoryStoreError(err)
	}

	s.invalidate(ctx, userID)
	logger.Get().Infow("category created",
		"user_id", userID,
		"category_id", category.ID,
		"path", category.Path,
	)
	return category, nil
}

// GetCategoryByID retrieves a category by ID for a specific user.
func (s *categoryService) GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	if blank(userID) || blank(categoryID) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user id and category id are required")
	}
	category, err := s.store.FindByID(ctx, categoryID, userID)
	if err != nil {
		return nil, categoryStoreError(err)
	}
	return category, nil
}

// DeleteCategory permanently removes a leaf category that no expense references.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	if blank(userID) || blank(categoryID) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "user id and category id are required")
	}

	hasChildren, err := s.store.HasChildren(ctx, categoryID, userID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if hasChildren {
		return apperrors.ErrCategoryHasChildren
	}

	inUse, err := s.usage.IsCategoryInUse(ctx, userID, categoryID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse {
		return apperrors.ErrCategoryInUse
	}

	if err := s.store.Delete(ctx, categoryID, userID); err != nil {
		return categoryStoreError(err)
	}

	s.invalidate(ctx, userID)
	logger.Get().Infow("category deleted", "user_id", userID, "category_id", categoryID)
	return nil
}

// RenameCategory renames a category and rewrites the paths of its subtree.
func (s *categoryService) RenameCategory(ctx context.Context, userID, categoryID, newName string) (*models.Category, error) {
	if blank(userID) || blank(categoryID) || blank(newName) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user id, category id and name are required")
	}

	newName, err := s.rules.ValidateName(newName)
	if err != nil {
		return nil, err
	}

	oldPath, err := s.currentPath(ctx, categoryID, userID)
	if err != nil {
		return nil, err
	}

	newPath := hierarchy.PrefixOf(oldPath) + newName
	if newPath != oldPath {
		taken, err := s.store.ExistsByPath(ctx, userID, newPath)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if taken {
			return nil, apperrors.ErrPathConflict
		}
	}

	var cascaded int64
	err = s.store.Atomic(ctx, func(tx store.CategoryStore) error {
		if err := tx.Rename(ctx, categoryID, userID, newName, newPath); err != nil {
			return categoryStoreError(err)
		}
		n, err := tx.UpdatePathPrefix(ctx, userID, oldPath+hierarchy.Separator, newPath+hierarchy.Separator)
		if err != nil {
			return categoryStoreError(err)
		}
		cascaded = n
		return nil
	})
	if err != nil {
		return nil, categoryStoreError(err)
	}

	s.invalidate(ctx, userID)
	logger.Get().Infow("category renamed",
		"user_id", userID,
		"category_id", categoryID,
		"old_path", oldPath,
		"new_path", newPath,
		"descendants", cascaded,
	)
	return s.GetCategoryByID(ctx, userID, categoryID)
}

// MoveCategory re-parents a category under newParentID and rewrites the
// paths of its subtree.
func (s *categoryService) MoveCategory(ctx context.Context, userID, categoryID, newParentID string) (*models.Category, error) {
	if blank(userID) || blank(categoryID) || blank(newParentID) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user id, category id and new parent id are required")
	}

	oldPath, err := s.currentPath(ctx, categoryID, userID)
	if err != nil {
		return nil, err
	}
	name := hierarchy.LastSegment(oldPath)

	exists, err := s.store.ExistsByID(ctx, newParentID, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !exists {
		return nil, apperrors.ErrParentCategoryNotFound
	}

	parentPath, ok, err := s.store.FindPath(ctx, newParentID, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInconsistentState, "parent category has no stored path")
	}

	if hierarchy.IsDescendantOrSelf(oldPath, parentPath) {
		return nil, apperrors.ErrCyclicMove
	}

	dup, err := s.store.ExistsSiblingNormalized(ctx, userID, &newParentID, hierarchy.NormalizeName(name))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if dup {
		return nil, apperrors.ErrDuplicateCategory
	}

	newPath := hierarchy.ChildPath(parentPath, name)
	if s.rules.ExceedsDepth(newPath) {
		return nil, apperrors.ErrMaxDepthExceeded
	}
	height, err := s.subtreeHeight(ctx, userID, oldPath)
	if err != nil {
		return nil, err
	}
	if hierarchy.Depth(newPath)+height > s.rules.MaxDepth {
		return nil, apperrors.WithMessage(apperrors.ErrMaxDepthExceeded, "moving this category would push its descendants past the maximum depth")
	}

	var cascaded int64
	err = s.store.Atomic(ctx, func(tx store.CategoryStore) error {
		if err := tx.Move(ctx, categoryID, userID, newParentID, newPath); err != nil {
			return categoryStoreError(err)
		}
		n, err := tx.UpdatePathPrefix(ctx, userID, oldPath+hierarchy.Separator, newPath+hierarchy.Separator)
		if err != nil {
			return categoryStoreError(err)
		}
		cascaded = n
		return nil
	})
	if err != nil {
		return nil, categoryStoreError(err)
	}

	s.invalidate(ctx, userID)
	logger.Get().Infow("category moved",
		"user_id", userID,
		"category_id", categoryID,
		"new_parent_id", newParentID,
		"old_path", oldPath,
		"new_path", newPath,
		"descendants", cascaded,
	)
	return s.GetCategoryByID(ctx, userID, categoryID)
}

// ListOrdered returns every category of the user in pre-order: each node
// directly follows its parent, and siblings are ordered by name.
func (s *categoryService) ListOrdered(ctx context.Context, userID string) ([]CategoryNode, error) {
	if blank(userID) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user id is required")
	}

	categories, gen, hit, err := s.trees.Get(ctx, userID)
	cacheable := err == nil
	if err != nil {
		logger.Get().Warnw("category tree cache read failed", "user_id", userID, "error", err)
		hit = false
	}

	if !hit {
		categories, err = s.store.ListAllOrderedByPath(ctx, userID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		slices.SortStableFunc(categories, func(a, b models.Category) int {
			return hierarchy.ComparePaths(a.Path, b.Path)
		})
		if cacheable {
			stored, err := s.trees.Set(ctx, userID, gen, categories)
			if err != nil {
				logger.Get().Warnw("category tree cache write failed", "user_id", userID, "error", err)
			} else if !stored {
				logger.Get().Debugw("category tree changed while listing, not cached", "user_id", userID, "generation", gen)
			}
		}
	}

	nodes := make([]CategoryNode, 0, len(categories))
	for _, c := range categories {
		nodes = append(nodes, CategoryNode{Category: c, Depth: hierarchy.Depth(c.Path)})
	}
	return nodes, nil
}

// currentPath returns the stored path of a category. A missing row is
// CATEGORY_NOT_FOUND; an existing row without a path is INCONSISTENT_STATE.
func (s *categoryService) currentPath(ctx context.Context, categoryID, userID string) (string, error) {
	path, ok, err := s.store.FindPath(ctx, categoryID, userID)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if ok {
		return path, nil
	}

	exists, err := s.store.ExistsByID(ctx, categoryID, userID)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !exists {
		return "", apperrors.ErrCategoryNotFound
	}
	return "", apperrors.WithMessage(apperrors.ErrInconsistentState, "category has no stored path")
}

// subtreeHeight is the number of levels below rootPath, 0 for a leaf.
func (s *categoryService) subtreeHeight(ctx context.Context, userID, rootPath string) (int, error) {
	categories, err := s.store.ListAllOrderedByPath(ctx, userID)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	base := hierarchy.Depth(rootPath)
	height := 0
	for _, c := range categories {
		if hierarchy.IsDescendantOrSelf(rootPath, c.Path) {
			height = max(height, hierarchy.Depth(c.Path)-base)
		}
	}
	return height, nil
}

func (s *categoryService) invalidate(ctx context.Context, userID string) {
	if err := s.trees.Invalidate(ctx, userID); err != nil {
		logger.Get().Warnw("category tree cache invalidation failed", "user_id", userID, "error", err)
	}
}

// categoryStoreError maps store failures onto application errors. Errors that
// are already *AppError pass through unchanged.
func categoryStoreError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, store.ErrDuplicate):
		return apperrors.Wrap(apperrors.ErrDuplicateCategory, err)
	case errors.Is(err, store.ErrNotFound):
		return apperrors.Wrap(apperrors.ErrCategoryNotFound, err)
	case errors.Is(err, store.ErrReferenced):
		return apperrors.Wrap(apperrors.ErrCategoryInUse, err)
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
