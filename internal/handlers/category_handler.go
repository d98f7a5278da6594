package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "spendtree/internal/errors"
	"spendtree/internal/services"
)

// CategoryHandler exposes the category tree over HTTP.
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest creates a root category, or a child when ParentID is set.
type CreateCategoryRequest struct {
	Name     string  `json:"name" binding:"category_name"`
	ParentID *string `json:"parent_id"`
}

// CategoryNameRequest carries a single name, used for children and renames.
type CategoryNameRequest struct {
	Name string `json:"name" binding:"category_name"`
}

// MoveCategoryRequest names the new parent of a category.
type MoveCategoryRequest struct {
	ParentID string `json:"parent_id" binding:"required,uuid"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a root category, or a child category when parent_id is given
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input, invalid name or max depth exceeded"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Parent category not found"
// @Failure     409 {object} ErrorResponse "Duplicate category"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	parentID, err := parseOptionalID(req.ParentID, "parent_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.create(c, userID, req.Name, parentID)
}

// CreateChildCategory handles the creation of a category under an existing one
// @Summary     Create a child category
// @Description Create a category directly under the category in the path
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Parent category ID"
// @Param       request body CategoryNameRequest true "Child name"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input, invalid name or max depth exceeded"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Parent category not found"
// @Failure     409 {object} ErrorResponse "Duplicate category"
// @Router      /categories/{id}/children [post]
func (h *CategoryHandler) CreateChildCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	parentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CategoryNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	h.create(c, userID, req.Name, &parentID)
}

func (h *CategoryHandler) create(c *gin.Context, userID, name string, parentID *string) {
	category, err := h.categoryService.CreateCategory(c.Request.Context(), userID, name, parentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditCreateCategory, "category", category.ID, c.ClientIP(), map[string]any{
		"path": category.Path,
	})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// ListCategories returns the category tree in depth-first order
// @Summary     List categories
// @Description List every category of the user, parents before children, with depth
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} services.CategoryNode "Ordered categories"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	nodes, err := h.categoryService.ListOrdered(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if nodes == nil {
		nodes = []services.CategoryNode{}
	}

	c.JSON(http.StatusOK, gin.H{"categories": nodes})
}

// GetCategoryByID handles the retrieval of a specific category
// @Summary     Get category by ID
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category "Category details"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(c.Request.Context(), userID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// RenameCategory handles renaming a category and rewriting its descendants' paths
// @Summary     Rename category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Category ID"
// @Param       request body CategoryNameRequest true "New name"
// @Success     200 {object} models.Category "Renamed category"
// @Failure     400 {object} ErrorResponse "Invalid input or invalid name"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Path conflict or duplicate category"
// @Router      /categories/{id}/rename [patch]
func (h *CategoryHandler) RenameCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CategoryNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.RenameCategory(c.Request.Context(), userID, categoryID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditRenameCategory, "category", categoryID, c.ClientIP(), map[string]any{
		"name": category.Name,
		"path": category.Path,
	})

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// MoveCategory handles re-parenting a category with its subtree
// @Summary     Move category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Category ID"
// @Param       request body MoveCategoryRequest true "New parent"
// @Success     200 {object} models.Category "Moved category"
// @Failure     400 {object} ErrorResponse "Invalid input, cyclic move or max depth exceeded"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category or parent not found"
// @Failure     409 {object} ErrorResponse "Duplicate category"
// @Router      /categories/{id}/move [patch]
func (h *CategoryHandler) MoveCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MoveCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.MoveCategory(c.Request.Context(), userID, categoryID, req.ParentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditMoveCategory, "category", categoryID, c.ClientIP(), map[string]any{
		"parent_id": req.ParentID,
		"path":      category.Path,
	})

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles deleting a leaf category
// @Summary     Delete category
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} MessageResponse "Category deleted"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category has children or is in use"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(c.Request.Context(), userID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditDeleteCategory, "category", categoryID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
