package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "spendtree/internal/errors"
	"spendtree/internal/models"
	"spendtree/internal/services"
)

// GoalHandler handles monthly spending goals.
type GoalHandler struct {
	goalService  services.GoalServicer
	auditService services.AuditServicer
}

// NewGoalHandler creates a new GoalHandler
func NewGoalHandler(goalService services.GoalServicer, auditService services.AuditServicer) *GoalHandler {
	return &GoalHandler{goalService: goalService, auditService: auditService}
}

// CreateGoalRequest represents the request payload for creating a goal
type CreateGoalRequest struct {
	CategoryID  string `json:"category_id" binding:"required,uuid"`
	Month       string `json:"month" binding:"required,year_month"`
	LimitAmount int64  `json:"limit_amount" binding:"required,gt=0"`
}

// EvaluateGoalQuery selects the goal to evaluate.
type EvaluateGoalQuery struct {
	CategoryID string `form:"category_id" binding:"required,uuid"`
	Month      string `form:"month" binding:"required,year_month"`
}

// CreateGoal handles creating a monthly goal for a category subtree
// @Summary     Create a goal
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGoalRequest true "Goal details"
// @Success     201 {object} models.Goal "Goal created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Goal already exists"
// @Router      /goals [post]
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	goal, err := h.goalService.CreateGoal(c.Request.Context(), userID, req.CategoryID, req.Month, req.LimitAmount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditCreateGoal, "goal", goal.ID, c.ClientIP(), map[string]any{
		"category_id":  goal.CategoryID,
		"month":        goal.Month,
		"limit_amount": goal.LimitAmount,
	})

	c.JSON(http.StatusCreated, gin.H{"goal": goal})
}

// GetUserGoals lists goals, optionally for one month
// @Summary     List goals
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month (YYYY-MM)"
// @Success     200 {array}  models.Goal "Goals"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /goals [get]
func (h *GoalHandler) GetUserGoals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var month *string
	if v := c.Query("month"); v != "" {
		month = &v
	}

	goals, err := h.goalService.GetUserGoals(c.Request.Context(), userID, month)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if goals == nil {
		goals = []models.Goal{}
	}

	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

// EvaluateGoal compares a goal with the debits of its category subtree
// @Summary     Evaluate a monthly goal
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       category_id query string true "Goal category ID"
// @Param       month       query string true "Month (YYYY-MM)"
// @Success     200 {object} services.GoalEvaluation "Evaluation"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Goal or category not found"
// @Router      /goals/evaluate [get]
func (h *GoalHandler) EvaluateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q EvaluateGoalQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	evaluation, err := h.goalService.EvaluateMonthly(c.Request.Context(), userID, q.CategoryID, q.Month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"evaluation": evaluation})
}
