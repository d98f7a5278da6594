// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"spendtree/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("expense_type", validateExpenseType)
		_ = v.RegisterValidation("year_month", validateYearMonth)
		_ = v.RegisterValidation("category_name", validateCategoryName)
	}
}

func validateExpenseType(fl validator.FieldLevel) bool {
	switch models.ExpenseType(fl.Field().String()) {
	case models.ExpenseTypeDebit, models.ExpenseTypeCredit:
		return true
	}
	return false
}

// validateYearMonth accepts "YYYY-MM".
func validateYearMonth(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01", fl.Field().String())
	return err == nil
}

// validateCategoryName only rejects blank input. Length and character rules
// are enforced by the category service so that clients receive
// INVALID_CATEGORY_NAME rather than a generic binding error.
func validateCategoryName(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
