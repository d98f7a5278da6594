package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"spendtree/internal/logger"
	"spendtree/internal/models"
)

// Audit actions recorded for category tree mutations and entry creation.
const (
	AuditCreateCategory = "CREATE_CATEGORY"
	AuditRenameCategory = "RENAME_CATEGORY"
	AuditMoveCategory   = "MOVE_CATEGORY"
	AuditDeleteCategory = "DELETE_CATEGORY"
	AuditCreateExpense  = "CREATE_EXPENSE"
	AuditDeleteExpense  = "DELETE_EXPENSE"
	AuditCreateGoal     = "CREATE_GOAL"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Failures are logged and never returned.
func (s *auditService) Log(ctx context.Context, userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
