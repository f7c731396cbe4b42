package audit

import (
	"errors"

	"bizops-backend/internal/auth"
	"bizops-backend/internal/database"
	"bizops-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/audit-logs?entityType=purchase_order&entityId=1&userId=2
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.WithContext(c.UserContext()).Model(&models.AuditLog{})

		if entityType := c.Query("entityType"); entityType != "" {
			dbq = dbq.Where("entity_type = ?", entityType)
		}
		if eid := c.QueryInt("entityId"); eid > 0 {
			dbq = dbq.Where("entity_id = ?", eid)
		}
		if uid := c.QueryInt("userId"); uid > 0 {
			dbq = dbq.Where("user_id = ?", uid)
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC, id DESC").Limit(500).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch audit logs")
		}
		return c.JSON(logs)
	}
}

// POST /api/audit-logs/:id/undo (admin)
func UndoAuditLogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		logID, err := c.ParamsInt("id")
		if err != nil || logID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid log id")
		}

		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		if err := UndoLog(uint(logID), actor.ID, actor.Name); err != nil {
			switch {
			case errors.Is(err, ErrLogNotFound):
				return fiber.NewError(fiber.StatusNotFound, "Audit log not found")
			case errors.Is(err, ErrAlreadyUndone), errors.Is(err, ErrNotUndoable):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return err
		}

		return c.JSON(fiber.Map{"message": "Action undone successfully"})
	}
}
