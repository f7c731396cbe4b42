package assets

import (
	"time"

	"bizops-backend/internal/auth"
	"bizops-backend/internal/models"
	"bizops-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type MovementRequest struct {
	AssetInstanceID uint                `json:"assetInstanceId"`
	MovementType    models.MovementType `json:"movementType"`
	FromLocation    string              `json:"fromLocation"`
	ToLocation      string              `json:"toLocation"`
	FromProjectID   *uint               `json:"fromProjectId"`
	ToProjectID     *uint               `json:"toProjectId"`
	FromEmployeeID  *uint               `json:"fromEmployeeId"`
	ToEmployeeID    *uint               `json:"toEmployeeId"`
	Reason          string              `json:"reason"`
}

// GET /api/asset-movements/:assetInstanceId
func ListMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validation.ParamID(c, "assetInstanceId")
		if err != nil {
			return err
		}
		movements, err := Movements(c.UserContext(), id)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch asset movements")
		}
		return c.JSON(movements)
	}
}

// POST /api/asset-movements
func CreateMovementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		var body MovementRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.AssetInstanceID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "assetInstanceId is required")
		}

		m, err := RecordMovement(c.UserContext(), actor, models.AssetMovement{
			AssetInstanceID: body.AssetInstanceID,
			MovementType:    body.MovementType,
			FromLocation:    body.FromLocation,
			ToLocation:      body.ToLocation,
			FromProjectID:   body.FromProjectID,
			ToProjectID:     body.ToProjectID,
			FromEmployeeID:  body.FromEmployeeID,
			ToEmployeeID:    body.ToEmployeeID,
			Reason:          body.Reason,
		})
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// GET /api/asset-summary
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := GetSummary(c.UserContext(), time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch asset summary")
		}
		return c.JSON(s)
	}
}
