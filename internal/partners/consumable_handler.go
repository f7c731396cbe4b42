package partners

import (
	"errors"
	"strings"
	"time"

	"bizops-backend/internal/auth"
	"bizops-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type ConsumableRequest struct {
	Date  string           `json:"date"`
	Notes string           `json:"notes"`
	Items []ConsumableLine `json:"items" validate:"required,min=1,dive"`
}

type ConsumableUpdateRequest struct {
	Date  *string `json:"date"`
	Notes *string `json:"notes"`
}

func consumableError(err error) error {
	var se *StockError
	var nf ItemNotFoundError
	switch {
	case errors.As(err, &se):
		return fiber.NewError(fiber.StatusBadRequest, se.Error())
	case errors.As(err, &nf):
		return fiber.NewError(fiber.StatusBadRequest, nf.Error())
	case errors.Is(err, ErrProjectNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Project not found")
	case errors.Is(err, ErrConsumableNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Consumable not found")
	}
	return err
}

// GET /api/projects/:id/consumables
func ListConsumablesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		projectID, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		list, err := ListConsumables(c.UserContext(), projectID)
		if err != nil {
			return consumableError(err)
		}
		return c.JSON(list)
	}
}

// POST /api/projects/:id/consumables
func CreateConsumablesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		projectID, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}

		var body ConsumableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validation.Struct(body); err != nil {
			return err
		}
		date, err := validation.Date("date", body.Date)
		if err != nil {
			return err
		}
		if date == nil {
			today := time.Now().UTC().Truncate(24 * time.Hour)
			date = &today
		}

		pc, err := RecordConsumables(c.UserContext(), actor, projectID, *date, strings.TrimSpace(body.Notes), body.Items)
		if err != nil {
			return consumableError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(pc)
	}
}

// PUT /api/project-consumables/:id
func UpdateConsumableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}

		var body ConsumableUpdateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		var date *time.Time
		if body.Date != nil {
			if date, err = validation.Date("date", *body.Date); err != nil {
				return err
			}
			if date == nil {
				return fiber.NewError(fiber.StatusBadRequest, "date cannot be empty")
			}
		}
		if body.Notes != nil {
			n := strings.TrimSpace(*body.Notes)
			body.Notes = &n
		}

		pc, err := UpdateConsumable(c.UserContext(), actor, id, date, body.Notes)
		if err != nil {
			return consumableError(err)
		}
		return c.JSON(pc)
	}
}

// DELETE /api/project-consumables/:id
func DeleteConsumableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := DeleteConsumable(c.UserContext(), actor, id); err != nil {
			return consumableError(err)
		}
		return c.JSON(fiber.Map{"message": "Consumable deleted"})
	}
}
