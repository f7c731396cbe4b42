package assets

import (
	"errors"
	"fmt"
	"strings"

	"bizops-backend/internal/audit"
	"bizops-backend/internal/auth"
	"bizops-backend/internal/database"
	"bizops-backend/internal/models"
	"bizops-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AssetTypeRequest struct {
	Name                    string `json:"name" validate:"required,max=150"`
	Category                string `json:"category" validate:"required,max=100"`
	Manufacturer            string `json:"manufacturer" validate:"max=150"`
	Model                   string `json:"model" validate:"max=150"`
	Description             string `json:"description"`
	MaintenanceIntervalDays int    `json:"maintenanceIntervalDays" validate:"gte=0"`
}

func parseAssetType(c *fiber.Ctx) (AssetTypeRequest, error) {
	var body AssetTypeRequest
	if err := c.BodyParser(&body); err != nil {
		return body, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	body.Name = strings.TrimSpace(body.Name)
	body.Category = strings.TrimSpace(body.Category)
	body.Manufacturer = strings.TrimSpace(body.Manufacturer)
	body.Model = strings.TrimSpace(body.Model)
	body.Description = strings.TrimSpace(body.Description)
	return body, validation.Struct(body)
}

func findAssetType(c *fiber.Ctx) (*models.AssetType, error) {
	id, err := validation.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	var t models.AssetType
	if err := database.DB.WithContext(c.UserContext()).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Asset type not found")
		}
		return nil, err
	}
	return &t, nil
}

// GET /api/asset-types?category=
func ListAssetTypesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.WithContext(c.UserContext()).Model(&models.AssetType{})
		if category := c.Query("category"); category != "" && category != "all" {
			dbq = dbq.Where("category = ?", category)
		}
		types := []models.AssetType{}
		if err := dbq.Order("name asc").Find(&types).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch asset types")
		}
		return c.JSON(types)
	}
}

// GET /api/asset-types/:id
func GetAssetTypeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := findAssetType(c)
		if err != nil {
			return err
		}
		return c.JSON(t)
	}
}

// POST /api/asset-types
func CreateAssetTypeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		body, err := parseAssetType(c)
		if err != nil {
			return err
		}

		t := models.AssetType{
			Name:                    body.Name,
			Category:                body.Category,
			Manufacturer:            body.Manufacturer,
			Model:                   body.Model,
			Description:             body.Description,
			MaintenanceIntervalDays: body.MaintenanceIntervalDays,
		}
		if err := database.DB.WithContext(c.UserContext()).Create(&t).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create asset type")
		}

		audit.LogQuietly(audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "asset_type",
			EntityID:    t.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Asset type created: %s", t.Name),
			After:       t,
		})
		return c.Status(fiber.StatusCreated).JSON(t)
	}
}

// PUT /api/asset-types/:id
func UpdateAssetTypeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		t, err := findAssetType(c)
		if err != nil {
			return err
		}
		body, err := parseAssetType(c)
		if err != nil {
			return err
		}

		before := *t
		t.Name = body.Name
		t.Category = body.Category
		t.Manufacturer = body.Manufacturer
		t.Model = body.Model
		t.Description = body.Description
		t.MaintenanceIntervalDays = body.MaintenanceIntervalDays

		if err := database.DB.WithContext(c.UserContext()).Save(t).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update asset type")
		}

		audit.LogQuietly(audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "asset_type",
			EntityID:    t.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Asset type updated: %s", t.Name),
			Before:      before,
			After:       t,
		})
		return c.JSON(t)
	}
}
