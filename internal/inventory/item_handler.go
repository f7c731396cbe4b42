package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bizops-backend/internal/audit"
	"bizops-backend/internal/auth"
	"bizops-backend/internal/database"
	"bizops-backend/internal/models"
	"bizops-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateItemRequest struct {
	Name      string           `json:"name" validate:"required,max=200"`
	Unit      string           `json:"unit" validate:"required,max=30"`
	StockCode string           `json:"stockCode" validate:"max=50"` // optional
	Quantity  int64            `json:"quantity" validate:"gte=0"`
	UnitCost  *decimal.Decimal `json:"unitCost"`
}

type UpdateItemRequest struct {
	Name      *string          `json:"name"`
	Unit      *string          `json:"unit"`
	StockCode *string          `json:"stockCode"`
	Quantity  *int64           `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unitCost"`
}

// checkStockCode fails with 400 when another item already carries code.
func checkStockCode(ctx context.Context, code *string, exceptID uint) error {
	if code == nil {
		return nil
	}
	var count int64
	err := database.DB.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("stock_code = ? AND id <> ?", *code, exceptID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Stock code already exists")
	}
	return nil
}

func optionalCode(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func findItem(c *fiber.Ctx) (*models.InventoryItem, error) {
	id, err := validation.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	var item models.InventoryItem
	if err := database.DB.WithContext(c.UserContext()).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Inventory item not found")
		}
		return nil, err
	}
	return &item, nil
}

// GET /api/inventory?search=
func ListItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.WithContext(c.UserContext()).Model(&models.InventoryItem{})
		if s := strings.ToLower(strings.TrimSpace(c.Query("search"))); s != "" {
			like := database.Contains(s)
			dbq = dbq.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(stock_code) LIKE ? ESCAPE '\'`, like, like)
		}

		items := []models.InventoryItem{}
		if err := dbq.Order("name asc").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch inventory")
		}
		return c.JSON(items)
	}
}

// GET /api/inventory/:id
func GetItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		item, err := findItem(c)
		if err != nil {
			return err
		}
		return c.JSON(item)
	}
}

// POST /api/inventory
func CreateItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		var body CreateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Unit = strings.TrimSpace(body.Unit)
		if err := validation.Struct(body); err != nil {
			return err
		}

		code := optionalCode(body.StockCode)
		if err := checkStockCode(c.UserContext(), code, 0); err != nil {
			return err
		}

		item := models.InventoryItem{
			Name:      body.Name,
			Unit:      body.Unit,
			StockCode: code,
			Quantity:  body.Quantity,
			UnitCost:  decimal.Zero,
		}
		if body.UnitCost != nil {
			if body.UnitCost.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "unitCost cannot be negative")
			}
			item.UnitCost = body.UnitCost.Round(2)
		}

		if err := database.DB.WithContext(c.UserContext()).Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Inventory item could not be created")
		}

		audit.LogQuietly(audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "inventory_item",
			EntityID:    item.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Inventory item created: %s", item.Name),
			After:       item,
		})

		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// PUT /api/inventory/:id
func UpdateItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		item, err := findItem(c)
		if err != nil {
			return err
		}

		var body UpdateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		before := *item

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name cannot be empty")
			}
			item.Name = name
		}
		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			if unit == "" {
				return fiber.NewError(fiber.StatusBadRequest, "unit cannot be empty")
			}
			item.Unit = unit
		}
		if body.StockCode != nil {
			code := optionalCode(*body.StockCode)
			if err := checkStockCode(c.UserContext(), code, item.ID); err != nil {
				return err
			}
			item.StockCode = code
		}
		if body.Quantity != nil {
			if *body.Quantity < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "quantity cannot be negative")
			}
			item.Quantity = *body.Quantity
		}
		if body.UnitCost != nil {
			if body.UnitCost.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "unitCost cannot be negative")
			}
			item.UnitCost = body.UnitCost.Round(2)
		}

		if err := database.DB.WithContext(c.UserContext()).Save(item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Inventory item could not be updated")
		}

		audit.LogQuietly(audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "inventory_item",
			EntityID:    item.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Inventory item updated: %s", item.Name),
			Before:      before,
			After:       item,
		})

		return c.JSON(item)
	}
}

// DELETE /api/inventory/:id
// Items referenced by purchase order lines are kept.
func DeleteItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		item, err := findItem(c)
		if err != nil {
			return err
		}

		db := database.DB.WithContext(c.UserContext())
		var refs int64
		if err := db.Model(&models.PurchaseOrderItem{}).Where("inventory_item_id = ?", item.ID).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Inventory item is used by purchase orders and cannot be deleted")
		}
		if err := db.Model(&models.ProjectConsumableItem{}).Where("inventory_item_id = ?", item.ID).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Inventory item is recorded as a project consumable and cannot be deleted")
		}

		if err := database.DB.WithContext(c.UserContext()).Delete(item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Inventory item could not be deleted")
		}

		audit.LogQuietly(audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "inventory_item",
			EntityID:    item.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Inventory item deleted: %s", item.Name),
			Before:      item,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
