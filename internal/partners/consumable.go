package partners

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bizops-backend/internal/audit"
	"bizops-backend/internal/auth"
	"bizops-backend/internal/database"
	"bizops-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrConsumableNotFound = errors.New("consumable not found")
)

// StockError rejects a consumable line that the item's stock cannot cover.
type StockError struct {
	Item      string
	Available int64
	Requested int64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s: %d available, %d requested", e.Item, e.Available, e.Requested)
}

// ItemNotFoundError names an inventory id that does not exist.
type ItemNotFoundError uint

func (e ItemNotFoundError) Error() string {
	return fmt.Sprintf("Inventory item %d not found", uint(e))
}

const consumableEntity = "project_consumable"

type ConsumableLine struct {
	InventoryItemID uint  `json:"inventoryItemId" validate:"required"`
	Quantity        int64 `json:"quantity" validate:"gt=0"`
}

func loadConsumable(db *gorm.DB, id uint) (*models.ProjectConsumable, error) {
	var pc models.ProjectConsumable
	err := db.Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id asc") }).
		Preload("Items.InventoryItem").
		First(&pc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConsumableNotFound
	}
	return &pc, err
}

// ListConsumables returns a project's consumables, newest date first.
func ListConsumables(ctx context.Context, projectID uint) ([]models.ProjectConsumable, error) {
	db := database.DB.WithContext(ctx)

	var n int64
	if err := db.Model(&models.Project{}).Where("id = ?", projectID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrProjectNotFound
	}

	list := []models.ProjectConsumable{}
	err := db.Where("project_id = ?", projectID).
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id asc") }).
		Preload("Items.InventoryItem").
		Order("date desc, id desc").
		Find(&list).Error
	return list, err
}

// RecordConsumables stores the batch and takes every line out of stock in one
// transaction. A line the stock cannot cover rolls the whole batch back.
func RecordConsumables(ctx context.Context, actor auth.Actor, projectID uint, date time.Time, notes string, lines []ConsumableLine) (*models.ProjectConsumable, error) {
	var pc *models.ProjectConsumable
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, "id = ?", projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}

		items := make([]models.ProjectConsumableItem, 0, len(lines))
		for _, l := range lines {
			var inv models.InventoryItem
			if err := tx.First(&inv, "id = ?", l.InventoryItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ItemNotFoundError(l.InventoryItemID)
				}
				return err
			}
			res := tx.Model(&models.InventoryItem{}).
				Where("id = ? AND quantity >= ?", inv.ID, l.Quantity).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", l.Quantity))
			if res.Error != nil {
				return fmt.Errorf("stock could not be updated: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				// an earlier line of this batch may already have drawn on the item
				if err := tx.Model(&models.InventoryItem{}).Select("quantity").Where("id = ?", inv.ID).Scan(&inv.Quantity).Error; err != nil {
					return err
				}
				return &StockError{Item: inv.Name, Available: inv.Quantity, Requested: l.Quantity}
			}
			items = append(items, models.ProjectConsumableItem{InventoryItemID: inv.ID, Quantity: l.Quantity})
		}

		created := models.ProjectConsumable{ProjectID: project.ID, Date: date.UTC(), Notes: notes, Items: items}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("consumable could not be created: %w", err)
		}

		if err := audit.WriteLog(audit.LogOptions{
			Tx:          tx,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  consumableEntity,
			EntityID:    created.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Consumables recorded for project %s (%d lines)", project.Title, len(items)),
			After:       created,
		}); err != nil {
			return err
		}

		var err error
		pc, err = loadConsumable(tx, created.ID)
		return err
	})
	return pc, err
}

// UpdateConsumable changes the date and notes; quantities are fixed once stock was drawn.
func UpdateConsumable(ctx context.Context, actor auth.Actor, id uint, date *time.Time, notes *string) (*models.ProjectConsumable, error) {
	var pc *models.ProjectConsumable
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadConsumable(tx, id)
		if err != nil {
			return err
		}

		fields := map[string]any{}
		if date != nil {
			fields["date"] = date.UTC()
		}
		if notes != nil {
			fields["notes"] = *notes
		}
		if len(fields) > 0 {
			if err := tx.Model(&models.ProjectConsumable{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return fmt.Errorf("consumable could not be updated: %w", err)
			}
		}

		pc, err = loadConsumable(tx, id)
		if err != nil {
			return err
		}
		return audit.WriteLog(audit.LogOptions{
			Tx:          tx,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  consumableEntity,
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Consumable %d updated", id),
			Before:      map[string]any{"date": current.Date, "notes": current.Notes},
			After:       map[string]any{"date": pc.Date, "notes": pc.Notes},
		})
	})
	return pc, err
}

// DeleteConsumable removes the batch and returns its quantities to stock.
func DeleteConsumable(ctx context.Context, actor auth.Actor, id uint) error {
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pc, err := loadConsumable(tx, id)
		if err != nil {
			return err
		}

		for _, it := range pc.Items {
			if err := tx.Model(&models.InventoryItem{}).
				Where("id = ?", it.InventoryItemID).
				UpdateColumn("quantity", gorm.Expr("quantity + ?", it.Quantity)).Error; err != nil {
				return fmt.Errorf("stock could not be restored: %w", err)
			}
		}
		if err := tx.Where("consumable_id = ?", id).Delete(&models.ProjectConsumableItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.ProjectConsumable{}, id).Error; err != nil {
			return fmt.Errorf("consumable could not be deleted: %w", err)
		}

		return audit.WriteLog(audit.LogOptions{
			Tx:          tx,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  consumableEntity,
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Consumable %d deleted, stock restored", id),
			Before:      pc,
		})
	})
}
