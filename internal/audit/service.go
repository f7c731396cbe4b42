package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"bizops-backend/internal/database"
	"bizops-backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrAlreadyUndone = errors.New("this action has already been undone")
	ErrNotUndoable   = errors.New("this action cannot be undone")
	ErrLogNotFound   = errors.New("audit log not found")
)

type LogOptions struct {
	// Tx, when set, writes the log inside the caller's transaction.
	Tx *gorm.DB

	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(opts LogOptions) error {
	db := opts.Tx
	if db == nil {
		db = database.DB
	}

	entry := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
		Undone:      opts.Action == models.AuditActionUndo,
	}

	if err := db.Create(&entry).Error; err != nil {
		return fmt.Errorf("audit log could not be saved: %w", err)
	}
	return nil
}

// LogQuietly writes the entry and only reports a failure to the server log.
func LogQuietly(opts LogOptions) {
	if err := WriteLog(opts); err != nil {
		log.Printf("[WARN] %v", err)
	}
}

func snapshot(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

// undoable lists the entity types whose snapshots can be replayed.
var undoable = map[string]func() any{
	"customer":       func() any { return &models.Customer{} },
	"supplier":       func() any { return &models.Supplier{} },
	"inventory_item": func() any { return &models.InventoryItem{} },
	"asset_type":     func() any { return &models.AssetType{} },
}

// UndoLog reverts the change recorded by logID and records an undo entry.
func UndoLog(logID uint, userID uint, userName string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var entry models.AuditLog
		if err := tx.First(&entry, "id = ?", logID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLogNotFound
			}
			return err
		}
		if entry.IsUndone {
			return ErrAlreadyUndone
		}

		newEntity, ok := undoable[entry.EntityType]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotUndoable, entry.EntityType)
		}

		switch entry.Action {
		case models.AuditActionCreate:
			if err := tx.Delete(newEntity(), "id = ?", entry.EntityID).Error; err != nil {
				return fmt.Errorf("entity could not be deleted: %w", err)
			}

		case models.AuditActionUpdate:
			target := newEntity()
			if err := json.Unmarshal(entry.BeforeData, target); err != nil {
				return fmt.Errorf("snapshot could not be decoded: %w", err)
			}
			if err := tx.Select("*").Omit("created_at").Where("id = ?", entry.EntityID).Updates(target).Error; err != nil {
				return fmt.Errorf("entity could not be restored: %w", err)
			}

		case models.AuditActionDelete:
			target := newEntity()
			if err := json.Unmarshal(entry.BeforeData, target); err != nil {
				return fmt.Errorf("snapshot could not be decoded: %w", err)
			}
			if err := tx.Create(target).Error; err != nil {
				return fmt.Errorf("entity could not be re-created: %w", err)
			}

		default:
			return ErrNotUndoable
		}

		now := time.Now()
		entry.IsUndone = true
		entry.UndoneBy = &userID
		entry.UndoneAt = &now
		if err := tx.Save(&entry).Error; err != nil {
			return fmt.Errorf("audit log could not be updated: %w", err)
		}

		return WriteLog(LogOptions{
			Tx:          tx,
			UserID:      userID,
			UserName:    userName,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			Action:      models.AuditActionUndo,
			Description: fmt.Sprintf("Undone: %s", entry.Description),
			Before:      json.RawMessage(entry.AfterData),
			After:       json.RawMessage(entry.BeforeData),
		})
	})
}
