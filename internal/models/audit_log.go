package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionCreate     AuditAction = "create"
	AuditActionUpdate     AuditAction = "update"
	AuditActionDelete     AuditAction = "delete"
	AuditActionTransition AuditAction = "transition"
	AuditActionUndo       AuditAction = "undo"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	UserID   uint   `gorm:"index" json:"userId"`
	UserName string `gorm:"size:100" json:"userName"` // denormalized

	// e.g. "purchase_order", "asset_instance", "customer"
	EntityType string `gorm:"size:50;index" json:"entityType"`
	EntityID   uint   `gorm:"index" json:"entityId"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	BeforeData datatypes.JSON `json:"beforeData"`
	AfterData  datatypes.JSON `json:"afterData"`

	// true when this row was written by an undo
	Undone bool `json:"undone"`

	IsUndone bool       `gorm:"default:false" json:"isUndone"`
	UndoneBy *uint      `json:"undoneBy"`
	UndoneAt *time.Time `json:"undoneAt"`
}
