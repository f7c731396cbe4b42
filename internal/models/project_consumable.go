package models

import "time"

// ProjectConsumable is one dated batch of inventory used up on a project.
// Recording it takes the quantities out of stock; deleting it puts them back.
type ProjectConsumable struct {
	ID        uint                    `gorm:"primaryKey" json:"id"`
	ProjectID uint                    `gorm:"index;not null" json:"projectId"`
	Date      time.Time               `gorm:"not null" json:"date"`
	Notes     string                  `gorm:"type:text" json:"notes"`
	Items     []ProjectConsumableItem `gorm:"foreignKey:ConsumableID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

type ProjectConsumableItem struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ConsumableID    uint           `gorm:"index;not null" json:"consumableId"`
	InventoryItemID uint           `gorm:"index;not null" json:"inventoryItemId"`
	InventoryItem   *InventoryItem `json:"inventoryItem,omitempty"`
	Quantity        int64          `gorm:"not null" json:"quantity"`
}
