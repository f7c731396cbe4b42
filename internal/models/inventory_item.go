package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem is a stocked product; product lines of purchase orders point here.
type InventoryItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:200;not null" json:"name"`
	Unit      string          `gorm:"size:30;not null" json:"unit"`
	StockCode *string         `gorm:"size:50;uniqueIndex" json:"stockCode"`
	Quantity  int64           `gorm:"not null;default:0" json:"quantity"`
	UnitCost  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"unitCost"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
