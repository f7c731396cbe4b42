package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type AssetStatus string

const (
	AssetStatusAvailable   AssetStatus = "available"
	AssetStatusInUse       AssetStatus = "in_use"
	AssetStatusMaintenance AssetStatus = "maintenance"
	AssetStatusRetired     AssetStatus = "retired"
)

func (s AssetStatus) Valid() bool {
	switch s {
	case AssetStatusAvailable, AssetStatusInUse, AssetStatusMaintenance, AssetStatusRetired:
		return true
	}
	return false
}

type AssetCondition string

const (
	AssetConditionExcellent AssetCondition = "excellent"
	AssetConditionGood      AssetCondition = "good"
	AssetConditionFair      AssetCondition = "fair"
	AssetConditionPoor      AssetCondition = "poor"
)

func (c AssetCondition) Valid() bool {
	switch c {
	case AssetConditionExcellent, AssetConditionGood, AssetConditionFair, AssetConditionPoor:
		return true
	}
	return false
}

// AssetType is the template an AssetInstance is created from.
type AssetType struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	Name                    string    `gorm:"size:150;not null" json:"name"`
	Category                string    `gorm:"size:100;index" json:"category"`
	Manufacturer            string    `gorm:"size:150" json:"manufacturer"`
	Model                   string    `gorm:"size:150" json:"model"`
	Description             string    `gorm:"type:text" json:"description"`
	MaintenanceIntervalDays int       `gorm:"not null;default:0" json:"maintenanceIntervalDays"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

type AssetInstance struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AssetTag     string         `gorm:"size:50;uniqueIndex;not null" json:"assetTag"`
	AssetTypeID  uint           `gorm:"index;not null" json:"assetTypeId"`
	AssetType    *AssetType     `json:"-"`
	SerialNumber string         `gorm:"size:100" json:"serialNumber"`
	Status       AssetStatus    `gorm:"size:20;index;not null;default:'available'" json:"status"`
	Condition    AssetCondition `gorm:"size:20;not null;default:'good'" json:"condition"`
	Location     string         `gorm:"size:200" json:"location"`

	ProjectID    *uint `gorm:"index" json:"projectId"`
	AssignedToID *uint `gorm:"index" json:"assignedToId"` // employee reference

	PurchaseDate   *time.Time       `json:"purchaseDate"`
	PurchasePrice  *decimal.Decimal `gorm:"type:numeric(14,2)" json:"purchasePrice"`
	WarrantyExpiry *time.Time       `json:"warrantyExpiry"`
	Notes          string           `gorm:"type:text" json:"notes"`

	Images datatypes.JSONSlice[string] `json:"images"`

	IsActive  bool      `gorm:"not null" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type MovementType string

const (
	MovementAssignment   MovementType = "assignment"
	MovementReturn       MovementType = "return"
	MovementTransfer     MovementType = "transfer"
	MovementMaintenance  MovementType = "maintenance"
	MovementStatusChange MovementType = "status_change"
)

func (m MovementType) Valid() bool {
	switch m {
	case MovementAssignment, MovementReturn, MovementTransfer, MovementMaintenance, MovementStatusChange:
		return true
	}
	return false
}

// AssetMovement is append-only; rows are never updated or deleted.
type AssetMovement struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	AssetInstanceID uint         `gorm:"index;not null" json:"assetInstanceId"`
	MovementType    MovementType `gorm:"size:20;not null" json:"movementType"`

	FromLocation   string `gorm:"size:200" json:"fromLocation"`
	ToLocation     string `gorm:"size:200" json:"toLocation"`
	FromProjectID  *uint  `json:"fromProjectId"`
	ToProjectID    *uint  `json:"toProjectId"`
	FromEmployeeID *uint  `json:"fromEmployeeId"`
	ToEmployeeID   *uint  `json:"toEmployeeId"`

	FromStatus AssetStatus `gorm:"size:20" json:"fromStatus"`
	ToStatus   AssetStatus `gorm:"size:20" json:"toStatus"`

	Reason    string    `gorm:"size:255" json:"reason"`
	CreatedBy uint      `json:"createdBy"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
