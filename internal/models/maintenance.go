package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MaintenanceType string

const (
	MaintenancePreventive MaintenanceType = "preventive"
	MaintenanceCorrective MaintenanceType = "corrective"
	MaintenanceInspection MaintenanceType = "inspection"
)

func (t MaintenanceType) Valid() bool {
	switch t {
	case MaintenancePreventive, MaintenanceCorrective, MaintenanceInspection:
		return true
	}
	return false
}

type MaintenanceRecord struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	InstanceID      uint            `gorm:"index;not null" json:"instanceId"`
	Instance        *AssetInstance  `gorm:"foreignKey:InstanceID" json:"-"`
	MaintenanceType MaintenanceType `gorm:"size:20" json:"maintenanceType"`
	Description     string          `gorm:"type:text" json:"description"`

	StartDate     *time.Time `json:"startDate"`
	CompletedDate *time.Time `json:"completedDate"`
	// next scheduled maintenance
	MaintenanceDate *time.Time `gorm:"index" json:"maintenanceDate"`

	MaintenanceCost decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"maintenanceCost"`
	PerformedBy     uint            `json:"performedBy"`

	IsArchived bool      `gorm:"not null;default:false;index" json:"isArchived"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Files []MaintenanceFile `gorm:"foreignKey:MaintenanceRecordID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
}

type MaintenanceFile struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	MaintenanceRecordID uint      `gorm:"index;not null" json:"maintenanceRecordId"`
	FileName            string    `gorm:"size:255;not null" json:"fileName"`
	OriginalName        string    `gorm:"size:255" json:"originalName"`
	FilePath            string    `gorm:"size:500;not null" json:"filePath"`
	FileSize            int64     `json:"fileSize"`
	MimeType            string    `gorm:"size:100" json:"mimeType"`
	UploadedBy          uint      `json:"uploadedBy"`
	CreatedAt           time.Time `json:"createdAt"`
}
