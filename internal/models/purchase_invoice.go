package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusUnpaid InvoiceStatus = "unpaid"
	InvoiceStatusPaid   InvoiceStatus = "paid"
)

// PurchaseInvoice is produced from an approved PurchaseOrder.
type PurchaseInvoice struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	InvoiceNumber   string        `gorm:"size:30;uniqueIndex;not null" json:"invoiceNumber"`
	PurchaseOrderID uint          `gorm:"uniqueIndex;not null" json:"purchaseOrderId"`
	SupplierID      uint          `gorm:"index;not null" json:"supplierId"`
	InvoiceDate     time.Time     `gorm:"not null" json:"invoiceDate"`
	DueDate         *time.Time    `json:"dueDate"`
	IsPartial       bool          `gorm:"not null;default:false" json:"partial"`
	Status          InvoiceStatus `gorm:"size:20;not null;default:'unpaid'" json:"status"`

	Subtotal    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	TaxAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"taxAmount"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"totalAmount"`

	CreatedBy uint      `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Items []PurchaseInvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
}

type PurchaseInvoiceItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	InvoiceID       uint            `gorm:"index;not null" json:"invoiceId"`
	ItemType        LineItemType    `gorm:"size:10;not null" json:"itemType"`
	InventoryItemID *uint           `json:"inventoryItemId"`
	Description     string          `gorm:"size:500" json:"description"`
	Quantity        int64           `gorm:"not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unitPrice"`
	TaxRate         decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"taxRate"`
	TaxAmount       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"taxAmount"`
	LineTotal       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"lineTotal"`
}
