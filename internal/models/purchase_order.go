package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus is the lifecycle label of a PurchaseOrder.
//
//	draft -> pending_approval -> approved -> converted
//	                          \-> rejected
type PurchaseOrderStatus string

const (
	POStatusDraft           PurchaseOrderStatus = "draft"
	POStatusPendingApproval PurchaseOrderStatus = "pending_approval"
	POStatusApproved        PurchaseOrderStatus = "approved"
	POStatusRejected        PurchaseOrderStatus = "rejected"
	POStatusConverted       PurchaseOrderStatus = "converted"
)

var poTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	POStatusDraft:           {POStatusPendingApproval},
	POStatusPendingApproval: {POStatusApproved, POStatusRejected},
	POStatusApproved:        {POStatusConverted},
}

func (s PurchaseOrderStatus) Valid() bool {
	switch s {
	case POStatusDraft, POStatusPendingApproval, POStatusApproved, POStatusRejected, POStatusConverted:
		return true
	}
	return false
}

func (s PurchaseOrderStatus) CanTransitionTo(next PurchaseOrderStatus) bool {
	for _, allowed := range poTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PurchaseOrderStatus) Terminal() bool {
	return len(poTransitions[s]) == 0
}

type PurchaseOrder struct {
	ID         uint                `gorm:"primaryKey" json:"id"`
	PONumber   string              `gorm:"size:30;uniqueIndex;not null" json:"poNumber"`
	SupplierID uint                `gorm:"index;not null" json:"supplierId"`
	Supplier   *Supplier           `json:"-"`
	Status     PurchaseOrderStatus `gorm:"size:20;index;not null;default:'draft'" json:"status"`

	OrderDate            time.Time  `gorm:"not null" json:"orderDate"`
	ExpectedDeliveryDate *time.Time `json:"expectedDeliveryDate"`
	PaymentTerms         string     `gorm:"size:255" json:"paymentTerms"`
	DeliveryTerms        string     `gorm:"size:255" json:"deliveryTerms"`
	BankAccount          string     `gorm:"size:255" json:"bankAccount"`
	Notes                string     `gorm:"type:text" json:"notes"`

	Subtotal    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"subtotal"`
	TaxAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"taxAmount"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"totalAmount"`

	CreatedBy       uint       `json:"createdBy"`
	SubmittedByID   *uint      `json:"submittedById"`
	SubmittedAt     *time.Time `json:"submittedAt"`
	ApprovedByID    *uint      `json:"approvedById"`
	ApprovedAt      *time.Time `json:"approvedAt"`
	RejectedByID    *uint      `json:"rejectedById"`
	RejectedAt      *time.Time `json:"rejectedAt"`
	RejectionReason string     `gorm:"type:text" json:"rejectionReason"`

	ConvertedInvoiceID *uint `json:"convertedInvoiceId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Items []PurchaseOrderItem `gorm:"foreignKey:POID;constraint:OnDelete:CASCADE" json:"items"`
	Files []PurchaseOrderFile `gorm:"foreignKey:POID;constraint:OnDelete:CASCADE" json:"files"`
}

type LineItemType string

const (
	LineItemProduct LineItemType = "product"
	LineItemService LineItemType = "service"
)

type PurchaseOrderItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	POID            uint            `gorm:"column:po_id;index;not null" json:"poId"`
	ItemType        LineItemType    `gorm:"size:10;not null" json:"itemType"`
	InventoryItemID *uint           `gorm:"index" json:"inventoryItemId"`
	InventoryItem   *InventoryItem  `json:"-"`
	Description     string          `gorm:"size:500" json:"description"`
	Quantity        int64           `gorm:"not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unitPrice"`
	TaxRate         decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"taxRate"`
	TaxAmount       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"taxAmount"`
	LineTotal       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"lineTotal"`
}

type PurchaseOrderFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	POID         uint      `gorm:"column:po_id;index;not null" json:"poId"`
	FileName     string    `gorm:"size:255;not null" json:"fileName"`
	OriginalName string    `gorm:"size:255" json:"originalName"`
	FilePath     string    `gorm:"size:500;not null" json:"filePath"`
	FileSize     int64     `json:"fileSize"`
	MimeType     string    `gorm:"size:100" json:"mimeType"`
	UploadedBy   uint      `json:"uploadedBy"`
	CreatedAt    time.Time `json:"createdAt"`
}
