// Package procurement implements purchase orders, their approval workflow and
// conversion into purchase invoices.
package procurement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bizops-backend/internal/audit"
	"bizops-backend/internal/auth"
	"bizops-backend/internal/database"
	"bizops-backend/internal/models"
	"bizops-backend/internal/storage"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ValidationError is a user-facing input problem, rendered as 400.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

var (
	ErrOrderNotFound     = errors.New("purchase order not found")
	ErrInvoiceNotFound   = errors.New("purchase invoice not found")
	ErrFileNotFound      = errors.New("file not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConcurrentUpdate  = errors.New("purchase order was changed by someone else, reload and try again")
	ErrReasonRequired    = errors.New("rejection reason is required")
	ErrNotEditable       = errors.New("only draft purchase orders can be edited")
)

// TransitionError names the attempted action and the status that refused it.
type TransitionError struct {
	Action string
	From   models.PurchaseOrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("Cannot %s a purchase order in status %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

const entityType = "purchase_order"

// OrderInput is the editable part of a purchase order. Client totals are
// only compared against the computed ones.
type OrderInput struct {
	SupplierID           uint        `json:"supplierId"`
	OrderDate            *time.Time  `json:"orderDate"`
	ExpectedDeliveryDate *time.Time  `json:"expectedDeliveryDate"`
	PaymentTerms         string      `json:"paymentTerms"`
	DeliveryTerms        string      `json:"deliveryTerms"`
	BankAccount          string      `json:"bankAccount"`
	Notes                string      `json:"notes"`
	Items                []LineInput `json:"items"`

	Subtotal    *decimal.Decimal `json:"subtotal"`
	TaxAmount   *decimal.Decimal `json:"taxAmount"`
	TotalAmount *decimal.Decimal `json:"totalAmount"`
}

type ConvertInput struct {
	InvoiceDate *time.Time `json:"invoiceDate"`
	DueDate     *time.Time `json:"dueDate"`
	Partial     bool       `json:"partial"`
}

type Filter struct {
	Status     models.PurchaseOrderStatus
	SupplierID uint
	Search     string
}

func validateInput(tx *gorm.DB, in OrderInput) error {
	if in.SupplierID == 0 {
		return ValidationError("Please select a supplier")
	}
	var n int64
	if err := tx.Model(&models.Supplier{}).Where("id = ?", in.SupplierID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ValidationError("Supplier not found")
	}

	if len(in.Items) == 0 {
		return ValidationError("Add at least one item")
	}
	for i, l := range in.Items {
		if err := validateLine(i, l); err != nil {
			return err
		}
		if l.ItemType != models.LineItemProduct {
			continue
		}
		if err := tx.Model(&models.InventoryItem{}).Where("id = ?", *l.InventoryItemID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ValidationError(fmt.Sprintf("Item %d: inventory item not found", i+1))
		}
	}
	if in.ExpectedDeliveryDate != nil && in.OrderDate != nil && in.ExpectedDeliveryDate.Before(*in.OrderDate) {
		return ValidationError("Expected delivery date cannot be before the order date")
	}
	return nil
}

// checkClientTotals logs, and otherwise ignores, totals that disagree with ours.
func checkClientTotals(label string, in OrderInput, t Totals) {
	pairs := []struct {
		name   string
		client *decimal.Decimal
		server decimal.Decimal
	}{
		{"subtotal", in.Subtotal, t.Subtotal},
		{"taxAmount", in.TaxAmount, t.TaxAmount},
		{"totalAmount", in.TotalAmount, t.TotalAmount},
	}
	for _, p := range pairs {
		if p.client != nil && !p.client.Round(2).Equal(p.server) {
			log.Printf("[WARN] %s: client %s %s differs from computed %s, using computed", label, p.name, p.client.StringFixed(2), p.server.StringFixed(2))
		}
	}
}

// nextNumber returns "<prefix>-<year>-NNNNNN" following the rows already numbered this year.
func nextNumber(tx *gorm.DB, model any, column, prefix string, now time.Time) (string, error) {
	base := fmt.Sprintf("%s-%d-", prefix, now.Year())
	var count int64
	if err := tx.Model(model).Where(column+" LIKE ?", base+"%").Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%06d", base, count+1), nil
}

func fileRows(poID uint, uploadedBy uint, files []*storage.StoredFile) []models.PurchaseOrderFile {
	rows := make([]models.PurchaseOrderFile, 0, len(files))
	for _, f := range files {
		rows = append(rows, models.PurchaseOrderFile{
			POID:         poID,
			FileName:     f.FileName,
			OriginalName: f.OriginalName,
			FilePath:     f.FilePath,
			FileSize:     f.Size,
			MimeType:     f.MimeType,
			UploadedBy:   uploadedBy,
		})
	}
	return rows
}

func Create(ctx context.Context, actor auth.Actor, in OrderInput, files []*storage.StoredFile) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := validateInput(tx, in); err != nil {
			return err
		}

		now := time.Now()
		number, err := nextNumber(tx, &models.PurchaseOrder{}, "po_number", "PO", now)
		if err != nil {
			return fmt.Errorf("po number: %w", err)
		}

		totals := ComputeTotals(in.Items)
		checkClientTotals(number, in, totals)

		orderDate := now
		if in.OrderDate != nil {
			orderDate = *in.OrderDate
		}

		po = models.PurchaseOrder{
			PONumber:             number,
			SupplierID:           in.SupplierID,
			Status:               models.POStatusDraft,
			OrderDate:            orderDate,
			ExpectedDeliveryDate: in.ExpectedDeliveryDate,
			PaymentTerms:         strings.TrimSpace(in.PaymentTerms),
			DeliveryTerms:        strings.TrimSpace(in.DeliveryTerms),
			BankAccount:          strings.TrimSpace(in.BankAccount),
			Notes:                strings.TrimSpace(in.Notes),
			Subtotal:             totals.Subtotal,
			TaxAmount:            totals.TaxAmount,
			TotalAmount:          totals.TotalAmount,
			CreatedBy:            actor.ID,
			Items:                buildItems(in.Items),
		}
		if err := tx.Create(&po).Error; err != nil {
			return fmt.Errorf("purchase order could not be created: %w", err)
		}

		if len(files) > 0 {
			rows := fileRows(po.ID, actor.ID, files)
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("attachments could not be saved: %w", err)
			}
			po.Files = rows
		}

		return audit.WriteLog(audit.LogOptions{
			Tx:          tx,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  entityType,
			EntityID:    po.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Purchase order created: %s", po.PONumber),
			After:       po,
		})
	})
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// Update replaces the header fields and all lines of a draft order. New files are appended.
func Update(ctx context.Context, actor auth.Actor, id uint, in OrderInput, files []*storage.StoredFile) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&po, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if po.Status != models.POStatusDraft {
			return ErrNotEditable
		}
		if err := validateInput(tx, in); err != nil {
			return err
		}
		before := po

		totals := ComputeTotals(in.Items)
		checkClientTotals(po.PONumber, in, totals)

		fields := map[string]any{
			"supplier_id":            in.SupplierID,
			"expected_delivery_date": in.ExpectedDeliveryDate,
			"payment_terms":          strings.TrimSpace(in.PaymentTerms),
			"delivery_terms":         strings.TrimSpace(in.DeliveryTerms),
			"bank_account":           strings.TrimSpace(in.BankAccount),
			"notes":                  strings.TrimSpace(in.Notes),
			"subtotal":               totals.Subtotal,
			"tax_amount":             totals.TaxAmount,
			"total_amount":           totals.TotalAmount,
		}
		if in.OrderDate != nil {
			fields["order_date"] = *in.OrderDate
		}

		res := tx.Model(&models.PurchaseOrder{}).
			Where("id = ? AND status = ?", po.ID, models.POStatusDraft).
			Updates(fields)
		if res.Error != nil {
			return fmt.Errorf("purchase order could not be updated: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}

		if err := tx.Where("po_id = ?", po.ID).Delete(&models.PurchaseOrderItem{}).Error; err != nil {
			return fmt.Errorf("old items could not be removed: %w", err)
		}
		items := buildItems(in.Items)
		for i := range items {
			items[i].POID = po.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("items could not be saved: %w", err)
		}

		if len(files) > 0 {
			rows := fileRows(po.ID, actor.ID, files)
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("attachments could not be saved: %w", err)
			}
		}

		if err := loadOrder(tx, &po, po.ID); err != nil {
			return err
		}

		return audit.WriteLog(audit.LogOptions{
			Tx:          tx,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  entityType,
			EntityID:    po.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Purchase order updated: %s", po.PONumber),
			Before:      before,
			After:       po,
		})
	})
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// transition moves po to next only if the row still holds po.Status.
func transition(tx *gorm.DB, po *models.PurchaseOrder, next models.PurchaseOrderStatus, action string, fields map[string]any) error {
	if !po.Status.CanTransitionTo(next) {
		return &TransitionError{Action: action, From: po.Status}
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["status"] = next

	res := tx.Model(&models.PurchaseOrder{}).
		Where("id = ? AND status = ?", po.ID, po.Status).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("status could not be updated: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

// changeStatus loads the order, applies one transition and records it.
func changeStatus(ctx context.Context, actor auth.Actor, id uint, next models.PurchaseOrderStatus, action string, fields map[string]any) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&po, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		from := po.Status

		if err := transition(tx, &po, next, action, fields); err != nil {
			return err
		}
		if err := loadOrder(tx, &po, id); err != nil {
			return err
		}

		return audit.WriteLog(audit.LogOptions{
			Tx:          tx,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  entityType,
			EntityID:    po.ID,
			Action:      models.AuditActionTransition,
			Description: fmt.Sprintf("Purchase order %s: %s -> %s", po.PONumber, from, po.Status),
			Before:      map[string]any{"status": from},
			After:       map[string]any{"status": po.Status},
		})
	})
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func Submit(ctx context.Context, actor auth.Actor, id uint) (*models.PurchaseOrder, error) {
	now := time.Now()
	return changeStatus(ctx, actor, id, models.POStatusPendingApproval, "submit", map[string]any{
		"submitted_by_id": actor.ID,
		"submitted_at":    now,
	})
}

func Approve(ctx context.Context, actor auth.Actor, id uint) (*models.PurchaseOrder, error) {
	now := time.Now()
	return changeStatus(ctx, actor, id, models.POStatusApproved, "approve", map[string]any{
		"approved_by_id": actor.ID,
		"approved_at":    now,
	})
}

func Reject(ctx context.Context, actor auth.Actor, id uint, reason string) (*models.PurchaseOrder, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	now := time.Now()
	return changeStatus(ctx, actor, id, models.POStatusRejected, "reject", map[string]any{
		"rejected_by_id":   actor.ID,
		"rejected_at":      now,
		"rejection_reason": reason,
	})
}

// ConvertToInvoice turns an approved order into a purchase invoice, copies its
// lines and books product quantities into inventory stock.
func ConvertToInvoice(ctx context.Context, actor auth.Actor, id uint, in ConvertInput) (*models.PurchaseInvoice, error) {
	now := time.Now()
	invoiceDate := now
	if in.InvoiceDate != nil {
		invoiceDate = *in.InvoiceDate
	}
	if in.DueDate != nil && in.DueDate.Before(invoiceDate) {
		return nil, ValidationError("Due date cannot be before the invoice date")
	}

	var inv models.PurchaseInvoice

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var po models.PurchaseOrder
		if err := tx.Preload("Items").First(&po, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if !po.Status.CanTransitionTo(models.POStatusConverted) {
			return &TransitionError{Action: "convert", From: po.Status}
		}

		number, err := nextNumber(tx, &models.PurchaseInvoice{}, "invoice_number", "PI", invoiceDate)
		if err != nil {
			return fmt.Errorf("invoice number: %w", err)
		}

		inv = models.PurchaseInvoice{
			InvoiceNumber:   number,
			PurchaseOrderID: po.ID,
			SupplierID:      po.SupplierID,
			InvoiceDate:     invoiceDate,
			DueDate:         in.DueDate,
			IsPartial:       in.Partial,
			Status:          models.InvoiceStatusUnpaid,
			Subtotal:        po.Subtotal,
			TaxAmount:       po.TaxAmount,
			TotalAmount:     po.TotalAmount,
			CreatedBy:       actor.ID,
		}
		for _, it := range po.Items {
			inv.Items = append(inv.Items, models.PurchaseInvoiceItem{
				ItemType:        it.ItemType,
				InventoryItemID: it.InventoryItemID,
				Description:     it.Description,
				Quantity:        it.Quantity,
				UnitPrice:       it.UnitPrice,
				TaxRate:         it.TaxRate,
				TaxAmount:       it.TaxAmount,
				LineTotal:       it.LineTotal,
			})
		}
		if err := tx.Create(&inv).Error; err != nil {
			return fmt.Errorf("invoice could not be created: %w", err)
		}

		if err := transition(tx, &po, models.POStatusConverted, "convert", map[string]any{
			"converted_invoice_id": inv.ID,
		}); err != nil {
			return err
		}

		for _, it := range po.Items {
			if it.ItemType != models.LineItemProduct || it.InventoryItemID == nil {
				continue
			}
			res := tx.Model(&models.InventoryItem{}).
				Where("id = ?", *it.InventoryItemID).
				UpdateColumn("quantity", gorm.Expr("quantity + ?", it.Quantity))
			if res.Error != nil {
				return fmt.Errorf("stock could not be updated: %w", res.Error)
			}
		}

		if err := audit.WriteLog(audit.LogOptions{
			Tx:          tx,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  entityType,
			EntityID:    po.ID,
			Action:      models.AuditActionTransition,
			Description: fmt.Sprintf("Purchase order %s converted to invoice %s", po.PONumber, inv.InvoiceNumber),
			Before:      map[string]any{"status": po.Status},
			After:       map[string]any{"status": models.POStatusConverted, "invoiceId": inv.ID},
		}); err != nil {
			return err
		}
		return audit.WriteLog(audit.LogOptions{
			Tx:          tx,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "purchase_invoice",
			EntityID:    inv.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Purchase invoice created: %s", inv.InvoiceNumber),
			After:       inv,
		})
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func loadOrder(db *gorm.DB, po *models.PurchaseOrder, id uint) error {
	err := db.Preload("Supplier").
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id asc") }).
		Preload("Items.InventoryItem").
		Preload("Files", func(q *gorm.DB) *gorm.DB { return q.Order("id asc") }).
		First(po, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOrderNotFound
	}
	return err
}

func Get(ctx context.Context, id uint) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	if err := loadOrder(database.DB.WithContext(ctx), &po, id); err != nil {
		return nil, err
	}
	return &po, nil
}

// List returns orders matching every set filter, newest first.
func List(ctx context.Context, f Filter) ([]models.PurchaseOrder, error) {
	q := database.DB.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Select("purchase_orders.*").
		Joins("LEFT JOIN suppliers ON suppliers.id = purchase_orders.supplier_id").
		Preload("Supplier")

	if f.Status != "" {
		q = q.Where("purchase_orders.status = ?", f.Status)
	}
	if f.SupplierID != 0 {
		q = q.Where("purchase_orders.supplier_id = ?", f.SupplierID)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := database.Contains(s)
		q = q.Where(`(LOWER(purchase_orders.po_number) LIKE ? ESCAPE '\' OR LOWER(suppliers.name) LIKE ? ESCAPE '\')`, like, like)
	}

	orders := []models.PurchaseOrder{}
	if err := q.Order("purchase_orders.created_at desc, purchase_orders.id desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// DeleteFile removes the attachment row and returns it so the caller can drop the file on disk.
func DeleteFile(ctx context.Context, actor auth.Actor, poID, fileID uint) (*models.PurchaseOrderFile, error) {
	var file models.PurchaseOrderFile

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&file, "id = ? AND po_id = ?", fileID, poID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFileNotFound
			}
			return err
		}
		if err := tx.Delete(&file).Error; err != nil {
			return fmt.Errorf("file record could not be deleted: %w", err)
		}
		return audit.WriteLog(audit.LogOptions{
			Tx:          tx,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  entityType,
			EntityID:    poID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Attachment removed: %s", file.OriginalName),
			Before:      file,
		})
	})
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func ListInvoices(ctx context.Context, supplierID uint) ([]models.PurchaseInvoice, error) {
	q := database.DB.WithContext(ctx).Model(&models.PurchaseInvoice{})
	if supplierID != 0 {
		q = q.Where("supplier_id = ?", supplierID)
	}
	invoices := []models.PurchaseInvoice{}
	if err := q.Order("invoice_date desc, id desc").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func GetInvoice(ctx context.Context, id uint) (*models.PurchaseInvoice, error) {
	var inv models.PurchaseInvoice
	err := database.DB.WithContext(ctx).
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id asc") }).
		First(&inv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
