package procurement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"bizops-backend/internal/auth"
	"bizops-backend/internal/database"
	"bizops-backend/internal/models"
	"bizops-backend/internal/testutil"
)

type fixture struct {
	actor    auth.Actor
	supplier models.Supplier
	item     models.InventoryItem
}

func setup(t *testing.T) fixture {
	t.Helper()
	testutil.SetupDB(t)

	user, _ := testutil.CreateUser(t, models.RoleAdmin)
	f := fixture{
		actor:    auth.Actor{ID: user.ID, Name: user.Name, Role: user.Role},
		supplier: models.Supplier{Name: "Acme Supplies", IsActive: true},
		item:     models.InventoryItem{Name: "Cable", Unit: "m", Quantity: 5},
	}
	testutil.MustCreate(t, &f.supplier)
	testutil.MustCreate(t, &f.item)
	return f
}

func (f fixture) input() OrderInput {
	wrong := d("999")
	return OrderInput{
		SupplierID: f.supplier.ID,
		Items: []LineInput{
			{ItemType: models.LineItemProduct, InventoryItemID: &f.item.ID, Quantity: 2, UnitPrice: d("10"), TaxRate: d("10")},
			{ItemType: models.LineItemService, Description: "Installation", Quantity: 1, UnitPrice: d("5"), TaxRate: d("0")},
		},
		TotalAmount: &wrong,
	}
}

func TestCreateComputesTotalsServerSide(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	po, err := Create(ctx, f.actor, f.input(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if po.Status != models.POStatusDraft {
		t.Errorf("status = %s, want draft", po.Status)
	}
	wantPrefix := fmt.Sprintf("PO-%d-", time.Now().Year())
	if po.PONumber != wantPrefix+"000001" {
		t.Errorf("poNumber = %s", po.PONumber)
	}

	got, err := Get(ctx, po.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Subtotal.Equal(d("25")) || !got.TaxAmount.Equal(d("2")) || !got.TotalAmount.Equal(d("27")) {
		t.Errorf("totals = %s/%s/%s, want 25/2/27", got.Subtotal, got.TaxAmount, got.TotalAmount)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(got.Items))
	}
	if got.Items[0].InventoryItem == nil || got.Items[0].InventoryItem.Name != "Cable" {
		t.Error("product line should preload its inventory item")
	}
	if got.Supplier == nil || got.Supplier.Name != "Acme Supplies" {
		t.Error("supplier should be preloaded")
	}

	second, err := Create(ctx, f.actor, f.input(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if second.PONumber != wantPrefix+"000002" {
		t.Errorf("second poNumber = %s", second.PONumber)
	}
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	missing := uint(9999)
	tests := []struct {
		name   string
		mutate func(*OrderInput)
		want   string
	}{
		{"no supplier", func(in *OrderInput) { in.SupplierID = 0 }, "supplier"},
		{"unknown supplier", func(in *OrderInput) { in.SupplierID = 4242 }, "Supplier not found"},
		{"no items", func(in *OrderInput) { in.Items = nil }, "at least one item"},
		{"unknown inventory item", func(in *OrderInput) { in.Items[0].InventoryItemID = &missing }, "inventory item not found"},
		{"zero quantity", func(in *OrderInput) { in.Items[1].Quantity = 0 }, "Item 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input()
			tt.mutate(&in)
			_, err := Create(ctx, f.actor, in, nil)
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if !strings.Contains(ve.Error(), tt.want) {
				t.Errorf("message %q does not mention %q", ve.Error(), tt.want)
			}
		})
	}

	var count int64
	database.DB.Model(&models.PurchaseOrder{}).Count(&count)
	if count != 0 {
		t.Errorf("%d orders written by rejected requests", count)
	}
}

func TestWorkflowToInvoice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	po, err := Create(ctx, f.actor, f.input(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Approve(ctx, f.actor, po.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("approve draft err = %v, want ErrInvalidTransition", err)
	}
	if _, err := ConvertToInvoice(ctx, f.actor, po.ID, ConvertInput{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("convert draft err = %v, want ErrInvalidTransition", err)
	}

	submitted, err := Submit(ctx, f.actor, po.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted.Status != models.POStatusPendingApproval || submitted.SubmittedAt == nil {
		t.Errorf("after submit: status=%s submittedAt=%v", submitted.Status, submitted.SubmittedAt)
	}
	if _, err := Update(ctx, f.actor, po.ID, f.input(), nil); !errors.Is(err, ErrNotEditable) {
		t.Errorf("update pending err = %v, want ErrNotEditable", err)
	}

	approved, err := Approve(ctx, f.actor, po.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != models.POStatusApproved || approved.ApprovedByID == nil || *approved.ApprovedByID != f.actor.ID {
		t.Errorf("after approve: %+v", approved)
	}

	due := time.Now().AddDate(0, 0, 30).UTC()
	inv, err := ConvertToInvoice(ctx, f.actor, po.ID, ConvertInput{DueDate: &due, Partial: true})
	if err != nil {
		t.Fatalf("ConvertToInvoice: %v", err)
	}
	if !strings.HasPrefix(inv.InvoiceNumber, fmt.Sprintf("PI-%d-", time.Now().Year())) {
		t.Errorf("invoiceNumber = %s", inv.InvoiceNumber)
	}
	if !inv.IsPartial || inv.DueDate == nil || !inv.TotalAmount.Equal(d("27")) || len(inv.Items) != 2 {
		t.Errorf("invoice = %+v", inv)
	}

	converted, err := Get(ctx, po.ID)
	if err != nil {
		t.Fatal(err)
	}
	if converted.Status != models.POStatusConverted {
		t.Errorf("status = %s, want converted", converted.Status)
	}
	if converted.ConvertedInvoiceID == nil || *converted.ConvertedInvoiceID != inv.ID {
		t.Errorf("convertedInvoiceId = %v, want %d", converted.ConvertedInvoiceID, inv.ID)
	}

	var item models.InventoryItem
	database.DB.First(&item, f.item.ID)
	if item.Quantity != 7 {
		t.Errorf("stock = %d, want 7", item.Quantity)
	}

	if _, err := ConvertToInvoice(ctx, f.actor, po.ID, ConvertInput{}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second convert err = %v, want ErrInvalidTransition", err)
	}

	var logs int64
	database.DB.Model(&models.AuditLog{}).Where("entity_type = ? AND entity_id = ?", "purchase_order", po.ID).Count(&logs)
	if logs != 4 {
		t.Errorf("audit entries = %d, want 4", logs)
	}
}

func TestRejectNeedsReason(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	po, err := Create(ctx, f.actor, f.input(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Submit(ctx, f.actor, po.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := Reject(ctx, f.actor, po.ID, "   "); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("blank reason err = %v", err)
	}
	rejected, err := Reject(ctx, f.actor, po.ID, "Over budget")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != models.POStatusRejected || rejected.RejectionReason != "Over budget" {
		t.Errorf("after reject: status=%s reason=%q", rejected.Status, rejected.RejectionReason)
	}
	if _, err := Approve(ctx, f.actor, po.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("approve rejected err = %v", err)
	}
}

func TestStaleTransitionIsRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	po, err := Create(ctx, f.actor, f.input(), nil)
	if err != nil {
		t.Fatal(err)
	}
	stale := *po

	if _, err := Submit(ctx, f.actor, po.ID); err != nil {
		t.Fatal(err)
	}

	err = transition(database.DB, &stale, models.POStatusPendingApproval, "submit", nil)
	if !errors.Is(err, ErrConcurrentUpdate) {
		t.Fatalf("err = %v, want ErrConcurrentUpdate", err)
	}
}

func TestUpdateReplacesLines(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	po, err := Create(ctx, f.actor, f.input(), nil)
	if err != nil {
		t.Fatal(err)
	}

	in := f.input()
	in.Items = in.Items[1:]
	in.Notes = "services only"
	updated, err := Update(ctx, f.actor, po.ID, in, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated.Items) != 1 || !updated.TotalAmount.Equal(d("5")) || updated.Notes != "services only" {
		t.Errorf("updated = items %d total %s notes %q", len(updated.Items), updated.TotalAmount, updated.Notes)
	}

	var lines int64
	database.DB.Model(&models.PurchaseOrderItem{}).Where("po_id = ?", po.ID).Count(&lines)
	if lines != 1 {
		t.Errorf("stored lines = %d, want 1", lines)
	}
}

func TestListFiltersCombine(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other := models.Supplier{Name: "Borealis Tools", IsActive: true}
	testutil.MustCreate(t, &other)

	a, _ := Create(ctx, f.actor, f.input(), nil) // acme, draft
	b, _ := Create(ctx, f.actor, f.input(), nil) // acme, pending
	if _, err := Submit(ctx, f.actor, b.ID); err != nil {
		t.Fatal(err)
	}
	in := f.input()
	in.SupplierID = other.ID
	c, _ := Create(ctx, f.actor, in, nil) // borealis, pending
	if _, err := Submit(ctx, f.actor, c.ID); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []uint
	}{
		{"no filter", Filter{}, []uint{c.ID, b.ID, a.ID}},
		{"status only", Filter{Status: models.POStatusPendingApproval}, []uint{c.ID, b.ID}},
		{"supplier only", Filter{SupplierID: f.supplier.ID}, []uint{b.ID, a.ID}},
		{"status and supplier", Filter{Status: models.POStatusPendingApproval, SupplierID: f.supplier.ID}, []uint{b.ID}},
		{"search supplier name", Filter{Search: "BOREALIS"}, []uint{c.ID}},
		{"search po number", Filter{Search: a.PONumber}, []uint{a.ID}},
		{"percent is literal", Filter{Search: "%"}, []uint{}},
		{"underscore is literal", Filter{Search: "_"}, []uint{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, err := List(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			got := make([]uint, 0, len(orders))
			for _, o := range orders {
				got = append(got, o.ID)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildExport(t *testing.T) {
	orders := []models.PurchaseOrder{{
		PONumber:    "PO-2026-000001",
		Supplier:    &models.Supplier{Name: "Acme"},
		Status:      models.POStatusApproved,
		OrderDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		TotalAmount: d("27"),
	}}
	buf, err := buildExport(orders)
	if err != nil {
		t.Fatalf("buildExport: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty workbook")
	}
}
