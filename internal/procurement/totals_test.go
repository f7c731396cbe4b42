package procurement

import (
	"testing"

	"bizops-backend/internal/models"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func uintPtr(v uint) *uint { return &v }

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name                 string
		lines                []LineInput
		subtotal, tax, total string
	}{
		{
			name: "two lines with and without tax",
			lines: []LineInput{
				{ItemType: models.LineItemProduct, InventoryItemID: uintPtr(1), Quantity: 2, UnitPrice: d("10"), TaxRate: d("10")},
				{ItemType: models.LineItemService, Description: "Install", Quantity: 1, UnitPrice: d("5"), TaxRate: d("0")},
			},
			subtotal: "25", tax: "2", total: "27",
		},
		{
			name:     "no lines",
			subtotal: "0", tax: "0", total: "0",
		},
		{
			name: "tax rounded per line",
			lines: []LineInput{
				{ItemType: models.LineItemService, Description: "a", Quantity: 3, UnitPrice: d("0.33"), TaxRate: d("7.5")},
				{ItemType: models.LineItemService, Description: "b", Quantity: 1, UnitPrice: d("19.99"), TaxRate: d("15")},
			},
			// 0.99 -> tax 0.07425 ≈ 0.07 ; 19.99 -> tax 2.9985 ≈ 3.00
			subtotal: "20.98", tax: "3.07", total: "24.05",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.lines)
			if !got.Subtotal.Equal(d(tt.subtotal)) {
				t.Errorf("subtotal = %s, want %s", got.Subtotal, tt.subtotal)
			}
			if !got.TaxAmount.Equal(d(tt.tax)) {
				t.Errorf("tax = %s, want %s", got.TaxAmount, tt.tax)
			}
			if !got.TotalAmount.Equal(d(tt.total)) {
				t.Errorf("total = %s, want %s", got.TotalAmount, tt.total)
			}
		})
	}
}

func TestValidateLine(t *testing.T) {
	tests := []struct {
		name string
		line LineInput
		ok   bool
	}{
		{"product ok", LineInput{ItemType: models.LineItemProduct, InventoryItemID: uintPtr(3), Quantity: 1, UnitPrice: d("1"), TaxRate: d("0")}, true},
		{"product without item", LineInput{ItemType: models.LineItemProduct, Quantity: 1, UnitPrice: d("1")}, false},
		{"service without description", LineInput{ItemType: models.LineItemService, Description: "  ", Quantity: 1, UnitPrice: d("1")}, false},
		{"zero quantity", LineInput{ItemType: models.LineItemService, Description: "x", Quantity: 0, UnitPrice: d("1")}, false},
		{"negative price", LineInput{ItemType: models.LineItemService, Description: "x", Quantity: 1, UnitPrice: d("-1")}, false},
		{"free line", LineInput{ItemType: models.LineItemService, Description: "x", Quantity: 1, UnitPrice: d("0")}, true},
		{"tax over 100", LineInput{ItemType: models.LineItemService, Description: "x", Quantity: 1, UnitPrice: d("1"), TaxRate: d("100.5")}, false},
		{"unknown type", LineInput{ItemType: "gift", Quantity: 1, UnitPrice: d("1")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLine(0, tt.line)
			if (err == nil) != tt.ok {
				t.Errorf("validateLine err = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	allowed := map[[2]models.PurchaseOrderStatus]bool{
		{models.POStatusDraft, models.POStatusPendingApproval}:    true,
		{models.POStatusPendingApproval, models.POStatusApproved}: true,
		{models.POStatusPendingApproval, models.POStatusRejected}: true,
		{models.POStatusApproved, models.POStatusConverted}:       true,
	}
	all := []models.PurchaseOrderStatus{
		models.POStatusDraft, models.POStatusPendingApproval, models.POStatusApproved,
		models.POStatusRejected, models.POStatusConverted,
	}
	for _, from := range all {
		for _, to := range all {
			if got := from.CanTransitionTo(to); got != allowed[[2]models.PurchaseOrderStatus{from, to}] {
				t.Errorf("%s -> %s = %v", from, to, got)
			}
		}
	}
	if !models.POStatusRejected.Terminal() || !models.POStatusConverted.Terminal() {
		t.Error("rejected and converted must be terminal")
	}
	if models.POStatusDraft.Terminal() {
		t.Error("draft must not be terminal")
	}
}
