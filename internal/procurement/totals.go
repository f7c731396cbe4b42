package procurement

import (
	"fmt"
	"strings"

	"bizops-backend/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineInput is one submitted order line. Amounts derived from it are always
// recomputed here; client-side figures are never stored.
type LineInput struct {
	ItemType        models.LineItemType `json:"itemType"`
	InventoryItemID *uint               `json:"inventoryItemId"`
	Description     string              `json:"description"`
	Quantity        int64               `json:"quantity"`
	UnitPrice       decimal.Decimal     `json:"unitPrice"`
	TaxRate         decimal.Decimal     `json:"taxRate"`
}

type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// LineAmounts returns quantity × unitPrice and that amount's tax, both in cents.
func LineAmounts(l LineInput) (lineTotal, tax decimal.Decimal) {
	lineTotal = decimal.NewFromInt(l.Quantity).Mul(l.UnitPrice).Round(2)
	tax = lineTotal.Mul(l.TaxRate).Div(hundred).Round(2)
	return lineTotal, tax
}

func ComputeTotals(lines []LineInput) Totals {
	t := Totals{Subtotal: decimal.Zero, TaxAmount: decimal.Zero}
	for _, l := range lines {
		lineTotal, tax := LineAmounts(l)
		t.Subtotal = t.Subtotal.Add(lineTotal)
		t.TaxAmount = t.TaxAmount.Add(tax)
	}
	t.TotalAmount = t.Subtotal.Add(t.TaxAmount)
	return t
}

// validateLine checks the shape of a line; references are checked against the DB separately.
func validateLine(i int, l LineInput) error {
	n := i + 1
	switch l.ItemType {
	case models.LineItemProduct:
		if l.InventoryItemID == nil || *l.InventoryItemID == 0 {
			return ValidationError(fmt.Sprintf("Item %d: please select an inventory item", n))
		}
	case models.LineItemService:
		if strings.TrimSpace(l.Description) == "" {
			return ValidationError(fmt.Sprintf("Item %d: description is required for a service", n))
		}
	default:
		return ValidationError(fmt.Sprintf("Item %d: itemType must be product or service", n))
	}

	if l.Quantity <= 0 {
		return ValidationError(fmt.Sprintf("Item %d: quantity must be greater than 0", n))
	}
	if l.UnitPrice.IsNegative() {
		return ValidationError(fmt.Sprintf("Item %d: unit price cannot be negative", n))
	}
	if l.TaxRate.IsNegative() || l.TaxRate.GreaterThan(hundred) {
		return ValidationError(fmt.Sprintf("Item %d: tax rate must be between 0 and 100", n))
	}
	return nil
}

func buildItems(lines []LineInput) []models.PurchaseOrderItem {
	items := make([]models.PurchaseOrderItem, 0, len(lines))
	for _, l := range lines {
		lineTotal, tax := LineAmounts(l)
		item := models.PurchaseOrderItem{
			ItemType:    l.ItemType,
			Description: strings.TrimSpace(l.Description),
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
			TaxAmount:   tax,
			LineTotal:   lineTotal,
		}
		if l.ItemType == models.LineItemProduct {
			item.InventoryItemID = l.InventoryItemID
		}
		items = append(items, item)
	}
	return items
}
