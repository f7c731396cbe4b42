package procurement

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"bizops-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

var exportHeader = []any{
	"PO Number", "Supplier", "Status", "Order Date", "Expected Delivery",
	"Subtotal", "Tax", "Total", "Rejection Reason",
}

// buildExport writes one row per order into a single-sheet workbook.
func buildExport(orders []models.PurchaseOrder) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Purchase Orders"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return nil, err
	}

	for i, po := range orders {
		supplier := ""
		if po.Supplier != nil {
			supplier = po.Supplier.Name
		}
		delivery := ""
		if po.ExpectedDeliveryDate != nil {
			delivery = po.ExpectedDeliveryDate.Format("2006-01-02")
		}
		row := []any{
			po.PONumber,
			supplier,
			string(po.Status),
			po.OrderDate.Format("2006-01-02"),
			delivery,
			po.Subtotal.InexactFloat64(),
			po.TaxAmount.InexactFloat64(),
			po.TotalAmount.InexactFloat64(),
			po.RejectionReason,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(sheet, "A", "B", 24); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "C", "I", 16); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// GET /api/purchase-orders/export?status=&supplierId=&search=
func ExportOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := filterFromQuery(c)
		if err != nil {
			return err
		}
		orders, err := List(c.UserContext(), filter)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch purchase orders")
		}

		buf, err := buildExport(orders)
		if err != nil {
			log.Printf("[WARN] purchase order export failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Export could not be generated")
		}

		name := fmt.Sprintf("purchase-orders-%s.xlsx", time.Now().Format("20060102"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
		return c.Send(buf.Bytes())
	}
}
