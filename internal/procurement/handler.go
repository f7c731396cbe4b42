package procurement

import (
	"errors"
	"log"

	"bizops-backend/internal/auth"
	"bizops-backend/internal/models"
	"bizops-backend/internal/storage"
	"bizops-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const uploadSub = "purchase-orders"

type OrderItemResponse struct {
	models.PurchaseOrderItem
	InventoryItemName string `json:"inventoryItemName,omitempty"`
	Unit              string `json:"unit,omitempty"`
}

type OrderResponse struct {
	models.PurchaseOrder
	SupplierName string              `json:"supplierName"`
	Items        []OrderItemResponse `json:"items"`
}

func toOrderResponse(po models.PurchaseOrder) OrderResponse {
	resp := OrderResponse{PurchaseOrder: po, Items: make([]OrderItemResponse, 0, len(po.Items))}
	if po.Supplier != nil {
		resp.SupplierName = po.Supplier.Name
	}
	if resp.Files == nil {
		resp.Files = []models.PurchaseOrderFile{}
	}
	for _, it := range po.Items {
		item := OrderItemResponse{PurchaseOrderItem: it}
		if it.InventoryItem != nil {
			item.InventoryItemName = it.InventoryItem.Name
			item.Unit = it.InventoryItem.Unit
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

// httpError maps service errors onto status codes; anything else is a 500.
func httpError(err error) error {
	var ve ValidationError
	var te *TransitionError
	switch {
	case errors.As(err, &ve):
		return fiber.NewError(fiber.StatusBadRequest, ve.Error())
	case errors.As(err, &te):
		return fiber.NewError(fiber.StatusBadRequest, te.Error())
	case errors.Is(err, ErrOrderNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Purchase order not found")
	case errors.Is(err, ErrInvoiceNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Purchase invoice not found")
	case errors.Is(err, ErrFileNotFound):
		return fiber.NewError(fiber.StatusNotFound, "File not found")
	case errors.Is(err, ErrReasonRequired):
		return fiber.NewError(fiber.StatusBadRequest, "Rejection reason is required")
	case errors.Is(err, ErrNotEditable):
		return fiber.NewError(fiber.StatusBadRequest, "Only draft purchase orders can be edited")
	case errors.Is(err, ErrConcurrentUpdate):
		return fiber.NewError(fiber.StatusConflict, "Purchase order was changed by someone else, reload and try again")
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	return err
}

// GET /api/purchase-orders?status=&supplierId=&search=
func ListOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filterFromQuery(c)
		if err != nil {
			return err
		}
		orders, err := List(c.UserContext(), f)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch purchase orders")
		}
		resp := make([]OrderResponse, 0, len(orders))
		for _, po := range orders {
			resp = append(resp, toOrderResponse(po))
		}
		return c.JSON(resp)
	}
}

func filterFromQuery(c *fiber.Ctx) (Filter, error) {
	var f Filter
	if s := c.Query("status"); s != "" && s != "all" {
		f.Status = models.PurchaseOrderStatus(s)
		if !f.Status.Valid() {
			return f, fiber.NewError(fiber.StatusBadRequest, "Unknown status filter")
		}
	}
	id, err := validation.QueryID(c, "supplierId")
	if err != nil {
		return f, err
	}
	f.SupplierID = id
	f.Search = c.Query("search")
	return f, nil
}

// GET /api/purchase-orders/:id
func GetOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		po, err := Get(c.UserContext(), id)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(toOrderResponse(*po))
	}
}

// POST /api/purchase-orders (admin, finance)
func CreateOrderHandler(disk *storage.Disk) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		in, uploads, err := parseOrder(c)
		if err != nil {
			return err
		}

		stored, err := disk.SaveAll(uploads, uploadSub, "po")
		if err != nil {
			return uploadError(err)
		}

		po, err := Create(c.UserContext(), actor, in, stored)
		if err != nil {
			disk.RemoveAll(uploadSub, stored)
			return httpError(err)
		}

		po, err = Get(c.UserContext(), po.ID)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(toOrderResponse(*po))
	}
}

// PUT /api/purchase-orders/:id (admin, finance; draft only)
func UpdateOrderHandler(disk *storage.Disk) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		in, uploads, err := parseOrder(c)
		if err != nil {
			return err
		}

		stored, err := disk.SaveAll(uploads, uploadSub, "po")
		if err != nil {
			return uploadError(err)
		}

		po, err := Update(c.UserContext(), actor, id, in, stored)
		if err != nil {
			disk.RemoveAll(uploadSub, stored)
			return httpError(err)
		}
		return c.JSON(toOrderResponse(*po))
	}
}

func uploadError(err error) error {
	if storage.UserError(err) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	log.Printf("[WARN] purchase order upload failed: %v", err)
	return fiber.NewError(fiber.StatusInternalServerError, "Files could not be saved")
}

// POST /api/purchase-orders/:id/submit
func SubmitOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		po, err := Submit(c.UserContext(), actor, id)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"message": "Purchase order submitted for approval", "purchaseOrder": toOrderResponse(*po)})
	}
}

// PATCH|POST /api/purchase-orders/:id/approve (admin)
func ApproveOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		po, err := Approve(c.UserContext(), actor, id)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"message": "Purchase order approved", "purchaseOrder": toOrderResponse(*po)})
	}
}

// PATCH|POST /api/purchase-orders/:id/reject (admin)
func RejectOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body rejectRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
			}
		}
		po, err := Reject(c.UserContext(), actor, id, body.Reason)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"message": "Purchase order rejected", "purchaseOrder": toOrderResponse(*po)})
	}
}

// POST /api/purchase-orders/:id/convert-to-invoice (admin, finance)
func ConvertOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body convertRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
			}
		}
		in, err := body.input()
		if err != nil {
			return err
		}

		inv, err := ConvertToInvoice(c.UserContext(), actor, id, in)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Purchase order converted to invoice " + inv.InvoiceNumber,
			"invoice": inv,
		})
	}
}

// DELETE /api/purchase-orders/:id/files/:fileId
func DeleteOrderFileHandler(disk *storage.Disk) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		fileID, err := validation.ParamID(c, "fileId")
		if err != nil {
			return err
		}

		file, err := DeleteFile(c.UserContext(), actor, id, fileID)
		if err != nil {
			return httpError(err)
		}
		if err := disk.Remove(uploadSub, file.FileName); err != nil {
			log.Printf("[WARN] attachment %s could not be removed from disk: %v", file.FileName, err)
		}
		return c.JSON(fiber.Map{"message": "File deleted"})
	}
}

// GET /api/purchase-invoices?supplierId=
func ListInvoicesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		supplierID, err := validation.QueryID(c, "supplierId")
		if err != nil {
			return err
		}
		invoices, err := ListInvoices(c.UserContext(), supplierID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch purchase invoices")
		}
		return c.JSON(invoices)
	}
}

// GET /api/purchase-invoices/:id
func GetInvoiceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		inv, err := GetInvoice(c.UserContext(), id)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(inv)
	}
}
