package procurement

import (
	"encoding/json"
	"mime/multipart"
	"strconv"
	"strings"

	"bizops-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// orderRequest is the JSON body of create/update. Multipart requests carry
// the same fields as form values, with items as a JSON string.
type orderRequest struct {
	SupplierID           uint        `json:"supplierId"`
	OrderDate            string      `json:"orderDate"`
	ExpectedDeliveryDate string      `json:"expectedDeliveryDate"`
	PaymentTerms         string      `json:"paymentTerms"`
	DeliveryTerms        string      `json:"deliveryTerms"`
	BankAccount          string      `json:"bankAccount"`
	Notes                string      `json:"notes"`
	Items                []LineInput `json:"items"`

	Subtotal    *decimal.Decimal `json:"subtotal"`
	TaxAmount   *decimal.Decimal `json:"taxAmount"`
	TotalAmount *decimal.Decimal `json:"totalAmount"`
}

func (r orderRequest) input() (OrderInput, error) {
	orderDate, err := validation.Date("orderDate", r.OrderDate)
	if err != nil {
		return OrderInput{}, err
	}
	delivery, err := validation.Date("expectedDeliveryDate", r.ExpectedDeliveryDate)
	if err != nil {
		return OrderInput{}, err
	}
	return OrderInput{
		SupplierID:           r.SupplierID,
		OrderDate:            orderDate,
		ExpectedDeliveryDate: delivery,
		PaymentTerms:         r.PaymentTerms,
		DeliveryTerms:        r.DeliveryTerms,
		BankAccount:          r.BankAccount,
		Notes:                r.Notes,
		Items:                r.Items,
		Subtotal:             r.Subtotal,
		TaxAmount:            r.TaxAmount,
		TotalAmount:          r.TotalAmount,
	}, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// parseOrder reads a create/update request and returns its attachments, if any.
func parseOrder(c *fiber.Ctx) (OrderInput, []*multipart.FileHeader, error) {
	if !isMultipart(c) {
		var body orderRequest
		if err := c.BodyParser(&body); err != nil {
			return OrderInput{}, nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		in, err := body.input()
		return in, nil, err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return OrderInput{}, nil, fiber.NewError(fiber.StatusBadRequest, "Invalid form data")
	}
	body, err := orderFromForm(form)
	if err != nil {
		return OrderInput{}, nil, err
	}
	in, err := body.input()
	return in, form.File["files"], err
}

func orderFromForm(form *multipart.Form) (orderRequest, error) {
	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	var body orderRequest
	if s := value("supplierId"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return body, fiber.NewError(fiber.StatusBadRequest, "supplierId must be a number")
		}
		body.SupplierID = uint(id)
	}
	body.OrderDate = value("orderDate")
	body.ExpectedDeliveryDate = value("expectedDeliveryDate")
	body.PaymentTerms = value("paymentTerms")
	body.DeliveryTerms = value("deliveryTerms")
	body.BankAccount = value("bankAccount")
	body.Notes = value("notes")

	if s := value("items"); s != "" {
		if err := json.Unmarshal([]byte(s), &body.Items); err != nil {
			return body, fiber.NewError(fiber.StatusBadRequest, "items must be a JSON array")
		}
	}

	for key, dst := range map[string]**decimal.Decimal{
		"subtotal":    &body.Subtotal,
		"taxAmount":   &body.TaxAmount,
		"totalAmount": &body.TotalAmount,
	} {
		if s := value(key); s != "" {
			v, err := decimal.NewFromString(s)
			if err != nil {
				return body, fiber.NewError(fiber.StatusBadRequest, key+" must be a number")
			}
			*dst = &v
		}
	}
	return body, nil
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type convertRequest struct {
	InvoiceDate string `json:"invoiceDate"`
	DueDate     string `json:"dueDate"`
	Partial     bool   `json:"partial"`
}

func (r convertRequest) input() (ConvertInput, error) {
	invoiceDate, err := validation.Date("invoiceDate", r.InvoiceDate)
	if err != nil {
		return ConvertInput{}, err
	}
	dueDate, err := validation.Date("dueDate", r.DueDate)
	if err != nil {
		return ConvertInput{}, err
	}
	return ConvertInput{InvoiceDate: invoiceDate, DueDate: dueDate, Partial: r.Partial}, nil
}
