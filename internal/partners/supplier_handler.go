package partners

import (
	"errors"
	"fmt"
	"strings"

	"bizops-backend/internal/audit"
	"bizops-backend/internal/auth"
	"bizops-backend/internal/database"
	"bizops-backend/internal/models"
	"bizops-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SupplierRequest struct {
	Name               string                       `json:"name" validate:"required,max=200"`
	ContactPerson      string                       `json:"contactPerson" validate:"max=150"`
	Email              string                       `json:"email" validate:"omitempty,email"`
	Phone              string                       `json:"phone" validate:"max=30"`
	Address            string                       `json:"address" validate:"max=255"`
	BankAccountDetails []models.SupplierBankAccount `json:"bankAccountDetails" validate:"dive"`
	IsActive           *bool                        `json:"isActive"`
}

func parseSupplier(c *fiber.Ctx) (SupplierRequest, error) {
	var body SupplierRequest
	if err := c.BodyParser(&body); err != nil {
		return body, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	body.Name = strings.TrimSpace(body.Name)
	body.ContactPerson = strings.TrimSpace(body.ContactPerson)
	body.Email = strings.TrimSpace(strings.ToLower(body.Email))
	body.Phone = strings.TrimSpace(body.Phone)
	body.Address = strings.TrimSpace(body.Address)
	if err := validation.Struct(body); err != nil {
		return body, err
	}
	for i, acc := range body.BankAccountDetails {
		if strings.TrimSpace(acc.BankName) == "" || strings.TrimSpace(acc.AccountNumber) == "" {
			return body, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Bank account %d: bank name and account number are required", i+1))
		}
	}
	return body, nil
}

func bankAccounts(in []models.SupplierBankAccount) datatypes.JSONSlice[models.SupplierBankAccount] {
	if in == nil {
		in = []models.SupplierBankAccount{}
	}
	return datatypes.NewJSONSlice(in)
}

func findSupplier(c *fiber.Ctx) (*models.Supplier, error) {
	id, err := validation.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	var supplier models.Supplier
	if err := database.DB.WithContext(c.UserContext()).First(&supplier, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}
		return nil, err
	}
	return &supplier, nil
}

// GET /api/suppliers?search= (active only)
// GET /api/suppliers/all      (including inactive, for dropdowns of old orders)
func ListSuppliersHandler(includeInactive bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.WithContext(c.UserContext()).Model(&models.Supplier{})
		if !includeInactive {
			dbq = dbq.Where("is_active = ?", true)
		}
		if s := strings.ToLower(strings.TrimSpace(c.Query("search"))); s != "" {
			like := database.Contains(s)
			dbq = dbq.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(contact_person) LIKE ? ESCAPE '\'`, like, like)
		}

		suppliers := []models.Supplier{}
		if err := dbq.Order("name asc").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch suppliers")
		}
		return c.JSON(suppliers)
	}
}

// GET /api/suppliers/:id
func GetSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		supplier, err := findSupplier(c)
		if err != nil {
			return err
		}
		return c.JSON(supplier)
	}
}

// POST /api/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		body, err := parseSupplier(c)
		if err != nil {
			return err
		}

		supplier := models.Supplier{
			Name:               body.Name,
			ContactPerson:      body.ContactPerson,
			Email:              body.Email,
			Phone:              body.Phone,
			Address:            body.Address,
			BankAccountDetails: bankAccounts(body.BankAccountDetails),
			IsActive:           true,
		}
		if body.IsActive != nil {
			supplier.IsActive = *body.IsActive
		}
		if err := database.DB.WithContext(c.UserContext()).Create(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Supplier could not be created")
		}

		audit.LogQuietly(audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "supplier",
			EntityID:    supplier.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Supplier created: %s", supplier.Name),
			After:       supplier,
		})

		return c.Status(fiber.StatusCreated).JSON(supplier)
	}
}

// PUT /api/suppliers/:id
func UpdateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		supplier, err := findSupplier(c)
		if err != nil {
			return err
		}
		body, err := parseSupplier(c)
		if err != nil {
			return err
		}

		before := *supplier
		supplier.Name = body.Name
		supplier.ContactPerson = body.ContactPerson
		supplier.Email = body.Email
		supplier.Phone = body.Phone
		supplier.Address = body.Address
		supplier.BankAccountDetails = bankAccounts(body.BankAccountDetails)
		if body.IsActive != nil {
			supplier.IsActive = *body.IsActive
		}

		if err := database.DB.WithContext(c.UserContext()).Save(supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Supplier could not be updated")
		}

		audit.LogQuietly(audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "supplier",
			EntityID:    supplier.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Supplier updated: %s", supplier.Name),
			Before:      before,
			After:       supplier,
		})

		return c.JSON(supplier)
	}
}
