// Package partners serves customers, their projects and suppliers.
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
	"gorm.io/gorm"
)

type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=150"`
	Phone   string `json:"phone" validate:"required,max=30"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"max=255"`
}

func (r *CustomerRequest) trim() {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	r.Address = strings.TrimSpace(r.Address)
}

// phoneTaken reports whether another customer already uses phone.
func phoneTaken(phone string, exceptID uint) (bool, error) {
	var count int64
	err := database.DB.Model(&models.Customer{}).
		Where("phone = ? AND id <> ?", phone, exceptID).
		Count(&count).Error
	return count > 0, err
}

func findCustomer(c *fiber.Ctx) (*models.Customer, error) {
	id, err := validation.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	var customer models.Customer
	if err := database.DB.WithContext(c.UserContext()).First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Customer not found")
		}
		return nil, err
	}
	return &customer, nil
}

// GET /api/customers?search=
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.WithContext(c.UserContext()).Model(&models.Customer{})
		if s := strings.ToLower(strings.TrimSpace(c.Query("search"))); s != "" {
			like := database.Contains(s)
			dbq = dbq.Where(`LOWER(name) LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\'`, like, like)
		}

		customers := []models.Customer{}
		if err := dbq.Order("name asc").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch customers")
		}
		return c.JSON(customers)
	}
}

// GET /api/customers/:id
func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		customer, err := findCustomer(c)
		if err != nil {
			return err
		}
		return c.JSON(customer)
	}
}

// POST /api/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}

		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.trim()
		if err := validation.Struct(body); err != nil {
			return err
		}

		taken, err := phoneTaken(body.Phone, 0)
		if err != nil {
			return err
		}
		if taken {
			return fiber.NewError(fiber.StatusBadRequest, "Phone number already exists")
		}

		customer := models.Customer{
			Name:    body.Name,
			Phone:   body.Phone,
			Email:   body.Email,
			Address: body.Address,
		}
		if err := database.DB.WithContext(c.UserContext()).Create(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Customer could not be created")
		}

		audit.LogQuietly(audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "customer",
			EntityID:    customer.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Customer created: %s", customer.Name),
			After:       customer,
		})

		return c.Status(fiber.StatusCreated).JSON(customer)
	}
}

// PUT /api/customers/:id
func UpdateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		customer, err := findCustomer(c)
		if err != nil {
			return err
		}

		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.trim()
		if err := validation.Struct(body); err != nil {
			return err
		}

		taken, err := phoneTaken(body.Phone, customer.ID)
		if err != nil {
			return err
		}
		if taken {
			return fiber.NewError(fiber.StatusBadRequest, "Phone number already exists")
		}

		before := *customer
		customer.Name = body.Name
		customer.Phone = body.Phone
		customer.Email = body.Email
		customer.Address = body.Address

		if err := database.DB.WithContext(c.UserContext()).Save(customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Customer could not be updated")
		}

		audit.LogQuietly(audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "customer",
			EntityID:    customer.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Customer updated: %s", customer.Name),
			Before:      before,
			After:       customer,
		})

		return c.JSON(customer)
	}
}

// DELETE /api/customers/:id
func DeleteCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		customer, err := findCustomer(c)
		if err != nil {
			return err
		}

		var projects int64
		if err := database.DB.Model(&models.Project{}).Where("customer_id = ?", customer.ID).Count(&projects).Error; err != nil {
			return err
		}
		if projects > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Customer has projects and cannot be deleted")
		}

		if err := database.DB.WithContext(c.UserContext()).Delete(customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Customer could not be deleted")
		}

		audit.LogQuietly(audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "customer",
			EntityID:    customer.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Customer deleted: %s", customer.Name),
			Before:      customer,
		})

		return c.JSON(fiber.Map{"message": "Customer deleted"})
	}
}
