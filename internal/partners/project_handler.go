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

type ProjectRequest struct {
	Title      string               `json:"title" validate:"required,max=200"`
	CustomerID uint                 `json:"customerId" validate:"required"`
	Status     models.ProjectStatus `json:"status" validate:"omitempty,oneof=planned in_progress completed"`
	Location   string               `json:"location" validate:"max=200"`
}

type ProjectResponse struct {
	models.Project
	CustomerName string `json:"customerName"`
}

func toProjectResponse(p models.Project) ProjectResponse {
	resp := ProjectResponse{Project: p}
	if p.Customer != nil {
		resp.CustomerName = p.Customer.Name
	}
	resp.Customer = nil
	return resp
}

func parseProject(c *fiber.Ctx) (ProjectRequest, error) {
	var body ProjectRequest
	if err := c.BodyParser(&body); err != nil {
		return body, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	body.Title = strings.TrimSpace(body.Title)
	body.Location = strings.TrimSpace(body.Location)
	if err := validation.Struct(body); err != nil {
		return body, err
	}

	var count int64
	if err := database.DB.WithContext(c.UserContext()).Model(&models.Customer{}).Where("id = ?", body.CustomerID).Count(&count).Error; err != nil {
		return body, err
	}
	if count == 0 {
		return body, fiber.NewError(fiber.StatusBadRequest, "Customer not found")
	}
	return body, nil
}

func findProject(c *fiber.Ctx) (*models.Project, error) {
	id, err := validation.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	var project models.Project
	if err := database.DB.WithContext(c.UserContext()).Preload("Customer").First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Project not found")
		}
		return nil, err
	}
	return &project, nil
}

// GET /api/projects?customerId=
func ListProjectsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		customerID, err := validation.QueryID(c, "customerId")
		if err != nil {
			return err
		}

		dbq := database.DB.WithContext(c.UserContext()).Preload("Customer")
		if customerID != 0 {
			dbq = dbq.Where("customer_id = ?", customerID)
		}
		if status := c.Query("status"); status != "" && status != "all" {
			dbq = dbq.Where("status = ?", status)
		}

		var projects []models.Project
		if err := dbq.Order("created_at desc, id desc").Find(&projects).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch projects")
		}

		resp := make([]ProjectResponse, 0, len(projects))
		for _, p := range projects {
			resp = append(resp, toProjectResponse(p))
		}
		return c.JSON(resp)
	}
}

// GET /api/projects/:id
func GetProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		project, err := findProject(c)
		if err != nil {
			return err
		}
		return c.JSON(toProjectResponse(*project))
	}
}

// POST /api/projects
func CreateProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		body, err := parseProject(c)
		if err != nil {
			return err
		}
		if body.Status == "" {
			body.Status = models.ProjectStatusPlanned
		}

		project := models.Project{
			Title:      body.Title,
			CustomerID: body.CustomerID,
			Status:     body.Status,
			Location:   body.Location,
		}
		if err := database.DB.WithContext(c.UserContext()).Create(&project).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Project could not be created")
		}

		audit.LogQuietly(audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "project",
			EntityID:    project.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Project created: %s", project.Title),
			After:       project,
		})

		database.DB.Preload("Customer").First(&project, project.ID)
		return c.Status(fiber.StatusCreated).JSON(toProjectResponse(project))
	}
}

// PUT /api/projects/:id
func UpdateProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		project, err := findProject(c)
		if err != nil {
			return err
		}
		body, err := parseProject(c)
		if err != nil {
			return err
		}

		before := *project
		before.Customer = nil

		fields := map[string]any{
			"title":       body.Title,
			"customer_id": body.CustomerID,
			"location":    body.Location,
		}
		if body.Status != "" {
			fields["status"] = body.Status
		}
		if err := database.DB.WithContext(c.UserContext()).Model(project).Updates(fields).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Project could not be updated")
		}

		if err := database.DB.Preload("Customer").First(project, project.ID).Error; err != nil {
			return err
		}

		audit.LogQuietly(audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "project",
			EntityID:    project.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Project updated: %s", project.Title),
			Before:      before,
			After:       toProjectResponse(*project).Project,
		})

		return c.JSON(toProjectResponse(*project))
	}
}
