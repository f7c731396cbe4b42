package maintenance

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bizops-backend/internal/assets"
	"bizops-backend/internal/audit"
	"bizops-backend/internal/auth"
	"bizops-backend/internal/database"
	"bizops-backend/internal/models"
	"bizops-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type AssetRef struct {
	AssetTag string `json:"assetTag"`
	Location string `json:"location"`
}

type AssetTypeRef struct {
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
}

type RecordResponse struct {
	models.MaintenanceRecord
	AssetInstance *AssetRef     `json:"assetInstance"`
	AssetType     *AssetTypeRef `json:"assetType"`
}

func toRecordResponse(rec models.MaintenanceRecord) RecordResponse {
	resp := RecordResponse{MaintenanceRecord: rec}
	if inst := rec.Instance; inst != nil {
		resp.AssetInstance = &AssetRef{AssetTag: inst.AssetTag, Location: inst.Location}
		if t := inst.AssetType; t != nil {
			resp.AssetType = &AssetTypeRef{Name: t.Name, Manufacturer: t.Manufacturer, Model: t.Model}
		}
	}
	return resp
}

func toRecordResponses(records []models.MaintenanceRecord) []RecordResponse {
	resp := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toRecordResponse(rec))
	}
	return resp
}

// recordRequest accepts JSON or form fields; ids and amounts may arrive as strings.
type recordRequest struct {
	AssetID         json.Number `json:"assetId"`
	MaintenanceType string      `json:"maintenanceType"`
	Description     *string     `json:"description"`
	MaintenanceDate string      `json:"maintenanceDate"`
	StartDate       string      `json:"startDate"`
	CompletedDate   string      `json:"completedDate"`
	MaintenanceCost json.Number `json:"maintenanceCost"`
}

func parseRecord(c *fiber.Ctx) (recordRequest, error) {
	var body recordRequest
	ct := c.Get(fiber.HeaderContentType)
	if strings.HasPrefix(ct, fiber.MIMEMultipartForm) || strings.HasPrefix(ct, fiber.MIMEApplicationForm) {
		body.AssetID = json.Number(strings.TrimSpace(c.FormValue("assetId")))
		body.MaintenanceType = c.FormValue("maintenanceType")
		if _, ok := formHas(c, "description"); ok {
			d := c.FormValue("description")
			body.Description = &d
		}
		body.MaintenanceDate = c.FormValue("maintenanceDate")
		body.StartDate = c.FormValue("startDate")
		body.CompletedDate = c.FormValue("completedDate")
		body.MaintenanceCost = json.Number(strings.TrimSpace(c.FormValue("maintenanceCost")))
		return body, nil
	}
	if len(c.Body()) == 0 {
		return body, nil
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return body, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return body, nil
}

func formHas(c *fiber.Ctx, key string) (string, bool) {
	if form, err := c.MultipartForm(); err == nil {
		if v, ok := form.Value[key]; ok && len(v) > 0 {
			return v[0], true
		}
		return "", false
	}
	v := c.FormValue(key)
	return v, v != ""
}

type recordFields struct {
	maintenanceType models.MaintenanceType
	maintenanceDate *time.Time
	startDate       *time.Time
	completedDate   *time.Time
	cost            *decimal.Decimal
}

func (r recordRequest) fields() (recordFields, error) {
	var f recordFields
	if t := strings.TrimSpace(r.MaintenanceType); t != "" {
		f.maintenanceType = models.MaintenanceType(t)
		if !f.maintenanceType.Valid() {
			return f, fiber.NewError(fiber.StatusBadRequest, "maintenanceType must be preventive, corrective or inspection")
		}
	}
	var err error
	if f.maintenanceDate, err = validation.Date("maintenanceDate", r.MaintenanceDate); err != nil {
		return f, err
	}
	if f.startDate, err = validation.Date("startDate", r.StartDate); err != nil {
		return f, err
	}
	if f.completedDate, err = validation.Date("completedDate", r.CompletedDate); err != nil {
		return f, err
	}
	if f.startDate != nil && f.completedDate != nil && f.completedDate.Before(*f.startDate) {
		return f, fiber.NewError(fiber.StatusBadRequest, "completedDate cannot be before startDate")
	}
	if s := r.MaintenanceCost.String(); s != "" {
		cost, err := decimal.NewFromString(s)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "maintenanceCost must be a number")
		}
		if cost.IsNegative() {
			return f, fiber.NewError(fiber.StatusBadRequest, "maintenanceCost cannot be negative")
		}
		cost = cost.Round(2)
		f.cost = &cost
	}
	return f, nil
}

func httpError(err error) error {
	if errors.Is(err, ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Maintenance record not found")
	}
	return err
}

// GET /api/maintenance-records?assetInstanceId=&archived=true|false|all
func ListRecordsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		instanceID, err := validation.QueryID(c, "assetInstanceId")
		if err != nil {
			return err
		}
		archived := ArchiveFilter(c.Query("archived", string(ArchiveActive)))
		switch archived {
		case ArchiveActive, ArchiveArchived, ArchiveAll:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "archived must be true, false or all")
		}

		records, err := List(c.UserContext(), Filter{InstanceID: instanceID, Archived: archived})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch maintenance records")
		}
		return c.JSON(toRecordResponses(records))
	}
}

// GET /api/maintenance-records/:id
func GetRecordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		rec, err := Get(c.UserContext(), id)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(toRecordResponse(*rec))
	}
}

// GET /api/maintenance/upcoming
func UpcomingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		records, err := Upcoming(c.UserContext(), time.Now(), assets.UpcomingWindow)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch upcoming maintenance")
		}
		return c.JSON(toRecordResponses(records))
	}
}

// POST /api/maintenance-records (JSON or form fields)
func CreateRecordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		body, err := parseRecord(c)
		if err != nil {
			return err
		}
		if body.AssetID == "" || body.MaintenanceCost == "" {
			return fiber.NewError(fiber.StatusBadRequest, "assetId and maintenanceCost are required")
		}
		assetID, err := body.AssetID.Int64()
		if err != nil || assetID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "assetId must be a number")
		}
		f, err := body.fields()
		if err != nil {
			return err
		}

		var count int64
		if err := database.DB.WithContext(c.UserContext()).Model(&models.AssetInstance{}).Where("id = ?", assetID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Asset instance not found")
		}

		rec := models.MaintenanceRecord{
			InstanceID:      uint(assetID),
			MaintenanceType: f.maintenanceType,
			MaintenanceDate: f.maintenanceDate,
			StartDate:       f.startDate,
			CompletedDate:   f.completedDate,
			MaintenanceCost: *f.cost,
			PerformedBy:     actor.ID,
		}
		if body.Description != nil {
			rec.Description = strings.TrimSpace(*body.Description)
		}

		if err := database.DB.WithContext(c.UserContext()).Create(&rec).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create maintenance record")
		}

		audit.LogQuietly(audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "maintenance_record",
			EntityID:    rec.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Maintenance recorded for asset %d", rec.InstanceID),
			After:       rec,
		})
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// PUT /api/maintenance-records/:id
// Only the fields present in the request change.
func UpdateRecordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		body, err := parseRecord(c)
		if err != nil {
			return err
		}
		f, err := body.fields()
		if err != nil {
			return err
		}

		var rec models.MaintenanceRecord
		if err := database.DB.WithContext(c.UserContext()).First(&rec, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Maintenance record not found")
		}
		before := rec

		updates := map[string]any{}
		if f.maintenanceType != "" {
			updates["maintenance_type"] = f.maintenanceType
		}
		if body.Description != nil {
			updates["description"] = strings.TrimSpace(*body.Description)
		}
		if f.maintenanceDate != nil {
			updates["maintenance_date"] = *f.maintenanceDate
		}
		if f.startDate != nil {
			updates["start_date"] = *f.startDate
		}
		if f.completedDate != nil {
			updates["completed_date"] = *f.completedDate
		}
		if f.cost != nil {
			updates["maintenance_cost"] = *f.cost
		}
		if len(updates) == 0 {
			return c.JSON(rec)
		}

		if err := database.DB.WithContext(c.UserContext()).Model(&rec).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update record")
		}
		if err := database.DB.WithContext(c.UserContext()).First(&rec, "id = ?", id).Error; err != nil {
			return err
		}

		audit.LogQuietly(audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "maintenance_record",
			EntityID:    rec.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Maintenance record %d updated", rec.ID),
			Before:      before,
			After:       rec,
		})
		return c.JSON(rec)
	}
}

// PUT /api/maintenance-record/:id/archive
// PUT /api/maintenance-record/:id/unarchive
func ArchiveHandler(archived bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		rec, err := SetArchived(c.UserContext(), id, archived)
		if err != nil {
			return httpError(err)
		}

		msg := "Maintenance record archived successfully"
		if !archived {
			msg = "Maintenance record unarchived successfully"
		}
		return c.JSON(fiber.Map{"message": msg, "record": rec})
	}
}
