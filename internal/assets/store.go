// Package assets tracks asset types, physical asset instances and their movements.
package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bizops-backend/internal/audit"
	"bizops-backend/internal/auth"
	"bizops-backend/internal/database"
	"bizops-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrDuplicateTag     = errors.New("asset tag already exists")
	ErrInstanceNotFound = errors.New("asset instance not found")
	ErrTypeNotFound     = errors.New("asset type not found")
)

// InputError is a rejected field value, rendered as 400.
type InputError string

func (e InputError) Error() string { return string(e) }

type InstanceFilter struct {
	Status       models.AssetStatus
	Category     string
	ProjectID    uint
	AssignedToID uint
}

type InstanceInput struct {
	AssetTag       string
	AssetTypeID    uint
	SerialNumber   string
	Status         models.AssetStatus
	Condition      models.AssetCondition
	Location       string
	ProjectID      *uint
	AssignedToID   *uint
	PurchaseDate   *time.Time
	PurchasePrice  *decimal.Decimal
	WarrantyExpiry *time.Time
	Notes          string
	Images         []string
}

type AssignInput struct {
	ProjectID    *uint
	AssignedToID *uint
	Location     string
	Reason       string
}

type ReturnInput struct {
	Location  string
	Reason    string
	Condition models.AssetCondition
}

func (in *InstanceInput) normalize() error {
	in.AssetTag = strings.TrimSpace(in.AssetTag)
	in.Location = strings.TrimSpace(in.Location)
	in.SerialNumber = strings.TrimSpace(in.SerialNumber)
	if in.AssetTag == "" {
		return InputError("assetTag is required")
	}
	if in.AssetTypeID == 0 {
		return InputError("assetTypeId is required")
	}
	if in.Status == "" {
		in.Status = models.AssetStatusAvailable
	}
	if !in.Status.Valid() {
		return InputError("status must be available, in_use, maintenance or retired")
	}
	if in.Condition == "" {
		in.Condition = models.AssetConditionGood
	}
	if !in.Condition.Valid() {
		return InputError("condition must be excellent, good, fair or poor")
	}
	if in.PurchasePrice != nil && in.PurchasePrice.IsNegative() {
		return InputError("purchasePrice cannot be negative")
	}
	return nil
}

func tagExists(db *gorm.DB, tag string, exceptID uint) (bool, error) {
	var count int64
	err := db.Model(&models.AssetInstance{}).Where("asset_tag = ? AND id <> ?", tag, exceptID).Count(&count).Error
	return count > 0, err
}

func typeExists(db *gorm.DB, id uint) (bool, error) {
	var count int64
	err := db.Model(&models.AssetType{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// CreateInstance inserts a new asset. A tag that is already used yields ErrDuplicateTag and no row.
func CreateInstance(ctx context.Context, actor auth.Actor, in InstanceInput) (*models.AssetInstance, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var inst models.AssetInstance
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createInstance(tx, actor, in, &inst)
	})
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func createInstance(tx *gorm.DB, actor auth.Actor, in InstanceInput, inst *models.AssetInstance) error {
	dup, err := tagExists(tx, in.AssetTag, 0)
	if err != nil {
		return err
	}
	if dup {
		return ErrDuplicateTag
	}
	ok, err := typeExists(tx, in.AssetTypeID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTypeNotFound
	}

	images := in.Images
	if images == nil {
		images = []string{}
	}
	*inst = models.AssetInstance{
		AssetTag:       in.AssetTag,
		AssetTypeID:    in.AssetTypeID,
		SerialNumber:   in.SerialNumber,
		Status:         in.Status,
		Condition:      in.Condition,
		Location:       in.Location,
		ProjectID:      in.ProjectID,
		AssignedToID:   in.AssignedToID,
		PurchaseDate:   in.PurchaseDate,
		PurchasePrice:  in.PurchasePrice,
		WarrantyExpiry: in.WarrantyExpiry,
		Notes:          strings.TrimSpace(in.Notes),
		Images:         images,
		IsActive:       true,
	}
	if err := tx.Create(inst).Error; err != nil {
		return fmt.Errorf("asset instance could not be created: %w", err)
	}

	return audit.WriteLog(audit.LogOptions{
		Tx:          tx,
		UserID:      actor.ID,
		UserName:    actor.Name,
		EntityType:  "asset_instance",
		EntityID:    inst.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Asset created: %s", inst.AssetTag),
		After:       inst,
	})
}

// UpdateInstance overwrites the editable fields. A status change is logged as a movement.
func UpdateInstance(ctx context.Context, actor auth.Actor, id uint, in InstanceInput) (*models.AssetInstance, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var inst models.AssetInstance
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&inst, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInstanceNotFound
			}
			return err
		}
		dup, err := tagExists(tx, in.AssetTag, inst.ID)
		if err != nil {
			return err
		}
		if dup {
			return ErrDuplicateTag
		}
		ok, err := typeExists(tx, in.AssetTypeID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTypeNotFound
		}

		before := inst
		inst.AssetTag = in.AssetTag
		inst.AssetTypeID = in.AssetTypeID
		inst.SerialNumber = in.SerialNumber
		inst.Status = in.Status
		inst.Condition = in.Condition
		inst.Location = in.Location
		inst.ProjectID = in.ProjectID
		inst.AssignedToID = in.AssignedToID
		inst.PurchaseDate = in.PurchaseDate
		inst.PurchasePrice = in.PurchasePrice
		inst.WarrantyExpiry = in.WarrantyExpiry
		inst.Notes = strings.TrimSpace(in.Notes)
		if in.Images != nil {
			inst.Images = in.Images
		}
		if err := tx.Save(&inst).Error; err != nil {
			return fmt.Errorf("asset instance could not be updated: %w", err)
		}

		if before.Status != inst.Status {
			if err := tx.Create(&models.AssetMovement{
				AssetInstanceID: inst.ID,
				MovementType:    models.MovementStatusChange,
				FromLocation:    before.Location,
				ToLocation:      inst.Location,
				FromStatus:      before.Status,
				ToStatus:        inst.Status,
				CreatedBy:       actor.ID,
			}).Error; err != nil {
				return fmt.Errorf("movement could not be recorded: %w", err)
			}
		}

		return audit.WriteLog(audit.LogOptions{
			Tx:          tx,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "asset_instance",
			EntityID:    inst.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Asset updated: %s", inst.AssetTag),
			Before:      before,
			After:       inst,
		})
	})
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// Assign puts the asset in use on a project or with an employee and records the movement.
func Assign(ctx context.Context, actor auth.Actor, id uint, in AssignInput) (*models.AssetInstance, error) {
	if in.ProjectID == nil && in.AssignedToID == nil {
		return nil, InputError("projectId or assignedToId is required")
	}
	if in.ProjectID != nil {
		var count int64
		if err := database.DB.WithContext(ctx).Model(&models.Project{}).Where("id = ?", *in.ProjectID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, InputError("Project not found")
		}
	}

	return move(ctx, id, func(tx *gorm.DB, inst *models.AssetInstance) (*models.AssetMovement, error) {
		if inst.Status == models.AssetStatusRetired {
			return nil, InputError("A retired asset cannot be assigned")
		}
		location := strings.TrimSpace(in.Location)
		if location == "" {
			location = inst.Location
		}
		m := &models.AssetMovement{
			AssetInstanceID: inst.ID,
			MovementType:    models.MovementAssignment,
			FromLocation:    inst.Location,
			ToLocation:      location,
			FromProjectID:   inst.ProjectID,
			ToProjectID:     in.ProjectID,
			FromEmployeeID:  inst.AssignedToID,
			ToEmployeeID:    in.AssignedToID,
			FromStatus:      inst.Status,
			ToStatus:        models.AssetStatusInUse,
			Reason:          strings.TrimSpace(in.Reason),
			CreatedBy:       actor.ID,
		}
		inst.Status = models.AssetStatusInUse
		inst.ProjectID = in.ProjectID
		inst.AssignedToID = in.AssignedToID
		inst.Location = location
		return m, nil
	})
}

// Return makes the asset available again and clears its assignment.
func Return(ctx context.Context, actor auth.Actor, id uint, in ReturnInput) (*models.AssetInstance, error) {
	if in.Condition != "" && !in.Condition.Valid() {
		return nil, InputError("condition must be excellent, good, fair or poor")
	}

	return move(ctx, id, func(tx *gorm.DB, inst *models.AssetInstance) (*models.AssetMovement, error) {
		location := strings.TrimSpace(in.Location)
		if location == "" {
			location = inst.Location
		}
		m := &models.AssetMovement{
			AssetInstanceID: inst.ID,
			MovementType:    models.MovementReturn,
			FromLocation:    inst.Location,
			ToLocation:      location,
			FromProjectID:   inst.ProjectID,
			FromEmployeeID:  inst.AssignedToID,
			FromStatus:      inst.Status,
			ToStatus:        models.AssetStatusAvailable,
			Reason:          strings.TrimSpace(in.Reason),
			CreatedBy:       actor.ID,
		}
		inst.Status = models.AssetStatusAvailable
		inst.ProjectID = nil
		inst.AssignedToID = nil
		inst.Location = location
		if in.Condition != "" {
			inst.Condition = in.Condition
		}
		return m, nil
	})
}

// move loads the instance, lets apply mutate it and saves both the instance and the movement.
func move(ctx context.Context, id uint, apply func(*gorm.DB, *models.AssetInstance) (*models.AssetMovement, error)) (*models.AssetInstance, error) {
	var inst models.AssetInstance
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&inst, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInstanceNotFound
			}
			return err
		}
		m, err := apply(tx, &inst)
		if err != nil {
			return err
		}
		if err := tx.Model(&inst).Select("status", "project_id", "assigned_to_id", "location", "condition").Updates(&inst).Error; err != nil {
			return fmt.Errorf("asset instance could not be updated: %w", err)
		}
		if err := tx.Create(m).Error; err != nil {
			return fmt.Errorf("movement could not be recorded: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// RecordMovement appends a free-form movement, e.g. a transfer between sites.
func RecordMovement(ctx context.Context, actor auth.Actor, m models.AssetMovement) (*models.AssetMovement, error) {
	if !m.MovementType.Valid() {
		return nil, InputError("movementType must be assignment, return, transfer, maintenance or status_change")
	}
	var count int64
	if err := database.DB.WithContext(ctx).Model(&models.AssetInstance{}).Where("id = ?", m.AssetInstanceID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrInstanceNotFound
	}

	m.ID = 0
	m.CreatedBy = actor.ID
	m.CreatedAt = time.Time{}
	if err := database.DB.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("movement could not be recorded: %w", err)
	}
	return &m, nil
}

func Movements(ctx context.Context, instanceID uint) ([]models.AssetMovement, error) {
	movements := []models.AssetMovement{}
	err := database.DB.WithContext(ctx).
		Where("asset_instance_id = ?", instanceID).
		Order("created_at desc, id desc").
		Find(&movements).Error
	return movements, err
}

func ListInstances(ctx context.Context, f InstanceFilter) ([]models.AssetInstance, error) {
	q := database.DB.WithContext(ctx).Model(&models.AssetInstance{}).Preload("AssetType")
	if f.Status != "" {
		q = q.Where("asset_instances.status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Joins("JOIN asset_types ON asset_types.id = asset_instances.asset_type_id").
			Where("asset_types.category = ?", f.Category)
	}
	if f.ProjectID != 0 {
		q = q.Where("asset_instances.project_id = ?", f.ProjectID)
	}
	if f.AssignedToID != 0 {
		q = q.Where("asset_instances.assigned_to_id = ?", f.AssignedToID)
	}

	instances := []models.AssetInstance{}
	if err := q.Order("asset_instances.asset_tag asc").Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}

func GetInstance(ctx context.Context, id uint) (*models.AssetInstance, error) {
	return findInstance(database.DB.WithContext(ctx).Where("id = ?", id))
}

func GetInstanceByTag(ctx context.Context, tag string) (*models.AssetInstance, error) {
	return findInstance(database.DB.WithContext(ctx).Where("asset_tag = ?", strings.TrimSpace(tag)))
}

func findInstance(q *gorm.DB) (*models.AssetInstance, error) {
	var inst models.AssetInstance
	if err := q.Preload("AssetType").First(&inst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, err
	}
	return &inst, nil
}

// UpcomingWindow is how far ahead /api/maintenance/upcoming and the summary look.
const UpcomingWindow = 30 * 24 * time.Hour

type Summary struct {
	TotalAssets         int64           `json:"totalAssets"`
	Available           int64           `json:"available"`
	InUse               int64           `json:"inUse"`
	Maintenance         int64           `json:"maintenance"`
	Retired             int64           `json:"retired"`
	TotalValue          decimal.Decimal `json:"totalValue"`
	UpcomingMaintenance int64           `json:"upcomingMaintenance"`
}

// GetSummary counts active assets per status and sums their purchase prices.
func GetSummary(ctx context.Context, now time.Time) (*Summary, error) {
	db := database.DB.WithContext(ctx)
	now = now.UTC()

	var rows []struct {
		Status models.AssetStatus
		Count  int64
	}
	if err := db.Model(&models.AssetInstance{}).
		Select("status, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	s := &Summary{TotalValue: decimal.Zero}
	for _, r := range rows {
		s.TotalAssets += r.Count
		switch r.Status {
		case models.AssetStatusAvailable:
			s.Available = r.Count
		case models.AssetStatusInUse:
			s.InUse = r.Count
		case models.AssetStatusMaintenance:
			s.Maintenance = r.Count
		case models.AssetStatusRetired:
			s.Retired = r.Count
		}
	}

	var prices []decimal.NullDecimal
	if err := db.Model(&models.AssetInstance{}).
		Where("is_active = ? AND purchase_price IS NOT NULL", true).
		Pluck("purchase_price", &prices).Error; err != nil {
		return nil, err
	}
	for _, p := range prices {
		if p.Valid {
			s.TotalValue = s.TotalValue.Add(p.Decimal)
		}
	}

	if err := db.Model(&models.MaintenanceRecord{}).
		Where("is_archived = ? AND maintenance_date >= ? AND maintenance_date <= ?", false, now, now.Add(UpcomingWindow)).
		Count(&s.UpcomingMaintenance).Error; err != nil {
		return nil, err
	}
	return s, nil
}
