// Package maintenance schedules and records asset maintenance and keeps its attachments.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bizops-backend/internal/database"
	"bizops-backend/internal/models"

	"gorm.io/gorm"
)

var ErrRecordNotFound = errors.New("maintenance record not found")

// ArchiveFilter selects records by their archived flag; the zero value means active only.
type ArchiveFilter string

const (
	ArchiveActive   ArchiveFilter = "false"
	ArchiveArchived ArchiveFilter = "true"
	ArchiveAll      ArchiveFilter = "all"
)

type Filter struct {
	InstanceID uint
	Archived   ArchiveFilter
}

func List(ctx context.Context, f Filter) ([]models.MaintenanceRecord, error) {
	q := database.DB.WithContext(ctx).Preload("Instance.AssetType")
	if f.InstanceID != 0 {
		q = q.Where("instance_id = ?", f.InstanceID)
	}
	switch f.Archived {
	case ArchiveAll:
	case ArchiveArchived:
		q = q.Where("is_archived = ?", true)
	default:
		q = q.Where("is_archived = ?", false)
	}

	records := []models.MaintenanceRecord{}
	if err := q.Order("created_at desc, id desc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func Get(ctx context.Context, id uint) (*models.MaintenanceRecord, error) {
	var rec models.MaintenanceRecord
	err := database.DB.WithContext(ctx).
		Preload("Instance.AssetType").
		Preload("Files", func(q *gorm.DB) *gorm.DB { return q.Order("id asc") }).
		First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Upcoming returns active records whose next maintenance falls in [now, now+window], soonest first.
func Upcoming(ctx context.Context, now time.Time, window time.Duration) ([]models.MaintenanceRecord, error) {
	now = now.UTC()
	records := []models.MaintenanceRecord{}
	err := database.DB.WithContext(ctx).
		Preload("Instance.AssetType").
		Where("is_archived = ? AND maintenance_date >= ? AND maintenance_date <= ?", false, now, now.Add(window)).
		Order("maintenance_date asc, id asc").
		Find(&records).Error
	return records, err
}

// SetArchived flips only is_archived; updated_at and every other column stay as they were.
func SetArchived(ctx context.Context, id uint, archived bool) (*models.MaintenanceRecord, error) {
	db := database.DB.WithContext(ctx)

	var rec models.MaintenanceRecord
	if err := db.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if rec.IsArchived == archived {
		return &rec, nil
	}
	if err := db.Model(&rec).UpdateColumn("is_archived", archived).Error; err != nil {
		return nil, fmt.Errorf("archive flag could not be updated: %w", err)
	}
	rec.IsArchived = archived
	return &rec, nil
}
