package maintenance

import (
	"errors"
	"log"

	"bizops-backend/internal/auth"
	"bizops-backend/internal/database"
	"bizops-backend/internal/models"
	"bizops-backend/internal/storage"
	"bizops-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const uploadSub = "maintenance"

// POST /api/maintenance-records/:id/files (multipart "file")
func UploadFileHandler(disk *storage.Disk) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentActor(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}

		var count int64
		if err := database.DB.WithContext(c.UserContext()).Model(&models.MaintenanceRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Maintenance record not found")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "No file uploaded")
		}

		stored, err := disk.Save(fh, uploadSub, "maintenance")
		if err != nil {
			if storage.UserError(err) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			log.Printf("[WARN] maintenance upload failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to upload maintenance file")
		}

		file := models.MaintenanceFile{
			MaintenanceRecordID: id,
			FileName:            stored.FileName,
			OriginalName:        stored.OriginalName,
			FilePath:            stored.FilePath,
			FileSize:            stored.Size,
			MimeType:            stored.MimeType,
			UploadedBy:          actor.ID,
		}
		if err := database.DB.WithContext(c.UserContext()).Create(&file).Error; err != nil {
			_ = disk.Remove(uploadSub, stored.FileName)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to upload maintenance file")
		}
		return c.Status(fiber.StatusCreated).JSON(file)
	}
}

// GET /api/maintenance-records/:id/files
func ListFilesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}
		files := []models.MaintenanceFile{}
		if err := database.DB.WithContext(c.UserContext()).
			Where("maintenance_record_id = ?", id).
			Order("created_at asc, id asc").
			Find(&files).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch maintenance files")
		}
		return c.JSON(files)
	}
}

// DELETE /api/maintenance-records/:recordId/files/:fileId
func DeleteFileHandler(disk *storage.Disk) fiber.Handler {
	return func(c *fiber.Ctx) error {
		recordID, err := validation.ParamID(c, "recordId")
		if err != nil {
			return err
		}
		fileID, err := validation.ParamID(c, "fileId")
		if err != nil {
			return err
		}

		var file models.MaintenanceFile
		err = database.DB.WithContext(c.UserContext()).
			First(&file, "id = ? AND maintenance_record_id = ?", fileID, recordID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "File not found")
		}
		if err != nil {
			return err
		}

		if err := database.DB.WithContext(c.UserContext()).Delete(&file).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to delete maintenance file")
		}
		if err := disk.Remove(uploadSub, file.FileName); err != nil {
			log.Printf("[WARN] %s could not be removed from disk: %v", file.FileName, err)
		}
		return c.JSON(fiber.Map{"message": "File deleted successfully"})
	}
}

// GET /api/files/:filename serves maintenance and purchase-order uploads.
func ServeFileHandler(disk *storage.Disk) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path, ok := disk.Find(c.Params("filename"), uploadSub, "purchase-orders")
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "File not found")
		}
		return c.SendFile(path)
	}
}
