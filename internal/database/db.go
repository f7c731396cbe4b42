package database

import (
	"log"
	"os"
	"time"

	"bizops-backend/internal/config"
	"bizops-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	gormLogger := logger.New(
		log.New(os.Stdout, "[GORM] ", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  parseLogLevel(cfg.DBLogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{Logger: gormLogger})
	if err != nil {
		log.Fatalf("[FATAL] database connection failed: %v", err)
	}

	if err := DB.Exec(`SET TIME ZONE 'UTC'`).Error; err != nil {
		log.Printf("[WARN] could not set time zone to UTC: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("[FATAL] AutoMigrate failed: %v", err)
	}

	log.Println("Database connected, migrations applied.")
}

// Migrate creates or updates every table the API uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.AuditLog{},
		&models.Customer{},
		&models.Project{},
		&models.ProjectConsumable{},
		&models.ProjectConsumableItem{},
		&models.Supplier{},
		&models.InventoryItem{},
		&models.AssetType{},
		&models.AssetInstance{},
		&models.AssetMovement{},
		&models.MaintenanceRecord{},
		&models.MaintenanceFile{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderItem{},
		&models.PurchaseOrderFile{},
		&models.PurchaseInvoice{},
		&models.PurchaseInvoiceItem{},
	)
}

func parseLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
