// Package testutil wires an in-memory SQLite database and signed tokens for tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"bizops-backend/internal/auth"
	"bizops-backend/internal/config"
	"bizops-backend/internal/database"
	"bizops-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const JWTSecret = "test-secret-test-secret-test-secret-0123"

var dbSeq atomic.Int64

// SetupDB points database.DB at a fresh migrated in-memory database.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		sqlDB.Close()
	})
	return db
}

func Config(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		HTTPPort:      "0",
		JWTSecret:     JWTSecret,
		CORSOrigins:   "http://localhost:5173",
		UploadDir:     t.TempDir(),
		MaxUploadSize: 1 << 20,
	}
}

// CreateUser inserts a user with the given role and returns it with a bearer token.
func CreateUser(t *testing.T, role models.UserRole) (models.User, string) {
	t.Helper()

	user := models.User{
		Name:         string(role) + " user",
		Email:        fmt.Sprintf("%s-%d@example.com", role, dbSeq.Add(1)),
		PasswordHash: "x",
		Role:         role,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := auth.GenerateToken(JWTSecret, &user)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return user, "Bearer " + token
}

// MustCreate inserts v and fails the test on error.
func MustCreate(t *testing.T, v any) {
	t.Helper()
	if err := database.DB.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}
