package main

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"municipio/models"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		logger.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect postgres database", zap.Error(err))
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	shouldMigrate := true
	if v := strings.ToLower(os.Getenv("DB_AUTO_MIGRATE")); v == "false" || v == "0" || v == "no" {
		shouldMigrate = false
	}
	if shouldMigrate {
		// Master tables first so FKs on the rest can be applied safely.
		for _, m := range []any{
			&models.Role{},
			&models.BusinessCategory{},
			&models.Parish{},
			&models.AppUser{},
			&models.Business{},
			&models.BusinessPromo{},
			&models.BusinessDeletionRequest{},
			&models.Event{},
			&models.EventContact{},
			&models.EventService{},
			&models.Asset{},
			&models.OtpRecovery{},
			&models.RefreshToken{},
		} {
			if err := db.AutoMigrate(m); err != nil {
				logger.Warn("migration warning", zap.Error(err))
			}
		}
		if err := ensurePendingDeletionIndex(); err != nil {
			logger.Warn("ensuring pending-deletion unique index failed", zap.Error(err))
		}
	}
	seedDB()
}

// ensurePendingDeletionIndex makes "at most one PENDING deletion request per
// business" atomic instead of a racy read-then-insert check.
func ensurePendingDeletionIndex() error {
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_deletion_request_pending
		ON business_deletion_requests (business_id) WHERE status = 'PENDING'`).Error
}

// seedDB inserts master data idempotently: roles, business categories and
// parishes.
func seedDB() {
	roles := []models.Role{
		{Name: "administrator", Description: "full access"},
		{Name: "user", Description: "business owner"},
	}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}

	categories := []string{
		"Alimentos y bebidas", "Artesanías", "Comercio", "Servicios",
		"Turismo", "Agropecuario", "Textil", "Otros",
	}
	for _, name := range categories {
		var cnt int64
		db.Model(&models.BusinessCategory{}).Where("name = ?", name).Count(&cnt)
		if cnt == 0 {
			db.Create(&models.BusinessCategory{Name: name})
		}
	}

	parishes := []models.Parish{
		{Name: "Central", ParishType: "URBANA"},
		{Name: "Norte", ParishType: "URBANA"},
		{Name: "San José", ParishType: "RURAL"},
		{Name: "La Esperanza", ParishType: "RURAL"},
	}
	for _, p := range parishes {
		var cnt int64
		db.Model(&models.Parish{}).Where("name = ? AND parish_type = ?", p.Name, p.ParishType).Count(&cnt)
		if cnt == 0 {
			db.Create(&p)
		}
	}
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}
