// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/church-platform/internal/models"
)

// SetupSQLiteTestDB opens a private in-memory SQLite database with every
// model migrated. A single connection keeps async writers on the same data.
func SetupSQLiteTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// SeedChurch inserts a church and returns it.
func SeedChurch(t *testing.T, db *gorm.DB, slug string) models.Church {
	t.Helper()

	church := models.Church{Name: "Church " + slug, Slug: slug, Timezone: "Europe/Oslo", IsActive: true}
	if err := db.Create(&church).Error; err != nil {
		t.Fatalf("seed church: %v", err)
	}
	return church
}

// SeedMember inserts a member with explicit consent and activity flags.
func SeedMember(t *testing.T, db *gorm.DB, churchID uint, name, phone string, consent, active bool) models.Member {
	t.Helper()

	m := models.Member{
		ChurchID:    churchID,
		FullName:    name,
		PhoneNumber: phone,
		SMSConsent:  consent,
		IsActive:    active,
	}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return m
}
