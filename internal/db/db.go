package db

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/church-platform/internal/config"
	"github.com/BruksfildServices01/church-platform/internal/models"
)

func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
		PrepareStmt: true,
		Logger:      gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	return db, nil
}

// partialIndexes are Postgres-only and cannot be expressed as gorm tags.
var partialIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_churches_active_order ON churches(display_order, name) WHERE is_active = true`,
	`CREATE INDEX IF NOT EXISTS idx_church_news_published ON church_news(church_id, published_date DESC) WHERE is_published = true`,
	`CREATE INDEX IF NOT EXISTS idx_members_sms_eligible ON members(church_id, id) WHERE sms_consent = true AND is_active = true`,
}

// Migrate creates or updates every table. Partial indexes are only created on
// Postgres.
func Migrate(db *gorm.DB, log logrus.FieldLogger) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	res := db.Exec(`
        UPDATE churches
        SET timezone = 'Europe/Oslo'
        WHERE timezone IS NULL OR timezone = ''
    `)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		log.WithField("rows", res.RowsAffected).Info("backfilled church timezones")
	}

	return nil
}
