package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/church-platform/internal/domain/broadcast"
	"github.com/BruksfildServices01/church-platform/internal/models"
	"github.com/BruksfildServices01/church-platform/internal/tenant"
)

type BroadcastGormRepository struct {
	db *gorm.DB
}

func NewBroadcastGormRepository(db *gorm.DB) *BroadcastGormRepository {
	return &BroadcastGormRepository{db: db}
}

// --------------------------------------------------
// Recipient resolution
// --------------------------------------------------

func (r *BroadcastGormRepository) ResolveEligible(
	ctx context.Context,
	scope tenant.Scope,
	ids []uint,
) ([]models.Member, error) {

	if len(ids) == 0 {
		return nil, nil
	}

	var members []models.Member
	if err := r.db.WithContext(ctx).
		Select("id", "church_id", "full_name", "phone_number").
		Scopes(scope.Apply("church_id")).
		Where("id IN ? AND sms_consent = ? AND is_active = ?", ids, true, true).
		Order("id ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}

	return members, nil
}

// --------------------------------------------------
// Recording
// --------------------------------------------------

func (r *BroadcastGormRepository) RecordBroadcast(
	ctx context.Context,
	log *models.SMSLog,
	recipients []models.SMSRecipient,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Recipients").Create(log).Error; err != nil {
			return err
		}

		if len(recipients) == 0 {
			return nil
		}

		for i := range recipients {
			recipients[i].SMSLogID = log.ID
		}

		return tx.CreateInBatches(recipients, 500).Error
	})
}

// --------------------------------------------------
// Listing / stats
// --------------------------------------------------

func (r *BroadcastGormRepository) ListLogs(
	ctx context.Context,
	scope tenant.Scope,
	limit int,
	offset int,
) ([]models.SMSLog, int64, error) {

	q := r.db.WithContext(ctx).
		Model(&models.SMSLog{}).
		Scopes(scope.Apply("church_id"))

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.SMSLog
	if err := q.
		Preload("Recipients", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Recipients.Member", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "full_name")
		}).
		Order("sent_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

func (r *BroadcastGormRepository) Stats(
	ctx context.Context,
	scope tenant.Scope,
	monthStart time.Time,
) (domain.Stats, error) {

	var stats domain.Stats

	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&models.SMSLog{}).
			Scopes(scope.Apply("church_id"))
	}

	var totals struct {
		TotalSent int
		TotalCost float64
	}
	if err := base().
		Select("COALESCE(SUM(sent_count), 0) AS total_sent, COALESCE(SUM(cost_estimate), 0) AS total_cost").
		Scan(&totals).Error; err != nil {
		return stats, err
	}

	var month struct {
		Sent int
	}
	if err := base().
		Select("COALESCE(SUM(sent_count), 0) AS sent").
		Where("sent_at >= ?", monthStart).
		Scan(&month).Error; err != nil {
		return stats, err
	}

	stats.TotalSent = totals.TotalSent
	stats.ThisMonth = month.Sent
	stats.TotalCost = decimal.NewFromFloat(totals.TotalCost).Round(2)
	return stats, nil
}

// Compile-time check
var _ domain.Repository = (*BroadcastGormRepository)(nil)
