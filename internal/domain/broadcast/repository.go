package broadcast

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/church-platform/internal/models"
	"github.com/BruksfildServices01/church-platform/internal/tenant"
)

type Stats struct {
	TotalSent int             `json:"total_sent"`
	ThisMonth int             `json:"this_month"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

type Repository interface {
	// ResolveEligible loads members among ids with sms_consent and is_active
	// set, restricted to scope.
	ResolveEligible(
		ctx context.Context,
		scope tenant.Scope,
		ids []uint,
	) ([]models.Member, error)

	// RecordBroadcast writes the log row and all recipient rows atomically.
	RecordBroadcast(
		ctx context.Context,
		log *models.SMSLog,
		recipients []models.SMSRecipient,
	) error

	ListLogs(
		ctx context.Context,
		scope tenant.Scope,
		limit int,
		offset int,
	) ([]models.SMSLog, int64, error)

	Stats(
		ctx context.Context,
		scope tenant.Scope,
		monthStart time.Time,
	) (Stats, error)
}
