package broadcast

import (
	"context"

	domain "github.com/BruksfildServices01/church-platform/internal/domain/broadcast"
	"github.com/BruksfildServices01/church-platform/internal/tenant"
	"github.com/BruksfildServices01/church-platform/internal/timezone"
)

type GetStats struct {
	repo domain.Repository
}

func NewGetStats(repo domain.Repository) *GetStats {
	return &GetStats{repo: repo}
}

// Execute counts this month from the first day of the month in tz.
func (uc *GetStats) Execute(ctx context.Context, scope tenant.Scope, tz string) (domain.Stats, error) {
	monthStart := timezone.MonthStart(timezone.NowIn(tz))
	return uc.repo.Stats(ctx, scope, monthStart)
}
