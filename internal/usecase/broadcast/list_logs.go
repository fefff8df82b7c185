package broadcast

import (
	"context"

	domain "github.com/BruksfildServices01/church-platform/internal/domain/broadcast"
	"github.com/BruksfildServices01/church-platform/internal/dto"
	"github.com/BruksfildServices01/church-platform/internal/tenant"
)

type ListLogs struct {
	repo domain.Repository
}

func NewListLogs(repo domain.Repository) *ListLogs {
	return &ListLogs{repo: repo}
}

func (uc *ListLogs) Execute(
	ctx context.Context,
	scope tenant.Scope,
	limit int,
	offset int,
) ([]dto.SMSLogDTO, int64, error) {
	logs, total, err := uc.repo.ListLogs(ctx, scope, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return dto.NewSMSLogList(logs), total, nil
}
