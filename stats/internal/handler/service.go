package handler

import (
	"context"

	"github.com/bookhive/borrowing-service/stats/internal/model"
	"github.com/bookhive/borrowing-service/stats/internal/service"
)

type StatsService interface {
	Stats(ctx context.Context) ([]model.BorrowStat, error)
}

var _ StatsService = (*service.Service)(nil)
