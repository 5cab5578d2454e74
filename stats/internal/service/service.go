package service

import (
	"context"

	"github.com/bookhive/borrowing-service/pkg/kafka"
	"github.com/bookhive/borrowing-service/stats/internal/model"
	"github.com/bookhive/borrowing-service/stats/internal/repository"
	"go.uber.org/zap"
)

type Service struct {
	log  *zap.Logger
	repo repository.Repository
}

func NewService(repo repository.Repository, log *zap.Logger) *Service {
	return &Service{
		log:  log,
		repo: repo,
	}
}

// HandleEvent applies one borrowing lifecycle event to the counters.
// Unknown event types are logged and skipped so the stream keeps moving.
func (s *Service) HandleEvent(ctx context.Context, event kafka.BorrowingEvent) error {
	switch event.Type {
	case kafka.EventBorrowingCreated:
		return s.repo.IncrementBorrowed(ctx, event.UserID, event.BookID)
	case kafka.EventBorrowingReturned:
		return s.repo.IncrementReturned(ctx, event.UserID, event.BookID)
	default:
		s.log.Warn("unknown event type", zap.String("type", event.Type))
		return nil
	}
}

func (s *Service) Stats(ctx context.Context) ([]model.BorrowStat, error) {
	return s.repo.List(ctx)
}
