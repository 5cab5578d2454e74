package service

import (
	"context"
	"time"

	"github.com/bookhive/borrowing-service/borrowing/internal/errs"
	"github.com/bookhive/borrowing-service/borrowing/internal/model"
	"github.com/bookhive/borrowing-service/borrowing/internal/repository"
	"github.com/bookhive/borrowing-service/pkg/auth"
	"github.com/bookhive/borrowing-service/pkg/kafka"
	"go.uber.org/zap"
)

type Service struct {
	log      *zap.Logger
	repo     repository.Repository
	producer kafka.Producer

	// now is injectable so tests can pin the borrowing date.
	now func() time.Time
}

func NewService(repo repository.Repository, producer kafka.Producer, log *zap.Logger) *Service {
	return &Service{
		log:      log,
		repo:     repo,
		producer: producer,
		now:      time.Now,
	}
}

// WithClock overrides the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() model.Date {
	return model.NewDate(s.now().UTC())
}

// CreateBorrowing validates the expected return date against today's
// date, then delegates the check-and-decrement plus the insert to a
// single repository transaction.
func (s *Service) CreateBorrowing(ctx context.Context, req model.CreateBorrowingRequest) (model.Borrowing, error) {
	today := s.today()
	if !req.ExpectedReturnDate.Time.After(today.Time) {
		return model.Borrowing{}, errs.ErrExpectedDate
	}

	b, err := s.repo.CreateBorrowing(ctx, req, today)
	if err != nil {
		return model.Borrowing{}, err
	}

	s.publish(kafka.BorrowingEvent{
		Type:         kafka.EventBorrowingCreated,
		BorrowingUid: b.BorrowingUid,
		BookID:       b.BookID,
		UserID:       b.UserID,
		Date:         b.BorrowingDate.Time,
	})
	return b, nil
}

// ReturnBorrowing closes an active borrowing. Non-staff callers can
// only reach their own records; everything else reads as not found.
func (s *Service) ReturnBorrowing(ctx context.Context, caller auth.Caller, borrowingUid string) (model.Borrowing, error) {
	scopeUserID := caller.UserID
	if caller.IsStaff {
		scopeUserID = 0
	}
	b, err := s.repo.ReturnBorrowing(ctx, scopeUserID, borrowingUid, s.today())
	if err != nil {
		return model.Borrowing{}, err
	}

	s.publish(kafka.BorrowingEvent{
		Type:         kafka.EventBorrowingReturned,
		BorrowingUid: b.BorrowingUid,
		BookID:       b.BookID,
		UserID:       b.UserID,
		Date:         b.ActualReturnDate.Date.Time,
	})
	return b, nil
}

func (s *Service) GetBorrowing(ctx context.Context, caller auth.Caller, borrowingUid string) (model.BorrowingView, error) {
	scopeUserID := caller.UserID
	if caller.IsStaff {
		scopeUserID = 0
	}
	return s.repo.GetBorrowing(ctx, scopeUserID, borrowingUid)
}

// ListBorrowings scopes non-staff callers to their own records; the
// user filter only has effect for staff.
func (s *Service) ListBorrowings(ctx context.Context, caller auth.Caller, filter model.ListFilter) ([]model.BorrowingView, error) {
	if !caller.IsStaff {
		filter.UserID = caller.UserID
	}
	return s.repo.ListBorrowings(ctx, filter)
}

func (s *Service) GetBook(ctx context.Context, bookID int) (model.BookView, error) {
	return s.repo.GetBook(ctx, bookID)
}

func (s *Service) ListBooks(ctx context.Context) ([]model.BookView, error) {
	return s.repo.ListBooks(ctx)
}

// publish is best-effort; a broker hiccup must not fail a committed
// borrowing transaction.
func (s *Service) publish(event kafka.BorrowingEvent) {
	if err := s.producer.Publish(kafka.BorrowingTopic, event); err != nil {
		s.log.Error("publish event", zap.String("type", event.Type), zap.Error(err))
	}
}
