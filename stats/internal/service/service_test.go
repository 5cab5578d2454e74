package service_test

import (
	"context"
	"testing"

	"github.com/bookhive/borrowing-service/pkg/kafka"
	"github.com/bookhive/borrowing-service/stats/internal/model"
	"github.com/bookhive/borrowing-service/stats/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	borrowed [][2]int
	returned [][2]int
}

func (f *fakeRepo) IncrementBorrowed(_ context.Context, userID, bookID int) error {
	f.borrowed = append(f.borrowed, [2]int{userID, bookID})
	return nil
}

func (f *fakeRepo) IncrementReturned(_ context.Context, userID, bookID int) error {
	f.returned = append(f.returned, [2]int{userID, bookID})
	return nil
}

func (f *fakeRepo) List(_ context.Context) ([]model.BorrowStat, error) {
	return nil, nil
}

func TestService_HandleEvent(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := service.NewService(repo, zap.NewNop())

	require.NoError(t, svc.HandleEvent(context.Background(), kafka.BorrowingEvent{
		Type:   kafka.EventBorrowingCreated,
		UserID: 7,
		BookID: 1,
	}))
	require.NoError(t, svc.HandleEvent(context.Background(), kafka.BorrowingEvent{
		Type:   kafka.EventBorrowingReturned,
		UserID: 7,
		BookID: 1,
	}))
	// unknown types are skipped, not errored, so the stream keeps moving
	require.NoError(t, svc.HandleEvent(context.Background(), kafka.BorrowingEvent{
		Type: "borrowing.unknown",
	}))

	require.Equal(t, [][2]int{{7, 1}}, repo.borrowed)
	require.Equal(t, [][2]int{{7, 1}}, repo.returned)
}
