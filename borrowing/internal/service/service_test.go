package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bookhive/borrowing-service/borrowing/internal/errs"
	"github.com/bookhive/borrowing-service/borrowing/internal/model"
	mock_repository "github.com/bookhive/borrowing-service/borrowing/internal/repository/mocks"
	"github.com/bookhive/borrowing-service/borrowing/internal/service"
	"github.com/bookhive/borrowing-service/pkg/auth"
	"github.com/bookhive/borrowing-service/pkg/kafka"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	events []kafka.BorrowingEvent
}

func (p *recordingPublisher) Publish(_ string, v any) error {
	p.events = append(p.events, v.(kafka.BorrowingEvent))
	return nil
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2024, 1, 23, 10, 30, 0, 0, time.UTC)
	}
}

func date(s string) model.Date {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return model.Date{Time: t}
}

func TestService_CreateBorrowing(t *testing.T) {
	t.Parallel()
	today := date("2024-01-23")

	var tests = []struct {
		name         string
		req          model.CreateBorrowingRequest
		mockBehavior func(r *mock_repository.MockRepository, req model.CreateBorrowingRequest)
		wantErr      error
		wantEvents   int
	}{
		{
			name: "ok",
			req: model.CreateBorrowingRequest{
				BookID:             1,
				ExpectedReturnDate: date("2024-02-01"),
				UserID:             7,
			},
			mockBehavior: func(r *mock_repository.MockRepository, req model.CreateBorrowingRequest) {
				r.EXPECT().
					CreateBorrowing(context.Background(), req, today).
					Return(model.Borrowing{
						ID:                 1,
						BorrowingUid:       "8f6b1a0e-9f43-4e63-8e3c-0c5ffaf2cbd1",
						BookID:             req.BookID,
						UserID:             req.UserID,
						BorrowingDate:      today,
						ExpectedReturnDate: req.ExpectedReturnDate,
					}, nil)
			},
			wantEvents: 1,
		},
		{
			name: "expected date equal to today is rejected",
			req: model.CreateBorrowingRequest{
				BookID:             1,
				ExpectedReturnDate: date("2024-01-23"),
				UserID:             7,
			},
			mockBehavior: func(r *mock_repository.MockRepository, req model.CreateBorrowingRequest) {},
			wantErr:      errs.ErrExpectedDate,
		},
		{
			name: "expected date in the past is rejected",
			req: model.CreateBorrowingRequest{
				BookID:             1,
				ExpectedReturnDate: date("2023-12-31"),
				UserID:             7,
			},
			mockBehavior: func(r *mock_repository.MockRepository, req model.CreateBorrowingRequest) {},
			wantErr:      errs.ErrExpectedDate,
		},
		{
			name: "no inventory",
			req: model.CreateBorrowingRequest{
				BookID:             2,
				ExpectedReturnDate: date("2024-02-01"),
				UserID:             7,
			},
			mockBehavior: func(r *mock_repository.MockRepository, req model.CreateBorrowingRequest) {
				r.EXPECT().
					CreateBorrowing(context.Background(), req, today).
					Return(model.Borrowing{}, errs.ErrNoInventory)
			},
			wantErr: errs.ErrNoInventory,
		},
		{
			name: "book not found",
			req: model.CreateBorrowingRequest{
				BookID:             42,
				ExpectedReturnDate: date("2024-02-01"),
				UserID:             7,
			},
			mockBehavior: func(r *mock_repository.MockRepository, req model.CreateBorrowingRequest) {
				r.EXPECT().
					CreateBorrowing(context.Background(), req, today).
					Return(model.Borrowing{}, errs.ErrNotFound)
			},
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			repo := mock_repository.NewMockRepository(c)
			tt.mockBehavior(repo, tt.req)

			pub := &recordingPublisher{}
			svc := service.NewService(repo, pub, zap.NewNop()).WithClock(fixedClock())

			b, err := svc.CreateBorrowing(context.Background(), tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, pub.events)
				return
			}
			require.NoError(t, err)
			require.Equal(t, today, b.BorrowingDate)
			require.True(t, b.Active())
			require.Len(t, pub.events, tt.wantEvents)
			require.Equal(t, kafka.EventBorrowingCreated, pub.events[0].Type)
			require.Equal(t, b.BorrowingUid, pub.events[0].BorrowingUid)
		})
	}
}

func TestService_ReturnBorrowing(t *testing.T) {
	t.Parallel()
	today := date("2024-01-23")
	const uid = "8f6b1a0e-9f43-4e63-8e3c-0c5ffaf2cbd1"

	returned := model.Borrowing{
		ID:                 1,
		BorrowingUid:       uid,
		BookID:             1,
		UserID:             7,
		BorrowingDate:      date("2024-01-20"),
		ExpectedReturnDate: date("2024-02-01"),
		ActualReturnDate:   model.NullDate{Date: today, Valid: true},
	}

	var tests = []struct {
		name         string
		caller       auth.Caller
		mockBehavior func(r *mock_repository.MockRepository)
		wantErr      error
	}{
		{
			name:   "member is scoped to own records",
			caller: auth.Caller{UserID: 7, Username: "alice"},
			mockBehavior: func(r *mock_repository.MockRepository) {
				r.EXPECT().
					ReturnBorrowing(context.Background(), 7, uid, today).
					Return(returned, nil)
			},
		},
		{
			name:   "staff is unscoped",
			caller: auth.Caller{UserID: 3, Username: "root", IsStaff: true},
			mockBehavior: func(r *mock_repository.MockRepository) {
				r.EXPECT().
					ReturnBorrowing(context.Background(), 0, uid, today).
					Return(returned, nil)
			},
		},
		{
			name:   "already returned",
			caller: auth.Caller{UserID: 7, Username: "alice"},
			mockBehavior: func(r *mock_repository.MockRepository) {
				r.EXPECT().
					ReturnBorrowing(context.Background(), 7, uid, today).
					Return(model.Borrowing{}, errs.ErrAlreadyReturned)
			},
			wantErr: errs.ErrAlreadyReturned,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			repo := mock_repository.NewMockRepository(c)
			tt.mockBehavior(repo)

			pub := &recordingPublisher{}
			svc := service.NewService(repo, pub, zap.NewNop()).WithClock(fixedClock())

			b, err := svc.ReturnBorrowing(context.Background(), tt.caller, uid)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, pub.events)
				return
			}
			require.NoError(t, err)
			require.False(t, b.Active())
			require.Len(t, pub.events, 1)
			require.Equal(t, kafka.EventBorrowingReturned, pub.events[0].Type)
		})
	}
}

func TestService_ListBorrowings_Scoping(t *testing.T) {
	t.Parallel()

	var tests = []struct {
		name         string
		caller       auth.Caller
		filter       model.ListFilter
		mockBehavior func(r *mock_repository.MockRepository)
	}{
		{
			name:   "member user_id filter is overridden with own id",
			caller: auth.Caller{UserID: 7, Username: "alice"},
			filter: model.ListFilter{UserID: 9, ActiveOnly: true},
			mockBehavior: func(r *mock_repository.MockRepository) {
				r.EXPECT().
					ListBorrowings(context.Background(), model.ListFilter{UserID: 7, ActiveOnly: true}).
					Return([]model.BorrowingView{}, nil)
			},
		},
		{
			name:   "staff keeps user_id filter",
			caller: auth.Caller{UserID: 3, Username: "root", IsStaff: true},
			filter: model.ListFilter{UserID: 9},
			mockBehavior: func(r *mock_repository.MockRepository) {
				r.EXPECT().
					ListBorrowings(context.Background(), model.ListFilter{UserID: 9}).
					Return([]model.BorrowingView{}, nil)
			},
		},
		{
			name:   "staff without filter sees all",
			caller: auth.Caller{UserID: 3, Username: "root", IsStaff: true},
			filter: model.ListFilter{},
			mockBehavior: func(r *mock_repository.MockRepository) {
				r.EXPECT().
					ListBorrowings(context.Background(), model.ListFilter{}).
					Return([]model.BorrowingView{}, nil)
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			repo := mock_repository.NewMockRepository(c)
			tt.mockBehavior(repo)

			svc := service.NewService(repo, &recordingPublisher{}, zap.NewNop()).WithClock(fixedClock())

			_, err := svc.ListBorrowings(context.Background(), tt.caller, tt.filter)
			require.NoError(t, err)
		})
	}
}
