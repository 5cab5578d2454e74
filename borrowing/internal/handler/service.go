package handler

import (
	"context"

	"github.com/bookhive/borrowing-service/borrowing/internal/model"
	"github.com/bookhive/borrowing-service/borrowing/internal/service"
	"github.com/bookhive/borrowing-service/pkg/auth"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BorrowingService interface {
	CreateBorrowing(ctx context.Context, req model.CreateBorrowingRequest) (model.Borrowing, error)
	ReturnBorrowing(ctx context.Context, caller auth.Caller, borrowingUid string) (model.Borrowing, error)
	GetBorrowing(ctx context.Context, caller auth.Caller, borrowingUid string) (model.BorrowingView, error)
	ListBorrowings(ctx context.Context, caller auth.Caller, filter model.ListFilter) ([]model.BorrowingView, error)
	GetBook(ctx context.Context, bookID int) (model.BookView, error)
	ListBooks(ctx context.Context) ([]model.BookView, error)
}

var _ BorrowingService = (*service.Service)(nil)
