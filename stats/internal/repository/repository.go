package repository

import (
	"context"
	"fmt"

	"github.com/bookhive/borrowing-service/stats/internal/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Repository interface {
	IncrementBorrowed(ctx context.Context, userID, bookID int) error
	IncrementReturned(ctx context.Context, userID, bookID int) error
	List(ctx context.Context) ([]model.BorrowStat, error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	statsTableName = `borrow_stats`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *repository) IncrementBorrowed(ctx context.Context, userID, bookID int) error {
	q := fmt.Sprintf(`
	insert into %s (user_id, book_id, borrow_count, return_count)
	values ($1, $2, 1, 0)
	on conflict (user_id, book_id)
	do update set borrow_count = %s.borrow_count + 1`, statsTableName, statsTableName)
	_, err := r.db.ExecContext(ctx, q, userID, bookID)
	return err
}

func (r *repository) IncrementReturned(ctx context.Context, userID, bookID int) error {
	q := fmt.Sprintf(`
	insert into %s (user_id, book_id, borrow_count, return_count)
	values ($1, $2, 0, 1)
	on conflict (user_id, book_id)
	do update set return_count = %s.return_count + 1`, statsTableName, statsTableName)
	_, err := r.db.ExecContext(ctx, q, userID, bookID)
	return err
}

func (r *repository) List(ctx context.Context) ([]model.BorrowStat, error) {
	q, args, err := qb.Select("user_id", "book_id", "borrow_count", "return_count").
		From(statsTableName).
		OrderBy("user_id", "book_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	var items []model.BorrowStat
	if err := r.db.SelectContext(ctx, &items, q, args...); err != nil {
		return nil, err
	}
	return items, nil
}
