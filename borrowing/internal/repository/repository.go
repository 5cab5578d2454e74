package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bookhive/borrowing-service/borrowing/internal/errs"
	"github.com/bookhive/borrowing-service/borrowing/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	CreateBorrowing(ctx context.Context, req model.CreateBorrowingRequest, today model.Date) (model.Borrowing, error)
	ReturnBorrowing(ctx context.Context, scopeUserID int, borrowingUid string, today model.Date) (model.Borrowing, error)
	GetBorrowing(ctx context.Context, scopeUserID int, borrowingUid string) (model.BorrowingView, error)
	ListBorrowings(ctx context.Context, filter model.ListFilter) ([]model.BorrowingView, error)
	GetBook(ctx context.Context, bookID int) (model.BookView, error)
	ListBooks(ctx context.Context) ([]model.BookView, error)
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
	borrowingTableName = `borrowings`
	booksTableName     = `books`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// wrapConstraint classifies storage-layer integrity rejections so they
// surface as errs.ErrConstraint instead of an opaque driver error.
func wrapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return errors.Wrap(errs.ErrConstraint, pgErr.ConstraintName)
	}
	return err
}

// CreateBorrowing locks the book row, checks and decrements inventory
// and inserts the borrowing record in one transaction. Two concurrent
// creates against a book with one copy left serialize on the row lock,
// so at most one of them sees inventory >= 1.
func (r *repository) CreateBorrowing(ctx context.Context, req model.CreateBorrowingRequest, today model.Date) (model.Borrowing, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Borrowing{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var inventory int
	q := fmt.Sprintf(`select inventory from %s where id = $1 for update`, booksTableName)
	if err := tx.GetContext(ctx, &inventory, q, req.BookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Borrowing{}, errs.ErrNotFound
		}
		return model.Borrowing{}, err
	}
	if inventory < 1 {
		return model.Borrowing{}, errs.ErrNoInventory
	}

	q = fmt.Sprintf(`update %s set inventory = inventory - 1 where id = $1`, booksTableName)
	if _, err := tx.ExecContext(ctx, q, req.BookID); err != nil {
		return model.Borrowing{}, wrapConstraint(err)
	}

	query, args, err := qb.Insert(borrowingTableName).
		Columns("borrowing_uid", "book_id", "user_id", "borrowing_date", "expected_return_date").
		Values(uuid.New(), req.BookID, req.UserID, today, req.ExpectedReturnDate).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Borrowing{}, err
	}
	var b model.Borrowing
	if err := tx.GetContext(ctx, &b, query, args...); err != nil {
		r.log.Error("CreateBorrowing", zap.String("q", query), zap.Any("args", args))
		return model.Borrowing{}, wrapConstraint(err)
	}

	if err := tx.Commit(); err != nil {
		return model.Borrowing{}, wrapConstraint(err)
	}
	return b, nil
}

// ReturnBorrowing closes an active borrowing and releases its copy in
// one transaction. scopeUserID = 0 means unscoped (staff); otherwise
// borrowings of other users read as absent.
func (r *repository) ReturnBorrowing(ctx context.Context, scopeUserID int, borrowingUid string, today model.Date) (model.Borrowing, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Borrowing{}, err
	}
	defer func() { _ = tx.Rollback() }()

	sel := qb.Select("id", "book_id", "actual_return_date").
		From(borrowingTableName).
		Where(sq.Eq{"borrowing_uid": borrowingUid}).
		Suffix("for update")
	if scopeUserID != 0 {
		sel = sel.Where(sq.Eq{"user_id": scopeUserID})
	}
	query, args, err := sel.ToSql()
	if err != nil {
		return model.Borrowing{}, err
	}

	var cur struct {
		ID               int            `db:"id"`
		BookID           int            `db:"book_id"`
		ActualReturnDate model.NullDate `db:"actual_return_date"`
	}
	if err := tx.GetContext(ctx, &cur, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Borrowing{}, errs.ErrNotFound
		}
		return model.Borrowing{}, err
	}
	if cur.ActualReturnDate.Valid {
		return model.Borrowing{}, errs.ErrAlreadyReturned
	}

	q := fmt.Sprintf(`update %s set actual_return_date = $1 where id = $2 returning *`, borrowingTableName)
	var b model.Borrowing
	if err := tx.GetContext(ctx, &b, q, today, cur.ID); err != nil {
		return model.Borrowing{}, wrapConstraint(err)
	}

	q = fmt.Sprintf(`update %s set inventory = inventory + 1 where id = $1`, booksTableName)
	if _, err := tx.ExecContext(ctx, q, cur.BookID); err != nil {
		return model.Borrowing{}, wrapConstraint(err)
	}

	if err := tx.Commit(); err != nil {
		return model.Borrowing{}, wrapConstraint(err)
	}
	return b, nil
}

type borrowingRow struct {
	BorrowingUid       string         `db:"borrowing_uid"`
	BorrowingDate      model.Date     `db:"borrowing_date"`
	ExpectedReturnDate model.Date     `db:"expected_return_date"`
	ActualReturnDate   model.NullDate `db:"actual_return_date"`
	bookRow
	UserID   int    `db:"user_id"`
	Username string `db:"username"`
}

func (row borrowingRow) toView() model.BorrowingView {
	return model.BorrowingView{
		BorrowingUid:       row.BorrowingUid,
		BorrowingDate:      row.BorrowingDate,
		ExpectedReturnDate: row.ExpectedReturnDate,
		ActualReturnDate:   row.ActualReturnDate,
		Book:               row.bookRow.toView(),
		User: model.UserView{
			ID:       row.UserID,
			Username: row.Username,
		},
	}
}

func borrowingViewQuery() sq.SelectBuilder {
	return qb.Select(
		"b.borrowing_uid", "b.borrowing_date", "b.expected_return_date", "b.actual_return_date",
		"bk.id as book_id", "bk.title", "bk.cover", "bk.inventory", "bk.daily_fee",
		"coalesce(a.first_name || ' ' || a.last_name, '') as author",
		"coalesce(string_agg(g.name, ',' order by g.name), '') as genres",
		"u.id as user_id", "u.username").
		From(borrowingTableName + " b").
		Join("books bk on bk.id = b.book_id").
		LeftJoin("authors a on a.id = bk.author_id").
		LeftJoin("book_genres bg on bg.book_id = bk.id").
		LeftJoin("genres g on g.id = bg.genre_id").
		Join("users u on u.id = b.user_id").
		GroupBy("b.id", "bk.id", "a.id", "u.id")
}

func (r *repository) ListBorrowings(ctx context.Context, filter model.ListFilter) ([]model.BorrowingView, error) {
	q := borrowingViewQuery().OrderBy("b.id")
	if filter.UserID != 0 {
		q = q.Where(sq.Eq{"b.user_id": filter.UserID})
	}
	if filter.ActiveOnly {
		q = q.Where("b.actual_return_date is null")
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListBorrowings", zap.String("query", query), zap.Any("args", args))

	var rows []borrowingRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	items := make([]model.BorrowingView, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toView())
	}
	return items, nil
}

func (r *repository) GetBorrowing(ctx context.Context, scopeUserID int, borrowingUid string) (model.BorrowingView, error) {
	q := borrowingViewQuery().Where(sq.Eq{"b.borrowing_uid": borrowingUid})
	if scopeUserID != 0 {
		q = q.Where(sq.Eq{"b.user_id": scopeUserID})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return model.BorrowingView{}, err
	}

	var row borrowingRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.BorrowingView{}, errs.ErrNotFound
		}
		return model.BorrowingView{}, err
	}
	return row.toView(), nil
}
