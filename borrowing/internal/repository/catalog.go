package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/bookhive/borrowing-service/borrowing/internal/errs"
	"github.com/bookhive/borrowing-service/borrowing/internal/model"
	"github.com/pkg/errors"

	sq "github.com/Masterminds/squirrel"
)

type bookRow struct {
	BookID    int         `db:"book_id"`
	Title     string      `db:"title"`
	Author    string      `db:"author"`
	Genres    string      `db:"genres"`
	Cover     model.Cover `db:"cover"`
	Inventory int         `db:"inventory"`
	DailyFee  string      `db:"daily_fee"`
}

func (row bookRow) toView() model.BookView {
	genres := []string{}
	if row.Genres != "" {
		genres = strings.Split(row.Genres, ",")
	}
	return model.BookView{
		ID:        row.BookID,
		Title:     row.Title,
		Author:    row.Author,
		Genres:    genres,
		Cover:     row.Cover,
		Inventory: row.Inventory,
		DailyFee:  row.DailyFee,
	}
}

func bookViewQuery() sq.SelectBuilder {
	return qb.Select(
		"bk.id as book_id", "bk.title", "bk.cover", "bk.inventory", "bk.daily_fee",
		"coalesce(a.first_name || ' ' || a.last_name, '') as author",
		"coalesce(string_agg(g.name, ',' order by g.name), '') as genres").
		From(booksTableName + " bk").
		LeftJoin("authors a on a.id = bk.author_id").
		LeftJoin("book_genres bg on bg.book_id = bk.id").
		LeftJoin("genres g on g.id = bg.genre_id").
		GroupBy("bk.id", "a.id")
}

func (r *repository) GetBook(ctx context.Context, bookID int) (model.BookView, error) {
	query, args, err := bookViewQuery().Where(sq.Eq{"bk.id": bookID}).ToSql()
	if err != nil {
		return model.BookView{}, err
	}

	var row bookRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.BookView{}, errs.ErrNotFound
		}
		return model.BookView{}, err
	}
	return row.toView(), nil
}

func (r *repository) ListBooks(ctx context.Context) ([]model.BookView, error) {
	query, args, err := bookViewQuery().OrderBy("bk.id").ToSql()
	if err != nil {
		return nil, err
	}

	var rows []bookRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	items := make([]model.BookView, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toView())
	}
	return items, nil
}
