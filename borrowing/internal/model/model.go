package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Date is a calendar day without a time-of-day component, bound and
// rendered as "2006-01-02".
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(time.DateOnly))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return errors.Wrap(err, "date must be YYYY-MM-DD")
	}
	d.Time = t
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return err
		}
		*d = Date{Time: t}
		return nil
	default:
		return errors.Errorf("cannot scan %T into Date", src)
	}
}

// NullDate is a nullable Date; marshals to JSON null when absent.
type NullDate struct {
	Date  Date
	Valid bool
}

func (d NullDate) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return d.Date.MarshalJSON()
}

func (d *NullDate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = NullDate{}
		return nil
	}
	if err := d.Date.UnmarshalJSON(data); err != nil {
		return err
	}
	d.Valid = true
	return nil
}

func (d NullDate) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.Date.Time, nil
}

func (d *NullDate) Scan(src any) error {
	if src == nil {
		*d = NullDate{}
		return nil
	}
	if err := d.Date.Scan(src); err != nil {
		return err
	}
	d.Valid = true
	return nil
}

type Cover string

const (
	CoverSoft Cover = "SOFT"
	CoverHard Cover = "HARD"
)

type Borrowing struct {
	ID                 int      `json:"-" db:"id"`
	BorrowingUid       string   `json:"borrowingUid" db:"borrowing_uid"`
	BookID             int      `json:"bookId" db:"book_id"`
	UserID             int      `json:"userId" db:"user_id"`
	BorrowingDate      Date     `json:"borrowingDate" db:"borrowing_date"`
	ExpectedReturnDate Date     `json:"expectedReturnDate" db:"expected_return_date"`
	ActualReturnDate   NullDate `json:"actualReturnDate" db:"actual_return_date"`
}

// Active reports whether the borrowing is still open.
func (b Borrowing) Active() bool {
	return !b.ActualReturnDate.Valid
}

// CreateBorrowingRequest carries client input for a new borrowing.
// UserID comes from the authenticated caller, never from the body;
// actualReturnDate is not bindable at all.
type CreateBorrowingRequest struct {
	BookID             int  `json:"bookId" validate:"required"`
	ExpectedReturnDate Date `json:"expectedReturnDate" validate:"required"`
	UserID             int  `json:"-" validate:"required"`
}

// ListFilter narrows a borrowing listing. A zero UserID means no user
// filter; the service forces it to the caller for non-staff.
type ListFilter struct {
	ActiveOnly bool
	UserID     int
}

// BookView is the nested book shape used by list/detail responses.
type BookView struct {
	ID        int      `json:"id"`
	Title     string   `json:"title"`
	Author    string   `json:"author,omitempty"`
	Genres    []string `json:"genres"`
	Cover     Cover    `json:"cover"`
	Inventory int      `json:"inventory"`
	DailyFee  string   `json:"dailyFee"`
}

type UserView struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// BorrowingView is the read shape for list and detail, with the book
// and user expanded in place of bare ids.
type BorrowingView struct {
	BorrowingUid       string   `json:"borrowingUid"`
	BorrowingDate      Date     `json:"borrowingDate"`
	ExpectedReturnDate Date     `json:"expectedReturnDate"`
	ActualReturnDate   NullDate `json:"actualReturnDate"`
	Book               BookView `json:"book"`
	User               UserView `json:"user"`
}
