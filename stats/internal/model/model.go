package model

// BorrowStat is a per-user, per-book counter pair fed by the
// borrowing event stream.
type BorrowStat struct {
	UserID      int `json:"userId" db:"user_id"`
	BookID      int `json:"bookId" db:"book_id"`
	BorrowCount int `json:"borrowCount" db:"borrow_count"`
	ReturnCount int `json:"returnCount" db:"return_count"`
}
