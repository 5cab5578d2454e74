package errs

import (
	"errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrExpectedDate    = errors.New("expected_return_date: must be strictly after the borrowing date")
	ErrNoInventory     = errors.New("inventory: no available copies")
	ErrAlreadyReturned = errors.New("actual_return_date: you have already returned this book")
	ErrConstraint      = errors.New("integrity constraint violation")
)

type ValidationErrorResponse struct {
	Message string `json:"message"`
	Errors  struct {
		AdditionalProperties string `json:"additionalProperties"`
	} `json:"errors"`
}
