package services

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	TextCodeNotFound      = "NOT_FOUND"
	TextCodeConflict      = "CONFLICT"
	TextCodeInvalidLogin  = "INVALID_CREDENTIALS"
	TextCodeDatabaseError = "DATABASE_ERROR"
)

func notFound(message string) error {
	return goerrors.New(message, goerrors.CategoryNotFound).WithTextCode(TextCodeNotFound)
}

func conflict(message string) error {
	return goerrors.New(message, goerrors.CategoryConflict).WithTextCode(TextCodeConflict)
}

func invalid(message string, fields ...goerrors.FieldError) error {
	return goerrors.NewValidation(message, fields...)
}

// storeError passes categorized errors through and wraps anything else
// as an internal persistence failure.
func storeError(err error, message string) error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).WithTextCode(TextCodeDatabaseError)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
