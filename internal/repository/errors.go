package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes surfaced by constraint checking.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
)

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConflictError reports a uniqueness violation: duplicate email,
// duplicate participation pair, duplicate session id.
type ConflictError struct {
	Entity string
	Detail string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Detail)
}

// ConstraintViolationError reports a mutation that would break a
// mandatory relationship, such as deleting a tutor group that still
// has students assigned.
type ConstraintViolationError struct {
	Detail string
}

func (e *ConstraintViolationError) Error() string {
	return "constraint violation: " + e.Detail
}

func notFound(entity string, id fmt.Stringer) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

// mapPgError converts constraint failures reported by the backing
// store into the typed taxonomy. Unique violations become conflicts,
// foreign-key violations on insert become not-found (the referenced
// row is absent), and the rest surface as constraint violations.
func mapPgError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &NotFoundError{Entity: entity}
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return &ConflictError{Entity: entity, Detail: pgErr.ConstraintName}
	case codeForeignKeyViolation:
		return &NotFoundError{Entity: entity, ID: pgErr.ConstraintName}
	case codeNotNullViolation:
		return &ConstraintViolationError{Detail: pgErr.ColumnName + " must not be null"}
	}
	return err
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsConstraintViolation reports whether err is a ConstraintViolationError.
func IsConstraintViolation(err error) bool {
	var target *ConstraintViolationError
	return errors.As(err, &target)
}
