package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapPgErrorUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "people_email_key"}
	mapped := mapPgError(fmt.Errorf("insert: %w", pgErr), "person")
	if !IsConflict(mapped) {
		t.Fatalf("expected ConflictError, got %T (%v)", mapped, mapped)
	}
}

func TestMapPgErrorForeignKeyViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: codeForeignKeyViolation, ConstraintName: "tutor_groups_house_id_fkey"}
	mapped := mapPgError(pgErr, "house")
	if !IsNotFound(mapped) {
		t.Fatalf("expected NotFoundError, got %T (%v)", mapped, mapped)
	}
}

func TestMapPgErrorNotNullViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: codeNotNullViolation, ColumnName: "tutor_group_id"}
	mapped := mapPgError(pgErr, "student")
	if !IsConstraintViolation(mapped) {
		t.Fatalf("expected ConstraintViolationError, got %T (%v)", mapped, mapped)
	}
}

func TestMapPgErrorNoRows(t *testing.T) {
	mapped := mapPgError(pgx.ErrNoRows, "event")
	var notFoundErr *NotFoundError
	if !errors.As(mapped, &notFoundErr) {
		t.Fatalf("expected NotFoundError, got %T", mapped)
	}
	if notFoundErr.Entity != "event" {
		t.Fatalf("expected entity to be carried, got %q", notFoundErr.Entity)
	}
}

func TestMapPgErrorPassthrough(t *testing.T) {
	if mapPgError(nil, "person") != nil {
		t.Fatalf("nil must map to nil")
	}
	plain := errors.New("connection refused")
	if mapPgError(plain, "person") != plain {
		t.Fatalf("unrelated errors must pass through unchanged")
	}
	unhandled := &pgconn.PgError{Code: "57014"}
	if mapPgError(unhandled, "person") != unhandled {
		t.Fatalf("unhandled SQLSTATEs must pass through unchanged")
	}
}
