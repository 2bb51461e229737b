package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// DuplicateError surfaces a unique constraint violation with the constraint
// name so the service boundary can report the right conflicting field.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate key on constraint %s", e.Constraint)
}

// AsDuplicate extracts a DuplicateError if err wraps one.
func AsDuplicate(err error) (*DuplicateError, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}

// classifyDuplicate maps a Postgres unique_violation to a DuplicateError.
func classifyDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.Code != "23505" { // unique_violation
		return err
	}
	return &DuplicateError{Constraint: pgErr.ConstraintName}
}
