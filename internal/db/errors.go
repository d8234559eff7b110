package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// IdentityConstraint is the unique constraint over (source_platform, source_external_id).
const IdentityConstraint = "job_postings_identity_key"

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique violation on the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}
