// Package postgres implements the store contracts against PostgreSQL with
// pgx. Uniqueness of (type, qualifiedName) among active elements is enforced
// by a partial unique index, so concurrent creates serialize in the
// database and at most one wins.
package postgres

import (
	"errors"

	"github.com/openmetagraph/metacat/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	defaultPageSize  = 50
	uniqueViolation  = "23505"
	invalidRegexCode = "2201B"
)

// mapError translates pgx failures into the catalog error taxonomy.
func mapError(err error, kindForNoRows domain.ErrorKind, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WrapError(kindForNoRows, err, format, args...)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return domain.WrapError(domain.KindDuplicateElement, err, format, args...)
		case invalidRegexCode:
			return domain.WrapError(domain.KindInvalidParameter, err, format, args...)
		}
	}
	return domain.WrapError(domain.KindStoreUnavailable, err, format, args...)
}

// normalizePage applies the pagination contract: zero-based offset, pageSize
// at or below zero selects the store default.
func normalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	return offset, limit
}
