package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// Live-row predicates. Profiles soft-delete through is_active, year-scoped and
// structural rows through deleted_at; the two conventions are kept per table.
const (
	lecturerProfileLive = "is_active = TRUE"
	lecturerLive        = "deleted_at IS NULL"
	moduleProfileLive   = "is_active = TRUE"
	moduleLive          = "deleted_at IS NULL"
	iterationLive       = "deleted_at IS NULL"
	facultyLive         = "deleted_at IS NULL"
	departmentLive      = "deleted_at IS NULL"
)

// psql builds dollar-placeholder statements for lib/pq.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// codeExists reports whether another live row of table uses code within the organisation.
func codeExists(ctx context.Context, db sqlx.QueryerContext, table, live, organisationID, code, excludeID string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE organisation_id = $1 AND LOWER(code) = LOWER($2) AND %s", table, live)
	args := []interface{}{organisationID, code}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := sqlx.GetContext(ctx, db, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check %s code: %w", table, err)
	}
	return true, nil
}

func requireAffected(result sql.Result, what string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", what, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
