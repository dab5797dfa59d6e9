// Package repositories holds the helpers shared by the per-table repositories.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/kodi/pkg/database"
)

// Get runs a single-row query and returns nil when no row matches.
func Get[T any](ctx context.Context, q database.Querier, query string, args ...any) (*T, error) {
	var out T
	if err := q.GetContext(ctx, &out, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// Select runs a multi-row query. It never returns a nil slice on success.
func Select[T any](ctx context.Context, q database.Querier, query string, args ...any) ([]T, error) {
	out := []T{}
	if err := q.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertIgnore executes ib as an insert that skips rows violating any unique constraint
// and reports whether a row was written.
func InsertIgnore(ctx context.Context, q database.Querier, ib *database.InsertBuilder) (bool, error) {
	ib.OnConflictDoNothing()
	query, args := ib.Build()

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// Exists reports whether a table is present in the connected database.
func Exists(ctx context.Context, db database.DB, table string) (bool, error) {
	sb := database.NewSelectBuilder(db.Flavor())
	sb.Select("COUNT(*)")
	switch db.DriverName() {
	case database.DriverSQLite:
		sb.From("sqlite_master")
		sb.Where(sb.Equal("type", "table"), sb.Equal("name", table))
	default:
		sb.From("information_schema.tables")
		sb.Where(sb.Equal("table_schema", sqlbuilder.Raw("current_schema()")), sb.Equal("table_name", table))
	}
	query, args := sb.Build()

	var count int
	if err := db.Executor(ctx).GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}
	return count > 0, nil
}
