package staging

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/kodi/internal/repositories"
	"github.com/Ramsey-B/kodi/pkg/database"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

const TableName = "staging_damage_costs"

var columns = []string{
	"category_code_nl", "category_code_en", "category_name_nl", "category_name_en",
	"type_code_nl", "type_code_en", "type_name_nl", "type_name_en",
	"activity_code_nl", "activity_code_en", "activity_name_nl", "activity_name_en",
	"price_year",
	"severity_label", "severity_min", "severity_max", "severity_unit",
	"labor_unit", "material_unit",
	"labor_unit_cost", "labor_cost_min", "labor_cost_max",
	"material_unit_cost", "material_cost_min", "material_cost_max",
	"notes",
}

// Repository reads and fills the staging buffer that feeds normalization passes.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) Table() string {
	return TableName
}

func (r *Repository) Exists(ctx context.Context) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "StagingRepository.Exists")
	defer span.End()

	exists, err := repositories.Exists(ctx, r.db, TableName)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to check staging table")
		return false, fmt.Errorf("failed to check staging table: %w", err)
	}
	return exists, nil
}

// List returns every staged row in load order.
func (r *Repository) List(ctx context.Context) ([]models.StagingRow, error) {
	ctx, span := tracing.StartSpan(ctx, "StagingRepository.List")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(append([]string{"staging_id"}, columns...)...)
	sb.From(TableName)
	sb.OrderBy("staging_id ASC")

	query, args := sb.Build()

	rows, err := repositories.Select[models.StagingRow](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list staging rows")
		return nil, fmt.Errorf("failed to list staging rows: %w", err)
	}
	return rows, nil
}

// Insert appends rows to the buffer in one statement.
func (r *Repository) Insert(ctx context.Context, rows ...models.StagingRow) error {
	if len(rows) == 0 {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "StagingRepository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder(r.db.Flavor())
	ib.InsertInto(TableName)
	ib.Cols(columns...)
	for _, row := range rows {
		ib.Values(
			row.CategoryCodeNL, row.CategoryCodeEN, row.CategoryNameNL, row.CategoryNameEN,
			row.TypeCodeNL, row.TypeCodeEN, row.TypeNameNL, row.TypeNameEN,
			row.ActivityCodeNL, row.ActivityCodeEN, row.ActivityNameNL, row.ActivityNameEN,
			row.PriceYear,
			row.SeverityLabel, row.SeverityMin, row.SeverityMax, row.SeverityUnit,
			row.LaborUnit, row.MaterialUnit,
			row.LaborUnitCost, row.LaborCostMin, row.LaborCostMax,
			row.MaterialUnitCost, row.MaterialCostMin, row.MaterialCostMax,
			row.Notes,
		)
	}

	query, args := ib.Build()

	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("rows", len(rows)).Error("failed to insert staging rows")
		return fmt.Errorf("failed to insert staging rows: %w", err)
	}
	return nil
}

// Clear empties the buffer and returns the number of removed rows.
func (r *Repository) Clear(ctx context.Context) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "StagingRepository.Clear")
	defer span.End()

	db := database.NewDeleteBuilder(r.db.Flavor())
	db.DeleteFrom(TableName)

	query, args := db.Build()

	res, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to clear staging rows")
		return 0, fmt.Errorf("failed to clear staging rows: %w", err)
	}
	return res.RowsAffected()
}
