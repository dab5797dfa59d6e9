package activitycost

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/kodi/internal/repositories"
	"github.com/Ramsey-B/kodi/pkg/database"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

const tableName = "activity_cost"

var columns = []string{
	"activity_cost_id",
	"activity_id",
	"price_book_id",
	"severity_band_id",
	"labor_unit_id",
	"material_unit_id",
	"labor_unit_cost",
	"labor_cost_min",
	"labor_cost_max",
	"material_unit_cost",
	"material_cost_min",
	"material_cost_max",
}

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

// Get returns the cost row of the (activity, price book, band) triple; a nil band matches the band-less row.
func (r *Repository) Get(ctx context.Context, activityID, priceBookID int64, severityBandID *int64) (*models.ActivityCost, error) {
	ctx, span := tracing.StartSpan(ctx, "ActivityCostRepository.Get")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("activity_id", activityID),
		sb.Equal("price_book_id", priceBookID),
	)
	if severityBandID == nil {
		sb.Where(sb.IsNull("severity_band_id"))
	} else {
		sb.Where(sb.Equal("severity_band_id", *severityBandID))
	}

	query, args := sb.Build()

	cost, err := repositories.Get[models.ActivityCost](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"activity_id":   activityID,
			"price_book_id": priceBookID,
		}).Error("failed to get activity cost")
		return nil, fmt.Errorf("failed to get activity cost: %w", err)
	}
	return cost, nil
}

func (r *Repository) Insert(ctx context.Context, cost models.ActivityCost) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ActivityCostRepository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder(r.db.Flavor())
	ib.InsertInto(tableName)
	ib.Cols(columns[1:]...)
	ib.Values(
		cost.ActivityID,
		cost.PriceBookID,
		cost.SeverityBandID,
		cost.LaborUnitID,
		cost.MaterialUnitID,
		cost.LaborUnitCost,
		cost.LaborCostMin,
		cost.LaborCostMax,
		cost.MaterialUnitCost,
		cost.MaterialCostMin,
		cost.MaterialCostMax,
	)

	created, err := repositories.InsertIgnore(ctx, r.db.Executor(ctx), ib)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"activity_id":   cost.ActivityID,
			"price_book_id": cost.PriceBookID,
		}).Error("failed to insert activity cost")
		return false, fmt.Errorf("failed to insert activity cost: %w", err)
	}
	return created, nil
}

func (r *Repository) ListCostLines(ctx context.Context, damageTypeID, priceBookID, severityBandID int64) ([]models.CostLine, error) {
	ctx, span := tracing.StartSpan(ctx, "ActivityCostRepository.ListCostLines")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(
		"a.activity_id",
		sb.As("a.code_nl", "activity_code_nl"),
		sb.As("a.code_en", "activity_code_en"),
		sb.As("a.name_nl", "activity_name_nl"),
		sb.As("a.name_en", "activity_name_en"),
		"dta.is_required",
		"dta.sequence_order",
		"ac.severity_band_id",
		sb.As("lu.symbol", "labor_unit"),
		sb.As("mu.symbol", "material_unit"),
		"ac.labor_unit_cost",
		"ac.labor_cost_min",
		"ac.labor_cost_max",
		"ac.material_unit_cost",
		"ac.material_cost_min",
		"ac.material_cost_max",
	)
	sb.From(sb.As("damage_type_activity", "dta"))
	sb.Join(sb.As("activity", "a"), "a.activity_id = dta.activity_id")
	sb.Join(sb.As(tableName, "ac"), "ac.activity_id = dta.activity_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, sb.As("unit", "lu"), "lu.unit_id = ac.labor_unit_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, sb.As("unit", "mu"), "mu.unit_id = ac.material_unit_id")
	sb.Where(
		sb.Equal("dta.damage_type_id", damageTypeID),
		sb.Equal("ac.price_book_id", priceBookID),
		sb.Or(
			sb.IsNull("ac.severity_band_id"),
			sb.Equal("ac.severity_band_id", severityBandID),
		),
	)
	sb.OrderBy("a.activity_id ASC", "ac.activity_cost_id ASC")

	query, args := sb.Build()

	lines, err := repositories.Select[models.CostLine](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"damage_type_id": damageTypeID,
			"price_book_id":  priceBookID,
		}).Error("failed to list cost lines")
		return nil, fmt.Errorf("failed to list cost lines: %w", err)
	}
	return lines, nil
}
