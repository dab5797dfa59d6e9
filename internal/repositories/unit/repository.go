package unit

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/kodi/internal/repositories"
	"github.com/Ramsey-B/kodi/pkg/database"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

const tableName = "unit"

var columns = []string{"unit_id", "symbol", "description", "conversion_to_base", "base_symbol"}

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

func (r *Repository) GetBySymbol(ctx context.Context, symbol string) (*models.Unit, error) {
	ctx, span := tracing.StartSpan(ctx, "UnitRepository.GetBySymbol")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("symbol", symbol))

	query, args := sb.Build()

	unit, err := repositories.Get[models.Unit](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("symbol", symbol).Error("failed to get unit")
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return unit, nil
}

// Lowest returns the unit with the lowest id.
func (r *Repository) Lowest(ctx context.Context) (*models.Unit, error) {
	ctx, span := tracing.StartSpan(ctx, "UnitRepository.Lowest")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(columns...)
	sb.From(tableName)
	sb.OrderBy("unit_id ASC")
	sb.Limit(1)

	query, args := sb.Build()

	unit, err := repositories.Get[models.Unit](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get lowest unit")
		return nil, fmt.Errorf("failed to get lowest unit: %w", err)
	}
	return unit, nil
}

func (r *Repository) Insert(ctx context.Context, unit models.Unit) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "UnitRepository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder(r.db.Flavor())
	ib.InsertInto(tableName)
	ib.Cols("symbol", "description", "conversion_to_base", "base_symbol")
	ib.Values(unit.Symbol, unit.Description, unit.ConversionToBase, unit.BaseSymbol)

	created, err := repositories.InsertIgnore(ctx, r.db.Executor(ctx), ib)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("symbol", unit.Symbol).Error("failed to insert unit")
		return false, fmt.Errorf("failed to insert unit: %w", err)
	}
	if created {
		r.logger.WithContext(ctx).WithField("symbol", unit.Symbol).Warn("created unit with conversion factor 1, set the real factor manually")
	}
	return created, nil
}
