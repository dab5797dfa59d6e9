package severityband

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"

	"github.com/Ramsey-B/kodi/internal/repositories"
	"github.com/Ramsey-B/kodi/pkg/database"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

const tableName = "severity_band"

var columns = []string{"severity_band_id", "damage_type_id", "band_label", "unit_id", "range_min", "range_max"}

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

func (r *Repository) GetByLabel(ctx context.Context, damageTypeID int64, label string) (*models.SeverityBand, error) {
	ctx, span := tracing.StartSpan(ctx, "SeverityBandRepository.GetByLabel")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("damage_type_id", damageTypeID),
		sb.Equal("band_label", label),
	)

	query, args := sb.Build()

	band, err := repositories.Get[models.SeverityBand](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"damage_type_id": damageTypeID,
			"label":          label,
		}).Error("failed to get severity band by label")
		return nil, fmt.Errorf("failed to get severity band: %w", err)
	}
	return band, nil
}

func (r *Repository) GetByRange(ctx context.Context, damageTypeID int64, rangeMin, rangeMax decimal.Decimal) (*models.SeverityBand, error) {
	ctx, span := tracing.StartSpan(ctx, "SeverityBandRepository.GetByRange")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("damage_type_id", damageTypeID),
		sb.Equal("range_min", rangeMin),
		sb.Equal("range_max", rangeMax),
	)

	query, args := sb.Build()

	band, err := repositories.Get[models.SeverityBand](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("damage_type_id", damageTypeID).Error("failed to get severity band by range")
		return nil, fmt.Errorf("failed to get severity band: %w", err)
	}
	return band, nil
}

func (r *Repository) Insert(ctx context.Context, band models.SeverityBand) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "SeverityBandRepository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder(r.db.Flavor())
	ib.InsertInto(tableName)
	ib.Cols("damage_type_id", "band_label", "unit_id", "range_min", "range_max")
	ib.Values(band.DamageTypeID, band.Label, band.UnitID, band.RangeMin, band.RangeMax)

	created, err := repositories.InsertIgnore(ctx, r.db.Executor(ctx), ib)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"damage_type_id": band.DamageTypeID,
			"label":          band.Label,
		}).Error("failed to insert severity band")
		return false, fmt.Errorf("failed to insert severity band: %w", err)
	}
	return created, nil
}

// ListWithUnit returns the bands of a damage type joined with their unit, lowest id first.
func (r *Repository) ListWithUnit(ctx context.Context, damageTypeID int64) ([]models.BandWithUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "SeverityBandRepository.ListWithUnit")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(
		"b.severity_band_id",
		"b.damage_type_id",
		"b.band_label",
		"b.unit_id",
		"b.range_min",
		"b.range_max",
		sb.As("u.symbol", "unit_symbol"),
		sb.As("u.conversion_to_base", "unit_conversion_to_base"),
	)
	sb.From(sb.As(tableName, "b"))
	sb.Join(sb.As("unit", "u"), "u.unit_id = b.unit_id")
	sb.Where(sb.Equal("b.damage_type_id", damageTypeID))
	sb.OrderBy("b.severity_band_id ASC")

	query, args := sb.Build()

	bands, err := repositories.Select[models.BandWithUnit](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("damage_type_id", damageTypeID).Error("failed to list severity bands")
		return nil, fmt.Errorf("failed to list severity bands: %w", err)
	}
	return bands, nil
}
