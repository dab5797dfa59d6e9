package pricebook

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/kodi/internal/repositories"
	"github.com/Ramsey-B/kodi/pkg/database"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

const tableName = "price_book_version"

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

// dates are read back as yyyy-mm-dd text on both dialects
func (r *Repository) selectColumns(sb *database.SelectBuilder) {
	sb.Select(
		"price_book_id",
		"year_label",
		sb.As("CAST(valid_from AS TEXT)", "valid_from"),
		sb.As("CAST(valid_to AS TEXT)", "valid_to"),
	)
}

func (r *Repository) GetByYear(ctx context.Context, year int) (*models.PriceBookVersion, error) {
	ctx, span := tracing.StartSpan(ctx, "PriceBookRepository.GetByYear")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	r.selectColumns(sb)
	sb.From(tableName)
	sb.Where(sb.Equal("year_label", year))

	query, args := sb.Build()

	priceBook, err := repositories.Get[models.PriceBookVersion](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("year", year).Error("failed to get price book")
		return nil, fmt.Errorf("failed to get price book: %w", err)
	}
	return priceBook, nil
}

func (r *Repository) Insert(ctx context.Context, priceBook models.PriceBookVersion) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "PriceBookRepository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder(r.db.Flavor())
	ib.InsertInto(tableName)
	ib.Cols("year_label", "valid_from", "valid_to")
	ib.Values(priceBook.YearLabel, priceBook.ValidFrom, priceBook.ValidTo)

	created, err := repositories.InsertIgnore(ctx, r.db.Executor(ctx), ib)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("year", priceBook.YearLabel).Error("failed to insert price book")
		return false, fmt.Errorf("failed to insert price book: %w", err)
	}
	return created, nil
}

// LatestYearForType returns the newest year with a cost row for an activity bridged to the damage type.
func (r *Repository) LatestYearForType(ctx context.Context, damageTypeID int64) (int, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "PriceBookRepository.LatestYearForType")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select("MAX(pb.year_label)")
	sb.From(sb.As(tableName, "pb"))
	sb.Join(sb.As("activity_cost", "ac"), "ac.price_book_id = pb.price_book_id")
	sb.Join(sb.As("damage_type_activity", "dta"), "dta.activity_id = ac.activity_id")
	sb.Where(sb.Equal("dta.damage_type_id", damageTypeID))

	query, args := sb.Build()

	var year sql.NullInt64
	if err := r.db.Executor(ctx).GetContext(ctx, &year, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("damage_type_id", damageTypeID).Error("failed to get latest price year")
		return 0, false, fmt.Errorf("failed to get latest price year: %w", err)
	}
	if !year.Valid {
		return 0, false, nil
	}
	return int(year.Int64), true, nil
}
