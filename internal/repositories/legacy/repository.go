package legacy

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/kodi/internal/repositories"
	"github.com/Ramsey-B/kodi/pkg/database"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

// TableName is the pre-existing flat spreadsheet table. It is owned by an external loader
// and never created by migrations.
const TableName = "kosten_kodi_spreadsheet"

// the spreadsheet stores years and prices in whatever type the loader picked
var textColumns = []string{
	"hoofdcategorie", "hoofdcategorie_en",
	"subcategorie", "subcategorie_en",
	"omschrijving", "omschrijving_en",
	"activiteit", "activiteit_en",
	"jaar", "ernst", "ernst_min", "ernst_max",
	"eenheid", "eenheid_materiaal",
	"arbeid_per_eenheid", "arbeid_min", "arbeid_max",
	"materiaal_per_eenheid", "materiaal_min", "materiaal_max",
	"opmerking",
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

func (r *Repository) Table() string {
	return TableName
}

func (r *Repository) Exists(ctx context.Context) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "LegacyRepository.Exists")
	defer span.End()

	exists, err := repositories.Exists(ctx, r.db, TableName)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to check legacy table")
		return false, fmt.Errorf("failed to check legacy table: %w", err)
	}
	return exists, nil
}

func (r *Repository) List(ctx context.Context) ([]models.LegacyRow, error) {
	ctx, span := tracing.StartSpan(ctx, "LegacyRepository.List")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	cols := []string{"id"}
	for _, col := range textColumns {
		cols = append(cols, sb.As(fmt.Sprintf("CAST(%s AS TEXT)", col), col))
	}
	sb.Select(cols...)
	sb.From(TableName)
	sb.OrderBy("id ASC")

	query, args := sb.Build()

	rows, err := repositories.Select[models.LegacyRow](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list legacy rows")
		return nil, fmt.Errorf("failed to list legacy rows: %w", err)
	}
	return rows, nil
}
