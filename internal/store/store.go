// Package store implements the canonical catalog on a SQL database.
package store

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"

	"github.com/Ramsey-B/kodi/internal/repositories/activity"
	"github.com/Ramsey-B/kodi/internal/repositories/activitycost"
	"github.com/Ramsey-B/kodi/internal/repositories/bridge"
	"github.com/Ramsey-B/kodi/internal/repositories/category"
	"github.com/Ramsey-B/kodi/internal/repositories/damagetype"
	"github.com/Ramsey-B/kodi/internal/repositories/keyword"
	"github.com/Ramsey-B/kodi/internal/repositories/pricebook"
	"github.com/Ramsey-B/kodi/internal/repositories/severityband"
	"github.com/Ramsey-B/kodi/internal/repositories/unit"
	"github.com/Ramsey-B/kodi/pkg/catalog"
	"github.com/Ramsey-B/kodi/pkg/database"
	"github.com/Ramsey-B/kodi/pkg/models"
)

var _ catalog.Store = (*Store)(nil)

type Store struct {
	db            database.DB
	categories    *category.Repository
	damageTypes   *damagetype.Repository
	units         *unit.Repository
	priceBooks    *pricebook.Repository
	bands         *severityband.Repository
	activities    *activity.Repository
	bridges       *bridge.Repository
	activityCosts *activitycost.Repository
	keywords      *keyword.Repository
}

func New(db database.DB, logger ectologger.Logger) *Store {
	return &Store{
		db:            db,
		categories:    category.NewRepository(db, logger),
		damageTypes:   damagetype.NewRepository(db, logger),
		units:         unit.NewRepository(db, logger),
		priceBooks:    pricebook.NewRepository(db, logger),
		bands:         severityband.NewRepository(db, logger),
		activities:    activity.NewRepository(db, logger),
		bridges:       bridge.NewRepository(db, logger),
		activityCosts: activitycost.NewRepository(db, logger),
		keywords:      keyword.NewRepository(db, logger),
	}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithTx(ctx, s.db, fn)
}

// conflict marks unique violations so callers can tell them apart from other write failures.
func conflict(err error) error {
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", catalog.ErrConflict, err)
	}
	return err
}

func (s *Store) FindCategories(ctx context.Context, codeNL, codeEN string) ([]models.DamageCategory, error) {
	return s.categories.FindByCodes(ctx, codeNL, codeEN)
}

func (s *Store) InsertCategory(ctx context.Context, c models.DamageCategory) (bool, error) {
	created, err := s.categories.Insert(ctx, c)
	return created, conflict(err)
}

func (s *Store) ListCategories(ctx context.Context) ([]models.DamageCategory, error) {
	return s.categories.List(ctx)
}

func (s *Store) UpdateCategory(ctx context.Context, c models.DamageCategory) error {
	return conflict(s.categories.UpdateCodes(ctx, c))
}

func (s *Store) FindDamageTypes(ctx context.Context, categoryID *int64, codeNL, codeEN string) ([]models.DamageType, error) {
	return s.damageTypes.FindByCodes(ctx, categoryID, codeNL, codeEN)
}

func (s *Store) FindDamageTypesByCode(ctx context.Context, code string, langs ...models.Language) ([]models.DamageType, error) {
	return s.damageTypes.FindByCode(ctx, code, langs...)
}

func (s *Store) GetDamageType(ctx context.Context, id int64) (*models.DamageType, error) {
	return s.damageTypes.GetByID(ctx, id)
}

func (s *Store) InsertDamageType(ctx context.Context, t models.DamageType) (bool, error) {
	created, err := s.damageTypes.Insert(ctx, t)
	return created, conflict(err)
}

func (s *Store) ListDamageTypes(ctx context.Context) ([]models.DamageType, error) {
	return s.damageTypes.List(ctx)
}

func (s *Store) UpdateDamageType(ctx context.Context, t models.DamageType) error {
	return conflict(s.damageTypes.UpdateCodes(ctx, t))
}

func (s *Store) FindUnit(ctx context.Context, symbol string) (*models.Unit, error) {
	return s.units.GetBySymbol(ctx, symbol)
}

func (s *Store) LowestUnit(ctx context.Context) (*models.Unit, error) {
	return s.units.Lowest(ctx)
}

func (s *Store) InsertUnit(ctx context.Context, u models.Unit) (bool, error) {
	created, err := s.units.Insert(ctx, u)
	return created, conflict(err)
}

func (s *Store) FindPriceBook(ctx context.Context, year int) (*models.PriceBookVersion, error) {
	return s.priceBooks.GetByYear(ctx, year)
}

func (s *Store) InsertPriceBook(ctx context.Context, pb models.PriceBookVersion) (bool, error) {
	created, err := s.priceBooks.Insert(ctx, pb)
	return created, conflict(err)
}

func (s *Store) LatestPriceYear(ctx context.Context, damageTypeID int64) (int, bool, error) {
	return s.priceBooks.LatestYearForType(ctx, damageTypeID)
}

func (s *Store) FindSeverityBand(ctx context.Context, damageTypeID int64, label string) (*models.SeverityBand, error) {
	return s.bands.GetByLabel(ctx, damageTypeID, label)
}

func (s *Store) FindSeverityBandByRange(ctx context.Context, damageTypeID int64, rangeMin, rangeMax decimal.Decimal) (*models.SeverityBand, error) {
	return s.bands.GetByRange(ctx, damageTypeID, rangeMin, rangeMax)
}

func (s *Store) InsertSeverityBand(ctx context.Context, band models.SeverityBand) (bool, error) {
	created, err := s.bands.Insert(ctx, band)
	return created, conflict(err)
}

func (s *Store) ListSeverityBands(ctx context.Context, damageTypeID int64) ([]models.BandWithUnit, error) {
	return s.bands.ListWithUnit(ctx, damageTypeID)
}

func (s *Store) FindActivities(ctx context.Context, codeNL, codeEN string) ([]models.Activity, error) {
	return s.activities.FindByCodes(ctx, codeNL, codeEN)
}

func (s *Store) InsertActivity(ctx context.Context, a models.Activity) (bool, error) {
	created, err := s.activities.Insert(ctx, a)
	return created, conflict(err)
}

func (s *Store) ListActivities(ctx context.Context) ([]models.Activity, error) {
	return s.activities.List(ctx)
}

func (s *Store) UpdateActivity(ctx context.Context, a models.Activity) error {
	return conflict(s.activities.UpdateCodes(ctx, a))
}

func (s *Store) FindBridge(ctx context.Context, damageTypeID, activityID int64) (*models.DamageTypeActivity, error) {
	return s.bridges.Get(ctx, damageTypeID, activityID)
}

func (s *Store) InsertBridge(ctx context.Context, b models.DamageTypeActivity) (bool, error) {
	created, err := s.bridges.Insert(ctx, b)
	return created, conflict(err)
}

func (s *Store) FindActivityCost(ctx context.Context, activityID, priceBookID int64, severityBandID *int64) (*models.ActivityCost, error) {
	return s.activityCosts.Get(ctx, activityID, priceBookID, severityBandID)
}

func (s *Store) InsertActivityCost(ctx context.Context, cost models.ActivityCost) (bool, error) {
	created, err := s.activityCosts.Insert(ctx, cost)
	return created, conflict(err)
}

func (s *Store) ListCostLines(ctx context.Context, damageTypeID, priceBookID, severityBandID int64) ([]models.CostLine, error) {
	return s.activityCosts.ListCostLines(ctx, damageTypeID, priceBookID, severityBandID)
}

func (s *Store) InsertKeyword(ctx context.Context, k models.DamageTypeKeyword) (bool, error) {
	created, err := s.keywords.Insert(ctx, k)
	return created, conflict(err)
}

func (s *Store) ListKeywords(ctx context.Context, damageTypeID int64) ([]models.DamageTypeKeyword, error) {
	return s.keywords.List(ctx, damageTypeID)
}
