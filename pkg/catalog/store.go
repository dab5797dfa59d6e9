package catalog

import (
	"context"

	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/shopspring/decimal"
)

// Find methods return nil (or an empty slice) without error when nothing matches.
// Insert methods ignore rows whose natural key already exists and report whether a row was created.

type CategoryStore interface {
	// FindCategories returns categories whose nl code equals codeNL or whose en code equals codeEN, lowest id first.
	FindCategories(ctx context.Context, codeNL, codeEN string) ([]models.DamageCategory, error)
	InsertCategory(ctx context.Context, category models.DamageCategory) (bool, error)
	ListCategories(ctx context.Context) ([]models.DamageCategory, error)
	UpdateCategory(ctx context.Context, category models.DamageCategory) error
}

type DamageTypeStore interface {
	// FindDamageTypes matches like FindCategories; a non-nil categoryID restricts the search to that category.
	FindDamageTypes(ctx context.Context, categoryID *int64, codeNL, codeEN string) ([]models.DamageType, error)
	// FindDamageTypesByCode returns types whose code equals code in any of langs.
	FindDamageTypesByCode(ctx context.Context, code string, langs ...models.Language) ([]models.DamageType, error)
	GetDamageType(ctx context.Context, id int64) (*models.DamageType, error)
	InsertDamageType(ctx context.Context, damageType models.DamageType) (bool, error)
	ListDamageTypes(ctx context.Context) ([]models.DamageType, error)
	UpdateDamageType(ctx context.Context, damageType models.DamageType) error
}

type UnitStore interface {
	FindUnit(ctx context.Context, symbol string) (*models.Unit, error)
	// LowestUnit returns the unit with the lowest id, the fallback reference unit of severity bands.
	LowestUnit(ctx context.Context) (*models.Unit, error)
	InsertUnit(ctx context.Context, unit models.Unit) (bool, error)
}

type PriceBookStore interface {
	FindPriceBook(ctx context.Context, year int) (*models.PriceBookVersion, error)
	InsertPriceBook(ctx context.Context, priceBook models.PriceBookVersion) (bool, error)
	// LatestPriceYear returns the newest year with at least one cost row for an activity of the damage type.
	LatestPriceYear(ctx context.Context, damageTypeID int64) (int, bool, error)
}

type SeverityBandStore interface {
	FindSeverityBand(ctx context.Context, damageTypeID int64, label string) (*models.SeverityBand, error)
	FindSeverityBandByRange(ctx context.Context, damageTypeID int64, rangeMin, rangeMax decimal.Decimal) (*models.SeverityBand, error)
	InsertSeverityBand(ctx context.Context, band models.SeverityBand) (bool, error)
	// ListSeverityBands returns the bands of a type joined with their unit, lowest id first.
	ListSeverityBands(ctx context.Context, damageTypeID int64) ([]models.BandWithUnit, error)
}

type ActivityStore interface {
	FindActivities(ctx context.Context, codeNL, codeEN string) ([]models.Activity, error)
	InsertActivity(ctx context.Context, activity models.Activity) (bool, error)
	ListActivities(ctx context.Context) ([]models.Activity, error)
	UpdateActivity(ctx context.Context, activity models.Activity) error
}

type BridgeStore interface {
	FindBridge(ctx context.Context, damageTypeID, activityID int64) (*models.DamageTypeActivity, error)
	InsertBridge(ctx context.Context, bridge models.DamageTypeActivity) (bool, error)
}

type ActivityCostStore interface {
	FindActivityCost(ctx context.Context, activityID, priceBookID int64, severityBandID *int64) (*models.ActivityCost, error)
	InsertActivityCost(ctx context.Context, cost models.ActivityCost) (bool, error)
	// ListCostLines joins every activity bridged to the type with its cost rows in the price book
	// that are either band-less or attached to severityBandID.
	ListCostLines(ctx context.Context, damageTypeID, priceBookID, severityBandID int64) ([]models.CostLine, error)
}

type KeywordStore interface {
	InsertKeyword(ctx context.Context, keyword models.DamageTypeKeyword) (bool, error)
	ListKeywords(ctx context.Context, damageTypeID int64) ([]models.DamageTypeKeyword, error)
}

// Store is the canonical catalog.
type Store interface {
	CategoryStore
	DamageTypeStore
	UnitStore
	PriceBookStore
	SeverityBandStore
	ActivityStore
	BridgeStore
	ActivityCostStore
	KeywordStore

	// RunInTx runs fn in one transaction; a transaction already carried by ctx is joined.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Reader is the read-only surface used by the estimator.
type Reader interface {
	FindDamageTypesByCode(ctx context.Context, code string, langs ...models.Language) ([]models.DamageType, error)
	FindPriceBook(ctx context.Context, year int) (*models.PriceBookVersion, error)
	LatestPriceYear(ctx context.Context, damageTypeID int64) (int, bool, error)
	FindUnit(ctx context.Context, symbol string) (*models.Unit, error)
	ListSeverityBands(ctx context.Context, damageTypeID int64) ([]models.BandWithUnit, error)
	ListCostLines(ctx context.Context, damageTypeID, priceBookID, severityBandID int64) ([]models.CostLine, error)
}
