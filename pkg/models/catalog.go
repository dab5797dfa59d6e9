package models

import (
	"github.com/shopspring/decimal"
)

// DamageCategory is the top-level grouping of damage types.
type DamageCategory struct {
	ID int64 `db:"damage_category_id" json:"id"`
	Bilingual
}

// DamageType is a specific kind of damage. Its category never changes after creation.
type DamageType struct {
	ID         int64 `db:"damage_type_id" json:"id"`
	CategoryID int64 `db:"damage_category_id" json:"category_id"`
	Bilingual
}

// Unit is a measurement symbol with its conversion to the base unit.
type Unit struct {
	ID               int64           `db:"unit_id" json:"id"`
	Symbol           string          `db:"symbol" json:"symbol"`
	Description      *string         `db:"description" json:"description,omitempty"`
	ConversionToBase decimal.Decimal `db:"conversion_to_base" json:"conversion_to_base"`
	BaseSymbol       *string         `db:"base_symbol" json:"base_symbol,omitempty"`
}

// SeverityBand is a labeled size range of one damage type, expressed in UnitID.
type SeverityBand struct {
	ID           int64           `db:"severity_band_id" json:"id"`
	DamageTypeID int64           `db:"damage_type_id" json:"damage_type_id"`
	Label        string          `db:"band_label" json:"label"`
	UnitID       int64           `db:"unit_id" json:"unit_id"`
	RangeMin     decimal.Decimal `db:"range_min" json:"range_min"`
	RangeMax     decimal.Decimal `db:"range_max" json:"range_max"`
}

// BandWithUnit is a severity band joined with its unit, as the estimator reads it.
type BandWithUnit struct {
	SeverityBand
	UnitSymbol       string          `db:"unit_symbol"`
	ConversionToBase decimal.Decimal `db:"unit_conversion_to_base"`
}

// Activity is an atomic repair task.
type Activity struct {
	ID int64 `db:"activity_id" json:"id"`
	Bilingual
	DefaultUnitID *int64 `db:"default_unit_id" json:"default_unit_id,omitempty"`
}

// DamageTypeActivity links a damage type to one of its activities.
type DamageTypeActivity struct {
	DamageTypeID  int64   `db:"damage_type_id" json:"damage_type_id"`
	ActivityID    int64   `db:"activity_id" json:"activity_id"`
	IsRequired    bool    `db:"is_required" json:"is_required"`
	SequenceOrder *int    `db:"sequence_order" json:"sequence_order,omitempty"`
	Notes         *string `db:"notes" json:"notes,omitempty"`
}

// PriceBookVersion is the price context of one calendar year. Dates are ISO yyyy-mm-dd.
type PriceBookVersion struct {
	ID        int64   `db:"price_book_id" json:"id"`
	YearLabel int     `db:"year_label" json:"year"`
	ValidFrom string  `db:"valid_from" json:"valid_from"`
	ValidTo   *string `db:"valid_to" json:"valid_to,omitempty"`
}

// ActivityCost prices one activity within a price book, optionally for a single severity band.
// Each side carries either a unit rate or a min/max range; nothing enforces exclusivity.
type ActivityCost struct {
	ID               int64               `db:"activity_cost_id" json:"id"`
	ActivityID       int64               `db:"activity_id" json:"activity_id"`
	PriceBookID      int64               `db:"price_book_id" json:"price_book_id"`
	SeverityBandID   *int64              `db:"severity_band_id" json:"severity_band_id,omitempty"`
	LaborUnitID      *int64              `db:"labor_unit_id" json:"labor_unit_id,omitempty"`
	MaterialUnitID   *int64              `db:"material_unit_id" json:"material_unit_id,omitempty"`
	LaborUnitCost    decimal.NullDecimal `db:"labor_unit_cost" json:"labor_unit_cost"`
	LaborCostMin     decimal.NullDecimal `db:"labor_cost_min" json:"labor_cost_min"`
	LaborCostMax     decimal.NullDecimal `db:"labor_cost_max" json:"labor_cost_max"`
	MaterialUnitCost decimal.NullDecimal `db:"material_unit_cost" json:"material_unit_cost"`
	MaterialCostMin  decimal.NullDecimal `db:"material_cost_min" json:"material_cost_min"`
	MaterialCostMax  decimal.NullDecimal `db:"material_cost_max" json:"material_cost_max"`
}

// CostLine is a bridged activity joined with one applicable cost row of a price book.
type CostLine struct {
	ActivityID     int64  `db:"activity_id"`
	ActivityCodeNL string `db:"activity_code_nl"`
	ActivityCodeEN string `db:"activity_code_en"`
	ActivityNameNL string `db:"activity_name_nl"`
	ActivityNameEN string `db:"activity_name_en"`
	IsRequired     bool   `db:"is_required"`
	SequenceOrder  *int   `db:"sequence_order"`
	SeverityBandID *int64 `db:"severity_band_id"`

	LaborUnit        *string             `db:"labor_unit"`
	MaterialUnit     *string             `db:"material_unit"`
	LaborUnitCost    decimal.NullDecimal `db:"labor_unit_cost"`
	LaborCostMin     decimal.NullDecimal `db:"labor_cost_min"`
	LaborCostMax     decimal.NullDecimal `db:"labor_cost_max"`
	MaterialUnitCost decimal.NullDecimal `db:"material_unit_cost"`
	MaterialCostMin  decimal.NullDecimal `db:"material_cost_min"`
	MaterialCostMax  decimal.NullDecimal `db:"material_cost_max"`
}

func (l CostLine) ActivityCode(lang Language) string {
	if lang == LanguageEN {
		return l.ActivityCodeEN
	}
	return l.ActivityCodeNL
}

func (l CostLine) ActivityName(lang Language) string {
	if lang == LanguageEN {
		return l.ActivityNameEN
	}
	return l.ActivityNameNL
}

// DamageTypeKeyword is a free-text alias stored for later search. No matching is done on it.
type DamageTypeKeyword struct {
	ID           int64    `db:"keyword_id" json:"id"`
	DamageTypeID int64    `db:"damage_type_id" json:"damage_type_id"`
	Language     Language `db:"language" json:"language"`
	KeywordText  string   `db:"keyword_text" json:"keyword_text"`
}
