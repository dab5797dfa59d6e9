package models

import (
	"github.com/shopspring/decimal"
)

// EstimateQuery asks for the cost of repairing one damage of a given size.
// A zero PriceYear selects the latest year that has costs for the damage type.
type EstimateQuery struct {
	DamageCode string          `json:"damage_code" query:"damage_code" validate:"required"`
	Language   Language        `json:"language" query:"language" validate:"omitempty,oneof=nl en"`
	Size       decimal.Decimal `json:"size" query:"size"`
	Unit       string          `json:"unit" query:"unit" validate:"required"`
	PriceYear  int             `json:"price_year,omitempty" query:"price_year" validate:"omitempty,gte=1900,lte=9999"`
	Verbose    bool            `json:"verbose,omitempty" query:"verbose"`
}

// Estimate is the ordered cost breakdown of one query.
type Estimate struct {
	DamageTypeID int64           `json:"damage_type_id"`
	DamageCode   string          `json:"damage_code"`
	DamageName   string          `json:"damage_name"`
	Language     Language        `json:"language"`
	PriceYear    int             `json:"price_year"`
	Size         decimal.Decimal `json:"size"`
	Unit         string          `json:"unit"`
	BaseSize     decimal.Decimal `json:"base_size"`
	Band         *BandInfo       `json:"band,omitempty"`
	Lines        []LineItem      `json:"lines"`
	Totals       Totals          `json:"totals"`
}

// BandInfo describes the selected severity band; only filled for verbose queries.
type BandInfo struct {
	ID       int64           `json:"id"`
	Label    string          `json:"label"`
	RangeMin decimal.Decimal `json:"range_min"`
	RangeMax decimal.Decimal `json:"range_max"`
	Unit     string          `json:"unit"`
}

// LineItem is the priced breakdown of one activity.
type LineItem struct {
	ActivityCode      string              `json:"activity_code"`
	ActivityName      string              `json:"activity_name"`
	IsRequired        bool                `json:"is_required"`
	SequenceOrder     *int                `json:"sequence_order"`
	LaborUnit         *string             `json:"labor_unit"`
	MaterialUnit      *string             `json:"material_unit"`
	LaborCostMin      decimal.NullDecimal `json:"labor_cost_min"`
	LaborCostMax      decimal.NullDecimal `json:"labor_cost_max"`
	LaborUnitCost     decimal.NullDecimal `json:"labor_unit_cost"`
	MaterialCostMin   decimal.NullDecimal `json:"material_cost_min"`
	MaterialCostMax   decimal.NullDecimal `json:"material_cost_max"`
	MaterialUnitCost  decimal.NullDecimal `json:"material_unit_cost"`
	EstimatedLabor    decimal.NullDecimal `json:"estimated_labor"`
	EstimatedMaterial decimal.NullDecimal `json:"estimated_material"`
}

type Totals struct {
	Labor      decimal.Decimal `json:"labor"`
	Material   decimal.Decimal `json:"material"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}
