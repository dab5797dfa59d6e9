package normalizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Ramsey-B/kodi/pkg/catalog"
	kerrors "github.com/Ramsey-B/kodi/pkg/errors"
	"github.com/Ramsey-B/kodi/pkg/models"
)

const (
	DefaultBandLabel = "default"
	// GeneratedUnitDescription marks units created on first sight; their factor must be set by hand.
	GeneratedUnitDescription = "created by normalizer, conversion factor not set"
)

var (
	DefaultBandMin = decimal.Zero
	DefaultBandMax = decimal.NewFromInt(999999)
)

// runState carries the ids each stage resolved, indexed like the input rows.
type runState struct {
	category   []int64
	damageType []int64
	units      map[string]int64
	priceBook  []*int64
	band       []int64
	activity   []int64
	lowestUnit *int64
}

type stageFunc func(ctx context.Context, rows []Row, st *runState, result *Result) (int, error)

func (n *Normalizer) runStages(ctx context.Context, rows []Row, result *Result) error {
	st := &runState{
		category:   make([]int64, len(rows)),
		damageType: make([]int64, len(rows)),
		units:      map[string]int64{},
		priceBook:  make([]*int64, len(rows)),
		band:       make([]int64, len(rows)),
		activity:   make([]int64, len(rows)),
	}

	stages := []struct {
		kind string
		fn   stageFunc
	}{
		{KindCategory, n.resolveCategories},
		{KindDamageType, n.resolveDamageTypes},
		{KindUnit, n.resolveUnits},
		{KindPriceBook, n.resolvePriceBooks},
		{KindSeverityBand, n.resolveSeverityBands},
		{KindActivity, n.resolveActivities},
		{KindBridge, n.resolveBridges},
		{KindCost, n.resolveCosts},
	}

	for _, s := range stages {
		var created int
		err := n.stage(ctx, s.kind, func(ctx context.Context) error {
			var err error
			created, err = s.fn(ctx, rows, st, result)
			return err
		})
		if err != nil {
			return fmt.Errorf("%s stage: %w", s.kind, err)
		}
		result.Created[s.kind] += created
	}
	return nil
}

func bilingualKey(b models.Bilingual) string {
	return b.CodeNL + "\x00" + b.CodeEN
}

// pick applies the match strategy to an OR lookup. A partial collision under MatchBoth
// cannot be inserted and is reported as a code conflict.
func pick[T any](strategy catalog.MatchStrategy, entity string, candidates []T, codes func(T) models.Bilingual, b models.Bilingual) (*T, error) {
	match, partial := catalog.Pick(strategy, candidates, codes, b.CodeNL, b.CodeEN)
	if match == nil && partial {
		return nil, kerrors.CodeConflict(entity, b.CodeNL, b.CodeEN)
	}
	return match, nil
}

func (n *Normalizer) resolveCodes() resolveFunc {
	if n.opts.CrossLanguageFallback {
		return ResolveCodesCrossLanguage
	}
	return ResolveCodes
}

func categoryCodes(c models.DamageCategory) models.Bilingual { return c.Bilingual }
func damageTypeCodes(t models.DamageType) models.Bilingual   { return t.Bilingual }
func activityCodes(a models.Activity) models.Bilingual       { return a.Bilingual }

func (n *Normalizer) resolveCategories(ctx context.Context, rows []Row, st *runState, _ *Result) (int, error) {
	seen := map[string]int64{}
	created := 0
	for i, row := range rows {
		b := row.Category(n.resolveCodes())
		key := bilingualKey(b)
		if id, ok := seen[key]; ok {
			st.category[i] = id
			continue
		}

		category, isNew, err := ensure(ctx, n, KindCategory,
			func(ctx context.Context) (*models.DamageCategory, error) {
				candidates, err := n.store.FindCategories(ctx, b.CodeNL, b.CodeEN)
				if err != nil {
					return nil, err
				}
				return pick(n.opts.Strategy, "category", candidates, categoryCodes, b)
			},
			func(ctx context.Context) (bool, error) {
				return n.store.InsertCategory(ctx, models.DamageCategory{Bilingual: b})
			},
		)
		if err != nil {
			return created, fmt.Errorf("row %s: %w", row.Ref, err)
		}
		if isNew {
			created++
		}
		seen[key] = category.ID
		st.category[i] = category.ID
	}
	return created, nil
}

func (n *Normalizer) findDamageType(ctx context.Context, categoryID int64, b models.Bilingual) (*models.DamageType, error) {
	candidates, err := n.store.FindDamageTypes(ctx, &categoryID, b.CodeNL, b.CodeEN)
	if err != nil {
		return nil, err
	}
	match, err := pick(n.opts.Strategy, "damage type", candidates, damageTypeCodes, b)
	if err != nil || match != nil {
		return match, err
	}

	// codes are unique per language across categories, so a type filed elsewhere blocks the insert
	candidates, err = n.store.FindDamageTypes(ctx, nil, b.CodeNL, b.CodeEN)
	if err != nil {
		return nil, err
	}
	match, err = pick(n.opts.Strategy, "damage type", candidates, damageTypeCodes, b)
	if match != nil {
		n.logger.WithContext(ctx).WithFields(map[string]any{
			"damage_type_id":       match.ID,
			"code_nl":              b.CodeNL,
			"code_en":              b.CodeEN,
			"existing_category_id": match.CategoryID,
			"row_category_id":      categoryID,
		}).Warn("Damage type already exists under another category")
	}
	return match, err
}

func (n *Normalizer) resolveDamageTypes(ctx context.Context, rows []Row, st *runState, _ *Result) (int, error) {
	seen := map[string]int64{}
	created := 0
	for i, row := range rows {
		b := row.DamageType(n.resolveCodes())
		categoryID := st.category[i]
		key := fmt.Sprintf("%d\x00%s", categoryID, bilingualKey(b))
		if id, ok := seen[key]; ok {
			st.damageType[i] = id
			continue
		}

		damageType, isNew, err := ensure(ctx, n, KindDamageType,
			func(ctx context.Context) (*models.DamageType, error) {
				return n.findDamageType(ctx, categoryID, b)
			},
			func(ctx context.Context) (bool, error) {
				return n.store.InsertDamageType(ctx, models.DamageType{CategoryID: categoryID, Bilingual: b})
			},
		)
		if err != nil {
			return created, fmt.Errorf("row %s: %w", row.Ref, err)
		}
		if isNew {
			created++
		}
		seen[key] = damageType.ID
		st.damageType[i] = damageType.ID
	}
	return created, nil
}

func (n *Normalizer) resolveUnits(ctx context.Context, rows []Row, st *runState, _ *Result) (int, error) {
	created := 0
	description := GeneratedUnitDescription
	for _, row := range rows {
		for _, symbol := range row.UnitSymbols() {
			if _, ok := st.units[symbol]; ok {
				continue
			}

			unit, isNew, err := ensure(ctx, n, KindUnit,
				func(ctx context.Context) (*models.Unit, error) {
					return n.store.FindUnit(ctx, symbol)
				},
				func(ctx context.Context) (bool, error) {
					return n.store.InsertUnit(ctx, models.Unit{
						Symbol:           symbol,
						Description:      &description,
						ConversionToBase: decimal.NewFromInt(1),
					})
				},
			)
			if err != nil {
				return created, fmt.Errorf("row %s: %w", row.Ref, err)
			}
			if isNew {
				created++
			}
			st.units[symbol] = unit.ID
		}
	}
	return created, nil
}

// parseYear accepts spreadsheet renderings such as "2017" and "2017.0".
func parseYear(raw string) (int, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsInteger() || d.LessThan(decimal.NewFromInt(1)) || d.GreaterThan(decimal.NewFromInt(9999)) {
		return 0, kerrors.InvalidInput("price year %q is not a valid year", raw)
	}
	return int(d.IntPart()), nil
}

func (n *Normalizer) resolvePriceBooks(ctx context.Context, rows []Row, st *runState, _ *Result) (int, error) {
	seen := map[int]int64{}
	created := 0
	for i, row := range rows {
		if row.PriceYear == "" {
			continue
		}
		year, err := parseYear(row.PriceYear)
		if err != nil {
			return created, fmt.Errorf("row %s: %w", row.Ref, err)
		}
		if id, ok := seen[year]; ok {
			st.priceBook[i] = &id
			continue
		}

		priceBook, isNew, err := ensure(ctx, n, KindPriceBook,
			func(ctx context.Context) (*models.PriceBookVersion, error) {
				return n.store.FindPriceBook(ctx, year)
			},
			func(ctx context.Context) (bool, error) {
				return n.store.InsertPriceBook(ctx, models.PriceBookVersion{
					YearLabel: year,
					ValidFrom: fmt.Sprintf("%04d-01-01", year),
				})
			},
		)
		if err != nil {
			return created, fmt.Errorf("row %s: %w", row.Ref, err)
		}
		if isNew {
			created++
		}
		id := priceBook.ID
		seen[year] = id
		st.priceBook[i] = &id
	}
	return created, nil
}

func parseDecimal(field, raw string) (decimal.NullDecimal, error) {
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return decimal.NullDecimal{}, kerrors.InvalidInput("%s %q is not a number", field, raw)
	}
	return decimal.NewNullDecimal(d), nil
}

func parseRange(row Row) (decimal.Decimal, decimal.Decimal, error) {
	rangeMin, err := parseDecimal("severity min", row.SeverityMin)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	rangeMax, err := parseDecimal("severity max", row.SeverityMax)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	lo, hi := DefaultBandMin, DefaultBandMax
	if rangeMin.Valid {
		lo = rangeMin.Decimal
	}
	if rangeMax.Valid {
		hi = rangeMax.Decimal
	}
	if lo.GreaterThan(hi) {
		return lo, hi, kerrors.InvalidInput("severity range [%s, %s] has min above max", lo, hi)
	}
	return lo, hi, nil
}

// bandUnit resolves the reference unit of a row's band, falling back to the lowest-id unit.
func (n *Normalizer) bandUnit(ctx context.Context, row Row, st *runState) (int64, error) {
	if id, ok := st.units[row.BandUnit()]; ok {
		return id, nil
	}
	if st.lowestUnit != nil {
		return *st.lowestUnit, nil
	}
	unit, err := n.store.LowestUnit(ctx)
	if err != nil {
		return 0, err
	}
	if unit == nil {
		return 0, kerrors.InvalidInput("no unit available for the severity band")
	}
	st.lowestUnit = &unit.ID
	n.logger.WithContext(ctx).WithFields(map[string]any{
		"row":     row.Ref,
		"unit_id": unit.ID,
		"symbol":  unit.Symbol,
	}).Warn("Severity band has no resolvable unit, using lowest id unit")
	return unit.ID, nil
}

func (n *Normalizer) resolveSeverityBands(ctx context.Context, rows []Row, st *runState, _ *Result) (int, error) {
	seen := map[string]int64{}
	created := 0
	for i, row := range rows {
		typeID := st.damageType[i]
		label := firstNonEmpty(row.SeverityLabel, DefaultBandLabel)
		key := fmt.Sprintf("%d\x00%s", typeID, label)
		if id, ok := seen[key]; ok {
			st.band[i] = id
			continue
		}

		rangeMin, rangeMax, err := parseRange(row)
		if err != nil {
			return created, fmt.Errorf("row %s: %w", row.Ref, err)
		}
		unitID, err := n.bandUnit(ctx, row, st)
		if err != nil {
			return created, fmt.Errorf("row %s: %w", row.Ref, err)
		}

		band, isNew, err := ensure(ctx, n, KindSeverityBand,
			func(ctx context.Context) (*models.SeverityBand, error) {
				band, err := n.store.FindSeverityBand(ctx, typeID, label)
				if err != nil || band != nil {
					return band, err
				}
				// the same range may already exist under another label
				return n.store.FindSeverityBandByRange(ctx, typeID, rangeMin, rangeMax)
			},
			func(ctx context.Context) (bool, error) {
				return n.store.InsertSeverityBand(ctx, models.SeverityBand{
					DamageTypeID: typeID,
					Label:        label,
					UnitID:       unitID,
					RangeMin:     rangeMin,
					RangeMax:     rangeMax,
				})
			},
		)
		if err != nil {
			return created, fmt.Errorf("row %s: %w", row.Ref, err)
		}
		if isNew {
			created++
		}
		seen[key] = band.ID
		st.band[i] = band.ID
	}
	return created, nil
}

func (n *Normalizer) unitRef(st *runState, symbol string) *int64 {
	if symbol == "" {
		return nil
	}
	id, ok := st.units[symbol]
	if !ok {
		return nil
	}
	return &id
}

func (n *Normalizer) resolveActivities(ctx context.Context, rows []Row, st *runState, _ *Result) (int, error) {
	seen := map[string]int64{}
	created := 0
	for i, row := range rows {
		b := row.Activity(n.resolveCodes())
		key := bilingualKey(b)
		if id, ok := seen[key]; ok {
			st.activity[i] = id
			continue
		}

		defaultUnit := n.unitRef(st, row.LaborUnit)
		if defaultUnit == nil {
			defaultUnit = n.unitRef(st, row.MaterialUnit)
		}

		activity, isNew, err := ensure(ctx, n, KindActivity,
			func(ctx context.Context) (*models.Activity, error) {
				candidates, err := n.store.FindActivities(ctx, b.CodeNL, b.CodeEN)
				if err != nil {
					return nil, err
				}
				return pick(n.opts.Strategy, "activity", candidates, activityCodes, b)
			},
			func(ctx context.Context) (bool, error) {
				return n.store.InsertActivity(ctx, models.Activity{Bilingual: b, DefaultUnitID: defaultUnit})
			},
		)
		if err != nil {
			return created, fmt.Errorf("row %s: %w", row.Ref, err)
		}
		if isNew {
			created++
		}
		seen[key] = activity.ID
		st.activity[i] = activity.ID
	}
	return created, nil
}

func (n *Normalizer) resolveBridges(ctx context.Context, rows []Row, st *runState, _ *Result) (int, error) {
	seen := map[[2]int64]bool{}
	created := 0
	for i, row := range rows {
		typeID, activityID := st.damageType[i], st.activity[i]
		key := [2]int64{typeID, activityID}
		if seen[key] {
			continue
		}

		var notes *string
		if row.Notes != "" {
			notes = &row.Notes
		}

		_, isNew, err := ensure(ctx, n, KindBridge,
			func(ctx context.Context) (*models.DamageTypeActivity, error) {
				return n.store.FindBridge(ctx, typeID, activityID)
			},
			func(ctx context.Context) (bool, error) {
				return n.store.InsertBridge(ctx, models.DamageTypeActivity{
					DamageTypeID: typeID,
					ActivityID:   activityID,
					IsRequired:   true,
					Notes:        notes,
				})
			},
		)
		if err != nil {
			return created, fmt.Errorf("row %s: %w", row.Ref, err)
		}
		if isNew {
			created++
		}
		seen[key] = true
	}
	return created, nil
}

// costFromRow copies pricing through verbatim; supplying both a rate and a range is allowed.
func (n *Normalizer) costFromRow(row Row, st *runState, activityID, priceBookID, bandID int64) (models.ActivityCost, error) {
	cost := models.ActivityCost{
		ActivityID:     activityID,
		PriceBookID:    priceBookID,
		SeverityBandID: &bandID,
		LaborUnitID:    n.unitRef(st, row.LaborUnit),
		MaterialUnitID: n.unitRef(st, row.MaterialUnit),
	}

	fields := []struct {
		name string
		raw  string
		dst  *decimal.NullDecimal
	}{
		{"labor unit cost", row.LaborUnitCost, &cost.LaborUnitCost},
		{"labor cost min", row.LaborCostMin, &cost.LaborCostMin},
		{"labor cost max", row.LaborCostMax, &cost.LaborCostMax},
		{"material unit cost", row.MaterialUnitCost, &cost.MaterialUnitCost},
		{"material cost min", row.MaterialCostMin, &cost.MaterialCostMin},
		{"material cost max", row.MaterialCostMax, &cost.MaterialCostMax},
	}
	for _, f := range fields {
		v, err := parseDecimal(f.name, f.raw)
		if err != nil {
			return cost, err
		}
		*f.dst = v
	}

	if outOfOrder(cost.LaborCostMin, cost.LaborCostMax) {
		return cost, kerrors.InvalidInput("labor cost min %s exceeds max %s", cost.LaborCostMin.Decimal, cost.LaborCostMax.Decimal)
	}
	if outOfOrder(cost.MaterialCostMin, cost.MaterialCostMax) {
		return cost, kerrors.InvalidInput("material cost min %s exceeds max %s", cost.MaterialCostMin.Decimal, cost.MaterialCostMax.Decimal)
	}
	return cost, nil
}

func outOfOrder(min, max decimal.NullDecimal) bool {
	return min.Valid && max.Valid && min.Decimal.GreaterThan(max.Decimal)
}

func (n *Normalizer) resolveCosts(ctx context.Context, rows []Row, st *runState, result *Result) (int, error) {
	seen := map[[3]int64]bool{}
	created := 0
	priced := 0
	for i, row := range rows {
		if st.priceBook[i] == nil {
			continue
		}
		priced++
		activityID, priceBookID, bandID := st.activity[i], *st.priceBook[i], st.band[i]
		key := [3]int64{activityID, priceBookID, bandID}
		if seen[key] {
			continue
		}

		cost, err := n.costFromRow(row, st, activityID, priceBookID, bandID)
		if err != nil {
			return created, fmt.Errorf("row %s: %w", row.Ref, err)
		}

		_, isNew, err := ensure(ctx, n, KindCost,
			func(ctx context.Context) (*models.ActivityCost, error) {
				return n.store.FindActivityCost(ctx, activityID, priceBookID, &bandID)
			},
			func(ctx context.Context) (bool, error) {
				return n.store.InsertActivityCost(ctx, cost)
			},
		)
		if err != nil {
			return created, fmt.Errorf("row %s: %w", row.Ref, err)
		}
		if isNew {
			created++
		}
		seen[key] = true
	}
	result.RowsPriced = priced
	return created, nil
}
