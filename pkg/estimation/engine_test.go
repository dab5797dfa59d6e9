package estimation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/kodi/pkg/catalog"
	"github.com/Ramsey-B/kodi/pkg/catalog/memory"
	kerrors "github.com/Ramsey-B/kodi/pkg/errors"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/normalizer"
)

var silent = ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func price(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *memory.Store
	typeID int64
	years  map[int]int64
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{t: t, ctx: context.Background(), store: memory.New(), years: map[int]int64{}}

	_, err := f.store.InsertCategory(f.ctx, models.DamageCategory{Bilingual: models.Bilingual{CodeNL: "DAK", CodeEN: "ROOF", NameNL: "Dak", NameEN: "Roof"}})
	require.NoError(t, err)
	categories, err := f.store.FindCategories(f.ctx, "DAK", "ROOF")
	require.NoError(t, err)

	_, err = f.store.InsertDamageType(f.ctx, models.DamageType{
		CategoryID: categories[0].ID,
		Bilingual:  models.Bilingual{CodeNL: "DAK_LEK", CodeEN: "ROOF_LEAK", NameNL: "Daklekkage", NameEN: "Roof leak"},
	})
	require.NoError(t, err)
	types, err := f.store.FindDamageTypesByCode(f.ctx, "DAK_LEK", models.LanguageNL)
	require.NoError(t, err)
	f.typeID = types[0].ID

	f.unit("m2", "1")
	f.unit("half", "0.5")
	f.year(2017)
	return f
}

func (f *fixture) unit(symbol, factor string) int64 {
	_, err := f.store.InsertUnit(f.ctx, models.Unit{Symbol: symbol, ConversionToBase: dec(factor)})
	require.NoError(f.t, err)
	unit, err := f.store.FindUnit(f.ctx, symbol)
	require.NoError(f.t, err)
	return unit.ID
}

func (f *fixture) year(year int) int64 {
	_, err := f.store.InsertPriceBook(f.ctx, models.PriceBookVersion{YearLabel: year})
	require.NoError(f.t, err)
	priceBook, err := f.store.FindPriceBook(f.ctx, year)
	require.NoError(f.t, err)
	f.years[year] = priceBook.ID
	return priceBook.ID
}

func (f *fixture) band(label string, lo, hi int64) int64 {
	unit, err := f.store.FindUnit(f.ctx, "m2")
	require.NoError(f.t, err)
	_, err = f.store.InsertSeverityBand(f.ctx, models.SeverityBand{
		DamageTypeID: f.typeID,
		Label:        label,
		UnitID:       unit.ID,
		RangeMin:     decimal.NewFromInt(lo),
		RangeMax:     decimal.NewFromInt(hi),
	})
	require.NoError(f.t, err)
	b, err := f.store.FindSeverityBand(f.ctx, f.typeID, label)
	require.NoError(f.t, err)
	return b.ID
}

func (f *fixture) activity(codeNL, codeEN string, sequence *int) int64 {
	_, err := f.store.InsertActivity(f.ctx, models.Activity{Bilingual: models.Bilingual{
		CodeNL: codeNL, CodeEN: codeEN, NameNL: codeNL, NameEN: codeEN,
	}})
	require.NoError(f.t, err)
	activities, err := f.store.FindActivities(f.ctx, codeNL, codeEN)
	require.NoError(f.t, err)
	id := activities[0].ID

	_, err = f.store.InsertBridge(f.ctx, models.DamageTypeActivity{DamageTypeID: f.typeID, ActivityID: id, IsRequired: true})
	require.NoError(f.t, err)
	if sequence != nil {
		f.store.SetSequence(f.typeID, id, *sequence)
	}
	return id
}

func (f *fixture) cost(activityID int64, year int, bandID *int64, cost models.ActivityCost) {
	cost.ActivityID = activityID
	cost.PriceBookID = f.years[year]
	cost.SeverityBandID = bandID
	_, err := f.store.InsertActivityCost(f.ctx, cost)
	require.NoError(f.t, err)
}

func seq(i int) *int { return &i }

func query(code, size, unit string) models.EstimateQuery {
	return models.EstimateQuery{DamageCode: code, Size: dec(size), Unit: unit, PriceYear: 2017}
}

func TestEngine_EndToEndFromNormalizedRows(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	cat, catEN, sub, subEN := "CAT", "CAT_EN", "TYPE", "TYPE_EN"
	act, year, unit, rate := "HERSTEL", "2017", "m2", "10"
	row := normalizer.FromLegacy(models.LegacyRow{
		ID:               1,
		Hoofdcategorie:   &cat,
		HoofdcategorieEN: &catEN,
		Subcategorie:     &sub,
		SubcategorieEN:   &subEN,
		Activiteit:       &act,
		Jaar:             &year,
		Eenheid:          &unit,
		ArbeidPerEenheid: &rate,
	})
	n := normalizer.New(store, nil, silent, normalizer.Options{Strategy: catalog.MatchEither})
	_, err := n.Run(ctx, normalizer.StaticSource{Data: []normalizer.Row{row}})
	require.NoError(t, err)

	engine := NewEngine(store, nil, silent, models.LanguageNL)
	estimate, err := engine.Estimate(ctx, query("CAT_TYPE", "12", "m2"))
	require.NoError(t, err)

	require.Len(t, estimate.Lines, 1)
	assert.Equal(t, "HERSTEL", estimate.Lines[0].ActivityCode)
	require.True(t, estimate.Lines[0].EstimatedLabor.Valid)
	assert.True(t, estimate.Lines[0].EstimatedLabor.Decimal.Equal(dec("120")))
	assert.False(t, estimate.Lines[0].EstimatedMaterial.Valid)
	assert.True(t, estimate.Totals.GrandTotal.Equal(dec("120")))
	assert.Nil(t, estimate.Band)
}

func TestEngine_ConvertsSizeToBaseUnit(t *testing.T) {
	f := newFixture(t)
	bandID := f.band("default", 0, 999999)
	f.cost(f.activity("SCHUREN", "SAND", nil), 2017, &bandID, models.ActivityCost{LaborUnitCost: price("10")})

	estimate, err := NewEngine(f.store, nil, silent, models.LanguageNL).Estimate(f.ctx, query("DAK_LEK", "12", "half"))
	require.NoError(t, err)
	assert.True(t, estimate.BaseSize.Equal(dec("6")))
	require.Len(t, estimate.Lines, 1)
	assert.True(t, estimate.Lines[0].EstimatedLabor.Decimal.Equal(dec("60")))
}

func TestEngine_UnitRateTakesPrecedenceOverRange(t *testing.T) {
	f := newFixture(t)
	bandID := f.band("default", 0, 100)
	f.cost(f.activity("SCHUREN", "SAND", nil), 2017, &bandID, models.ActivityCost{
		LaborUnitCost:    price("10"),
		LaborCostMin:     price("1"),
		LaborCostMax:     price("3"),
		MaterialCostMin:  price("100"),
		MaterialCostMax:  price("200"),
		MaterialUnitCost: decimal.NullDecimal{},
	})

	estimate, err := NewEngine(f.store, nil, silent, models.LanguageNL).Estimate(f.ctx, query("DAK_LEK", "12", "m2"))
	require.NoError(t, err)
	require.Len(t, estimate.Lines, 1)
	assert.True(t, estimate.Lines[0].EstimatedLabor.Decimal.Equal(dec("120")))
	assert.True(t, estimate.Lines[0].EstimatedMaterial.Decimal.Equal(dec("150")))
	assert.True(t, estimate.Totals.Labor.Equal(dec("120")))
	assert.True(t, estimate.Totals.Material.Equal(dec("150")))
	assert.True(t, estimate.Totals.GrandTotal.Equal(dec("270")))
}

func TestEngine_SelectsBandAndPrefersBandSpecificCost(t *testing.T) {
	f := newFixture(t)
	small := f.band("klein", 0, 10)
	large := f.band("groot", 10, 20)
	activityID := f.activity("SCHUREN", "SAND", nil)
	f.cost(activityID, 2017, nil, models.ActivityCost{LaborCostMin: price("5")})
	f.cost(activityID, 2017, &small, models.ActivityCost{LaborCostMin: price("50")})
	f.cost(activityID, 2017, &large, models.ActivityCost{LaborCostMin: price("500")})

	engine := NewEngine(f.store, nil, silent, models.LanguageNL)

	q := query("DAK_LEK", "1000", "m2")
	q.Verbose = true
	estimate, err := engine.Estimate(f.ctx, q)
	require.NoError(t, err)
	require.NotNil(t, estimate.Band)
	assert.Equal(t, "groot", estimate.Band.Label)
	require.Len(t, estimate.Lines, 1)
	assert.True(t, estimate.Lines[0].EstimatedLabor.Decimal.Equal(dec("500")))

	q = query("DAK_LEK", "10", "m2")
	q.Verbose = true
	estimate, err = engine.Estimate(f.ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "klein", estimate.Band.Label)
	assert.True(t, estimate.Lines[0].EstimatedLabor.Decimal.Equal(dec("50")))
}

func TestEngine_BandlessCostAppliesToEveryBand(t *testing.T) {
	f := newFixture(t)
	f.band("klein", 0, 10)
	f.cost(f.activity("SCHUREN", "SAND", nil), 2017, nil, models.ActivityCost{MaterialCostMax: price("40")})

	estimate, err := NewEngine(f.store, nil, silent, models.LanguageNL).Estimate(f.ctx, query("DAK_LEK", "3", "m2"))
	require.NoError(t, err)
	require.Len(t, estimate.Lines, 1)
	assert.True(t, estimate.Lines[0].EstimatedMaterial.Decimal.Equal(dec("40")))
}

func TestEngine_OrdersBySequenceThenCode(t *testing.T) {
	f := newFixture(t)
	bandID := f.band("default", 0, 100)
	for _, a := range []struct {
		nl, en string
		seq    *int
	}{
		{"C_NL", "A_EN", nil},
		{"B_NL", "D_EN", seq(2)},
		{"A_NL", "C_EN", nil},
		{"Z_NL", "B_EN", seq(1)},
	} {
		f.cost(f.activity(a.nl, a.en, a.seq), 2017, &bandID, models.ActivityCost{LaborUnitCost: price("1")})
	}
	engine := NewEngine(f.store, nil, silent, models.LanguageNL)

	codes := func(e *models.Estimate) []string {
		var out []string
		for _, l := range e.Lines {
			out = append(out, l.ActivityCode)
		}
		return out
	}

	estimate, err := engine.Estimate(f.ctx, query("DAK_LEK", "1", "m2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Z_NL", "B_NL", "A_NL", "C_NL"}, codes(estimate))

	q := query("ROOF_LEAK", "1", "m2")
	q.Language = models.LanguageEN
	estimate, err = engine.Estimate(f.ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"B_EN", "D_EN", "A_EN", "C_EN"}, codes(estimate))
	assert.Equal(t, "Roof leak", estimate.DamageName)
}

func TestEngine_FallsBackToEitherLanguageCode(t *testing.T) {
	f := newFixture(t)
	bandID := f.band("default", 0, 100)
	f.cost(f.activity("SCHUREN", "SAND", nil), 2017, &bandID, models.ActivityCost{LaborUnitCost: price("1")})

	estimate, err := NewEngine(f.store, nil, silent, models.LanguageNL).Estimate(f.ctx, query("ROOF_LEAK", "1", "m2"))
	require.NoError(t, err)
	assert.Equal(t, "DAK_LEK", estimate.DamageCode)
	assert.Equal(t, models.LanguageNL, estimate.Language)
}

func TestEngine_UsesLatestYearWhenOmitted(t *testing.T) {
	f := newFixture(t)
	f.year(2018)
	f.year(2019)
	bandID := f.band("default", 0, 100)
	activityID := f.activity("SCHUREN", "SAND", nil)
	f.cost(activityID, 2017, &bandID, models.ActivityCost{LaborUnitCost: price("1")})
	f.cost(activityID, 2018, &bandID, models.ActivityCost{LaborUnitCost: price("2")})

	q := query("DAK_LEK", "1", "m2")
	q.PriceYear = 0
	estimate, err := NewEngine(f.store, nil, silent, models.LanguageNL).Estimate(f.ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2018, estimate.PriceYear)
	assert.True(t, estimate.Totals.GrandTotal.Equal(dec("2")))
}

func TestEngine_Errors(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, nil, silent, models.LanguageNL)

	_, err := engine.Estimate(f.ctx, query("DAK_LEK", "1", "m2"))
	assert.True(t, kerrors.Is(err, kerrors.KindSeverityBandMissing), "no bands yet: %v", err)

	bandID := f.band("default", 0, 100)
	_, err = engine.Estimate(f.ctx, query("DAK_LEK", "1", "m2"))
	assert.True(t, kerrors.Is(err, kerrors.KindNoCosts), "no costs yet: %v", err)

	f.cost(f.activity("SCHUREN", "SAND", nil), 2017, &bandID, models.ActivityCost{LaborUnitCost: price("1")})

	tests := []struct {
		name  string
		query models.EstimateQuery
		kind  kerrors.Kind
	}{
		{name: "unknown code", query: query("GEVEL", "1", "m2"), kind: kerrors.KindDamageTypeNotFound},
		{name: "unknown year", query: func() models.EstimateQuery { q := query("DAK_LEK", "1", "m2"); q.PriceYear = 2030; return q }(), kind: kerrors.KindPriceBookNotFound},
		{name: "unknown unit", query: query("DAK_LEK", "1", "km"), kind: kerrors.KindUnitNotFound},
		{name: "negative size", query: query("DAK_LEK", "-1", "m2"), kind: kerrors.KindInvalidInput},
		{name: "missing code", query: query(" ", "1", "m2"), kind: kerrors.KindInvalidInput},
		{name: "unsupported language", query: func() models.EstimateQuery { q := query("DAK_LEK", "1", "m2"); q.Language = "de"; return q }(), kind: kerrors.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			estimate, err := engine.Estimate(f.ctx, tt.query)
			require.Error(t, err)
			assert.Nil(t, estimate)
			assert.True(t, kerrors.Is(err, tt.kind), err.Error())
		})
	}
}

type mapCache struct {
	mu         sync.Mutex
	generation int
	entries    map[string]*models.Estimate
	afterGet   func()
}

func (c *mapCache) Get(_ context.Context, key string) (*models.Estimate, string, bool, error) {
	c.mu.Lock()
	slot := fmt.Sprintf("%d:%s", c.generation, key)
	e, ok := c.entries[slot]
	after := c.afterGet
	c.mu.Unlock()

	if after != nil {
		after()
	}
	return e, slot, ok, nil
}

func (c *mapCache) Set(_ context.Context, slot string, estimate *models.Estimate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[slot] = estimate
	return nil
}

func (c *mapCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
}

func TestEngine_ServesRepeatedQueriesFromCache(t *testing.T) {
	f := newFixture(t)
	bandID := f.band("default", 0, 100)
	f.cost(f.activity("SCHUREN", "SAND", nil), 2017, &bandID, models.ActivityCost{LaborUnitCost: price("1")})

	cache := &mapCache{entries: map[string]*models.Estimate{}}
	engine := NewEngine(f.store, cache, silent, models.LanguageNL)

	first, err := engine.Estimate(f.ctx, query("DAK_LEK", "1", "m2"))
	require.NoError(t, err)
	assert.Len(t, cache.entries, 1)

	second, err := engine.Estimate(f.ctx, query(" DAK_LEK ", "1", "m2"))
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestEngine_CatalogChangeDuringEstimateIsNotCached(t *testing.T) {
	f := newFixture(t)
	bandID := f.band("default", 0, 100)
	f.cost(f.activity("SCHUREN", "SAND", nil), 2017, &bandID, models.ActivityCost{LaborUnitCost: price("1")})

	cache := &mapCache{entries: map[string]*models.Estimate{}}
	cache.afterGet = func() {
		cache.afterGet = nil
		cache.invalidate()
	}
	engine := NewEngine(f.store, cache, silent, models.LanguageNL)

	first, err := engine.Estimate(f.ctx, query("DAK_LEK", "1", "m2"))
	require.NoError(t, err)

	second, err := engine.Estimate(f.ctx, query("DAK_LEK", "1", "m2"))
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}
