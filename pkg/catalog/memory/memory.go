// Package memory is an in-process catalog.Store with the same uniqueness rules as the SQL schema.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Ramsey-B/kodi/pkg/catalog"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/shopspring/decimal"
)

type state struct {
	categories []models.DamageCategory
	types      []models.DamageType
	units      []models.Unit
	priceBooks []models.PriceBookVersion
	bands      []models.SeverityBand
	activities []models.Activity
	bridges    []models.DamageTypeActivity
	costs      []models.ActivityCost
	keywords   []models.DamageTypeKeyword
	nextID     int64
}

func (s *state) clone() state {
	return state{
		categories: append([]models.DamageCategory(nil), s.categories...),
		types:      append([]models.DamageType(nil), s.types...),
		units:      append([]models.Unit(nil), s.units...),
		priceBooks: append([]models.PriceBookVersion(nil), s.priceBooks...),
		bands:      append([]models.SeverityBand(nil), s.bands...),
		activities: append([]models.Activity(nil), s.activities...),
		bridges:    append([]models.DamageTypeActivity(nil), s.bridges...),
		costs:      append([]models.ActivityCost(nil), s.costs...),
		keywords:   append([]models.DamageTypeKeyword(nil), s.keywords...),
		nextID:     s.nextID,
	}
}

// Store keeps the catalog in memory. Transactions are emulated by restoring a
// snapshot when fn fails; they do not isolate concurrent writers.
type Store struct {
	mu sync.RWMutex
	state
	// txDepth tracks nested RunInTx calls; only the outermost one snapshots.
	txDepth int
}

var _ catalog.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	outer := s.txDepth == 0
	var snapshot state
	if outer {
		snapshot = s.state.clone()
	}
	s.txDepth++
	s.mu.Unlock()

	err := fn(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.txDepth--
	if err != nil && outer {
		s.state = snapshot
	}
	return err
}

// Counts reports the number of stored rows per entity kind.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"categories":   len(s.categories),
		"damage_types": len(s.types),
		"units":        len(s.units),
		"price_books":  len(s.priceBooks),
		"bands":        len(s.bands),
		"activities":   len(s.activities),
		"bridges":      len(s.bridges),
		"costs":        len(s.costs),
		"keywords":     len(s.keywords),
	}
}

func bilingualHit(b models.Bilingual, codeNL, codeEN string) bool {
	return b.CodeNL == codeNL || b.CodeEN == codeEN
}

func bilingualClash(b models.Bilingual, other models.Bilingual, selfID, otherID int64) bool {
	return selfID != otherID && (b.CodeNL == other.CodeNL || b.CodeEN == other.CodeEN)
}

// Categories

func (s *Store) FindCategories(_ context.Context, codeNL, codeEN string) ([]models.DamageCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.DamageCategory
	for _, c := range s.categories {
		if bilingualHit(c.Bilingual, codeNL, codeEN) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) InsertCategory(_ context.Context, category models.DamageCategory) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if bilingualHit(c.Bilingual, category.CodeNL, category.CodeEN) {
			return false, nil
		}
	}
	category.ID = s.id()
	s.categories = append(s.categories, category)
	return true, nil
}

func (s *Store) ListCategories(context.Context) ([]models.DamageCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.DamageCategory(nil), s.categories...), nil
}

func (s *Store) UpdateCategory(_ context.Context, category models.DamageCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, c := range s.categories {
		if bilingualClash(c.Bilingual, category.Bilingual, c.ID, category.ID) {
			return ErrUniqueViolation
		}
		if c.ID == category.ID {
			idx = i
		}
	}
	if idx >= 0 {
		s.categories[idx].Bilingual = category.Bilingual
	}
	return nil
}

// Damage types

func (s *Store) FindDamageTypes(_ context.Context, categoryID *int64, codeNL, codeEN string) ([]models.DamageType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.DamageType
	for _, t := range s.types {
		if categoryID != nil && t.CategoryID != *categoryID {
			continue
		}
		if bilingualHit(t.Bilingual, codeNL, codeEN) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) FindDamageTypesByCode(_ context.Context, code string, langs ...models.Language) ([]models.DamageType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.DamageType
	for _, t := range s.types {
		for _, lang := range langs {
			if t.Code(lang) == code {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

func (s *Store) GetDamageType(_ context.Context, id int64) (*models.DamageType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.types {
		if t.ID == id {
			found := t
			return &found, nil
		}
	}
	return nil, nil
}

func (s *Store) InsertDamageType(_ context.Context, damageType models.DamageType) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.types {
		if bilingualHit(t.Bilingual, damageType.CodeNL, damageType.CodeEN) {
			return false, nil
		}
	}
	damageType.ID = s.id()
	s.types = append(s.types, damageType)
	return true, nil
}

func (s *Store) ListDamageTypes(context.Context) ([]models.DamageType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.DamageType(nil), s.types...), nil
}

func (s *Store) UpdateDamageType(_ context.Context, damageType models.DamageType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, t := range s.types {
		if bilingualClash(t.Bilingual, damageType.Bilingual, t.ID, damageType.ID) {
			return ErrUniqueViolation
		}
		if t.ID == damageType.ID {
			idx = i
		}
	}
	if idx >= 0 {
		s.types[idx].Bilingual = damageType.Bilingual
	}
	return nil
}

// Units

func (s *Store) FindUnit(_ context.Context, symbol string) (*models.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.units {
		if u.Symbol == symbol {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (s *Store) LowestUnit(context.Context) (*models.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.units) == 0 {
		return nil, nil
	}
	found := s.units[0]
	return &found, nil
}

func (s *Store) InsertUnit(_ context.Context, unit models.Unit) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.units {
		if u.Symbol == unit.Symbol {
			return false, nil
		}
	}
	unit.ID = s.id()
	s.units = append(s.units, unit)
	return true, nil
}

// Price books

func (s *Store) FindPriceBook(_ context.Context, year int) (*models.PriceBookVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.priceBooks {
		if p.YearLabel == year {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (s *Store) InsertPriceBook(_ context.Context, priceBook models.PriceBookVersion) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.priceBooks {
		if p.YearLabel == priceBook.YearLabel {
			return false, nil
		}
	}
	priceBook.ID = s.id()
	s.priceBooks = append(s.priceBooks, priceBook)
	return true, nil
}

func (s *Store) LatestPriceYear(_ context.Context, damageTypeID int64) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	activities := map[int64]bool{}
	for _, b := range s.bridges {
		if b.DamageTypeID == damageTypeID {
			activities[b.ActivityID] = true
		}
	}
	years := map[int64]int{}
	for _, p := range s.priceBooks {
		years[p.ID] = p.YearLabel
	}
	latest, found := 0, false
	for _, c := range s.costs {
		if !activities[c.ActivityID] {
			continue
		}
		if y := years[c.PriceBookID]; !found || y > latest {
			latest, found = y, true
		}
	}
	return latest, found, nil
}

// Severity bands

func (s *Store) FindSeverityBand(_ context.Context, damageTypeID int64, label string) (*models.SeverityBand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bands {
		if b.DamageTypeID == damageTypeID && b.Label == label {
			found := b
			return &found, nil
		}
	}
	return nil, nil
}

func (s *Store) FindSeverityBandByRange(_ context.Context, damageTypeID int64, rangeMin, rangeMax decimal.Decimal) (*models.SeverityBand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bands {
		if b.DamageTypeID == damageTypeID && b.RangeMin.Equal(rangeMin) && b.RangeMax.Equal(rangeMax) {
			found := b
			return &found, nil
		}
	}
	return nil, nil
}

func (s *Store) InsertSeverityBand(_ context.Context, band models.SeverityBand) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if band.RangeMin.GreaterThan(band.RangeMax) {
		return false, ErrCheckViolation
	}
	for _, b := range s.bands {
		if b.DamageTypeID != band.DamageTypeID {
			continue
		}
		if b.Label == band.Label || (b.RangeMin.Equal(band.RangeMin) && b.RangeMax.Equal(band.RangeMax)) {
			return false, nil
		}
	}
	band.ID = s.id()
	s.bands = append(s.bands, band)
	return true, nil
}

func (s *Store) ListSeverityBands(_ context.Context, damageTypeID int64) ([]models.BandWithUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	units := map[int64]models.Unit{}
	for _, u := range s.units {
		units[u.ID] = u
	}
	var out []models.BandWithUnit
	for _, b := range s.bands {
		if b.DamageTypeID != damageTypeID {
			continue
		}
		u := units[b.UnitID]
		out = append(out, models.BandWithUnit{
			SeverityBand:     b,
			UnitSymbol:       u.Symbol,
			ConversionToBase: u.ConversionToBase,
		})
	}
	return out, nil
}

// Activities

func (s *Store) FindActivities(_ context.Context, codeNL, codeEN string) ([]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Activity
	for _, a := range s.activities {
		if bilingualHit(a.Bilingual, codeNL, codeEN) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) InsertActivity(_ context.Context, activity models.Activity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.activities {
		if bilingualHit(a.Bilingual, activity.CodeNL, activity.CodeEN) {
			return false, nil
		}
	}
	activity.ID = s.id()
	s.activities = append(s.activities, activity)
	return true, nil
}

func (s *Store) ListActivities(context.Context) ([]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Activity(nil), s.activities...), nil
}

func (s *Store) UpdateActivity(_ context.Context, activity models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, a := range s.activities {
		if bilingualClash(a.Bilingual, activity.Bilingual, a.ID, activity.ID) {
			return ErrUniqueViolation
		}
		if a.ID == activity.ID {
			idx = i
		}
	}
	if idx >= 0 {
		s.activities[idx].Bilingual = activity.Bilingual
	}
	return nil
}

// Bridges

func (s *Store) FindBridge(_ context.Context, damageTypeID, activityID int64) (*models.DamageTypeActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bridges {
		if b.DamageTypeID == damageTypeID && b.ActivityID == activityID {
			found := b
			return &found, nil
		}
	}
	return nil, nil
}

func (s *Store) InsertBridge(_ context.Context, bridge models.DamageTypeActivity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bridges {
		if b.DamageTypeID == bridge.DamageTypeID && b.ActivityID == bridge.ActivityID {
			return false, nil
		}
	}
	s.bridges = append(s.bridges, bridge)
	return true, nil
}

// SetSequence sets the ordering hint of a bridge; the normalizer never does.
func (s *Store) SetSequence(damageTypeID, activityID int64, sequence int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.bridges {
		if b.DamageTypeID == damageTypeID && b.ActivityID == activityID {
			s.bridges[i].SequenceOrder = &sequence
		}
	}
}

// Costs

func sameBand(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *Store) FindActivityCost(_ context.Context, activityID, priceBookID int64, severityBandID *int64) (*models.ActivityCost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.costs {
		if c.ActivityID == activityID && c.PriceBookID == priceBookID && sameBand(c.SeverityBandID, severityBandID) {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (s *Store) InsertActivityCost(_ context.Context, cost models.ActivityCost) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if invalidRange(cost.LaborCostMin, cost.LaborCostMax) || invalidRange(cost.MaterialCostMin, cost.MaterialCostMax) {
		return false, ErrCheckViolation
	}
	for _, c := range s.costs {
		if c.ActivityID == cost.ActivityID && c.PriceBookID == cost.PriceBookID && sameBand(c.SeverityBandID, cost.SeverityBandID) {
			return false, nil
		}
	}
	cost.ID = s.id()
	s.costs = append(s.costs, cost)
	return true, nil
}

func invalidRange(min, max decimal.NullDecimal) bool {
	return min.Valid && max.Valid && min.Decimal.GreaterThan(max.Decimal)
}

func (s *Store) ListCostLines(_ context.Context, damageTypeID, priceBookID, severityBandID int64) ([]models.CostLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	activities := map[int64]models.Activity{}
	for _, a := range s.activities {
		activities[a.ID] = a
	}
	units := map[int64]string{}
	for _, u := range s.units {
		units[u.ID] = u.Symbol
	}
	symbol := func(id *int64) *string {
		if id == nil {
			return nil
		}
		sym, ok := units[*id]
		if !ok {
			return nil
		}
		return &sym
	}

	var out []models.CostLine
	for _, b := range s.bridges {
		if b.DamageTypeID != damageTypeID {
			continue
		}
		a := activities[b.ActivityID]
		for _, c := range s.costs {
			if c.ActivityID != b.ActivityID || c.PriceBookID != priceBookID {
				continue
			}
			if c.SeverityBandID != nil && *c.SeverityBandID != severityBandID {
				continue
			}
			out = append(out, models.CostLine{
				ActivityID:       a.ID,
				ActivityCodeNL:   a.CodeNL,
				ActivityCodeEN:   a.CodeEN,
				ActivityNameNL:   a.NameNL,
				ActivityNameEN:   a.NameEN,
				IsRequired:       b.IsRequired,
				SequenceOrder:    b.SequenceOrder,
				SeverityBandID:   c.SeverityBandID,
				LaborUnit:        symbol(c.LaborUnitID),
				MaterialUnit:     symbol(c.MaterialUnitID),
				LaborUnitCost:    c.LaborUnitCost,
				LaborCostMin:     c.LaborCostMin,
				LaborCostMax:     c.LaborCostMax,
				MaterialUnitCost: c.MaterialUnitCost,
				MaterialCostMin:  c.MaterialCostMin,
				MaterialCostMax:  c.MaterialCostMax,
			})
		}
	}
	return out, nil
}

// Keywords

func (s *Store) InsertKeyword(_ context.Context, keyword models.DamageTypeKeyword) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keywords {
		if k.DamageTypeID == keyword.DamageTypeID && k.Language == keyword.Language && k.KeywordText == keyword.KeywordText {
			return false, nil
		}
	}
	keyword.ID = s.id()
	s.keywords = append(s.keywords, keyword)
	return true, nil
}

func (s *Store) ListKeywords(_ context.Context, damageTypeID int64) ([]models.DamageTypeKeyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.DamageTypeKeyword
	for _, k := range s.keywords {
		if k.DamageTypeID == damageTypeID {
			out = append(out, k)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Language != out[j].Language {
			return out[i].Language < out[j].Language
		}
		return out[i].KeywordText < out[j].KeywordText
	})
	return out, nil
}
