package estimation

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/shopspring/decimal"

	"github.com/Ramsey-B/kodi/pkg/catalog"
	kerrors "github.com/Ramsey-B/kodi/pkg/errors"
	"github.com/Ramsey-B/kodi/pkg/metrics"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

// Engine answers cost queries against the catalog. It never writes.
type Engine struct {
	reader          catalog.Reader
	cache           Cache
	logger          ectologger.Logger
	defaultLanguage models.Language
}

// NewEngine creates an engine. cache may be nil.
func NewEngine(reader catalog.Reader, cache Cache, logger ectologger.Logger, defaultLanguage models.Language) *Engine {
	if !defaultLanguage.Valid() {
		defaultLanguage = models.LanguageNL
	}
	return &Engine{
		reader:          reader,
		cache:           cache,
		logger:          logger,
		defaultLanguage: defaultLanguage,
	}
}

func (e *Engine) normalizeQuery(q models.EstimateQuery) (models.EstimateQuery, error) {
	q.DamageCode = strings.TrimSpace(q.DamageCode)
	q.Unit = strings.TrimSpace(q.Unit)
	if q.Language == "" {
		q.Language = e.defaultLanguage
	}

	if q.DamageCode == "" {
		return q, kerrors.InvalidInput("damage code is required")
	}
	if q.Unit == "" {
		return q, kerrors.InvalidInput("unit is required")
	}
	if !q.Language.Valid() {
		return q, kerrors.InvalidInput("language %q is not supported", q.Language)
	}
	if q.Size.IsNegative() {
		return q, kerrors.InvalidInput("size %s must not be negative", q.Size)
	}
	if q.PriceYear < 0 {
		return q, kerrors.InvalidInput("price year %d is not valid", q.PriceYear)
	}
	return q, nil
}

// Estimate computes the ordered cost breakdown for a query.
func (e *Engine) Estimate(ctx context.Context, query models.EstimateQuery) (*models.Estimate, error) {
	ctx, span := tracing.StartSpan(ctx, "Engine.Estimate")
	defer span.End()

	start := time.Now()
	estimate, err := e.estimate(ctx, query)

	status := "success"
	if err != nil {
		status = "error"
		if catalogErr, ok := kerrors.As(err); ok {
			status = string(catalogErr.Kind)
		}
	}
	metrics.RecordEstimate(status, time.Since(start).Seconds())
	return estimate, err
}

func (e *Engine) estimate(ctx context.Context, query models.EstimateQuery) (*models.Estimate, error) {
	q, err := e.normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"damage_code": q.DamageCode,
		"language":    q.Language,
		"size":        q.Size.String(),
		"unit":        q.Unit,
		"price_year":  q.PriceYear,
	})

	var slot string
	if e.cache != nil {
		cached, cacheSlot, hit, err := e.cache.Get(ctx, CacheKey(q))
		if err != nil {
			log.WithError(err).Warn("Failed to read estimate cache")
		}
		metrics.RecordCacheLookup(hit)
		if hit {
			return cached, nil
		}
		slot = cacheSlot
	}

	damageType, err := e.resolveDamageType(ctx, q.DamageCode, q.Language)
	if err != nil {
		return nil, err
	}

	priceBook, err := e.resolvePriceBook(ctx, damageType, q)
	if err != nil {
		return nil, err
	}

	unit, err := e.reader.FindUnit(ctx, q.Unit)
	if err != nil {
		log.WithError(err).Error("Failed to look up unit")
		return nil, err
	}
	if unit == nil {
		return nil, kerrors.UnitNotFound(q.Unit)
	}
	baseSize := q.Size.Mul(unit.ConversionToBase)

	bands, err := e.reader.ListSeverityBands(ctx, damageType.ID)
	if err != nil {
		log.WithError(err).Error("Failed to list severity bands")
		return nil, err
	}
	band := SelectBand(bands, baseSize)
	if band == nil {
		return nil, kerrors.SeverityBandMissing(damageType.Code(q.Language))
	}

	costLines, err := e.reader.ListCostLines(ctx, damageType.ID, priceBook.ID, band.ID)
	if err != nil {
		log.WithError(err).Error("Failed to list cost lines")
		return nil, err
	}
	costLines = applicableLines(costLines)
	if len(costLines) == 0 {
		return nil, kerrors.NoCosts(damageType.Code(q.Language), priceBook.YearLabel)
	}
	sortLines(costLines, q.Language)

	estimate := &models.Estimate{
		DamageTypeID: damageType.ID,
		DamageCode:   damageType.Code(q.Language),
		DamageName:   damageType.Name(q.Language),
		Language:     q.Language,
		PriceYear:    priceBook.YearLabel,
		Size:         q.Size,
		Unit:         unit.Symbol,
		BaseSize:     baseSize,
		Lines:        make([]models.LineItem, 0, len(costLines)),
		Totals: models.Totals{
			Labor:    decimal.Zero,
			Material: decimal.Zero,
		},
	}
	if q.Verbose {
		estimate.Band = &models.BandInfo{
			ID:       band.ID,
			Label:    band.Label,
			RangeMin: band.RangeMin,
			RangeMax: band.RangeMax,
			Unit:     band.UnitSymbol,
		}
	}

	for _, line := range costLines {
		item := lineItem(line, q.Language, baseSize)
		if item.EstimatedLabor.Valid {
			estimate.Totals.Labor = estimate.Totals.Labor.Add(item.EstimatedLabor.Decimal)
		}
		if item.EstimatedMaterial.Valid {
			estimate.Totals.Material = estimate.Totals.Material.Add(item.EstimatedMaterial.Decimal)
		}
		estimate.Lines = append(estimate.Lines, item)
	}
	estimate.Totals.GrandTotal = estimate.Totals.Labor.Add(estimate.Totals.Material)

	log.WithFields(map[string]any{
		"damage_type_id": damageType.ID,
		"band_id":        band.ID,
		"lines":          len(estimate.Lines),
	}).Debug("Estimate computed")

	if e.cache != nil && slot != "" {
		if err := e.cache.Set(ctx, slot, estimate); err != nil {
			log.WithError(err).Warn("Failed to write estimate cache")
		}
	}
	return estimate, nil
}

// resolveDamageType matches the code in the requested language first and then in either language.
// Exactly one type must match.
func (e *Engine) resolveDamageType(ctx context.Context, code string, lang models.Language) (*models.DamageType, error) {
	matches, err := e.reader.FindDamageTypesByCode(ctx, code, lang)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		matches, err = e.reader.FindDamageTypesByCode(ctx, code, lang, lang.Other())
		if err != nil {
			return nil, err
		}
	}

	switch len(matches) {
	case 0:
		return nil, kerrors.DamageTypeNotFound(code)
	case 1:
		return &matches[0], nil
	default:
		return nil, kerrors.DamageTypeAmbiguous(code, len(matches))
	}
}

func (e *Engine) resolvePriceBook(ctx context.Context, damageType *models.DamageType, q models.EstimateQuery) (*models.PriceBookVersion, error) {
	year := q.PriceYear
	if year == 0 {
		latest, found, err := e.reader.LatestPriceYear(ctx, damageType.ID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, kerrors.NoCosts(damageType.Code(q.Language), 0)
		}
		year = latest
	}

	priceBook, err := e.reader.FindPriceBook(ctx, year)
	if err != nil {
		return nil, err
	}
	if priceBook == nil {
		return nil, kerrors.PriceBookNotFound(year)
	}
	return priceBook, nil
}

// applicableLines keeps one cost row per activity, preferring a band-specific row over
// the band-less default.
func applicableLines(lines []models.CostLine) []models.CostLine {
	byActivity := map[int64]int{}
	out := make([]models.CostLine, 0, len(lines))
	for _, line := range lines {
		idx, seen := byActivity[line.ActivityID]
		if !seen {
			byActivity[line.ActivityID] = len(out)
			out = append(out, line)
			continue
		}
		if out[idx].SeverityBandID == nil && line.SeverityBandID != nil {
			out[idx] = line
		}
	}
	return out
}

// sortLines orders by sequence hint (unset last), then activity code in lang.
func sortLines(lines []models.CostLine, lang models.Language) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		switch {
		case a.SequenceOrder != nil && b.SequenceOrder != nil && *a.SequenceOrder != *b.SequenceOrder:
			return *a.SequenceOrder < *b.SequenceOrder
		case a.SequenceOrder != nil && b.SequenceOrder == nil:
			return true
		case a.SequenceOrder == nil && b.SequenceOrder != nil:
			return false
		}
		if ca, cb := a.ActivityCode(lang), b.ActivityCode(lang); ca != cb {
			return ca < cb
		}
		return a.ActivityID < b.ActivityID
	})
}

func lineItem(line models.CostLine, lang models.Language, baseSize decimal.Decimal) models.LineItem {
	return models.LineItem{
		ActivityCode:      line.ActivityCode(lang),
		ActivityName:      line.ActivityName(lang),
		IsRequired:        line.IsRequired,
		SequenceOrder:     line.SequenceOrder,
		LaborUnit:         line.LaborUnit,
		MaterialUnit:      line.MaterialUnit,
		LaborCostMin:      line.LaborCostMin,
		LaborCostMax:      line.LaborCostMax,
		LaborUnitCost:     line.LaborUnitCost,
		MaterialCostMin:   line.MaterialCostMin,
		MaterialCostMax:   line.MaterialCostMax,
		MaterialUnitCost:  line.MaterialUnitCost,
		EstimatedLabor:    EstimateCost(line.LaborUnitCost, line.LaborCostMin, line.LaborCostMax, baseSize),
		EstimatedMaterial: EstimateCost(line.MaterialUnitCost, line.MaterialCostMin, line.MaterialCostMax, baseSize),
	}
}
