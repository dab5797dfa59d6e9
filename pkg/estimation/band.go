package estimation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Ramsey-B/kodi/pkg/models"
)

var two = decimal.NewFromInt(2)

type bandScore struct {
	band      models.BandWithUnit
	contained bool
	distance  decimal.Decimal
}

func scoreBand(band models.BandWithUnit, size decimal.Decimal) bandScore {
	lo := band.RangeMin.Mul(band.ConversionToBase)
	hi := band.RangeMax.Mul(band.ConversionToBase)
	mid := lo.Add(hi).Div(two)
	return bandScore{
		band:      band,
		contained: size.GreaterThanOrEqual(lo) && size.LessThanOrEqual(hi),
		distance:  mid.Sub(size).Abs(),
	}
}

// SelectBand picks the band for a size already converted to base units. Bands whose
// range contains the size rank first, then the closest midpoint, then the lowest id.
// A size outside every range still gets the nearest band.
func SelectBand(bands []models.BandWithUnit, size decimal.Decimal) *models.BandWithUnit {
	if len(bands) == 0 {
		return nil
	}

	scores := make([]bandScore, 0, len(bands))
	for _, b := range bands {
		scores = append(scores, scoreBand(b, size))
	}
	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.contained != b.contained {
			return a.contained
		}
		if c := a.distance.Cmp(b.distance); c != 0 {
			return c < 0
		}
		return a.band.ID < b.band.ID
	})

	selected := scores[0].band
	return &selected
}
