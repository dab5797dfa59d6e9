package estimation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/kodi/pkg/models"
)

func band(id int64, label string, lo, hi int64, factor string) models.BandWithUnit {
	return models.BandWithUnit{
		SeverityBand: models.SeverityBand{
			ID:       id,
			Label:    label,
			RangeMin: decimal.NewFromInt(lo),
			RangeMax: decimal.NewFromInt(hi),
		},
		UnitSymbol:       "m2",
		ConversionToBase: decimal.RequireFromString(factor),
	}
}

func TestSelectBand(t *testing.T) {
	small := band(1, "klein", 0, 10, "1")
	large := band(2, "groot", 10, 20, "1")

	tests := []struct {
		name  string
		bands []models.BandWithUnit
		size  string
		want  string
	}{
		{name: "contained", bands: []models.BandWithUnit{small, large}, size: "4", want: "klein"},
		{name: "contained in the upper band", bands: []models.BandWithUnit{small, large}, size: "17", want: "groot"},
		{name: "shared boundary ties to the lowest id", bands: []models.BandWithUnit{large, small}, size: "10", want: "klein"},
		{name: "out of range takes the nearest midpoint", bands: []models.BandWithUnit{small, large}, size: "1000", want: "groot"},
		{name: "containment beats a closer midpoint", bands: []models.BandWithUnit{band(1, "breed", 0, 100, "1"), band(2, "smal", 60, 62, "1")}, size: "50", want: "breed"},
		{name: "band ranges are converted to base units", bands: []models.BandWithUnit{band(1, "cm", 0, 1000, "0.01"), large}, size: "8", want: "cm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectBand(tt.bands, decimal.RequireFromString(tt.size))
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Label)
		})
	}

	assert.Nil(t, SelectBand(nil, decimal.NewFromInt(1)))
}

func TestEstimateCost(t *testing.T) {
	d := func(s string) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.RequireFromString(s)) }
	none := decimal.NullDecimal{}
	size := decimal.NewFromInt(12)

	tests := []struct {
		name         string
		rate, lo, hi decimal.NullDecimal
		want         string
		wantUnpriced bool
	}{
		{name: "unit rate wins over a range", rate: d("10"), lo: d("1"), hi: d("3"), want: "120"},
		{name: "mean of a complete range", rate: none, lo: d("100"), hi: d("300"), want: "200"},
		{name: "min only", rate: none, lo: d("75"), hi: none, want: "75"},
		{name: "max only", rate: none, lo: none, hi: d("90"), want: "90"},
		{name: "nothing priced", rate: none, lo: none, hi: none, wantUnpriced: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateCost(tt.rate, tt.lo, tt.hi, size)
			if tt.wantUnpriced {
				assert.False(t, got.Valid)
				return
			}
			require.True(t, got.Valid)
			assert.True(t, got.Decimal.Equal(decimal.RequireFromString(tt.want)), got.Decimal.String())
		})
	}
}
