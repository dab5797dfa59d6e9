package store

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/kodi/internal/repositories/staging"
	"github.com/Ramsey-B/kodi/pkg/estimation"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/normalizer"
)

var numericColumn = regexp.MustCompile(`(\w+)\s+NUMERIC\(\s*(\d+)\s*,\s*(\d+)\s*\)`)

func TestPostgresMigrations_KeepFractionalPrices(t *testing.T) {
	files, err := filepath.Glob("../../db/migrations/postgres/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	found := 0
	for _, file := range files {
		raw, err := os.ReadFile(file)
		require.NoError(t, err)

		for _, m := range numericColumn.FindAllStringSubmatch(string(raw), -1) {
			found++
			scale, err := strconv.Atoi(m[3])
			require.NoError(t, err)
			assert.GreaterOrEqual(t, scale, 6, "%s: %s", filepath.Base(file), m[1])
		}
	}
	assert.NotZero(t, found)
}

func TestNormalizeAndEstimate_FractionalRate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	store := New(db, silent)
	stagingRepo := staging.NewRepository(db, silent)

	require.NoError(t, stagingRepo.Insert(ctx, stagedRow("klein", "0", "100", "0,125")))

	_, err := normalizer.New(store, nil, silent, normalizer.Options{}).Run(ctx, normalizer.NewStagingSource(stagingRepo))
	require.NoError(t, err)

	estimate, err := estimation.NewEngine(store, nil, silent, models.LanguageNL).Estimate(ctx, models.EstimateQuery{
		DamageCode: "DAK_LEK",
		Size:       decimal.NewFromInt(8),
		Unit:       "m2",
		PriceYear:  2017,
	})
	require.NoError(t, err)
	assert.True(t, estimate.Totals.Labor.Equal(decimal.NewFromInt(1)), estimate.Totals.Labor.String())
}
