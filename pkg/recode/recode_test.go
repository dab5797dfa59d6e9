package recode

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/kodi/pkg/catalog/memory"
	"github.com/Ramsey-B/kodi/pkg/models"
)

func TestCanonical(t *testing.T) {
	tests := map[string]string{
		"DAK_LEK":           "DAK_LEK",
		"  dak lek ":        "DAK_LEK",
		"Dak - lek / klein": "DAK_LEK_KLEIN",
		"__roof__leak__":    "ROOF_LEAK",
		"gevel (oost)":      "GEVEL_OOST",
		"één":               "ÉÉN",
		"---":               "UNKNOWN",
		"":                  "UNKNOWN",
	}
	for in, want := range tests {
		assert.Equal(t, want, Canonical(in), in)
	}
}

func TestPlan_SuffixesCollisionsByID(t *testing.T) {
	changes := plan([]entity{
		{id: 3, codes: models.Bilingual{CodeNL: "dak lek", CodeEN: "ROOF", NameNL: "x", NameEN: "y"}},
		{id: 1, codes: models.Bilingual{CodeNL: "DAK_LEK", CodeEN: "roof", NameNL: "x", NameEN: "y"}},
		{id: 2, codes: models.Bilingual{CodeNL: "Dak-Lek", CodeEN: "FLOOR", NameNL: "", NameEN: "y"}},
	})

	_, changed := changes[1]
	assert.True(t, changed)
	assert.Equal(t, "DAK_LEK", changes[1].CodeNL)
	assert.Equal(t, "ROOF", changes[1].CodeEN)

	assert.Equal(t, "DAK_LEK_2", changes[2].CodeNL)
	assert.Equal(t, "FLOOR", changes[2].CodeEN)
	assert.Equal(t, "DAK_LEK_2", changes[2].NameNL)

	assert.Equal(t, "DAK_LEK_3", changes[3].CodeNL)
	assert.Equal(t, "ROOF_2", changes[3].CodeEN)
}

func TestPlan_LeavesCanonicalEntitiesAlone(t *testing.T) {
	changes := plan([]entity{
		{id: 1, codes: models.Bilingual{CodeNL: "DAK", CodeEN: "ROOF", NameNL: "Dak", NameEN: "Roof"}},
	})
	assert.Empty(t, changes)
}

func TestRecoder_Run(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	_, err := store.InsertCategory(ctx, models.DamageCategory{Bilingual: models.Bilingual{CodeNL: "dak", CodeEN: "roof", NameNL: "Dak", NameEN: "Roof"}})
	require.NoError(t, err)
	_, err = store.InsertCategory(ctx, models.DamageCategory{Bilingual: models.Bilingual{CodeNL: "DAK", CodeEN: "ROOF_TOP", NameNL: "Dak 2", NameEN: ""}})
	require.NoError(t, err)
	categories, err := store.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)

	_, err = store.InsertDamageType(ctx, models.DamageType{CategoryID: categories[0].ID, Bilingual: models.Bilingual{CodeNL: "dak lek", CodeEN: "roof leak", NameNL: "Lek", NameEN: "Leak"}})
	require.NoError(t, err)
	_, err = store.InsertActivity(ctx, models.Activity{Bilingual: models.Bilingual{CodeNL: "SCHUREN", CodeEN: "SAND", NameNL: "Schuren", NameEN: "Sand"}})
	require.NoError(t, err)

	result, err := New(store, logger).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Categories)
	assert.Equal(t, 1, result.DamageTypes)
	assert.Equal(t, 0, result.Activities)
	assert.Equal(t, 3, result.Total())

	categories, err = store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "DAK", categories[0].CodeNL)
	assert.Equal(t, "ROOF", categories[0].CodeEN)
	assert.Equal(t, "DAK_2", categories[1].CodeNL)
	assert.Equal(t, "ROOF_TOP", categories[1].CodeEN)
	assert.Equal(t, "ROOF_TOP", categories[1].NameEN)

	types, err := store.FindDamageTypesByCode(ctx, "DAK_LEK", models.LanguageNL)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "ROOF_LEAK", types[0].CodeEN)
	assert.Equal(t, categories[0].ID, types[0].CategoryID)

	again, err := New(store, logger).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Total())
}
