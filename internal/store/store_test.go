package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/kodi/internal/repositories/legacy"
	"github.com/Ramsey-B/kodi/internal/repositories/staging"
	"github.com/Ramsey-B/kodi/pkg/catalog"
	"github.com/Ramsey-B/kodi/pkg/database"
	kerrors "github.com/Ramsey-B/kodi/pkg/errors"
	"github.com/Ramsey-B/kodi/pkg/estimation"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/normalizer"
)

var silent = ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

func newTestDB(t *testing.T) database.DB {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqlxDB, err := database.Open(ctx, database.ConnectionConfig{Driver: database.DriverSQLite, DSN: dsn}, silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlxDB.Close() })

	migrations := database.NewMigrationService(silent, &database.MigrationConfig{MigrationFolderPath: "../../db/migrations"})
	require.NoError(t, migrations.MigrateDB(sqlxDB))

	return database.NewDatabaseInstance(sqlxDB, silent)
}

func str(s string) *string { return &s }

func stagedRow(labelNL, min, max, laborRate string) models.StagingRow {
	return models.StagingRow{
		CategoryCodeNL: str("DAK"),
		CategoryCodeEN: str("ROOF"),
		CategoryNameNL: str("Dak"),
		CategoryNameEN: str("Roof"),
		TypeCodeNL:     str("DAK_LEK"),
		TypeCodeEN:     str("ROOF_LEAK"),
		TypeNameNL:     str("Daklekkage"),
		TypeNameEN:     str("Roof leak"),
		ActivityCodeNL: str("DAKPAN_VERVANGEN"),
		ActivityCodeEN: str("REPLACE_TILE"),
		PriceYear:      str("2017"),
		SeverityLabel:  str(labelNL),
		SeverityMin:    str(min),
		SeverityMax:    str(max),
		SeverityUnit:   str("m2"),
		LaborUnit:      str("m2"),
		LaborUnitCost:  str(laborRate),
	}
}

func TestNormalizeAndEstimate_SQLite(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	store := New(db, silent)
	stagingRepo := staging.NewRepository(db, silent)

	require.NoError(t, stagingRepo.Insert(ctx,
		stagedRow("klein", "0", "10", "10"),
		stagedRow("groot", "10", "100", "8,5"),
	))

	n := normalizer.New(store, nil, silent, normalizer.Options{})
	src := normalizer.NewStagingSource(stagingRepo)

	first, err := n.Run(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 2, first.RowsSeen)
	assert.Equal(t, 1, first.Created[normalizer.KindCategory])
	assert.Equal(t, 1, first.Created[normalizer.KindDamageType])
	assert.Equal(t, 1, first.Created[normalizer.KindUnit])
	assert.Equal(t, 1, first.Created[normalizer.KindPriceBook])
	assert.Equal(t, 2, first.Created[normalizer.KindSeverityBand])
	assert.Equal(t, 1, first.Created[normalizer.KindActivity])
	assert.Equal(t, 1, first.Created[normalizer.KindBridge])
	assert.Equal(t, 2, first.Created[normalizer.KindCost])

	second, err := n.Run(ctx, src)
	require.NoError(t, err)
	for kind, created := range second.Created {
		assert.Zero(t, created, kind)
	}

	engine := estimation.NewEngine(store, nil, silent, models.LanguageNL)

	small, err := engine.Estimate(ctx, models.EstimateQuery{
		DamageCode: "DAK_LEK",
		Size:       decimal.NewFromInt(5),
		Unit:       "m2",
		PriceYear:  2017,
		Verbose:    true,
	})
	require.NoError(t, err)
	require.Len(t, small.Lines, 1)
	assert.Equal(t, "DAKPAN_VERVANGEN", small.Lines[0].ActivityCode)
	assert.True(t, small.Totals.GrandTotal.Equal(decimal.NewFromInt(50)), small.Totals.GrandTotal.String())
	require.NotNil(t, small.Band)
	assert.Equal(t, "klein", small.Band.Label)

	large, err := engine.Estimate(ctx, models.EstimateQuery{
		DamageCode: "ROOF_LEAK",
		Language:   models.LanguageEN,
		Size:       decimal.NewFromInt(20),
		Unit:       "m2",
	})
	require.NoError(t, err)
	assert.Equal(t, 2017, large.PriceYear)
	assert.Equal(t, "REPLACE_TILE", large.Lines[0].ActivityCode)
	assert.True(t, large.Totals.Labor.Equal(decimal.NewFromInt(170)), large.Totals.Labor.String())
}

func TestStore_InsertIgnoresExistingKeys(t *testing.T) {
	ctx := context.Background()
	store := New(newTestDB(t), silent)

	created, err := store.InsertUnit(ctx, models.Unit{Symbol: "m2", ConversionToBase: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.InsertUnit(ctx, models.Unit{Symbol: "m2", ConversionToBase: decimal.NewFromInt(2)})
	require.NoError(t, err)
	assert.False(t, created)

	unit, err := store.FindUnit(ctx, "m2")
	require.NoError(t, err)
	require.NotNil(t, unit)
	assert.True(t, unit.ConversionToBase.Equal(decimal.NewFromInt(1)))

	missing, err := store.FindUnit(ctx, "km")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_UpdateCategoryConflict(t *testing.T) {
	ctx := context.Background()
	store := New(newTestDB(t), silent)

	for _, codes := range [][2]string{{"DAK", "ROOF"}, {"MUUR", "WALL"}} {
		_, err := store.InsertCategory(ctx, models.DamageCategory{Bilingual: models.Bilingual{
			CodeNL: codes[0], CodeEN: codes[1], NameNL: codes[0], NameEN: codes[1],
		}})
		require.NoError(t, err)
	}

	categories, err := store.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)

	wall := categories[1]
	wall.CodeNL = "DAK"
	err = store.UpdateCategory(ctx, wall)
	require.Error(t, err)
	assert.True(t, catalog.IsConflict(err))
}

func TestStore_RunInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := New(newTestDB(t), silent)

	err := store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := store.InsertUnit(ctx, models.Unit{Symbol: "m2", ConversionToBase: decimal.NewFromInt(1)}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	unit, err := store.FindUnit(ctx, "m2")
	require.NoError(t, err)
	assert.Nil(t, unit)
}

func TestStore_Keywords(t *testing.T) {
	ctx := context.Background()
	store := New(newTestDB(t), silent)

	_, err := store.InsertCategory(ctx, models.DamageCategory{Bilingual: models.Bilingual{CodeNL: "DAK", CodeEN: "ROOF", NameNL: "Dak", NameEN: "Roof"}})
	require.NoError(t, err)
	categories, err := store.FindCategories(ctx, "DAK", "ROOF")
	require.NoError(t, err)
	_, err = store.InsertDamageType(ctx, models.DamageType{
		CategoryID: categories[0].ID,
		Bilingual:  models.Bilingual{CodeNL: "DAK_LEK", CodeEN: "ROOF_LEAK", NameNL: "Daklekkage", NameEN: "Roof leak"},
	})
	require.NoError(t, err)
	types, err := store.FindDamageTypesByCode(ctx, "ROOF_LEAK", models.LanguageEN)
	require.NoError(t, err)
	require.Len(t, types, 1)
	typeID := types[0].ID

	for _, kw := range []models.DamageTypeKeyword{
		{DamageTypeID: typeID, Language: models.LanguageNL, KeywordText: "lekkage"},
		{DamageTypeID: typeID, Language: models.LanguageEN, KeywordText: "leak"},
		{DamageTypeID: typeID, Language: models.LanguageNL, KeywordText: "lekkage"},
	} {
		_, err := store.InsertKeyword(ctx, kw)
		require.NoError(t, err)
	}

	keywords, err := store.ListKeywords(ctx, typeID)
	require.NoError(t, err)
	require.Len(t, keywords, 2)
	assert.Equal(t, models.LanguageEN, keywords[0].Language)
	assert.Equal(t, "lekkage", keywords[1].KeywordText)
}

func TestLegacySource_MissingAndPresent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	store := New(db, silent)
	n := normalizer.New(store, nil, silent, normalizer.Options{})
	src := normalizer.NewLegacySource(legacy.NewRepository(db, silent))

	result, err := n.Run(ctx, src)
	assert.Nil(t, result)
	assert.True(t, kerrors.Is(err, kerrors.KindSourceMissing))

	_, err = db.ExecContext(ctx, `CREATE TABLE kosten_kodi_spreadsheet (
		id INTEGER PRIMARY KEY,
		hoofdcategorie TEXT, hoofdcategorie_en TEXT,
		subcategorie TEXT, subcategorie_en TEXT,
		omschrijving TEXT, omschrijving_en TEXT,
		activiteit TEXT, activiteit_en TEXT,
		jaar INTEGER, ernst TEXT, ernst_min REAL, ernst_max REAL,
		eenheid TEXT, eenheid_materiaal TEXT,
		arbeid_per_eenheid REAL, arbeid_min REAL, arbeid_max REAL,
		materiaal_per_eenheid REAL, materiaal_min REAL, materiaal_max REAL,
		opmerking TEXT
	)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO kosten_kodi_spreadsheet
		(id, hoofdcategorie, hoofdcategorie_en, subcategorie, subcategorie_en, activiteit, activiteit_en, jaar, ernst, ernst_min, ernst_max, eenheid, arbeid_per_eenheid)
		VALUES (1, 'CAT', 'CAT_EN', 'TYPE', 'TYPE_EN', 'ACT', 'ACT_EN', 2017, 'klein', 0, 50, 'm2', 10)`)
	require.NoError(t, err)

	result, err = n.Run(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowsSeen)
	assert.Equal(t, 1, result.Created[normalizer.KindCost])

	types, err := store.FindDamageTypesByCode(ctx, "CAT_TYPE", models.LanguageNL)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "CAT_EN_TYPE_EN", types[0].CodeEN)
}

func TestStagingRepository_Clear(t *testing.T) {
	ctx := context.Background()
	repo := staging.NewRepository(newTestDB(t), silent)

	exists, err := repo.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Insert(ctx, stagedRow("klein", "0", "10", "10")))
	rows, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "DAK_LEK", *rows[0].TypeCodeNL)

	removed, err := repo.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	rows, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
