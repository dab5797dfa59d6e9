package keywords

import (
	"context"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/kodi/pkg/catalog/memory"
	kerrors "github.com/Ramsey-B/kodi/pkg/errors"
	"github.com/Ramsey-B/kodi/pkg/models"
)

func seededService(t *testing.T) (*Service, int64) {
	ctx := context.Background()
	store := memory.New()
	_, err := store.InsertDamageType(ctx, models.DamageType{CategoryID: 1, Bilingual: models.Bilingual{CodeNL: "DAK_LEK", CodeEN: "ROOF_LEAK"}})
	require.NoError(t, err)
	types, err := store.FindDamageTypesByCode(ctx, "DAK_LEK", models.LanguageNL)
	require.NoError(t, err)

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewService(store, logger), types[0].ID
}

func TestService_AddAndList(t *testing.T) {
	ctx := context.Background()
	svc, typeID := seededService(t)

	created, err := svc.Add(ctx, typeID, models.LanguageNL, "  lekkage ")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Add(ctx, typeID, models.LanguageNL, "lekkage")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = svc.Add(ctx, typeID, models.LanguageEN, "leak")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Add(ctx, typeID, models.LanguageEN, "drip")
	require.NoError(t, err)
	assert.True(t, created)

	keywords, err := svc.List(ctx, typeID)
	require.NoError(t, err)
	require.Len(t, keywords, 3)
	assert.Equal(t, "drip", keywords[0].KeywordText)
	assert.Equal(t, "leak", keywords[1].KeywordText)
	assert.Equal(t, models.LanguageNL, keywords[2].Language)
	assert.Equal(t, "lekkage", keywords[2].KeywordText)
}

func TestService_AddRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, typeID := seededService(t)

	tests := []struct {
		name     string
		typeID   int64
		language models.Language
		text     string
		kind     kerrors.Kind
	}{
		{name: "empty text", typeID: typeID, language: models.LanguageNL, text: "   ", kind: kerrors.KindInvalidInput},
		{name: "too long", typeID: typeID, language: models.LanguageNL, text: strings.Repeat("a", MaxKeywordLength+1), kind: kerrors.KindInvalidInput},
		{name: "unsupported language", typeID: typeID, language: "fr", text: "fuite", kind: kerrors.KindInvalidInput},
		{name: "unknown damage type", typeID: typeID + 100, language: models.LanguageEN, text: "leak", kind: kerrors.KindDamageTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, err := svc.Add(ctx, tt.typeID, tt.language, tt.text)
			require.Error(t, err)
			assert.False(t, created)
			assert.True(t, kerrors.Is(err, tt.kind))
		})
	}
}

func TestService_ListUnknownType(t *testing.T) {
	svc, typeID := seededService(t)

	_, err := svc.List(context.Background(), typeID+1)
	assert.True(t, kerrors.Is(err, kerrors.KindDamageTypeNotFound))
}
