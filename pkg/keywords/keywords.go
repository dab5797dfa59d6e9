// Package keywords stores free-text keywords per damage type. It does no matching.
package keywords

import (
	"context"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/kodi/pkg/catalog"
	kerrors "github.com/Ramsey-B/kodi/pkg/errors"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

const MaxKeywordLength = 200

// Store is the slice of the catalog the keyword service needs.
type Store interface {
	catalog.KeywordStore
	GetDamageType(ctx context.Context, id int64) (*models.DamageType, error)
}

type Service struct {
	store  Store
	logger ectologger.Logger
}

func NewService(store Store, logger ectologger.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Add stores a keyword. Adding the same (type, language, text) twice is a no-op
// and reports created=false.
func (s *Service) Add(ctx context.Context, damageTypeID int64, language models.Language, text string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "KeywordService.Add")
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return false, kerrors.InvalidInput("keyword text is required")
	}
	if len(text) > MaxKeywordLength {
		return false, kerrors.InvalidInput("keyword text exceeds %d characters", MaxKeywordLength)
	}
	if !language.Valid() {
		return false, kerrors.InvalidInput("language %q is not supported", language)
	}

	damageType, err := s.store.GetDamageType(ctx, damageTypeID)
	if err != nil {
		return false, err
	}
	if damageType == nil {
		return false, kerrors.Newf(kerrors.KindDamageTypeNotFound, "damage type %d not found", damageTypeID).
			With("damage_type_id", damageTypeID)
	}

	created, err := s.store.InsertKeyword(ctx, models.DamageTypeKeyword{
		DamageTypeID: damageTypeID,
		Language:     language,
		KeywordText:  text,
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"damage_type_id": damageTypeID,
			"language":       language,
		}).Error("Failed to store keyword")
		return false, err
	}
	return created, nil
}

// List returns the keywords of a damage type ordered by language and text.
func (s *Service) List(ctx context.Context, damageTypeID int64) ([]models.DamageTypeKeyword, error) {
	ctx, span := tracing.StartSpan(ctx, "KeywordService.List")
	defer span.End()

	damageType, err := s.store.GetDamageType(ctx, damageTypeID)
	if err != nil {
		return nil, err
	}
	if damageType == nil {
		return nil, kerrors.Newf(kerrors.KindDamageTypeNotFound, "damage type %d not found", damageTypeID).
			With("damage_type_id", damageTypeID)
	}
	return s.store.ListKeywords(ctx, damageTypeID)
}
