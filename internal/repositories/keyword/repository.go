package keyword

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/kodi/internal/repositories"
	"github.com/Ramsey-B/kodi/pkg/database"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

const tableName = "damage_type_keyword"

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) Insert(ctx context.Context, keyword models.DamageTypeKeyword) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "KeywordRepository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder(r.db.Flavor())
	ib.InsertInto(tableName)
	ib.Cols("damage_type_id", "language", "keyword_text")
	ib.Values(keyword.DamageTypeID, string(keyword.Language), keyword.KeywordText)

	created, err := repositories.InsertIgnore(ctx, r.db.Executor(ctx), ib)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("damage_type_id", keyword.DamageTypeID).Error("failed to insert keyword")
		return false, fmt.Errorf("failed to insert keyword: %w", err)
	}
	return created, nil
}

func (r *Repository) List(ctx context.Context, damageTypeID int64) ([]models.DamageTypeKeyword, error) {
	ctx, span := tracing.StartSpan(ctx, "KeywordRepository.List")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select("keyword_id", "damage_type_id", "language", "keyword_text")
	sb.From(tableName)
	sb.Where(sb.Equal("damage_type_id", damageTypeID))
	sb.OrderBy("language ASC", "keyword_text ASC")

	query, args := sb.Build()

	keywords, err := repositories.Select[models.DamageTypeKeyword](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("damage_type_id", damageTypeID).Error("failed to list keywords")
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	return keywords, nil
}
