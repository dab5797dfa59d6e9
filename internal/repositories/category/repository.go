package category

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/kodi/internal/repositories"
	"github.com/Ramsey-B/kodi/pkg/database"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

const tableName = "damage_category"

var columns = []string{"damage_category_id", "code_nl", "code_en", "name_nl", "name_en"}

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

// FindByCodes returns the categories whose nl or en code matches, lowest id first.
func (r *Repository) FindByCodes(ctx context.Context, codeNL, codeEN string) ([]models.DamageCategory, error) {
	ctx, span := tracing.StartSpan(ctx, "CategoryRepository.FindByCodes")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Or(
		sb.Equal("code_nl", codeNL),
		sb.Equal("code_en", codeEN),
	))
	sb.OrderBy("damage_category_id ASC")

	query, args := sb.Build()

	categories, err := repositories.Select[models.DamageCategory](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to find categories by code")
		return nil, fmt.Errorf("failed to find categories: %w", err)
	}
	return categories, nil
}

func (r *Repository) Insert(ctx context.Context, category models.DamageCategory) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "CategoryRepository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder(r.db.Flavor())
	ib.InsertInto(tableName)
	ib.Cols("code_nl", "code_en", "name_nl", "name_en")
	ib.Values(category.CodeNL, category.CodeEN, category.NameNL, category.NameEN)

	created, err := repositories.InsertIgnore(ctx, r.db.Executor(ctx), ib)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert category")
		return false, fmt.Errorf("failed to insert category: %w", err)
	}
	if created {
		r.logger.WithContext(ctx).WithFields(map[string]any{
			"code_nl": category.CodeNL,
			"code_en": category.CodeEN,
		}).Info("created damage category")
	}
	return created, nil
}

func (r *Repository) List(ctx context.Context) ([]models.DamageCategory, error) {
	ctx, span := tracing.StartSpan(ctx, "CategoryRepository.List")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(columns...)
	sb.From(tableName)
	sb.OrderBy("damage_category_id ASC")

	query, args := sb.Build()

	categories, err := repositories.Select[models.DamageCategory](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list categories")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// UpdateCodes rewrites the codes and names of a category.
func (r *Repository) UpdateCodes(ctx context.Context, category models.DamageCategory) error {
	ctx, span := tracing.StartSpan(ctx, "CategoryRepository.UpdateCodes")
	defer span.End()

	ub := database.NewUpdateBuilder(r.db.Flavor())
	ub.Update(tableName)
	ub.Set(
		ub.Assign("code_nl", category.CodeNL),
		ub.Assign("code_en", category.CodeEN),
		ub.Assign("name_nl", category.NameNL),
		ub.Assign("name_en", category.NameEN),
	)
	ub.Where(ub.Equal("damage_category_id", category.ID))

	query, args := ub.Build()

	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("damage_category_id", category.ID).Error("failed to update category codes")
		return fmt.Errorf("failed to update category %d: %w", category.ID, err)
	}
	return nil
}
