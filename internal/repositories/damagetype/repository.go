package damagetype

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/kodi/internal/repositories"
	"github.com/Ramsey-B/kodi/pkg/database"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

const tableName = "damage_type"

var columns = []string{"damage_type_id", "damage_category_id", "code_nl", "code_en", "name_nl", "name_en"}

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

// FindByCodes returns the damage types whose nl or en code matches, lowest id first.
// A non-nil categoryID restricts the search to that category.
func (r *Repository) FindByCodes(ctx context.Context, categoryID *int64, codeNL, codeEN string) ([]models.DamageType, error) {
	ctx, span := tracing.StartSpan(ctx, "DamageTypeRepository.FindByCodes")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Or(
		sb.Equal("code_nl", codeNL),
		sb.Equal("code_en", codeEN),
	))
	if categoryID != nil {
		sb.Where(sb.Equal("damage_category_id", *categoryID))
	}
	sb.OrderBy("damage_type_id ASC")

	query, args := sb.Build()

	damageTypes, err := repositories.Select[models.DamageType](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to find damage types by codes")
		return nil, fmt.Errorf("failed to find damage types: %w", err)
	}
	return damageTypes, nil
}

// FindByCode returns the damage types whose code equals code in any of langs.
func (r *Repository) FindByCode(ctx context.Context, code string, langs ...models.Language) ([]models.DamageType, error) {
	ctx, span := tracing.StartSpan(ctx, "DamageTypeRepository.FindByCode")
	defer span.End()

	if len(langs) == 0 {
		return []models.DamageType{}, nil
	}

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(columns...)
	sb.From(tableName)
	conditions := make([]string, 0, len(langs))
	for _, lang := range langs {
		conditions = append(conditions, sb.Equal("code_"+string(lang), code))
	}
	sb.Where(sb.Or(conditions...))
	sb.OrderBy("damage_type_id ASC")

	query, args := sb.Build()

	damageTypes, err := repositories.Select[models.DamageType](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("code", code).Error("failed to find damage types by code")
		return nil, fmt.Errorf("failed to find damage types: %w", err)
	}
	return damageTypes, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*models.DamageType, error) {
	ctx, span := tracing.StartSpan(ctx, "DamageTypeRepository.GetByID")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("damage_type_id", id))

	query, args := sb.Build()

	damageType, err := repositories.Get[models.DamageType](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("damage_type_id", id).Error("failed to get damage type")
		return nil, fmt.Errorf("failed to get damage type: %w", err)
	}
	return damageType, nil
}

func (r *Repository) Insert(ctx context.Context, damageType models.DamageType) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "DamageTypeRepository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder(r.db.Flavor())
	ib.InsertInto(tableName)
	ib.Cols("damage_category_id", "code_nl", "code_en", "name_nl", "name_en")
	ib.Values(damageType.CategoryID, damageType.CodeNL, damageType.CodeEN, damageType.NameNL, damageType.NameEN)

	created, err := repositories.InsertIgnore(ctx, r.db.Executor(ctx), ib)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert damage type")
		return false, fmt.Errorf("failed to insert damage type: %w", err)
	}
	if created {
		r.logger.WithContext(ctx).WithFields(map[string]any{
			"damage_category_id": damageType.CategoryID,
			"code_nl":            damageType.CodeNL,
			"code_en":            damageType.CodeEN,
		}).Info("created damage type")
	}
	return created, nil
}

func (r *Repository) List(ctx context.Context) ([]models.DamageType, error) {
	ctx, span := tracing.StartSpan(ctx, "DamageTypeRepository.List")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(columns...)
	sb.From(tableName)
	sb.OrderBy("damage_type_id ASC")

	query, args := sb.Build()

	damageTypes, err := repositories.Select[models.DamageType](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list damage types")
		return nil, fmt.Errorf("failed to list damage types: %w", err)
	}
	return damageTypes, nil
}

// UpdateCodes rewrites the codes and names of a damage type. The category is immutable.
func (r *Repository) UpdateCodes(ctx context.Context, damageType models.DamageType) error {
	ctx, span := tracing.StartSpan(ctx, "DamageTypeRepository.UpdateCodes")
	defer span.End()

	ub := database.NewUpdateBuilder(r.db.Flavor())
	ub.Update(tableName)
	ub.Set(
		ub.Assign("code_nl", damageType.CodeNL),
		ub.Assign("code_en", damageType.CodeEN),
		ub.Assign("name_nl", damageType.NameNL),
		ub.Assign("name_en", damageType.NameEN),
	)
	ub.Where(ub.Equal("damage_type_id", damageType.ID))

	query, args := ub.Build()

	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("damage_type_id", damageType.ID).Error("failed to update damage type codes")
		return fmt.Errorf("failed to update damage type %d: %w", damageType.ID, err)
	}
	return nil
}
