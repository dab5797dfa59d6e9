package activity

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/kodi/internal/repositories"
	"github.com/Ramsey-B/kodi/pkg/database"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

const tableName = "activity"

var columns = []string{"activity_id", "code_nl", "code_en", "name_nl", "name_en", "default_unit_id"}

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

// FindByCodes returns the activities whose nl or en code matches, lowest id first.
func (r *Repository) FindByCodes(ctx context.Context, codeNL, codeEN string) ([]models.Activity, error) {
	ctx, span := tracing.StartSpan(ctx, "ActivityRepository.FindByCodes")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Or(
		sb.Equal("code_nl", codeNL),
		sb.Equal("code_en", codeEN),
	))
	sb.OrderBy("activity_id ASC")

	query, args := sb.Build()

	activities, err := repositories.Select[models.Activity](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to find activities by code")
		return nil, fmt.Errorf("failed to find activities: %w", err)
	}
	return activities, nil
}

func (r *Repository) Insert(ctx context.Context, activity models.Activity) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ActivityRepository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder(r.db.Flavor())
	ib.InsertInto(tableName)
	ib.Cols("code_nl", "code_en", "name_nl", "name_en", "default_unit_id")
	ib.Values(activity.CodeNL, activity.CodeEN, activity.NameNL, activity.NameEN, activity.DefaultUnitID)

	created, err := repositories.InsertIgnore(ctx, r.db.Executor(ctx), ib)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert activity")
		return false, fmt.Errorf("failed to insert activity: %w", err)
	}
	return created, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Activity, error) {
	ctx, span := tracing.StartSpan(ctx, "ActivityRepository.List")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(columns...)
	sb.From(tableName)
	sb.OrderBy("activity_id ASC")

	query, args := sb.Build()

	activities, err := repositories.Select[models.Activity](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list activities")
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

// UpdateCodes rewrites the codes and names of an activity. The default unit is left alone.
func (r *Repository) UpdateCodes(ctx context.Context, activity models.Activity) error {
	ctx, span := tracing.StartSpan(ctx, "ActivityRepository.UpdateCodes")
	defer span.End()

	ub := database.NewUpdateBuilder(r.db.Flavor())
	ub.Update(tableName)
	ub.Set(
		ub.Assign("code_nl", activity.CodeNL),
		ub.Assign("code_en", activity.CodeEN),
		ub.Assign("name_nl", activity.NameNL),
		ub.Assign("name_en", activity.NameEN),
	)
	ub.Where(ub.Equal("activity_id", activity.ID))

	query, args := ub.Build()

	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("activity_id", activity.ID).Error("failed to update activity codes")
		return fmt.Errorf("failed to update activity %d: %w", activity.ID, err)
	}
	return nil
}
