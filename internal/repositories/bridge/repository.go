package bridge

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/kodi/internal/repositories"
	"github.com/Ramsey-B/kodi/pkg/database"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

const tableName = "damage_type_activity"

var columns = []string{"damage_type_id", "activity_id", "is_required", "sequence_order", "notes"}

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

func (r *Repository) Get(ctx context.Context, damageTypeID, activityID int64) (*models.DamageTypeActivity, error) {
	ctx, span := tracing.StartSpan(ctx, "BridgeRepository.Get")
	defer span.End()

	sb := database.NewSelectBuilder(r.db.Flavor())
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("damage_type_id", damageTypeID),
		sb.Equal("activity_id", activityID),
	)

	query, args := sb.Build()

	bridge, err := repositories.Get[models.DamageTypeActivity](ctx, r.db.Executor(ctx), query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"damage_type_id": damageTypeID,
			"activity_id":    activityID,
		}).Error("failed to get damage type activity")
		return nil, fmt.Errorf("failed to get damage type activity: %w", err)
	}
	return bridge, nil
}

func (r *Repository) Insert(ctx context.Context, bridge models.DamageTypeActivity) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "BridgeRepository.Insert")
	defer span.End()

	ib := database.NewInsertBuilder(r.db.Flavor())
	ib.InsertInto(tableName)
	ib.Cols(columns...)
	ib.Values(bridge.DamageTypeID, bridge.ActivityID, bridge.IsRequired, bridge.SequenceOrder, bridge.Notes)

	created, err := repositories.InsertIgnore(ctx, r.db.Executor(ctx), ib)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to insert damage type activity")
		return false, fmt.Errorf("failed to insert damage type activity: %w", err)
	}
	return created, nil
}
