package normalizer

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/kodi/pkg/catalog"
	appctx "github.com/Ramsey-B/kodi/pkg/context"
	kerrors "github.com/Ramsey-B/kodi/pkg/errors"
	"github.com/Ramsey-B/kodi/pkg/metrics"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

// Entity kinds as reported in Result.Created and metrics.
const (
	KindCategory     = "categories"
	KindDamageType   = "damage_types"
	KindUnit         = "units"
	KindPriceBook    = "price_books"
	KindSeverityBand = "severity_bands"
	KindActivity     = "activities"
	KindBridge       = "bridges"
	KindCost         = "costs"
)

type Options struct {
	Strategy catalog.MatchStrategy
	// MaxConflictRetries bounds how often a unique conflict on insert is retried as a read.
	MaxConflictRetries int
	LockTTL            time.Duration
	// CrossLanguageFallback lets an empty code borrow the other language's code or name
	// before falling back to UNKNOWN.
	CrossLanguageFallback bool
}

// Normalizer merges raw cost rows into the canonical catalog without creating duplicates.
type Normalizer struct {
	store  catalog.Store
	locker Locker
	logger ectologger.Logger
	opts   Options
}

func New(store catalog.Store, locker Locker, logger ectologger.Logger, opts Options) *Normalizer {
	if opts.Strategy == "" {
		opts.Strategy = catalog.MatchEither
	}
	if opts.MaxConflictRetries <= 0 {
		opts.MaxConflictRetries = 3
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Minute
	}
	if locker == nil {
		locker = &LocalLocker{}
	}
	return &Normalizer{
		store:  store,
		locker: locker,
		logger: logger,
		opts:   opts,
	}
}

// Result summarizes one normalization pass.
type Result struct {
	RunID       string         `json:"run_id"`
	Source      string         `json:"source"`
	RowsSeen    int            `json:"rows_seen"`
	RowsPriced  int            `json:"rows_priced"`
	Created     map[string]int `json:"created"`
	Duration    time.Duration  `json:"duration"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Run executes one pass over src. The stages commit one by one; when a stage fails
// the earlier stages stand and the error is returned with the partial result.
func (n *Normalizer) Run(ctx context.Context, src Source) (*Result, error) {
	runID := uuid.New().String()
	ctx = appctx.SetRunID(ctx, runID)
	ctx = appctx.SetSource(ctx, src.Name())
	ctx, span := tracing.StartSpan(ctx, "Normalizer.Run")
	defer span.End()

	log := n.logger.WithContext(ctx).WithFields(appctx.Fields(ctx))
	start := time.Now()

	result := &Result{
		RunID:   runID,
		Source:  src.Name(),
		Created: map[string]int{},
	}

	exists, err := src.Exists(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to check normalization source")
		metrics.RecordNormalization(src.Name(), "error", time.Since(start).Seconds(), nil)
		return nil, err
	}
	if !exists {
		err := kerrors.SourceMissing(src.Table())
		log.WithError(err).Error("Normalization source is missing")
		metrics.RecordNormalization(src.Name(), "source_missing", time.Since(start).Seconds(), nil)
		return nil, err
	}

	err = n.locker.WithLock(ctx, LockKey, n.opts.LockTTL, func(ctx context.Context) error {
		rows, err := src.Rows(ctx)
		if err != nil {
			return err
		}
		result.RowsSeen = len(rows)
		log.WithField("rows", len(rows)).Info("Starting normalization pass")

		return n.runStages(ctx, rows, result)
	})

	result.Duration = time.Since(start)
	result.CompletedAt = time.Now().UTC()

	status := "success"
	if err != nil {
		status = "error"
		log.WithError(err).WithFields(map[string]any{"created": result.Created}).Error("Normalization pass failed")
	} else {
		log.WithFields(map[string]any{
			"rows":        result.RowsSeen,
			"rows_priced": result.RowsPriced,
			"created":     result.Created,
			"duration":    result.Duration.String(),
		}).Info("Normalization pass completed")
	}
	metrics.RecordNormalization(src.Name(), status, result.Duration.Seconds(), result.Created)

	return result, err
}

// stage runs one resolution stage in its own transaction.
func (n *Normalizer) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := tracing.StartSpan(ctx, "Normalizer.stage."+name)
	defer span.End()

	start := time.Now()
	if err := n.store.RunInTx(ctx, fn); err != nil {
		return err
	}
	n.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":   appctx.GetRunID(ctx),
		"stage":    name,
		"duration": time.Since(start).String(),
	}).Debug("Normalization stage committed")
	return nil
}

// ensure is the find, insert-ignore, re-read loop every stage relies on. A unique conflict
// raised by the store is retried as a read up to MaxConflictRetries times.
func ensure[T any](ctx context.Context, n *Normalizer, kind string, find func(context.Context) (*T, error), insert func(context.Context) (bool, error)) (*T, bool, error) {
	for attempt := 0; ; attempt++ {
		found, err := find(ctx)
		if err != nil || found != nil {
			return found, false, err
		}

		created, err := insert(ctx)
		if err != nil {
			if catalog.IsConflict(err) && attempt < n.opts.MaxConflictRetries {
				metrics.RecordConflictRetry(kind)
				n.logger.WithContext(ctx).WithFields(map[string]any{
					"kind":    kind,
					"attempt": attempt + 1,
				}).Warn("Unique conflict on insert, retrying read")
				continue
			}
			return nil, false, err
		}

		found, err = find(ctx)
		if err != nil {
			return nil, false, err
		}
		if found != nil {
			return found, created, nil
		}
		if attempt >= n.opts.MaxConflictRetries {
			return nil, false, kerrors.Newf(kerrors.KindCodeConflict, "%s could not be resolved after insert", kind)
		}
	}
}
