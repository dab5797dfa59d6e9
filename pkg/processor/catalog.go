// Package processor drives catalog maintenance passes and announces their results.
package processor

import (
	"context"

	"github.com/Gobusters/ectologger"

	kerrors "github.com/Ramsey-B/kodi/pkg/errors"
	"github.com/Ramsey-B/kodi/pkg/kafka"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/normalizer"
	"github.com/Ramsey-B/kodi/pkg/recode"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

// Publisher announces completed normalization passes.
type Publisher interface {
	PublishCatalogNormalized(ctx context.Context, event *models.CatalogNormalizedEvent) error
}

// Invalidator drops cached estimates after the catalog changed.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// StagingClearer empties the staging buffer after a successful pass.
type StagingClearer interface {
	Clear(ctx context.Context) (int64, error)
}

// Options holds the optional collaborators of a Catalog. Nil fields are skipped.
type Options struct {
	Publisher   Publisher
	Invalidator Invalidator
	Staging     StagingClearer
}

type NormalizeRequest struct {
	Source       string `json:"source" validate:"omitempty,oneof=staging legacy"`
	LoadID       string `json:"load_id,omitempty"`
	ClearStaging bool   `json:"clear_staging,omitempty"`
}

type Catalog struct {
	normalizer *normalizer.Normalizer
	recoder    *recode.Recoder
	sources    map[string]normalizer.Source
	opts       Options
	logger     ectologger.Logger
}

func NewCatalog(n *normalizer.Normalizer, r *recode.Recoder, sources []normalizer.Source, logger ectologger.Logger, opts Options) *Catalog {
	byName := make(map[string]normalizer.Source, len(sources))
	for _, src := range sources {
		byName[src.Name()] = src
	}
	return &Catalog{
		normalizer: n,
		recoder:    r,
		sources:    byName,
		opts:       opts,
		logger:     logger,
	}
}

// Normalize runs one pass over the requested source. Stages that committed before a
// failure still invalidate the estimate cache.
func (c *Catalog) Normalize(ctx context.Context, req NormalizeRequest) (*normalizer.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "Catalog.Normalize")
	defer span.End()

	name := req.Source
	if name == "" {
		name = normalizer.SourceStaging
	}
	src, ok := c.sources[name]
	if !ok {
		return nil, kerrors.InvalidInput("unknown normalization source %q", name)
	}

	log := c.logger.WithContext(ctx).WithFields(map[string]any{"source": name, "load_id": req.LoadID})

	result, err := c.normalizer.Run(ctx, src)
	if result != nil && createdAny(result.Created) {
		c.invalidate(ctx)
	}
	if err != nil {
		return result, err
	}

	if req.ClearStaging && name == normalizer.SourceStaging && c.opts.Staging != nil {
		removed, err := c.opts.Staging.Clear(ctx)
		if err != nil {
			return result, err
		}
		log.WithField("rows", removed).Info("Cleared staging buffer")
	}

	if c.opts.Publisher != nil {
		event := &models.CatalogNormalizedEvent{
			RunID:      result.RunID,
			Source:     result.Source,
			LoadID:     req.LoadID,
			RowsSeen:   result.RowsSeen,
			Created:    result.Created,
			DurationMS: result.Duration.Milliseconds(),
		}
		if err := c.opts.Publisher.PublishCatalogNormalized(ctx, event); err != nil {
			log.WithError(err).Warn("Failed to publish catalog normalized event")
		}
	}

	return result, nil
}

// Recode canonicalizes every code in the catalog.
func (c *Catalog) Recode(ctx context.Context) (*recode.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "Catalog.Recode")
	defer span.End()

	result, err := c.recoder.Run(ctx)
	if err != nil {
		return nil, err
	}
	if result.Total() > 0 {
		c.invalidate(ctx)
	}
	return result, nil
}

// ProcessMessage handles a staging.loaded event. A missing source table cannot be
// fixed by redelivery, so the message is acknowledged.
func (c *Catalog) ProcessMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "Catalog.ProcessMessage")
	defer span.End()

	event, err := msg.ParseStagingLoaded()
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Error("Dropping malformed staging loaded event")
		return nil
	}

	_, err = c.Normalize(ctx, NormalizeRequest{Source: event.Source, LoadID: event.LoadID})
	if kerrors.Is(err, kerrors.KindSourceMissing) || kerrors.Is(err, kerrors.KindInvalidInput) {
		c.logger.WithContext(ctx).WithError(err).Error("Dropping staging loaded event")
		return nil
	}
	return err
}

func (c *Catalog) invalidate(ctx context.Context) {
	if c.opts.Invalidator == nil {
		return
	}
	if err := c.opts.Invalidator.Invalidate(ctx); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Failed to invalidate estimate cache")
	}
}

func createdAny(created map[string]int) bool {
	for _, n := range created {
		if n > 0 {
			return true
		}
	}
	return false
}
