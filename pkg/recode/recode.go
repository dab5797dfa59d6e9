// Package recode rewrites catalog codes into their canonical form.
package recode

import (
	"context"
	"fmt"
	"sort"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/kodi/pkg/catalog"
	"github.com/Ramsey-B/kodi/pkg/models"
	"github.com/Ramsey-B/kodi/pkg/tracing"
)

// Result counts the entities whose codes or names changed.
type Result struct {
	Categories  int `json:"categories"`
	DamageTypes int `json:"damage_types"`
	Activities  int `json:"activities"`
}

func (r Result) Total() int {
	return r.Categories + r.DamageTypes + r.Activities
}

type Recoder struct {
	store  catalog.Store
	logger ectologger.Logger
}

func New(store catalog.Store, logger ectologger.Logger) *Recoder {
	return &Recoder{store: store, logger: logger}
}

// Run recodes categories, damage types and activities in a single transaction.
func (r *Recoder) Run(ctx context.Context) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "Recoder.Run")
	defer span.End()

	result := &Result{}
	err := r.store.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if result.Categories, err = r.recodeCategories(ctx); err != nil {
			return fmt.Errorf("recode categories: %w", err)
		}
		if result.DamageTypes, err = r.recodeDamageTypes(ctx); err != nil {
			return fmt.Errorf("recode damage types: %w", err)
		}
		if result.Activities, err = r.recodeActivities(ctx); err != nil {
			return fmt.Errorf("recode activities: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Recode failed")
		return nil, err
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"categories":   result.Categories,
		"damage_types": result.DamageTypes,
		"activities":   result.Activities,
	}).Info("Recode completed")
	return result, nil
}

// apply writes changes in two passes: every changed entity first moves to a placeholder
// code, then to its final code, so swaps between entities never collide.
func apply(ctx context.Context, changes map[int64]models.Bilingual, update func(ctx context.Context, id int64, codes models.Bilingual) error) error {
	ids := make([]int64, 0, len(changes))
	for id := range changes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := update(ctx, id, placeholder(id)); err != nil {
			return err
		}
	}
	for _, id := range ids {
		if err := update(ctx, id, changes[id]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recoder) recodeCategories(ctx context.Context) (int, error) {
	categories, err := r.store.ListCategories(ctx)
	if err != nil {
		return 0, err
	}
	changes := plan(ectolinq.Map(categories, func(c models.DamageCategory) entity {
		return entity{id: c.ID, codes: c.Bilingual}
	}))
	return len(changes), apply(ctx, changes, func(ctx context.Context, id int64, codes models.Bilingual) error {
		return r.store.UpdateCategory(ctx, models.DamageCategory{ID: id, Bilingual: codes})
	})
}

func (r *Recoder) recodeDamageTypes(ctx context.Context) (int, error) {
	damageTypes, err := r.store.ListDamageTypes(ctx)
	if err != nil {
		return 0, err
	}
	categoryOf := map[int64]int64{}
	for _, t := range damageTypes {
		categoryOf[t.ID] = t.CategoryID
	}
	changes := plan(ectolinq.Map(damageTypes, func(t models.DamageType) entity {
		return entity{id: t.ID, codes: t.Bilingual}
	}))
	return len(changes), apply(ctx, changes, func(ctx context.Context, id int64, codes models.Bilingual) error {
		return r.store.UpdateDamageType(ctx, models.DamageType{ID: id, CategoryID: categoryOf[id], Bilingual: codes})
	})
}

func (r *Recoder) recodeActivities(ctx context.Context) (int, error) {
	activities, err := r.store.ListActivities(ctx)
	if err != nil {
		return 0, err
	}
	defaultUnit := map[int64]*int64{}
	for _, a := range activities {
		defaultUnit[a.ID] = a.DefaultUnitID
	}
	changes := plan(ectolinq.Map(activities, func(a models.Activity) entity {
		return entity{id: a.ID, codes: a.Bilingual}
	}))
	return len(changes), apply(ctx, changes, func(ctx context.Context, id int64, codes models.Bilingual) error {
		return r.store.UpdateActivity(ctx, models.Activity{ID: id, Bilingual: codes, DefaultUnitID: defaultUnit[id]})
	})
}
