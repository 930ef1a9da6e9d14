package recur

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tesoreria/internal/treasury"
)

// Store is the slice of storage the generator needs.
type Store interface {
	ListRecurring(ctx context.Context, activeOnly bool) ([]treasury.RecurringTransaction, error)
	ListVersions(ctx context.Context, recurringID string) ([]treasury.RecurringVersion, error)
	InsertInstance(ctx context.Context, inst *treasury.Instance) (bool, error)
}

// Generator materializes pending instances for all active recurring
// transactions up to a horizon date.
type Generator struct {
	store Store
	log   *zap.Logger
}

func NewGenerator(store Store, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{store: store, log: log}
}

// Generate expands every active recurring transaction up to horizon
// (inclusive) and inserts the instances that do not exist yet. Each
// version generates only inside its effective window: from its
// EffectiveFrom up to the day before the next version takes over.
// Returns the number of newly created instances.
func (g *Generator) Generate(ctx context.Context, horizon time.Time) (int, error) {
	recs, err := g.store.ListRecurring(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("generate: %w", err)
	}

	created := 0
	for _, rec := range recs {
		n, err := g.generateOne(ctx, rec, horizon)
		if err != nil {
			return created, fmt.Errorf("generate %s: %w", rec.ID, err)
		}
		created += n
	}
	g.log.Info("recurrence generation finished",
		zap.Int("recurring", len(recs)),
		zap.Int("created", created),
		zap.String("horizon", treasury.FormatDate(horizon)))
	return created, nil
}

func (g *Generator) generateOne(ctx context.Context, rec treasury.RecurringTransaction, horizon time.Time) (int, error) {
	versions, err := g.store.ListVersions(ctx, rec.ID)
	if err != nil {
		return 0, err
	}

	created := 0
	for i, v := range versions {
		// The window closes the day before the next version applies.
		end := horizon
		if i+1 < len(versions) {
			handover := versions[i+1].EffectiveFrom.AddDate(0, 0, -1)
			if handover.Before(end) {
				end = handover
			}
		}
		for _, due := range Expand(v.Schedule, v.EffectiveFrom, end) {
			inst := treasury.Instance{
				RecurringID: rec.ID,
				Version:     v.Version,
				DueDate:     due,
				Amount:      v.Amount,
				Status:      treasury.InstancePending,
			}
			inserted, err := g.store.InsertInstance(ctx, &inst)
			if err != nil {
				return created, err
			}
			if inserted {
				created++
			}
		}
	}
	if created > 0 {
		g.log.Debug("materialized instances",
			zap.String("recurring", rec.ID),
			zap.Int("created", created))
	}
	return created, nil
}
