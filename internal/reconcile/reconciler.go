package reconcile

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"safarbot/internal/domain"
)

// Reconciler re-derives requester aggregates from pledge rows. The
// ledger maintains pending_amount and funded_amount incrementally and
// nothing else ever recomputes them, so a bug anywhere in that path
// would drift them permanently; this job catches and repairs that.
type Reconciler struct {
	store domain.AggregateReconciler
	log   zerolog.Logger
}

// New creates a reconciler over the given store.
func New(store domain.AggregateReconciler, log zerolog.Logger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

// Run executes one reconciliation pass.
func (r *Reconciler) Run(ctx context.Context) {
	fixed, err := r.store.ReconcileAggregates(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("aggregate reconcile failed")
		return
	}
	if fixed > 0 {
		r.log.Warn().Int("requesters", fixed).Msg("repaired drifted aggregates")
		return
	}
	r.log.Debug().Msg("aggregates consistent")
}

// Schedule registers the job on a cron runner using a standard 5-field
// spec (e.g. "*/10 * * * *"). An empty spec disables the job.
func (r *Reconciler) Schedule(c *cron.Cron, spec string) error {
	if spec == "" {
		return nil
	}
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		r.Run(ctx)
	})
	return err
}
