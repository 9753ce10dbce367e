package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/boxhaul-io/boxhaul/internal/logging"
	"github.com/boxhaul-io/boxhaul/internal/netbox"
	"github.com/boxhaul-io/boxhaul/internal/snapshot"
)

// Options configures a migration run.
type Options struct {
	// DryRun walks the full schedule without contacting the target.
	DryRun bool
	// ExcludedManufacturers lists manufacturer names to filter out, along
	// with everything that depends on them.
	ExcludedManufacturers []string
	// ExcludedPlatforms lists platform names to filter out, matched
	// case-insensitively against name and slug.
	ExcludedPlatforms []string
	// DuplicatePolicy classifies creation errors; nil means the default.
	DuplicatePolicy DuplicatePolicy
	// OnEvent receives one event per processed record, in order.
	OnEvent EventFunc
}

// Engine migrates a snapshot into a target system, one tier at a time.
type Engine struct {
	store  *snapshot.Store
	client netbox.Client
	opts   Options
}

// New builds an engine over an opened snapshot store and a target client.
func New(store *snapshot.Store, client netbox.Client, opts Options) *Engine {
	return &Engine{store: store, client: client, opts: opts}
}

// run carries the per-run state shared by the materialization pipeline.
type run struct {
	store    *snapshot.Store
	client   netbox.Client
	resolver *Resolver
	excl     *Exclusions
	rules    rules
	exec     *Executor
	ledger   *Ledger
	emit     EventFunc
	dryRun   bool
}

// Run executes the full tiered schedule. The report is returned even when
// the context is cancelled mid-run, so callers can always summarize what
// happened before the interruption.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	logging.Info("starting migration run",
		"run_id", runID, "dry_run", e.opts.DryRun,
		"excluded_manufacturers", e.opts.ExcludedManufacturers,
		"excluded_platforms", e.opts.ExcludedPlatforms)

	r := &run{
		store:    e.store,
		client:   e.client,
		resolver: NewResolver(e.store.SeedMappings()),
		excl:     NewExclusions(),
		rules:    newRules(e.opts.ExcludedManufacturers, e.opts.ExcludedPlatforms),
		exec:     NewExecutor(e.client, e.opts.DryRun, e.opts.DuplicatePolicy),
		ledger:   NewLedger(runID),
		emit:     e.opts.OnEvent,
		dryRun:   e.opts.DryRun,
	}

	for _, tier := range tiers {
		logging.Info("entering tier", "tier", tier.Name)
		for _, typ := range tier.Types {
			spec, ok := typeSpecs[typ]
			if !ok {
				return r.ledger.Summarize(), fmt.Errorf("no materialization spec for type %q", typ)
			}
			if err := r.processType(ctx, spec); err != nil {
				return r.ledger.Summarize(), err
			}
		}
	}

	report := r.ledger.Summarize()
	logging.Info("migration run complete",
		"run_id", runID, "created", report.Created,
		"skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}
