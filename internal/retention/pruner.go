// Package retention implements the budget-bound background pruner
// described in spec.md §4.G: one fixed-cadence cron job that walks
// every Drop and deletes rows older than its configured retention,
// batched so no single run starves readers or ingest.
package retention

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raphael-dev/raphael/internal/logger"
	"github.com/raphael-dev/raphael/internal/rowstore"
)

const (
	defaultBatchSize     = 5000
	defaultMaxRuntimeMS  = 250
	defaultCadenceSpec   = "@every 60s"
)

// Config carries the pruner's batch/runtime knobs, sourced from the
// *_PRUNE_BATCH_SIZE / *_PRUNE_MAX_RUNTIME_MS environment variables
// (spec.md §6).
type Config struct {
	BatchSize     int
	MaxRuntimeMS  int64
	CadenceSpec   string
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxRuntimeMS <= 0 {
		c.MaxRuntimeMS = defaultMaxRuntimeMS
	}
	if c.CadenceSpec == "" {
		c.CadenceSpec = defaultCadenceSpec
	}
	return c
}

// Pruner owns the cron schedule and runs deletions against the Row
// Store on every tick.
type Pruner struct {
	db     *rowstore.Database
	cfg    Config
	cron   *cron.Cron
	nowFn  func() time.Time
}

func New(db *rowstore.Database, cfg Config) *Pruner {
	return &Pruner{
		db:    db,
		cfg:   cfg.withDefaults(),
		cron:  cron.New(),
		nowFn: time.Now,
	}
}

// Start runs one pass immediately, then schedules the recurring
// cadence (spec.md §4.G: "Runs at startup and then on a fixed cadence").
func (p *Pruner) Start() error {
	p.RunOnce()
	if _, err := p.cron.AddFunc(p.cfg.CadenceSpec, p.RunOnce); err != nil {
		return err
	}
	p.cron.Start()
	return nil
}

// Stop drains the cron scheduler, blocking until any in-flight run
// completes.
func (p *Pruner) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

// RunOnce walks every Drop and prunes both streams, bounded by the
// configured deadline (spec.md §4.G's run(now) pseudocode).
func (p *Pruner) RunOnce() {
	deadline := p.nowFn().Add(time.Duration(p.cfg.MaxRuntimeMS) * time.Millisecond)
	log := logger.Retention()

	drops, err := p.db.ListDrops()
	if err != nil {
		log.Error().Err(err).Msg("failed to list drops for pruning")
		return
	}

	for _, drop := range drops {
		if p.nowFn().After(deadline) {
			log.Debug().Msg("pruner deadline reached, stopping this run")
			return
		}
		if err := p.pruneDrop(drop.ID, deadline); err != nil {
			log.Error().Err(err).Str("drop_id", drop.ID).Msg("failed to prune drop")
		}
	}
}

// PruneDrop runs one bounded pass against a single Drop immediately —
// used after a retention change takes effect (spec.md §4.G: "A
// retention change is followed by one immediate invocation against
// that Drop").
func (p *Pruner) PruneDrop(dropID string) error {
	deadline := p.nowFn().Add(time.Duration(p.cfg.MaxRuntimeMS) * time.Millisecond)
	return p.pruneDrop(dropID, deadline)
}

func (p *Pruner) pruneDrop(dropID string, deadline time.Time) error {
	retention, err := p.db.DropRetentionFor(dropID)
	if err != nil {
		return err
	}
	if retention == nil {
		return nil
	}

	if retention.TracesRetentionMS != nil {
		if err := p.pruneTable(dropID, rowstore.TableSpans, *retention.TracesRetentionMS, deadline); err != nil {
			return err
		}
	}
	if p.nowFn().After(deadline) {
		return nil
	}
	if retention.EventsRetentionMS != nil {
		if err := p.pruneTable(dropID, rowstore.TableWideEvents, *retention.EventsRetentionMS, deadline); err != nil {
			return err
		}
	}
	return nil
}

// pruneTable repeatedly deletes batches older than retentionMS until
// either a batch deletes 0 rows or the deadline passes.
func (p *Pruner) pruneTable(dropID, table string, retentionMS int64, deadline time.Time) error {
	cutoff := p.nowFn().UnixMilli() - retentionMS
	for {
		if p.nowFn().After(deadline) {
			return nil
		}
		n, err := p.db.DeleteOlderThan(dropID, table, cutoff, p.cfg.BatchSize)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}
