// Package orchestrator ties the batch sync, realtime, and backfill managers
// together, plus the retention sweep. cmd/main.go constructs them and
// hands them in.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/predimarket/indexer/internal/backfill"
	"github.com/predimarket/indexer/internal/config"
	"github.com/predimarket/indexer/internal/realtime"
	"github.com/predimarket/indexer/internal/store"
	batchsync "github.com/predimarket/indexer/internal/sync"
	"github.com/predimarket/indexer/internal/upstream/pricehistory"
)

const retentionStartupDelay = 5 * time.Minute
const retentionInterval = 24 * time.Hour

type Orchestrator struct {
	batch    *batchsync.Manager
	realtime *realtime.Manager
	backfill *backfill.Manager
	store    *store.Store
	cfg      config.RetentionConfig
	enableTradesRetention bool
	logger   *logrus.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(batch *batchsync.Manager, rt *realtime.Manager, bf *backfill.Manager, st *store.Store, cfg config.RetentionConfig, enableTradesRetention bool, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		batch:                 batch,
		realtime:              rt,
		backfill:              bf,
		store:                 st,
		cfg:                   cfg,
		enableTradesRetention: enableTradesRetention,
		logger:                logger,
	}
}

// Start wires MarketsRefreshed into the realtime manager's resubscribe,
// runs the batch manager's initial sync, starts every periodic subsystem,
// and starts the retention sweep.
func (o *Orchestrator) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.batch.Start(runCtx)

	if err := o.realtime.Start(runCtx); err != nil {
		return err
	}

	o.wg.Add(2)
	go o.watchMarketsRefreshed(runCtx)
	go o.runRetentionSweep(runCtx)

	if err := o.backfill.BackfillMissing(runCtx, pricehistory.IntervalMax); err != nil {
		o.logger.WithError(err).Warn("startup backfill pass failed")
	}

	return nil
}

// Stop cancels the retention sweep and resubscribe watcher, stops the
// batch timers, and shuts the realtime manager down (flushing pending
// buffer, closing sockets).
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.batch.Stop()
	o.realtime.Stop()
	o.wg.Wait()
}

func (o *Orchestrator) watchMarketsRefreshed(ctx context.Context) {
	defer o.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.batch.MarketsRefreshed():
			o.realtime.Resubscribe(ctx)
		}
	}
}

func (o *Orchestrator) runRetentionSweep(ctx context.Context) {
	defer o.wg.Done()

	select {
	case <-ctx.Done():
		return
	case <-time.After(retentionStartupDelay):
		o.sweep(ctx)
	}

	ticker := time.NewTicker(retentionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.sweep(ctx)
		}
	}
}

func (o *Orchestrator) sweep(ctx context.Context) {
	priceCutoff := time.Now().UTC().AddDate(0, 0, -o.cfg.PriceHistoryDays)
	if n, err := o.store.PrunePriceSamples(ctx, priceCutoff); err != nil {
		o.logger.WithError(err).Warn("price sample retention sweep failed")
	} else if n > 0 {
		o.logger.Infof("retention sweep pruned %d price samples", n)
	}

	if !o.enableTradesRetention {
		return
	}
	tradeCutoff := time.Now().UTC().AddDate(0, 0, -o.cfg.TradesDays)
	if n, err := o.store.PruneTrades(ctx, tradeCutoff); err != nil {
		o.logger.WithError(err).Warn("trade retention sweep failed")
	} else if n > 0 {
		o.logger.Infof("retention sweep pruned %d trades", n)
	}
}

// Status aggregates the batch manager's per-entity sync state for the
// admin surface.
func (o *Orchestrator) Status(ctx context.Context) (map[string]batchsync.EntityStatus, error) {
	return o.batch.Status(ctx)
}
