// Package sync implements the Batch Sync Manager: paginated catalog
// mirroring, event->market linkage, CLOB tradability audit, expiration
// audit, and recent-trade ingestion, each on its own independent timer.
package sync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/predimarket/indexer/internal/cache"
	"github.com/predimarket/indexer/internal/config"
	"github.com/predimarket/indexer/internal/store"
	"github.com/predimarket/indexer/internal/upstream/catalog"
	"github.com/predimarket/indexer/internal/upstream/clob"
	"github.com/predimarket/indexer/internal/upstream/trades"
)

// Manager owns the batch sync cadences. A second invocation of any one
// task while its prior run is still in flight is dropped, not queued: the
// locks are non-blocking compare-and-swap, not mutexes.
type Manager struct {
	catalog *catalog.Client
	clob    *clob.Client
	trades  *trades.Client
	store   *store.Store
	cache   cache.Invalidator
	cfg     config.BatchSyncConfig
	logger  *logrus.Logger

	eventsLock  atomic.Bool
	marketsLock atomic.Bool
	tradesLock  atomic.Bool

	// marketsRefreshed fires once after every successful markets sync (all
	// pages committed) so the
	// realtime manager can recompute its token universe. Buffered size 1,
	// non-blocking send: this is a single-value "something changed" signal,
	// not a stream of events to be queued up.
	marketsRefreshed chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(catalogClient *catalog.Client, clobClient *clob.Client, tradesClient *trades.Client, st *store.Store, inv cache.Invalidator, cfg config.BatchSyncConfig, logger *logrus.Logger) *Manager {
	return &Manager{
		catalog:          catalogClient,
		clob:             clobClient,
		trades:           tradesClient,
		store:            st,
		cache:            inv,
		cfg:              cfg,
		logger:           logger,
		marketsRefreshed: make(chan struct{}, 1),
	}
}

// MarketsRefreshed is read by the orchestrator to wire resubscription into
// the realtime manager.
func (m *Manager) MarketsRefreshed() <-chan struct{} {
	return m.marketsRefreshed
}

func (m *Manager) signalMarketsRefreshed() {
	select {
	case m.marketsRefreshed <- struct{}{}:
	default:
	}
}

// Start runs InitialSync synchronously, then launches every periodic task
// as its own goroutine under ctx. Start returns once InitialSync completes
// (or fails — failure is logged, not fatal; the periodic tasks still
// start and will retry).
func (m *Manager) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	if err := m.InitialSync(runCtx); err != nil {
		m.logger.WithError(err).Error("initial sync failed, continuing with periodic retries")
	}

	m.wg.Add(5)
	go m.runTicker(runCtx, "markets", m.cfg.MarketsInterval, 0, m.marketsTick)
	go m.runTicker(runCtx, "events", m.cfg.MarketsInterval, m.cfg.MarketsInterval/2, m.eventsTick)
	go m.runExpirationAudit(runCtx)
	go m.runClobAudit(runCtx)
	if m.cfg.EnableTradesSync {
		go m.runTicker(runCtx, "trades", m.cfg.TradesInterval, 0, m.tradesTick)
	} else {
		m.wg.Done()
		if err := m.store.SetSyncState(ctx, "trades", "disabled", "", nil); err != nil {
			m.logger.WithError(err).Warn("failed to mark trades sync disabled")
		}
	}
}

// Stop cancels every periodic task and waits for in-flight ticks to
// return.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// runTicker owns one cadence: an optional phaseShift delay before the
// first tick (used to stagger the events timer half a period off the
// markets timer so the two never collide), then a steady time.Ticker.
func (m *Manager) runTicker(ctx context.Context, name string, interval, phaseShift time.Duration, fn func(context.Context)) {
	defer m.wg.Done()

	if phaseShift > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(phaseShift):
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (m *Manager) marketsTick(ctx context.Context) {
	if !m.marketsLock.CompareAndSwap(false, true) {
		m.logger.Warn("markets sync already in flight, dropping tick")
		return
	}
	defer m.marketsLock.Store(false)

	if err := m.runMarketsSync(ctx, false); err != nil {
		m.logger.WithError(err).Error("markets sync failed")
	}
}

func (m *Manager) eventsTick(ctx context.Context) {
	if !m.eventsLock.CompareAndSwap(false, true) {
		m.logger.Warn("events sync already in flight, dropping tick")
		return
	}
	defer m.eventsLock.Store(false)

	if err := m.runEventsSync(ctx, false); err != nil {
		m.logger.WithError(err).Error("events sync failed")
	}
}

func (m *Manager) tradesTick(ctx context.Context) {
	if !m.tradesLock.CompareAndSwap(false, true) {
		m.logger.Warn("trades sync already in flight, dropping tick")
		return
	}
	defer m.tradesLock.Store(false)

	if err := m.SyncRecentTrades(ctx); err != nil {
		m.logger.WithError(err).Error("trade ingestion failed")
		_ = m.store.SetSyncState(ctx, "trades", "error", err.Error(), nil)
		return
	}
	_ = m.store.SetSyncState(ctx, "trades", "idle", "", nil)
}

func (m *Manager) runExpirationAudit(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.store.ExpirationAudit(ctx); err != nil {
				m.logger.WithError(err).Error("expiration audit failed")
			}
		}
	}
}

func (m *Manager) runClobAudit(ctx context.Context) {
	defer m.wg.Done()

	select {
	case <-ctx.Done():
		return
	case <-time.After(2 * time.Minute):
		m.runClobAuditOnce(ctx)
	}

	ticker := time.NewTicker(m.cfg.ClobAuditInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runClobAuditOnce(ctx)
		}
	}
}

func (m *Manager) runClobAuditOnce(ctx context.Context) {
	if err := m.AuditClobTradability(ctx); err != nil {
		m.logger.WithError(err).Error("clob audit failed")
		_ = m.store.SetSyncState(ctx, "clob_audit", "error", err.Error(), nil)
		return
	}
	_ = m.store.SetSyncState(ctx, "clob_audit", "idle", "", nil)
}

// EntityStatus summarizes Status() for one tracked entity.
type EntityStatus struct {
	Status     string
	LastSyncAt *time.Time
	ErrorMsg   string
}

// Status reports per-entity sync state for the admin surface.
func (m *Manager) Status(ctx context.Context) (map[string]EntityStatus, error) {
	rows, err := m.store.SyncStates(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]EntityStatus, len(rows))
	for _, r := range rows {
		out[r.Entity] = EntityStatus{Status: r.Status, LastSyncAt: r.LastSyncAt, ErrorMsg: r.ErrorMsg}
	}
	return out, nil
}
