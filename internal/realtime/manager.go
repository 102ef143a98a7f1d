// Package realtime implements the Realtime Sync Manager: a fixed pool of
// sharded WebSocket connections subscribed to the live token universe,
// buffering and flushing price updates on a fixed cadence.
package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/predimarket/indexer/internal/config"
	"github.com/predimarket/indexer/internal/store"
)

type bufferedPrice struct {
	marketID string
	price    float64
	instant  time.Time
}

// Manager maintains subscriptions for the live token universe across N
// sharded connections and buffers inbound price updates for a flush.
type Manager struct {
	cfg    config.RealtimeConfig
	wsURL  string
	store  *store.Store
	logger *logrus.Logger

	shards []*wsShard

	tokenMu       sync.RWMutex
	tokenToMarket map[string]string

	bufMu  sync.Mutex
	buffer map[string]bufferedPrice

	flushing atomic.Bool

	shardConnected []atomic.Bool
	lastAggregate  atomic.Value // string: "connected" | "disconnected"

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(wsURL string, st *store.Store, cfg config.RealtimeConfig, logger *logrus.Logger) *Manager {
	n := cfg.Connections
	if n < 1 {
		n = 1
	}
	m := &Manager{
		cfg:            cfg,
		wsURL:          wsURL,
		store:          st,
		logger:         logger,
		tokenToMarket:  make(map[string]string),
		buffer:         make(map[string]bufferedPrice),
		shardConnected: make([]atomic.Bool, n),
	}
	m.shards = make([]*wsShard, n)
	for i := 0; i < n; i++ {
		m.shards[i] = newShard(i, m)
	}
	return m
}

// Start loads the current token universe, shards it across connections,
// opens every shard, and starts the flush timer. Start does not block.
func (m *Manager) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	if err := m.reshard(ctx); err != nil {
		m.logger.WithError(err).Warn("initial token universe load failed, starting with empty subscriptions")
	}

	m.wg.Add(len(m.shards) + 1)
	for _, s := range m.shards {
		go s.run(runCtx)
	}
	go m.flushLoop(runCtx)
	return nil
}

// Stop cancels every shard's connection loop and the flush timer, then
// performs one final flush of whatever remains buffered.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.flush(context.Background())
}

// Resubscribe recomputes the token universe and reshards it across the N
// connections. For each connected shard, it sends subscribe frames for
// tokens newly assigned to it; tokens no longer assigned are left to decay
// naturally (SPEC_FULL §4.2.7).
func (m *Manager) Resubscribe(ctx context.Context) {
	if err := m.reshard(ctx); err != nil {
		m.logger.WithError(err).Warn("resubscribe: failed to reload token universe")
		return
	}
	for _, s := range m.shards {
		if !m.shardConnected[s.id].Load() {
			continue
		}
		toAdd := s.notYetSubscribed(tokensSlice(s.assigned))
		if len(toAdd) == 0 {
			continue
		}
		if err := s.subscribeNew(ctx, toAdd); err != nil {
			m.logger.WithError(err).Warnf("resubscribe: shard %d failed to send new subscriptions", s.id)
		}
	}
}

func (m *Manager) reshard(ctx context.Context) error {
	tokenToMarket, err := m.store.LiveTokenUniverse(ctx)
	if err != nil {
		return err
	}

	m.tokenMu.Lock()
	m.tokenToMarket = tokenToMarket
	m.tokenMu.Unlock()

	n := len(m.shards)
	assignments := make([]map[string]struct{}, n)
	for i := range assignments {
		assignments[i] = make(map[string]struct{})
	}
	for token := range tokenToMarket {
		idx := shardFor(token, n)
		assignments[idx][token] = struct{}{}
	}
	for i, s := range m.shards {
		s.setAssigned(assignments[i])
	}
	return nil
}

func (m *Manager) marketFor(tokenID string) (string, bool) {
	m.tokenMu.RLock()
	defer m.tokenMu.RUnlock()
	marketID, ok := m.tokenToMarket[tokenID]
	return marketID, ok
}

func (m *Manager) setShardConnected(id int, connected bool) {
	m.shardConnected[id].Store(connected)

	anyConnected := false
	for i := range m.shardConnected {
		if m.shardConnected[i].Load() {
			anyConnected = true
			break
		}
	}
	status := "disconnected"
	if anyConnected {
		status = "connected"
	}

	prev, _ := m.lastAggregate.Load().(string)
	if prev == status {
		return
	}
	m.lastAggregate.Store(status)
	if err := m.store.SetSyncStatusOnly(context.Background(), "prices", status); err != nil {
		m.logger.WithError(err).Warn("failed to publish realtime aggregate status")
	}
}

func (m *Manager) flushLoop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.PriceFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.flush(ctx)
		}
	}
}
