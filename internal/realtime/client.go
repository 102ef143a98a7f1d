package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	subscribeBatchSize = 500
	subscribePacing    = 25 * time.Millisecond

	backoffCap  = 30 * time.Second
	tailBackoff = 60 * time.Second
)

// wsShard is one of the manager's N sharded connections. Each owns its own
// assigned/subscribed token sets, connection state, and reconnect attempt
// counter, so one shard's churn never affects the others.
type wsShard struct {
	id      int
	manager *Manager

	mu         sync.Mutex
	assigned   map[string]struct{}
	subscribed map[string]struct{}

	connMu sync.Mutex
	conn   *websocket.Conn

	reconnectAttempts int
}

func newShard(id int, manager *Manager) *wsShard {
	return &wsShard{
		id:         id,
		manager:    manager,
		assigned:   make(map[string]struct{}),
		subscribed: make(map[string]struct{}),
	}
}

// run owns the shard's full lifecycle: connect, serve, and on disconnect
// reconnect with exponential backoff up to ws_max_reconnect_attempts, then
// fall back to a constant 60s tail. It never gives up permanently — only
// ctx cancellation (manager Stop) ends the loop.
func (s *wsShard) run(ctx context.Context) {
	defer s.manager.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := s.connectAndServe(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.manager.logger.WithError(err).Warnf("realtime shard %d disconnected", s.id)
		}

		s.reconnectAttempts++
		s.manager.setShardConnected(s.id, false)

		delay := backoffDelay(s.reconnectAttempts, s.manager.cfg.ReconnectInterval, s.manager.cfg.MaxReconnectAttempt)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func backoffDelay(attempts int, base time.Duration, maxAttempts int) time.Duration {
	if attempts > maxAttempts {
		return tailBackoff
	}
	d := base * time.Duration(uint(1)<<uint(attempts-1))
	if d > backoffCap {
		d = backoffCap
	}
	return d
}

// connectAndServe dials, performs the subscription protocol for the
// shard's currently assigned tokens, then blocks reading frames until the
// connection drops.
func (s *wsShard) connectAndServe(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.manager.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	s.reconnectAttempts = 0
	s.manager.setShardConnected(s.id, true)
	defer s.manager.setShardConnected(s.id, false)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	s.mu.Lock()
	s.subscribed = make(map[string]struct{})
	assigned := tokensSlice(s.assigned)
	s.mu.Unlock()

	if err := s.sendInitialSubscription(ctx, assigned); err != nil {
		return fmt.Errorf("initial subscription: %w", err)
	}

	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	go s.pingLoop(pingCtx, conn)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		s.manager.handleMessage(msg)
	}
}

func (s *wsShard) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.connMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			s.connMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// sendInitialSubscription sends exactly one initial frame for the first
// batch, then subscribe frames for every remaining batch, paced to avoid
// the server terminating bursty connections (SPEC_FULL §4.2.3).
func (s *wsShard) sendInitialSubscription(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	batches := batch(tokens, subscribeBatchSize)

	if err := s.sendFrame(subscribeFrame{Type: "market", AssetsIDs: batches[0]}); err != nil {
		return err
	}
	s.markSubscribed(batches[0])

	for _, b := range batches[1:] {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(subscribePacing):
		}
		if err := s.sendFrame(subscribeFrame{Type: "market", Operation: "subscribe", AssetsIDs: b}); err != nil {
			return err
		}
		s.markSubscribed(b)
	}
	return nil
}

// subscribeNew sends subscribe-only frames (no initial frame) for tokens
// newly assigned to this shard after a market refresh (SPEC_FULL §4.2.7).
func (s *wsShard) subscribeNew(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	for _, b := range batch(tokens, subscribeBatchSize) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(subscribePacing):
		}
		if err := s.sendFrame(subscribeFrame{Type: "market", Operation: "subscribe", AssetsIDs: b}); err != nil {
			return err
		}
		s.markSubscribed(b)
	}
	return nil
}

func (s *wsShard) markSubscribed(tokens []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tokens {
		s.subscribed[t] = struct{}{}
	}
}

type subscribeFrame struct {
	Type      string   `json:"type"`
	Operation string   `json:"operation,omitempty"`
	AssetsIDs []string `json:"assets_ids"`
}

func (s *wsShard) sendFrame(f subscribeFrame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal subscribe frame: %w", err)
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("shard %d not connected", s.id)
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsShard) setAssigned(tokens map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assigned = tokens
}

// notYetSubscribed returns the subset of candidates this shard has not
// yet sent a subscribe frame for.
func (s *wsShard) notYetSubscribed(candidates []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, t := range candidates {
		if _, ok := s.subscribed[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

func tokensSlice(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	return out
}

func batch(tokens []string, size int) [][]string {
	if len(tokens) == 0 {
		return [][]string{{}}
	}
	var out [][]string
	for start := 0; start < len(tokens); start += size {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		out = append(out, tokens[start:end])
	}
	return out
}
