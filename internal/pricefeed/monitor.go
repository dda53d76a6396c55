package pricefeed

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Update is the frame broadcast to subscribers.
type Update struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      []Kline   `json:"data"`
}

// Monitor polls the kline source on a fixed interval and broadcasts each
// result through the hub. Fetch errors are logged and the loop continues.
type Monitor struct {
	source   KlineSource
	hub      *Hub
	interval time.Duration
	log      *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewMonitor(source KlineSource, hub *Hub, interval time.Duration, log *slog.Logger) *Monitor {
	return &Monitor{
		source:   source,
		hub:      hub,
		interval: interval,
		log:      log,
	}
}

// Start polls immediately, then on every tick. Idempotent.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.log.Info("starting price monitoring", "interval", m.interval)
	go m.run(ctx, m.done)
}

// Stop cancels polling and waits for the loop to exit. Safe to call on a
// stopped monitor.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.log.Info("price monitoring stopped")
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	t := time.NewTicker(m.interval)
	defer t.Stop()

	m.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.poll(ctx)
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	klines, err := m.source.RecentKlines(ctx)
	if err != nil {
		m.log.Error("price poll", "err", err)
		return
	}
	m.hub.Broadcast(Update{
		Event:     "priceUpdate",
		Timestamp: time.Now().UTC(),
		Data:      klines,
	})
}
