package orders

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Vighnesh-Gaddam/Restuarant-Backend/pkg/logkey"
)

// tickDecrement is how much estimated time one tick removes, regardless of
// the configured tick interval (short intervals are for tests only).
const tickDecrement int64 = 60000

// Scheduler runs one countdown goroutine per processing order, decrementing
// the order's estimated remaining time once a minute. State is process-local:
// Rearm restores countdowns for processing orders after a restart.
//
// A tick's read-modify-write is not versioned against concurrent admin
// updates; the last write wins, matching the documented consistency window.
type Scheduler struct {
	store    Store
	interval time.Duration

	mu     sync.Mutex
	active map[string]chan struct{}
}

func NewScheduler(store Store, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		store:    store,
		interval: interval,
		active:   make(map[string]chan struct{}),
	}
}

// Start arms the countdown for an order. Starting an order that is already
// running is a no-op.
func (s *Scheduler) Start(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[orderID]; ok {
		return
	}
	stop := make(chan struct{})
	s.active[orderID] = stop
	go s.run(orderID, stop)
}

// Stop cancels a running countdown. Safe to call when nothing is running.
func (s *Scheduler) Stop(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.active[orderID]; ok {
		close(stop)
		delete(s.active, orderID)
	}
}

// Running reports whether a countdown is armed for the order.
func (s *Scheduler) Running(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[orderID]
	return ok
}

// Rearm scans for processing orders and starts their countdowns. Called once
// at boot, since in-memory timers do not survive a restart.
func (s *Scheduler) Rearm(ctx context.Context) error {
	processing, err := s.store.ListProcessing(ctx)
	if err != nil {
		return fmt.Errorf("listing processing orders: %w", err)
	}
	for _, order := range processing {
		if order.EstimatedTimeRemaining > 0 {
			s.Start(order.ID)
		}
	}
	return nil
}

func (s *Scheduler) run(orderID string, stop chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if done := s.tick(orderID); done {
				s.remove(orderID, stop)
				return
			}
		}
	}
}

// tick performs one countdown step and reports whether the countdown should
// stop. Errors stop this order's countdown; they never propagate.
func (s *Scheduler) tick(orderID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		slog.Error("countdown tick: loading order failed, stopping",
			slog.String(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
		return true
	}
	if order.Status != StatusProcessing {
		return true
	}

	remaining := order.EstimatedTimeRemaining - tickDecrement
	if remaining < 0 {
		remaining = 0
	}
	if err := s.store.SetRemaining(ctx, orderID, remaining); err != nil {
		slog.Error("countdown tick: persisting remaining time failed, stopping",
			slog.String(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
		return true
	}
	return remaining == 0
}

// remove drops the map entry for a countdown that exited on its own, unless
// Stop already replaced it with a newer run.
func (s *Scheduler) remove(orderID string, stop chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.active[orderID]; ok && current == stop {
		delete(s.active, orderID)
	}
}
