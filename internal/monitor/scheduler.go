package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/solvault/solvault-backend/internal/metrics"
	"github.com/solvault/solvault-backend/internal/models"
	"github.com/solvault/solvault-backend/internal/worker"
)

// Population lists the users to reconcile. It is queried fresh every cycle;
// membership is never cached.
type Population interface {
	ListWallets(ctx context.Context) ([]models.WalletOwner, error)
}

// UserReconciler is the per-user reconciliation operation the scheduler
// drives.
type UserReconciler interface {
	Reconcile(ctx context.Context, address, userID string) (models.BalanceSnapshot, error)
}

// Scheduler runs a reconciliation cycle over the whole population on a fixed
// interval. The first cycle runs immediately on Start. Stop cancels future
// cycles but lets an in-flight cycle run to completion.
type Scheduler struct {
	rec      UserReconciler
	users    Population
	pool     *worker.Pool
	interval time.Duration
	log      *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(rec UserReconciler, users Population, pool *worker.Pool, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		rec:      rec,
		users:    users,
		pool:     pool,
		interval: interval,
		log:      log,
	}
}

// Start begins monitoring. Calling Start on a running scheduler is a no-op,
// so a running timer is never duplicated.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.log.Info("starting balance monitoring", "interval", s.interval)
	go s.run(ctx, s.done)
}

// Stop cancels cycle scheduling and waits for the in-flight cycle, if any,
// to finish. Safe to call on a stopped scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info("balance monitoring stopped")
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.cycle(ctx)
		}
	}
}

// cycle reconciles every wallet in the population once. Per-user failures
// are logged and isolated; they never abort the cycle for the remaining
// users. The cycle runs on a detached context so that Stop does not abort
// reconciliations already in flight.
func (s *Scheduler) cycle(ctx context.Context) {
	cycleCtx := context.WithoutCancel(ctx)

	owners, err := s.users.ListWallets(cycleCtx)
	if err != nil {
		s.log.Error("list wallets", "err", err)
		return
	}
	s.log.Debug("monitoring users", "count", len(owners))

	var wg sync.WaitGroup
	for _, o := range owners {
		o := o // per-iteration copy: go directive < 1.22 shares the loop variable
		if o.WalletAddress == "" {
			continue
		}
		wg.Add(1)
		s.pool.Submit(func() {
			defer wg.Done()
			if _, err := s.rec.Reconcile(cycleCtx, o.WalletAddress, o.UserID); err != nil {
				s.log.Error("reconcile", "user", o.UserID, "address", o.WalletAddress, "err", err)
			}
		})
	}
	wg.Wait()

	metrics.ReconcileCycles.Inc()
}
