package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/solvault/solvault-backend/internal/metrics"
	"github.com/solvault/solvault-backend/internal/models"
	repo "github.com/solvault/solvault-backend/internal/repository"
)

// Oracle is the external read-only balance source.
type Oracle interface {
	GetBalances(ctx context.Context, address string) (models.BalanceSnapshot, error)
}

// Reconciler compares the current on-chain snapshot of a wallet against the
// last cached one and credits any SOL increase to the owner's ledger exactly
// once, with an immutable deposit record as the audit trail.
type Reconciler struct {
	oracle   Oracle
	ledger   repo.Ledger
	deposits repo.Deposits
	cache    *Cache
	log      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewReconciler(oracle Oracle, ledger repo.Ledger, deposits repo.Deposits, cache *Cache, log *slog.Logger) *Reconciler {
	return &Reconciler{
		oracle:   oracle,
		ledger:   ledger,
		deposits: deposits,
		cache:    cache,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
	}
}

// addressLock serializes reconciliations per address. Scheduled and
// on-demand runs for the same wallet must not interleave their cache
// read and cache write, or a deposit is credited twice or lost.
func (r *Reconciler) addressLock(address string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[address]
	if !ok {
		l = &sync.Mutex{}
		r.locks[address] = l
	}
	return l
}

// Reconcile fetches the current snapshot for the address, credits a positive
// SOL delta against the cached baseline to the user's ledger, and returns the
// fresh snapshot.
//
// The cache is advanced to the current snapshot on every path except a failed
// ledger balance write: the unapplied delta must stay recomputable on the
// next cycle.
func (r *Reconciler) Reconcile(ctx context.Context, address, userID string) (models.BalanceSnapshot, error) {
	if strings.TrimSpace(address) == "" {
		return models.BalanceSnapshot{}, ErrInvalidAddress
	}

	lock := r.addressLock(address)
	lock.Lock()
	defer lock.Unlock()

	metrics.WalletsChecked.Inc()

	current, err := r.oracle.GetBalances(ctx, address)
	if err != nil {
		metrics.OracleFailures.Inc()
		return models.BalanceSnapshot{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	previous := r.cache.Get(address)
	delta := current.SOL.Sub(previous.SOL)

	if delta.IsPositive() {
		rec, err := r.ledger.Get(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			// No ledger record to credit: skip the deposit but still
			// advance the cache so the baseline tracks the chain.
			r.cache.Set(address, current)
			return current, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		if err != nil {
			metrics.LedgerFailures.Inc()
			return models.BalanceSnapshot{}, fmt.Errorf("%w: read: %v", ErrLedgerWrite, err)
		}

		previousBalance := rec.SOL
		newBalance := previousBalance.Add(delta)
		if _, err := r.ledger.UpdateBalances(ctx, userID, newBalance, rec.USDT); err != nil {
			metrics.LedgerFailures.Inc()
			// Cache stays at the previous snapshot: the next successful
			// cycle recomputes the same delta.
			return models.BalanceSnapshot{}, fmt.Errorf("%w: %v", ErrLedgerWrite, err)
		}

		entry := models.DepositTransaction{
			UserID:          userID,
			WalletAddress:   address,
			Kind:            models.DepositKindSOL,
			Amount:          delta,
			PreviousBalance: previousBalance,
			NewBalance:      newBalance,
			Status:          models.DepositCompleted,
		}
		if _, err := r.deposits.Append(ctx, entry); err != nil {
			metrics.LedgerFailures.Inc()
			// The balance update is already committed, so the cache must
			// advance; re-running would credit the deposit twice.
			r.cache.Set(address, current)
			return current, fmt.Errorf("%w: audit: %v", ErrLedgerWrite, err)
		}

		metrics.DepositsCredited.Inc()
		r.log.Info("deposit credited",
			"user", userID,
			"address", address,
			"amount", delta,
			"previous_balance", previousBalance,
			"new_balance", newBalance,
		)
	}

	r.cache.Set(address, current)
	return current, nil
}
