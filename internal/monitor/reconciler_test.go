package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/solvault/solvault-backend/internal/models"
	repo "github.com/solvault/solvault-backend/internal/repository"
)

type fakeOracle struct {
	mu    sync.Mutex
	snap  models.BalanceSnapshot
	err   error
	delay time.Duration
	calls int
}

func (f *fakeOracle) GetBalances(ctx context.Context, address string) (models.BalanceSnapshot, error) {
	f.mu.Lock()
	f.calls++
	snap, err, delay := f.snap, f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return models.BalanceSnapshot{}, err
	}
	return snap, nil
}

type fakeLedger struct {
	mu         sync.Mutex
	records    map[string]models.WalletBalance
	failUpdate bool
	updates    int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[string]models.WalletBalance)}
}

func (f *fakeLedger) Get(ctx context.Context, userID string) (models.WalletBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.records[userID]
	if !ok {
		return models.WalletBalance{}, repo.ErrNotFound
	}
	return b, nil
}

func (f *fakeLedger) CreateZero(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[userID]; !ok {
		f.records[userID] = models.WalletBalance{UserID: userID, SOL: decimal.Zero, USDT: decimal.Zero}
	}
	return nil
}

func (f *fakeLedger) UpdateBalances(ctx context.Context, userID string, sol, usdt decimal.Decimal) (models.WalletBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate {
		return models.WalletBalance{}, errors.New("db down")
	}
	b, ok := f.records[userID]
	if !ok {
		return models.WalletBalance{}, repo.ErrNotFound
	}
	b.SOL = sol
	b.USDT = usdt
	f.records[userID] = b
	f.updates++
	return b, nil
}

func (f *fakeLedger) ApplySwap(ctx context.Context, userID string, solDelta, usdtDelta decimal.Decimal) (models.WalletBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.records[userID]
	if !ok {
		return models.WalletBalance{}, repo.ErrNotFound
	}
	sol, usdt := b.SOL.Add(solDelta), b.USDT.Add(usdtDelta)
	if sol.IsNegative() || usdt.IsNegative() {
		return models.WalletBalance{}, repo.ErrNotFound
	}
	b.SOL, b.USDT = sol, usdt
	f.records[userID] = b
	return b, nil
}

type fakeDeposits struct {
	mu         sync.Mutex
	entries    []models.DepositTransaction
	failAppend bool
}

func (f *fakeDeposits) Append(ctx context.Context, d models.DepositTransaction) (models.DepositTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAppend {
		return models.DepositTransaction{}, errors.New("db down")
	}
	f.entries = append(f.entries, d)
	return d, nil
}

func (f *fakeDeposits) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.DepositTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func snap(sol, usdt string) models.BalanceSnapshot {
	return models.BalanceSnapshot{SOL: dec(sol), USDT: dec(usdt)}
}

const (
	addr = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	uid  = "6a7bca72-9a2f-4c83-9f04-2a1b4f6a0c55"
)

func newTestReconciler(oracle *fakeOracle, ledger *fakeLedger, deposits *fakeDeposits) (*Reconciler, *Cache) {
	cache := NewCache()
	return NewReconciler(oracle, ledger, deposits, cache, testLogger()), cache
}

func TestReconcileCreditsIncrease(t *testing.T) {
	oracle := &fakeOracle{snap: snap("5", "0")}
	ledger := newFakeLedger()
	ledger.records[uid] = models.WalletBalance{UserID: uid, SOL: dec("10"), USDT: dec("0")}
	deposits := &fakeDeposits{}
	rec, cache := newTestReconciler(oracle, ledger, deposits)
	cache.Set(addr, snap("2", "0"))

	got, err := rec.Reconcile(context.Background(), addr, uid)
	require.NoError(t, err)
	require.True(t, got.SOL.Equal(dec("5")))

	require.True(t, ledger.records[uid].SOL.Equal(dec("13")))
	require.Len(t, deposits.entries, 1)
	entry := deposits.entries[0]
	require.True(t, entry.Amount.Equal(dec("3")))
	require.True(t, entry.PreviousBalance.Equal(dec("10")))
	require.True(t, entry.NewBalance.Equal(dec("13")))
	require.Equal(t, models.DepositKindSOL, entry.Kind)
	require.Equal(t, models.DepositCompleted, entry.Status)
	require.True(t, cache.Get(addr).SOL.Equal(dec("5")))
}

func TestReconcileNoChangeWritesNothing(t *testing.T) {
	oracle := &fakeOracle{snap: snap("5", "1")}
	ledger := newFakeLedger()
	ledger.records[uid] = models.WalletBalance{UserID: uid, SOL: dec("10")}
	deposits := &fakeDeposits{}
	rec, cache := newTestReconciler(oracle, ledger, deposits)
	cache.Set(addr, snap("5", "1"))

	_, err := rec.Reconcile(context.Background(), addr, uid)
	require.NoError(t, err)
	require.Zero(t, ledger.updates)
	require.Empty(t, deposits.entries)
}

func TestReconcileDecreaseAdvancesCacheWithoutCredit(t *testing.T) {
	oracle := &fakeOracle{snap: snap("3", "0")}
	ledger := newFakeLedger()
	ledger.records[uid] = models.WalletBalance{UserID: uid, SOL: dec("10")}
	deposits := &fakeDeposits{}
	rec, cache := newTestReconciler(oracle, ledger, deposits)
	cache.Set(addr, snap("5", "0"))

	_, err := rec.Reconcile(context.Background(), addr, uid)
	require.NoError(t, err)
	require.Zero(t, ledger.updates)
	require.Empty(t, deposits.entries)
	require.True(t, cache.Get(addr).SOL.Equal(dec("3")))
}

func TestReconcileFirstObservationCreditsFullBalance(t *testing.T) {
	oracle := &fakeOracle{snap: snap("4", "0")}
	ledger := newFakeLedger()
	require.NoError(t, ledger.CreateZero(context.Background(), uid))
	deposits := &fakeDeposits{}
	rec, _ := newTestReconciler(oracle, ledger, deposits)

	_, err := rec.Reconcile(context.Background(), addr, uid)
	require.NoError(t, err)
	require.True(t, ledger.records[uid].SOL.Equal(dec("4")))
	require.Len(t, deposits.entries, 1)
	require.True(t, deposits.entries[0].Amount.Equal(dec("4")))
}

func TestReconcileOracleFailure(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("rpc timeout")}
	ledger := newFakeLedger()
	deposits := &fakeDeposits{}
	rec, cache := newTestReconciler(oracle, ledger, deposits)
	cache.Set(addr, snap("2", "0"))

	_, err := rec.Reconcile(context.Background(), addr, uid)
	require.ErrorIs(t, err, ErrOracleUnavailable)
	require.True(t, cache.Get(addr).SOL.Equal(dec("2")))
	require.Zero(t, ledger.updates)
}

func TestReconcileUserNotFoundStillAdvancesCache(t *testing.T) {
	oracle := &fakeOracle{snap: snap("5", "0")}
	ledger := newFakeLedger() // no record for uid
	deposits := &fakeDeposits{}
	rec, cache := newTestReconciler(oracle, ledger, deposits)

	_, err := rec.Reconcile(context.Background(), addr, uid)
	require.ErrorIs(t, err, ErrUserNotFound)
	require.Empty(t, deposits.entries)
	require.True(t, cache.Get(addr).SOL.Equal(dec("5")))
}

func TestReconcileLedgerWriteFailureKeepsDelta(t *testing.T) {
	oracle := &fakeOracle{snap: snap("5", "0")}
	ledger := newFakeLedger()
	ledger.records[uid] = models.WalletBalance{UserID: uid, SOL: dec("10")}
	ledger.failUpdate = true
	deposits := &fakeDeposits{}
	rec, cache := newTestReconciler(oracle, ledger, deposits)
	cache.Set(addr, snap("2", "0"))

	_, err := rec.Reconcile(context.Background(), addr, uid)
	require.ErrorIs(t, err, ErrLedgerWrite)
	require.Empty(t, deposits.entries)
	// cache must not advance past the unapplied delta
	require.True(t, cache.Get(addr).SOL.Equal(dec("2")))

	// next cycle with the same external value retries the same delta
	ledger.failUpdate = false
	_, err = rec.Reconcile(context.Background(), addr, uid)
	require.NoError(t, err)
	require.True(t, ledger.records[uid].SOL.Equal(dec("13")))
	require.Len(t, deposits.entries, 1)
	require.True(t, deposits.entries[0].Amount.Equal(dec("3")))
}

func TestReconcileAuditFailureAdvancesCache(t *testing.T) {
	oracle := &fakeOracle{snap: snap("5", "0")}
	ledger := newFakeLedger()
	ledger.records[uid] = models.WalletBalance{UserID: uid, SOL: dec("10")}
	deposits := &fakeDeposits{failAppend: true}
	rec, cache := newTestReconciler(oracle, ledger, deposits)
	cache.Set(addr, snap("2", "0"))

	_, err := rec.Reconcile(context.Background(), addr, uid)
	require.ErrorIs(t, err, ErrLedgerWrite)
	// the balance update committed, so a retry must not double-credit
	require.True(t, ledger.records[uid].SOL.Equal(dec("13")))
	require.True(t, cache.Get(addr).SOL.Equal(dec("5")))

	deposits.failAppend = false
	_, err = rec.Reconcile(context.Background(), addr, uid)
	require.NoError(t, err)
	require.True(t, ledger.records[uid].SOL.Equal(dec("13")))
}

func TestReconcileInvalidAddress(t *testing.T) {
	oracle := &fakeOracle{snap: snap("5", "0")}
	rec, _ := newTestReconciler(oracle, newFakeLedger(), &fakeDeposits{})

	_, err := rec.Reconcile(context.Background(), "  ", uid)
	require.ErrorIs(t, err, ErrInvalidAddress)
	require.Zero(t, oracle.calls)
}

func TestReconcileConcurrentSameAddressCreditsOnce(t *testing.T) {
	// A slow oracle widens the read-credit window; without per-address
	// serialization both calls would observe the stale snapshot and each
	// credit the same 3 SOL delta.
	oracle := &fakeOracle{snap: snap("5", "0"), delay: 20 * time.Millisecond}
	ledger := newFakeLedger()
	ledger.records[uid] = models.WalletBalance{UserID: uid, SOL: dec("10")}
	deposits := &fakeDeposits{}
	rec, cache := newTestReconciler(oracle, ledger, deposits)
	cache.Set(addr, snap("2", "0"))

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rec.Reconcile(context.Background(), addr, uid)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// one credit, not two: the second call runs after the first advanced
	// the snapshot and sees no delta
	require.Len(t, deposits.entries, 1)
	require.True(t, deposits.entries[0].Amount.Equal(dec("3")))
	require.True(t, ledger.records[uid].SOL.Equal(dec("13")))
	require.Equal(t, 1, ledger.updates)
	require.Equal(t, 2, oracle.calls)
	require.True(t, cache.Get(addr).SOL.Equal(dec("5")))
}

func TestReconcileReplayIsIdempotent(t *testing.T) {
	sequence := []models.BalanceSnapshot{
		snap("1", "0"), snap("3", "0"), snap("3", "0"), snap("2", "0"), snap("6", "0"),
	}

	run := func() []decimal.Decimal {
		oracle := &fakeOracle{}
		ledger := newFakeLedger()
		require.NoError(t, ledger.CreateZero(context.Background(), uid))
		deposits := &fakeDeposits{}
		rec, _ := newTestReconciler(oracle, ledger, deposits)

		for _, s := range sequence {
			oracle.snap = s
			_, err := rec.Reconcile(context.Background(), addr, uid)
			require.NoError(t, err)
		}
		amounts := make([]decimal.Decimal, 0, len(deposits.entries))
		for _, e := range deposits.entries {
			amounts = append(amounts, e.Amount)
		}
		return amounts
	}

	first := run()
	second := run()
	require.Equal(t, len(first), len(second))
	for i := range first {
		require.True(t, first[i].Equal(second[i]))
	}
	// credits are 1, 2 and 4: only increases, never the dip
	require.Len(t, first, 3)
	require.True(t, first[0].Equal(dec("1")))
	require.True(t, first[1].Equal(dec("2")))
	require.True(t, first[2].Equal(dec("4")))
}
