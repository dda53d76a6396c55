package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/solvault/solvault-backend/internal/models"
	"github.com/solvault/solvault-backend/internal/monitor"
	repo "github.com/solvault/solvault-backend/internal/repository"
)

type fakeUsers struct {
	byID map[string]models.User
}

func (f *fakeUsers) Create(ctx context.Context, email, hash string) (models.User, error) {
	return models.User{}, errors.New("not implemented")
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return models.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return models.User{}, repo.ErrNotFound
}

func (f *fakeUsers) AssignWallet(ctx context.Context, id, address, secret string) error {
	return nil
}

func (f *fakeUsers) ListWallets(ctx context.Context) ([]models.WalletOwner, error) {
	return nil, nil
}

type fakeLedger struct {
	balances map[string]models.WalletBalance
}

func (f *fakeLedger) Get(ctx context.Context, userID string) (models.WalletBalance, error) {
	b, ok := f.balances[userID]
	if !ok {
		return models.WalletBalance{}, repo.ErrNotFound
	}
	return b, nil
}

func (f *fakeLedger) CreateZero(ctx context.Context, userID string) error { return nil }

func (f *fakeLedger) UpdateBalances(ctx context.Context, userID string, sol, usdt decimal.Decimal) (models.WalletBalance, error) {
	return models.WalletBalance{}, errors.New("not implemented")
}

func (f *fakeLedger) ApplySwap(ctx context.Context, userID string, solDelta, usdtDelta decimal.Decimal) (models.WalletBalance, error) {
	b, ok := f.balances[userID]
	if !ok {
		return models.WalletBalance{}, repo.ErrNotFound
	}
	sol, usdt := b.SOL.Add(solDelta), b.USDT.Add(usdtDelta)
	if sol.IsNegative() || usdt.IsNegative() {
		return models.WalletBalance{}, repo.ErrNotFound
	}
	b.SOL, b.USDT = sol, usdt
	f.balances[userID] = b
	return b, nil
}

type fakeDeposits struct{ entries []models.DepositTransaction }

func (f *fakeDeposits) Append(ctx context.Context, d models.DepositTransaction) (models.DepositTransaction, error) {
	return d, nil
}

func (f *fakeDeposits) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.DepositTransaction, error) {
	return f.entries, nil
}

type fakeReconciler struct {
	snap  models.BalanceSnapshot
	err   error
	calls int
}

func (f *fakeReconciler) Reconcile(ctx context.Context, address, userID string) (models.BalanceSnapshot, error) {
	f.calls++
	return f.snap, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCurrentReconcilesBeforeAnswering(t *testing.T) {
	users := &fakeUsers{byID: map[string]models.User{
		"u1": {ID: "u1", WalletAddress: "addr1"},
	}}
	ledger := &fakeLedger{balances: map[string]models.WalletBalance{
		"u1": {UserID: "u1", SOL: decimal.NewFromInt(13)},
	}}
	rec := &fakeReconciler{snap: models.BalanceSnapshot{SOL: decimal.NewFromInt(5)}}

	svc := NewBalanceService(users, ledger, &fakeDeposits{}, rec, testLogger())
	view, err := svc.Current(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 1, rec.calls)
	require.Equal(t, "addr1", view.WalletAddress)
	require.True(t, view.OnChain.SOL.Equal(decimal.NewFromInt(5)))
	require.True(t, view.Ledger.SOL.Equal(decimal.NewFromInt(13)))
}

func TestCurrentWithoutWallet(t *testing.T) {
	users := &fakeUsers{byID: map[string]models.User{"u1": {ID: "u1"}}}
	svc := NewBalanceService(users, &fakeLedger{}, &fakeDeposits{}, &fakeReconciler{}, testLogger())

	_, err := svc.Current(context.Background(), "u1")
	require.ErrorIs(t, err, ErrNoWallet)
}

func TestCurrentPropagatesOracleFailure(t *testing.T) {
	users := &fakeUsers{byID: map[string]models.User{
		"u1": {ID: "u1", WalletAddress: "addr1"},
	}}
	rec := &fakeReconciler{err: monitor.ErrOracleUnavailable}
	svc := NewBalanceService(users, &fakeLedger{}, &fakeDeposits{}, rec, testLogger())

	_, err := svc.Current(context.Background(), "u1")
	require.ErrorIs(t, err, monitor.ErrOracleUnavailable)
}

func TestCurrentUnknownUser(t *testing.T) {
	svc := NewBalanceService(&fakeUsers{byID: map[string]models.User{}}, &fakeLedger{}, &fakeDeposits{}, &fakeReconciler{}, testLogger())

	_, err := svc.Current(context.Background(), "missing")
	require.ErrorIs(t, err, repo.ErrNotFound)
}
