package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/solvault/solvault-backend/internal/models"
	"github.com/solvault/solvault-backend/internal/monitor"
	repo "github.com/solvault/solvault-backend/internal/repository"
)

var ErrNoWallet = errors.New("no wallet assigned")

// Reconciler is the on-demand balance-check-and-credit operation.
type Reconciler interface {
	Reconcile(ctx context.Context, address, userID string) (models.BalanceSnapshot, error)
}

type BalanceService struct {
	users    repo.Users
	ledger   repo.Ledger
	deposits repo.Deposits
	rec      Reconciler
	log      *slog.Logger
}

func NewBalanceService(users repo.Users, ledger repo.Ledger, deposits repo.Deposits, rec Reconciler, log *slog.Logger) *BalanceService {
	return &BalanceService{users: users, ledger: ledger, deposits: deposits, rec: rec, log: log}
}

type BalanceView struct {
	WalletAddress string                 `json:"wallet_address"`
	OnChain       models.BalanceSnapshot `json:"on_chain"`
	Ledger        models.WalletBalance   `json:"ledger"`
}

// Current runs a synchronous reconciliation for the caller's wallet and
// returns the fresh on-chain snapshot next to the ledger balances. Oracle or
// ledger failures propagate; stale data is never substituted.
func (s *BalanceService) Current(ctx context.Context, userID string) (BalanceView, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return BalanceView{}, err
	}
	if u.WalletAddress == "" {
		return BalanceView{}, ErrNoWallet
	}

	snap, err := s.rec.Reconcile(ctx, u.WalletAddress, u.ID)
	if err != nil && !errors.Is(err, monitor.ErrUserNotFound) {
		return BalanceView{}, err
	}

	bal, err := s.ledger.Get(ctx, u.ID)
	if err != nil {
		return BalanceView{}, err
	}
	return BalanceView{WalletAddress: u.WalletAddress, OnChain: snap, Ledger: bal}, nil
}

func (s *BalanceService) Deposits(ctx context.Context, userID string, limit, offset int) ([]models.DepositTransaction, error) {
	return s.deposits.ListByUser(ctx, userID, limit, offset)
}
