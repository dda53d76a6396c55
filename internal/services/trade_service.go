package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/solvault/solvault-backend/internal/metrics"
	"github.com/solvault/solvault-backend/internal/models"
	repo "github.com/solvault/solvault-backend/internal/repository"
)

var (
	ErrInvalidTradeAmount  = errors.New("amount and price must be positive")
	ErrInsufficientBalance = errors.New("insufficient SOL balance")
	ErrNotTradeOwner       = errors.New("trade belongs to another user")
)

// TradeService converts custodial SOL into USDT inside the ledger at a
// caller-supplied quote. No on-chain transfer happens; the wallet keeps
// holding the SOL and only the ledger bookkeeping moves.
type TradeService struct {
	users  repo.Users
	ledger repo.Ledger
	trades repo.Trades
	log    *slog.Logger
}

func NewTradeService(users repo.Users, ledger repo.Ledger, trades repo.Trades, log *slog.Logger) *TradeService {
	return &TradeService{users: users, ledger: ledger, trades: trades, log: log}
}

// SellSOL debits solAmount of SOL, credits solAmount*price of USDT and
// records the conversion. The debit and credit land in one ledger write, so
// two concurrent sells cannot both spend the same SOL.
func (s *TradeService) SellSOL(ctx context.Context, userID string, solAmount, price decimal.Decimal) (models.Trade, error) {
	if !solAmount.IsPositive() || !price.IsPositive() {
		return models.Trade{}, ErrInvalidTradeAmount
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.Trade{}, err
	}
	prev, err := s.ledger.Get(ctx, userID)
	if err != nil {
		return models.Trade{}, err
	}
	if prev.SOL.LessThan(solAmount) {
		return models.Trade{}, ErrInsufficientBalance
	}

	usdtAmount := solAmount.Mul(price)
	next, err := s.ledger.ApplySwap(ctx, userID, solAmount.Neg(), usdtAmount)
	if errors.Is(err, repo.ErrNotFound) {
		// A concurrent spend drained the balance between the read and
		// the swap. Nothing was debited.
		return models.Trade{}, ErrInsufficientBalance
	}
	if err != nil {
		return models.Trade{}, fmt.Errorf("apply swap: %w", err)
	}

	t, err := s.trades.Create(ctx, models.Trade{
		UserID:        userID,
		WalletAddress: u.WalletAddress,
		Kind:          models.TradeKindSellSOL,
		SOLAmount:     solAmount,
		USDTAmount:    usdtAmount,
		Price:         price,
		PreviousSOL:   prev.SOL,
		PreviousUSDT:  prev.USDT,
		NewSOL:        next.SOL,
		NewUSDT:       next.USDT,
		Status:        models.TradeCompleted,
	})
	if err != nil {
		// The balances already moved; surface the record failure instead
		// of hiding a conversion that took effect.
		return models.Trade{}, fmt.Errorf("record trade: %w", err)
	}

	metrics.TradesExecuted.Inc()
	s.log.Info("trade executed",
		"user", userID, "sol", solAmount.String(), "usdt", usdtAmount.String(), "price", price.String())
	return t, nil
}

func (s *TradeService) History(ctx context.Context, userID string, limit, offset int) ([]models.Trade, error) {
	return s.trades.ListByUser(ctx, userID, limit, offset)
}

// GetByID returns a single trade, refusing to expose another user's record.
func (s *TradeService) GetByID(ctx context.Context, userID, tradeID string) (models.Trade, error) {
	t, err := s.trades.GetByID(ctx, tradeID)
	if err != nil {
		return models.Trade{}, err
	}
	if t.UserID != userID {
		return models.Trade{}, ErrNotTradeOwner
	}
	return t, nil
}
