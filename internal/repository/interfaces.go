package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/solvault/solvault-backend/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

type Users interface {
	Create(ctx context.Context, email, passwordHash string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	// AssignWallet binds a generated wallet to the user. An address is
	// assigned at most once for the lifetime of the account.
	AssignWallet(ctx context.Context, id, address, secret string) error
	// ListWallets returns every user that has a wallet address assigned.
	ListWallets(ctx context.Context) ([]models.WalletOwner, error)
}

type Ledger interface {
	Get(ctx context.Context, userID string) (models.WalletBalance, error)
	CreateZero(ctx context.Context, userID string) error
	// UpdateBalances overwrites both asset balances for the user.
	UpdateBalances(ctx context.Context, userID string, sol, usdt decimal.Decimal) (models.WalletBalance, error)
	// ApplySwap adjusts both balances atomically by the given deltas.
	// Returns ErrNotFound when the record is missing or either balance
	// would go negative, so a concurrent spend cannot overdraw.
	ApplySwap(ctx context.Context, userID string, solDelta, usdtDelta decimal.Decimal) (models.WalletBalance, error)
}

type Deposits interface {
	Append(ctx context.Context, d models.DepositTransaction) (models.DepositTransaction, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.DepositTransaction, error)
}

type Trades interface {
	Create(ctx context.Context, t models.Trade) (models.Trade, error)
	GetByID(ctx context.Context, id string) (models.Trade, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Trade, error)
}
