package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TradeKind string

const (
	TradeKindSellSOL TradeKind = "SOL_SELL"
)

type TradeStatus string

const (
	TradeCompleted TradeStatus = "COMPLETED"
)

// Trade records one in-ledger conversion between the two custodial assets.
// Like deposits, trade rows are immutable once inserted.
type Trade struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	WalletAddress string          `json:"wallet_address"`
	Kind          TradeKind       `json:"kind"`
	SOLAmount     decimal.Decimal `json:"sol_amount"`
	USDTAmount    decimal.Decimal `json:"usdt_amount"`
	Price         decimal.Decimal `json:"price"`
	PreviousSOL   decimal.Decimal `json:"previous_sol"`
	PreviousUSDT  decimal.Decimal `json:"previous_usdt"`
	NewSOL        decimal.Decimal `json:"new_sol"`
	NewUSDT       decimal.Decimal `json:"new_usdt"`
	Status        TradeStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}
