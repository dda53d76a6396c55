package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSnapshot is a point-in-time read of on-chain balances for one
// wallet address. A fresh value is produced on every poll; snapshots are
// never mutated after creation.
type BalanceSnapshot struct {
	SOL  decimal.Decimal `json:"sol"`
	USDT decimal.Decimal `json:"usdt"`
}

// ZeroSnapshot is the baseline used for an address that has never been
// observed before.
func ZeroSnapshot() BalanceSnapshot {
	return BalanceSnapshot{SOL: decimal.Zero, USDT: decimal.Zero}
}

// WalletBalance is the durable per-user ledger record.
type WalletBalance struct {
	UserID        string          `json:"user_id"`
	SOL           decimal.Decimal `json:"sol"`
	USDT          decimal.Decimal `json:"usdt"`
	LastUpdatedAt time.Time       `json:"last_updated_at"`
}
