package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DepositKind string

const (
	DepositKindSOL DepositKind = "SOL_DEPOSIT"
)

type DepositStatus string

const (
	DepositCompleted DepositStatus = "COMPLETED"
)

// DepositTransaction is the append-only audit record written for every
// credited deposit. Rows are immutable once inserted.
type DepositTransaction struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	WalletAddress   string          `json:"wallet_address"`
	Kind            DepositKind     `json:"kind"`
	Amount          decimal.Decimal `json:"amount"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	NewBalance      decimal.Decimal `json:"new_balance"`
	Status          DepositStatus   `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}
