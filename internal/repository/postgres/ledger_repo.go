package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/solvault/solvault-backend/internal/models"
	repo "github.com/solvault/solvault-backend/internal/repository"
)

type ledgerRepo struct{ pool *pgxpool.Pool }

func (r *ledgerRepo) Get(ctx context.Context, userID string) (models.WalletBalance, error) {
	var b models.WalletBalance
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, sol, usdt, last_updated_at
		   FROM wallet_balances
		  WHERE user_id=$1`,
		userID,
	).Scan(&b.UserID, &b.SOL, &b.USDT, &b.LastUpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.WalletBalance{}, repo.ErrNotFound
	}
	return b, err
}

func (r *ledgerRepo) ApplySwap(ctx context.Context, userID string, solDelta, usdtDelta decimal.Decimal) (models.WalletBalance, error) {
	var b models.WalletBalance
	// Deltas are applied in one statement so two concurrent spends cannot
	// both read the same starting balance. The guard predicate makes an
	// overdrawing update match zero rows instead of tripping the CHECK.
	err := r.pool.QueryRow(ctx,
		`UPDATE wallet_balances
		    SET sol = sol + $2,
		        usdt = usdt + $3,
		        last_updated_at = now()
		  WHERE user_id = $1 AND sol + $2 >= 0 AND usdt + $3 >= 0
		  RETURNING user_id, sol, usdt, last_updated_at`,
		userID, solDelta, usdtDelta,
	).Scan(&b.UserID, &b.SOL, &b.USDT, &b.LastUpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.WalletBalance{}, repo.ErrNotFound
	}
	return b, err
}

func (r *ledgerRepo) CreateZero(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wallet_balances(user_id, sol, usdt, last_updated_at)
		 VALUES($1, 0, 0, now())
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	return err
}

func (r *ledgerRepo) UpdateBalances(ctx context.Context, userID string, sol, usdt decimal.Decimal) (models.WalletBalance, error) {
	var b models.WalletBalance
	err := r.pool.QueryRow(ctx,
		`UPDATE wallet_balances
		    SET sol = $2,
		        usdt = $3,
		        last_updated_at = now()
		  WHERE user_id = $1
		  RETURNING user_id, sol, usdt, last_updated_at`,
		userID, sol, usdt,
	).Scan(&b.UserID, &b.SOL, &b.USDT, &b.LastUpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.WalletBalance{}, repo.ErrNotFound
	}
	return b, err
}
