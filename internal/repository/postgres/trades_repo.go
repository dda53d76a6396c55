package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/solvault/solvault-backend/internal/models"
	repo "github.com/solvault/solvault-backend/internal/repository"
)

type tradesRepo struct{ pool *pgxpool.Pool }

func (r *tradesRepo) Create(ctx context.Context, t models.Trade) (models.Trade, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO trades
		   (id, user_id, wallet_address, kind, sol_amount, usdt_amount, price,
		    previous_sol, previous_usdt, new_sol, new_usdt, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 RETURNING created_at`,
		t.ID, t.UserID, t.WalletAddress, t.Kind, t.SOLAmount, t.USDTAmount, t.Price,
		t.PreviousSOL, t.PreviousUSDT, t.NewSOL, t.NewUSDT, t.Status,
	).Scan(&t.CreatedAt)
	return t, err
}

func (r *tradesRepo) GetByID(ctx context.Context, id string) (models.Trade, error) {
	var t models.Trade
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, wallet_address, kind, sol_amount, usdt_amount, price,
		        previous_sol, previous_usdt, new_sol, new_usdt, status, created_at
		   FROM trades
		  WHERE id=$1`,
		id,
	).Scan(&t.ID, &t.UserID, &t.WalletAddress, &t.Kind, &t.SOLAmount, &t.USDTAmount, &t.Price,
		&t.PreviousSOL, &t.PreviousUSDT, &t.NewSOL, &t.NewUSDT, &t.Status, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Trade{}, repo.ErrNotFound
	}
	return t, err
}

func (r *tradesRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Trade, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, wallet_address, kind, sol_amount, usdt_amount, price,
		        previous_sol, previous_usdt, new_sol, new_usdt, status, created_at
		   FROM trades
		  WHERE user_id=$1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Trade
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(&t.ID, &t.UserID, &t.WalletAddress, &t.Kind, &t.SOLAmount, &t.USDTAmount,
			&t.Price, &t.PreviousSOL, &t.PreviousUSDT, &t.NewSOL, &t.NewUSDT, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
