package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/solvault/solvault-backend/internal/models"
)

type depositsRepo struct{ pool *pgxpool.Pool }

func (r *depositsRepo) Append(ctx context.Context, d models.DepositTransaction) (models.DepositTransaction, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO deposit_transactions
		   (id, user_id, wallet_address, kind, amount, previous_balance, new_balance, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING created_at`,
		d.ID, d.UserID, d.WalletAddress, d.Kind, d.Amount, d.PreviousBalance, d.NewBalance, d.Status,
	).Scan(&d.CreatedAt)
	return d, err
}

func (r *depositsRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.DepositTransaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, wallet_address, kind, amount, previous_balance, new_balance, status, created_at
		   FROM deposit_transactions
		  WHERE user_id=$1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DepositTransaction
	for rows.Next() {
		var d models.DepositTransaction
		if err := rows.Scan(&d.ID, &d.UserID, &d.WalletAddress, &d.Kind, &d.Amount,
			&d.PreviousBalance, &d.NewBalance, &d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
