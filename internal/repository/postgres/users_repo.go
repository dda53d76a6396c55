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

type usersRepo struct{ pool *pgxpool.Pool }

func (r *usersRepo) Create(ctx context.Context, email, passwordHash string) (models.User, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users(id, email, password_hash) VALUES($1,$2,$3)`,
		id, email, passwordHash,
	)
	if err != nil {
		return models.User{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	return r.get(ctx, `WHERE id=$1`, id)
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return r.get(ctx, `WHERE email=$1`, email)
}

func (r *usersRepo) get(ctx context.Context, where string, arg any) (models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, wallet_address, wallet_secret, created_at, updated_at
		   FROM users `+where, arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.WalletAddress, &u.WalletSecret, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, repo.ErrNotFound
	}
	return u, err
}

func (r *usersRepo) AssignWallet(ctx context.Context, id, address, secret string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET wallet_address=$2, wallet_secret=$3, updated_at=now()
		  WHERE id=$1 AND wallet_address=''`,
		id, address, secret,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("wallet already assigned")
	}
	return nil
}

func (r *usersRepo) ListWallets(ctx context.Context) ([]models.WalletOwner, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, wallet_address FROM users WHERE wallet_address <> ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WalletOwner
	for rows.Next() {
		var o models.WalletOwner
		if err := rows.Scan(&o.UserID, &o.Email, &o.WalletAddress); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
