package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	repo "github.com/solvault/solvault-backend/internal/repository"
)

type Repositories struct {
	Users    repo.Users
	Ledger   repo.Ledger
	Deposits repo.Deposits
	Trades   repo.Trades
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:    &usersRepo{pool},
		Ledger:   &ledgerRepo{pool},
		Deposits: &depositsRepo{pool},
		Trades:   &tradesRepo{pool},
	}
}
