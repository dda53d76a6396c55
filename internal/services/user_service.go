package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/solvault/solvault-backend/internal/auth"
	"github.com/solvault/solvault-backend/internal/models"
	repo "github.com/solvault/solvault-backend/internal/repository"
	"github.com/solvault/solvault-backend/internal/wallet"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserService struct {
	users  repo.Users
	ledger repo.Ledger
	tm     *auth.TokenManager
	log    *slog.Logger
}

func NewUserService(users repo.Users, ledger repo.Ledger, tm *auth.TokenManager, log *slog.Logger) *UserService {
	return &UserService{users: users, ledger: ledger, tm: tm, log: log}
}

func (s *UserService) Register(ctx context.Context, email, password string) (models.User, error) {
	u := models.User{Email: strings.TrimSpace(email)}
	if err := u.Validate(); err != nil {
		return models.User{}, err
	}
	if len(password) < 8 {
		return models.User{}, errors.New("password too short")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	return s.users.Create(ctx, u.Email, hash)
}

type LoginResult struct {
	Token          string               `json:"token"`
	TokenExpiresAt time.Time            `json:"token_expires_at"`
	User           models.User          `json:"user"`
	Balances       models.WalletBalance `json:"balances"`
}

// Login verifies the password and issues a session token. On first login the
// user also receives a generated deposit wallet and a zero ledger record;
// the address is bound to the account for its lifetime.
func (s *UserService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(password, u.PasswordHash); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if u.WalletAddress == "" {
		kp, err := wallet.Generate()
		if err != nil {
			return LoginResult{}, err
		}
		if err := s.users.AssignWallet(ctx, u.ID, kp.Address, kp.Secret); err != nil {
			return LoginResult{}, err
		}
		u.WalletAddress = kp.Address
		s.log.Info("wallet assigned", "user", u.ID, "address", kp.Address)
	}
	if err := s.ledger.CreateZero(ctx, u.ID); err != nil {
		return LoginResult{}, err
	}

	token, exp, err := s.tm.Generate(u.ID, u.Email)
	if err != nil {
		return LoginResult{}, err
	}
	bal, err := s.ledger.Get(ctx, u.ID)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Token: token, TokenExpiresAt: exp, User: u, Balances: bal}, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (models.User, error) {
	return s.users.GetByID(ctx, id)
}

type ProfileView struct {
	Email         string               `json:"email"`
	WalletAddress string               `json:"wallet_address,omitempty"`
	Balances      models.WalletBalance `json:"balances"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// Profile returns the account view shown after login: identity, deposit
// address and current ledger balances. A missing ledger record reads as
// zero balances rather than an error.
func (s *UserService) Profile(ctx context.Context, id string) (ProfileView, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return ProfileView{}, err
	}
	bal, err := s.ledger.Get(ctx, id)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return ProfileView{}, err
	}
	return ProfileView{
		Email:         u.Email,
		WalletAddress: u.WalletAddress,
		Balances:      bal,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}, nil
}
