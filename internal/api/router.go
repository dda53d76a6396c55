package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	"github.com/solvault/solvault-backend/internal/api/httpx"
	"github.com/solvault/solvault-backend/internal/api/validate"
	"github.com/solvault/solvault-backend/internal/config"
	"github.com/solvault/solvault-backend/internal/metrics"
	"github.com/solvault/solvault-backend/internal/middleware"
	"github.com/solvault/solvault-backend/internal/monitor"
	"github.com/solvault/solvault-backend/internal/pricefeed"
	repo "github.com/solvault/solvault-backend/internal/repository"
	"github.com/solvault/solvault-backend/internal/services"
)

func NewRouter(cfg config.Config, us *services.UserService, bs *services.BalanceService, ts *services.TradeService, hub *pricefeed.Hub, am *middleware.AuthMiddleware) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	// price feed websocket
	r.Get("/ws/price", hub.HandleWS)

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Post("/auth/register", func(w http.ResponseWriter, r *http.Request) {
			var req struct{ Email, Password string }
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "bad request", nil)
				return
			}
			var verrs validate.Errs
			if ef := validate.Required("email", req.Email); ef != nil {
				verrs = append(verrs, *ef)
			}
			if ef := validate.Required("password", req.Password); ef != nil {
				verrs = append(verrs, *ef)
			}
			if len(verrs) > 0 {
				httpx.WriteError(w, http.StatusBadRequest, "validation_failed", verrs.Error(), verrs)
				return
			}
			u, err := us.Register(r.Context(), req.Email, req.Password)
			if err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "registration_failed", err.Error(), nil)
				return
			}
			httpx.WriteJSON(w, http.StatusCreated, u)
		})

		r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			var req struct{ Email, Password string }
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "bad request", nil)
				return
			}
			res, err := us.Login(r.Context(), req.Email, req.Password)
			if errors.Is(err, services.ErrInvalidCredentials) {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials", nil)
				return
			}
			if err != nil {
				httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "login failed", nil)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, res)
		})

		// ---------- authenticated ----------
		r.Group(func(r chi.Router) {
			r.Use(am.Auth)

			// Tokens are stateless; logout is an acknowledgement so
			// clients can drop the token uniformly.
			r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
				httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
			})

			// on-demand balance check: reconciles before answering
			r.Get("/balances", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				view, err := bs.Current(r.Context(), uid)
				switch {
				case errors.Is(err, services.ErrNoWallet), errors.Is(err, repo.ErrNotFound):
					httpx.WriteError(w, http.StatusNotFound, "not_found", "user not found or no wallet assigned", nil)
				case errors.Is(err, monitor.ErrOracleUnavailable):
					httpx.WriteError(w, http.StatusBadGateway, "oracle_unavailable", "failed to get balances", nil)
				case err != nil:
					httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to get balances", nil)
				default:
					httpx.WriteJSON(w, http.StatusOK, view)
				}
			})

			// deposit history
			r.Get("/transactions", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())

				limit, offset, verrs := pageParams(r)
				if len(verrs) > 0 {
					httpx.WriteError(w, http.StatusBadRequest, "validation_failed", verrs.Error(), verrs)
					return
				}

				txs, err := bs.Deposits(r.Context(), uid, limit, offset)
				if err != nil {
					httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to list transactions", nil)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, txs)
			})

			// account profile
			r.Get("/profile", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())
				p, err := us.Profile(r.Context(), uid)
				if errors.Is(err, repo.ErrNotFound) {
					httpx.WriteError(w, http.StatusNotFound, "not_found", "user not found", nil)
					return
				}
				if err != nil {
					httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to load profile", nil)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, p)
			})

			// ---------- trading ----------
			r.Post("/trade/sell-sol", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())

				var req struct {
					SOLAmount decimal.Decimal `json:"sol_amount"`
					Price     decimal.Decimal `json:"price"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httpx.WriteError(w, http.StatusBadRequest, "bad_request", "bad request", nil)
					return
				}

				t, err := ts.SellSOL(r.Context(), uid, req.SOLAmount, req.Price)
				switch {
				case errors.Is(err, services.ErrInvalidTradeAmount):
					httpx.WriteError(w, http.StatusBadRequest, "invalid_amount", err.Error(), nil)
				case errors.Is(err, services.ErrInsufficientBalance):
					httpx.WriteError(w, http.StatusBadRequest, "insufficient_balance", err.Error(), nil)
				case errors.Is(err, repo.ErrNotFound):
					httpx.WriteError(w, http.StatusNotFound, "not_found", "user not found", nil)
				case err != nil:
					httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "trade failed", nil)
				default:
					httpx.WriteJSON(w, http.StatusCreated, t)
				}
			})

			r.Get("/trade/history", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())

				limit, offset, verrs := pageParams(r)
				if len(verrs) > 0 {
					httpx.WriteError(w, http.StatusBadRequest, "validation_failed", verrs.Error(), verrs)
					return
				}

				trades, err := ts.History(r.Context(), uid, limit, offset)
				if err != nil {
					httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to list trades", nil)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, trades)
			})

			r.Get("/trade/{id}", func(w http.ResponseWriter, r *http.Request) {
				uid, _ := middleware.UserID(r.Context())

				t, err := ts.GetByID(r.Context(), uid, chi.URLParam(r, "id"))
				switch {
				case errors.Is(err, repo.ErrNotFound):
					httpx.WriteError(w, http.StatusNotFound, "not_found", "trade not found", nil)
				case errors.Is(err, services.ErrNotTradeOwner):
					httpx.WriteError(w, http.StatusForbidden, "forbidden", "trade belongs to another user", nil)
				case err != nil:
					httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "failed to load trade", nil)
				default:
					httpx.WriteJSON(w, http.StatusOK, t)
				}
			})
		})
	})

	return r
}

// pageParams reads limit/offset from the query string, defaulting to the
// first 50 records. Malformed or out-of-range values are a client error.
func pageParams(r *http.Request) (limit, offset int, verrs validate.Errs) {
	limit, offset = 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verrs = append(verrs, validate.ErrField{Field: "limit", Msg: "must be an integer"})
		} else if ef := validate.MinInt("limit", int64(n), 1); ef != nil {
			verrs = append(verrs, *ef)
		} else {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verrs = append(verrs, validate.ErrField{Field: "offset", Msg: "must be an integer"})
		} else if ef := validate.MinInt("offset", int64(n), 0); ef != nil {
			verrs = append(verrs, *ef)
		} else {
			offset = n
		}
	}
	return limit, offset, verrs
}
