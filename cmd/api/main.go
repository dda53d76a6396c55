package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adshao/go-binance/v2"

	"github.com/solvault/solvault-backend/internal/api"
	"github.com/solvault/solvault-backend/internal/auth"
	"github.com/solvault/solvault-backend/internal/config"
	"github.com/solvault/solvault-backend/internal/db"
	"github.com/solvault/solvault-backend/internal/logger"
	"github.com/solvault/solvault-backend/internal/metrics"
	"github.com/solvault/solvault-backend/internal/middleware"
	"github.com/solvault/solvault-backend/internal/monitor"
	"github.com/solvault/solvault-backend/internal/pricefeed"
	"github.com/solvault/solvault-backend/internal/repository/postgres"
	"github.com/solvault/solvault-backend/internal/services"
	"github.com/solvault/solvault-backend/internal/solana"
	"github.com/solvault/solvault-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	metrics.Init()

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	// balance reconciliation
	oracle := solana.NewClient(cfg.SolanaRPCURL, cfg.USDTMint)
	cache := monitor.NewCache()
	reconciler := monitor.NewReconciler(oracle, repos.Ledger, repos.Deposits, cache, log)
	scheduler := monitor.NewScheduler(reconciler, repos.Users, wp, cfg.BalancePollInterval, log)

	// price feed
	hub := pricefeed.NewHub(log)
	priceSource := pricefeed.NewBinanceSource(binance.NewClient("", ""))
	priceMonitor := pricefeed.NewMonitor(priceSource, hub, cfg.PricePollInterval, log)

	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, 24*time.Hour)
	userSvc := services.NewUserService(repos.Users, repos.Ledger, tm, log)
	balanceSvc := services.NewBalanceService(repos.Users, repos.Ledger, repos.Deposits, reconciler, log)
	tradeSvc := services.NewTradeService(repos.Users, repos.Ledger, repos.Trades, log)

	am := middleware.NewAuthMiddleware(tm)
	r := api.NewRouter(cfg, userSvc, balanceSvc, tradeSvc, hub, am)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	scheduler.Start()
	priceMonitor.Start()

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")

	scheduler.Stop()
	priceMonitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
