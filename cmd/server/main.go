package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itfy/evoting-backend/internal/application/services"
	"github.com/itfy/evoting-backend/internal/config"
	"github.com/itfy/evoting-backend/internal/infrastructure/paystack"
	"github.com/itfy/evoting-backend/internal/infrastructure/persistence/postgres"
	"github.com/itfy/evoting-backend/internal/infrastructure/voting"
	"github.com/itfy/evoting-backend/internal/interfaces/rest/handlers"
	"github.com/itfy/evoting-backend/internal/interfaces/rest/middleware"
	"github.com/itfy/evoting-backend/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting voting payment service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	paymentRepo := postgres.NewPaymentRepository(db)
	bundleRepo := postgres.NewBundleRepository(db)
	couponRepo := postgres.NewCouponRepository(db)
	voteRepo := postgres.NewVoteRepository(db)
	eventRepo := postgres.NewEventRepository(db)

	gateway := paystack.NewClient(cfg.Gateway)
	caster := voting.NewCaster(voteRepo, eventRepo, logger)

	pricing := services.NewPricingCalculator(bundleRepo)
	discounts := services.NewDiscountEngine(couponRepo, logger)
	fraud := services.NewFraudChecker(paymentRepo, cfg.Payments.FraudWindow, cfg.Payments.FraudThreshold, logger)

	initService := services.NewInitializeService(
		paymentRepo,
		couponRepo,
		pricing,
		discounts,
		fraud,
		gateway,
		cfg.Payments.Currency,
		cfg.Payments.PendingTTL,
		logger,
	)
	reconciler := services.NewReconciler(paymentRepo, gateway, caster, logger)
	queryService := services.NewQueryService(paymentRepo)

	h := handlers.NewHandlers(initService, reconciler, queryService, logger)

	mux := http.NewServeMux()
	h.Register(mux)

	handler := middleware.Recovery(logger)(http.Handler(mux))
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	verifyWorker := worker.NewVerifyWorker(
		paymentRepo,
		reconciler,
		cfg.Worker.Interval,
		cfg.Payments.PendingTTL,
		cfg.Worker.BatchSize,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go verifyWorker.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
