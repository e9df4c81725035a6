package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlas-erp/atlas-erp/internal/accounting/coa"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	"github.com/atlas-erp/atlas-erp/internal/accounting/reports"
	"github.com/atlas-erp/atlas-erp/internal/accounting/vouchers"
	"github.com/atlas-erp/atlas-erp/internal/app"
	"github.com/atlas-erp/atlas-erp/internal/audit"
	audithttp "github.com/atlas-erp/atlas-erp/internal/audit/http"
	"github.com/atlas-erp/atlas-erp/internal/observability"
	"github.com/atlas-erp/atlas-erp/internal/platform/cache"
	"github.com/atlas-erp/atlas-erp/internal/platform/db"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		// Balances degrade to derive-on-read without the cache.
		logger.Warn("redis unavailable, balance cache disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	accountsRepo := coa.NewRepository(pool)
	accountsService := coa.NewService(accountsRepo)
	accountsHandler := coa.NewHandler(logger, accountsService)

	ledgerRepo := ledger.NewRepository(pool)
	aggregator := ledger.NewAggregator(ledgerRepo, accountsService, redisClient, cfg.BalanceCacheTTL, logger)
	queryService := ledger.NewQueryService(ledgerRepo, accountsService)
	ledgerHandler := ledger.NewHandler(logger, queryService, aggregator)

	vouchersRepo := vouchers.NewRepository(pool)
	vouchersService := vouchers.NewService(vouchersRepo, accountsRepo, aggregator)
	vouchersService.WithPostingObserver(func(t vouchers.VoucherType) {
		metrics.VoucherPosted(string(t))
	})
	vouchersHandler := vouchers.NewHandler(logger, vouchersService)

	reportsHandler := reports.NewHandler(logger, accountsRepo, ledgerRepo)

	auditService := audit.NewService(audit.NewRepository(pool))
	auditHandler := audithttp.NewHandler(auditService, logger)

	integrity := ledger.NewIntegrityChecker(ledger.NewIntegritySource(pool), logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Metrics:         metrics,
		AccountsHandler: accountsHandler,
		VouchersHandler: vouchersHandler,
		LedgerHandler:   ledgerHandler,
		ReportsHandler:  reportsHandler,
		AuditHandler:    auditHandler,
		Integrity:       integrity,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
