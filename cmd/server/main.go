package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sdkadmin/internal/config"
	"sdkadmin/internal/infra"
	"sdkadmin/internal/repository"
	"sdkadmin/internal/router"
	"sdkadmin/internal/service"
	"sdkadmin/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger — dev: pretty, prod: JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	policy, err := cfg.CashUpPolicy()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid cash-up policy")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.TracingEnabled)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Worker handlers are wired here (composition root) so the pool shares
	// the breaker the health endpoint reports on.
	mailCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	mailer := infra.NewMailer(cfg)

	cashUpRepo := repository.NewCashUpRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	summarySvc := service.NewSummaryService(cashUpRepo, employeeRepo, policy, infra.NewSummaryCache(rdb), cfg.SummaryCacheTTL())

	pool := worker.NewPool(rdb)
	pool.Register(worker.JobWeeklyReport, worker.NewReportWorker(summarySvc, mailer, mailCB, cfg.ReportStoragePath).Handler())
	pool.Start(ctx, cfg.WorkerPoolSize)

	resolverSvc := service.NewResolverService(
		repository.NewTransactionRepository(db),
		repository.NewPolicyLinkageRepository(db),
		infra.NewLocker(rdb),
	)
	worker.StartResolverCron(ctx, resolverSvc, cfg.ResolverInterval())

	r := router.New(cfg, policy, db, rdb, mailCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second, // statement uploads
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("sdkadmin listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
