package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cargoport/internal/config"
	"cargoport/internal/infra"
	"cargoport/internal/repository"
	"cargoport/internal/router"
	"cargoport/internal/service"
	"cargoport/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Worker pool for async repricing and balance reconciliation. Handlers
	// are wired here (composition root) with their own service instances.
	vehicleRepo := repository.NewVehicleRepository(db)
	containerRepo := repository.NewContainerRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	counterpartyRepo := repository.NewCounterpartyRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	distributor := service.NewSurchargeDistributor(catalogRepo, assignmentRepo, counterpartyRepo, cfg.SurchargeRoundingUnit)
	pricingSvc := service.NewPricingService(vehicleRepo, containerRepo, assignmentRepo, catalogRepo, counterpartyRepo, distributor, rdb)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, vehicleRepo, assignmentRepo, catalogRepo, paymentRepo, rdb)
	ledgerSvc := service.NewLedgerService(paymentRepo, invoiceRepo, counterpartyRepo, invoiceSvc, rdb)

	workerHandlers := &worker.WorkerHandlers{
		Recompute: worker.NewRecomputeWorker(pricingSvc),
		Reconcile: worker.NewReconcileWorker(ledgerSvc),
	}
	worker.StartWorkerPool(ctx, rdb, workerHandlers, cfg.WorkerPoolSize)

	dispatcher := worker.NewDispatcher(rdb)
	worker.StartReconcileCron(ctx, dispatcher, time.Duration(cfg.ReconcileIntervalHours)*time.Hour)

	r := router.New(cfg, db, rdb, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("cargoport backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
