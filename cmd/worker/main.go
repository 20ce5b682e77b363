package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"fleetledger/auth"
	"fleetledger/config"
	"fleetledger/db"
	"fleetledger/jobs"
	"fleetledger/metrics"
	"fleetledger/services"
	"fleetledger/storage"
	"fleetledger/utils"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := config.NewLogger(cfg).With("component", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, closeStores, err := db.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("open stores", "error", err)
		os.Exit(1)
	}
	defer closeStores()

	opts := services.Options{ExpiryWindowDays: cfg.DocumentExpiryDays}
	r2, err := storage.NewR2(ctx, cfg)
	switch {
	case err == nil:
		opts.Storage = r2
	case errors.Is(err, storage.ErrNotConfigured):
		logger.Warn("object storage not configured; invoice pdfs will be skipped")
	default:
		logger.Error("object storage", "error", err)
		os.Exit(1)
	}
	svc := services.New(stores, opts, logger)

	processor := &jobs.Processor{
		Invoices:    svc.Invoices,
		Documents:   svc.Documents,
		Owners:      stores.Users,
		Storage:     opts.Storage,
		Render:      utils.GenerateInvoicePDF,
		SMS:         auth.LogSender{Logger: logger},
		TemplateDir: cfg.TemplateDir,
		WindowDays:  cfg.DocumentExpiryDays,
		Metrics:     metrics.NewMetrics(),
		Logger:      logger,
	}
	go serveMetrics(ctx, cfg.WorkerMetricsPort, processor.Metrics, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		Concurrency:    cfg.WorkerConcurrency,
		ExpiryScanCron: cfg.ExpiryScanCron,
		Processor:      processor,
		Logger:         logger,
	})
	if err != nil {
		logger.Error("start worker", "error", err)
		os.Exit(1)
	}
	if err := worker.Run(ctx); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

// serveMetrics exposes the job counters for scraping until ctx is done.
func serveMetrics(ctx context.Context, port string, m *metrics.Metrics, logger *slog.Logger) {
	if port == "" {
		return
	}
	srv := &http.Server{Addr: ":" + port, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server", "error", err)
	}
}
