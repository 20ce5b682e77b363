package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"fleetledger/auth"
	"fleetledger/config"
	"fleetledger/db"
	"fleetledger/handlers"
	"fleetledger/jobs"
	"fleetledger/metrics"
	"fleetledger/routes"
	"fleetledger/services"
	"fleetledger/storage"
)

func main() {
	// Load config from .env or the environment
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, closeStores, err := db.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("open stores", "error", err)
		os.Exit(1)
	}
	defer closeStores()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("connect redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	queue := jobs.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer queue.Close()

	opts := services.Options{
		Jobs:              queue,
		ImageMaxDimension: cfg.ImageMaxDimension,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		InvoiceDueDays:    cfg.InvoiceDueDays,
		ExpiryWindowDays:  cfg.DocumentExpiryDays,
	}
	r2, err := storage.NewR2(ctx, cfg)
	switch {
	case err == nil:
		opts.Storage = r2
	case errors.Is(err, storage.ErrNotConfigured):
		logger.Warn("object storage not configured; document uploads are disabled")
	default:
		logger.Error("object storage", "error", err)
		os.Exit(1)
	}

	svc := services.New(stores, opts, logger)
	sms := auth.LogSender{Logger: logger}
	users := services.NewUserService(
		stores.Users,
		auth.NewOTPStore(rdb, cfg.OTPTTL, cfg.OTPLength),
		sms,
		services.TokenConfig{Secret: cfg.JWTSecret, TokenTTL: cfg.TokenTTL, RoleTokenTTL: cfg.RoleTokenTTL},
		logger,
	)

	m := metrics.NewMetrics()
	set := handlers.NewSet(svc, users, handlers.Config{
		Cookies: handlers.CookieConfig{
			Secure:       cfg.IsProduction(),
			TokenTTL:     cfg.TokenTTL,
			RoleTokenTTL: cfg.RoleTokenTTL,
		},
		MaxUploadBytes: cfg.MaxUploadBytes,
		ExpiryDays:     cfg.DocumentExpiryDays,
		Jobs:           queue,
		Metrics:        m,
		Logger:         logger,
	})
	router := routes.NewRouter(set, routes.Options{
		JWTSecret:      cfg.JWTSecret,
		Grants:         users,
		AuthRateLimit:  cfg.AuthRateLimit,
		AllowedOrigins: cfg.CORSOrigins,
		Production:     cfg.IsProduction(),
		Timeout:        cfg.RequestTimeout,
		Metrics:        m,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	logger.Info("server running", "port", cfg.Port, "env", cfg.AppEnv, "db", cfg.DBType)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
