package db

import (
	"context"
	"fmt"
	"log/slog"

	"fleetledger/config"
	"fleetledger/db/mongo"
	"fleetledger/db/postgres"
	"fleetledger/repository"
)

type DBType string

const (
	Mongo  DBType = "mongo"
	Memory DBType = "memory"
	// Postgres is only used as a user store (USER_STORE=postgres).
	Postgres DBType = "postgres"
)

type DB interface {
	Connect() error
	Disconnect() error
	GetContext() context.Context
}

// OpenStores connects the configured backends and returns the stores with a
// function that disconnects them.
func OpenStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repository.Stores, func(), error) {
	var (
		stores *repository.Stores
		conns  []DB
	)
	closeAll := func() {
		for _, c := range conns {
			if err := c.Disconnect(); err != nil {
				logger.Warn("disconnect failed", "error", err)
			}
		}
	}

	switch DBType(cfg.DBType) {
	case Mongo:
		mg := mongo.NewMongoDB(cfg.MongoURL)
		if err := mg.Connect(); err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		conns = append(conns, mg)
		stores = repository.NewMongoStores(mg.Client, cfg.MongoDB, cfg.MongoTransactions)
		if err := stores.EnsureIndexes(ctx); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		logger.Info("connected to mongo", "db", cfg.MongoDB, "transactions", cfg.MongoTransactions)
	case Memory:
		stores = repository.NewMemoryStores()
		logger.Warn("using in-memory stores; data is lost on restart")
	default:
		return nil, nil, fmt.Errorf("DB_TYPE %q not supported", cfg.DBType)
	}

	if DBType(cfg.UserStore) == Postgres {
		if err := RunMigrations(cfg.PostgresURL, cfg.MigrationsURL, logger); err != nil {
			closeAll()
			return nil, nil, err
		}
		pg := postgres.NewPostgresDB(cfg.PostgresURL, cfg.PostgresMaxConn)
		if err := pg.Connect(); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		conns = append(conns, pg)
		stores.Users = repository.NewPostgresUserRepo(pg.Conn)
		logger.Info("users stored in postgres")
	}
	return stores, closeAll, nil
}
