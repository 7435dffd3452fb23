// Package app builds the service graph shared by the server and the sweep
// command.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"transactx/internal/config"
	"transactx/internal/money"
	"transactx/internal/repositories"
	"transactx/internal/repositories/cache"
	"transactx/internal/scheduler"
	"transactx/internal/services/fee"
	"transactx/internal/services/sweeper"
	"transactx/internal/services/transaction"
	"transactx/internal/services/transfer"
	"transactx/internal/services/wallet"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	DB    *gorm.DB
	Redis *redis.Client
	Store repositories.Store

	Wallets      *wallet.Service
	Transactions *transaction.Service
	Transfers    *transfer.Service
	Sweeper      *sweeper.Sweeper
	Scheduler    *scheduler.Scheduler
}

// New connects to PostgreSQL and Redis and wires the services. The sweep is
// registered on the scheduler but the scheduler is not started. Amounts are
// always in money.DefaultCurrency, which the money columns are tagged with.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := sweeper.ParseErrorPolicy(cfg.Sweep.ErrorPolicy)
	if err != nil {
		return nil, err
	}

	db, err := repositories.InitDB(cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database", "host", cfg.DB.Host, "name", cfg.DB.Name)

	rdb := cache.NewRedisClient(cfg.Redis)
	if err := cache.HealthCheck(ctx, rdb); err != nil {
		_ = repositories.Close(db)
		return nil, err
	}
	logger.Info("connected to redis", "host", cfg.Redis.Host)

	store := repositories.NewStore(db)

	var (
		provider transfer.PayoutProvider
		txOpts   []transaction.Option
	)
	if cfg.StripeSecretKey != "" {
		provider = transfer.NewStripePayoutProvider(cfg.StripeSecretKey)
		txOpts = append(txOpts, transaction.WithStripeAccountRequired())
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, payouts are logged only")
		provider = transfer.LogPayoutProvider{Logger: logger}
	}

	a := &App{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		Redis:        rdb,
		Store:        store,
		Wallets:      wallet.NewService(store, money.DefaultCurrency, logger),
		Transactions: transaction.NewService(store, fee.NewCalculator(fee.DefaultSchedule()), money.DefaultCurrency, logger, txOpts...),
		Transfers:    transfer.NewService(store, provider, logger),
		Scheduler:    scheduler.New(cache.NewRedisLocker(rdb), logger),
	}
	a.Sweeper = sweeper.New(store.Transactions(), a.Transfers, policy, logger)
	if err := a.Scheduler.Every(sweeper.JobName, cfg.Sweep.Interval, cfg.Sweep.LockTTL, a.Sweeper.Sweep); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}

	return a, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.DB != nil {
		if err := repositories.Close(a.DB); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PingDB checks the database connection.
func (a *App) PingDB(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *App) PingRedis(ctx context.Context) error {
	return cache.HealthCheck(ctx, a.Redis)
}
