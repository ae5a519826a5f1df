// Package intentsweeper собирает фоновую уборку платёжных намерений:
// cron-задачи истечения просроченных намерений и опроса провайдера
// для каналов без webhook.
package intentsweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/cache"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/config"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/sl"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/paymentprovider"
	intentservice "github.com/cinexnema-cyber/teste-0101-sub001/internal/services/intent"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/services/reconcile"
	sweeperservice "github.com/cinexnema-cyber/teste-0101-sub001/internal/services/sweeper"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/storage/repository"
)

// App представляет приложение фоновой уборки намерений.
type App struct {
	sweeperService *sweeperservice.Service
	cfg            config.Sweeper
	logger         *slog.Logger
	db             *repository.Storage
}

func waitForDB(db *repository.Storage) error {
	for i := 0; i < 10; i++ {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения фоновой уборки.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(db); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	providerClient := paymentprovider.NewClient(cfg.ProviderBaseURL, cfg.MerchantID, cfg.Provider.SecretKey)
	reconcileWorker := reconcile.NewWorker(db, cacheRedis, logger)
	intentService := intentservice.NewService(db, reconcileWorker, providerClient, cfg.Plans, logger)
	sweeperService := sweeperservice.NewService(db, intentService, providerClient, logger)

	return &App{
		sweeperService: sweeperService,
		cfg:            cfg.Sweeper,
		logger:         logger,
		db:             db,
	}, nil
}

// Run регистрирует cron-задачи и работает до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	c := cron.New()

	if _, err := c.AddFunc(a.cfg.ExpireSchedule, func() {
		if err := a.sweeperService.RunExpireOverdue(ctx); err != nil {
			a.logger.Error("expire sweep failed", sl.Err(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule expire sweep: %w", err)
	}

	if _, err := c.AddFunc(a.cfg.PollSchedule, func() {
		if err := a.sweeperService.RunPollProvider(ctx); err != nil {
			a.logger.Error("provider poll sweep failed", sl.Err(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule provider poll sweep: %w", err)
	}

	c.Start()
	a.logger.Info("intent sweeper started",
		slog.String("expire_schedule", a.cfg.ExpireSchedule),
		slog.String("poll_schedule", a.cfg.PollSchedule))

	<-ctx.Done()
	a.logger.Info("intent sweeper shutting down gracefully")

	stopCtx := c.Stop()
	<-stopCtx.Done()
	_ = a.db.DB.Close()
	return nil
}
