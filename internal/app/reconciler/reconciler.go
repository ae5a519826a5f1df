// Package reconciler собирает воркер сверки: потребителя очереди событий
// статусов платежей, применяющего их к намерениям и подпискам.
package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/cache"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/config"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/rabbitmq"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/sl"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/paymentprovider"
	intentservice "github.com/cinexnema-cyber/teste-0101-sub001/internal/services/intent"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/services/reconcile"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/storage/repository"
)

// App представляет приложение воркера сверки.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	intentService *intentservice.Service
	logger        *slog.Logger
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

// New создает новый экземпляр приложения воркера сверки.
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

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetPaymentQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	providerClient := paymentprovider.NewClient(cfg.ProviderBaseURL, cfg.MerchantID, cfg.Provider.SecretKey)
	reconcileWorker := reconcile.NewWorker(db, cacheRedis, logger)
	intentService := intentservice.NewService(db, reconcileWorker, providerClient, cfg.Plans, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		intentService: intentService,
		logger:        logger,
	}, nil
}

// handleEvent применяет одно событие статуса платежа. Ошибки, которые не
// исправит повторная доставка, подтверждаются: неизвестный статус уже
// отложен в pending_unknown, а событие без намерения ждать некому.
func (a *App) handleEvent(body []byte) error {
	var event rabbitmq.ProviderStatusEvent
	if err := json.Unmarshal(body, &event); err != nil {
		a.logger.Error("failed to unmarshal provider status event", sl.Err(err))
		return nil
	}

	status, err := a.intentService.ApplyProviderStatusByReference(
		context.Background(), event.ExternalReference, event.ProviderStatus)
	if err != nil {
		if errors.Is(err, intentservice.ErrUnknownProviderStatus) ||
			errors.Is(err, intentservice.ErrIntentNotFound) {
			a.logger.Warn("provider status event parked",
				slog.String("external_reference", event.ExternalReference),
				sl.Err(err))
			return nil
		}
		a.logger.Error("failed to apply provider status event",
			slog.String("external_reference", event.ExternalReference),
			sl.Err(err))
		return err
	}

	a.logger.Info("provider status event applied",
		slog.String("external_reference", event.ExternalReference),
		slog.String("status", status))
	return nil
}

// Run запускает потребителя очереди событий статусов платежей.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.ProviderStatusQueue, a.handleEvent)
	if err != nil {
		a.logger.Error("failed to start provider status consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("reconciler shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
