// Package xnemaplatform собирает основное приложение платформы: хранилище,
// кеш, брокер платёжных событий, бизнес-сервисы и HTTP-сервер.
package xnemaplatform

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/cache"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/config"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/jwt"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/rabbitmq"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/migrations"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/paymentprovider"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/services/access"
	authservice "github.com/cinexnema-cyber/teste-0101-sub001/internal/services/auth"
	intentservice "github.com/cinexnema-cyber/teste-0101-sub001/internal/services/intent"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/services/reconcile"
	revenueservice "github.com/cinexnema-cyber/teste-0101-sub001/internal/services/revenue"
	subservice "github.com/cinexnema-cyber/teste-0101-sub001/internal/services/subscription"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/storage/repository"
)

// App инкапсулирует HTTP-сервер платформы и его зависимости.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	amqpConn *amqp.Connection
}

// statusPublisher публикует события статусов платежей в обменник payments.
type statusPublisher struct {
	ch *amqp.Channel
}

func (p *statusPublisher) Publish(event rabbitmq.ProviderStatusEvent) error {
	return rabbitmq.PublishMessage(p.ch, rabbitmq.PaymentsExchange, rabbitmq.ProviderStatusRoutingKey, event)
}

// New создаёт приложение: подключает зависимости, прогоняет миграции
// и регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	amqpConn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	amqpChannel, err := rabbitmq.SetupChannel(amqpConn, rabbitmq.GetPaymentQueues())
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	providerClient := paymentprovider.NewClient(cfg.ProviderBaseURL, cfg.MerchantID, cfg.Provider.SecretKey)

	authService := authservice.NewAuthService(db, jwtMaker)
	subscriptionService := subservice.NewService(db, cacheRedis, logger)
	reconcileWorker := reconcile.NewWorker(db, cacheRedis, logger)
	intentService := intentservice.NewService(db, reconcileWorker, providerClient, cfg.Plans, logger)
	revenueService := revenueservice.NewService(db, db, cfg.GraceMonths, logger)
	evaluator := access.NewEvaluator("/login", "/pricing")

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:          authService,
		Subscriptions: subscriptionService,
		Intents:       intentService,
		Revenue:       revenueService,
		Accounts:      db,
		Evaluator:     evaluator,
		Publisher:     &statusPublisher{ch: amqpChannel},
		WebhookSecret: cfg.WebhookSecret,
	})

	router.Get("/docs/*", httpSwagger.WrapHandler)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		amqpConn: amqpConn,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.amqpConn.Close()
		_ = a.db.DB.Close()
		return err
	}
}
