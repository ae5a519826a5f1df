// Package intent реализует трекер платёжных намерений: создание checkout,
// привязку внешнего идентификатора платежа и применение статусов провайдера.
// Любой входящий сигнал о платеже — webhook, результат опроса или ручное
// подтверждение оператора — проходит через ApplyProviderStatus.
package intent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/config"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/sl"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/metrics"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/paymentprovider"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/rails"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/storage/repository"
)

// Ошибки трекера платёжных намерений.
var (
	// ErrDuplicateActiveIntent — у учётной записи уже есть незавершённая
	// оплата этого плана; пользователь возобновляет её, а не платит повторно.
	ErrDuplicateActiveIntent = errors.New("duplicate active payment intent")
	// ErrUnknownRail — канал отсутствует в таблице каналов.
	ErrUnknownRail = errors.New("unknown payment rail")
	// ErrUnknownProviderStatus — статус провайдера вне словаря канала.
	// Намерение помечается pending_unknown, подписка не продвигается.
	ErrUnknownProviderStatus = errors.New("unknown provider status")
	// ErrIntentNotFound — намерение не найдено.
	ErrIntentNotFound = errors.New("payment intent not found")
)

// IntentRepository определяет методы хранилища платёжных намерений.
type IntentRepository interface {
	CreateIntent(ctx context.Context, intent models.PaymentIntent) error
	GetIntent(ctx context.Context, id string) (*models.PaymentIntent, error)
	GetIntentByExternalReference(ctx context.Context, externalReference string) (*models.PaymentIntent, error)
	GetActiveIntent(ctx context.Context, accountUID, plan string) (*models.PaymentIntent, error)
	SetIntentAwaiting(ctx context.Context, id, externalReference string) (int, error)
	UpdateIntentStatus(ctx context.Context, id, status string, confirmedAt *time.Time) (int, error)
}

// Reconciler определяет вызовы воркера сверки для терминальных исходов.
type Reconciler interface {
	OnPaymentConfirmed(ctx context.Context, intent *models.PaymentIntent) (*models.Subscription, error)
	OnPaymentTerminalFailure(ctx context.Context, intent *models.PaymentIntent) error
}

// Gateway определяет вызов платёжного шлюза для создания checkout-сессии.
type Gateway interface {
	CreateCheckout(ctx context.Context, req paymentprovider.CreateCheckoutRequest) (*paymentprovider.CreateCheckoutResponse, error)
}

// Service реализует трекер платёжных намерений.
type Service struct {
	repo       IntentRepository
	reconciler Reconciler
	gateway    Gateway
	plans      config.Plans
	log        *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo IntentRepository, reconciler Reconciler, gateway Gateway, plans config.Plans, log *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		reconciler: reconciler,
		gateway:    gateway,
		plans:      plans,
		log:        log,
	}
}

// CheckoutResult — созданное намерение вместе со способом завершения оплаты.
type CheckoutResult struct {
	Intent   *models.PaymentIntent
	Checkout paymentprovider.Checkout
}

// CreateCheckout создаёт платёжное намерение и checkout-сессию у шлюза.
// Второе незавершённое намерение того же плана отклоняется с
// ErrDuplicateActiveIntent: частичный уникальный индекс в базе закрывает
// и гонку повторных отправок формы.
func (s *Service) CreateCheckout(ctx context.Context, accountUID, plan, rail string) (*CheckoutResult, error) {
	const op = "intent.CreateCheckout"

	spec, ok := rails.Lookup(rail)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrUnknownRail)
	}

	now := time.Now().UTC()
	newIntent := models.PaymentIntent{
		ID:         uuid.New().String(),
		AccountUID: accountUID,
		Plan:       plan,
		Rail:       rail,
		Status:     models.IntentStatusCreated,
		CreatedAt:  now,
		ExpiresAt:  now.Add(spec.Expiry),
	}
	if err := s.repo.CreateIntent(ctx, newIntent); err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveIntent) {
			return nil, fmt.Errorf("%s: %w", op, ErrDuplicateActiveIntent)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	checkoutResp, err := s.gateway.CreateCheckout(ctx, paymentprovider.CreateCheckoutRequest{
		Amount: paymentprovider.Amount{
			Value:    s.priceFor(plan),
			Currency: s.plans.Currency,
		},
		Method: rail,
		Metadata: map[string]string{
			"intent_id":   newIntent.ID,
			"account_uid": accountUID,
			"plan":        plan,
		},
	})
	if err != nil {
		// Намерение без checkout-сессии никогда не подтвердится — закрываем
		// его сразу, чтобы не блокировать повторную попытку оплаты.
		if _, cancelErr := s.repo.UpdateIntentStatus(ctx, newIntent.ID, models.IntentStatusCancelled, nil); cancelErr != nil {
			s.log.Error("failed to cancel intent after gateway error", sl.Err(cancelErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.repo.SetIntentAwaiting(ctx, newIntent.ID, checkoutResp.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	newIntent.Status = models.IntentStatusAwaiting
	newIntent.ExternalReference = &checkoutResp.ID

	s.log.Info("payment intent created",
		slog.String("intent_id", newIntent.ID),
		slog.String("rail", rail),
		slog.String("plan", plan))

	return &CheckoutResult{
		Intent:   &newIntent,
		Checkout: checkoutResp.Checkout,
	}, nil
}

// ActiveIntent возвращает незавершённое намерение пары учётная запись + план.
// Используется для возобновления checkout после ErrDuplicateActiveIntent.
func (s *Service) ActiveIntent(ctx context.Context, accountUID, plan string) (*models.PaymentIntent, error) {
	return s.repo.GetActiveIntent(ctx, accountUID, plan)
}

// ApplyProviderStatus применяет статус провайдера к намерению и возвращает
// итоговый статус намерения. Подтверждение синхронно вызывает воркер
// сверки; неизвестный статус провайдера откладывает намерение в
// pending_unknown и возвращает ErrUnknownProviderStatus — подписка при
// этом не продвигается.
func (s *Service) ApplyProviderStatus(ctx context.Context, id, providerStatus string) (string, error) {
	const op = "intent.ApplyProviderStatus"
	log := s.log.With(slog.String("op", op), slog.String("intent_id", id))

	current, err := s.repo.GetIntent(ctx, id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if current == nil {
		return "", fmt.Errorf("%s: %w", op, ErrIntentNotFound)
	}

	mapped, ok := rails.MapProviderStatus(current.Rail, providerStatus)
	if !ok {
		metrics.UnknownProviderStatuses.WithLabelValues(current.Rail).Inc()
		log.Warn("provider status outside rail vocabulary, flagged for review",
			slog.String("rail", current.Rail),
			slog.String("provider_status", providerStatus))
		if !current.IsTerminal() {
			if _, err := s.repo.UpdateIntentStatus(ctx, id, models.IntentStatusPendingUnknown, nil); err != nil {
				return "", fmt.Errorf("%s: %w", op, err)
			}
		}
		return models.IntentStatusPendingUnknown, fmt.Errorf("%s: %w", op, ErrUnknownProviderStatus)
	}

	if current.IsTerminal() {
		// Повторная доставка webhook. Подтверждение прогоняем через воркер
		// ещё раз: сверка идемпотентна, а пропущенный ранее вызов доедет.
		if current.Status == models.IntentStatusConfirmed && mapped == models.IntentStatusConfirmed {
			if _, err := s.reconciler.OnPaymentConfirmed(ctx, current); err != nil {
				return "", fmt.Errorf("%s: %w", op, err)
			}
		}
		log.Info("duplicate provider status ignored", slog.String("status", current.Status))
		return current.Status, nil
	}

	now := time.Now().UTC()
	var confirmedAt *time.Time
	if mapped == models.IntentStatusConfirmed {
		confirmedAt = &now
	}
	rows, err := s.repo.UpdateIntentStatus(ctx, id, mapped, confirmedAt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		// Гонка с параллельной доставкой: статус уже терминален.
		updated, err := s.repo.GetIntent(ctx, id)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		return updated.Status, nil
	}

	current.Status = mapped
	current.ConfirmedAt = confirmedAt

	if mapped == models.IntentStatusConfirmed {
		if _, err := s.reconciler.OnPaymentConfirmed(ctx, current); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	} else {
		if err := s.reconciler.OnPaymentTerminalFailure(ctx, current); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	log.Info("provider status applied", slog.String("status", mapped))
	return mapped, nil
}

// ApplyProviderStatusByReference применяет статус провайдера по внешнему
// идентификатору платежа. Вход для webhook-консьюмера и воркера опроса.
func (s *Service) ApplyProviderStatusByReference(ctx context.Context, externalReference, providerStatus string) (string, error) {
	const op = "intent.ApplyProviderStatusByReference"

	current, err := s.repo.GetIntentByExternalReference(ctx, externalReference)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if current == nil {
		return "", fmt.Errorf("%s: %w", op, ErrIntentNotFound)
	}
	return s.ApplyProviderStatus(ctx, current.ID, providerStatus)
}

// GetIntentStatus возвращает статус намерения для опроса клиентом.
// Неблокирующее чтение с ленивым истечением: просроченное нетерминальное
// намерение переводится в expired прямо при чтении.
func (s *Service) GetIntentStatus(ctx context.Context, id string) (string, error) {
	const op = "intent.GetIntentStatus"

	current, err := s.repo.GetIntent(ctx, id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if current == nil {
		return "", fmt.Errorf("%s: %w", op, ErrIntentNotFound)
	}

	if !current.IsTerminal() && current.ExpiresAt.Before(time.Now().UTC()) {
		if _, err := s.repo.UpdateIntentStatus(ctx, id, models.IntentStatusExpired, nil); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		return models.IntentStatusExpired, nil
	}
	return current.Status, nil
}

// GetIntent возвращает намерение по ID.
func (s *Service) GetIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	return s.repo.GetIntent(ctx, id)
}

func (s *Service) priceFor(plan string) string {
	if plan == models.PlanYearly {
		return s.plans.YearlyPrice
	}
	return s.plans.MonthlyPrice
}
